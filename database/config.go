/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML configuration file on top of the defaults. Any
// envFiles are loaded first with godotenv (existing variables win), then the
// DB_* environment overrides are applied.
func LoadConfig(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	cfg := &Config{ConnectionConfig: *DefaultConnectionConfig()}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	applyEnvOverrides(&cfg.ConnectionConfig)
	return cfg, nil
}

// applyEnvOverrides overrides connection settings from environment variables.
// Durations are given in whole seconds.
func applyEnvOverrides(cfg *ConnectionConfig) {
	overrideString("DB_TYPE", &cfg.Type)
	overrideString("DB_HOST", &cfg.Host)
	overrideInt("DB_PORT", &cfg.Port)
	overrideString("DB_USERNAME", &cfg.Username)
	overrideString("DB_PASSWORD", &cfg.Password)
	overrideString("DB_NAME", &cfg.DBName)
	overrideString("DB_SSLMODE", &cfg.SSLMode)

	overrideInt("DB_MAX_IDLE_CONNS", &cfg.MaxIdleConns)
	overrideInt("DB_MAX_OPEN_CONNS", &cfg.MaxOpenConns)
	overrideSeconds("DB_CONN_MAX_LIFETIME", &cfg.ConnMaxLifetime)
	overrideSeconds("DB_SLOW_QUERY_TIME", &cfg.SlowQueryTime)

	overrideBool("DB_ENABLE_QUERY_LOG", &cfg.EnableQueryLog)
	overrideBool("DB_ENABLE_METRICS", &cfg.EnableMetrics)
}

func overrideString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overrideSeconds(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(n) * time.Second
		}
	}
}

func overrideBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "true"
	}
}
