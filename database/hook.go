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
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

type cacheableKey struct{}

// WithCacheable marks queries run with the returned context as cacheable.
// The flag is a hint for hooks and drivers; this package caches nothing.
func WithCacheable(ctx context.Context, cacheable bool) context.Context {
	return context.WithValue(ctx, cacheableKey{}, cacheable)
}

// IsCacheable reports the hint set by WithCacheable.
func IsCacheable(ctx context.Context) bool {
	v, _ := ctx.Value(cacheableKey{}).(bool)
	return v
}

// LogQueryHook logs failed and slow queries at warn level and, when
// verbose, every query at debug level.
type LogQueryHook struct {
	logger   Logger
	slowTime time.Duration
	verbose  bool
}

var _ bun.QueryHook = (*LogQueryHook)(nil)

// NewLogQueryHook creates a hook. A zero slowTime disables slow query warnings.
func NewLogQueryHook(logger Logger, slowTime time.Duration, verbose bool) *LogQueryHook {
	if logger == nil {
		logger = GetLogger()
	}
	return &LogQueryHook{logger: logger, slowTime: slowTime, verbose: verbose}
}

func (h *LogQueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *LogQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	fields := []interface{}{
		"operation", event.Operation(),
		"duration", duration.Round(time.Microsecond),
	}
	if IsCacheable(ctx) {
		fields = append(fields, "cacheable", true)
	}

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		fields = append(fields, "kind", Classify(event.Err).String(), "error", event.Err, "query", event.Query)
		h.logger.Warn(color.RedString("Database query failed"), fields...)
		return
	}
	if h.slowTime > 0 && duration > h.slowTime {
		fields = append(fields, "slow_threshold", h.slowTime, "query", event.Query)
		h.logger.Warn(color.YellowString("Database slow query detected"), fields...)
		return
	}
	if h.verbose {
		h.logger.Debug(colorOperation(event.Operation(), event.Query), fields...)
	}
}

func colorOperation(operation, query string) string {
	switch operation {
	case "SELECT":
		return color.GreenString(query)
	case "INSERT":
		return color.BlueString(query)
	case "UPDATE":
		return color.YellowString(query)
	case "DELETE":
		return color.MagentaString(query)
	default:
		return color.CyanString(query)
	}
}
