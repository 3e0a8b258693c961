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
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
)

// MigrationManager creates and drops the tables of registered models.
// It does not diff or alter existing tables.
type MigrationManager struct {
	db       bun.IDB
	logger   Logger
	registry ModelRegistry
}

// NewMigrationManager uses the default model registry.
func NewMigrationManager(db bun.IDB, logger Logger) *MigrationManager {
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{db: db, logger: logger, registry: defaultRegistry}
}

// WithRegistry replaces the registry the manager reads models from.
func (mm *MigrationManager) WithRegistry(registry ModelRegistry) *MigrationManager {
	mm.registry = registry
	return mm
}

// CreateTables creates every registered model table, in priority order,
// inside one transaction.
func (mm *MigrationManager) CreateTables(ctx context.Context) error {
	return mm.CreateTablesFor(ctx, instancesOf(mm.registry)...)
}

// CreateTablesFor creates the tables of the given models if they do not exist.
func (mm *MigrationManager) CreateTablesFor(ctx context.Context, models ...interface{}) error {
	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range models {
			if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create table for %s: %w", modelName(model), err)
			}
			mm.logger.Debug("Table ensured", "model", modelName(model))
		}
		return nil
	})
}

// DropTables drops every registered model table in reverse priority order.
func (mm *MigrationManager) DropTables(ctx context.Context) error {
	models := instancesOf(mm.registry)
	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i := len(models) - 1; i >= 0; i-- {
			if _, err := tx.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to drop table for %s: %w", modelName(models[i]), err)
			}
		}
		return nil
	})
}

func modelName(model interface{}) string {
	t := reflect.TypeOf(model)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
