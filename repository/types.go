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

package repository

import (
	"context"

	"github.com/tomoncle/shrimp/criteria"
	"github.com/tomoncle/shrimp/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// CrudRepository covers single-entity reads and writes by identifier.
type CrudRepository[T any, ID comparable] interface {
	Get(ctx context.Context, id ID) (*T, error)

	GetWithLock(ctx context.Context, id ID, lock bool) (*T, error)

	Load(ctx context.Context, id ID) (*Ref[T, ID], error)

	LoadWithLock(ctx context.Context, id ID, lock bool) (*Ref[T, ID], error)

	Save(ctx context.Context, entity *T) (*T, error)

	SaveAny(ctx context.Context, model interface{}) (interface{}, error)

	Update(ctx context.Context, entity *T) error

	SaveOrUpdate(ctx context.Context, entity *T) (*T, error)

	Upsert(ctx context.Context, fields []string, conflictKeys []string, entities ...*T) error

	Delete(ctx context.Context, entity *T) error

	DeleteByID(ctx context.Context, id ID) (*T, error)

	DeleteByIDBulk(ctx context.Context, id ID) (int64, error)

	Refresh(ctx context.Context, entity *T) error

	FindAll(ctx context.Context) ([]*T, error)
}

// PageQueryRepository runs a count and a slice query per page.
type PageQueryRepository[T any] interface {
	FindByPage(ctx context.Context, pageIndex, pageSize int, orders ...types.Order) (*types.Page[T], error)

	FindByPageRequest(ctx context.Context, req *types.PageRequest) (*types.Page[T], error)

	FindByPageCriteria(ctx context.Context, c *criteria.Criteria, pageIndex, pageSize int, cacheable bool) (*types.Page[T], error)
}

// PropertyRepository looks up and bulk-updates rows by column values.
type PropertyRepository[T any, ID comparable] interface {
	FindByProperty(ctx context.Context, name string, value interface{}) ([]*T, error)

	GetByProperty(ctx context.Context, name string, value interface{}) (*T, error)

	UpdatePropertiesByID(ctx context.Context, set criteria.UpdateSet, id ID) (int64, error)

	UpdateProperties(ctx context.Context, set criteria.UpdateSet, where ...criteria.Predicate) (int64, error)

	UpdateAllProperties(ctx context.Context, set criteria.UpdateSet) (int64, error)
}

// CriteriaRepository executes caller-built criteria as-is.
type CriteriaRepository[T any] interface {
	Criteria() *criteria.Criteria

	ListByCriteria(ctx context.Context, c *criteria.Criteria) ([]*T, error)

	ListByCriteriaSelect(ctx context.Context, c *criteria.Criteria, fields ...string) ([]*T, error)

	UniqueByCriteria(ctx context.Context, c *criteria.Criteria) (*T, error)

	CountByCriteria(ctx context.Context, c *criteria.Criteria) (int64, error)

	ListByCriteriaRange(ctx context.Context, c *criteria.Criteria, first, maxRows int) ([]*T, error)
}

// QueryRepository runs caller-written SQL. Query takes a WHERE fragment;
// the *BySQL methods take whole statements.
type QueryRepository[T any] interface {
	Query(ctx context.Context, where string, args ...interface{}) ([]*T, error)

	FindBySQL(ctx context.Context, query string, args ...interface{}) ([]*T, error)

	FindUniqueBySQL(ctx context.Context, query string, args ...interface{}) (*T, error)

	CountBySQL(ctx context.Context, query string, args ...interface{}) (int64, error)
}

// Repository combines every repository capability and exposes the bun query
// builders of the bound handle for anything not covered.
type Repository[T any, ID comparable] interface {
	CrudRepository[T, ID]
	PageQueryRepository[T]
	PropertyRepository[T, ID]
	CriteriaRepository[T]
	QueryRepository[T]
	Dialect() schema.Dialect
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}
