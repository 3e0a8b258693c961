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
	"strings"

	"github.com/tomoncle/shrimp/criteria"
)

// Query returns the rows of T matching a raw WHERE fragment, e.g.
// repo.Query(ctx, "status > ? AND email LIKE ?", 0, "%@example.com").
func (r *BaseRepository[T, ID]) Query(ctx context.Context, where string, args ...interface{}) ([]*T, error) {
	if strings.TrimSpace(where) == "" {
		return nil, validationError("query text must not be empty")
	}
	items := make([]*T, 0)
	if err := r.db.NewSelect().Model(&items).Where(where, args...).Scan(ctx); err != nil {
		return nil, r.fail("query", err)
	}
	return items, nil
}

// FindBySQL runs a complete statement and maps its rows onto T by column
// name. Columns without a matching field are an error.
func (r *BaseRepository[T, ID]) FindBySQL(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	if strings.TrimSpace(query) == "" {
		return nil, validationError("query text must not be empty")
	}
	items := make([]*T, 0)
	if err := r.db.NewRaw(query, args...).Scan(ctx, &items); err != nil {
		return nil, r.fail("findBySQL", err)
	}
	return items, nil
}

// FindUniqueBySQL is FindBySQL for statements expected to yield at most one
// row. It returns (nil, nil) for none and ErrMultipleResults for several.
func (r *BaseRepository[T, ID]) FindUniqueBySQL(ctx context.Context, query string, args ...interface{}) (*T, error) {
	items, err := r.FindBySQL(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return items[0], nil
	default:
		return nil, ErrMultipleResults
	}
}

// CountBySQL scans the first column of a statement such as
// "SELECT count(*) FROM users WHERE status = ?".
func (r *BaseRepository[T, ID]) CountBySQL(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if strings.TrimSpace(query) == "" {
		return 0, validationError("query text must not be empty")
	}
	var n int64
	if err := r.db.NewRaw(query, args...).Scan(ctx, &n); err != nil {
		return 0, r.fail("countBySQL", err)
	}
	return n, nil
}

// ListByCriteriaRange returns at most maxRows rows matching c, skipping the
// first first rows. Unlike the page queries it runs no count.
func (r *BaseRepository[T, ID]) ListByCriteriaRange(ctx context.Context, c *criteria.Criteria, first, maxRows int) ([]*T, error) {
	if first < 0 {
		return nil, validationError("first row must not be negative, got %d", first)
	}
	if maxRows <= 0 {
		return nil, validationError("max rows must be positive, got %d", maxRows)
	}
	table, err := r.table()
	if err != nil {
		return nil, err
	}
	items := make([]*T, 0, maxRows)
	q, err := criteria.ApplySelect(r.db.NewSelect().Model(&items), table, c, true)
	if err != nil {
		return nil, wrapValidation(err)
	}
	q = q.Offset(first).Limit(maxRows)
	if err := q.Scan(r.cacheableContext(ctx, c != nil && c.IsCacheable())); err != nil {
		return nil, r.fail("listByCriteriaRange", err)
	}
	return items, nil
}
