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

package criteria

import (
	"sort"

	"github.com/tomoncle/shrimp/types"
)

// Operator identifies how a predicate compares a field with its value.
type Operator int

const (
	OpEq Operator = iota
	// OpLike matches anywhere in the field: LIKE '%value%'.
	OpLike
	// OpRaw is a caller-written WHERE fragment.
	OpRaw
)

// Predicate is a single condition. Predicates in a Criteria are ANDed.
type Predicate struct {
	Field string
	Op    Operator
	Value interface{}
	raw   *types.QueryFilter
}

// Eq builds an equality predicate. A nil value renders as IS NULL.
func Eq(field string, value interface{}) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: value}
}

// Like builds a match-anywhere substring predicate.
func Like(field string, substr string) Predicate {
	return Predicate{Field: field, Op: OpLike, Value: substr}
}

// Raw wraps a QueryFilter as a predicate. Its schema is passed to bun
// verbatim, so field names inside it are not resolved.
func Raw(filter *types.QueryFilter) Predicate {
	return Predicate{Op: OpRaw, raw: filter}
}

// EqMap converts an equality condition set into predicates, sorted by key.
func EqMap(conditions map[string]interface{}) []Predicate {
	keys := sortedKeys(conditions)
	out := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		out = append(out, Eq(k, conditions[k]))
	}
	return out
}

// LikeMap converts a substring condition set into predicates, sorted by key.
func LikeMap(conditions map[string]string) []Predicate {
	keys := sortedKeys(conditions)
	out := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		out = append(out, Like(k, conditions[k]))
	}
	return out
}

// Assignment is a single `field = value` in an update statement.
type Assignment struct {
	Field string
	Value interface{}
}

// UpdateSet is an ordered list of assignments.
type UpdateSet []Assignment

// Set builds an update set from assignments in the given order.
func Set(assignments ...Assignment) UpdateSet {
	return UpdateSet(assignments)
}

// SetMap converts a map into an update set sorted by key.
func SetMap(values map[string]interface{}) UpdateSet {
	keys := sortedKeys(values)
	out := make(UpdateSet, 0, len(keys))
	for _, k := range keys {
		out = append(out, Assignment{Field: k, Value: values[k]})
	}
	return out
}

// Criteria is a filter specification: ANDed predicates, sort keys, an
// optional column projection, a distinct flag and the cacheable hint.
type Criteria struct {
	predicates []Predicate
	orders     []types.Order
	columns    []string
	distinct   bool
	cacheable  bool
}

// New returns an empty Criteria that matches every row.
func New() *Criteria {
	return &Criteria{}
}

func (c *Criteria) Add(predicates ...Predicate) *Criteria {
	c.predicates = append(c.predicates, predicates...)
	return c
}

func (c *Criteria) Eq(field string, value interface{}) *Criteria {
	return c.Add(Eq(field, value))
}

func (c *Criteria) Like(field string, substr string) *Criteria {
	return c.Add(Like(field, substr))
}

// Where adds a raw filter. A nil filter is ignored.
func (c *Criteria) Where(filter *types.QueryFilter) *Criteria {
	if filter == nil {
		return c
	}
	return c.Add(Raw(filter))
}

func (c *Criteria) OrderBy(orders ...types.Order) *Criteria {
	c.orders = append(c.orders, orders...)
	return c
}

// Select restricts the selected columns; unselected fields keep their zero value.
func (c *Criteria) Select(fields ...string) *Criteria {
	c.columns = append(c.columns, fields...)
	return c
}

// DistinctRoot removes duplicate entity rows from the result.
func (c *Criteria) DistinctRoot() *Criteria {
	c.distinct = true
	return c
}

// SetCacheable sets the hint forwarded to query hooks. Nothing is cached here.
func (c *Criteria) SetCacheable(cacheable bool) *Criteria {
	c.cacheable = cacheable
	return c
}

func (c *Criteria) Predicates() []Predicate { return c.predicates }

func (c *Criteria) Orders() []types.Order { return c.orders }

func (c *Criteria) Columns() []string { return c.columns }

func (c *Criteria) IsDistinct() bool { return c.distinct }

func (c *Criteria) IsCacheable() bool { return c.cacheable }

// Clone returns a deep copy so callers can derive variants of a base Criteria.
func (c *Criteria) Clone() *Criteria {
	if c == nil {
		return New()
	}
	return &Criteria{
		predicates: append([]Predicate(nil), c.predicates...),
		orders:     append([]types.Order(nil), c.orders...),
		columns:    append([]string(nil), c.columns...),
		distinct:   c.distinct,
		cacheable:  c.cacheable,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
