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
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

var (
	ErrUnknownField   = errors.New("unknown field")
	ErrDuplicateField = errors.New("field assigned more than once")
	ErrEmptyFilter    = errors.New("raw filter has no schema")
)

// Resolve maps a field name to its column. It accepts the column name itself
// or the Go field name compared case-insensitively, so "login_name",
// "LoginName" and "loginName" all resolve to login_name.
func Resolve(table *schema.Table, name string) (string, error) {
	if f, ok := table.FieldMap[name]; ok {
		return f.Name, nil
	}
	for _, f := range table.Fields {
		if strings.EqualFold(f.GoName, name) {
			return f.Name, nil
		}
	}
	return "", fmt.Errorf("%w: %q on table %s", ErrUnknownField, name, table.Name)
}

type whereQuery[Q any] interface {
	Where(query string, args ...interface{}) Q
}

// ApplyWhere appends every predicate to q, ANDed.
func ApplyWhere[Q whereQuery[Q]](q Q, table *schema.Table, predicates []Predicate) (Q, error) {
	for _, p := range predicates {
		query, args, err := render(table, p)
		if err != nil {
			return q, err
		}
		q = q.Where(query, args...)
	}
	return q, nil
}

// ApplySelect renders c onto a select query. Orders are skipped when
// withOrders is false, which is what row counts want.
func ApplySelect(q *bun.SelectQuery, table *schema.Table, c *Criteria, withOrders bool) (*bun.SelectQuery, error) {
	if c == nil {
		return q, nil
	}
	q, err := ApplyWhere(q, table, c.predicates)
	if err != nil {
		return q, err
	}
	if len(c.columns) > 0 {
		cols := make([]string, 0, len(c.columns))
		for _, name := range c.columns {
			col, err := Resolve(table, name)
			if err != nil {
				return q, err
			}
			cols = append(cols, col)
		}
		q = q.Column(cols...)
	}
	if c.distinct {
		q = q.Distinct()
	}
	if withOrders {
		for _, o := range c.orders {
			col, err := Resolve(table, o.Field)
			if err != nil {
				return q, err
			}
			if !o.Direction.IsValid() {
				return q, fmt.Errorf("invalid sort direction %d for %q", o.Direction, o.Field)
			}
			q = q.OrderExpr("? "+o.Direction.Name(), bun.Ident(col))
		}
	}
	return q, nil
}

// ApplySet renders the assignments of an update statement in order.
func ApplySet(q *bun.UpdateQuery, table *schema.Table, set UpdateSet) (*bun.UpdateQuery, error) {
	seen := make(map[string]struct{}, len(set))
	for _, a := range set {
		col, err := Resolve(table, a.Field)
		if err != nil {
			return q, err
		}
		if _, dup := seen[col]; dup {
			return q, fmt.Errorf("%w: %q", ErrDuplicateField, col)
		}
		seen[col] = struct{}{}
		q = q.Set("? = ?", bun.Ident(col), a.Value)
	}
	return q, nil
}

func render(table *schema.Table, p Predicate) (string, []interface{}, error) {
	if p.Op == OpRaw {
		if p.raw == nil || strings.TrimSpace(p.raw.Schema) == "" {
			return "", nil, ErrEmptyFilter
		}
		return p.raw.Schema, p.raw.Args, nil
	}
	col, err := Resolve(table, p.Field)
	if err != nil {
		return "", nil, err
	}
	switch p.Op {
	case OpEq:
		if isNil(p.Value) {
			return "? IS NULL", []interface{}{bun.Ident(col)}, nil
		}
		return "? = ?", []interface{}{bun.Ident(col), p.Value}, nil
	case OpLike:
		return "? LIKE ?", []interface{}{bun.Ident(col), fmt.Sprintf("%%%v%%", p.Value)}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operator %d", p.Op)
	}
}

// isNil also catches typed nils boxed in the interface and valuers that
// encode to NULL, e.g. a nil JsonObject.
func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return true
		}
	}
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		return err == nil && dv == nil
	}
	return false
}
