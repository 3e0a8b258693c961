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

package types

const DefaultPageSize = 10

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// Order is a single sort key. Field is resolved against the entity metadata,
// so it may be a column name or a Go field name.
type Order struct {
	Field     string
	Direction Direction
}

func OrderAsc(field string) Order  { return Order{Field: field, Direction: Asc} }
func OrderDesc(field string) Order { return Order{Field: field, Direction: Desc} }

// PageRequest describes a zero-based page, equality and substring conditions,
// an optional raw filter and ordering.
type PageRequest struct {
	pageIndex      int
	pageSize       int
	cacheable      bool
	eqConditions   map[string]interface{}
	likeConditions map[string]string
	filter         *QueryFilter
	orders         []Order
}

// NewPageRequest constructs a PageRequest for a zero-based page index.
func NewPageRequest(pageIndex int, pageSize int, orders ...Order) *PageRequest {
	return &PageRequest{pageIndex: pageIndex, pageSize: pageSize, orders: orders}
}

// NewConditionPageRequest constructs a PageRequest with condition sets.
func NewConditionPageRequest(pageIndex int, pageSize int, cacheable bool,
	eqConditions map[string]interface{}, likeConditions map[string]string, orders ...Order) *PageRequest {
	return &PageRequest{
		pageIndex:      pageIndex,
		pageSize:       pageSize,
		cacheable:      cacheable,
		eqConditions:   eqConditions,
		likeConditions: likeConditions,
		orders:         orders,
	}
}

// WithFilter attaches a raw filter ANDed with the condition sets.
func (p *PageRequest) WithFilter(filter *QueryFilter) *PageRequest {
	p.filter = filter
	return p
}

// GetPageSize returns the requested size, or DefaultPageSize when it is not
// positive. The request itself is never modified.
func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		return DefaultPageSize
	}
	return p.pageSize
}

// GetPageIndex returns the requested zero-based index, clamped to 0.
func (p *PageRequest) GetPageIndex() int {
	if p.pageIndex < 0 {
		return 0
	}
	return p.pageIndex
}

// RawPageIndex returns the index as given, without clamping.
func (p *PageRequest) RawPageIndex() int { return p.pageIndex }

func (p *PageRequest) GetOffset() int {
	return p.GetPageIndex() * p.GetPageSize()
}

func (p *PageRequest) IsCacheable() bool { return p.cacheable }

func (p *PageRequest) GetEqConditions() map[string]interface{} { return p.eqConditions }

func (p *PageRequest) GetLikeConditions() map[string]string { return p.likeConditions }

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetOrders() []Order {
	return p.orders
}

// Page holds one page of items along with pagination metadata.
// PageIndex is one-based.
type Page[T any] struct {
	PageIndex int   `json:"pageIndex"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	Items     []*T  `json:"list"`
}

// NewPage builds a page from the zero-based index that was requested. The
// items are stored as given; callers are expected to have sliced them with
// the matching offset and limit.
func NewPage[T any](requested int, pageSize int, total int64, items []*T) *Page[T] {
	if items == nil {
		items = make([]*T, 0)
	}
	return &Page[T]{PageIndex: requested + 1, PageSize: pageSize, Total: total, Items: items}
}

// NewEmptyPage constructs a page with no items and zero total.
func NewEmptyPage[T any](requested int, pageSize int) *Page[T] {
	return NewPage[T](requested, pageSize, 0, nil)
}

func (p *Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	pages := int(p.Total / int64(p.PageSize))
	if p.Total%int64(p.PageSize) > 0 {
		pages++
	}
	return pages
}

func (p *Page[T]) HasNext() bool { return p.PageIndex < p.TotalPages() }

func (p *Page[T]) HasPrev() bool { return p.PageIndex > 1 }
