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
	"database/sql"
	"errors"
	"reflect"
	"strings"

	"github.com/tomoncle/shrimp/criteria"
	"github.com/tomoncle/shrimp/database"
	"github.com/tomoncle/shrimp/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

// BaseRepository implements Repository for the bun model T whose single
// primary key has type ID. It holds no state besides the handle and logger,
// so one value may be shared between goroutines.
type BaseRepository[T any, ID comparable] struct {
	db     bun.IDB
	logger database.Logger
}

// NewRepository returns a repository bound to db, which may be a *bun.DB,
// a bun.Tx or a bun.Conn.
func NewRepository[T any, ID comparable](db bun.IDB) *BaseRepository[T, ID] {
	return &BaseRepository[T, ID]{db: db, logger: database.NewNamedLogger("REPOSITORY")}
}

// WithTx returns a copy whose operations run inside tx.
func (r *BaseRepository[T, ID]) WithTx(tx bun.Tx) *BaseRepository[T, ID] {
	return r.WithIDB(tx)
}

// WithIDB returns a copy bound to db.
func (r *BaseRepository[T, ID]) WithIDB(db bun.IDB) *BaseRepository[T, ID] {
	c := *r
	c.db = db
	return &c
}

func (r *BaseRepository[T, ID]) SetLogger(logger database.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

func (r *BaseRepository[T, ID]) DB() bun.IDB { return r.db }

func (r *BaseRepository[T, ID]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *BaseRepository[T, ID]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *BaseRepository[T, ID]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *BaseRepository[T, ID]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *BaseRepository[T, ID]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

// Criteria returns an empty criteria for T.
func (r *BaseRepository[T, ID]) Criteria() *criteria.Criteria { return criteria.New() }

func (r *BaseRepository[T, ID]) Get(ctx context.Context, id ID) (*T, error) {
	return r.GetWithLock(ctx, id, false)
}

// GetWithLock reads the entity, taking a row lock when lock is set. It
// returns (nil, nil) when no row has the identifier. SQLite has no row
// locks and serializes writers itself, so the clause is omitted there.
func (r *BaseRepository[T, ID]) GetWithLock(ctx context.Context, id ID, lock bool) (*T, error) {
	if isZero(id) {
		return nil, validationError("identifier must not be zero")
	}
	table, err := r.table()
	if err != nil {
		return nil, err
	}

	entity := new(T)
	q := r.db.NewSelect().Model(entity).Where("? = ?", bun.Ident(table.PKs[0].Name), id)
	if err := r.withLock(q, types.LockModeOf(lock)).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, r.fail("get", err)
	}
	return entity, nil
}

func (r *BaseRepository[T, ID]) Load(ctx context.Context, id ID) (*Ref[T, ID], error) {
	return r.LoadWithLock(ctx, id, false)
}

// LoadWithLock returns a lazy reference; nothing is read until Ref.Get.
func (r *BaseRepository[T, ID]) LoadWithLock(_ context.Context, id ID, lock bool) (*Ref[T, ID], error) {
	if isZero(id) {
		return nil, validationError("identifier must not be zero")
	}
	if _, err := r.table(); err != nil {
		return nil, err
	}
	return &Ref[T, ID]{repo: r, id: id, lock: lock}, nil
}

// Save inserts entity. Identifiers generated by the database or by a
// BeforeAppendModel hook are written back into it.
func (r *BaseRepository[T, ID]) Save(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, validationError("entity must not be nil")
	}
	if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
		return nil, r.fail("save", err)
	}
	return entity, nil
}

// SaveAny inserts an arbitrary bun model pointer and returns its identifier.
func (r *BaseRepository[T, ID]) SaveAny(ctx context.Context, model interface{}) (interface{}, error) {
	v := reflect.ValueOf(model)
	if model == nil || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, validationError("model must be a non-nil struct pointer, got %T", model)
	}
	table := r.db.Dialect().Tables().Get(v.Elem().Type())
	if len(table.PKs) != 1 {
		return nil, validationError("table %s must have exactly one primary key, has %d", table.Name, len(table.PKs))
	}
	if _, err := r.db.NewInsert().Model(model).Exec(ctx); err != nil {
		return nil, r.fail("saveAny", err)
	}
	return table.PKs[0].Value(v.Elem()).Interface(), nil
}

// Update writes every column of entity, matched by primary key.
func (r *BaseRepository[T, ID]) Update(ctx context.Context, entity *T) error {
	if _, err := r.requireID(entity); err != nil {
		return err
	}
	if _, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx); err != nil {
		return r.fail("update", err)
	}
	return nil
}

// SaveOrUpdate inserts entity when its identifier is zero, and otherwise
// upserts it on the primary key. Nullzero columns left at their zero value
// are not overwritten by the upsert.
func (r *BaseRepository[T, ID]) SaveOrUpdate(ctx context.Context, entity *T) (*T, error) {
	if entity == nil {
		return nil, validationError("entity must not be nil")
	}
	table, err := r.table()
	if err != nil {
		return nil, err
	}
	id, err := entityID[ID](table, entity)
	if err != nil {
		return nil, err
	}
	if isZero(id) {
		return r.Save(ctx, entity)
	}

	strct := reflect.ValueOf(entity).Elem()
	fields := make([]string, 0, len(table.DataFields))
	for _, f := range table.DataFields {
		if f.NullZero && f.HasZeroValue(strct) {
			continue
		}
		fields = append(fields, f.Name)
	}
	if err := r.upsert(ctx, "saveOrUpdate", fields, []string{table.PKs[0].Name}, []*T{entity}); err != nil {
		return nil, err
	}
	return entity, nil
}

// Upsert inserts entities and, on conflict over conflictKeys (default: the
// primary key), updates fields. Field names resolve like criteria fields.
func (r *BaseRepository[T, ID]) Upsert(ctx context.Context, fields []string, conflictKeys []string, entities ...*T) error {
	if len(fields) == 0 {
		return validationError("fields cannot be empty")
	}
	if len(entities) == 0 {
		return validationError("no entities to upsert")
	}
	for _, e := range entities {
		if e == nil {
			return validationError("entity must not be nil")
		}
	}
	table, err := r.table()
	if err != nil {
		return err
	}
	columns, err := resolveAll(table, fields)
	if err != nil {
		return err
	}
	keys, err := resolveAll(table, conflictKeys)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		keys = []string{table.PKs[0].Name}
	}
	entitySlice := make([]*T, len(entities))
	copy(entitySlice, entities)
	return r.upsert(ctx, "upsert", columns, keys, entitySlice)
}

func (r *BaseRepository[T, ID]) upsert(ctx context.Context, op string, columns, keys []string, entities []*T) error {
	features := r.db.Dialect().Features()
	q := r.db.NewInsert().Model(&entities)
	switch {
	case features.Has(feature.InsertOnConflict):
		if len(columns) == 0 {
			q = q.On("CONFLICT (" + strings.Join(keys, ",") + ") DO NOTHING")
			break
		}
		q = q.On("CONFLICT (" + strings.Join(keys, ",") + ") DO UPDATE")
		for _, col := range columns {
			q = q.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
		}
	case features.Has(feature.InsertOnDuplicateKey):
		if len(columns) == 0 {
			q = q.Ignore()
			break
		}
		q = q.On("DUPLICATE KEY UPDATE")
		for _, col := range columns {
			q = q.Set("? = VALUES(?)", bun.Ident(col), bun.Ident(col))
		}
	default:
		return r.upsertFallback(ctx, op, entities)
	}
	if _, err := q.Exec(ctx); err != nil {
		return r.fail(op, err)
	}
	return nil
}

// upsertFallback serves dialects with neither ON CONFLICT nor ON DUPLICATE KEY.
func (r *BaseRepository[T, ID]) upsertFallback(ctx context.Context, op string, entities []*T) error {
	for _, entity := range entities {
		res, err := r.db.NewUpdate().Model(entity).WherePK().Exec(ctx)
		if err != nil {
			return r.fail(op, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			continue
		}
		if _, err := r.db.NewInsert().Model(entity).Exec(ctx); err != nil {
			return r.fail(op, err)
		}
	}
	return nil
}

// Delete removes the row of entity, matched by primary key.
func (r *BaseRepository[T, ID]) Delete(ctx context.Context, entity *T) error {
	if _, err := r.requireID(entity); err != nil {
		return err
	}
	if _, err := r.db.NewDelete().Model(entity).WherePK().Exec(ctx); err != nil {
		return r.fail("delete", err)
	}
	return nil
}

// DeleteByID reads the row under a lock and deletes that entity in one
// transaction, returning what was removed or (nil, nil) when absent.
// Compare DeleteByIDBulk.
func (r *BaseRepository[T, ID]) DeleteByID(ctx context.Context, id ID) (*T, error) {
	if isZero(id) {
		return nil, validationError("identifier must not be zero")
	}
	var removed *T
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		txRepo := r.WithTx(tx)
		entity, err := txRepo.GetWithLock(ctx, id, true)
		if err != nil || entity == nil {
			return err
		}
		if _, err := tx.NewDelete().Model(entity).WherePK().Exec(ctx); err != nil {
			return txRepo.fail("deleteById", err)
		}
		removed = entity
		return nil
	})
	if err != nil {
		return nil, r.failTx("deleteById", err)
	}
	return removed, nil
}

// DeleteByIDBulk issues a single DELETE by identifier without reading the
// row first: no lock is taken, no entity is returned and model hooks never
// see the row. It reports the number of deleted rows.
func (r *BaseRepository[T, ID]) DeleteByIDBulk(ctx context.Context, id ID) (int64, error) {
	if isZero(id) {
		return 0, validationError("identifier must not be zero")
	}
	table, err := r.table()
	if err != nil {
		return 0, err
	}
	res, err := r.db.NewDelete().Model(new(T)).Where("? = ?", bun.Ident(table.PKs[0].Name), id).Exec(ctx)
	if err != nil {
		return 0, r.fail("deleteByIdBulk", err)
	}
	return rowsAffected(res), nil
}

// Refresh reloads entity from its row, or returns ErrNotFound when the row
// no longer exists.
func (r *BaseRepository[T, ID]) Refresh(ctx context.Context, entity *T) error {
	if _, err := r.requireID(entity); err != nil {
		return err
	}
	if err := r.db.NewSelect().Model(entity).WherePK().Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return r.fail("refresh", err)
	}
	return nil
}

func (r *BaseRepository[T, ID]) FindAll(ctx context.Context) ([]*T, error) {
	return r.ListByCriteria(ctx, nil)
}

// FindByPage returns one page of all rows in the given order.
func (r *BaseRepository[T, ID]) FindByPage(ctx context.Context, pageIndex, pageSize int, orders ...types.Order) (*types.Page[T], error) {
	return r.FindByPageCriteria(ctx, criteria.New().OrderBy(orders...), pageIndex, pageSize, false)
}

// FindByPageRequest pages through rows matching every equality and
// substring condition of req. A negative index is rejected like FindByPage
// does; a non-positive size falls back to types.DefaultPageSize.
func (r *BaseRepository[T, ID]) FindByPageRequest(ctx context.Context, req *types.PageRequest) (*types.Page[T], error) {
	if req == nil {
		return nil, validationError("page request must not be nil")
	}
	c := criteria.New().
		Add(criteria.EqMap(req.GetEqConditions())...).
		Add(criteria.LikeMap(req.GetLikeConditions())...).
		Where(req.GetFilter()).
		OrderBy(req.GetOrders()...)
	return r.FindByPageCriteria(ctx, c, req.RawPageIndex(), req.GetPageSize(), req.IsCacheable())
}

// FindByPageCriteria counts the rows matching c, then reads the distinct
// rows of page pageIndex (zero-based). The slice query is skipped when
// nothing matches.
func (r *BaseRepository[T, ID]) FindByPageCriteria(ctx context.Context, c *criteria.Criteria, pageIndex, pageSize int, cacheable bool) (*types.Page[T], error) {
	if pageIndex < 0 {
		return nil, validationError("page index must not be negative, got %d", pageIndex)
	}
	if pageSize <= 0 {
		return nil, validationError("page size must be positive, got %d", pageSize)
	}
	table, err := r.table()
	if err != nil {
		return nil, err
	}
	c = c.Clone().DistinctRoot()
	ctx = r.cacheableContext(ctx, cacheable || c.IsCacheable())

	countQuery, err := criteria.ApplySelect(r.db.NewSelect().Model(new(T)), table, c, false)
	if err != nil {
		return nil, wrapValidation(err)
	}
	items := make([]*T, 0)
	sliceQuery, err := criteria.ApplySelect(r.db.NewSelect().Model(&items), table, c, true)
	if err != nil {
		return nil, wrapValidation(err)
	}

	total, err := countQuery.Count(ctx)
	if err != nil {
		return nil, r.fail("findByPage", err)
	}
	if total == 0 {
		return types.NewEmptyPage[T](pageIndex, pageSize), nil
	}
	if err := sliceQuery.Offset(pageIndex * pageSize).Limit(pageSize).Scan(ctx); err != nil {
		return nil, r.fail("findByPage", err)
	}
	return types.NewPage(pageIndex, pageSize, int64(total), items), nil
}

// FindByProperty lists the rows whose field equals value.
func (r *BaseRepository[T, ID]) FindByProperty(ctx context.Context, name string, value interface{}) ([]*T, error) {
	return r.ListByCriteria(ctx, criteria.New().Eq(name, value))
}

// GetByProperty returns the single row whose field equals value, (nil, nil)
// when none does, and ErrMultipleResults when several do.
func (r *BaseRepository[T, ID]) GetByProperty(ctx context.Context, name string, value interface{}) (*T, error) {
	return r.UniqueByCriteria(ctx, criteria.New().Eq(name, value))
}

// UpdatePropertiesByID applies set to the row with the identifier.
func (r *BaseRepository[T, ID]) UpdatePropertiesByID(ctx context.Context, set criteria.UpdateSet, id ID) (int64, error) {
	if isZero(id) {
		return 0, validationError("identifier must not be zero")
	}
	table, err := r.table()
	if err != nil {
		return 0, err
	}
	return r.updateWhere(ctx, "updatePropertiesById", table, set, []criteria.Predicate{criteria.Eq(table.PKs[0].Name, id)})
}

// UpdateProperties applies set to the rows matching every where predicate
// and returns the number of affected rows. An empty where is rejected with
// ErrUnboundedUpdate; use UpdateAllProperties to touch every row.
func (r *BaseRepository[T, ID]) UpdateProperties(ctx context.Context, set criteria.UpdateSet, where ...criteria.Predicate) (int64, error) {
	if len(where) == 0 {
		return 0, ErrUnboundedUpdate
	}
	table, err := r.table()
	if err != nil {
		return 0, err
	}
	return r.updateWhere(ctx, "updateProperties", table, set, where)
}

// UpdateAllProperties applies set to every row of the table.
func (r *BaseRepository[T, ID]) UpdateAllProperties(ctx context.Context, set criteria.UpdateSet) (int64, error) {
	table, err := r.table()
	if err != nil {
		return 0, err
	}
	return r.updateWhere(ctx, "updateAllProperties", table, set, nil)
}

func (r *BaseRepository[T, ID]) updateWhere(ctx context.Context, op string, table *schema.Table, set criteria.UpdateSet, where []criteria.Predicate) (int64, error) {
	if len(set) == 0 {
		return 0, validationError("update set must not be empty")
	}
	q, err := criteria.ApplySet(r.db.NewUpdate().Model(new(T)), table, set)
	if err != nil {
		return 0, wrapValidation(err)
	}
	if len(where) == 0 {
		// bun refuses an UPDATE without WHERE
		q = q.Where("1 = 1")
	} else if q, err = criteria.ApplyWhere(q, table, where); err != nil {
		return 0, wrapValidation(err)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, r.fail(op, err)
	}
	return rowsAffected(res), nil
}

// ListByCriteria returns every row matching c. A nil c matches all rows.
func (r *BaseRepository[T, ID]) ListByCriteria(ctx context.Context, c *criteria.Criteria) ([]*T, error) {
	table, err := r.table()
	if err != nil {
		return nil, err
	}
	items := make([]*T, 0)
	q, err := criteria.ApplySelect(r.db.NewSelect().Model(&items), table, c, true)
	if err != nil {
		return nil, wrapValidation(err)
	}
	if err := q.Scan(r.cacheableContext(ctx, c != nil && c.IsCacheable())); err != nil {
		return nil, r.fail("listByCriteria", err)
	}
	return items, nil
}

// ListByCriteriaSelect reads only fields; the other fields of the returned
// entities keep their zero value.
func (r *BaseRepository[T, ID]) ListByCriteriaSelect(ctx context.Context, c *criteria.Criteria, fields ...string) ([]*T, error) {
	if len(fields) == 0 {
		return nil, validationError("at least one field must be selected")
	}
	return r.ListByCriteria(ctx, c.Clone().Select(fields...))
}

// UniqueByCriteria returns the single row matching c, (nil, nil) when none
// does, and ErrMultipleResults when several do.
func (r *BaseRepository[T, ID]) UniqueByCriteria(ctx context.Context, c *criteria.Criteria) (*T, error) {
	table, err := r.table()
	if err != nil {
		return nil, err
	}
	items := make([]*T, 0, 2)
	q, err := criteria.ApplySelect(r.db.NewSelect().Model(&items), table, c, true)
	if err != nil {
		return nil, wrapValidation(err)
	}
	if err := q.Limit(2).Scan(r.cacheableContext(ctx, c != nil && c.IsCacheable())); err != nil {
		return nil, r.fail("uniqueByCriteria", err)
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

// CountByCriteria counts the rows matching c; orders in c are ignored.
func (r *BaseRepository[T, ID]) CountByCriteria(ctx context.Context, c *criteria.Criteria) (int64, error) {
	table, err := r.table()
	if err != nil {
		return 0, err
	}
	q, err := criteria.ApplySelect(r.db.NewSelect().Model(new(T)), table, c, false)
	if err != nil {
		return 0, wrapValidation(err)
	}
	n, err := q.Count(r.cacheableContext(ctx, c != nil && c.IsCacheable()))
	if err != nil {
		return 0, r.fail("countByCriteria", err)
	}
	return int64(n), nil
}

func (r *BaseRepository[T, ID]) table() (*schema.Table, error) {
	table := r.db.Dialect().Tables().Get(reflect.TypeOf((*T)(nil)).Elem())
	if len(table.PKs) != 1 {
		return nil, validationError("table %s must have exactly one primary key, has %d", table.Name, len(table.PKs))
	}
	return table, nil
}

func (r *BaseRepository[T, ID]) requireID(entity *T) (ID, error) {
	var zero ID
	if entity == nil {
		return zero, validationError("entity must not be nil")
	}
	table, err := r.table()
	if err != nil {
		return zero, err
	}
	id, err := entityID[ID](table, entity)
	if err != nil {
		return zero, err
	}
	if isZero(id) {
		return zero, validationError("identifier must not be zero")
	}
	return id, nil
}

func (r *BaseRepository[T, ID]) withLock(q *bun.SelectQuery, mode types.LockMode) *bun.SelectQuery {
	if mode != types.LockUpgrade || r.db.Dialect().Name() == dialect.SQLite {
		return q
	}
	return q.For("UPDATE")
}

func (r *BaseRepository[T, ID]) cacheableContext(ctx context.Context, cacheable bool) context.Context {
	if !cacheable {
		return ctx
	}
	return database.WithCacheable(ctx, true)
}

func (r *BaseRepository[T, ID]) fail(op string, err error) error {
	kind := database.Classify(err)
	r.logger.Warn("Repository operation failed", "op", op, "entity", entityName[T](), "kind", kind.String(), "error", err)
	return &ExecutionError{Op: op, Kind: kind, Err: err}
}

// failTx wraps errors raised by the transaction itself (begin, commit)
// and passes through those already classified inside it.
func (r *BaseRepository[T, ID]) failTx(op string, err error) error {
	var execErr *ExecutionError
	if errors.As(err, &execErr) || errors.Is(err, ErrValidation) {
		return err
	}
	return r.fail(op, err)
}

func entityID[ID comparable](table *schema.Table, entity interface{}) (ID, error) {
	var zero ID
	v := table.PKs[0].Value(reflect.ValueOf(entity).Elem()).Interface()
	id, ok := v.(ID)
	if !ok {
		return zero, validationError("identifier of %s has type %T, want %T", table.Name, v, zero)
	}
	return id, nil
}

func resolveAll(table *schema.Table, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		col, err := criteria.Resolve(table, name)
		if err != nil {
			return nil, wrapValidation(err)
		}
		out = append(out, col)
	}
	return out, nil
}

func rowsAffected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

func isZero[ID comparable](id ID) bool {
	var zero ID
	return id == zero
}

func entityName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().Name()
}

