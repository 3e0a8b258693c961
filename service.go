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

package shrimp

import (
	"context"
	"errors"
	"sync"

	"github.com/tomoncle/shrimp/criteria"
	"github.com/tomoncle/shrimp/database"
	"github.com/tomoncle/shrimp/repository"
	"github.com/tomoncle/shrimp/types"
	"github.com/uptrace/bun"
)

// Service runs every call in its own transaction. A failed call rolls back
// everything it wrote.
type Service[T any, ID comparable] interface {
	// Get returns the entity, or nil when absent.
	Get(ctx context.Context, id ID) (*T, error)

	// GetForUpdate reads the entity under a row lock, lets fn modify it and
	// writes it back, all in one transaction.
	GetForUpdate(ctx context.Context, id ID, fn func(entity *T) error) (*T, error)

	All(ctx context.Context) ([]*T, error)

	// List returns entities matching the criteria.
	List(ctx context.Context, c *criteria.Criteria) ([]*T, error)

	Page(ctx context.Context, req *types.PageRequest) (*types.Page[T], error)

	Save(ctx context.Context, entity *T) (*T, error)

	SaveOrUpdate(ctx context.Context, entity *T) (*T, error)

	Update(ctx context.Context, entity *T) error

	// UpdateProperties applies set to the rows matching where.
	UpdateProperties(ctx context.Context, set criteria.UpdateSet, where ...criteria.Predicate) (int64, error)

	// Delete removes the entity and returns it, or nil when absent.
	Delete(ctx context.Context, id ID) (*T, error)

	// InTx runs fn with a repository bound to a new transaction.
	InTx(ctx context.Context, fn func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error) error
}

var ErrDatabaseNotInitialized = errors.New("database not initialized")

type baseServiceImpl[T any, ID comparable] struct {
	mu   sync.Mutex
	db   bun.IDB
	repo *repository.BaseRepository[T, ID]
}

// NewService returns a Service over the global database. The handle is
// resolved on first use, so it may be built before database.InitDB; calls
// made before that fail with ErrDatabaseNotInitialized.
func NewService[T any, ID comparable]() Service[T, ID] {
	return &baseServiceImpl[T, ID]{}
}

// NewServiceWithDB returns a Service over db.
func NewServiceWithDB[T any, ID comparable](db bun.IDB) Service[T, ID] {
	return &baseServiceImpl[T, ID]{db: db, repo: repository.NewRepository[T, ID](db)}
}

func (s *baseServiceImpl[T, ID]) baseRepo() (bun.IDB, *repository.BaseRepository[T, ID], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo == nil {
		db := database.GetDB()
		if db == nil {
			return nil, nil, ErrDatabaseNotInitialized
		}
		s.db, s.repo = db, repository.NewRepository[T, ID](db)
	}
	return s.db, s.repo, nil
}

func (s *baseServiceImpl[T, ID]) InTx(ctx context.Context, fn func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error) error {
	db, repo, err := s.baseRepo()
	if err != nil {
		return err
	}
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, repo.WithTx(tx))
	})
}

func (s *baseServiceImpl[T, ID]) Get(ctx context.Context, id ID) (entity *T, err error) {
	err = s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		entity, err = repo.Get(ctx, id)
		return err
	})
	return entity, err
}

func (s *baseServiceImpl[T, ID]) GetForUpdate(ctx context.Context, id ID, fn func(entity *T) error) (entity *T, err error) {
	err = s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		entity, err = repo.GetWithLock(ctx, id, true)
		if err != nil || entity == nil {
			return err
		}
		if err = fn(entity); err != nil {
			return err
		}
		return repo.Update(ctx, entity)
	})
	if err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *baseServiceImpl[T, ID]) All(ctx context.Context) (items []*T, err error) {
	err = s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		items, err = repo.FindAll(ctx)
		return err
	})
	return items, err
}

func (s *baseServiceImpl[T, ID]) List(ctx context.Context, c *criteria.Criteria) (items []*T, err error) {
	err = s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		items, err = repo.ListByCriteria(ctx, c)
		return err
	})
	return items, err
}

func (s *baseServiceImpl[T, ID]) Page(ctx context.Context, req *types.PageRequest) (page *types.Page[T], err error) {
	err = s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		page, err = repo.FindByPageRequest(ctx, req)
		return err
	})
	return page, err
}

func (s *baseServiceImpl[T, ID]) Save(ctx context.Context, entity *T) (saved *T, err error) {
	err = s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		saved, err = repo.Save(ctx, entity)
		return err
	})
	return saved, err
}

func (s *baseServiceImpl[T, ID]) SaveOrUpdate(ctx context.Context, entity *T) (saved *T, err error) {
	err = s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		saved, err = repo.SaveOrUpdate(ctx, entity)
		return err
	})
	return saved, err
}

func (s *baseServiceImpl[T, ID]) Update(ctx context.Context, entity *T) error {
	return s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		return repo.Update(ctx, entity)
	})
}

func (s *baseServiceImpl[T, ID]) UpdateProperties(ctx context.Context, set criteria.UpdateSet, where ...criteria.Predicate) (n int64, err error) {
	err = s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		n, err = repo.UpdateProperties(ctx, set, where...)
		return err
	})
	return n, err
}

func (s *baseServiceImpl[T, ID]) Delete(ctx context.Context, id ID) (removed *T, err error) {
	err = s.InTx(ctx, func(ctx context.Context, repo *repository.BaseRepository[T, ID]) error {
		removed, err = repo.DeleteByID(ctx, id)
		return err
	})
	return removed, err
}
