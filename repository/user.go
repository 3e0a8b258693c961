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

	"github.com/tomoncle/shrimp/model"
	"github.com/uptrace/bun"
)

var _ Repository[model.User, string] = (*BaseRepository[model.User, string])(nil)

// UserRepository adds account lookups to the generic repository.
type UserRepository struct {
	*BaseRepository[model.User, string]
}

func NewUserRepository(db bun.IDB) *UserRepository {
	return &UserRepository{BaseRepository: NewRepository[model.User, string](db)}
}

// WithTx returns a copy whose operations run inside tx.
func (r *UserRepository) WithTx(tx bun.Tx) *UserRepository {
	return &UserRepository{BaseRepository: r.BaseRepository.WithTx(tx)}
}

// GetByLoginName returns the user with the login name, or (nil, nil).
func (r *UserRepository) GetByLoginName(ctx context.Context, loginName string) (*model.User, error) {
	return r.UniqueByCriteria(ctx, r.Criteria().Add(model.UserLoginName.Eq(loginName)))
}

// GetByEmail returns the user with the email, or (nil, nil). Emails are not
// unique, so several matches yield ErrMultipleResults.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.UniqueByCriteria(ctx, r.Criteria().Add(model.UserEmail.Eq(email)))
}
