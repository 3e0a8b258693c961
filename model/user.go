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

package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tomoncle/shrimp/criteria"
	"github.com/tomoncle/shrimp/types"
	"github.com/uptrace/bun"
)

// User is the account entity. The identifier is a string; a UUID is
// assigned on insert when the caller leaves it empty, and CreatedAt is
// stamped when unset.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID         string           `bun:"id,pk,type:varchar(64)" json:"id"`
	LoginName  string           `bun:"login_name,notnull,unique" json:"loginName"`
	Email      string           `bun:"email" json:"email"`
	Nickname   string           `bun:"nickname" json:"nickname"`
	Status     int              `bun:"status,notnull,default:0" json:"status"`
	Attributes types.JsonObject `bun:"attributes,type:text" json:"attributes,omitempty"`
	CreatedAt  time.Time        `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

// Typed column handles for building criteria and update sets.
var (
	UserID         = criteria.Column[string]("id")
	UserLoginName  = criteria.Column[string]("login_name")
	UserEmail      = criteria.Column[string]("email")
	UserNickname   = criteria.Column[string]("nickname")
	UserStatus     = criteria.Column[int]("status")
	UserAttributes = criteria.Column[types.JsonObject]("attributes")
	UserCreatedAt  = criteria.Column[time.Time]("created_at")
)

var _ bun.BeforeAppendModelHook = (*User)(nil)

func (u *User) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); !ok {
		return nil
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	return nil
}
