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
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/shrimp/criteria"
	"github.com/tomoncle/shrimp/database"
	"github.com/tomoncle/shrimp/model"
	"github.com/tomoncle/shrimp/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	err = database.NewMigrationManager(db, nil).CreateTablesFor(context.Background(), (*model.User)(nil))
	require.NoError(t, err)
	return db
}

func newUser(id, loginName string) *model.User {
	return &model.User{
		ID:        id,
		LoginName: loginName,
		Email:     loginName + "@example.com",
		Nickname:  loginName,
	}
}

func seedUsers(t *testing.T, repo *UserRepository, users ...*model.User) {
	t.Helper()
	for _, u := range users {
		_, err := repo.Save(context.Background(), u)
		require.NoError(t, err)
	}
}

func TestUserRepository_AliceAndBob(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUsers(t, repo, newUser("u1", "alice"), newUser("u2", "bob"))

	alice, err := repo.GetByProperty(ctx, "loginName", "alice")
	require.NoError(t, err)
	require.NotNil(t, alice)
	assert.Equal(t, "u1", alice.ID)

	req := types.NewConditionPageRequest(0, 1, false, map[string]interface{}{}, map[string]string{"loginName": "o"})
	page, err := repo.FindByPageRequest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, page.PageIndex)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "u2", page.Items[0].ID)
}

func TestBaseRepository_SaveThenGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	u := newUser("", "carol")
	u.Status = 3
	u.Attributes = types.JsonObject{"team": "infra"}
	saved, err := repo.Save(ctx, u)
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := repo.Get(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, "carol", got.LoginName)
	assert.Equal(t, "carol@example.com", got.Email)
	assert.Equal(t, 3, got.Status)
	assert.Equal(t, types.JsonObject{"team": "infra"}, got.Attributes)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestBaseRepository_GetMissing(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	got, err := repo.Get(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestBaseRepository_DeleteThenGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUsers(t, repo, newUser("u1", "alice"), newUser("u2", "bob"), newUser("u3", "dave"))

	t.Run("delete entity", func(t *testing.T) {
		u, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		require.NoError(t, repo.Delete(ctx, u))

		got, err := repo.Get(ctx, "u1")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete by id returns the row", func(t *testing.T) {
		removed, err := repo.DeleteByID(ctx, "u2")
		require.NoError(t, err)
		require.NotNil(t, removed)
		assert.Equal(t, "bob", removed.LoginName)

		again, err := repo.DeleteByID(ctx, "u2")
		assert.NoError(t, err)
		assert.Nil(t, again)
	})

	t.Run("bulk delete reports affected rows", func(t *testing.T) {
		n, err := repo.DeleteByIDBulk(ctx, "u3")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = repo.DeleteByIDBulk(ctx, "u3")
		require.NoError(t, err)
		assert.Equal(t, int64(0), n)

		got, err := repo.Get(ctx, "u3")
		assert.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestBaseRepository_FindByPageLengths(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	const total = 7
	for i := 0; i < total; i++ {
		seedUsers(t, repo, newUser(fmt.Sprintf("u%d", i), fmt.Sprintf("user%d", i)))
	}

	for _, size := range []int{1, 3, 5, 7, 10} {
		for k := 0; k <= 4; k++ {
			page, err := repo.FindByPage(ctx, k, size, model.UserLoginName.Asc())
			require.NoError(t, err)

			want := total - k*size
			if want > size {
				want = size
			}
			if want < 0 {
				want = 0
			}
			assert.Len(t, page.Items, want, "page %d size %d", k, size)
			assert.Equal(t, k+1, page.PageIndex)
			assert.Equal(t, size, page.PageSize)
			assert.Equal(t, int64(total), page.Total)
		}
	}

	page, err := repo.FindByPage(ctx, 1, 3, model.UserLoginName.Desc())
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "user3", page.Items[0].LoginName)
	assert.True(t, page.HasNext())
	assert.True(t, page.HasPrev())
}

func TestBaseRepository_FindByPageEmpty(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))

	page, err := repo.FindByPage(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, page.PageIndex)
	assert.Equal(t, int64(0), page.Total)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestBaseRepository_ConditionsAreANDed(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	both := newUser("u1", "anna")
	both.Status = 1
	onlyStatus := newUser("u2", "bert")
	onlyStatus.Status = 1
	onlyName := newUser("u3", "hannah")
	seedUsers(t, repo, both, onlyStatus, onlyName)

	req := types.NewConditionPageRequest(0, 10, true,
		map[string]interface{}{"status": 1},
		map[string]string{"nickname": "ann"},
	)
	page, err := repo.FindByPageRequest(ctx, req)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "u1", page.Items[0].ID)

	c := repo.Criteria().Add(model.UserStatus.Eq(1), model.UserNickname.Like("ann"))
	n, err := repo.CountByCriteria(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	page, err = repo.FindByPageCriteria(ctx, c, 0, 10, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestBaseRepository_NilEqualityMatchesNull(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	withAttrs := newUser("u1", "alice")
	withAttrs.Attributes = types.JsonObject{"k": "v"}
	seedUsers(t, repo, withAttrs, newUser("u2", "bob"))

	users, err := repo.FindByProperty(ctx, "attributes", nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)
}

func TestBaseRepository_NullJSONSurvivesGetAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUsers(t, repo, newUser("u1", "alice"))

	user, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Nil(t, user.Attributes)

	user.Nickname = "ally"
	require.NoError(t, repo.Update(ctx, user))

	users, err := repo.FindByProperty(ctx, "attributes", nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ally", users[0].Nickname)
}

func TestBaseRepository_TypedNilColumnMatchesNull(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	withAttrs := newUser("u1", "alice")
	withAttrs.Attributes = types.JsonObject{"k": "v"}
	seedUsers(t, repo, withAttrs, newUser("u2", "bob"))

	users, err := repo.ListByCriteria(ctx, criteria.New().Add(model.UserAttributes.Eq(nil)))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u2", users[0].ID)
}

func TestBaseRepository_UpdateProperties(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	a := newUser("u1", "alice")
	a.Status = 1
	b := newUser("u2", "bob")
	b.Status = 1
	c := newUser("u3", "carol")
	seedUsers(t, repo, a, b, c)

	t.Run("where set limits the rows", func(t *testing.T) {
		n, err := repo.UpdateProperties(ctx,
			criteria.Set(model.UserNickname.Set("active")),
			model.UserStatus.Eq(1), model.UserLoginName.Like("li"),
		)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "active", got.Nickname)
		got, err = repo.Get(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Nickname)
	})

	t.Run("map set by id", func(t *testing.T) {
		n, err := repo.UpdatePropertiesByID(ctx, criteria.SetMap(map[string]interface{}{
			"nickname": "cc",
			"Status":   7,
		}), "u3")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		got, err := repo.Get(ctx, "u3")
		require.NoError(t, err)
		assert.Equal(t, "cc", got.Nickname)
		assert.Equal(t, 7, got.Status)
	})

	t.Run("empty where is rejected", func(t *testing.T) {
		n, err := repo.UpdateProperties(ctx, criteria.Set(model.UserStatus.Set(9)))
		assert.ErrorIs(t, err, ErrUnboundedUpdate)
		assert.Equal(t, int64(0), n)

		count, err := repo.CountByCriteria(ctx, repo.Criteria().Add(model.UserStatus.Eq(9)))
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("update all is explicit", func(t *testing.T) {
		n, err := repo.UpdateAllProperties(ctx, criteria.Set(model.UserStatus.Set(9)))
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)
	})

	t.Run("invalid sets", func(t *testing.T) {
		_, err := repo.UpdatePropertiesByID(ctx, criteria.Set(), "u1")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = repo.UpdatePropertiesByID(ctx, criteria.Set(criteria.Assignment{Field: "nope", Value: 1}), "u1")
		assert.ErrorIs(t, err, ErrValidation)
		assert.ErrorIs(t, err, criteria.ErrUnknownField)

		_, err = repo.UpdatePropertiesByID(ctx, criteria.Set(model.UserStatus.Set(1), criteria.Assignment{Field: "Status", Value: 2}), "u1")
		assert.ErrorIs(t, err, criteria.ErrDuplicateField)
	})
}

func TestBaseRepository_UniqueLookups(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	a := newUser("u1", "alice")
	b := newUser("u2", "bob")
	b.Email = a.Email
	seedUsers(t, repo, a, b)

	got, err := repo.GetByLoginName(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u2", got.ID)

	got, err = repo.GetByLoginName(ctx, "zed")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByEmail(ctx, a.Email)
	assert.ErrorIs(t, err, ErrMultipleResults)
	assert.Nil(t, got)

	users, err := repo.FindByProperty(ctx, "email", a.Email)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestBaseRepository_LockAndRef(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUsers(t, repo, newUser("u1", "alice"))

	got, err := repo.GetWithLock(ctx, "u1", true)
	require.NoError(t, err)
	require.NotNil(t, got)

	ref, err := repo.LoadWithLock(ctx, "u1", true)
	require.NoError(t, err)
	assert.Equal(t, "u1", ref.ID())
	u, err := ref.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.LoginName)

	missing, err := repo.Load(ctx, "ghost")
	require.NoError(t, err)
	_, err = missing.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = missing.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBaseRepository_Refresh(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	u := newUser("u1", "alice")
	seedUsers(t, repo, u)

	_, err := repo.UpdatePropertiesByID(ctx, criteria.Set(model.UserNickname.Set("al")), "u1")
	require.NoError(t, err)
	require.NoError(t, repo.Refresh(ctx, u))
	assert.Equal(t, "al", u.Nickname)

	_, err = repo.DeleteByIDBulk(ctx, "u1")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Refresh(ctx, u), ErrNotFound)
}

func TestBaseRepository_SaveOrUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	fresh, err := repo.SaveOrUpdate(ctx, newUser("", "erin"))
	require.NoError(t, err)
	require.NotEmpty(t, fresh.ID)

	fresh.Nickname = "E"
	_, err = repo.SaveOrUpdate(ctx, fresh)
	require.NoError(t, err)
	got, err := repo.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, "E", got.Nickname)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.SaveOrUpdate(ctx, newUser("fixed-id", "frank"))
	require.NoError(t, err)
	got, err = repo.Get(ctx, "fixed-id")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "frank", got.LoginName)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestBaseRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUsers(t, repo, newUser("u1", "alice"))

	changed := newUser("u1", "alice")
	changed.Nickname = "Ali"
	changed.Email = "ignored@example.com"
	err := repo.Upsert(ctx, []string{"nickname"}, []string{"loginName"}, changed, newUser("u2", "bob"))
	require.NoError(t, err)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ali", got.Nickname)
	assert.Equal(t, "alice@example.com", got.Email)

	n, err := repo.CountByCriteria(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.ErrorIs(t, repo.Upsert(ctx, nil, nil, changed), ErrValidation)
	assert.ErrorIs(t, repo.Upsert(ctx, []string{"nickname"}, nil), ErrValidation)
}

func TestBaseRepository_SaveAnyAndUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	id, err := repo.SaveAny(ctx, newUser("", "gina"))
	require.NoError(t, err)
	userID, ok := id.(string)
	require.True(t, ok)
	require.NotEmpty(t, userID)

	u, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	u.Nickname = "G"
	require.NoError(t, repo.Update(ctx, u))

	got, err := repo.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "G", got.Nickname)

	_, err = repo.SaveAny(ctx, model.User{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBaseRepository_ListByCriteriaSelect(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUsers(t, repo, newUser("u1", "alice"), newUser("u2", "bob"))

	users, err := repo.ListByCriteriaSelect(ctx,
		repo.Criteria().OrderBy(model.UserLoginName.Desc()),
		"loginName",
	)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob", users[0].LoginName)
	assert.Empty(t, users[0].ID)
	assert.Empty(t, users[0].Email)

	_, err = repo.ListByCriteriaSelect(ctx, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBaseRepository_RawFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUsers(t, repo, newUser("u1", "alice"), newUser("u2", "bob"))

	req := types.NewPageRequest(0, 10).WithFilter(types.NewQueryFilter("login_name <> ?", "alice"))
	page, err := repo.FindByPageRequest(ctx, req)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "u2", page.Items[0].ID)
}

func TestBaseRepository_Validation(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	_, err := repo.Get(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.Load(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.Save(ctx, nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, repo.Update(ctx, nil), ErrValidation)
	assert.ErrorIs(t, repo.Update(ctx, newUser("", "x")), ErrValidation)
	assert.ErrorIs(t, repo.Delete(ctx, nil), ErrValidation)
	_, err = repo.DeleteByID(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.DeleteByIDBulk(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.FindByPage(ctx, -1, 10)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.FindByPage(ctx, 0, 0)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.FindByPageRequest(ctx, nil)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.FindByPageRequest(ctx, types.NewPageRequest(-1, 10))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.FindByProperty(ctx, "password", "x")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.FindByPage(ctx, 0, 10, types.OrderAsc("password"))
	assert.ErrorIs(t, err, criteria.ErrUnknownField)
}

func TestBaseRepository_TxRollback(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	boom := fmt.Errorf("boom")
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := repo.WithTx(tx).Save(ctx, newUser("u1", "alice")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBaseRepository_DuplicateKeyIsClassified(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))
	seedUsers(t, repo, newUser("u1", "alice"))

	_, err := repo.Save(ctx, newUser("u2", "alice"))
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "save", execErr.Op)
	assert.Equal(t, database.DuplicateKeyErr, execErr.Kind)
}

type compositeKey struct {
	bun.BaseModel `bun:"table:composite_keys"`

	A string `bun:"a,pk"`
	B string `bun:"b,pk"`
}

func TestBaseRepository_RejectsCompositeKey(t *testing.T) {
	repo := NewRepository[compositeKey, string](newTestDB(t))

	_, err := repo.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = repo.FindAll(context.Background())
	assert.ErrorIs(t, err, ErrValidation)
}
