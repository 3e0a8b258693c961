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

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct{ N int }

func TestNewPage_OneBasedIndex(t *testing.T) {
	items := []*item{{1}, {2}}
	p := NewPage(0, 2, 5, items)

	assert.Equal(t, 1, p.PageIndex)
	assert.Equal(t, 2, p.PageSize)
	assert.Equal(t, int64(5), p.Total)
	assert.Len(t, p.Items, 2)
	assert.Equal(t, 3, p.TotalPages())
	assert.True(t, p.HasNext())
	assert.False(t, p.HasPrev())

	last := NewPage[item](2, 2, 5, []*item{{5}})
	assert.Equal(t, 3, last.PageIndex)
	assert.False(t, last.HasNext())
	assert.True(t, last.HasPrev())
}

func TestNewEmptyPage(t *testing.T) {
	p := NewEmptyPage[item](4, 10)
	assert.Equal(t, 5, p.PageIndex)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.TotalPages())
}

func TestPageRequest_Defaults(t *testing.T) {
	req := NewPageRequest(-3, 0)
	assert.Equal(t, 0, req.GetPageIndex())
	assert.Equal(t, DefaultPageSize, req.GetPageSize())
	assert.Equal(t, 0, req.GetOffset())
	assert.Equal(t, -3, req.RawPageIndex())

	req = NewConditionPageRequest(2, 25, true,
		map[string]interface{}{"status": 1},
		map[string]string{"login_name": "o"},
		OrderDesc("created_at"))
	assert.Equal(t, 50, req.GetOffset())
	assert.True(t, req.IsCacheable())
	assert.Equal(t, 1, req.GetEqConditions()["status"])
	assert.Equal(t, "o", req.GetLikeConditions()["login_name"])
	assert.Equal(t, []Order{{Field: "created_at", Direction: Desc}}, req.GetOrders())
	assert.Nil(t, req.GetFilter())

	req.WithFilter(NewQueryFilter("status > ?", 0))
	assert.Equal(t, "status > ?", req.GetFilter().Schema)
}

func TestPageRequest_GettersDoNotMutate(t *testing.T) {
	req := NewPageRequest(-1, -5)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = req.GetOffset()
		}()
	}
	wg.Wait()

	assert.Equal(t, -1, req.pageIndex)
	assert.Equal(t, -5, req.pageSize)
}

func TestEnums(t *testing.T) {
	assert.Equal(t, LockUpgrade, LockModeOf(true))
	assert.Equal(t, LockNone, LockModeOf(false))
	assert.Equal(t, "UPGRADE", LockUpgrade.String())
	assert.Equal(t, IllegalValue, LockMode(7).Number())
	assert.Equal(t, IllegalName, LockMode(7).Name())

	assert.Equal(t, Desc, ParseDirection(" DESC "))
	assert.Equal(t, Asc, ParseDirection("sideways"))
	assert.Equal(t, "descending", Desc.Desc())
	assert.False(t, Direction(9).IsValid())
}
