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

import "github.com/tomoncle/shrimp/types"

// Column is a typed column handle declared next to a model, e.g.
//
//	var UserLoginName = criteria.Column[string]("login_name")
//
// Values passed to Eq and Set must have the column's Go type.
type Column[V any] string

func (c Column[V]) Name() string { return string(c) }

func (c Column[V]) Eq(value V) Predicate { return Eq(string(c), value) }

func (c Column[V]) Like(substr string) Predicate { return Like(string(c), substr) }

func (c Column[V]) Set(value V) Assignment { return Assignment{Field: string(c), Value: value} }

func (c Column[V]) Asc() types.Order { return types.OrderAsc(string(c)) }

func (c Column[V]) Desc() types.Order { return types.OrderDesc(string(c)) }
