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

// Package repository provides a generic data access object over bun.
//
// BaseRepository[T, ID] serves any bun model with a single primary key:
// reads and writes by identifier, optional row locks, lazy references,
// count-then-slice paging, property lookups and bulk property updates, and
// criteria queries. Every call takes a context and returns explicit errors:
// ErrValidation before any SQL runs, *ExecutionError for driver failures.
// Absence is (nil, nil) for lookups and ErrNotFound where a value is owed.
//
// A repository is bound to a bun.IDB; WithTx rebinds it to a transaction.
package repository
