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

import "context"

// Ref is a lazy handle to an entity: creating it costs no round trip and the
// row is read on the first Get. A Ref is not safe for concurrent use.
type Ref[T any, ID comparable] struct {
	repo     *BaseRepository[T, ID]
	id       ID
	lock     bool
	resolved bool
	entity   *T
}

func (r *Ref[T, ID]) ID() ID { return r.id }

// Get reads the entity on first use and returns ErrNotFound when the row is
// absent. Driver failures are not remembered, so a later Get retries.
func (r *Ref[T, ID]) Get(ctx context.Context) (*T, error) {
	if r.resolved {
		if r.entity == nil {
			return nil, ErrNotFound
		}
		return r.entity, nil
	}
	entity, err := r.repo.GetWithLock(ctx, r.id, r.lock)
	if err != nil {
		return nil, err
	}
	r.resolved, r.entity = true, entity
	if entity == nil {
		return nil, ErrNotFound
	}
	return entity, nil
}
