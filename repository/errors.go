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
	"errors"
	"fmt"

	"github.com/tomoncle/shrimp/database"
)

var (
	// ErrValidation wraps every precondition failure. No SQL has run.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned where absence cannot be expressed as a nil
	// entity: Ref.Get and Refresh.
	ErrNotFound = errors.New("entity not found")
	// ErrMultipleResults is returned by unique lookups matching several rows.
	ErrMultipleResults = errors.New("query returned more than one result")
	// ErrUnboundedUpdate rejects property updates without a where clause.
	ErrUnboundedUpdate = errors.New("update without conditions; use UpdateAllProperties")
)

// ExecutionError is a failure reported by the driver while running Op.
type ExecutionError struct {
	Op   string
	Kind database.SQLError
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func wrapValidation(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
