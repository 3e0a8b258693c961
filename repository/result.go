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

	"github.com/tomoncle/shrimp/types"
)

// Error codes carried by failed envelopes built with ResultOf.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeMultipleResults = "MULTIPLE_RESULTS"
	CodeNotFound        = "NOT_FOUND"
	CodeUnboundedUpdate = "UNBOUNDED_UPDATE"
	CodeExecution       = "EXECUTION_FAILURE"
	CodeInternal        = "INTERNAL_ERROR"
)

// ResultOf wraps the outcome of a repository call in a response envelope.
func ResultOf[T any](body T, err error) types.Result[T] {
	if err == nil {
		return types.Ok(body)
	}
	return types.Fail[T](ErrorCode(err), err.Error())
}

// ErrorCode maps a repository error to its envelope code.
func ErrorCode(err error) string {
	var execErr *ExecutionError
	switch {
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrMultipleResults):
		return CodeMultipleResults
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnboundedUpdate):
		return CodeUnboundedUpdate
	case errors.As(err, &execErr):
		return CodeExecution
	default:
		return CodeInternal
	}
}
