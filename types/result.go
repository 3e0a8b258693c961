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
	"github.com/goccy/go-json"
)

// Header carries the success flag and, for failures, the error code and message.
type Header struct {
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
	Success   bool   `json:"success"`
}

// Result is a response envelope that is either a success carrying a body or
// a failure carrying an error code and message. The shape is fixed when the
// value is built; there are no setters.
type Result[T any] struct {
	header Header
	body   T
}

// Ok builds a successful result.
func Ok[T any](body T) Result[T] {
	return Result[T]{header: Header{Success: true}, body: body}
}

// OkWithMessage builds a successful result with an informational message.
func OkWithMessage[T any](message string, body T) Result[T] {
	return Result[T]{header: Header{Success: true, Message: message}, body: body}
}

// Fail builds a failed result. It never carries a body.
func Fail[T any](errorCode, message string) Result[T] {
	return Result[T]{header: Header{ErrorCode: errorCode, Message: message}}
}

func (r Result[T]) Success() bool { return r.header.Success }

func (r Result[T]) ErrorCode() string { return r.header.ErrorCode }

func (r Result[T]) Message() string { return r.header.Message }

func (r Result[T]) Header() Header { return r.header }

// Body returns the body and true for a success, or the zero value and false.
func (r Result[T]) Body() (T, bool) {
	if !r.header.Success {
		var zero T
		return zero, false
	}
	return r.body, true
}

type resultJSON[T any] struct {
	Header Header `json:"header"`
	Body   *T     `json:"body,omitempty"`
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := resultJSON[T]{Header: r.header}
	if r.header.Success {
		body := r.body
		out.Body = &body
	}
	return json.Marshal(out)
}

func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var in resultJSON[T]
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Header.Success {
		*r = Fail[T](in.Header.ErrorCode, in.Header.Message)
		return nil
	}
	var body T
	if in.Body != nil {
		body = *in.Body
	}
	*r = OkWithMessage(in.Header.Message, body)
	return nil
}
