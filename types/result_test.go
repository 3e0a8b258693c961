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
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_Shapes(t *testing.T) {
	ok := Ok("payload")
	body, has := ok.Body()
	assert.True(t, ok.Success())
	assert.True(t, has)
	assert.Equal(t, "payload", body)
	assert.Empty(t, ok.ErrorCode())

	msg := OkWithMessage("created", 42)
	assert.True(t, msg.Success())
	assert.Equal(t, "created", msg.Message())

	fail := Fail[string]("NOT_FOUND", "user not found")
	body, has = fail.Body()
	assert.False(t, fail.Success())
	assert.False(t, has)
	assert.Empty(t, body)
	assert.Equal(t, "NOT_FOUND", fail.ErrorCode())
	assert.Equal(t, Header{ErrorCode: "NOT_FOUND", Message: "user not found"}, fail.Header())
}

func TestResult_JSON(t *testing.T) {
	data, err := json.Marshal(Ok(map[string]int{"n": 1}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"header":{"success":true},"body":{"n":1}}`, string(data))

	data, err = json.Marshal(Fail[int]("VALIDATION_ERROR", "bad id"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"header":{"errorCode":"VALIDATION_ERROR","message":"bad id","success":false}}`, string(data))
}

func TestResult_UnmarshalIgnoresBodyOnFailure(t *testing.T) {
	var r Result[int]
	require.NoError(t, json.Unmarshal([]byte(`{"header":{"success":false,"errorCode":"E","message":"m"},"body":7}`), &r))
	_, has := r.Body()
	assert.False(t, has)
	assert.Equal(t, "E", r.ErrorCode())

	require.NoError(t, json.Unmarshal([]byte(`{"header":{"success":true,"message":"hi"},"body":7}`), &r))
	body, has := r.Body()
	assert.True(t, has)
	assert.Equal(t, 7, body)
	assert.Equal(t, "hi", r.Message())
}

func TestJsonObject_ValueScan(t *testing.T) {
	v, err := JsonObject{"a": "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"a":"b"}`, v)

	var obj JsonObject
	require.NoError(t, obj.Scan(`{"k":1}`))
	assert.Equal(t, float64(1), obj["k"])
	require.NoError(t, obj.Scan([]byte(`{"k":2}`)))
	assert.Equal(t, float64(2), obj["k"])
	require.NoError(t, obj.Scan(nil))
	assert.Nil(t, obj)
	assert.Error(t, obj.Scan(12))

	var arr JsonArray
	require.NoError(t, arr.Scan(`[{"x":true}]`))
	assert.Len(t, arr, 1)
	require.NoError(t, arr.Scan(nil))
	assert.Nil(t, arr)
	nilValue, err := JsonArray(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, nilValue)
}
