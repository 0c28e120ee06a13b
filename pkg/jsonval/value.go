/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

// Package jsonval is a minimal write-only JSON value model. Payloads are
// built bottom-up from host data and serialized once per cycle; there is
// no parser. The variant set is closed: Object, Array and Primitive.
package jsonval

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// Value is one node of a JSON document under construction.
type Value interface {
	// JSON returns the compact serialized form.
	JSON() string

	appendJSON(dst []byte) []byte
}

// Of converts an arbitrary input into a Value. nil becomes null, an
// existing Value passes through unchanged, maps with string-convertible
// keys become Objects (keys sorted for deterministic output), slices and
// arrays become Arrays, bools, numbers and strings become primitives,
// and anything else is rendered via fmt.Sprint as a string primitive.
func Of(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return Uint(uint64(t))
	case uint8:
		return Uint(uint64(t))
	case uint16:
		return Uint(uint64(t))
	case uint32:
		return Uint(uint64(t))
	case uint64:
		return Uint(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case map[string]any:
		return ofStringMap(t)
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Map:
		return ofMap(rv)
	case reflect.Slice, reflect.Array:
		arr := NewArray()
		for i := 0; i < rv.Len(); i++ {
			arr.Append(rv.Index(i).Interface())
		}

		return arr
	default:
		return String(fmt.Sprint(v))
	}
}

func ofStringMap(m map[string]any) *Object {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	obj := NewObject()
	for _, k := range keys {
		obj.Add(k, m[k])
	}

	return obj
}

func ofMap(rv reflect.Value) *Object {
	keys := make([]string, 0, rv.Len())
	vals := make(map[string]any, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		k := fmt.Sprint(iter.Key().Interface())
		keys = append(keys, k)
		vals[k] = iter.Value().Interface()
	}

	sort.Strings(keys)

	obj := NewObject()
	for _, k := range keys {
		obj.Add(k, vals[k])
	}

	return obj
}

type primitive struct {
	v any // nil, bool, int64, uint64, float64 or string
}

// Null is the JSON null primitive.
var Null Value = primitive{}

// Bool returns a boolean primitive.
func Bool(b bool) Value { return primitive{v: b} }

// Int returns an integer primitive.
func Int(n int64) Value { return primitive{v: n} }

// Uint returns an unsigned integer primitive.
func Uint(n uint64) Value { return primitive{v: n} }

// Float returns a floating-point primitive. NaN and infinities serialize
// as null since JSON has no representation for them.
func Float(f float64) Value { return primitive{v: f} }

// String returns a string primitive.
func String(s string) Value { return primitive{v: s} }

func (p primitive) JSON() string {
	return string(p.appendJSON(nil))
}

func (p primitive) appendJSON(dst []byte) []byte {
	switch t := p.v.(type) {
	case nil:
		return append(dst, "null"...)
	case bool:
		return strconv.AppendBool(dst, t)
	case int64:
		return strconv.AppendInt(dst, t, 10)
	case uint64:
		return strconv.AppendUint(dst, t, 10)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return append(dst, "null"...)
		}

		return strconv.AppendFloat(dst, t, 'g', -1, 64)
	case string:
		return appendEscaped(dst, t)
	default:
		return append(dst, "null"...)
	}
}

const hexDigits = "0123456789abcdef"

// appendEscaped writes s as a quoted JSON string. The two-character
// escapes cover the quote, backslash and the common control characters;
// remaining bytes below 0x20 use \u00XX. Everything from 0x20 up passes
// through untouched.
func appendEscaped(dst []byte, s string) []byte {
	dst = append(dst, '"')

	for i := 0; i < len(s); i++ {
		c := s[i]

		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			} else {
				dst = append(dst, c)
			}
		}
	}

	return append(dst, '"')
}
