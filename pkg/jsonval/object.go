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

package jsonval

// Object is a JSON object that preserves insertion order. Re-adding an
// existing key overwrites its value in place; the key keeps the position
// of its first insertion.
type Object struct {
	keys   []string
	index  map[string]int
	values []Value
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Add inserts or overwrites key with Of(v) and returns the object so
// construction can be chained.
func (o *Object) Add(key string, v any) *Object {
	if i, ok := o.index[key]; ok {
		o.values[i] = Of(v)
		return o
	}

	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.values = append(o.values, Of(v))

	return o
}

// Len returns the number of keys.
func (o *Object) Len() int {
	return len(o.keys)
}

// Get returns the value stored under key, or nil if absent.
func (o *Object) Get(key string) Value {
	if i, ok := o.index[key]; ok {
		return o.values[i]
	}

	return nil
}

func (o *Object) JSON() string {
	return string(o.appendJSON(nil))
}

func (o *Object) appendJSON(dst []byte) []byte {
	dst = append(dst, '{')

	for i, k := range o.keys {
		if i > 0 {
			dst = append(dst, ',')
		}

		dst = appendEscaped(dst, k)
		dst = append(dst, ':')
		dst = o.values[i].appendJSON(dst)
	}

	return append(dst, '}')
}

// Array is an ordered JSON array.
type Array struct {
	items []Value
}

// NewArray returns an empty Array.
func NewArray() *Array {
	return &Array{}
}

// Append adds Of(v) to the end and returns the array for chaining.
func (a *Array) Append(v any) *Array {
	a.items = append(a.items, Of(v))
	return a
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.items)
}

func (a *Array) JSON() string {
	return string(a.appendJSON(nil))
}

func (a *Array) appendJSON(dst []byte) []byte {
	dst = append(dst, '[')

	for i, item := range a.items {
		if i > 0 {
			dst = append(dst, ',')
		}

		dst = item.appendJSON(dst)
	}

	return append(dst, ']')
}
