// Copyright 2025 Skein Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hostv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
)

// Host values are plain Go values: primitives, slices, maps with string
// keys, and exported structs. Projections read named fields off them
// without the caller knowing the concrete type.
//
// Field lookup is case-insensitive on struct fields so that host schemas
// can use snake_case names ("timeout_seconds") against idiomatic Go
// structs (TimeoutSeconds).

// ProjectIgnoringType returns the named field of a host value, or nil when
// the value has no such field.
func ProjectIgnoringType(v any, field string) any {
	if v == nil {
		return nil
	}

	if m, ok := v.(map[string]any); ok {
		return m[field]
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	want := normalizeField(field)
	for _, f := range structs.New(rv.Interface()).Fields() {
		if !f.IsExported() {
			continue
		}
		if normalizeField(f.Name()) == want {
			return f.Value()
		}
	}
	return nil
}

// ProjectStr projects a field and renders it as a string. Missing fields
// project to the empty string.
func ProjectStr(v any, field string) string {
	f := ProjectIgnoringType(v, field)
	if f == nil {
		return ""
	}
	switch t := f.(type) {
	case string:
		return t
	case []byte:
		// paths cross the host boundary as raw bytes
		return string(t)
	default:
		return fmt.Sprintf("%v", f)
	}
}

// ProjectMulti projects a field as a sequence of host values.
func ProjectMulti(v any, field string) []any {
	f := ProjectIgnoringType(v, field)
	if f == nil {
		return nil
	}
	if vs, ok := f.([]any); ok {
		return vs
	}

	rv := reflect.ValueOf(f)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// ProjectMultiStrs projects a field as a sequence of strings.
func ProjectMultiStrs(v any, field string) []string {
	vs := ProjectMulti(v, field)
	out := make([]string, len(vs))
	for i, item := range vs {
		if s, ok := item.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprintf("%v", item)
	}
	return out
}

func normalizeField(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "_", ""))
}
