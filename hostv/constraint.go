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

import "reflect"

// Constraint is a named predicate over host values. It decides whether a
// value "satisfies" a required product type.
type Constraint interface {
	Name() string
	Satisfied(v any) bool
}

type typeConstraint struct {
	name string
	typ  reflect.Type
}

func (c *typeConstraint) Name() string { return c.name }

func (c *typeConstraint) Satisfied(v any) bool {
	if v == nil {
		return false
	}
	return reflect.TypeOf(v) == c.typ
}

// TypeIs builds a constraint satisfied exactly by values of the given type.
func TypeIs(name string, typ reflect.Type) Constraint {
	return &typeConstraint{name: name, typ: typ}
}

// TypeOf builds a constraint satisfied exactly by values of type T.
func TypeOf[T any](name string) Constraint {
	return TypeIs(name, reflect.TypeFor[T]())
}

type capability struct {
	name string
	pred func(v any) bool
}

func (c *capability) Name() string          { return c.name }
func (c *capability) Satisfied(v any) bool { return c.pred(v) }

// Capability builds a constraint from an arbitrary predicate. Used for
// has-a style constraints ("has products", "is a generator") where the
// concrete type does not matter.
func Capability(name string, pred func(v any) bool) Constraint {
	return &capability{name: name, pred: pred}
}
