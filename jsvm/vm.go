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

// Package jsvm exposes JavaScript functions as engine task bodies. A
// plain function becomes a hostv.Func; a generator function becomes a
// hostv.Generator whose yields request further engine work through the
// skein.get / skein.getMulti helpers.
package jsvm

import (
	"context"
	"sync"

	"github.com/dop251/goja"
	"github.com/pkg/errors"
	"github.com/skein-build/skein/hostv"
)

const (
	markerField   = "__skein__"
	markerGet     = "get"
	markerGetMany = "getMulti"
)

// VM wraps one goja runtime. Runtimes are not goroutine-safe; every entry
// point takes the VM lock, so a VM serializes its scripts.
type VM struct {
	mu       sync.Mutex
	rt       *goja.Runtime
	products map[string]hostv.Constraint
}

func New() (*VM, error) {
	vm := &VM{
		rt:       goja.New(),
		products: make(map[string]hostv.Constraint),
	}

	err := vm.rt.Set("skein", map[string]any{
		"get": func(product string, subject goja.Value) map[string]any {
			return map[string]any{
				markerField: markerGet,
				"product":   product,
				"subject":   subject.Export(),
			}
		},
		"getMulti": func(gets goja.Value) map[string]any {
			return map[string]any{
				markerField: markerGetMany,
				"gets":      gets.Export(),
			}
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "install skein helpers")
	}
	return vm, nil
}

// RegisterProduct makes a product constraint addressable from JS by its
// name, for use as the first argument of skein.get.
func (vm *VM) RegisterProduct(c hostv.Constraint) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.products[c.Name()] = c
}

// Func compiles a JS function expression (plain or generator) into a
// hostv.Func.
func (vm *VM) Func(name, src string) (hostv.Func, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	val, err := vm.rt.RunString("(" + src + ")")
	if err != nil {
		return nil, errors.Wrapf(err, "compile %s", name)
	}
	fn, ok := goja.AssertFunction(val)
	if !ok {
		return nil, errors.Errorf("%s is not a function", name)
	}

	return func(ctx context.Context, args ...any) (any, error) {
		vm.mu.Lock()
		defer vm.mu.Unlock()

		gargs := make([]goja.Value, len(args))
		for i, a := range args {
			gargs[i] = vm.rt.ToValue(a)
		}
		res, err := fn(goja.Undefined(), gargs...)
		if err != nil {
			return nil, errors.Wrapf(err, "call %s", name)
		}

		if gen, ok := vm.asGenerator(res); ok {
			return gen, nil
		}
		return res.Export(), nil
	}, nil
}

// asGenerator recognizes a generator object by its next method. Must be
// called with the VM lock held.
func (vm *VM) asGenerator(v goja.Value) (hostv.Generator, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, false
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, false
	}
	nextVal := obj.Get("next")
	if nextVal == nil || goja.IsUndefined(nextVal) {
		return nil, false
	}
	next, ok := goja.AssertFunction(nextVal)
	if !ok {
		return nil, false
	}
	return &jsGenerator{vm: vm, self: obj, next: next}, true
}

// jsGenerator drives a JS generator object through the engine's
// send/resume protocol.
type jsGenerator struct {
	vm   *VM
	self *goja.Object
	next goja.Callable
}

func (g *jsGenerator) Send(_ context.Context, input any) (hostv.Response, error) {
	g.vm.mu.Lock()
	defer g.vm.mu.Unlock()

	res, err := g.next(g.self, g.vm.rt.ToValue(input))
	if err != nil {
		return nil, errors.Wrap(err, "resume generator")
	}
	state := res.ToObject(g.vm.rt)
	if state.Get("done").ToBoolean() {
		var final any
		if v := state.Get("value"); v != nil && !goja.IsUndefined(v) {
			final = v.Export()
		}
		return hostv.Break{Value: final}, nil
	}

	yielded := state.Get("value").Export()
	return g.vm.liftRequest(yielded)
}

func (g *jsGenerator) String() string { return "jsGenerator" }

// liftRequest maps a yielded marker object onto the generator protocol.
func (vm *VM) liftRequest(yielded any) (hostv.Response, error) {
	m, ok := yielded.(map[string]any)
	if !ok {
		return nil, errors.Errorf("generator yielded %T, want a skein.get or skein.getMulti request", yielded)
	}
	switch m[markerField] {
	case markerGet:
		get, err := vm.liftGet(m)
		if err != nil {
			return nil, err
		}
		return get, nil
	case markerGetMany:
		raw, _ := m["gets"].([]any)
		gets := make([]hostv.Get, 0, len(raw))
		for _, item := range raw {
			inner, ok := item.(map[string]any)
			if !ok {
				return nil, errors.Errorf("getMulti element is %T, want a skein.get request", item)
			}
			get, err := vm.liftGet(inner)
			if err != nil {
				return nil, err
			}
			gets = append(gets, get)
		}
		return hostv.GetMulti{Gets: gets}, nil
	default:
		return nil, errors.Errorf("generator yielded a non-request value")
	}
}

func (vm *VM) liftGet(m map[string]any) (hostv.Get, error) {
	name, _ := m["product"].(string)
	product, ok := vm.products[name]
	if !ok {
		return hostv.Get{}, errors.Errorf("unknown product %q requested from JS", name)
	}
	return hostv.Get{Product: product, Subject: m["subject"]}, nil
}
