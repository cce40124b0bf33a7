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

import "context"

// Generator is a coroutine-style task body. The engine drives it with
// Send: the input is the value of the previously requested dependency
// (nil on the first send), and the response is either a further request
// (Get, GetMulti) or the finished value (Break).
type Generator interface {
	Send(ctx context.Context, input any) (Response, error)
}

// Response is the tagged set of generator answers.
type Response interface {
	isResponse()
}

// Get requests a single (product, subject) dependency.
type Get struct {
	Product Constraint
	Subject any
}

// GetMulti requests several dependencies at once; the generator is resumed
// with a tuple of their values.
type GetMulti struct {
	Gets []Get
}

// Break completes the generator with its final value.
type Break struct {
	Value any
}

func (Get) isResponse()      {}
func (GetMulti) isResponse() {}
func (Break) isResponse()    {}

// GeneratorFunc adapts a plain function to the Generator protocol. Useful
// for Go-authored coroutine bodies that keep their own state.
type GeneratorFunc func(ctx context.Context, input any) (Response, error)

func (f GeneratorFunc) Send(ctx context.Context, input any) (Response, error) {
	return f(ctx, input)
}
