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
	"context"
	"fmt"
	"runtime/debug"
)

// Func is a user-authored rule function. It receives its resolved
// dependency values as positional arguments and returns either a finished
// value or a Generator.
type Func func(ctx context.Context, args ...any) (any, error)

// PanicError carries the recovered value and stack of a panicking user
// function. Interop calls are exception-free: panics come back as errors.
type PanicError struct {
	Recovered any
	Stack     string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("user function panicked: %v", e.Recovered)
}

// Call invokes a user function, converting panics into a *PanicError.
func Call(ctx context.Context, f Func, args ...any) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Recovered: r, Stack: string(debug.Stack())}
		}
	}()
	return f(ctx, args...)
}

// Send drives one step of a generator, converting panics into a
// *PanicError.
func Send(ctx context.Context, g Generator, input any) (resp Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Recovered: r, Stack: string(debug.Stack())}
		}
	}()
	return g.Send(ctx, input)
}
