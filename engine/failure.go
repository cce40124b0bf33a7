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

package engine

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/skein-build/skein/hostv"
)

// NoopReason ranks why a candidate had nothing to say. The order is a
// severity: when every candidate of a Select noops, the highest reason is
// the one reported. Cycle ranks highest so that a Select whose only
// candidates are cyclic reports the cycle rather than "no task".
type NoopReason int

const (
	NoopNoTask NoopReason = iota
	NoopNoVariant
	NoopCycle
)

func (r NoopReason) String() string {
	switch r {
	case NoopNoTask:
		return "NoTask"
	case NoopNoVariant:
		return "NoVariant"
	case NoopCycle:
		return "Cycle"
	default:
		return fmt.Sprintf("NoopReason(%d)", int(r))
	}
}

// Noop is the non-fatal "this candidate did not apply". It is absorbed by
// a Select when any sibling succeeds and is never shown to a consumer
// that required the value.
type Noop struct {
	Reason NoopReason

	// Path is the demand chain, set for cycles only.
	Path []string
}

func (n *Noop) Error() string {
	if n.Reason == NoopCycle && len(n.Path) > 0 {
		return fmt.Sprintf("Noop(Cycle): %s", strings.Join(n.Path, " -> "))
	}
	return fmt.Sprintf("Noop(%s)", n.Reason)
}

// nativeTraceback marks throws raised by the engine itself rather than by
// user code.
const nativeTraceback = "<skein native internals>"

// Throw is a hard error: a host value describing the failure plus a
// traceback. It propagates to the nearest consumer and is never silently
// swallowed.
type Throw struct {
	Value     any
	Traceback string
}

func (t *Throw) Error() string {
	return fmt.Sprintf("%v", t.Value)
}

// Throwf raises an engine-internal throw.
func Throwf(format string, args ...any) error {
	return &Throw{Value: fmt.Sprintf(format, args...), Traceback: nativeTraceback}
}

// Invalidated signals that a node's inputs changed mid-computation; the
// caller must retry. It dominates every other failure.
type Invalidated struct{}

func (*Invalidated) Error() string { return "invalidated" }

// AsNoop unwraps a Noop failure.
func AsNoop(err error) (*Noop, bool) {
	var n *Noop
	ok := errors.As(err, &n)
	return n, ok
}

// AsThrow unwraps a Throw failure.
func AsThrow(err error) (*Throw, bool) {
	var t *Throw
	ok := errors.As(err, &t)
	return t, ok
}

// IsInvalidated reports whether a failure is an invalidation.
func IsInvalidated(err error) bool {
	var i *Invalidated
	return errors.As(err, &i)
}

// WasRequired converts a Noop into a Throw: the consumer required the
// value, so "nothing applied" is fatal for it. Other failures pass
// through.
func WasRequired(err error) error {
	if n, ok := AsNoop(err); ok {
		return Throwf("No source of required dependency: %s", n.Reason)
	}
	return err
}

// asFailure normalizes an arbitrary error into the failure taxonomy.
// Panics from user code carry their recovered stack as the traceback.
func asFailure(err error) error {
	if err == nil {
		return nil
	}
	var (
		n *Noop
		t *Throw
		i *Invalidated
	)
	if errors.As(err, &n) || errors.As(err, &t) || errors.As(err, &i) {
		return err
	}
	var p *hostv.PanicError
	if errors.As(err, &p) {
		return &Throw{Value: p.Error(), Traceback: p.Stack}
	}
	return &Throw{Value: err.Error(), Traceback: nativeTraceback}
}
