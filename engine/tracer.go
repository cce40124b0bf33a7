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

	"github.com/skein-build/skein/graph"
)

// Tracer decides which nodes terminate a debug render and how a node
// state prints.
type Tracer struct{}

// IsBottom reports whether a node is a leaf in a debug render. Noops,
// successes and absent-state nodes are bottom; throws and invalidations
// are not — their subtrees are worth rendering. A node with no state is
// either still running or effectively cancelled because a dependent
// failed; either way there is nothing useful to show under it.
func (Tracer) IsBottom(e graph.Entry[Node, Result]) bool {
	if !e.Completed {
		return true
	}
	if e.Err == nil {
		return true
	}
	if _, ok := AsNoop(e.Err); ok {
		return true
	}
	return false
}

// StateStr renders one node state, indenting throw tracebacks under the
// given prefix.
func (Tracer) StateStr(indent string, e graph.Entry[Node, Result]) string {
	if !e.Completed {
		return "<None>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s(%v)", e.Result.Kind(), e.Result)
	}
	if t, ok := AsThrow(e.Err); ok {
		lines := strings.Split(t.Traceback, "\n")
		for i, l := range lines {
			lines[i] = fmt.Sprintf("%s    %s", indent, l)
		}
		return fmt.Sprintf("Throw(%v)\n%s", t.Value, strings.Join(lines, "\n"))
	}
	if n, ok := AsNoop(e.Err); ok {
		return fmt.Sprintf("Noop(%s)", n.Reason)
	}
	if IsInvalidated(e.Err) {
		return "Invalidated"
	}
	return fmt.Sprintf("Error(%v)", e.Err)
}
