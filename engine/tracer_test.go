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
	"github.com/skein-build/skein/graph"
	"github.com/skein-build/skein/vfs"
)

func entryFor(n Node, completed bool, res Result, err error) graph.Entry[Node, Result] {
	e := graph.Entry[Node, Result]{Node: n, Completed: completed}
	if completed {
		e.Result, e.Err = res, err
	}
	return e
}

func (s *EngineTestSuite) TestVisualizerColors() {
	v := NewVisualizer()
	scandir := &Scandir{Dir: vfs.Dir{Path: "a"}}
	digest := &DigestFile{File: vfs.File{Path: "a"}}

	s.Equal("set312", v.ColorScheme())
	s.Equal("white", v.Color(entryFor(scandir, false, Result{}, nil)))
	s.Equal("white", v.Color(entryFor(scandir, true, Result{}, &Noop{Reason: NoopNoTask})))
	s.Equal("4", v.Color(entryFor(scandir, true, Result{}, Throwf("boom"))))
	s.Equal("12", v.Color(entryFor(scandir, true, Result{}, &Invalidated{})))

	// successes draw from a per-product round-robin palette
	first := v.Color(entryFor(scandir, true, ValueResult(1), nil))
	second := v.Color(entryFor(digest, true, ValueResult(2), nil))
	s.NotEqual(first, second)
	s.Equal(first, v.Color(entryFor(scandir, true, ValueResult(3), nil)), "same product keeps its color")
}

func (s *EngineTestSuite) TestTracerBottomPredicate() {
	tr := Tracer{}
	n := &Scandir{Dir: vfs.Dir{Path: "a"}}

	s.True(tr.IsBottom(entryFor(n, false, Result{}, nil)))
	s.True(tr.IsBottom(entryFor(n, true, ValueResult(1), nil)))
	s.True(tr.IsBottom(entryFor(n, true, Result{}, &Noop{Reason: NoopCycle})))
	s.False(tr.IsBottom(entryFor(n, true, Result{}, Throwf("boom"))))
	s.False(tr.IsBottom(entryFor(n, true, Result{}, &Invalidated{})))
}

func (s *EngineTestSuite) TestTracerStateStr() {
	tr := Tracer{}
	n := &Scandir{Dir: vfs.Dir{Path: "a"}}

	s.Equal("<None>", tr.StateStr("", entryFor(n, false, Result{}, nil)))
	s.Equal("Noop(NoVariant)", tr.StateStr("", entryFor(n, true, Result{}, &Noop{Reason: NoopNoVariant})))
	s.Equal("Invalidated", tr.StateStr("", entryFor(n, true, Result{}, &Invalidated{})))

	thrown := tr.StateStr("  ", entryFor(n, true, Result{}, Throwf("boom")))
	s.Contains(thrown, "Throw(boom)")
	s.Contains(thrown, "      "+nativeTraceback)
}
