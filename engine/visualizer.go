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

	"github.com/skein-build/skein/graph"
)

const vizMaxColors = 12

// Visualizer colors nodes for graph exports: white for pending and
// nooped nodes, fixed colors for throws and invalidations, and a
// round-robin palette indexed by product string for successes.
type Visualizer struct {
	colors map[string]string
}

func NewVisualizer() *Visualizer {
	return &Visualizer{colors: make(map[string]string)}
}

// ColorScheme names the graphviz palette the color indices refer to.
func (v *Visualizer) ColorScheme() string { return "set312" }

func (v *Visualizer) Color(e graph.Entry[Node, Result]) string {
	if !e.Completed {
		return "white"
	}
	if e.Err != nil {
		if _, ok := AsNoop(e.Err); ok {
			return "white"
		}
		if IsInvalidated(e.Err) {
			return "12"
		}
		return "4"
	}
	product := e.Node.ProductStr()
	if c, ok := v.colors[product]; ok {
		return c
	}
	c := fmt.Sprintf("%d", len(v.colors)%vizMaxColors+1)
	v.colors[product] = c
	return c
}
