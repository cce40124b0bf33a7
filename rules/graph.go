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

package rules

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/skein-build/skein/hostv"
)

// Rule is a candidate producer of a product: either a user-authored Task
// or an engine-supplied Intrinsic.
type Rule interface {
	rule()
	String() string
}

// Task is a user-authored rule: a function plus the clause of selectors
// whose resolved values become the function's positional arguments.
type Task struct {
	Name   string
	Func   hostv.Func
	Clause []Selector
}

func (t *Task) rule() {}

func (t *Task) String() string { return fmt.Sprintf("Task(%s)", t.Name) }

// IntrinsicKind discriminates the engine-supplied rules.
type IntrinsicKind int

const (
	IntrinsicSnapshot IntrinsicKind = iota
	IntrinsicFilesContent
	IntrinsicProcessExecution
)

func (k IntrinsicKind) String() string {
	switch k {
	case IntrinsicSnapshot:
		return "Snapshot"
	case IntrinsicFilesContent:
		return "FilesContent"
	case IntrinsicProcessExecution:
		return "ProcessExecution"
	default:
		return fmt.Sprintf("IntrinsicKind(%d)", int(k))
	}
}

// Intrinsic is an engine-supplied rule for a specific product type.
type Intrinsic struct {
	Kind IntrinsicKind
}

func (i *Intrinsic) rule() {}

func (i *Intrinsic) String() string { return fmt.Sprintf("Intrinsic(%s)", i.Kind) }

// Entry identifies one registered candidate for producing a product from
// a subject type. Entry identity (the id) is stable for the lifetime of
// the graph and participates in node keys.
type Entry struct {
	id          int
	subjectType hostv.TypeID
	product     hostv.Constraint
	rule        Rule
}

func (e *Entry) ID() int                    { return e.id }
func (e *Entry) SubjectType() hostv.TypeID  { return e.subjectType }
func (e *Entry) Product() hostv.Constraint  { return e.product }
func (e *Entry) Rule() Rule                 { return e.rule }

func (e *Entry) MatchesSubjectType(t hostv.TypeID) bool {
	return e.subjectType == t
}

func (e *Entry) String() string {
	return fmt.Sprintf("entry#%d(%v -> %s via %s)", e.id, e.subjectType, e.product.Name(), e.rule)
}

type indexKey struct {
	subjectType hostv.TypeID
	product     string
}

// Graph is the precomputed static index mapping (subject type, product)
// to candidate rule entries. Read-only after Build.
type Graph struct {
	entries    map[indexKey][]*Entry
	singletons map[string]any
}

// EntriesFor returns the ordered candidate entries able to produce the
// product for the subject type.
func (g *Graph) EntriesFor(subjectType hostv.TypeID, product hostv.Constraint) []*Entry {
	return g.entries[indexKey{subjectType: subjectType, product: product.Name()}]
}

// Singleton returns the registered singleton value for a product, if any.
// A singleton shadows every other candidate for its product.
func (g *Graph) Singleton(product hostv.Constraint) (any, bool) {
	v, ok := g.singletons[product.Name()]
	return v, ok
}

// EdgesFor returns the dependency edges available to an entry: the inner
// selects of a task clause or of an intrinsic resolve against them.
func (g *Graph) EdgesFor(e *Entry) *Edges {
	return &Edges{g: g, subjectType: e.subjectType}
}

// Edges resolves selectors issued from within a rule entry.
type Edges struct {
	g           *Graph
	subjectType hostv.TypeID
}

// EntriesFor resolves a clause selector against the owning entry's
// subject type.
func (ed *Edges) EntriesFor(sel Selector) []*Entry {
	return ed.g.EntriesFor(ed.subjectType, sel.Product)
}

// EntriesForGet resolves a generator-issued Get, whose subject type is
// carried by the request rather than the owning entry.
func (ed *Edges) EntriesForGet(product hostv.Constraint, subjectType hostv.TypeID) []*Entry {
	return ed.g.EntriesFor(subjectType, product)
}

// Builder accumulates registrations and produces an immutable Graph.
type Builder struct {
	nextID     int
	entries    map[indexKey][]*Entry
	singletons map[string]any
	err        error
}

func NewBuilder() *Builder {
	return &Builder{
		entries:    make(map[indexKey][]*Entry),
		singletons: make(map[string]any),
	}
}

// Register adds a candidate rule producing product from subjectType.
// Registration order is preserved per (subjectType, product) pair.
func (b *Builder) Register(subjectType hostv.TypeID, product hostv.Constraint, r Rule) *Builder {
	if b.err != nil {
		return b
	}
	if r == nil {
		b.err = errors.Errorf("nil rule registered for product %s", product.Name())
		return b
	}
	b.nextID++
	k := indexKey{subjectType: subjectType, product: product.Name()}
	b.entries[k] = append(b.entries[k], &Entry{
		id:          b.nextID,
		subjectType: subjectType,
		product:     product,
		rule:        r,
	})
	return b
}

// Singleton registers a fixed value as the sole producer of a product.
func (b *Builder) Singleton(product hostv.Constraint, value any) *Builder {
	if b.err != nil {
		return b
	}
	if _, exists := b.singletons[product.Name()]; exists {
		b.err = errors.Errorf("duplicate singleton for product %s", product.Name())
		return b
	}
	b.singletons[product.Name()] = value
	return b
}

func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Graph{entries: b.entries, singletons: b.singletons}, nil
}
