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
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/rules"
)

// Select resolves a product for a subject. It can be satisfied by the
// subject itself (is-a / has-a), by a singleton, or by any of its
// candidate rule entries — but fails hard if more than one candidate
// produces a value. Variants restrict candidates by name when the
// selector carries a variant key.
type Select struct {
	Subject  *hostv.Key
	Variants rules.Variants
	Selector rules.Selector

	entries []*rules.Entry
}

// NewSelect builds a Select without a variant restriction, resolving
// candidates through the given edges.
func NewSelect(product hostv.Constraint, subject *hostv.Key, variants rules.Variants, edges *rules.Edges) *Select {
	sel := rules.Select(product)
	return &Select{
		Subject:  subject,
		Variants: variants,
		Selector: sel,
		entries:  edges.EntriesFor(sel),
	}
}

// NewSelectWithEntries builds a Select over an explicit candidate set.
func NewSelectWithEntries(product hostv.Constraint, subject *hostv.Key, variants rules.Variants, entries []*rules.Entry) *Select {
	return &Select{
		Subject:  subject,
		Variants: variants,
		Selector: rules.Select(product),
		entries:  entries,
	}
}

// NewSelectWithSelector builds a Select for a clause selector, keeping
// only the candidate entries that can apply to the subject's type.
func NewSelectWithSelector(sel rules.Selector, subject *hostv.Key, variants rules.Variants, edges *rules.Edges) *Select {
	all := edges.EntriesFor(sel)
	entries := make([]*rules.Entry, 0, len(all))
	for _, e := range all {
		if e.MatchesSubjectType(subject.TypeID()) {
			entries = append(entries, e)
		}
	}
	return &Select{
		Subject:  subject,
		Variants: variants,
		Selector: sel,
		entries:  entries,
	}
}

func (s *Select) product() hostv.Constraint { return s.Selector.Product }

func (s *Select) String() string {
	ids := make([]string, len(s.entries))
	for i, e := range s.entries {
		ids[i] = fmt.Sprintf("%d", e.ID())
	}
	return fmt.Sprintf("Select(%s, %s, %s, [%s])",
		s.Subject, s.Selector, s.Variants, strings.Join(ids, ","))
}

func (s *Select) ProductStr() string { return s.product().Name() }

func (s *Select) FSSubject() (string, bool) { return "", false }

func (s *Select) Run(ctx context.Context, ec *Context) (Result, error) {
	// If there is a variant key, it must be configured; if not, no match.
	var variantValue *string
	if key := s.Selector.VariantKey; key != "" {
		v, ok := s.Variants.Find(key)
		if !ok {
			return Result{}, &Noop{Reason: NoopNoVariant}
		}
		variantValue = &v
	}

	// If the subject "is a" or "has a" product, we're done: no rule is
	// consulted.
	if v, ok := s.selectLiteral(ec.core.Types, s.Subject.Value(), variantValue); ok {
		return ValueResult(v), nil
	}

	// Attempt the configured candidates. Every candidate must settle —
	// never cancel on first error — so disambiguation is deterministic
	// regardless of scheduling.
	candidates := s.genNodes(ec)
	settled := make([]candidateOutcome, len(candidates))
	var wg sync.WaitGroup
	for i, run := range candidates {
		wg.Add(1)
		go func(i int, run candidateFn) {
			defer wg.Done()
			v, err := run(ctx)
			settled[i] = candidateOutcome{value: v, err: err}
		}(i, run)
	}
	wg.Wait()

	return s.chooseResult(ec, settled, variantValue)
}

type candidateFn func(ctx context.Context) (any, error)

type candidateOutcome struct {
	value any
	err   error
}

// genNodes returns one computation per candidate able to produce the
// product for the subject and variants.
func (s *Select) genNodes(ec *Context) []candidateFn {
	if v, ok := ec.core.Rules.Singleton(s.product()); ok {
		return []candidateFn{func(context.Context) (any, error) { return v, nil }}
	}

	out := make([]candidateFn, 0, len(s.entries))
	for _, entry := range s.entries {
		switch r := entry.Rule().(type) {
		case *rules.Task:
			task := &Task{
				Subject:  s.Subject,
				Product:  s.product(),
				Variants: s.Variants,
				Task:     r,
				Entry:    entry,
			}
			out = append(out, func(ctx context.Context) (any, error) {
				res, err := ec.Get(ctx, task)
				if err != nil {
					return nil, err
				}
				return res.Value(), nil
			})
		case *rules.Intrinsic:
			out = append(out, s.intrinsicNode(ec, entry, r.Kind))
		}
	}
	return out
}

func (s *Select) intrinsicNode(ec *Context, entry *rules.Entry, kind rules.IntrinsicKind) candidateFn {
	switch kind {
	case rules.IntrinsicSnapshot:
		return func(ctx context.Context) (any, error) { return s.runSnapshot(ctx, ec, entry) }
	case rules.IntrinsicFilesContent:
		return func(ctx context.Context) (any, error) { return s.runFilesContent(ctx, ec, entry) }
	case rules.IntrinsicProcessExecution:
		return func(ctx context.Context) (any, error) { return s.runExecuteProcess(ctx, ec, entry) }
	default:
		return func(context.Context) (any, error) {
			return nil, Throwf("unknown intrinsic kind %s", kind)
		}
	}
}

// runSnapshot selects a path-globs value for the subject, snapshots it,
// and packs the snapshot into a host value.
func (s *Select) runSnapshot(ctx context.Context, ec *Context, entry *rules.Entry) (any, error) {
	edges := ec.core.Rules.EdgesFor(entry)
	res, err := NewSelect(ec.core.Types.PathGlobs, s.Subject, s.Variants, edges).Run(ctx, ec)
	if err != nil {
		return nil, err
	}
	pgKey, err := ec.core.Interns.KeyFor(res.Value())
	if err != nil {
		return nil, asFailure(err)
	}
	snapRes, err := ec.Get(ctx, &Snapshot{PathGlobs: pgKey})
	if err != nil {
		return nil, err
	}
	return storeSnapshot(ec.core.Types, snapRes.Snapshot()), nil
}

// runFilesContent selects a directory digest for the subject, loads the
// directory, and materializes every file's content into a host value.
func (s *Select) runFilesContent(ctx context.Context, ec *Context, entry *rules.Entry) (any, error) {
	edges := ec.core.Rules.EdgesFor(entry)
	res, err := NewSelect(ec.core.Types.DirectoryDigest, s.Subject, s.Variants, edges).Run(ctx, ec)
	if err != nil {
		return nil, err
	}
	digest, err := liftDigest(res.Value())
	if err != nil {
		return nil, Throwf("%v", err)
	}
	dir, err := ec.core.Store.LoadDirectory(ctx, digest)
	if err != nil {
		return nil, Throwf("Could not find directory with digest %s: %v", digest, err)
	}
	contents, err := ec.core.Store.ContentsForDirectory(ctx, dir)
	if err != nil {
		return nil, Throwf("%v", err)
	}
	return storeFilesContent(ec.core.Types, contents), nil
}

// runExecuteProcess selects a process request for the subject, lifts it
// into a typed request, dispatches, and packs the result.
func (s *Select) runExecuteProcess(ctx context.Context, ec *Context, entry *rules.Entry) (any, error) {
	edges := ec.core.Rules.EdgesFor(entry)
	res, err := NewSelect(ec.core.Types.ProcessRequest, s.Subject, s.Variants, edges).Run(ctx, ec)
	if err != nil {
		return nil, err
	}
	req, err := liftProcessRequest(res.Value())
	if err != nil {
		return nil, Throwf("Error lifting ExecuteProcess: %v", err)
	}
	procRes, err := ec.Get(ctx, &ExecuteProcess{Request: req})
	if err != nil {
		return nil, err
	}
	pr := procRes.Process()
	return ec.core.Types.ConstructProcessResult(
		pr.Stdout,
		pr.Stderr,
		int64(pr.ExitCode),
		storeDirectory(ec.core.Types, pr.OutputDirectory),
	), nil
}

// selectLiteralSingle checks one candidate value against the product and
// the required variant name.
func (s *Select) selectLiteralSingle(candidate any, variantValue *string) bool {
	if !s.product().Satisfied(candidate) {
		return false
	}
	if variantValue != nil && hostv.ProjectStr(candidate, "name") != *variantValue {
		return false
	}
	return true
}

// selectLiteral looks for is-a or has-a relationships between a value and
// the requested product. For has-a, the first matching element of the
// value's products sequence wins.
func (s *Select) selectLiteral(types *hostv.Types, candidate any, variantValue *string) (any, bool) {
	if s.selectLiteralSingle(candidate, variantValue) {
		return candidate, true
	}
	if types.HasProducts.Satisfied(candidate) {
		for _, child := range hostv.ProjectMulti(candidate, "products") {
			if s.selectLiteralSingle(child, variantValue) {
				return child, true
			}
		}
	}
	return nil, false
}

// chooseResult disambiguates the settled candidates: noops are absorbed
// (highest severity retained), throws and invalidations propagate, and
// exactly one literal-matching success must remain.
func (s *Select) chooseResult(ec *Context, settled []candidateOutcome, variantValue *string) (Result, error) {
	var matches []any
	maxNoop := NoopNoTask

	for _, outcome := range settled {
		if outcome.err != nil {
			err := asFailure(outcome.err)
			if n, ok := AsNoop(err); ok {
				if n.Reason > maxNoop {
					maxNoop = n.Reason
				}
				continue
			}
			// Throw and Invalidated dominate; no noop can outrank them.
			return Result{}, err
		}
		if v, ok := s.selectLiteral(ec.core.Types, outcome.value, variantValue); ok {
			matches = append(matches, v)
		}
	}

	if len(matches) > 1 {
		return Result{}, Throwf("Conflicting values produced for subject and type.")
	}
	if len(matches) == 1 {
		return ValueResult(matches[0]), nil
	}
	return Result{}, &Noop{Reason: maxNoop}
}
