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

	"golang.org/x/sync/errgroup"

	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/rules"
)

// Task evaluates one user-authored rule for a subject: resolve the clause
// in parallel, invoke the function, and — when the function returns a
// generator — drive the send/resume protocol until it breaks with a
// final value.
type Task struct {
	Subject  *hostv.Key
	Product  hostv.Constraint
	Variants rules.Variants
	Task     *rules.Task
	Entry    *rules.Entry
}

func (t *Task) String() string {
	return fmt.Sprintf("Task(%s, %s, %s, %s, entry#%d)",
		t.Task.Name, t.Subject, t.Product.Name(), t.Variants, t.Entry.ID())
}

func (t *Task) ProductStr() string { return t.Product.Name() }

func (t *Task) FSSubject() (string, bool) { return "", false }

func (t *Task) Run(ctx context.Context, ec *Context) (Result, error) {
	edges := ec.core.Rules.EdgesFor(t.Entry)

	// Clause fan-out: a noop here means a required dependency has no
	// source, which is fatal for the task. Any single failure fails the
	// whole clause.
	deps := make([]any, len(t.Task.Clause))
	g, gctx := errgroup.WithContext(ctx)
	for i, sel := range t.Task.Clause {
		g.Go(func() error {
			res, err := NewSelectWithSelector(sel, t.Subject, t.Variants, edges).Run(gctx, ec)
			if err != nil {
				return WasRequired(asFailure(err))
			}
			deps[i] = res.Value()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	out, err := hostv.Call(ctx, t.Task.Func, deps...)
	if err != nil {
		return Result{}, asFailure(err)
	}

	if ec.core.Types.Generator.Satisfied(out) {
		gen, ok := out.(hostv.Generator)
		if !ok {
			return Result{}, Throwf("value satisfies the generator constraint but is not drivable: %T", out)
		}
		return t.generate(ctx, ec, edges, gen)
	}
	return ValueResult(out), nil
}

// generate drives a coroutine-style task body: send the last dependency
// value in (nil first), receive Get/GetMulti/Break out, strictly one step
// at a time.
func (t *Task) generate(ctx context.Context, ec *Context, edges *rules.Edges, gen hostv.Generator) (Result, error) {
	var input any
	for {
		resp, err := hostv.Send(ctx, gen, input)
		if err != nil {
			return Result{}, asFailure(err)
		}
		switch r := resp.(type) {
		case hostv.Get:
			vals, err := t.genGet(ctx, ec, edges, []hostv.Get{r})
			if err != nil {
				return Result{}, err
			}
			input = vals[0]
		case hostv.GetMulti:
			vals, err := t.genGet(ctx, ec, edges, r.Gets)
			if err != nil {
				return Result{}, err
			}
			input = vals
		case hostv.Break:
			return ValueResult(r.Value), nil
		default:
			return Result{}, Throwf("unexpected generator response %T", resp)
		}
	}
}

// genGet resolves generator-requested (product, subject) pairs in
// parallel. The generator explicitly asked for these values, so noops are
// fatal. Variants are not inherited.
// TODO: decide whether generator-issued selects should inherit the
// calling task's variants.
func (t *Task) genGet(ctx context.Context, ec *Context, edges *rules.Edges, gets []hostv.Get) ([]any, error) {
	vals := make([]any, len(gets))
	g, gctx := errgroup.WithContext(ctx)
	for i, get := range gets {
		g.Go(func() error {
			subject, err := ec.core.Interns.KeyFor(get.Subject)
			if err != nil {
				return asFailure(err)
			}
			entries := edges.EntriesForGet(get.Product, subject.TypeID())
			res, err := NewSelectWithEntries(get.Product, subject, rules.NoVariants, entries).Run(gctx, ec)
			if err != nil {
				return WasRequired(asFailure(err))
			}
			vals[i] = res.Value()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vals, nil
}
