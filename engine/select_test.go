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
	"sync/atomic"

	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/rules"
)

type namedValue struct {
	Name string
}

var namedProduct = hostv.TypeOf[namedValue]("Named")

func (s *EngineTestSuite) TestLiteralIsA() {
	env := s.newEnv(nil, nil)

	out, err := env.core.Produce(s.T().Context(), intProduct, 7)
	s.Require().NoError(err)
	s.Equal(7, out)
}

func (s *EngineTestSuite) TestLiteralShortCircuitsRules() {
	var invoked atomic.Bool
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Register(hostv.TypeIDOf(0), intProduct, &rules.Task{
			Name: "shadowed",
			Func: func(context.Context, ...any) (any, error) {
				invoked.Store(true)
				return 99, nil
			},
		})
	})

	out, err := env.core.Produce(s.T().Context(), intProduct, 7)
	s.Require().NoError(err)
	s.Equal(7, out)
	s.False(invoked.Load(), "literal match must not consult rules")
}

func (s *EngineTestSuite) TestHasASelection() {
	env := s.newEnv(nil, nil)
	subject := hostv.HasProductsHolder{Products: []any{"a", 3}}

	out, err := env.core.Produce(s.T().Context(), intProduct, subject)
	s.Require().NoError(err)
	s.Equal(3, out)

	out, err = env.core.Produce(s.T().Context(), strProduct, subject)
	s.Require().NoError(err)
	s.Equal("a", out)
}

func (s *EngineTestSuite) TestSingletonShadowsEntries() {
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Singleton(intProduct, 42)
		b.Register(hostv.TypeIDOf(""), intProduct, &rules.Task{
			Name: "ignored",
			Func: func(context.Context, ...any) (any, error) { return 7, nil },
		})
	})

	out, err := env.core.Produce(s.T().Context(), intProduct, "anything")
	s.Require().NoError(err)
	s.Equal(42, out)
}

func (s *EngineTestSuite) TestConflictingValues() {
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Register(hostv.TypeIDOf(""), intProduct, &rules.Task{
			Name: "one",
			Func: func(context.Context, ...any) (any, error) { return 1, nil },
		})
		b.Register(hostv.TypeIDOf(""), intProduct, &rules.Task{
			Name: "two",
			Func: func(context.Context, ...any) (any, error) { return 2, nil },
		})
	})

	_, err := env.core.Produce(s.T().Context(), intProduct, "x")
	s.Require().Error(err)
	s.Contains(err.Error(), "Conflicting values produced")

	_, isThrow := AsThrow(err)
	s.True(isThrow)
}

func (s *EngineTestSuite) TestNoSourceIsThrowAtRoot() {
	env := s.newEnv(nil, nil)

	_, err := env.core.Produce(s.T().Context(), intProduct, "abc")
	s.Require().Error(err)
	s.Contains(err.Error(), "No source of required dependency: NoTask")
}

func (s *EngineTestSuite) TestNonMatchingCandidateIsFiltered() {
	// candidate values that do not satisfy the product are dropped, so a
	// single matching sibling wins regardless of registration order
	mk := func(order []int) func(b *rules.Builder, types *hostv.Types) {
		return func(b *rules.Builder, types *hostv.Types) {
			tasks := map[int]*rules.Task{
				0: {Name: "wrong-type", Func: func(context.Context, ...any) (any, error) { return "not an int", nil }},
				1: {Name: "right-type", Func: func(context.Context, ...any) (any, error) { return 5, nil }},
			}
			for _, i := range order {
				b.Register(hostv.TypeIDOf(""), intProduct, tasks[i])
			}
		}
	}

	for _, order := range [][]int{{0, 1}, {1, 0}} {
		env := s.newEnv(nil, mk(order))
		out, err := env.core.Produce(s.T().Context(), intProduct, "x")
		s.Require().NoError(err)
		s.Equal(5, out)
	}
}

func (s *EngineTestSuite) TestMissingVariantNoops() {
	env := s.newEnv(nil, nil)
	key := s.keyFor(env, namedValue{Name: "alpha"})

	sel := &Select{
		Subject:  key,
		Variants: rules.NoVariants,
		Selector: rules.SelectVariant(namedProduct, "platform"),
	}
	_, err := sel.Run(s.T().Context(), &Context{core: env.core})
	s.Require().Error(err)

	noop, ok := AsNoop(err)
	s.Require().True(ok)
	s.Equal(NoopNoVariant, noop.Reason)
}

func (s *EngineTestSuite) TestVariantRestrictsLiteralMatch() {
	env := s.newEnv(nil, nil)

	tests := []struct {
		name     string
		subject  any
		variants rules.Variants
		want     any
		wantNoop bool
	}{
		{
			name:     "matching name",
			subject:  namedValue{Name: "alpha"},
			variants: rules.NewVariants(map[string]string{"platform": "alpha"}),
			want:     namedValue{Name: "alpha"},
		},
		{
			name:     "mismatching name noops",
			subject:  namedValue{Name: "beta"},
			variants: rules.NewVariants(map[string]string{"platform": "alpha"}),
			wantNoop: true,
		},
		{
			name: "has-a picks the matching element",
			subject: hostv.HasProductsHolder{Products: []any{
				namedValue{Name: "alpha"},
				namedValue{Name: "beta"},
			}},
			variants: rules.NewVariants(map[string]string{"platform": "beta"}),
			want:     namedValue{Name: "beta"},
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			key := s.keyFor(env, tt.subject)
			sel := &Select{
				Subject:  key,
				Variants: tt.variants,
				Selector: rules.SelectVariant(namedProduct, "platform"),
			}
			res, err := sel.Run(s.T().Context(), &Context{core: env.core})
			if tt.wantNoop {
				noop, ok := AsNoop(err)
				s.Require().True(ok)
				s.Equal(NoopNoTask, noop.Reason)
				return
			}
			s.Require().NoError(err)
			s.Equal(tt.want, res.Value())
		})
	}
}

func (s *EngineTestSuite) TestChooseResultSeverityAndOrder() {
	env := s.newEnv(nil, nil)
	ec := &Context{core: env.core}
	sel := &Select{
		Subject:  s.keyFor(env, "x"),
		Selector: rules.Select(intProduct),
	}

	noops := []candidateOutcome{
		{err: &Noop{Reason: NoopNoTask}},
		{err: &Noop{Reason: NoopCycle}},
		{err: &Noop{Reason: NoopNoVariant}},
	}

	// every permutation of failing candidates reports the maximum reason
	perms := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, p := range perms {
		settled := []candidateOutcome{noops[p[0]], noops[p[1]], noops[p[2]]}
		_, err := sel.chooseResult(ec, settled, nil)
		noop, ok := AsNoop(err)
		s.Require().True(ok)
		s.Equal(NoopCycle, noop.Reason)
	}

	// a success absorbs noops regardless of position
	for _, settled := range [][]candidateOutcome{
		{{value: 3}, {err: &Noop{Reason: NoopCycle}}},
		{{err: &Noop{Reason: NoopCycle}}, {value: 3}},
	} {
		res, err := sel.chooseResult(ec, settled, nil)
		s.Require().NoError(err)
		s.Equal(3, res.Value())
	}

	// a throw dominates noops and successes alike
	boom := Throwf("boom")
	_, err := sel.chooseResult(ec, []candidateOutcome{
		{value: 3},
		{err: boom},
		{err: &Noop{Reason: NoopCycle}},
	}, nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "boom")

	// an invalidation dominates too
	_, err = sel.chooseResult(ec, []candidateOutcome{
		{value: 3},
		{err: &Invalidated{}},
	}, nil)
	s.True(IsInvalidated(err))
}
