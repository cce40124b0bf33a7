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

	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/rules"
)

func (s *EngineTestSuite) TestSingleTaskDispatch() {
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Register(hostv.TypeIDOf(""), intProduct, &rules.Task{
			Name:   "len",
			Clause: []rules.Selector{rules.Select(strProduct)},
			Func: func(_ context.Context, args ...any) (any, error) {
				return len(args[0].(string)), nil
			},
		})
	})

	out, err := env.core.Produce(s.T().Context(), intProduct, "abcd")
	s.Require().NoError(err)
	s.Equal(4, out)
}

func (s *EngineTestSuite) TestClauseNoopBecomesThrow() {
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Register(hostv.TypeIDOf(""), intProduct, &rules.Task{
			Name:   "needs-float",
			Clause: []rules.Selector{rules.Select(floatProduct)},
			Func: func(_ context.Context, args ...any) (any, error) {
				return int(args[0].(float64)), nil
			},
		})
	})

	_, err := env.core.Produce(s.T().Context(), intProduct, "x")
	s.Require().Error(err)
	s.Contains(err.Error(), "No source of required dependency")

	_, isThrow := AsThrow(err)
	s.True(isThrow)
}

func (s *EngineTestSuite) TestClauseVariantNoopBecomesThrow() {
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Register(hostv.TypeIDOf(""), intProduct, &rules.Task{
			Name:   "needs-platform",
			Clause: []rules.Selector{rules.SelectVariant(strProduct, "platform")},
			Func: func(_ context.Context, args ...any) (any, error) {
				return len(args[0].(string)), nil
			},
		})
	})

	_, err := env.core.Produce(s.T().Context(), intProduct, "x")
	s.Require().Error(err)
	s.Contains(err.Error(), "No source of required dependency: NoVariant")
}

func (s *EngineTestSuite) TestTaskPanicBecomesThrow() {
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Register(hostv.TypeIDOf(""), intProduct, &rules.Task{
			Name: "panics",
			Func: func(context.Context, ...any) (any, error) {
				panic("task exploded")
			},
		})
	})

	_, err := env.core.Produce(s.T().Context(), intProduct, "x")
	s.Require().Error(err)

	t, ok := AsThrow(err)
	s.Require().True(ok)
	s.Contains(err.Error(), "task exploded")
	s.NotEqual(nativeTraceback, t.Traceback, "panic traceback should carry the user stack")
}

func (s *EngineTestSuite) TestCycleSurfacesAsRequiredThrow() {
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Register(hostv.TypeIDOf(""), intProduct, &rules.Task{
			Name:   "selfish",
			Clause: []rules.Selector{rules.Select(intProduct)},
			Func: func(_ context.Context, args ...any) (any, error) {
				return args[0], nil
			},
		})
	})

	_, err := env.core.Produce(s.T().Context(), intProduct, "x")
	s.Require().Error(err)
	s.Contains(err.Error(), "Cycle")
}

// registerDigestRule wires a user task that turns path globs into a
// directory digest by consuming the snapshot intrinsic.
func registerDigestRule(b *rules.Builder, types *hostv.Types) {
	b.Register(hostv.TypeIDOf(hostv.PathGlobsV{}), types.DirectoryDigest, &rules.Task{
		Name:   "digest-of-globs",
		Clause: []rules.Selector{rules.Select(types.Snapshot)},
		Func: func(_ context.Context, args ...any) (any, error) {
			return args[0].(hostv.SnapshotV).DirectoryDigest, nil
		},
	})
}

func (s *EngineTestSuite) TestGeneratorDrive() {
	var firstInput any = "sentinel-not-nil"

	env := s.newEnv(map[string]string{"f": "contents"}, func(b *rules.Builder, types *hostv.Types) {
		registerDigestRule(b, types)
		b.Register(hostv.TypeIDOf(""), pairProduct, &rules.Task{
			Name: "digest-then-done",
			Func: func(context.Context, ...any) (any, error) {
				step := 0
				return hostv.GeneratorFunc(func(_ context.Context, input any) (hostv.Response, error) {
					switch step {
					case 0:
						firstInput = input
						step++
						return hostv.Get{
							Product: types.DirectoryDigest,
							Subject: hostv.PathGlobsV{
								Include:                []string{"f"},
								GlobMatchErrorBehavior: hostv.GlobMatchErrorBehavior{FailureBehavior: "error"},
							},
						}, nil
					default:
						return hostv.Break{Value: []any{input, "done"}}, nil
					}
				}), nil
			},
		})
	})

	out, err := env.core.Produce(s.T().Context(), pairProduct, "seed")
	s.Require().NoError(err)

	pair := out.([]any)
	s.Require().Len(pair, 2)
	s.Equal("done", pair[1])
	s.IsType(hostv.DirectoryDigestV{}, pair[0])
	s.Nil(firstInput, "the first send carries the empty sentinel")

	// exactly one DigestFile evaluation for the single file
	s.Equal(1, env.opens.opensOf("/f"))

	// a repeat run is fully memoized: no further leaf work
	_, err = env.core.Produce(s.T().Context(), pairProduct, "seed")
	s.Require().NoError(err)
	s.Equal(1, env.opens.opensOf("/f"))
}

func (s *EngineTestSuite) TestGeneratorGetMulti() {
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Register(hostv.TypeIDOf(""), pairProduct, &rules.Task{
			Name: "multi",
			Func: func(context.Context, ...any) (any, error) {
				step := 0
				return hostv.GeneratorFunc(func(_ context.Context, input any) (hostv.Response, error) {
					switch step {
					case 0:
						step++
						return hostv.GetMulti{Gets: []hostv.Get{
							{Product: intProduct, Subject: 7},
							{Product: strProduct, Subject: "a"},
						}}, nil
					default:
						return hostv.Break{Value: input.([]any)}, nil
					}
				}), nil
			},
		})
	})

	out, err := env.core.Produce(s.T().Context(), pairProduct, "seed")
	s.Require().NoError(err)
	s.Equal([]any{7, "a"}, out)
}

func (s *EngineTestSuite) TestGeneratorRequiredConversion() {
	env := s.newEnv(nil, func(b *rules.Builder, types *hostv.Types) {
		b.Register(hostv.TypeIDOf(""), pairProduct, &rules.Task{
			Name: "wants-the-impossible",
			Func: func(context.Context, ...any) (any, error) {
				return hostv.GeneratorFunc(func(_ context.Context, input any) (hostv.Response, error) {
					return hostv.Get{Product: intProduct, Subject: "nosource"}, nil
				}), nil
			},
		})
	})

	_, err := env.core.Produce(s.T().Context(), pairProduct, "seed")
	s.Require().Error(err)
	s.Contains(err.Error(), "No source of required dependency: NoTask")
}
