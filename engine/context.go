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

	"github.com/skein-build/skein/execproc"
	"github.com/skein-build/skein/graph"
	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/rules"
	"github.com/skein-build/skein/store"
	"github.com/skein-build/skein/vfs"
)

// maxInvalidatedRetries bounds how often Produce retries a root request
// whose inputs keep changing under it.
const maxInvalidatedRetries = 8

// Core holds the shared collaborators of an engine instance. There is no
// global state: everything an evaluation needs arrives through here.
type Core struct {
	Rules   *rules.Graph
	Store   *store.Store
	VFS     *vfs.Posix
	Runner  execproc.Runner
	Types   *hostv.Types
	Interns *hostv.Interns

	nodes *graph.Store[Node, Result]
}

// NewCore wires a Core and its graph store together.
func NewCore(rg *rules.Graph, st *store.Store, fs *vfs.Posix, runner execproc.Runner, types *hostv.Types, interns *hostv.Interns) *Core {
	c := &Core{
		Rules:   rg,
		Store:   st,
		VFS:     fs,
		Runner:  runner,
		Types:   types,
		Interns: interns,
	}
	c.nodes = graph.New(
		func(ctx context.Context, path []string, n Node) (Result, error) {
			return n.Run(ctx, &Context{core: c, path: path})
		},
		func(path []string) error {
			return &Noop{Reason: NoopCycle, Path: path}
		},
		func() error {
			return &Invalidated{}
		},
	)
	return c
}

// Nodes exposes the graph store for debug walks (visualization, tracing)
// and for tests.
func (c *Core) Nodes() *graph.Store[Node, Result] { return c.nodes }

// InvalidateFS drops every memoized node whose result depends on one of
// the given root-relative paths. Returns the number of nodes dropped.
func (c *Core) InvalidateFS(paths ...string) int {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return c.nodes.Invalidate(func(n Node) bool {
		p, ok := n.FSSubject()
		if !ok {
			return false
		}
		_, hit := set[p]
		return hit
	})
}

// Produce is the public root operation: compute one value satisfying the
// product for the subject. The caller sees either a typed value or a
// Throw — never a Noop (converted, the dependency was required) and never
// an Invalidated (retried here).
func (c *Core) Produce(ctx context.Context, product hostv.Constraint, subject any) (any, error) {
	key, err := c.Interns.KeyFor(subject)
	if err != nil {
		return nil, asFailure(err)
	}

	for range maxInvalidatedRetries {
		entries := c.Rules.EntriesFor(key.TypeID(), product)
		sel := NewSelectWithEntries(product, key, rules.NoVariants, entries)

		res, err := sel.Run(ctx, &Context{core: c})
		if IsInvalidated(err) {
			continue
		}
		if err != nil {
			return nil, WasRequired(asFailure(err))
		}
		return res.Value(), nil
	}
	return nil, Throwf("Request was invalidated %d times in a row; giving up.", maxInvalidatedRetries)
}

// Context carries one evaluation's view of the Core plus its demand path,
// which the graph store uses for cycle detection.
type Context struct {
	core *Core
	path []string
}

func (ec *Context) Core() *Core { return ec.core }

// Get demands a dependency node through the graph store.
func (ec *Context) Get(ctx context.Context, n Node) (Result, error) {
	return ec.core.nodes.Get(ctx, ec.path, n)
}

// Context implements vfs.FS by demanding filesystem nodes, so that glob
// expansion records a dependency edge for every scandir and readlink it
// performs.

func (ec *Context) ReadLink(ctx context.Context, link vfs.Link) (string, error) {
	res, err := ec.Get(ctx, &ReadLink{Link: link})
	if err != nil {
		return "", err
	}
	return res.LinkDest(), nil
}

func (ec *Context) Scandir(ctx context.Context, dir vfs.Dir) (*vfs.DirectoryListing, error) {
	res, err := ec.Get(ctx, &Scandir{Dir: dir})
	if err != nil {
		return nil, err
	}
	return res.Listing(), nil
}

func (ec *Context) IsIgnored(stat vfs.Stat) bool {
	return ec.core.VFS.IsIgnored(stat)
}

// Context implements store.FileDigester by demanding DigestFile nodes, so
// per-file digesting is memoized alongside everything else.

func (ec *Context) DigestFile(ctx context.Context, f vfs.File) (store.Digest, error) {
	res, err := ec.Get(ctx, &DigestFile{File: f})
	if err != nil {
		return store.Digest{}, err
	}
	return res.Digest(), nil
}
