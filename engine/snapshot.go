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

	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/store"
	"github.com/skein-build/skein/vfs"
)

// Snapshot captures a digested directory tree for a path-globs subject.
// Expansion goes through the evaluation context, so every scandir and
// readlink it performs is recorded as a dependency edge, and every file
// digest is a memoized DigestFile node.
type Snapshot struct {
	PathGlobs *hostv.Key
}

func (s *Snapshot) String() string {
	return fmt.Sprintf("Snapshot(%s)", s.PathGlobs)
}

func (s *Snapshot) ProductStr() string { return "Snapshot" }

func (s *Snapshot) FSSubject() (string, bool) { return "", false }

func (s *Snapshot) Run(ctx context.Context, ec *Context) (Result, error) {
	pg, err := liftPathGlobs(s.PathGlobs.Value())
	if err != nil {
		return Result{}, Throwf("Failed to parse PathGlobs: %v", err)
	}
	pathStats, err := vfs.Expand(ctx, ec, pg)
	if err != nil {
		return Result{}, asFailure(fmt.Errorf("PathGlobs expansion failed: %w", err))
	}
	snap, err := store.SnapshotOf(ctx, ec.core.Store, ec, pathStats)
	if err != nil {
		return Result{}, asFailure(fmt.Errorf("Snapshot failed: %w", err))
	}
	return SnapshotResult(snap), nil
}

// liftPathGlobs projects a path-globs host value into its typed form.
func liftPathGlobs(v any) (*vfs.PathGlobs, error) {
	include := hostv.ProjectMultiStrs(v, "include")
	exclude := hostv.ProjectMultiStrs(v, "exclude")
	behavior := hostv.ProjectIgnoringType(v, "glob_match_error_behavior")
	strict, err := vfs.StrictGlobMatchingFor(hostv.ProjectStr(behavior, "failure_behavior"))
	if err != nil {
		return nil, err
	}
	pg, err := vfs.NewPathGlobs(include, exclude, strict)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PathGlobs for include(%v), exclude(%v): %w", include, exclude, err)
	}
	return pg, nil
}

// The store* helpers pack engine results into host values through the
// type registry's constructors.

func storeDirectory(types *hostv.Types, d store.Digest) any {
	return types.ConstructDirectoryDigest(d.Fingerprint, d.SizeBytes)
}

func storeSnapshot(types *hostv.Types, snap *store.Snapshot) any {
	stats := make([]any, len(snap.PathStats))
	for i, ps := range snap.PathStats {
		stats[i] = storePathStat(types, ps)
	}
	return types.ConstructSnapshot(storeDirectory(types, snap.Digest), stats)
}

// storePath encodes a path as the raw bytes of its OS string, so that it
// round-trips byte-exact across the host boundary.
func storePath(p string) []byte {
	return []byte(p)
}

func storePathStat(types *hostv.Types, ps vfs.PathStat) any {
	var stat any
	switch s := ps.Stat.(type) {
	case vfs.Dir:
		stat = types.ConstructDir(storePath(s.Path))
	case vfs.File:
		stat = types.ConstructFile(storePath(s.Path))
	}
	return types.ConstructPathStat(storePath(ps.Path), stat)
}

func storeFileContent(types *hostv.Types, fc store.FileContent) any {
	return types.ConstructFileContent(storePath(fc.Path), fc.Content)
}

func storeFilesContent(types *hostv.Types, fcs []store.FileContent) any {
	entries := make([]any, len(fcs))
	for i, fc := range fcs {
		entries[i] = storeFileContent(types, fc)
	}
	return types.ConstructFilesContent(entries)
}
