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

package vfs

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// maxLinkDepth bounds symlink chains during expansion.
const maxLinkDepth = 64

// StrictGlobMatching decides what happens when an include glob matches
// nothing.
type StrictGlobMatching int

const (
	GlobMatchIgnore StrictGlobMatching = iota
	GlobMatchWarn
	GlobMatchError
)

// StrictGlobMatchingFor parses a failure_behavior string.
func StrictGlobMatchingFor(behavior string) (StrictGlobMatching, error) {
	switch behavior {
	case "ignore":
		return GlobMatchIgnore, nil
	case "warn":
		return GlobMatchWarn, nil
	case "error":
		return GlobMatchError, nil
	default:
		return 0, errors.Errorf("unrecognized glob failure behavior %q (want ignore, warn or error)", behavior)
	}
}

// PathGlobs is a parsed path-glob spec: include and exclude patterns in
// doublestar syntax, relative to the build root.
type PathGlobs struct {
	Include []string
	Exclude []string
	Strict  StrictGlobMatching
}

// NewPathGlobs validates the patterns and builds a PathGlobs.
func NewPathGlobs(include, exclude []string, strict StrictGlobMatching) (*PathGlobs, error) {
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid glob pattern %q", p)
		}
	}
	return &PathGlobs{Include: include, Exclude: exclude, Strict: strict}, nil
}

// Expand recursively expands the globs against the filesystem, resolving
// symlinks to canonical path stats. The result is traversal-ordered
// (depth-first over name-sorted listings) and deduplicated by logical
// path, so that downstream snapshot digests are stable.
func Expand(ctx context.Context, fs FS, pg *PathGlobs) ([]PathStat, error) {
	e := &expansion{
		fs:      fs,
		globs:   pg,
		matched: make([]bool, len(pg.Include)),
		seen:    make(map[string]struct{}),
	}
	if err := e.walk(ctx, Dir{Path: ""}, ""); err != nil {
		return nil, err
	}

	for i, hit := range e.matched {
		if hit {
			continue
		}
		switch pg.Strict {
		case GlobMatchError:
			return nil, errors.Errorf("glob pattern %q did not match any paths", pg.Include[i])
		case GlobMatchWarn:
			slog.Warn("glob pattern did not match any paths", slog.String("pattern", pg.Include[i]))
		}
	}
	return e.out, nil
}

type expansion struct {
	fs      FS
	globs   *PathGlobs
	matched []bool
	seen    map[string]struct{}
	out     []PathStat
}

// walk visits one physical directory, recording entries under the logical
// prefix (which differs from the physical path below a directory symlink).
func (e *expansion) walk(ctx context.Context, phys Dir, logical string) error {
	listing, err := e.fs.Scandir(ctx, phys)
	if err != nil {
		return err
	}

	for _, entry := range listing.Entries {
		if e.fs.IsIgnored(entry) {
			continue
		}
		logicalPath := joinRel(logical, path.Base(entry.StatPath()))
		if e.excluded(logicalPath) {
			continue
		}

		stat := entry
		if link, ok := entry.(Link); ok {
			resolved, err := e.canonicalize(ctx, link, 0)
			if err != nil {
				return err
			}
			if resolved == nil {
				// broken link
				continue
			}
			stat = resolved
		}

		switch s := stat.(type) {
		case Dir:
			if e.includeMatch(logicalPath) {
				e.record(PathStat{Path: logicalPath, Stat: s})
			}
			if err := e.walk(ctx, s, logicalPath); err != nil {
				return err
			}
		case File:
			if e.includeMatch(logicalPath) {
				e.record(PathStat{Path: logicalPath, Stat: s})
			}
		}
	}
	return nil
}

// canonicalize resolves a symlink to its link-free stat, or nil when the
// chain is broken. The destination must stay inside the build root.
func (e *expansion) canonicalize(ctx context.Context, link Link, depth int) (Stat, error) {
	if depth >= maxLinkDepth {
		return nil, errors.Errorf("too many levels of symbolic links at %s", link.Path)
	}

	dest, err := e.fs.ReadLink(ctx, link)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(dest, "/") {
		return nil, errors.Errorf("absolute symlink destination %q at %s is not allowed", dest, link.Path)
	}

	destPath := path.Clean(path.Join(path.Dir(link.Path), dest))
	if destPath == "." {
		destPath = ""
	}
	if strings.HasPrefix(destPath, "..") {
		return nil, errors.Errorf("symlink destination %q at %s escapes the build root", dest, link.Path)
	}

	parent := path.Dir(destPath)
	if parent == "." {
		parent = ""
	}
	listing, err := e.fs.Scandir(ctx, Dir{Path: parent})
	if err != nil {
		// an unreadable destination directory means a broken link
		return nil, nil
	}
	for _, entry := range listing.Entries {
		if entry.StatPath() != destPath {
			continue
		}
		if next, ok := entry.(Link); ok {
			return e.canonicalize(ctx, next, depth+1)
		}
		return entry, nil
	}
	return nil, nil
}

func (e *expansion) includeMatch(p string) bool {
	hit := false
	for i, pattern := range e.globs.Include {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			e.matched[i] = true
			hit = true
		}
	}
	return hit
}

func (e *expansion) excluded(p string) bool {
	for _, pattern := range e.globs.Exclude {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
	}
	return false
}

func (e *expansion) record(ps PathStat) {
	if _, dup := e.seen[ps.Path]; dup {
		return
	}
	e.seen[ps.Path] = struct{}{}
	e.out = append(e.out, ps)
}
