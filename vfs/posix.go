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
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Posix is the concrete filesystem layer: a build root on an afero
// filesystem plus ignore patterns. All paths it accepts and returns are
// root-relative.
type Posix struct {
	fs      afero.Fs
	root    string
	ignores []string
}

// NewPosix builds a Posix over the given filesystem and build root.
// Ignore patterns use doublestar syntax and are matched against
// root-relative paths.
func NewPosix(fs afero.Fs, root string, ignores []string) *Posix {
	return &Posix{fs: fs, root: root, ignores: ignores}
}

func (p *Posix) abs(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

// ReadLink reads the destination of a symlink, non-recursively. The
// destination is returned as written (possibly relative to the link's
// directory).
func (p *Posix) ReadLink(ctx context.Context, link Link) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	lr, ok := p.fs.(afero.LinkReader)
	if !ok {
		return "", errors.Errorf("filesystem %T does not support symlinks", p.fs)
	}
	dest, err := lr.ReadlinkIfPossible(p.abs(link.Path))
	if err != nil {
		return "", errors.Wrapf(err, "read link %s", link.Path)
	}
	return dest, nil
}

// Scandir lists one directory in a single pass. Entries are name-sorted
// and symlinks are not expanded.
func (p *Posix) Scandir(ctx context.Context, dir Dir) (*DirectoryListing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(p.fs, p.abs(dir.Path))
	if err != nil {
		return nil, errors.Wrapf(err, "scandir %s", dir.Path)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	entries := make([]Stat, 0, len(infos))
	for _, info := range infos {
		child := joinRel(dir.Path, info.Name())
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			entries = append(entries, Link{Path: child})
		case info.IsDir():
			entries = append(entries, Dir{Path: child})
		default:
			entries = append(entries, File{
				Path:         child,
				IsExecutable: info.Mode()&0o111 != 0,
			})
		}
	}
	return &DirectoryListing{Dir: dir, Entries: entries}, nil
}

// ReadFile returns the full contents of a file.
func (p *Posix) ReadFile(ctx context.Context, f File) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := afero.ReadFile(p.fs, p.abs(f.Path))
	if err != nil {
		return nil, errors.Wrapf(err, "read file %s", f.Path)
	}
	return b, nil
}

// IsIgnored reports whether a stat matches any of the configured ignore
// patterns.
func (p *Posix) IsIgnored(stat Stat) bool {
	for _, pattern := range p.ignores {
		if ok, err := doublestar.Match(pattern, stat.StatPath()); err == nil && ok {
			return true
		}
	}
	return false
}

func joinRel(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
