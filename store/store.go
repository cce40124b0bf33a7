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

package store

import (
	"context"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/binaek/perch"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var ErrNoSuchDigest = errors.New("digest not present in store")

// decoded directory objects are small and hot; they sit in a bounded
// read-through cache in front of the blob table
const dirCacheTTL = time.Hour

// Store is the in-memory content-addressed store: file bytes and
// serialized directory trees keyed by digest. Internally synchronized.
type Store struct {
	mu    sync.RWMutex
	blobs map[Digest][]byte

	dirs *perch.Perch[*Directory]
}

type NewStoreOption func(*Store)

// The number of Megabytes to allocate for the directory cache
func WithDirCacheSize(size int) NewStoreOption {
	return func(s *Store) {
		s.dirs = perch.New[*Directory](size << 20 /* size in megabytes */)
	}
}

func New(opts ...NewStoreOption) *Store {
	s := &Store{
		blobs: make(map[Digest][]byte),
		dirs:  perch.New[*Directory](10 << 20 /* 10 MB */),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// StoreFileBytes writes file content and returns its digest.
func (s *Store) StoreFileBytes(ctx context.Context, b []byte) (Digest, error) {
	if err := ctx.Err(); err != nil {
		return Digest{}, err
	}
	d := DigestOf(b)
	s.mu.Lock()
	if _, ok := s.blobs[d]; !ok {
		s.blobs[d] = append([]byte(nil), b...)
	}
	s.mu.Unlock()
	return d, nil
}

// LoadFileBytes returns the content stored under a digest.
func (s *Store) LoadFileBytes(ctx context.Context, d Digest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	b, ok := s.blobs[d]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrNoSuchDigest, "file %s", d)
	}
	return b, nil
}

// StoreDirectory writes one level of a tree (children must already be
// stored) and returns its digest.
func (s *Store) StoreDirectory(ctx context.Context, dir *Directory) (Digest, error) {
	return s.StoreFileBytes(ctx, dir.encode())
}

// EmptyDirectoryDigest returns the digest of the empty tree.
func (s *Store) EmptyDirectoryDigest(ctx context.Context) (Digest, error) {
	return s.StoreDirectory(ctx, &Directory{})
}

// LoadDirectory decodes the directory stored under a digest, through a
// bounded read-through cache.
func (s *Store) LoadDirectory(ctx context.Context, d Digest) (*Directory, error) {
	dir, _, err := s.dirs.Get(ctx, d.String(), dirCacheTTL, func(ctx context.Context, _ string) (*Directory, error) {
		raw, err := s.LoadFileBytes(ctx, d)
		if err != nil {
			return nil, errors.Wrapf(err, "directory %s", d)
		}
		dir, err := decodeDirectory(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "directory %s", d)
		}
		return dir, nil
	})
	return dir, err
}

// FileContent is one fully materialized file of a tree.
type FileContent struct {
	Path         string
	Content      []byte
	IsExecutable bool
}

// ContentsForDirectory fully materializes every file under a directory,
// recursively, in path-sorted order.
func (s *Store) ContentsForDirectory(ctx context.Context, dir *Directory) ([]FileContent, error) {
	var out []FileContent
	var walk func(prefix string, d *Directory) error
	walk = func(prefix string, d *Directory) error {
		for _, f := range d.Files {
			b, err := s.LoadFileBytes(ctx, f.Digest)
			if err != nil {
				return errors.Wrapf(err, "contents for %s", path.Join(prefix, f.Name))
			}
			out = append(out, FileContent{
				Path:         path.Join(prefix, f.Name),
				Content:      b,
				IsExecutable: f.IsExecutable,
			})
		}
		for _, sub := range d.Dirs {
			child, err := s.LoadDirectory(ctx, sub.Digest)
			if err != nil {
				return err
			}
			if err := walk(path.Join(prefix, sub.Name), child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk("", dir); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Materialize writes the tree under a digest onto a filesystem rooted at
// root. Used to stage process-execution inputs.
func (s *Store) Materialize(ctx context.Context, d Digest, fs afero.Fs, root string) error {
	dir, err := s.LoadDirectory(ctx, d)
	if err != nil {
		return err
	}
	contents, err := s.ContentsForDirectory(ctx, dir)
	if err != nil {
		return err
	}
	for _, fc := range contents {
		dest := path.Join(root, fc.Path)
		if err := fs.MkdirAll(path.Dir(dest), 0o755); err != nil {
			return errors.Wrapf(err, "materialize %s", fc.Path)
		}
		mode := os.FileMode(0o644)
		if fc.IsExecutable {
			mode = 0o755
		}
		if err := afero.WriteFile(fs, dest, fc.Content, mode); err != nil {
			return errors.Wrapf(err, "materialize %s", fc.Path)
		}
	}
	// empty directories are part of the tree too
	var mkdirs func(prefix string, d *Directory) error
	mkdirs = func(prefix string, d *Directory) error {
		for _, sub := range d.Dirs {
			dest := path.Join(root, prefix, sub.Name)
			if err := fs.MkdirAll(dest, 0o755); err != nil {
				return errors.Wrapf(err, "materialize %s", dest)
			}
			child, err := s.LoadDirectory(ctx, sub.Digest)
			if err != nil {
				return err
			}
			if err := mkdirs(path.Join(prefix, sub.Name), child); err != nil {
				return err
			}
		}
		return nil
	}
	return mkdirs("", dir)
}
