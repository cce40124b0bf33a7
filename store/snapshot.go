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
	"strings"

	"github.com/pkg/errors"
	"github.com/skein-build/skein/vfs"
)

// Snapshot is a digested, canonicalized directory tree together with the
// path stats it was built from.
type Snapshot struct {
	Digest    Digest
	PathStats []vfs.PathStat
}

// FileDigester digests one file's content. The engine implements it by
// demanding DigestFile nodes so that per-file work is memoized and
// tracked.
type FileDigester interface {
	DigestFile(ctx context.Context, f vfs.File) (Digest, error)
}

type treeNode struct {
	dirs  map[string]*treeNode
	files map[string]FileEntry
}

func newTreeNode() *treeNode {
	return &treeNode{
		dirs:  make(map[string]*treeNode),
		files: make(map[string]FileEntry),
	}
}

func (n *treeNode) childDir(name string) *treeNode {
	child, ok := n.dirs[name]
	if !ok {
		child = newTreeNode()
		n.dirs[name] = child
	}
	return child
}

// SnapshotOf builds and stores the canonical tree for a set of expanded
// path stats, digesting file content through the given digester.
// Intermediate directories are implied by their children.
func SnapshotOf(ctx context.Context, s *Store, digester FileDigester, pathStats []vfs.PathStat) (*Snapshot, error) {
	root := newTreeNode()

	for _, ps := range pathStats {
		segments := strings.Split(ps.Path, "/")
		node := root
		for _, seg := range segments[:len(segments)-1] {
			node = node.childDir(seg)
		}
		leaf := segments[len(segments)-1]

		switch stat := ps.Stat.(type) {
		case vfs.Dir:
			node.childDir(leaf)
		case vfs.File:
			d, err := digester.DigestFile(ctx, stat)
			if err != nil {
				return nil, errors.Wrapf(err, "snapshot of %s", ps.Path)
			}
			node.files[leaf] = FileEntry{Name: leaf, Digest: d, IsExecutable: stat.IsExecutable}
		default:
			return nil, errors.Errorf("snapshot of %s: unexpected stat %T", ps.Path, ps.Stat)
		}
	}

	digest, err := storeTree(ctx, s, root)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Digest: digest, PathStats: pathStats}, nil
}

func storeTree(ctx context.Context, s *Store, node *treeNode) (Digest, error) {
	dir := &Directory{}
	for name, child := range node.dirs {
		d, err := storeTree(ctx, s, child)
		if err != nil {
			return Digest{}, err
		}
		dir.Dirs = append(dir.Dirs, DirEntry{Name: name, Digest: d})
	}
	for _, f := range node.files {
		dir.Files = append(dir.Files, f)
	}
	return s.StoreDirectory(ctx, dir)
}
