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
	"fmt"
)

// Paths are build-root-relative, slash-separated. The empty path is the
// build root itself.

// Stat is a single directory entry: a Dir, File or Link.
type Stat interface {
	StatPath() string
}

type Dir struct {
	Path string
}

func (d Dir) StatPath() string { return d.Path }
func (d Dir) String() string   { return fmt.Sprintf("Dir(%s)", d.Path) }

type File struct {
	Path         string
	IsExecutable bool
}

func (f File) StatPath() string { return f.Path }
func (f File) String() string   { return fmt.Sprintf("File(%s)", f.Path) }

type Link struct {
	Path string
}

func (l Link) StatPath() string { return l.Path }
func (l Link) String() string   { return fmt.Sprintf("Link(%s)", l.Path) }

// PathStat is a canonicalized traversal entry: the logical path at which
// an entry was encountered, plus its link-free stat. Stat is always a Dir
// or a File.
type PathStat struct {
	Path string
	Stat Stat
}

// DirectoryListing is the result of a single scandir: the entries of one
// directory, name-sorted, symlinks unexpanded. It is immutable and shared.
type DirectoryListing struct {
	Dir     Dir
	Entries []Stat
}

// FS is the filesystem surface glob expansion walks. The engine implements
// it by demanding Scandir and ReadLink nodes, so that expansion records
// dependency edges; Posix implements it with direct syscalls.
type FS interface {
	ReadLink(ctx context.Context, link Link) (string, error)
	Scandir(ctx context.Context, dir Dir) (*DirectoryListing, error)
	IsIgnored(stat Stat) bool
}
