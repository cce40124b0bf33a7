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

	"github.com/skein-build/skein/vfs"
)

// The filesystem leaf nodes are thin caching wrappers over the VFS and
// the content store: memoized by path, invalidated when the surrounding
// system notices the underlying entry changed. All failures are throws.

// ReadLink reads the destination of a symlink, non-recursively.
type ReadLink struct {
	Link vfs.Link
}

func (r *ReadLink) String() string            { return fmt.Sprintf("ReadLink(%s)", r.Link.Path) }
func (r *ReadLink) ProductStr() string        { return "LinkDest" }
func (r *ReadLink) FSSubject() (string, bool) { return r.Link.Path, true }

func (r *ReadLink) Run(ctx context.Context, ec *Context) (Result, error) {
	dest, err := ec.core.VFS.ReadLink(ctx, r.Link)
	if err != nil {
		return Result{}, Throwf("Failed to read_link for %s: %v", r.Link.Path, err)
	}
	return LinkDestResult(dest), nil
}

// Scandir lists a directory in one pass, a Stat per entry, symlinks
// unexpanded. The listing is immutable and shared between consumers.
type Scandir struct {
	Dir vfs.Dir
}

func (s *Scandir) String() string            { return fmt.Sprintf("Scandir(%s)", s.Dir.Path) }
func (s *Scandir) ProductStr() string        { return "DirectoryListing" }
func (s *Scandir) FSSubject() (string, bool) { return s.Dir.Path, true }

func (s *Scandir) Run(ctx context.Context, ec *Context) (Result, error) {
	listing, err := ec.core.VFS.Scandir(ctx, s.Dir)
	if err != nil {
		return Result{}, Throwf("Failed to scandir for %s: %v", s.Dir.Path, err)
	}
	return ListingResult(listing), nil
}

// DigestFile reads a file and fingerprints its contents through the
// content store.
type DigestFile struct {
	File vfs.File
}

func (d *DigestFile) String() string            { return fmt.Sprintf("DigestFile(%s)", d.File.Path) }
func (d *DigestFile) ProductStr() string        { return "DigestFile" }
func (d *DigestFile) FSSubject() (string, bool) { return d.File.Path, true }

func (d *DigestFile) Run(ctx context.Context, ec *Context) (Result, error) {
	content, err := ec.core.VFS.ReadFile(ctx, d.File)
	if err != nil {
		return Result{}, Throwf("Error reading file %s: %v", d.File.Path, err)
	}
	digest, err := ec.core.Store.StoreFileBytes(ctx, content)
	if err != nil {
		return Result{}, Throwf("%v", err)
	}
	return DigestResult(digest), nil
}
