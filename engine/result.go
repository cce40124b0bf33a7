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
	"fmt"

	"github.com/skein-build/skein/execproc"
	"github.com/skein-build/skein/store"
	"github.com/skein-build/skein/vfs"
)

// ResultKind tags the variants of the result union.
type ResultKind int

const (
	KindValue ResultKind = iota
	KindSnapshot
	KindDigest
	KindProcessResult
	KindLinkDest
	KindDirectoryListing
)

func (k ResultKind) String() string {
	switch k {
	case KindValue:
		return "Value"
	case KindSnapshot:
		return "Snapshot"
	case KindDigest:
		return "Digest"
	case KindProcessResult:
		return "ProcessResult"
	case KindLinkDest:
		return "LinkDest"
	case KindDirectoryListing:
		return "DirectoryListing"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Result is the tagged union of node outcomes. Every node kind produces
// exactly one variant; a downcast to the wrong variant is a graph-wiring
// bug, not a runtime condition, and panics.
type Result struct {
	kind ResultKind

	value    any
	snapshot *store.Snapshot
	digest   store.Digest
	process  *execproc.Result
	linkDest string
	listing  *vfs.DirectoryListing
}

func ValueResult(v any) Result              { return Result{kind: KindValue, value: v} }
func SnapshotResult(s *store.Snapshot) Result { return Result{kind: KindSnapshot, snapshot: s} }
func DigestResult(d store.Digest) Result    { return Result{kind: KindDigest, digest: d} }
func ProcessResultOf(r *execproc.Result) Result {
	return Result{kind: KindProcessResult, process: r}
}
func LinkDestResult(dest string) Result { return Result{kind: KindLinkDest, linkDest: dest} }
func ListingResult(l *vfs.DirectoryListing) Result {
	return Result{kind: KindDirectoryListing, listing: l}
}

func (r Result) Kind() ResultKind { return r.kind }

func (r Result) assertKind(want ResultKind) {
	if r.kind != want {
		panic(fmt.Sprintf("graph wiring bug: node result is %s, want %s", r.kind, want))
	}
}

func (r Result) Value() any {
	r.assertKind(KindValue)
	return r.value
}

func (r Result) Snapshot() *store.Snapshot {
	r.assertKind(KindSnapshot)
	return r.snapshot
}

func (r Result) Digest() store.Digest {
	r.assertKind(KindDigest)
	return r.digest
}

func (r Result) Process() *execproc.Result {
	r.assertKind(KindProcessResult)
	return r.process
}

func (r Result) LinkDest() string {
	r.assertKind(KindLinkDest)
	return r.linkDest
}

func (r Result) Listing() *vfs.DirectoryListing {
	r.assertKind(KindDirectoryListing)
	return r.listing
}

// ResultDigest returns the digest a result carries, if any. Only digest
// results carry one; everything else is opaque to the graph store.
func ResultDigest(r Result) (store.Digest, bool) {
	if r.kind == KindDigest {
		return r.digest, true
	}
	return store.Digest{}, false
}
