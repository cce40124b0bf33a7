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

import "context"

// Node is the discriminated set of node kinds: Select, Task, Snapshot,
// ExecuteProcess, ReadLink, Scandir and DigestFile. A node is a pure
// function of its key: String() is the structural identity the graph
// store memoizes by, and Run computes the node's single result variant.
type Node interface {
	// String is the node's structural identity (graph.Node).
	String() string

	// ProductStr names the product this node computes, for debug views.
	ProductStr() string

	// FSSubject returns the filesystem path this node's result depends
	// on, if it is a filesystem operation. Nodes backed by the VFS must
	// report their path here so external change detection can invalidate
	// them.
	FSSubject() (string, bool)

	Run(ctx context.Context, ec *Context) (Result, error)
}
