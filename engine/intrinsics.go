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
	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/rules"
)

// RegisterIntrinsics registers the engine-supplied rules over the default
// host schemas: snapshots from path globs, file contents from directory
// digests, process results from process requests.
func RegisterIntrinsics(b *rules.Builder, types *hostv.Types) *rules.Builder {
	b.Register(hostv.TypeIDOf(hostv.PathGlobsV{}), types.Snapshot,
		&rules.Intrinsic{Kind: rules.IntrinsicSnapshot})
	b.Register(hostv.TypeIDOf(hostv.DirectoryDigestV{}), types.FilesContent,
		&rules.Intrinsic{Kind: rules.IntrinsicFilesContent})
	b.Register(hostv.TypeIDOf(hostv.ProcessRequestV{}), types.ProcessResult,
		&rules.Intrinsic{Kind: rules.IntrinsicProcessExecution})
	return b
}
