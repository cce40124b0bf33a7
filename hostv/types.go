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

package hostv

// Types is the central registry of host-side constraints and constructors
// the engine refers to by name. It is read-only after construction and is
// carried down every evaluation through the engine context.
type Types struct {
	// Constraints for the engine-known products and capabilities.
	PathGlobs       Constraint
	DirectoryDigest Constraint
	ProcessRequest  Constraint
	Snapshot        Constraint
	FilesContent    Constraint
	ProcessResult   Constraint

	// HasProducts is the has-a capability: values satisfying it expose a
	// "products" sequence that a Select may pick from.
	HasProducts Constraint

	// Generator marks task return values that must be driven through the
	// send/resume protocol.
	Generator Constraint

	// Constructors for the host values the engine packs results into.
	ConstructDirectoryDigest func(fingerprint string, sizeBytes int64) any
	ConstructSnapshot        func(directoryDigest any, pathStats []any) any
	ConstructProcessResult   func(stdout, stderr []byte, exitCode int64, outputDirectory any) any
	ConstructFileContent     func(path, content []byte) any
	ConstructFilesContent    func(dependencies []any) any
	ConstructPathStat        func(path []byte, stat any) any
	ConstructDir             func(path []byte) any
	ConstructFile            func(path []byte) any
}
