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

import "strconv"

// Standard host schemas. Embedders may substitute their own value shapes
// as long as the field names line up with the projections the engine
// performs; these are the shapes the default Types registry constructs.

// GlobMatchErrorBehavior carries the strictness of glob expansion.
// FailureBehavior is one of "ignore", "warn", "error".
type GlobMatchErrorBehavior struct {
	FailureBehavior string
}

// PathGlobsV is the host shape of a path-glob spec.
type PathGlobsV struct {
	Include                []string
	Exclude                []string
	GlobMatchErrorBehavior GlobMatchErrorBehavior
}

// DirectoryDigestV references a directory tree in the content store.
// SerializedBytesLength is a stringified signed 64-bit integer.
type DirectoryDigestV struct {
	Fingerprint           string
	SerializedBytesLength string
}

// SnapshotV is a digested, canonicalized directory tree.
type SnapshotV struct {
	DirectoryDigest any
	PathStats       []any
}

// DirV and FileV are the stat halves of a PathStatV. Paths are the raw
// bytes of the OS string.
type DirV struct {
	Path []byte
}

type FileV struct {
	Path []byte
}

type PathStatV struct {
	Path []byte
	Stat any
}

// FileContentV is one materialized file of a FilesContentV.
type FileContentV struct {
	Path    []byte
	Content []byte
}

type FilesContentV struct {
	Dependencies []any
}

// ProcessRequestV is the host shape of a process-execution request. Env is
// a flat list of strings of even length; TimeoutSeconds is a float as a
// string.
type ProcessRequestV struct {
	Argv              []string
	Env               []string
	InputFiles        any
	OutputFiles       []string
	OutputDirectories []string
	TimeoutSeconds    string
	Description       string
}

// ProcessResultV is the host shape of a finished process execution.
type ProcessResultV struct {
	Stdout          []byte
	Stderr          []byte
	ExitCode        int64
	OutputDirectory any
}

// HasProductsHolder satisfies the has-a capability: a Select over a value
// of this shape may pick any element of Products that satisfies the
// requested constraint.
type HasProductsHolder struct {
	Products []any
}

// DefaultTypes builds the standard registry over the schemas above.
func DefaultTypes() *Types {
	return &Types{
		PathGlobs:       TypeOf[PathGlobsV]("PathGlobs"),
		DirectoryDigest: TypeOf[DirectoryDigestV]("DirectoryDigest"),
		ProcessRequest:  TypeOf[ProcessRequestV]("ProcessRequest"),
		Snapshot:        TypeOf[SnapshotV]("Snapshot"),
		FilesContent:    TypeOf[FilesContentV]("FilesContent"),
		ProcessResult:   TypeOf[ProcessResultV]("ProcessResult"),

		HasProducts: Capability("HasProducts", func(v any) bool {
			_, ok := v.(HasProductsHolder)
			if !ok {
				_, ok = v.(*HasProductsHolder)
			}
			return ok
		}),
		Generator: Capability("Generator", func(v any) bool {
			_, ok := v.(Generator)
			return ok
		}),

		ConstructDirectoryDigest: func(fingerprint string, sizeBytes int64) any {
			return DirectoryDigestV{
				Fingerprint:           fingerprint,
				SerializedBytesLength: formatInt(sizeBytes),
			}
		},
		ConstructSnapshot: func(directoryDigest any, pathStats []any) any {
			return SnapshotV{DirectoryDigest: directoryDigest, PathStats: pathStats}
		},
		ConstructProcessResult: func(stdout, stderr []byte, exitCode int64, outputDirectory any) any {
			return ProcessResultV{
				Stdout:          stdout,
				Stderr:          stderr,
				ExitCode:        exitCode,
				OutputDirectory: outputDirectory,
			}
		},
		ConstructFileContent: func(path, content []byte) any {
			return FileContentV{Path: path, Content: content}
		},
		ConstructFilesContent: func(dependencies []any) any {
			return FilesContentV{Dependencies: dependencies}
		},
		ConstructPathStat: func(path []byte, stat any) any {
			return PathStatV{Path: path, Stat: stat}
		},
		ConstructDir: func(path []byte) any {
			return DirV{Path: path}
		},
		ConstructFile: func(path []byte) any {
			return FileV{Path: path}
		},
	}
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
