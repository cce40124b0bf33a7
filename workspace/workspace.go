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

package workspace

import "runtime"

// File is the parsed skein.toml workspace description.
type File struct {
	SchemaVersion string         `toml:"schema_version"`
	Name          string         `toml:"name"`
	Description   string         `toml:"description,omitempty"`
	Build         Build          `toml:"build"`
	Metadata      map[string]any `toml:"metadata,omitempty"`

	// Location is the directory the workspace file was found in.
	Location string `toml:"-"`
}

// Build configures the evaluation engine.
type Build struct {
	// Root is the build root, relative to the workspace file.
	Root string `toml:"root,omitempty"`

	// Ignore patterns are matched against root-relative paths and hide
	// entries from glob expansion. Scandir listings still include them.
	Ignore []string `toml:"ignore,omitempty"`

	// Parallelism bounds concurrent process executions; 0 means one per
	// CPU.
	Parallelism int `toml:"parallelism,omitempty"`

	// CacheMB sizes the content store's directory cache, in megabytes;
	// 0 means the store's default.
	CacheMB int `toml:"cache_mb,omitempty"`
}

// NewFile builds a workspace file with defaults for skein init.
func NewFile(name string) *File {
	return &File{
		SchemaVersion: "1",
		Name:          name,
		Build: Build{
			Root:   ".",
			Ignore: []string{".git/**"},
		},
	}
}

// EffectiveParallelism resolves the configured parallelism against the
// host.
func (f *File) EffectiveParallelism() int {
	if f.Build.Parallelism > 0 {
		return f.Build.Parallelism
	}
	return runtime.NumCPU()
}
