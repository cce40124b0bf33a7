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
	"github.com/skein-build/skein/store"
)

func pathGlobsSubject(behavior string, include ...string) hostv.PathGlobsV {
	return hostv.PathGlobsV{
		Include:                include,
		GlobMatchErrorBehavior: hostv.GlobMatchErrorBehavior{FailureBehavior: behavior},
	}
}

func (s *EngineTestSuite) TestSnapshotIntrinsic() {
	env := s.newEnv(map[string]string{
		"src/a.go": "package a",
		"src/b.go": "package b",
	}, nil)

	out, err := env.core.Produce(s.T().Context(), env.types.Snapshot, pathGlobsSubject("error", "src/*.go"))
	s.Require().NoError(err)

	snap := out.(hostv.SnapshotV)
	s.Require().Len(snap.PathStats, 2)
	s.Equal("src/a.go", hostv.ProjectStr(snap.PathStats[0], "path"))
	s.Equal("src/b.go", hostv.ProjectStr(snap.PathStats[1], "path"))
	s.NotEmpty(hostv.ProjectStr(snap.DirectoryDigest, "fingerprint"))
}

func (s *EngineTestSuite) TestSnapshotDeterministicAndMemoized() {
	env := s.newEnv(map[string]string{
		"src/a.go": "package a",
		"src/b.go": "package b",
	}, nil)

	subject := pathGlobsSubject("error", "src/**")

	out1, err := env.core.Produce(s.T().Context(), env.types.Snapshot, subject)
	s.Require().NoError(err)
	out2, err := env.core.Produce(s.T().Context(), env.types.Snapshot, subject)
	s.Require().NoError(err)

	s.Equal(out1, out2)

	// each file was digested exactly once across both runs
	s.Equal(1, env.opens.opensOf("/src/a.go"))
	s.Equal(1, env.opens.opensOf("/src/b.go"))
}

func (s *EngineTestSuite) TestSnapshotStrictBehaviors() {
	env := s.newEnv(map[string]string{"a.txt": "a"}, nil)

	_, err := env.core.Produce(s.T().Context(), env.types.Snapshot, pathGlobsSubject("error", "*.nope"))
	s.Require().Error(err)
	s.Contains(err.Error(), "did not match")

	out, err := env.core.Produce(s.T().Context(), env.types.Snapshot, pathGlobsSubject("ignore", "*.nope"))
	s.Require().NoError(err)
	snap := out.(hostv.SnapshotV)
	s.Empty(snap.PathStats)
	s.NotEmpty(hostv.ProjectStr(snap.DirectoryDigest, "fingerprint"), "the empty tree still has a digest")
}

func (s *EngineTestSuite) TestSnapshotRejectsUnknownBehavior() {
	env := s.newEnv(nil, nil)

	_, err := env.core.Produce(s.T().Context(), env.types.Snapshot, pathGlobsSubject("explode", "*"))
	s.Require().Error(err)
	s.Contains(err.Error(), "Failed to parse PathGlobs")
}

func (s *EngineTestSuite) TestFilesContentIntrinsic() {
	env := s.newEnv(nil, nil)
	ctx := s.T().Context()

	fa, err := env.core.Store.StoreFileBytes(ctx, []byte("alpha"))
	s.Require().NoError(err)
	fb, err := env.core.Store.StoreFileBytes(ctx, []byte("beta"))
	s.Require().NoError(err)
	inner, err := env.core.Store.StoreDirectory(ctx, &store.Directory{
		Files: []store.FileEntry{{Name: "b.txt", Digest: fb}},
	})
	s.Require().NoError(err)
	root, err := env.core.Store.StoreDirectory(ctx, &store.Directory{
		Files: []store.FileEntry{{Name: "a.txt", Digest: fa}},
		Dirs:  []store.DirEntry{{Name: "sub", Digest: inner}},
	})
	s.Require().NoError(err)

	subject := env.types.ConstructDirectoryDigest(root.Fingerprint, root.SizeBytes)
	out, err := env.core.Produce(ctx, env.types.FilesContent, subject)
	s.Require().NoError(err)

	fc := out.(hostv.FilesContentV)
	s.Require().Len(fc.Dependencies, 2)
	s.Equal("a.txt", hostv.ProjectStr(fc.Dependencies[0], "path"))
	s.Equal([]byte("alpha"), fc.Dependencies[0].(hostv.FileContentV).Content)
	s.Equal("sub/b.txt", hostv.ProjectStr(fc.Dependencies[1], "path"))
}

func (s *EngineTestSuite) TestFilesContentMissingDigestIsThrow() {
	env := s.newEnv(nil, nil)

	subject := env.types.ConstructDirectoryDigest("deadbeef", 12)
	_, err := env.core.Produce(s.T().Context(), env.types.FilesContent, subject)
	s.Require().Error(err)
	s.Contains(err.Error(), "Could not find directory with digest")
}

func (s *EngineTestSuite) TestLiftPathGlobs() {
	pg, err := liftPathGlobs(hostv.PathGlobsV{
		Include:                []string{"a/**"},
		Exclude:                []string{"a/skip/**"},
		GlobMatchErrorBehavior: hostv.GlobMatchErrorBehavior{FailureBehavior: "warn"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"a/**"}, pg.Include)
	s.Equal([]string{"a/skip/**"}, pg.Exclude)

	_, err = liftPathGlobs(hostv.PathGlobsV{
		GlobMatchErrorBehavior: hostv.GlobMatchErrorBehavior{FailureBehavior: "nah"},
	})
	s.Error(err)
}
