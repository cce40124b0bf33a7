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
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/skein-build/skein/execproc"
	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/rules"
	"github.com/skein-build/skein/store"
	"github.com/skein-build/skein/vfs"
)

func (s *EngineTestSuite) TestDigestFileMemoizedAndInvalidated() {
	env := s.newEnv(map[string]string{"f.txt": "hello"}, nil)
	ec := &Context{core: env.core}
	ctx := s.T().Context()

	d1, err := ec.DigestFile(ctx, vfs.File{Path: "f.txt"})
	s.Require().NoError(err)
	d2, err := ec.DigestFile(ctx, vfs.File{Path: "f.txt"})
	s.Require().NoError(err)

	s.Equal(d1, d2)
	s.Equal(1, env.opens.opensOf("/f.txt"))

	// external change: rewrite and invalidate
	s.Require().NoError(afero.WriteFile(env.fs, "/f.txt", []byte("changed"), 0o644))
	s.Equal(1, env.core.InvalidateFS("f.txt"))

	d3, err := ec.DigestFile(ctx, vfs.File{Path: "f.txt"})
	s.Require().NoError(err)
	s.NotEqual(d1, d3)
	s.Equal(2, env.opens.opensOf("/f.txt"))
}

func (s *EngineTestSuite) TestDigestFileMissingIsThrow() {
	env := s.newEnv(nil, nil)
	ec := &Context{core: env.core}

	_, err := ec.DigestFile(s.T().Context(), vfs.File{Path: "nope.txt"})
	s.Require().Error(err)

	t, ok := AsThrow(err)
	s.Require().True(ok)
	s.Contains(t.Error(), "Error reading file")
}

func (s *EngineTestSuite) TestScandirListingIsShared() {
	env := s.newEnv(map[string]string{"dir/a.txt": "a", "dir/b.txt": "b"}, nil)
	ec := &Context{core: env.core}
	ctx := s.T().Context()

	l1, err := ec.Scandir(ctx, vfs.Dir{Path: "dir"})
	s.Require().NoError(err)
	l2, err := ec.Scandir(ctx, vfs.Dir{Path: "dir"})
	s.Require().NoError(err)

	s.Same(l1, l2)
	s.Len(l1.Entries, 2)
}

func (s *EngineTestSuite) TestScandirMissingIsThrow() {
	env := s.newEnv(nil, nil)
	ec := &Context{core: env.core}

	_, err := ec.Scandir(s.T().Context(), vfs.Dir{Path: "nope"})
	s.Require().Error(err)
	s.Contains(err.Error(), "Failed to scandir")
}

// osEnv builds a core over a real filesystem rooted in a temp dir, for
// symlink coverage that the in-memory filesystem cannot provide.
func (s *EngineTestSuite) osEnv() (*Core, string) {
	root := s.T().TempDir()

	types := hostv.DefaultTypes()
	rg, err := RegisterIntrinsics(rules.NewBuilder(), types).Build()
	s.Require().NoError(err)

	st := store.New()
	runner, err := execproc.NewLocal(st, 2)
	s.Require().NoError(err)

	core := NewCore(rg, st, vfs.NewPosix(afero.NewOsFs(), root, nil), runner, types, hostv.NewInterns())
	return core, root
}

func (s *EngineTestSuite) TestReadLink() {
	core, root := s.osEnv()
	ec := &Context{core: core}

	s.Require().NoError(os.WriteFile(filepath.Join(root, "target.txt"), []byte("x"), 0o644))
	s.Require().NoError(os.Symlink("target.txt", filepath.Join(root, "link.txt")))

	dest, err := ec.ReadLink(s.T().Context(), vfs.Link{Path: "link.txt"})
	s.Require().NoError(err)
	s.Equal("target.txt", dest)
}

func (s *EngineTestSuite) TestReadLinkMissingIsThrow() {
	core, _ := s.osEnv()
	ec := &Context{core: core}

	_, err := ec.ReadLink(s.T().Context(), vfs.Link{Path: "absent"})
	s.Require().Error(err)
	s.Contains(err.Error(), "Failed to read_link")
}
