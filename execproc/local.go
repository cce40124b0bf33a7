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

package execproc

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jackc/puddle/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/skein-build/skein/store"
	"github.com/skein-build/skein/vfs"
)

type execSlot struct{}

// Local runs processes on the host, bounded by a pool of execution slots.
type Local struct {
	store *store.Store
	slots *puddle.Pool[*execSlot]
}

// NewLocal builds a Local runner with at most parallelism concurrent
// executions.
func NewLocal(st *store.Store, parallelism int) (*Local, error) {
	if parallelism <= 0 {
		parallelism = 1
	}
	slots, err := puddle.NewPool(&puddle.Config[*execSlot]{
		Constructor: func(ctx context.Context) (*execSlot, error) {
			return &execSlot{}, nil
		},
		Destructor: func(*execSlot) {},
		MaxSize:    int32(parallelism),
	})
	if err != nil {
		return nil, err
	}
	return &Local{store: st, slots: slots}, nil
}

func (l *Local) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Argv) == 0 {
		return nil, errors.New("process request has an empty argv")
	}

	slot, err := l.slots.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "acquire execution slot")
	}
	defer slot.Release()

	workdir, err := os.MkdirTemp("", "skein-exec-")
	if err != nil {
		return nil, errors.Wrap(err, "create scratch dir")
	}
	defer os.RemoveAll(workdir)

	osfs := afero.NewOsFs()
	if !req.InputFiles.IsZero() {
		if err := l.store.Materialize(ctx, req.InputFiles, osfs, workdir); err != nil {
			return nil, errors.Wrapf(err, "materialize inputs for %q", req.Description)
		}
	}

	runCtx := ctx
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, req.Argv[0], req.Argv[1:]...)
	cmd.Dir = workdir
	cmd.Env = envList(req.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, errors.Errorf("process %q timed out after %s", req.Description, req.Timeout)
	}
	exitCode := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return nil, errors.Wrapf(runErr, "spawn process %q", req.Description)
		}
		exitCode = exitErr.ExitCode()
	}

	outputDigest, err := l.captureOutputs(ctx, workdir, req)
	if err != nil {
		return nil, errors.Wrapf(err, "capture outputs for %q", req.Description)
	}

	return &Result{
		Stdout:          stdout.Bytes(),
		Stderr:          stderr.Bytes(),
		ExitCode:        exitCode,
		OutputDirectory: outputDigest,
	}, nil
}

// captureOutputs snapshots the declared output paths from the scratch dir
// into the store. Declared outputs that the process did not create are
// simply absent from the snapshot.
func (l *Local) captureOutputs(ctx context.Context, workdir string, req Request) (store.Digest, error) {
	osfs := afero.NewOsFs()
	var pathStats []vfs.PathStat

	for _, rel := range req.OutputFiles {
		info, err := os.Stat(filepath.Join(workdir, filepath.FromSlash(rel)))
		if err != nil || info.IsDir() {
			continue
		}
		pathStats = append(pathStats, vfs.PathStat{
			Path: rel,
			Stat: vfs.File{Path: rel, IsExecutable: info.Mode()&0o111 != 0},
		})
	}

	for _, rel := range req.OutputDirectories {
		base := filepath.Join(workdir, filepath.FromSlash(rel))
		err := afero.Walk(osfs, base, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return nil
			}
			relPath, rerr := filepath.Rel(workdir, p)
			if rerr != nil {
				return rerr
			}
			relPath = filepath.ToSlash(relPath)
			if info.IsDir() {
				pathStats = append(pathStats, vfs.PathStat{Path: relPath, Stat: vfs.Dir{Path: relPath}})
				return nil
			}
			pathStats = append(pathStats, vfs.PathStat{
				Path: relPath,
				Stat: vfs.File{Path: relPath, IsExecutable: info.Mode()&0o111 != 0},
			})
			return nil
		})
		if err != nil {
			return store.Digest{}, err
		}
	}

	digester := &scratchDigester{store: l.store, posix: vfs.NewPosix(osfs, workdir, nil)}
	snap, err := store.SnapshotOf(ctx, l.store, digester, pathStats)
	if err != nil {
		return store.Digest{}, err
	}
	return snap.Digest, nil
}

// scratchDigester digests scratch-dir files straight into the store,
// without going through engine nodes: scratch dirs are ephemeral and never
// invalidated.
type scratchDigester struct {
	store *store.Store
	posix *vfs.Posix
}

func (d *scratchDigester) DigestFile(ctx context.Context, f vfs.File) (store.Digest, error) {
	b, err := d.posix.ReadFile(ctx, f)
	if err != nil {
		return store.Digest{}, err
	}
	return d.store.StoreFileBytes(ctx, b)
}

func envList(pairs []string) []string {
	out := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, pairs[i]+"="+pairs[i+1])
	}
	return out
}
