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

package loader

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/skein-build/skein/constants"
	"github.com/skein-build/skein/workspace"
)

var (
	ErrWorkspaceFileNotFound   = errors.New("workspace file not found")
	ErrWorkspaceFileLoadFailed = errors.New("workspace file load failed")
)

// LoadWorkspace locates and parses the nearest skein.toml at or above
// root.
func LoadWorkspace(ctx context.Context, root string) (*workspace.File, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	wsPath, err := locateWorkspaceFile(ctx, root)
	if err != nil {
		return nil, errors.Wrap(err, "locate workspace file")
	}

	b, err := os.ReadFile(wsPath)
	if err != nil {
		return nil, errors.Wrap(ErrWorkspaceFileLoadFailed, err.Error())
	}
	var ws workspace.File
	if err := toml.Unmarshal(b, &ws); err != nil {
		return nil, errors.Wrap(err, "parse workspace file failed")
	}

	ws.Location = filepath.Dir(wsPath)
	return &ws, nil
}

func locateWorkspaceFile(ctx context.Context, root string) (string, error) {
	if root == "/" {
		return "", errors.New("cannot search from filesystem root")
	}

	if len(strings.TrimSpace(root)) == 0 {
		return "", errors.New("root is empty")
	}

	// get the absolute path to the root
	root, err := filepath.Abs(root)
	if err != nil {
		return "", errors.Wrap(err, "failed to get absolute path to root")
	}

	// locate the workspace file
	// if the root is a file, we take the containing directory of the file
	// then we check if the workspace file exists in the root directory
	// if it does, we load it and return
	// if it doesn't, we walk up the directory tree
	// till we find one - if we reach the root and don't find it, we return an error
	info, err := os.Stat(root)
	if err != nil {
		return "", errors.Wrap(err, "failed to locate workspace file")
	}

	// if the name is "skein.toml", we use it
	if info.Name() == constants.WorkspaceFileName && !info.IsDir() {
		return root, nil
	}
	if !info.IsDir() {
		root = filepath.Dir(root)
	}

	// if we have a workspace file here - we use it
	if _, err := os.Stat(filepath.Join(root, constants.WorkspaceFileName)); err == nil {
		return filepath.Join(root, constants.WorkspaceFileName), nil
	}

	// otherwise, we walk up the directory tree till we find it or we reach root
	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		root = filepath.Dir(root)
		if root == "/" || (runtime.GOOS == "windows" && strings.HasSuffix(root, `:\` /* a drive letter */)) {
			break
		}
		if _, err := os.Stat(filepath.Join(root, constants.WorkspaceFileName)); err == nil {
			return filepath.Join(root, constants.WorkspaceFileName), nil
		}
	}

	return "", ErrWorkspaceFileNotFound
}
