// SPDX-License-Identifier: Apache-2.0
//
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

package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/binaek/cling"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/skein-build/skein/constants"
	"github.com/skein-build/skein/workspace"
)

func addInitCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("init", initCmd).
			WithFlag(cling.NewStringCmdInput("directory").WithDefault(".").WithDescription("The directory to initialize in.").AsFlag()).
			WithArgument(cling.NewStringCmdInput("name").WithDescription("The name of the workspace.").AsArgument()),
	)
}

type initCmdArgs struct {
	Directory string `cling-name:"directory"`
	Name      string `cling-name:"name"`
}

func initCmd(ctx context.Context, args []string) error {
	input := initCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	stat, err := os.Stat(input.Directory)
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return errors.New("directory is not a directory")
	}

	wsPath := filepath.Join(input.Directory, constants.WorkspaceFileName)
	if _, err := os.Stat(wsPath); err == nil {
		return errors.Errorf("%s already exists", wsPath)
	}

	f, err := os.OpenFile(wsPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "create workspace file")
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	if err := enc.Encode(workspace.NewFile(input.Name)); err != nil {
		return errors.Wrap(err, "write workspace file")
	}
	return nil
}
