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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/binaek/cling"
	"github.com/spf13/afero"

	"github.com/skein-build/skein/engine"
	"github.com/skein-build/skein/execproc"
	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/loader"
	"github.com/skein-build/skein/rules"
	"github.com/skein-build/skein/store"
	"github.com/skein-build/skein/vfs"
	"github.com/skein-build/skein/workspace"
)

func addSnapshotCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("snapshot", snapshotCmd).
			WithArgument(cling.NewStringCmdInput("include").
				WithDescription("Comma-separated include globs").
				AsArgument(),
			).
			WithFlag(cling.
				NewStringCmdInput("exclude").
				WithDefault("").
				WithDescription("Comma-separated exclude globs").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("workspace-location").
				WithDefault(".").
				WithDescription("Workspace directory to load").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("output").
				WithDefault("text").
				WithValidator(cling.NewEnumValidator("text", "json")).
				WithDescription("Output format to use. One of: text, json").
				AsFlag(),
			),
	)
}

type snapshotCmdArgs struct {
	Include           string `cling-name:"include"`
	Exclude           string `cling-name:"exclude"`
	WorkspaceLocation string `cling-name:"workspace-location"`
	Output            string `cling-name:"output"`
}

func snapshotCmd(ctx context.Context, args []string) error {
	input := snapshotCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	ws, err := loader.LoadWorkspace(ctx, input.WorkspaceLocation)
	if err != nil {
		return err
	}

	core, err := buildCore(ws)
	if err != nil {
		return err
	}

	subject := hostv.PathGlobsV{
		Include:                splitGlobs(input.Include),
		Exclude:                splitGlobs(input.Exclude),
		GlobMatchErrorBehavior: hostv.GlobMatchErrorBehavior{FailureBehavior: "error"},
	}

	out, err := core.Produce(ctx, core.Types.Snapshot, subject)
	if err != nil {
		return err
	}
	snap, ok := out.(hostv.SnapshotV)
	if !ok {
		return fmt.Errorf("unexpected snapshot value %T", out)
	}

	switch input.Output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshotView(snap))
	default:
		view := snapshotView(snap)
		fmt.Printf("digest: %s/%s\n", view.Fingerprint, view.SerializedBytesLength)
		for _, p := range view.Paths {
			fmt.Println(p)
		}
		return nil
	}
}

type snapshotOut struct {
	Fingerprint           string   `json:"fingerprint"`
	SerializedBytesLength string   `json:"serialized_bytes_length"`
	Paths                 []string `json:"paths"`
}

func snapshotView(snap hostv.SnapshotV) snapshotOut {
	out := snapshotOut{
		Fingerprint:           hostv.ProjectStr(snap.DirectoryDigest, "fingerprint"),
		SerializedBytesLength: hostv.ProjectStr(snap.DirectoryDigest, "serialized_bytes_length"),
	}
	for _, ps := range snap.PathStats {
		if stat, ok := ps.(hostv.PathStatV); ok {
			out.Paths = append(out.Paths, string(stat.Path))
		}
	}
	return out
}

func buildCore(ws *workspace.File) (*engine.Core, error) {
	types := hostv.DefaultTypes()
	interns := hostv.NewInterns()

	var storeOpts []store.NewStoreOption
	if ws.Build.CacheMB > 0 {
		storeOpts = append(storeOpts, store.WithDirCacheSize(ws.Build.CacheMB))
	}
	st := store.New(storeOpts...)

	root := filepath.Join(ws.Location, ws.Build.Root)
	posix := vfs.NewPosix(afero.NewOsFs(), root, ws.Build.Ignore)

	runner, err := execproc.NewLocal(st, ws.EffectiveParallelism())
	if err != nil {
		return nil, err
	}

	rg, err := engine.RegisterIntrinsics(rules.NewBuilder(), types).Build()
	if err != nil {
		return nil, err
	}

	return engine.NewCore(rg, st, posix, runner, types, interns), nil
}

func splitGlobs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
