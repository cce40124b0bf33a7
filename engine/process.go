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
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pkg/errors"
	"github.com/skein-build/skein/execproc"
	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/store"
)

// ExecuteProcess dispatches one lifted process request to the runner.
// Failures from the runner are throws, never noops.
type ExecuteProcess struct {
	Request execproc.Request
}

func (e *ExecuteProcess) String() string {
	h, err := hashstructure.Hash(e.Request, hashstructure.FormatV2, nil)
	if err != nil {
		// requests are plain data; an unhashable one is a wiring bug
		panic(fmt.Sprintf("unhashable process request: %v", err))
	}
	return fmt.Sprintf("ExecuteProcess(%x, %s)", h, e.Request.Description)
}

func (e *ExecuteProcess) ProductStr() string { return "ProcessResult" }

func (e *ExecuteProcess) FSSubject() (string, bool) { return "", false }

func (e *ExecuteProcess) Run(ctx context.Context, ec *Context) (Result, error) {
	res, err := ec.core.Runner.Run(ctx, e.Request)
	if err != nil {
		return Result{}, Throwf("Failed to execute process: %v", err)
	}
	return ProcessResultOf(res), nil
}

// liftProcessRequest projects a host process-request value into a typed
// request. Env arrives as a flat list of strings of even length and is
// stored key-sorted so equivalent maps produce identical node keys.
func liftProcessRequest(v any) (execproc.Request, error) {
	envParts := hostv.ProjectMultiStrs(v, "env")
	if len(envParts)%2 != 0 {
		return execproc.Request{}, errors.New("Error parsing env: odd number of parts")
	}
	type kv struct{ k, v string }
	pairs := make([]kv, 0, len(envParts)/2)
	for i := 0; i+1 < len(envParts); i += 2 {
		pairs = append(pairs, kv{k: envParts[i], v: envParts[i+1]})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })
	env := make([]string, 0, len(pairs)*2)
	for _, p := range pairs {
		env = append(env, p.k, p.v)
	}

	digest, err := liftDigest(hostv.ProjectIgnoringType(v, "input_files"))
	if err != nil {
		return execproc.Request{}, errors.Wrap(err, "Error parsing digest")
	}

	timeoutStr := hostv.ProjectStr(v, "timeout_seconds")
	timeoutSeconds, err := strconv.ParseFloat(timeoutStr, 64)
	if err != nil {
		return execproc.Request{}, errors.Wrapf(err, "Timeout was not a float: %q", timeoutStr)
	}

	return execproc.Request{
		Argv:              hostv.ProjectMultiStrs(v, "argv"),
		Env:               env,
		InputFiles:        digest,
		OutputFiles:       hostv.ProjectMultiStrs(v, "output_files"),
		OutputDirectories: hostv.ProjectMultiStrs(v, "output_directories"),
		Timeout:           time.Duration(timeoutSeconds*1000) * time.Millisecond,
		Description:       hostv.ProjectStr(v, "description"),
	}, nil
}

// liftDigest projects a directory-digest host value: a hex fingerprint
// plus a stringified signed-64 length.
func liftDigest(v any) (store.Digest, error) {
	fingerprint := hostv.ProjectStr(v, "fingerprint")
	lengthStr := hostv.ProjectStr(v, "serialized_bytes_length")
	length, err := strconv.ParseInt(lengthStr, 10, 64)
	if err != nil {
		return store.Digest{}, errors.Wrapf(err, "length was not an integer: %q", lengthStr)
	}
	return store.Digest{Fingerprint: fingerprint, SizeBytes: length}, nil
}
