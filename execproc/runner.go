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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/skein-build/skein/store"
)

// Request is a fully lifted process-execution request. Env is a flat list
// of key/value pairs stored key-sorted, so that equivalent environments
// produce identical request keys.
type Request struct {
	Argv              []string
	Env               []string
	InputFiles        store.Digest
	OutputFiles       []string
	OutputDirectories []string
	Timeout           time.Duration
	Description       string
}

func (r Request) String() string {
	return fmt.Sprintf("Process(%s: %s)", r.Description, strings.Join(r.Argv, " "))
}

// Result is the outcome of a finished execution. A non-zero exit code is
// a result, not an error.
type Result struct {
	Stdout          []byte
	Stderr          []byte
	ExitCode        int
	OutputDirectory store.Digest
}

// Runner executes processes. Spawn failures and timeouts are errors;
// process-reported failure is carried in the Result.
type Runner interface {
	Run(ctx context.Context, req Request) (*Result, error)
}
