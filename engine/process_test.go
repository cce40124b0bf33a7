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
	"time"

	"github.com/pkg/errors"

	"github.com/skein-build/skein/execproc"
	"github.com/skein-build/skein/hostv"
	"github.com/skein-build/skein/store"
)

type stubRunner struct {
	lastReq *execproc.Request
	result  *execproc.Result
	err     error
}

func (r *stubRunner) Run(_ context.Context, req execproc.Request) (*execproc.Result, error) {
	r.lastReq = &req
	if r.err != nil {
		return nil, r.err
	}
	return r.result, nil
}

func (s *EngineTestSuite) processSubject(env *testEnv, mutate func(*hostv.ProcessRequestV)) hostv.ProcessRequestV {
	empty, err := env.core.Store.EmptyDirectoryDigest(s.T().Context())
	s.Require().NoError(err)

	subject := hostv.ProcessRequestV{
		Argv:           []string{"/bin/echo", "hi"},
		Env:            []string{"B", "2", "A", "1"},
		InputFiles:     env.types.ConstructDirectoryDigest(empty.Fingerprint, empty.SizeBytes),
		TimeoutSeconds: "2.5",
		Description:    "say hi",
	}
	if mutate != nil {
		mutate(&subject)
	}
	return subject
}

func (s *EngineTestSuite) TestProcessExecutionIntrinsic() {
	env := s.newEnv(nil, nil)
	outDir := store.DigestOf([]byte("fake output tree"))
	stub := &stubRunner{result: &execproc.Result{
		Stdout:          []byte("out"),
		Stderr:          []byte("err"),
		ExitCode:        3,
		OutputDirectory: outDir,
	}}
	env.core.Runner = stub

	out, err := env.core.Produce(s.T().Context(), env.types.ProcessResult, s.processSubject(env, nil))
	s.Require().NoError(err)

	// the lift sorted the env pairs and converted the timeout
	s.Require().NotNil(stub.lastReq)
	s.Equal([]string{"A", "1", "B", "2"}, stub.lastReq.Env)
	s.Equal(2500*time.Millisecond, stub.lastReq.Timeout)
	s.Equal([]string{"/bin/echo", "hi"}, stub.lastReq.Argv)
	s.Equal("say hi", stub.lastReq.Description)

	pr := out.(hostv.ProcessResultV)
	s.Equal([]byte("out"), pr.Stdout)
	s.Equal([]byte("err"), pr.Stderr)
	s.Equal(int64(3), pr.ExitCode)
	s.Equal(outDir.Fingerprint, hostv.ProjectStr(pr.OutputDirectory, "fingerprint"))
}

func (s *EngineTestSuite) TestProcessOddEnvIsThrow() {
	env := s.newEnv(nil, nil)
	env.core.Runner = &stubRunner{result: &execproc.Result{}}

	subject := s.processSubject(env, func(r *hostv.ProcessRequestV) {
		r.Env = []string{"KEY"}
	})
	_, err := env.core.Produce(s.T().Context(), env.types.ProcessResult, subject)
	s.Require().Error(err)
	s.Contains(err.Error(), "Error lifting ExecuteProcess")
	s.Contains(err.Error(), "odd number of parts")
}

func (s *EngineTestSuite) TestProcessBadTimeoutIsThrow() {
	env := s.newEnv(nil, nil)
	env.core.Runner = &stubRunner{result: &execproc.Result{}}

	subject := s.processSubject(env, func(r *hostv.ProcessRequestV) {
		r.TimeoutSeconds = "soon"
	})
	_, err := env.core.Produce(s.T().Context(), env.types.ProcessResult, subject)
	s.Require().Error(err)
	s.Contains(err.Error(), "Timeout was not a float")
}

func (s *EngineTestSuite) TestRunnerFailureIsThrow() {
	env := s.newEnv(nil, nil)
	env.core.Runner = &stubRunner{err: errors.New("sandbox melted")}

	_, err := env.core.Produce(s.T().Context(), env.types.ProcessResult, s.processSubject(env, nil))
	s.Require().Error(err)
	s.Contains(err.Error(), "Failed to execute process")
	s.Contains(err.Error(), "sandbox melted")

	_, isThrow := AsThrow(err)
	s.True(isThrow)
}

func (s *EngineTestSuite) TestLiftDigest() {
	d, err := liftDigest(hostv.DirectoryDigestV{Fingerprint: "cafe", SerializedBytesLength: "17"})
	s.Require().NoError(err)
	s.Equal(store.Digest{Fingerprint: "cafe", SizeBytes: 17}, d)

	_, err = liftDigest(hostv.DirectoryDigestV{Fingerprint: "cafe", SerializedBytesLength: "lots"})
	s.Error(err)
}
