// Copyright 2025 Emiliano Spinella (eminwux)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package jupyter

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// CommandRunner runs a command to completion and captures both streams.
type CommandRunner interface {
	Output(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

type Exec struct {
	// Env is appended to the inherited environment.
	Env []string
}

func NewCommandRunnerExec(env []string) CommandRunner {
	return &Exec{Env: env}
}

func (e *Exec) Output(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	//nolint:gosec // binary and args come from user config
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), e.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
