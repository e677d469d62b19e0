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

package serverrunner

import (
	"context"
	"regexp"
	"time"
)

// ServerRunner owns one launched server process.
type ServerRunner interface {
	Start() error
	// WaitReady blocks until the server output matches re, the child
	// exits, ctx is done or timeout elapses.
	WaitReady(ctx context.Context, re *regexp.Regexp, timeout time.Duration) error
	Pid() int
	// Kill terminates the whole process group. Calling it again, or on a
	// runner that never started, is a no-op.
	Kill() error
	// Done is closed once the child has exited.
	Done() <-chan struct{}
	// Err is the child's exit error, valid after Done is closed.
	Err() error
}
