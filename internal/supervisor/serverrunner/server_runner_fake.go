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
	"sync"
	"time"

	"github.com/eminwux/jlab/internal/errdefs"
)

// Test is a ServerRunner whose behavior is set per test. Kill closes the
// done channel unless KillFunc is set.
type Test struct {
	mu        sync.Mutex
	KillCalls int
	doneCh    chan struct{}
	doneOnce  sync.Once

	StartFunc     func() error
	WaitReadyFunc func(ctx context.Context, re *regexp.Regexp, timeout time.Duration) error
	PidFunc       func() int
	KillFunc      func() error
	ErrFunc       func() error
}

func NewServerRunnerTest() *Test {
	return &Test{doneCh: make(chan struct{})}
}

func (t *Test) Start() error {
	if t.StartFunc != nil {
		return t.StartFunc()
	}
	return errdefs.ErrFuncNotSet
}

func (t *Test) WaitReady(ctx context.Context, re *regexp.Regexp, timeout time.Duration) error {
	if t.WaitReadyFunc != nil {
		return t.WaitReadyFunc(ctx, re, timeout)
	}
	return errdefs.ErrFuncNotSet
}

func (t *Test) Pid() int {
	if t.PidFunc != nil {
		return t.PidFunc()
	}
	return 0
}

func (t *Test) Kill() error {
	t.mu.Lock()
	t.KillCalls++
	t.mu.Unlock()
	if t.KillFunc != nil {
		return t.KillFunc()
	}
	t.Exit()
	return nil
}

// Exit simulates the child exiting on its own.
func (t *Test) Exit() {
	t.doneOnce.Do(func() { close(t.doneCh) })
}

func (t *Test) Kills() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.KillCalls
}

func (t *Test) Done() <-chan struct{} {
	return t.doneCh
}

func (t *Test) Err() error {
	if t.ErrFunc != nil {
		return t.ErrFunc()
	}
	return nil
}
