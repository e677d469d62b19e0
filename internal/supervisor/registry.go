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

package supervisor

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/supervisor/serverrunner"
)

type RegistryState int

const (
	Idle RegistryState = iota
	Running
)

func (s RegistryState) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// ReplacePolicy decides what Start does while a server is already tracked.
type ReplacePolicy int

const (
	// ReplaceTerminate kills the tracked server and tracks the new one.
	ReplaceTerminate ReplacePolicy = iota
	// ReplaceReject refuses the new server.
	ReplaceReject
)

func (p ReplacePolicy) String() string {
	switch p {
	case ReplaceTerminate:
		return "terminate"
	case ReplaceReject:
		return "reject"
	default:
		return "unknown"
	}
}

func ParseReplacePolicy(s string) (ReplacePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "terminate":
		return ReplaceTerminate, nil
	case "reject":
		return ReplaceReject, nil
	default:
		return ReplaceTerminate, fmt.Errorf("%w: %q (valid: terminate, reject)", errdefs.ErrInvalidReplacePolicy, s)
	}
}

// Registry tracks at most one server process. The lock is never held
// while a process is being killed.
type Registry struct {
	logger *slog.Logger
	policy ReplacePolicy

	mu     sync.Mutex
	handle serverrunner.ServerRunner
}

func NewRegistry(logger *slog.Logger, policy ReplacePolicy) *Registry {
	return &Registry{logger: logger, policy: policy}
}

// Start tracks handle. Under ReplaceTerminate the previous handle, if any,
// is killed once the new one is in place.
func (r *Registry) Start(handle serverrunner.ServerRunner) error {
	r.mu.Lock()
	prev := r.handle
	if prev != nil && r.policy == ReplaceReject {
		r.mu.Unlock()
		return fmt.Errorf("%w: pid %d", errdefs.ErrProcessAlreadyRunning, prev.Pid())
	}
	r.handle = handle
	r.mu.Unlock()

	if prev != nil && prev != handle {
		r.logger.Info("replacing tracked server", "old_pid", prev.Pid(), "new_pid", handle.Pid())
		if err := prev.Kill(); err != nil {
			r.logger.Warn("could not kill replaced server", "pid", prev.Pid(), "error", err)
		}
	}
	return nil
}

// Kill terminates the tracked server and returns to Idle. It is a no-op
// when Idle.
func (r *Registry) Kill() error {
	r.mu.Lock()
	h := r.handle
	r.handle = nil
	r.mu.Unlock()

	if h == nil {
		return nil
	}
	r.logger.Info("killing tracked server", "pid", h.Pid())
	return h.Kill()
}

// Stop is Kill under its user facing name.
func (r *Registry) Stop() error {
	return r.Kill()
}

// Release forgets handle if it is still the tracked one, without killing
// it. Used once the child has exited on its own.
func (r *Registry) Release(handle serverrunner.ServerRunner) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handle != handle {
		return false
	}
	r.handle = nil
	return true
}

func (r *Registry) State() RegistryState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handle == nil {
		return Idle
	}
	return Running
}

func (r *Registry) Current() serverrunner.ServerRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle
}
