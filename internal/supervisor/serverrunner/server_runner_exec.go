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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"sync"
	"syscall"
	"time"

	"github.com/Netflix/go-expect"
	"github.com/creack/pty"
	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/pkg/api"
	"golang.org/x/sys/unix"
)

const (
	ptyRows = 24
	// wide enough that the connection URL is never wrapped
	ptyCols = 512

	// output kept in memory for readiness checks that start late
	maxTail = 64 * 1024
	// how long the drain may take to flush after the child exits
	flushTimeout = 2 * time.Second
)

// lineMatcher ends each drain read at a newline so the console's match
// buffer never grows past one line.
//
//nolint:gochecknoglobals // compiled once
var lineMatcher = regexp.MustCompile(`\n`)

type Exec struct {
	logger *slog.Logger
	bin    string
	args   []string
	spec   api.LaunchSpec

	mu      sync.Mutex
	cmd     *exec.Cmd
	console *expect.Console
	capture *os.File
	started bool
	killed  bool

	doneCh    chan struct{}
	drainDone chan struct{}
	waitErr   error
	closeOnce sync.Once

	outMu   sync.Mutex
	tail    []byte
	waiters []*readyWaiter
}

type readyWaiter struct {
	re *regexp.Regexp
	ch chan struct{}
}

func NewServerRunnerExec(logger *slog.Logger, bin string, args []string, spec *api.LaunchSpec) ServerRunner {
	return &Exec{
		logger:    logger,
		bin:       bin,
		args:      args,
		spec:      *spec,
		doneCh:    make(chan struct{}),
		drainDone: make(chan struct{}),
	}
}

func (sr *Exec) Start() error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if sr.started {
		return fmt.Errorf("%w: runner already started", errdefs.ErrProcessSpawnFailed)
	}

	out := io.Discard
	if sr.spec.CaptureFile != "" {
		f, errO := os.OpenFile(sr.spec.CaptureFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if errO != nil {
			return fmt.Errorf("%w: open capture file: %w", errdefs.ErrProcessSpawnFailed, errO)
		}
		sr.capture = f
		out = f
	}

	console, err := expect.NewConsole(expect.WithStdout(out))
	if err != nil {
		sr.closeCapture()
		return fmt.Errorf("%w: open console: %w", errdefs.ErrProcessSpawnFailed, err)
	}

	if errS := pty.Setsize(console.Tty(), &pty.Winsize{Rows: ptyRows, Cols: ptyCols}); errS != nil {
		sr.logger.Warn("could not set pty size", "error", errS)
	}

	//nolint:gosec // the binary and its arguments come from the user's configuration
	cmd := exec.Command(sr.bin, sr.args...)
	cmd.Dir = sr.spec.Folder
	cmd.Env = append(os.Environ(), sr.spec.Env...)
	cmd.Env = append(cmd.Env,
		config.KV(config.SESSION_ID, string(sr.spec.ID)),
		config.KV(config.SESSION_ORIGIN, fmt.Sprintf("http://localhost:%d", sr.spec.Port)),
		"TERM=dumb",
	)
	cmd.Stdin = console.Tty()
	cmd.Stdout = console.Tty()
	cmd.Stderr = console.Tty()
	// own session so that Kill reaches the kernels the server spawns
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0,
	}

	if errStart := cmd.Start(); errStart != nil {
		_ = console.Close()
		sr.closeCapture()
		return fmt.Errorf("%w: %s: %w", errdefs.ErrProcessSpawnFailed, sr.bin, errStart)
	}

	sr.cmd = cmd
	sr.console = console
	sr.started = true
	sr.logger.Info("server process started", "pid", cmd.Process.Pid, "bin", sr.bin, "port", sr.spec.Port)

	go sr.drain(console)
	go sr.wait()
	return nil
}

func (sr *Exec) wait() {
	err := sr.cmd.Wait()
	sr.logger.Info("server process exited", "pid", sr.cmd.Process.Pid, "error", err)
	sr.mu.Lock()
	sr.waitErr = err
	console := sr.console
	sr.mu.Unlock()

	// closing our end of the pty lets the drain read what is left and
	// then see EOF
	if console != nil {
		_ = console.Tty().Close()
	}
	select {
	case <-sr.drainDone:
	case <-time.After(flushTimeout):
		sr.logger.Warn("output drain did not finish after exit", "pid", sr.cmd.Process.Pid)
	}

	close(sr.doneCh)
	sr.closeConsole()
}

func (sr *Exec) WaitReady(ctx context.Context, re *regexp.Regexp, timeout time.Duration) error {
	sr.mu.Lock()
	started := sr.started
	sr.mu.Unlock()
	if !started {
		return fmt.Errorf("%w: runner not started", errdefs.ErrServerNotReady)
	}

	w := &readyWaiter{re: re, ch: make(chan struct{})}
	sr.outMu.Lock()
	if re.Match(sr.tail) {
		sr.outMu.Unlock()
		sr.logger.Info("server is ready", "pid", sr.Pid())
		return nil
	}
	sr.waiters = append(sr.waiters, w)
	sr.outMu.Unlock()
	defer sr.removeWaiter(w)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-w.ch:
		sr.logger.Info("server is ready", "pid", sr.Pid())
		return nil
	case <-sr.doneCh:
		return fmt.Errorf("%w: process exited: %w", errdefs.ErrServerNotReady, sr.Err())
	case <-timer.C:
		return fmt.Errorf("%w: no match within %s", errdefs.ErrServerNotReady, timeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errdefs.ErrContextDone, ctx.Err())
	}
}

// drain reads child output line by line for the whole life of the process,
// so the child never blocks on a full pty and the capture file is always
// fed. Each line is offered to pending readiness waiters.
func (sr *Exec) drain(console *expect.Console) {
	defer close(sr.drainDone)
	for {
		line, err := console.Expect(expect.Regexp(lineMatcher))
		if line != "" {
			sr.observe(line)
		}
		if err != nil {
			sr.logger.Debug("output drain stopped", "error", err)
			return
		}
	}
}

func (sr *Exec) observe(line string) {
	sr.outMu.Lock()
	defer sr.outMu.Unlock()

	sr.tail = append(sr.tail, line...)
	if len(sr.tail) > maxTail {
		sr.tail = append(sr.tail[:0], sr.tail[len(sr.tail)-maxTail:]...)
	}

	kept := sr.waiters[:0]
	for _, w := range sr.waiters {
		if w.re.MatchString(line) {
			close(w.ch)
			continue
		}
		kept = append(kept, w)
	}
	sr.waiters = kept
}

func (sr *Exec) removeWaiter(w *readyWaiter) {
	sr.outMu.Lock()
	defer sr.outMu.Unlock()
	for i, x := range sr.waiters {
		if x == w {
			sr.waiters = append(sr.waiters[:i], sr.waiters[i+1:]...)
			return
		}
	}
}

func (sr *Exec) Pid() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.cmd == nil || sr.cmd.Process == nil {
		return 0
	}
	return sr.cmd.Process.Pid
}

func (sr *Exec) Kill() error {
	sr.mu.Lock()
	if !sr.started || sr.killed {
		sr.mu.Unlock()
		return nil
	}
	sr.killed = true
	pid := sr.cmd.Process.Pid
	sr.mu.Unlock()

	sr.logger.Info("killing server process group", "pid", pid)
	err := unix.Kill(-pid, unix.SIGKILL)
	if err != nil && !errors.Is(err, unix.ESRCH) {
		sr.logger.Warn("could not signal process group, killing leader", "pid", pid, "error", err)
		if errK := sr.cmd.Process.Kill(); errK != nil && !errors.Is(errK, os.ErrProcessDone) {
			return fmt.Errorf("kill %d: %w", pid, errK)
		}
	}
	sr.closeConsole()
	return nil
}

func (sr *Exec) Done() <-chan struct{} {
	return sr.doneCh
}

func (sr *Exec) Err() error {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.waitErr
}

func (sr *Exec) closeConsole() {
	sr.closeOnce.Do(func() {
		sr.mu.Lock()
		defer sr.mu.Unlock()
		if sr.console != nil {
			if err := sr.console.Close(); err != nil {
				sr.logger.Debug("error closing console", "error", err)
			}
		}
		sr.closeCapture()
	})
}

func (sr *Exec) closeCapture() {
	if sr.capture != nil {
		_ = sr.capture.Close()
		sr.capture = nil
	}
}
