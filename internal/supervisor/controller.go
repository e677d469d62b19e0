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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/eminwux/jlab/internal/common"
	"github.com/eminwux/jlab/internal/discovery"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/jupyter"
	"github.com/eminwux/jlab/internal/naming"
	"github.com/eminwux/jlab/internal/profile"
	"github.com/eminwux/jlab/internal/supervisor/serverrunner"
	"github.com/eminwux/jlab/internal/supervisor/sessionstore"
	"github.com/eminwux/jlab/pkg/api"
)

const (
	captureFile         = "capture"
	defaultReadyTimeout = 60 * time.Second
)

// RecentStore records opened folders.
type RecentStore interface {
	Touch(ctx context.Context, folder, title string) error
}

type Options struct {
	JupyterBin    string
	RunPath       string
	ReplacePolicy ReplacePolicy
	// Recents is optional.
	Recents RecentStore
}

// Controller launches servers, tracks the one it owns and keeps the
// sessions it has seen keyed by origin.
type Controller struct {
	logger   *slog.Logger
	opts     Options
	runner   jupyter.CommandRunner
	registry *Registry
	store    sessionstore.SessionStore

	NewServerRunner func(logger *slog.Logger, bin string, args []string, spec *api.LaunchSpec) serverrunner.ServerRunner
	FreePort        func(ctx context.Context) (uint16, error)
	NewToken        func() string
	NewID           func() string
	Now             func() time.Time

	mu      sync.Mutex
	current *launched
}

// launched is a server this controller started, with its run path record.
type launched struct {
	handle serverrunner.ServerRunner
	dir    string

	mu       sync.Mutex
	meta     api.SessionMetadata
	exitOnce sync.Once
}

func NewLabController(logger *slog.Logger, runner jupyter.CommandRunner, opts Options) api.LabController {
	if opts.JupyterBin == "" {
		opts.JupyterBin = jupyter.DefaultBin
	}
	return &Controller{
		logger:          logger,
		opts:            opts,
		runner:          runner,
		registry:        NewRegistry(logger, opts.ReplacePolicy),
		store:           sessionstore.NewSessionStoreExec(),
		NewServerRunner: serverrunner.NewServerRunnerExec,
		FreePort:        common.FreePort,
		NewToken:        naming.RandomToken,
		NewID:           naming.RandomID,
		Now:             time.Now,
	}
}

//nolint:funlen // launch sequence reads top to bottom
func (c *Controller) Open(ctx context.Context, req *api.OpenRequest) (*api.Session, error) {
	title, err := api.FolderTitle(req.Folder)
	if err != nil {
		return nil, err
	}
	if cur := c.registry.Current(); cur != nil && c.opts.ReplacePolicy == ReplaceReject {
		return nil, fmt.Errorf("%w: pid %d", errdefs.ErrProcessAlreadyRunning, cur.Pid())
	}

	port := req.Port
	if port == 0 {
		port, err = c.FreePort(ctx)
		if err != nil {
			return nil, err
		}
	}

	id := api.ID(c.NewID())
	dir := discovery.SessionDir(c.opts.RunPath, id)
	spec := &api.LaunchSpec{
		ID:          id,
		Folder:      req.Folder,
		Port:        port,
		Token:       c.NewToken(),
		JupyterBin:  c.opts.JupyterBin,
		RunPath:     c.opts.RunPath,
		CaptureFile: filepath.Join(dir, captureFile),
	}
	profile.Apply(req.Profile, spec)
	spec.ServerArgs = append(spec.ServerArgs, req.ExtraArgs...)

	session, err := api.NewSession(jupyter.LaunchURL(port, spec.Token), req.Folder)
	if err != nil {
		return nil, err
	}

	if errM := os.MkdirAll(dir, 0o700); errM != nil {
		return nil, fmt.Errorf("%w: %w", errdefs.ErrWriteMetadata, errM)
	}

	c.logger.InfoContext(ctx, "launching server", "id", id, "folder", req.Folder, "port", port, "profile", spec.ProfileName)
	handle := c.NewServerRunner(c.logger, spec.JupyterBin, jupyter.LaunchArgs(spec), spec)
	if errS := handle.Start(); errS != nil {
		_ = os.RemoveAll(dir)
		if errors.Is(errS, errdefs.ErrProcessSpawnFailed) {
			return nil, errS
		}
		return nil, fmt.Errorf("%w: %w", errdefs.ErrProcessSpawnFailed, errS)
	}

	if errR := c.registry.Start(handle); errR != nil {
		_ = handle.Kill()
		_ = os.RemoveAll(dir)
		return nil, errR
	}

	l := &launched{
		handle: handle,
		dir:    dir,
		meta: api.SessionMetadata{
			Spec: *spec,
			Status: api.SessionStatus{
				Pid:            handle.Pid(),
				State:          api.Starting,
				Link:           session.Link,
				Origin:         session.Key(),
				SessionRunPath: dir,
				StartedAt:      c.Now(),
			},
		},
	}
	c.mu.Lock()
	c.current = l
	c.mu.Unlock()

	if errP := c.store.Put(session); errP != nil {
		c.logger.WarnContext(ctx, "could not store session", "error", errP)
	}

	if errW := c.writeMetadata(ctx, l); errW != nil {
		c.logger.ErrorContext(ctx, "failed to write metadata file", "error", errW)
		_ = c.registry.Kill()
		c.markExited(l)
		return nil, errW
	}

	go c.watch(l)

	if c.opts.Recents != nil {
		if errT := c.opts.Recents.Touch(ctx, req.Folder, title); errT != nil {
			c.logger.WarnContext(ctx, "could not record recent folder", "folder", req.Folder, "error", errT)
		}
	}

	if req.Wait {
		timeout := req.ReadyTimeout
		if timeout <= 0 {
			timeout = defaultReadyTimeout
		}
		if errWait := handle.WaitReady(ctx, jupyter.ReadyPattern(port), timeout); errWait != nil {
			c.logger.ErrorContext(ctx, "server did not become ready", "id", id, "error", errWait)
			if c.registry.Release(handle) {
				_ = handle.Kill()
			}
			c.markExited(l)
			if errors.Is(errWait, errdefs.ErrServerNotReady) {
				return nil, errWait
			}
			return nil, fmt.Errorf("%w: %w", errdefs.ErrServerNotReady, errWait)
		}
		l.mu.Lock()
		l.meta.Status.State = api.Ready
		l.mu.Unlock()
		if errW := c.writeMetadata(ctx, l); errW != nil {
			c.logger.WarnContext(ctx, "could not update metadata", "error", errW)
		}
	}

	c.logger.InfoContext(ctx, "server launched", "id", id, "pid", handle.Pid(), "origin", session.Key())
	return session, nil
}

// watch records the exit of a launched server and forgets its handle.
func (c *Controller) watch(l *launched) {
	<-l.handle.Done()
	c.registry.Release(l.handle)
	c.markExited(l)
}

func (c *Controller) markExited(l *launched) {
	l.exitOnce.Do(func() {
		now := c.Now()
		l.mu.Lock()
		l.meta.Status.State = api.Exited
		l.meta.Status.ExitedAt = &now
		l.mu.Unlock()
		if err := c.writeMetadata(context.Background(), l); err != nil {
			c.logger.Warn("could not mark session exited", "id", l.meta.Spec.ID, "error", err)
		}
		if o := l.meta.Status.Origin; o != "" {
			c.store.Remove(o)
		}
	})
}

func (c *Controller) writeMetadata(ctx context.Context, l *launched) error {
	l.mu.Lock()
	meta := l.meta
	l.mu.Unlock()
	if err := common.WriteMetadata(ctx, meta, l.dir); err != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrWriteMetadata, err)
	}
	return nil
}

// List returns the servers `jupyter lab list` reports. Any failure to run
// or decode the status command yields an empty list.
func (c *Controller) List(ctx context.Context) ([]*api.Session, error) {
	sessions, _, err := discovery.ListRunning(ctx, c.logger, c.runner, c.opts.JupyterBin)
	if err != nil {
		c.logger.WarnContext(ctx, "listing running servers failed, reporting none", "error", err)
		return []*api.Session{}, nil
	}
	c.store.Merge(sessions)
	return sessions, nil
}

func (c *Controller) StopServer(ctx context.Context, port uint16) error {
	c.logger.InfoContext(ctx, "stopping server", "port", port)
	_, stderr, err := c.runner.Output(ctx, c.opts.JupyterBin, jupyter.StopArgs(port)...)
	if err != nil {
		msg := strings.TrimSpace(string(stderr))
		if msg != "" {
			return fmt.Errorf("%w: port %d: %s: %w", errdefs.ErrStopCommandFailed, port, msg, err)
		}
		return fmt.Errorf("%w: port %d: %w", errdefs.ErrStopCommandFailed, port, err)
	}
	return nil
}

func (c *Controller) Stop() error {
	return c.registry.Stop()
}

func (c *Controller) Kill() error {
	return c.registry.Kill()
}

// Wait blocks until the tracked server exits or ctx is done. It returns
// the server's exit error.
func (c *Controller) Wait(ctx context.Context) error {
	h := c.registry.Current()
	if h == nil {
		return nil
	}
	select {
	case <-h.Done():
		return h.Err()
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", errdefs.ErrContextDone, ctx.Err())
	}
}

// Close kills the tracked server and records it as exited.
func (c *Controller) Close(reason error) error {
	c.logger.Info("closing controller", "reason", reason)
	err := c.registry.Kill()

	c.mu.Lock()
	l := c.current
	c.mu.Unlock()
	if l != nil {
		c.markExited(l)
	}
	return err
}

func (c *Controller) Sessions() []*api.Session {
	return c.store.List()
}
