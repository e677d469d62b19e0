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
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eminwux/jlab/internal/common"
	"github.com/eminwux/jlab/internal/discovery"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/jupyter"
	"github.com/eminwux/jlab/internal/supervisor/serverrunner"
	"github.com/eminwux/jlab/pkg/api"
)

type recentsTest struct {
	mu      sync.Mutex
	folders []string
}

func (r *recentsTest) Touch(_ context.Context, folder, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.folders = append(r.folders, folder)
	return nil
}

type harness struct {
	c       *Controller
	runner  *jupyter.Test
	recents *recentsTest
	handles []*serverrunner.Test
	args    [][]string
	runPath string

	// configure is applied to every new handle
	configure func(h *serverrunner.Test)
}

func newHarness(t *testing.T, policy ReplacePolicy) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := &harness{
		runner:  &jupyter.Test{},
		recents: &recentsTest{},
		runPath: t.TempDir(),
	}
	c, ok := NewLabController(logger, h.runner, Options{
		RunPath:       h.runPath,
		ReplacePolicy: policy,
		Recents:       h.recents,
	}).(*Controller)
	if !ok {
		t.Fatal("unexpected controller type")
	}

	ids := 0
	c.FreePort = func(_ context.Context) (uint16, error) { return 8899, nil }
	c.NewToken = func() string { return "jupyter:tok" }
	c.NewID = func() string {
		ids++
		return fmt.Sprintf("id%06d", ids)
	}
	c.NewServerRunner = func(_ *slog.Logger, _ string, args []string, _ *api.LaunchSpec) serverrunner.ServerRunner {
		handle := serverrunner.NewServerRunnerTest()
		pid := 4242 + len(h.handles)
		handle.StartFunc = func() error { return nil }
		handle.PidFunc = func() int { return pid }
		if h.configure != nil {
			h.configure(handle)
		}
		h.handles = append(h.handles, handle)
		h.args = append(h.args, args)
		return handle
	}
	h.c = c
	return h
}

func (h *harness) metadata(t *testing.T, id string) api.SessionMetadata {
	t.Helper()
	var m api.SessionMetadata
	if err := common.ReadMetadata(discovery.SessionDir(h.runPath, api.ID(id)), &m); err != nil {
		t.Fatalf("read metadata %s: %v", id, err)
	}
	return m
}

func Test_OpenLaunchesServer(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)

	s, err := h.c.Open(context.Background(), &api.OpenRequest{Folder: "/home/user/proj"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Link != "http://localhost:8899/lab?token=jupyter:tok" {
		t.Errorf("link = %q", s.Link)
	}
	if tok, ok := s.TokenValue(); !ok || tok != "jupyter:tok" {
		t.Errorf("token = %q, %v", tok, ok)
	}
	if s.Title != "proj" || s.Key() != "http://localhost:8899" {
		t.Errorf("session = %+v", s)
	}

	args := h.args[0]
	i := slices.Index(args, "--ServerApp.port")
	if i < 0 || args[i+1] != "8899" {
		t.Errorf("launch args = %v", args)
	}

	m := h.metadata(t, "id000001")
	if m.Status.Pid != 4242 || m.Status.State != api.Starting || m.Spec.Folder != "/home/user/proj" {
		t.Errorf("metadata = %+v", m)
	}
	if len(h.recents.folders) != 1 || h.recents.folders[0] != "/home/user/proj" {
		t.Errorf("recents = %v", h.recents.folders)
	}
	if len(h.c.Sessions()) != 1 {
		t.Errorf("sessions = %v", h.c.Sessions())
	}

	if err := h.c.Close(errors.New("window destroyed")); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.handles[0].Kills() != 1 {
		t.Errorf("kills = %d; want 1", h.handles[0].Kills())
	}
	if m := h.metadata(t, "id000001"); m.Status.State != api.Exited || m.Status.ExitedAt == nil {
		t.Errorf("metadata after close = %+v", m.Status)
	}
	if len(h.c.Sessions()) != 0 {
		t.Errorf("sessions after close = %v", h.c.Sessions())
	}
}

func Test_OpenWaitsForReadiness(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	var gotRe *regexp.Regexp
	h.configure = func(handle *serverrunner.Test) {
		handle.WaitReadyFunc = func(_ context.Context, re *regexp.Regexp, _ time.Duration) error {
			gotRe = re
			return nil
		}
	}

	if _, err := h.c.Open(context.Background(), &api.OpenRequest{Folder: "/srv/x", Port: 9001, Wait: true}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if gotRe == nil || !gotRe.MatchString("http://localhost:9001/lab?token=jupyter:tok") {
		t.Errorf("readiness pattern = %v", gotRe)
	}
	if m := h.metadata(t, "id000001"); m.Status.State != api.Ready || m.Spec.Port != 9001 {
		t.Errorf("metadata = %+v", m)
	}
	_ = h.c.Close(nil)
}

func Test_ErrServerNotReady(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	h.configure = func(handle *serverrunner.Test) {
		handle.WaitReadyFunc = func(_ context.Context, _ *regexp.Regexp, _ time.Duration) error {
			return errdefs.ErrServerNotReady
		}
	}

	_, err := h.c.Open(context.Background(), &api.OpenRequest{Folder: "/srv/x", Wait: true})
	if !errors.Is(err, errdefs.ErrServerNotReady) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrServerNotReady, err)
	}
	if h.handles[0].Kills() != 1 {
		t.Errorf("unready server should be killed; kills = %d", h.handles[0].Kills())
	}
	if h.c.registry.State() != Idle {
		t.Errorf("registry state = %s", h.c.registry.State())
	}
	if m := h.metadata(t, "id000001"); m.Status.State != api.Exited {
		t.Errorf("state = %s", m.Status.State)
	}
}

func Test_ErrInvalidFolderPath(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	_, err := h.c.Open(context.Background(), &api.OpenRequest{Folder: "/"})
	if !errors.Is(err, errdefs.ErrInvalidFolderPath) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrInvalidFolderPath, err)
	}
	if len(h.handles) != 0 {
		t.Error("no server should be spawned")
	}
}

func Test_ErrPortAllocationFailed(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	h.c.FreePort = func(_ context.Context) (uint16, error) {
		return 0, fmt.Errorf("%w: no ports", errdefs.ErrPortAllocationFailed)
	}
	_, err := h.c.Open(context.Background(), &api.OpenRequest{Folder: "/srv/x"})
	if !errors.Is(err, errdefs.ErrPortAllocationFailed) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrPortAllocationFailed, err)
	}
}

func Test_ErrProcessSpawnFailed(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	h.configure = func(handle *serverrunner.Test) {
		handle.StartFunc = func() error { return errors.New("exec: no such file") }
	}
	_, err := h.c.Open(context.Background(), &api.OpenRequest{Folder: "/srv/x"})
	if !errors.Is(err, errdefs.ErrProcessSpawnFailed) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrProcessSpawnFailed, err)
	}
	if h.c.registry.State() != Idle {
		t.Errorf("registry state = %s", h.c.registry.State())
	}
	if _, errS := os.Stat(discovery.SessionDir(h.runPath, "id000001")); !os.IsNotExist(errS) {
		t.Errorf("session dir should be removed: %v", errS)
	}
}

func Test_OpenReplaceTerminate(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	ctx := context.Background()
	if _, err := h.c.Open(ctx, &api.OpenRequest{Folder: "/srv/a", Port: 9001}); err != nil {
		t.Fatal(err)
	}
	if _, err := h.c.Open(ctx, &api.OpenRequest{Folder: "/srv/b", Port: 9002}); err != nil {
		t.Fatal(err)
	}
	if h.handles[0].Kills() != 1 || h.handles[1].Kills() != 0 {
		t.Errorf("kills = %d, %d", h.handles[0].Kills(), h.handles[1].Kills())
	}
	if h.c.registry.Current() != h.handles[1] {
		t.Error("second server should be tracked")
	}
	_ = h.c.Close(nil)
}

func Test_ErrProcessAlreadyRunning(t *testing.T) {
	h := newHarness(t, ReplaceReject)
	ctx := context.Background()
	if _, err := h.c.Open(ctx, &api.OpenRequest{Folder: "/srv/a"}); err != nil {
		t.Fatal(err)
	}
	_, err := h.c.Open(ctx, &api.OpenRequest{Folder: "/srv/b"})
	if !errors.Is(err, errdefs.ErrProcessAlreadyRunning) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrProcessAlreadyRunning, err)
	}
	if len(h.handles) != 1 || h.handles[0].Kills() != 0 {
		t.Errorf("first server must keep running; handles = %d", len(h.handles))
	}
	_ = h.c.Close(nil)
}

func Test_ChildExitReleasesRegistry(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	if _, err := h.c.Open(context.Background(), &api.OpenRequest{Folder: "/srv/a"}); err != nil {
		t.Fatal(err)
	}
	h.handles[0].Exit()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.c.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		var m api.SessionMetadata
		errR := common.ReadMetadata(discovery.SessionDir(h.runPath, "id000001"), &m)
		if errR == nil && m.Status.State == api.Exited {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("session not marked exited: %+v, %v", m.Status, errR)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if h.c.registry.State() != Idle {
		t.Errorf("registry state = %s", h.c.registry.State())
	}
}

func Test_ErrContextDone(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	if _, err := h.c.Open(context.Background(), &api.OpenRequest{Folder: "/srv/a"}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.c.Wait(ctx); !errors.Is(err, errdefs.ErrContextDone) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrContextDone, err)
	}
	if err := h.c.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if h.handles[0].Kills() != 1 {
		t.Errorf("kills = %d", h.handles[0].Kills())
	}
}

func Test_ListMergesSessions(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	h.runner.OutputFunc = func(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
		return []byte("http://localhost:8888/?token=abc :: /home/user/nb\n"), nil, nil
	}

	sessions, err := h.c.List(context.Background())
	if err != nil || len(sessions) != 1 {
		t.Fatalf("List = %v, %v", sessions, err)
	}
	if got := h.c.Sessions(); len(got) != 1 || got[0].Key() != "http://localhost:8888" {
		t.Errorf("store = %v", got)
	}
}

func Test_ListRecoversFromStatusFailure(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	h.runner.OutputFunc = func(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
		return nil, nil, errors.New("jupyter: command not found")
	}
	sessions, err := h.c.List(context.Background())
	if err != nil || sessions == nil || len(sessions) != 0 {
		t.Fatalf("List = %v, %v; want empty list", sessions, err)
	}
}

func Test_StopServer(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	h.runner.OutputFunc = func(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
		return nil, nil, nil
	}
	if err := h.c.StopServer(context.Background(), 8888); err != nil {
		t.Fatalf("StopServer: %v", err)
	}
	if got := strings.Join(h.runner.LastCall(), " "); got != "jupyter lab stop 8888" {
		t.Errorf("command = %q", got)
	}
}

func Test_ErrStopCommandFailed(t *testing.T) {
	h := newHarness(t, ReplaceTerminate)
	h.runner.OutputFunc = func(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
		return nil, []byte("There is no Jupyter server running on port 8888\n"), errors.New("exit status 1")
	}
	err := h.c.StopServer(context.Background(), 8888)
	if !errors.Is(err, errdefs.ErrStopCommandFailed) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrStopCommandFailed, err)
	}
	if !strings.Contains(err.Error(), "no Jupyter server running") {
		t.Errorf("stderr should be surfaced: %v", err)
	}
}
