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

package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/eminwux/jlab/internal/common"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/jupyter"
	"github.com/eminwux/jlab/pkg/api"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func Test_ParseOutput_SingleLine(t *testing.T) {
	out, stats, err := ParseOutput([]byte("http://localhost:8888/lab?token=abc123 :: /home/user/proj\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d sessions; want 1", len(out))
	}
	s := out[0]
	if port, ok := s.PortValue(); !ok || port != 8888 {
		t.Errorf("port = %d, %v; want 8888", port, ok)
	}
	if token, ok := s.TokenValue(); !ok || token != "abc123" {
		t.Errorf("token = %q, %v; want abc123", token, ok)
	}
	if s.Title != "proj" {
		t.Errorf("title = %q; want proj", s.Title)
	}
	if s.Origin == nil || *s.Origin != "http://localhost:8888" {
		t.Errorf("origin = %v; want http://localhost:8888", s.Origin)
	}
	if stats != (ParseStats{Candidates: 1, Parsed: 1}) {
		t.Errorf("stats = %+v", stats)
	}
}

func Test_ParseOutput_SkipsNoiseAndMalformed(t *testing.T) {
	data := strings.Join([]string{
		"Currently running servers:",
		"[JupyterServerListApp] Currently running servers:",
		"[JupyterServerListApp] http://localhost:8890/?token=t1 :: /srv/a",
		"http://localhost:8891/ :: /srv/b :: extra",
		"http://localhost:8892/ /srv/c",
		"",
		"http://127.0.0.1:8893/lab :: /srv/d\r",
	}, "\n")

	out, stats, err := ParseOutput([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d sessions; want 2: %+v", len(out), out)
	}
	if token, _ := out[0].TokenValue(); out[0].Folder != "/srv/a" || token != "t1" {
		t.Errorf("first = %+v", out[0])
	}
	if port, _ := out[1].PortValue(); out[1].Folder != "/srv/d" || port != 8893 {
		t.Errorf("second = %+v", out[1])
	}
	// the log tag header line is a candidate but has no separator
	want := ParseStats{Candidates: 5, Parsed: 2, Malformed: 3}
	if stats != want {
		t.Errorf("stats = %+v; want %+v", stats, want)
	}
}

func Test_ParseOutput_Empty(t *testing.T) {
	out, stats, err := ParseOutput(nil)
	if err != nil || len(out) != 0 || stats.Candidates != 0 {
		t.Fatalf("got %v %+v %v", out, stats, err)
	}
}

func Test_ErrDecodeOutput(t *testing.T) {
	_, _, err := ParseOutput([]byte{'h', 't', 't', 'p', 0xff, 0xfe})
	if !errors.Is(err, errdefs.ErrDecodeOutput) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrDecodeOutput, err)
	}
}

func Test_ParseOutput_RoundTrip(t *testing.T) {
	s, err := api.NewSession("http://localhost:9000/lab?token=xyz", "/data/notebooks")
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	out, _, err := ParseOutput([]byte(s.StatusLine() + "\n"))
	if err != nil || len(out) != 1 {
		t.Fatalf("got %v, %v", out, err)
	}
	if out[0].Link != s.Link || out[0].Folder != s.Folder || out[0].Title != s.Title {
		t.Fatalf("round trip mismatch: %+v vs %+v", out[0], s)
	}
	gotPort, _ := out[0].PortValue()
	wantPort, _ := s.PortValue()
	gotToken, _ := out[0].TokenValue()
	wantToken, _ := s.TokenValue()
	if gotPort != wantPort || gotToken != wantToken {
		t.Fatalf("round trip mismatch: %+v vs %+v", out[0], s)
	}
}

func Test_ListRunning_MergesStreams(t *testing.T) {
	runner := &jupyter.Test{
		OutputFunc: func(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
			return []byte("http://localhost:8888/?token=a :: /one\n"),
				[]byte("[JupyterServerListApp] http://localhost:8889/?token=b :: /two\nbogus\n"),
				nil
		},
	}
	out, stats, err := ListRunning(context.Background(), newTestLogger(), runner, "jupyter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 || out[0].Folder != "/one" || out[1].Folder != "/two" {
		t.Fatalf("unexpected sessions: %+v", out)
	}
	if stats.Parsed != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if got := strings.Join(runner.LastCall(), " "); got != "jupyter lab list" {
		t.Errorf("command = %q", got)
	}
}

func Test_ListRunning_QuietAtWarnLevel(t *testing.T) {
	runner := &jupyter.Test{
		OutputFunc: func(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
			return nil,
				[]byte("[JupyterServerListApp] Currently running servers:\n" +
					"[JupyterServerListApp] http://localhost:8888/?token=a :: /home/u/nb\n"),
				nil
		},
	}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelWarn}))

	out, stats, err := ListRunning(context.Background(), logger, runner, "jupyter")
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if len(out) != 1 || stats.Malformed != 1 {
		t.Fatalf("unexpected result: %d sessions, stats %+v", len(out), stats)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no warn-level logs for a normal listing, got:\n%s", logs.String())
	}
}

func Test_ErrStatusCommandFailed(t *testing.T) {
	runner := &jupyter.Test{
		OutputFunc: func(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
			return nil, nil, errors.New("exec: \"jupyter\": executable file not found")
		},
	}
	_, _, err := ListRunning(context.Background(), newTestLogger(), runner, "jupyter")
	if !errors.Is(err, errdefs.ErrStatusCommandFailed) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrStatusCommandFailed, err)
	}
}

func writeLaunched(t *testing.T, runPath string, id string, pid int, state api.ServerState, started time.Time) {
	t.Helper()
	m := api.SessionMetadata{
		Spec:   api.LaunchSpec{ID: api.ID(id), Folder: "/srv/" + id, Port: 8000},
		Status: api.SessionStatus{Pid: pid, State: state, StartedAt: started},
	}
	if err := common.WriteMetadata(context.Background(), m, SessionDir(runPath, api.ID(id))); err != nil {
		t.Fatalf("WriteMetadata: %v", err)
	}
}

func Test_ScanLaunched_SortsAndSkipsCorrupt(t *testing.T) {
	runPath := t.TempDir()
	now := time.Now()
	writeLaunched(t, runPath, "bbbb", os.Getpid(), api.Ready, now)
	writeLaunched(t, runPath, "aaaa", os.Getpid(), api.Ready, now.Add(-time.Minute))

	bad := filepath.Join(runPath, SessionsDir, "cccc")
	if err := os.MkdirAll(bad, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, common.MetadataFile), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}

	items, err := ScanLaunched(context.Background(), newTestLogger(), runPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].Spec.ID != "aaaa" || items[1].Spec.ID != "bbbb" {
		t.Fatalf("unexpected items: %+v", items)
	}

	found, err := FindLaunched(context.Background(), newTestLogger(), runPath, "bbbb")
	if err != nil || found.Spec.ID != "bbbb" {
		t.Fatalf("FindLaunched = %+v, %v", found, err)
	}
	_, err = FindLaunched(context.Background(), newTestLogger(), runPath, "zzzz")
	if !errors.Is(err, errdefs.ErrSessionNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrSessionNotFound, err)
	}
}

func Test_IsAlive(t *testing.T) {
	ctx := context.Background()
	self := api.SessionMetadata{Status: api.SessionStatus{Pid: os.Getpid(), State: api.Ready}}
	if !IsAlive(ctx, self) {
		t.Error("current process should be alive")
	}
	self.Status.State = api.Exited
	if IsAlive(ctx, self) {
		t.Error("exited session should not be alive")
	}
	if IsAlive(ctx, api.SessionMetadata{Status: api.SessionStatus{Pid: 0}}) {
		t.Error("pid 0 should not be alive")
	}
}

func Test_ScanAndPruneLaunched(t *testing.T) {
	runPath := t.TempDir()
	writeLaunched(t, runPath, "live", os.Getpid(), api.Ready, time.Now())
	writeLaunched(t, runPath, "gone", os.Getpid(), api.Exited, time.Now())

	var buf bytes.Buffer
	n, err := ScanAndPruneLaunched(context.Background(), newTestLogger(), runPath, &buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("pruned %d; want 1", n)
	}
	if !strings.Contains(buf.String(), "Pruned session gone") {
		t.Errorf("output = %q", buf.String())
	}
	if _, errS := os.Stat(SessionDir(runPath, "gone")); !os.IsNotExist(errS) {
		t.Errorf("gone directory still present: %v", errS)
	}
	if _, errS := os.Stat(SessionDir(runPath, "live")); errS != nil {
		t.Errorf("live directory removed: %v", errS)
	}
}

func Test_ScanAndPrintLaunched(t *testing.T) {
	runPath := t.TempDir()
	writeLaunched(t, runPath, "live", os.Getpid(), api.Ready, time.Now())
	writeLaunched(t, runPath, "gone", os.Getpid(), api.Exited, time.Now())

	var buf bytes.Buffer
	if err := ScanAndPrintLaunched(context.Background(), newTestLogger(), runPath, &buf, false, FormatTable); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "ID") || !strings.Contains(out, "live") || strings.Contains(out, "gone") {
		t.Errorf("unexpected table:\n%s", out)
	}

	buf.Reset()
	if err := ScanAndPrintLaunched(context.Background(), newTestLogger(), runPath, &buf, true, FormatJSON); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rows []LaunchedRow
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows; want 2", len(rows))
	}
}

func Test_PrintRunning(t *testing.T) {
	s, err := api.NewSession("http://localhost:8888/lab?token=abc", "/home/user/proj")
	if err != nil {
		t.Fatal(err)
	}
	healthy := true

	var buf bytes.Buffer
	if err := PrintRunning(&buf, []RunningRow{{Session: *s, Healthy: &healthy}}, FormatTable); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "HEALTH") || !strings.Contains(lines[1], "8888") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}

	buf.Reset()
	if err := PrintRunning(&buf, nil, FormatTable); err != nil || buf.String() != NoRunningString {
		t.Errorf("empty table = %q, %v", buf.String(), err)
	}

	buf.Reset()
	if err := PrintRunning(&buf, []RunningRow{{Session: *s}}, FormatYAML); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "link: http://localhost:8888/lab?token=abc") {
		t.Errorf("yaml output = %q", buf.String())
	}
}

func Test_ErrInvalidOutputFormat(t *testing.T) {
	err := PrintRunning(io.Discard, nil, "xml")
	if !errors.Is(err, errdefs.ErrInvalidOutputFormat) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrInvalidOutputFormat, err)
	}
}

func Test_CheckHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	ctx := context.Background()
	if !CheckHealth(ctx, srv.Client(), srv.URL+"/lab") {
		t.Error("expected healthy server")
	}
	if CheckHealth(ctx, srv.Client(), srv.URL+"/down") {
		t.Error("non-200 must be reported down")
	}
	if CheckHealth(ctx, nil, "http://127.0.0.1:1/") {
		t.Error("closed port must be reported down")
	}
}
