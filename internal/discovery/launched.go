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
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/pkg/api"
	"github.com/shirou/gopsutil/v3/process"
)

// SessionsDir is the run path subdirectory holding one directory per
// launched server.
const SessionsDir = "sessions"

func SessionDir(runPath string, id api.ID) string {
	return filepath.Join(runPath, SessionsDir, string(id))
}

// ScanLaunched loads the metadata of every server jlab has launched,
// sorted by start time.
func ScanLaunched(ctx context.Context, logger *slog.Logger, runPath string) ([]api.SessionMetadata, error) {
	items, err := scanMetadataFiles(
		ctx,
		logger,
		runPath,
		SessionsDir,
		"ScanLaunched",
		func(m api.SessionMetadata) string { return string(m.Spec.ID) },
	)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(items, func(a, b api.SessionMetadata) int {
		return a.Status.StartedAt.Compare(b.Status.StartedAt)
	})
	return items, nil
}

// FindLaunched returns the launched session whose ID or port matches key.
func FindLaunched(
	ctx context.Context,
	logger *slog.Logger,
	runPath string,
	key string,
) (*api.SessionMetadata, error) {
	items, err := ScanLaunched(ctx, logger, runPath)
	if err != nil {
		return nil, err
	}
	return findMetadataBy(items, func(m api.SessionMetadata) bool {
		return string(m.Spec.ID) == key || fmt.Sprint(m.Spec.Port) == key
	}, fmt.Errorf("%w: %s", errdefs.ErrSessionNotFound, key))
}

// IsAlive reports whether the recorded server process still runs.
// Sessions already marked Exited are never alive.
func IsAlive(ctx context.Context, m api.SessionMetadata) bool {
	if m.Status.State == api.Exited || m.Status.Pid <= 0 {
		return false
	}
	p, err := process.NewProcessWithContext(ctx, int32(m.Status.Pid)) //nolint:gosec // pids fit in int32
	if err != nil {
		return false
	}
	running, err := p.IsRunningWithContext(ctx)
	if err != nil || !running {
		return false
	}
	status, err := p.StatusWithContext(ctx)
	if err == nil && slices.Contains(status, process.Zombie) {
		return false
	}
	return true
}

// ScanAndPrintLaunched prints launched sessions. Dead ones are hidden
// unless all is set.
func ScanAndPrintLaunched(
	ctx context.Context,
	logger *slog.Logger,
	runPath string,
	w io.Writer,
	all bool,
	format string,
) error {
	items, err := ScanLaunched(ctx, logger, runPath)
	if err != nil {
		return err
	}

	rows := make([]LaunchedRow, 0, len(items))
	for _, m := range items {
		alive := IsAlive(ctx, m)
		if !all && !alive {
			continue
		}
		rows = append(rows, LaunchedRow{Metadata: m, Alive: alive})
	}
	return PrintLaunched(w, rows, format)
}

// ScanAndPruneLaunched deletes the directories of sessions whose process
// is gone.
func ScanAndPruneLaunched(ctx context.Context, logger *slog.Logger, runPath string, w io.Writer) (int, error) {
	items, err := ScanLaunched(ctx, logger, runPath)
	if err != nil {
		return 0, err
	}
	return pruneMetadata(
		ctx,
		logger,
		w,
		items,
		"ScanAndPruneLaunched",
		func(m api.SessionMetadata) bool { return !IsAlive(ctx, m) },
		func(m api.SessionMetadata) error {
			return os.RemoveAll(SessionDir(runPath, m.Spec.ID))
		},
		func(m api.SessionMetadata) string { return string(m.Spec.ID) },
		func(m api.SessionMetadata) string { return m.Spec.Folder },
	)
}
