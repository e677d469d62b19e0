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
	"log/slog"

	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/jupyter"
	"github.com/eminwux/jlab/pkg/api"
	"golang.org/x/sync/errgroup"
)

// ListRunning asks jupyter for its running servers. Both streams are
// parsed independently; stdout records come first.
func ListRunning(
	ctx context.Context,
	logger *slog.Logger,
	runner jupyter.CommandRunner,
	bin string,
) ([]*api.Session, ParseStats, error) {
	logger.DebugContext(ctx, "ListRunning: querying running servers", "bin", bin)

	stdout, stderr, err := runner.Output(ctx, bin, jupyter.ListArgs()...)
	if err != nil {
		logger.ErrorContext(ctx, "ListRunning: status command failed", "error", err)
		return nil, ParseStats{}, fmt.Errorf("%w: %w", errdefs.ErrStatusCommandFailed, err)
	}

	var (
		outSessions, errSessions []*api.Session
		outStats, errStats       ParseStats
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var errP error
		outSessions, outStats, errP = parseOutput(logger, stdout)
		return errP
	})
	g.Go(func() error {
		var errP error
		errSessions, errStats, errP = parseOutput(logger, stderr)
		return errP
	})
	if errW := g.Wait(); errW != nil {
		logger.ErrorContext(ctx, "ListRunning: could not parse output", "error", errW)
		return nil, ParseStats{}, errW
	}

	stats := outStats.Add(errStats)
	if stats.Malformed > 0 {
		logger.DebugContext(ctx, "ListRunning: dropped malformed status lines", "count", stats.Malformed)
	}

	out := make([]*api.Session, 0, len(outSessions)+len(errSessions))
	out = append(out, outSessions...)
	out = append(out, errSessions...)
	logger.InfoContext(ctx, "ListRunning: parsed running servers", "count", len(out))
	return out, stats, nil
}
