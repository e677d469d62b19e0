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

package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eminwux/jlab/internal/discovery"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/eminwux/jlab/internal/profile"
	"github.com/eminwux/jlab/internal/recent"
)

func AutoCompleteListProfileNames(ctx context.Context, logger *slog.Logger, profilesFile string) ([]string, error) {
	// logger is not set on autocomplete calls
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	profiles, err := profile.Load(ctx, logger, profilesFile)
	if err != nil {
		logger.ErrorContext(ctx, "ListProfiles: failed to load profiles", "path", profilesFile, "error", err)
		return nil, err
	}
	if profiles == nil {
		return nil, errors.New("no profiles found")
	}
	return profile.Names(profiles), nil
}

// AutoCompleteListLaunchedKeys returns the ids and ports of launched
// servers that are still alive.
func AutoCompleteListLaunchedKeys(ctx context.Context, logger *slog.Logger, runPath string) ([]string, error) {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	items, err := discovery.ScanLaunched(ctx, logger, runPath)
	if err != nil {
		logger.ErrorContext(ctx, "ListLaunched: failed to scan run path", "path", runPath, "error", err)
		return nil, err
	}

	var keys []string
	for _, m := range items {
		if discovery.IsAlive(ctx, m) {
			keys = append(keys, string(m.Spec.ID), fmt.Sprint(m.Spec.Port))
		}
	}
	return keys, nil
}

func AutoCompleteListRecentFolders(ctx context.Context, logger *slog.Logger, dbFile string) ([]string, error) {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	store, err := recent.Open(ctx, dbFile)
	if err != nil {
		logger.ErrorContext(ctx, "ListRecent: failed to open store", "path", dbFile, "error", err)
		return nil, err
	}
	defer store.Close()

	entries, err := store.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	folders := make([]string, 0, len(entries))
	for _, e := range entries {
		folders = append(folders, e.Folder)
	}
	return folders, nil
}
