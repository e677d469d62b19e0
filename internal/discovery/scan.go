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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eminwux/jlab/internal/common"
)

// scanMetadataFiles decodes every <runPath>/<subDir>/*/metadata.json.
// Unreadable or corrupt files are skipped so that one broken session
// directory does not hide the others.
func scanMetadataFiles[T any](
	ctx context.Context,
	logger *slog.Logger,
	runPath string,
	subDir string,
	logPrefix string,
	idGetter func(T) string,
) ([]T, error) {
	pattern := filepath.Join(runPath, subDir, "*", common.MetadataFile)
	logger.DebugContext(ctx, logPrefix+": globbing for metadata", "pattern", pattern)
	paths, err := filepath.Glob(pattern)
	if err != nil {
		logger.ErrorContext(ctx, logPrefix+": glob failed", "error", err)
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}

	out := make([]T, 0, len(paths))
	for _, p := range paths {
		select {
		case <-ctx.Done():
			logger.WarnContext(ctx, logPrefix+": context done while reading")
			return nil, ctx.Err()
		default:
		}
		b, errRead := os.ReadFile(p)
		if errRead != nil {
			logger.WarnContext(ctx, logPrefix+": skipping unreadable file", "file", p, "error", errRead)
			continue
		}
		var s T
		if errUnmarshal := json.Unmarshal(b, &s); errUnmarshal != nil {
			logger.WarnContext(ctx, logPrefix+": skipping corrupt file", "file", p, "error", errUnmarshal)
			continue
		}
		logger.DebugContext(ctx, logPrefix+": loaded metadata", "id", idGetter(s))
		out = append(out, s)
	}

	logger.InfoContext(ctx, logPrefix+": finished scanning", "count", len(out))
	return out, nil
}

// findMetadataBy returns a copy of the first item matching predicate.
func findMetadataBy[T any](items []T, predicate func(T) bool, notFound error) (*T, error) {
	for _, item := range items {
		if predicate(item) {
			result := item
			return &result, nil
		}
	}
	return nil, notFound
}

// pruneMetadata removes every item for which isGone reports true and
// returns how many were removed.
func pruneMetadata[T any](
	ctx context.Context,
	logger *slog.Logger,
	w io.Writer,
	items []T,
	logPrefix string,
	isGone func(T) bool,
	pruneFunc func(T) error,
	idGetter func(T) string,
	labelGetter func(T) string,
) (int, error) {
	pruned := 0
	for _, item := range items {
		if !isGone(item) {
			continue
		}
		logger.InfoContext(ctx, logPrefix+": pruning", "id", idGetter(item))
		if errP := pruneFunc(item); errP != nil {
			logger.ErrorContext(ctx, logPrefix+": prune failed", "id", idGetter(item), "error", errP)
			return pruned, fmt.Errorf("prune %s: %w", idGetter(item), errP)
		}
		pruned++
		if w != nil {
			fmt.Fprintf(w, "Pruned session %s (%s)\n", idGetter(item), labelGetter(item))
		}
	}
	logger.InfoContext(ctx, logPrefix+": prune complete", "pruned", pruned)
	return pruned, nil
}
