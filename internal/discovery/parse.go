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
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/jupyter"
	"github.com/eminwux/jlab/pkg/api"
)

const fieldSeparator = "::"

// ParseStats counts what ParseOutput saw. Malformed lines are dropped
// without failing the parse.
type ParseStats struct {
	Candidates int
	Parsed     int
	Malformed  int
}

func (p ParseStats) Add(o ParseStats) ParseStats {
	return ParseStats{
		Candidates: p.Candidates + o.Candidates,
		Parsed:     p.Parsed + o.Parsed,
		Malformed:  p.Malformed + o.Malformed,
	}
}

// ParseOutput turns `jupyter lab list` output into sessions, in input order.
// Only lines starting with "http" or the list app log tag are considered;
// they must split on "::" into exactly a link and a folder.
func ParseOutput(data []byte) ([]*api.Session, ParseStats, error) {
	return parseOutput(nil, data)
}

func parseOutput(logger *slog.Logger, data []byte) ([]*api.Session, ParseStats, error) {
	var stats ParseStats
	if !utf8.Valid(data) {
		return nil, stats, errdefs.ErrDecodeOutput
	}

	var out []*api.Session
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if !isCandidate(line) {
			continue
		}
		stats.Candidates++

		s, err := parseLine(line)
		if err != nil {
			stats.Malformed++
			if logger != nil {
				logger.Debug("dropping status line", "line", line, "error", err)
			}
			continue
		}
		stats.Parsed++
		out = append(out, s)
	}
	return out, stats, nil
}

func isCandidate(line string) bool {
	return strings.HasPrefix(line, "http") || strings.HasPrefix(line, jupyter.LogTag)
}

func parseLine(line string) (*api.Session, error) {
	fields := strings.Split(line, fieldSeparator)
	if len(fields) != 2 {
		return nil, fmt.Errorf("%w: expected 2 fields, got %d", errdefs.ErrMalformedStatusLine, len(fields))
	}

	link := strings.TrimSpace(fields[0])
	link = strings.TrimSpace(strings.TrimPrefix(link, jupyter.LogTag))
	folder := strings.TrimSpace(fields[1])

	s, err := api.NewSession(link, folder)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errdefs.ErrMalformedStatusLine, err)
	}
	return s, nil
}
