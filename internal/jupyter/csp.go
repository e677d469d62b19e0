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

package jupyter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eminwux/jlab/internal/errdefs"
)

const (
	cspLine    = `c.ServerApp.tornado_settings = {'headers': {'Content-Security-Policy': "frame-ancestors 'self' *"}}`
	originLine = `c.ServerApp.allow_origin = '*'`
)

// EnsureCSPConfig appends the permissive CSP settings to the jupyter python
// config at path unless they are already there. It reports whether the
// file was modified.
func EnsureCSPConfig(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("%w: read %s: %w", errdefs.ErrJupyterConfig, path, err)
	}
	if strings.Contains(string(content), cspLine) {
		return false, nil
	}

	if errM := os.MkdirAll(filepath.Dir(path), 0o755); errM != nil {
		return false, fmt.Errorf("%w: %w", errdefs.ErrJupyterConfig, errM)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return false, fmt.Errorf("%w: open %s: %w", errdefs.ErrJupyterConfig, path, err)
	}
	defer f.Close()

	var sb strings.Builder
	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString(cspLine + "\n")
	sb.WriteString(originLine + "\n")

	if _, err := f.WriteString(sb.String()); err != nil {
		return false, fmt.Errorf("%w: write %s: %w", errdefs.ErrJupyterConfig, path, err)
	}
	return true, nil
}
