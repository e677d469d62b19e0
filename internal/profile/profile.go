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

// Package profile loads LaunchProfile documents and applies them to a
// launch spec.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/pkg/api"
	"gopkg.in/yaml.v3"
)

// Load reads a multi-document YAML file. A missing file yields no
// profiles and no error.
func Load(ctx context.Context, logger *slog.Logger, path string) ([]api.LaunchProfileDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.DebugContext(ctx, "profiles file not found", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %q: %w", errdefs.ErrOpenProfilesFile, path, err)
	}
	defer f.Close()
	return LoadFromReader(logger, f)
}

// LoadFromReader decodes one or more YAML documents from r, skipping
// empty ones.
func LoadFromReader(logger *slog.Logger, r io.Reader) ([]api.LaunchProfileDoc, error) {
	dec := yaml.NewDecoder(r)

	var out []api.LaunchProfileDoc
	for {
		var p api.LaunchProfileDoc
		if err := dec.Decode(&p); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decode profile: %w", err)
		}

		if p.Metadata.Name == "" || p.APIVersion == "" || p.Kind == "" {
			logger.Debug("skipping empty/invalid profile document", "name", p.Metadata.Name)
			continue
		}
		if p.Kind != api.KindLaunchProfile {
			return nil, fmt.Errorf("invalid kind %q in profile %q (expected %q)", p.Kind, p.Metadata.Name, api.KindLaunchProfile)
		}
		out = append(out, p)
	}
	return out, nil
}

func Find(profiles []api.LaunchProfileDoc, name string) (*api.LaunchProfileDoc, error) {
	for i := range profiles {
		if profiles[i].Metadata.Name == name {
			return &profiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", errdefs.ErrProfileNotFound, name)
}

// Apply copies the profile into spec. When the profile names no
// jupyterBin but points at an environment, the binary inside it is used
// and its bin directory is put first on PATH.
func Apply(p *api.LaunchProfileDoc, spec *api.LaunchSpec) {
	if p == nil {
		return
	}
	spec.ProfileName = p.Metadata.Name
	spec.ServerArgs = append(spec.ServerArgs, p.Spec.ServerArgs...)
	spec.OverrideDefaultArgs = p.Spec.OverrideDefaultArgs
	spec.Env = append(spec.Env, envSlice(p.Spec.Env)...)

	env := p.Spec.Environment
	if env.Path != "" {
		binDir := filepath.Join(env.Path, "bin")
		spec.Env = append(spec.Env, "PATH="+binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		switch env.Type {
		case api.EnvVirtualEnv:
			spec.Env = append(spec.Env, "VIRTUAL_ENV="+env.Path)
		case api.EnvCondaRoot, api.EnvCondaEnv:
			spec.Env = append(spec.Env, "CONDA_PREFIX="+env.Path)
		case api.EnvPath:
		}
		if p.Spec.JupyterBin == "" {
			spec.JupyterBin = filepath.Join(binDir, "jupyter")
		}
	}
	if p.Spec.JupyterBin != "" {
		spec.JupyterBin = p.Spec.JupyterBin
	}
}

// envSlice renders env as KEY=VALUE pairs in key order.
func envSlice(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+m[k])
	}
	return out
}

// Names lists the profile names, used for shell completion.
func Names(profiles []api.LaunchProfileDoc) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.Metadata.Name)
	}
	return out
}
