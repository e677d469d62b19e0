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

package profiles

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/spf13/viper"
)

const profilesYAML = `apiVersion: jlab/v1beta1
kind: LaunchProfile
metadata:
  name: datasci
spec:
  environment:
    type: venv
    path: /opt/venvs/datasci
  serverArgs: ["--ServerApp.allow_remote_access=True"]
  env:
    MPLBACKEND: Agg
---
apiVersion: jlab/v1beta1
kind: LaunchProfile
metadata:
  name: plain
spec:
  jupyterBin: /usr/local/bin/jupyter
`

func runProfiles(t *testing.T, profilesFile string, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(viper.Reset)
	viper.Set(config.PROFILES_FILE.ViperKey, profilesFile)

	cmd := NewProfilesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.ExecuteContext(logging.WithLogger(context.Background(), logging.NewNoopLogger(), nil, nil))
	return out.String(), err
}

func writeProfiles(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	if err := os.WriteFile(path, []byte(profilesYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func Test_Profiles_List(t *testing.T) {
	out, err := runProfiles(t, writeProfiles(t))
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	for _, want := range []string{"NAME", "datasci", "venv:/opt/venvs/datasci", "plain", "/usr/local/bin/jupyter"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func Test_Profiles_MissingFile(t *testing.T) {
	out, err := runProfiles(t, filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if !strings.Contains(out, "no profiles found") {
		t.Fatalf("unexpected output %q", out)
	}
}

func Test_Profiles_Get(t *testing.T) {
	out, err := runProfiles(t, writeProfiles(t), "get", "datasci")
	if err != nil {
		t.Fatalf("expected '%v'; got: '%v'", nil, err)
	}
	if !strings.Contains(out, "MPLBACKEND: Agg") {
		t.Fatalf("expected yaml document:\n%s", out)
	}
	if strings.Contains(out, "plain") {
		t.Fatalf("expected only the requested profile:\n%s", out)
	}
}

func Test_ErrProfileNotFound(t *testing.T) {
	_, err := runProfiles(t, writeProfiles(t), "get", "nope")
	if !errors.Is(err, errdefs.ErrProfileNotFound) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrProfileNotFound, err)
	}
}

func Test_Profiles_ErrInvalidOutputFormat(t *testing.T) {
	_, err := runProfiles(t, writeProfiles(t), "-o", "xml")
	if !errors.Is(err, errdefs.ErrInvalidOutputFormat) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrInvalidOutputFormat, err)
	}
}
