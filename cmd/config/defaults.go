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
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const dirName = ".jlab"

func baseDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		// fallback to tmp if home dir cannot be determined
		base = os.TempDir()
	}
	return filepath.Join(base, dirName)
}

func DefaultRunPath() string {
	return filepath.Join(baseDir(), "run")
}

func DefaultProfilesFile() string {
	return filepath.Join(baseDir(), "profiles.yaml")
}

func DefaultConfigFile() string {
	return filepath.Join(baseDir(), "config.yaml")
}

func DefaultDBFile() string {
	return filepath.Join(baseDir(), "recent.db")
}

// DefaultJupyterConfigFile is where `jupyter lab` reads its python config.
func DefaultJupyterConfigFile() string {
	base, err := os.UserHomeDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, ".jupyter", "jupyter_lab_config.py")
}

// GetRunPathFromEnvAndFlags resolves the run path during shell completion,
// where PersistentPreRunE has not loaded the config yet.
func GetRunPathFromEnvAndFlags(cmd *cobra.Command) (string, error) {
	runPath, _ := cmd.Flags().GetString("run-path")
	if runPath == "" {
		if env := os.Getenv(RUN_PATH.Key); env != "" {
			runPath = env
		} else {
			runPath = DefaultRunPath()
		}
	}
	return runPath, nil
}

func GetProfilesFileFromEnvAndFlags(cmd *cobra.Command) (string, error) {
	profilesFile, _ := cmd.Flags().GetString("profiles")
	if profilesFile == "" {
		if env := os.Getenv(PROFILES_FILE.Key); env != "" {
			profilesFile = env
		} else {
			profilesFile = DefaultProfilesFile()
		}
	}
	return profilesFile, nil
}

func GetDBFileFromEnvAndFlags(cmd *cobra.Command) (string, error) {
	dbFile, _ := cmd.Flags().GetString("db")
	if dbFile == "" {
		if env := os.Getenv(DB_FILE.Key); env != "" {
			dbFile = env
		} else {
			dbFile = DefaultDBFile()
		}
	}
	return dbFile, nil
}
