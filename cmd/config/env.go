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

	"github.com/spf13/viper"
)

type Var struct {
	Key        string // e.g. "JLAB_RUN_PATH"
	ViperKey   string // optional, e.g. "jlab.global.runPath"
	Default    string // optional
	HasDefault bool
}

func DefineKV(envName, viperKey string, defaultVal ...string) Var {
	v := Var{Key: envName, ViperKey: viperKey}
	if len(defaultVal) > 0 {
		v.Default = defaultVal[0]
		v.HasDefault = true
	}
	return v
}

func Define(envName string, defaultVal ...string) Var {
	return DefineKV(envName, "", defaultVal...)
}

func (v *Var) EnvKey() string               { return v.Key }
func (v *Var) DefaultValue() (string, bool) { return v.Default, v.HasDefault }

// ValueOrDefault defines precedence: viper (if ViperKey set and value present) → OS env → default → "".
func (v *Var) ValueOrDefault() string {
	if v.ViperKey != "" && viper.IsSet(v.ViperKey) {
		if s := viper.GetString(v.ViperKey); s != "" {
			return s
		}
	}
	if val, ok := os.LookupEnv(v.Key); ok {
		return val
	}
	if v.HasDefault {
		return v.Default
	}
	return ""
}

// BindEnv is safe if ViperKey is empty: does nothing.
func (v *Var) BindEnv() error {
	if v.ViperKey == "" {
		return nil
	}
	return viper.BindEnv(v.ViperKey, v.Key)
}

func (v *Var) Set(value string) error {
	return os.Setenv(v.Key, value)
}

func (v *Var) SetDefault(val string) {
	v.Default = val
	v.HasDefault = true
	if v.ViperKey != "" {
		viper.SetDefault(v.ViperKey, val)
	}
}

func KV(v Var, value string) string { return v.Key + "=" + value }

// ---- Declare statically (Viper key optional per var) ----.
var (
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	CONFIG_FILE = DefineKV("JLAB_CONFIG_FILE", "jlab.global.configFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	RUN_PATH = DefineKV("JLAB_RUN_PATH", "jlab.global.runPath")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	LOG_LEVEL = DefineKV("JLAB_LOG_LEVEL", "jlab.global.logLevel", "warn")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	LOG_FILE = DefineKV("JLAB_LOG_FILE", "jlab.global.logFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	PROFILES_FILE = DefineKV("JLAB_PROFILES_FILE", "jlab.global.profilesFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	DB_FILE = DefineKV("JLAB_DB_FILE", "jlab.global.dbFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	JUPYTER_BIN = DefineKV("JLAB_JUPYTER_BIN", "jlab.jupyter.bin", "jupyter")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	JUPYTER_CONFIG_FILE = DefineKV("JLAB_JUPYTER_CONFIG_FILE", "jlab.jupyter.configFile")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	READY_TIMEOUT = DefineKV("JLAB_READY_TIMEOUT", "jlab.open.readyTimeout", "60s")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	REPLACE_POLICY = DefineKV("JLAB_REPLACE_POLICY", "jlab.open.replacePolicy", "terminate")

	// Exported to the launched server so child tools can find their session.
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	SESSION_ID = Define("JLAB_SESSION_ID")
	//nolint:revive,gochecknoglobals,staticcheck // ignore linter warning about this variable
	SESSION_ORIGIN = Define("JLAB_SESSION_ORIGIN")
)
