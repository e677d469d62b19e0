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

package jlab

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/cmd/jlab/csp"
	"github.com/eminwux/jlab/cmd/jlab/list"
	"github.com/eminwux/jlab/cmd/jlab/open"
	"github.com/eminwux/jlab/cmd/jlab/profiles"
	"github.com/eminwux/jlab/cmd/jlab/ps"
	"github.com/eminwux/jlab/cmd/jlab/recent"
	"github.com/eminwux/jlab/cmd/jlab/stop"
	"github.com/eminwux/jlab/cmd/jlab/token"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewJlabRootCmd() (*cobra.Command, error) {
	// rootCmd represents the base command when called without any subcommands.
	rootCmd := &cobra.Command{
		Use:   "jlab",
		Short: "jlab launches and supervises local Jupyter Lab servers",
		Long: `jlab launches Jupyter Lab servers for local folders, prints their
connection URL and keeps them alive until you stop them.

You can see available options and commands with:
  jlab help

Examples:
  jlab open ~/notebooks
  jlab open --profile science --port 8899 .
  jlab list --check
  jlab stop 8888
  jlab ps -a
  jlab recent
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := LoadConfig(); err != nil {
				return fmt.Errorf("%w: %w", errdefs.ErrConfig, err)
			}

			logLevel := viper.GetString(config.LOG_LEVEL.ViperKey)
			if logFile := viper.GetString(config.LOG_FILE.ViperKey); logFile != "" {
				return logging.SetupFileLogger(cmd, logFile, logLevel)
			}
			logging.SetLevel(cmd.Context(), logLevel)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c, _ := cmd.Context().Value(logging.CtxCloser).(io.Closer); c != nil {
				_ = c.Close()
			}
			return nil
		},
	}

	if err := setupRootCmd(rootCmd); err != nil {
		return nil, err
	}
	return rootCmd, nil
}

func setupRootCmd(rootCmd *cobra.Command) error {
	rootCmd.AddCommand(open.NewOpenCmd())
	rootCmd.AddCommand(list.NewListCmd())
	rootCmd.AddCommand(stop.NewStopCmd())
	rootCmd.AddCommand(ps.NewPsCmd())
	rootCmd.AddCommand(recent.NewRecentCmd())
	rootCmd.AddCommand(profiles.NewProfilesCmd())
	rootCmd.AddCommand(csp.NewCSPCmd())
	rootCmd.AddCommand(token.NewTokenCmd())

	flags := []struct {
		name  string
		usage string
		v     config.Var
	}{
		{"config", "config file (default is $HOME/.jlab/config.yaml)", config.CONFIG_FILE},
		{"log-level", "log level (debug, info, warn, error)", config.LOG_LEVEL},
		{"log-file", "write logs to this file instead of stderr", config.LOG_FILE},
		{"run-path", "run path directory (default is $HOME/.jlab/run)", config.RUN_PATH},
		{"profiles", "launch profiles file (default is $HOME/.jlab/profiles.yaml)", config.PROFILES_FILE},
		{"db", "recent folders database (default is $HOME/.jlab/recent.db)", config.DB_FILE},
		{"jupyter-bin", "jupyter executable", config.JUPYTER_BIN},
	}
	for _, f := range flags {
		rootCmd.PersistentFlags().String(f.name, "", f.usage)
		if err := viper.BindPFlag(f.v.ViperKey, rootCmd.PersistentFlags().Lookup(f.name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", f.name, err)
		}
	}

	if err := rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	}); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads the config file, when there is one, and registers the
// environment bindings and defaults of every setting.
func LoadConfig() error {
	_ = config.CONFIG_FILE.BindEnv()
	configFile := viper.GetString(config.CONFIG_FILE.ViperKey)
	explicit := configFile != ""
	if !explicit {
		configFile = config.DefaultConfigFile()
	}
	viper.SetConfigFile(configFile)
	viper.SetConfigType("yaml")

	defaults := []struct {
		v   *config.Var
		def string
	}{
		{&config.RUN_PATH, config.DefaultRunPath()},
		{&config.PROFILES_FILE, config.DefaultProfilesFile()},
		{&config.DB_FILE, config.DefaultDBFile()},
		{&config.JUPYTER_CONFIG_FILE, config.DefaultJupyterConfigFile()},
		{&config.LOG_LEVEL, config.LOG_LEVEL.Default},
		{&config.LOG_FILE, ""},
		{&config.JUPYTER_BIN, config.JUPYTER_BIN.Default},
		{&config.READY_TIMEOUT, config.READY_TIMEOUT.Default},
		{&config.REPLACE_POLICY, config.REPLACE_POLICY.Default},
	}
	for _, d := range defaults {
		if err := d.v.BindEnv(); err != nil {
			return fmt.Errorf("bind env %s: %w", d.v.Key, err)
		}
		d.v.SetDefault(d.def)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (!explicit && errors.Is(err, fs.ErrNotExist)) {
			return nil
		}
		return err
	}
	return nil
}
