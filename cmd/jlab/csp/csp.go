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

package csp

import (
	"fmt"

	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/jupyter"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCSPCmd() *cobra.Command {
	cspCmd := &cobra.Command{
		Use:   "csp",
		Short: "Allow Jupyter Lab to be embedded in other pages",
		Long: `Append a permissive Content-Security-Policy and allow_origin setting to the
Jupyter python config so that Lab can be shown inside an iframe.

The file is left untouched when the settings are already present.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.FromContext(cmd.Context())
			if err != nil {
				return err
			}

			path := viper.GetString(config.JUPYTER_CONFIG_FILE.ViperKey)
			changed, err := jupyter.EnsureCSPConfig(path)
			if err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "jupyter config checked", "path", path, "changed", changed)

			if changed {
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already allows embedding\n", path)
			}
			return nil
		},
	}

	setupCSPCmd(cspCmd)
	return cspCmd
}

func setupCSPCmd(cspCmd *cobra.Command) {
	cspCmd.Flags().String("file", "", "jupyter python config to update (default: ~/.jupyter/jupyter_lab_config.py)")
	_ = viper.BindPFlag(config.JUPYTER_CONFIG_FILE.ViperKey, cspCmd.Flags().Lookup("file"))
}
