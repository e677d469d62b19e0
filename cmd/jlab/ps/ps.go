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

package ps

import (
	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/discovery"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	allKey    = "jlab.ps.all"
	outputKey = "jlab.ps.output"
)

func NewPsCmd() *cobra.Command {
	// psCmd lists the servers launched by jlab itself.
	psCmd := &cobra.Command{
		Use:   "ps",
		Short: "List servers launched by jlab",
		Long: `List the servers launched by "jlab open", read from the run path.

Servers whose process is gone are hidden unless --all is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.FromContext(cmd.Context())
			if err != nil {
				return err
			}
			format := viper.GetString(outputKey)
			if errV := discovery.ValidateFormat(format); errV != nil {
				return errV
			}

			logger.DebugContext(cmd.Context(), "ps", "all", viper.GetBool(allKey), "output", format)
			return discovery.ScanAndPrintLaunched(
				cmd.Context(),
				logger,
				viper.GetString(config.RUN_PATH.ViperKey),
				cmd.OutOrStdout(),
				viper.GetBool(allKey),
				format,
			)
		},
	}

	setupPsCmd(psCmd)
	return psCmd
}

func setupPsCmd(psCmd *cobra.Command) {
	psCmd.Flags().BoolP("all", "a", false, "include exited and dead servers")
	_ = viper.BindPFlag(allKey, psCmd.Flags().Lookup("all"))

	psCmd.Flags().StringP("output", "o", "", "Output format: json|yaml (default: table)")
	_ = viper.BindPFlag(outputKey, psCmd.Flags().Lookup("output"))
	_ = psCmd.RegisterFlagCompletionFunc(
		"output",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{discovery.FormatJSON, discovery.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
		},
	)

	psCmd.AddCommand(NewPruneCmd())
}
