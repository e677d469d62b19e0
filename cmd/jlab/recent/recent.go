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

package recent

import (
	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/discovery"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/logging"
	recentstore "github.com/eminwux/jlab/internal/recent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	limitKey  = "jlab.recent.limit"
	outputKey = "jlab.recent.output"
)

func NewRecentCmd() *cobra.Command {
	recentCmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently opened folders",
		Long: `List the folders "jlab open" served, most recent first.

Use "jlab recent rm FOLDER" to forget a folder.`,
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
			limit := viper.GetInt(limitKey)
			if limit < 0 {
				return errdefs.ErrInvalidFlag
			}

			store, err := recentstore.Open(cmd.Context(), viper.GetString(config.DB_FILE.ViperKey))
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			logger.DebugContext(cmd.Context(), "recent folders listed", "count", len(entries), "limit", limit)
			return discovery.PrintRecent(cmd.OutOrStdout(), entries, format)
		},
	}

	setupRecentCmd(recentCmd)
	return recentCmd
}

func setupRecentCmd(recentCmd *cobra.Command) {
	recentCmd.Flags().IntP("limit", "n", 20, "maximum number of folders to show (0: all)")
	_ = viper.BindPFlag(limitKey, recentCmd.Flags().Lookup("limit"))

	recentCmd.Flags().StringP("output", "o", "", "Output format: json|yaml (default: table)")
	_ = viper.BindPFlag(outputKey, recentCmd.Flags().Lookup("output"))
	_ = recentCmd.RegisterFlagCompletionFunc(
		"output",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{discovery.FormatJSON, discovery.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
		},
	)

	recentCmd.AddCommand(NewRecentRmCmd())
}
