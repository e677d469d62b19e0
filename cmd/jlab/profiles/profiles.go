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
	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/discovery"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/eminwux/jlab/internal/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const outputKey = "jlab.profiles.output"

func NewProfilesCmd() *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"p"},
		Short:   "List launch profiles",
		Long: `List the launch profiles defined in the profiles file.

Use "jlab profiles get NAME" to print one profile in full.`,
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

			profiles, err := profile.Load(cmd.Context(), logger, viper.GetString(config.PROFILES_FILE.ViperKey))
			if err != nil {
				return err
			}
			return discovery.PrintProfiles(cmd.OutOrStdout(), profiles, format)
		},
	}

	setupProfilesCmd(profilesCmd)
	return profilesCmd
}

func setupProfilesCmd(profilesCmd *cobra.Command) {
	profilesCmd.PersistentFlags().StringP("output", "o", "", "Output format: json|yaml (default: table)")
	_ = viper.BindPFlag(outputKey, profilesCmd.PersistentFlags().Lookup("output"))
	_ = profilesCmd.RegisterFlagCompletionFunc(
		"output",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{discovery.FormatJSON, discovery.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
		},
	)

	profilesCmd.AddCommand(NewProfilesGetCmd())
}
