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

func NewProfilesGetCmd() *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print one launch profile",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			profilesFile, _ := config.GetProfilesFileFromEnvAndFlags(cmd)
			names, err := config.AutoCompleteListProfileNames(cmd.Context(), nil, profilesFile)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
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
			p, err := profile.Find(profiles, args[0])
			if err != nil {
				return err
			}
			return discovery.PrintDocument(cmd.OutOrStdout(), p, format)
		},
	}

	return getCmd
}
