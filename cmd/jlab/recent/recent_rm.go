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
	"fmt"
	"path/filepath"

	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/logging"
	recentstore "github.com/eminwux/jlab/internal/recent"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewRecentRmCmd() *cobra.Command {
	rmCmd := &cobra.Command{
		Use:     "rm FOLDER",
		Aliases: []string{"remove"},
		Short:   "Forget a recently opened folder",
		Args:    cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			dbFile, _ := config.GetDBFileFromEnvAndFlags(cmd)
			folders, err := config.AutoCompleteListRecentFolders(cmd.Context(), nil, dbFile)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return folders, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.FromContext(cmd.Context())
			if err != nil {
				return err
			}

			folder := args[0]
			if abs, errA := filepath.Abs(folder); errA == nil {
				folder = abs
			}

			store, err := recentstore.Open(cmd.Context(), viper.GetString(config.DB_FILE.ViperKey))
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Remove(cmd.Context(), folder)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%w: %q is not a recent folder", errdefs.ErrInvalidArgument, folder)
			}
			logger.InfoContext(cmd.Context(), "recent folder removed", "folder", folder)
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", folder)
			return nil
		},
	}

	return rmCmd
}
