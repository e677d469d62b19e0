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
	"fmt"

	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/discovery"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewPruneCmd() *cobra.Command {
	pruneCmd := &cobra.Command{
		Use:     "prune",
		Aliases: []string{"p"},
		Short:   "Remove records of servers that are no longer running",
		Long: `Remove the run-path directories of launched servers whose process is gone.
Capture files are removed with them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.FromContext(cmd.Context())
			if err != nil {
				return err
			}

			logger.DebugContext(cmd.Context(), "ps prune")

			n, err := discovery.ScanAndPruneLaunched(
				cmd.Context(),
				logger,
				viper.GetString(config.RUN_PATH.ViperKey),
				cmd.OutOrStdout(),
			)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to prune")
			}
			return nil
		},
	}

	return pruneCmd
}
