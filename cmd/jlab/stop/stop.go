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

package stop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/discovery"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/jupyter"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/eminwux/jlab/internal/supervisor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewStopCmd() *cobra.Command {
	stopCmd := &cobra.Command{
		Use:   "stop PORT|ID",
		Short: "Stop a running Jupyter server",
		Long: `Stop the Jupyter server listening on PORT with "jupyter lab stop".

ID may name a server launched by "jlab open"; its recorded port and
Jupyter binary are used.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			runPath, _ := config.GetRunPathFromEnvAndFlags(cmd)
			keys, err := config.AutoCompleteListLaunchedKeys(cmd.Context(), nil, runPath)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return keys, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.FromContext(cmd.Context())
			if err != nil {
				return err
			}

			port, bin, err := ResolveTarget(
				cmd.Context(),
				logger,
				viper.GetString(config.RUN_PATH.ViperKey),
				args[0],
				viper.GetString(config.JUPYTER_BIN.ViperKey),
			)
			if err != nil {
				return err
			}

			ctrl := supervisor.NewLabController(logger, jupyter.NewCommandRunnerExec(nil), supervisor.Options{JupyterBin: bin})
			if errS := ctrl.StopServer(cmd.Context(), port); errS != nil {
				return errS
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped server on port %d\n", port)
			return nil
		},
	}

	return stopCmd
}

// ResolveTarget maps a stop argument to a port and the Jupyter binary that
// should stop it. Numeric arguments are ports. Anything else must be the ID
// of a launched session.
func ResolveTarget(
	ctx context.Context,
	logger *slog.Logger,
	runPath string,
	arg string,
	defaultBin string,
) (uint16, string, error) {
	if n, err := strconv.ParseUint(arg, 10, 16); err == nil {
		if n == 0 {
			return 0, "", fmt.Errorf("%w: port must be between 1 and 65535", errdefs.ErrInvalidArgument)
		}
		return uint16(n), defaultBin, nil
	}

	m, err := discovery.FindLaunched(ctx, logger, runPath, arg)
	if err != nil {
		if errors.Is(err, errdefs.ErrSessionNotFound) {
			return 0, "", fmt.Errorf("%w: %q is neither a port nor a launched session: %w",
				errdefs.ErrInvalidArgument, arg, err)
		}
		return 0, "", err
	}

	bin := defaultBin
	if m.Spec.JupyterBin != "" {
		bin = m.Spec.JupyterBin
	}
	logger.DebugContext(ctx, "resolved launched session", "id", m.Spec.ID, "port", m.Spec.Port, "bin", bin)
	return m.Spec.Port, bin, nil
}
