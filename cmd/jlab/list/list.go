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

package list

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/discovery"
	"github.com/eminwux/jlab/internal/jupyter"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/eminwux/jlab/internal/supervisor"
	"github.com/eminwux/jlab/pkg/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const (
	outputKey = "jlab.list.output"
	checkKey  = "jlab.list.check"

	healthChecksInFlight = 8
)

func NewListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List running Jupyter servers",
		Long: `List the Jupyter servers reported by "jupyter lab list", whoever started them.

With --check every server's URL is probed and a HEALTH column is added.`,
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

			ctrl := supervisor.NewLabController(
				logger,
				jupyter.NewCommandRunnerExec(nil),
				supervisor.Options{JupyterBin: viper.GetString(config.JUPYTER_BIN.ViperKey)},
			)
			return Run(cmd.Context(), logger, ctrl, nil, viper.GetBool(checkKey), format, cmd.OutOrStdout())
		},
	}

	setupListCmd(listCmd)
	return listCmd
}

func setupListCmd(listCmd *cobra.Command) {
	listCmd.Flags().StringP("output", "o", "", "Output format: json|yaml (default: table)")
	_ = viper.BindPFlag(outputKey, listCmd.Flags().Lookup("output"))
	_ = listCmd.RegisterFlagCompletionFunc(
		"output",
		func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return []string{discovery.FormatJSON, discovery.FormatYAML}, cobra.ShellCompDirectiveNoFileComp
		},
	)

	listCmd.Flags().Bool("check", false, "probe each server and report whether it answers")
	_ = viper.BindPFlag(checkKey, listCmd.Flags().Lookup("check"))
}

// Run lists the running servers and prints them to w. When check is set
// every server is probed with client, a few at a time.
func Run(
	ctx context.Context,
	logger *slog.Logger,
	ctrl api.LabController,
	client *http.Client,
	check bool,
	format string,
	w io.Writer,
) error {
	sessions, err := ctrl.List(ctx)
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "running servers listed", "count", len(sessions))

	rows := make([]discovery.RunningRow, len(sessions))
	for i, s := range sessions {
		rows[i] = discovery.RunningRow{Session: *s}
	}

	if check {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(healthChecksInFlight)
		for i := range rows {
			g.Go(func() error {
				healthy := discovery.CheckHealth(gctx, client, rows[i].Link)
				rows[i].Healthy = &healthy
				return nil
			})
		}
		_ = g.Wait()
	}

	return discovery.PrintRunning(w, rows, format)
}
