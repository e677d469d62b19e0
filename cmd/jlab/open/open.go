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

package open

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/eminwux/jlab/cmd/config"
	"github.com/eminwux/jlab/internal/common"
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/internal/jupyter"
	"github.com/eminwux/jlab/internal/logging"
	"github.com/eminwux/jlab/internal/profile"
	"github.com/eminwux/jlab/internal/recent"
	"github.com/eminwux/jlab/internal/supervisor"
	"github.com/eminwux/jlab/pkg/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	portKey    = "jlab.open.port"
	profileKey = "jlab.open.profile"
	waitKey    = "jlab.open.wait"
)

func NewOpenCmd() *cobra.Command {
	openCmd := &cobra.Command{
		Use:   "open [FOLDER]",
		Short: "Launch a Jupyter Lab server for a folder",
		Long: `Launch a Jupyter Lab server serving FOLDER (default: the current directory),
print its URL and keep it running until interrupted.

The server is killed, together with the kernels it started, when jlab
receives SIGINT or SIGTERM.`,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			dbFile, _ := config.GetDBFileFromEnvAndFlags(cmd)
			folders, err := config.AutoCompleteListRecentFolders(cmd.Context(), nil, dbFile)
			if err != nil {
				return nil, cobra.ShellCompDirectiveFilterDirs
			}
			return folders, cobra.ShellCompDirectiveFilterDirs
		},
		RunE: runOpen,
	}

	setupOpenCmd(openCmd)
	return openCmd
}

func setupOpenCmd(openCmd *cobra.Command) {
	openCmd.Flags().Uint16("port", 0, "port to serve on (default: a free port)")
	_ = viper.BindPFlag(portKey, openCmd.Flags().Lookup("port"))

	openCmd.Flags().StringP("profile", "p", "", "launch profile to apply")
	_ = viper.BindPFlag(profileKey, openCmd.Flags().Lookup("profile"))
	_ = openCmd.RegisterFlagCompletionFunc(
		"profile",
		func(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			profilesFile, _ := config.GetProfilesFileFromEnvAndFlags(cmd)
			names, err := config.AutoCompleteListProfileNames(cmd.Context(), nil, profilesFile)
			if err != nil {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
	)

	openCmd.Flags().Bool("wait", true, "wait until the server prints its URL")
	_ = viper.BindPFlag(waitKey, openCmd.Flags().Lookup("wait"))

	openCmd.Flags().String("ready-timeout", "", "how long to wait for the server (default 60s)")
	_ = viper.BindPFlag(config.READY_TIMEOUT.ViperKey, openCmd.Flags().Lookup("ready-timeout"))

	openCmd.Flags().String("replace-policy", "", "what to do with a server this jlab already runs: terminate or reject")
	_ = viper.BindPFlag(config.REPLACE_POLICY.ViperKey, openCmd.Flags().Lookup("replace-policy"))
}

func runOpen(cmd *cobra.Command, args []string) error {
	logger, err := logging.FromContext(cmd.Context())
	if err != nil {
		return err
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: expected at most one folder", errdefs.ErrTooManyArguments)
	}

	folder := "."
	if len(args) == 1 {
		folder = args[0]
	}
	folder, err = ResolveFolder(folder)
	if err != nil {
		return err
	}

	policy, err := supervisor.ParseReplacePolicy(viper.GetString(config.REPLACE_POLICY.ViperKey))
	if err != nil {
		return err
	}

	timeout, err := time.ParseDuration(viper.GetString(config.READY_TIMEOUT.ViperKey))
	if err != nil || timeout <= 0 {
		return fmt.Errorf("%w: --ready-timeout %q", errdefs.ErrInvalidFlag, viper.GetString(config.READY_TIMEOUT.ViperKey))
	}

	req := &api.OpenRequest{
		Folder:       folder,
		Port:         uint16(viper.GetUint(portKey)), //nolint:gosec // bound to a uint16 flag
		Wait:         viper.GetBool(waitKey),
		ReadyTimeout: timeout,
	}

	if req.Port != 0 && !common.PortAvailable(cmd.Context(), req.Port) {
		return fmt.Errorf("%w: port %d is in use", errdefs.ErrPortAllocationFailed, req.Port)
	}

	if name := viper.GetString(profileKey); name != "" {
		profiles, errL := profile.Load(cmd.Context(), logger, viper.GetString(config.PROFILES_FILE.ViperKey))
		if errL != nil {
			return errL
		}
		p, errF := profile.Find(profiles, name)
		if errF != nil {
			return errF
		}
		req.Profile = p
	}

	opts := supervisor.Options{
		JupyterBin:    viper.GetString(config.JUPYTER_BIN.ViperKey),
		RunPath:       viper.GetString(config.RUN_PATH.ViperKey),
		ReplacePolicy: policy,
	}
	store, errR := recent.Open(cmd.Context(), viper.GetString(config.DB_FILE.ViperKey))
	if errR != nil {
		logger.WarnContext(cmd.Context(), "recent folders disabled", "error", errR)
	} else {
		defer store.Close()
		opts.Recents = store
	}

	logger.DebugContext(cmd.Context(), "open command invoked",
		"folder", req.Folder,
		"port", req.Port,
		"profile", viper.GetString(profileKey),
		"wait", req.Wait,
		"readyTimeout", req.ReadyTimeout,
		"replacePolicy", policy,
	)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctrl := supervisor.NewLabController(logger, jupyter.NewCommandRunnerExec(nil), opts)
	return Supervise(ctx, logger, ctrl, req, cmd.OutOrStdout())
}

// ResolveFolder makes folder absolute and checks that it is a directory.
func ResolveFolder(folder string) (string, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", errdefs.ErrResolveFolder, folder, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", errdefs.ErrResolveFolder, folder, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%w: %q is not a directory", errdefs.ErrResolveFolder, folder)
	}
	return abs, nil
}

// Supervise opens the server, prints where it is reachable and blocks until
// ctx is done or the server exits. The server is killed either way.
func Supervise(ctx context.Context, logger *slog.Logger, ctrl api.LabController, req *api.OpenRequest, w io.Writer) error {
	session, err := ctrl.Open(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Serving %s (%s)\n", session.Title, session.Folder)
	fmt.Fprintf(w, "    %s\n", session.Link)
	fmt.Fprintln(w, "Press Ctrl+C to stop the server.")

	errWait := ctrl.Wait(ctx)
	if ctx.Err() != nil || errors.Is(errWait, errdefs.ErrContextDone) {
		logger.InfoContext(ctx, "interrupted, stopping server")
		if errC := ctrl.Close(context.Cause(ctx)); errC != nil {
			logger.Warn("error while stopping server", "error", errC)
		}
		fmt.Fprintln(w, "Server stopped.")
		return nil
	}

	if errC := ctrl.Close(errdefs.ErrServerExited); errC != nil {
		logger.Warn("error while cleaning up server", "error", errC)
	}
	if errWait != nil {
		return fmt.Errorf("%w: %w", errdefs.ErrServerExited, errWait)
	}
	return errdefs.ErrServerExited
}
