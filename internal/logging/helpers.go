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

package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/spf13/cobra"
)

func ParseLevel(lvl string) slog.Level {
	switch lvl {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		// default if unknown
		return slog.LevelInfo
	}
}

// NewLogger builds a ReformatHandler-backed logger writing to w.
func NewLogger(w io.Writer, levelVar *slog.LevelVar) (*slog.Logger, *ReformatHandler) {
	handler := &ReformatHandler{
		Inner:  slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar}),
		Writer: w,
	}
	return slog.New(handler), handler
}

func NewNoopLogger() *slog.Logger {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelError + 1)
	logger, _ := NewLogger(io.Discard, levelVar)
	return logger
}

// WithLogger stores the logger, its level and handler in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger, levelVar *slog.LevelVar, handler *ReformatHandler) context.Context {
	ctx = context.WithValue(ctx, CtxLogger, logger)
	ctx = context.WithValue(ctx, CtxLevelVar, levelVar)
	ctx = context.WithValue(ctx, CtxHandler, handler)
	return ctx
}

func FromContext(ctx context.Context) (*slog.Logger, error) {
	if ctx == nil {
		return nil, errdefs.ErrLoggerNotFound
	}
	logger, ok := ctx.Value(CtxLogger).(*slog.Logger)
	if !ok || logger == nil {
		return nil, errdefs.ErrLoggerNotFound
	}
	return logger, nil
}

// SetLevel changes the level of the logger stored in ctx, if any.
func SetLevel(ctx context.Context, lvl string) {
	if levelVar, ok := ctx.Value(CtxLevelVar).(*slog.LevelVar); ok && levelVar != nil {
		levelVar.Set(ParseLevel(lvl))
	}
}

// SetupFileLogger redirects the context handler to logfile. The opened
// file is stored under CtxCloser so the caller can close it on exit.
func SetupFileLogger(cmd *cobra.Command, logfile string, loglevel string) error {
	if cmd == nil || logfile == "" || loglevel == "" {
		return errors.New("cmd, logfile, and loglevel must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(logfile), 0o700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(ParseLevel(loglevel))
	logger, handler := NewLogger(f, levelVar)

	ctx := WithLogger(cmd.Context(), logger, levelVar, handler)
	ctx = context.WithValue(ctx, CtxCloser, f)

	cmd.SetContext(ctx)
	return nil
}
