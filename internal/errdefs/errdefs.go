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

package errdefs

import "errors"

var (
	ErrFuncNotSet            = errors.New("function not set")
	ErrContextDone           = errors.New("context has been cancelled")
	ErrPortAllocationFailed  = errors.New("could not allocate a free port")
	ErrProcessSpawnFailed    = errors.New("could not spawn server process")
	ErrProcessAlreadyRunning = errors.New("a server process is already tracked")
	ErrServerNotReady        = errors.New("server did not become ready")
	ErrInvalidURL            = errors.New("invalid session url")
	ErrInvalidFolderPath     = errors.New("invalid session folder path")
	ErrStatusCommandFailed   = errors.New("status command failed")
	ErrMalformedStatusLine   = errors.New("malformed status line")
	ErrDecodeOutput          = errors.New("could not decode command output")
	ErrStopCommandFailed     = errors.New("stop command failed")
	ErrWriteMetadata         = errors.New("could not write metadata file")
	ErrSessionNotFound       = errors.New("session not found")
	ErrNoSessionsFound       = errors.New("no sessions found")
	ErrConfig                = errors.New("config error")
	ErrLoggerNotFound        = errors.New("logger not found in context")
	ErrInvalidFlag           = errors.New("invalid flag usage")
	ErrInvalidArgument       = errors.New("invalid positional argument")
	ErrTooManyArguments      = errors.New("too many arguments")
	ErrInvalidOutputFormat   = errors.New("invalid output format")
	ErrInvalidReplacePolicy  = errors.New("invalid replace policy")
	ErrProfileNotFound       = errors.New("launch profile not found")
	ErrOpenProfilesFile      = errors.New("failed to open profiles file")
	ErrRecentStore           = errors.New("error in recent folders store")
	ErrJupyterConfig         = errors.New("could not update jupyter config")
	ErrResolveFolder         = errors.New("cannot resolve folder")
	ErrServerExited          = errors.New("server process exited")
)
