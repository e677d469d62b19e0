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

// Package jupyter assembles the command lines jlab hands to the
// `jupyter` executable and runs the short-lived ones.
package jupyter

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/eminwux/jlab/pkg/api"
)

const (
	DefaultBin = "jupyter"
	// LogTag prefixes status lines when jupyter routes them through its logger.
	LogTag = "[JupyterServerListApp]"
)

const tornadoCSP = `--ServerApp.tornado_settings={'headers': {'Content-Security-Policy': 'frame-ancestors *'}}`

// LaunchArgs returns the arguments (without the binary) that start a lab
// server for spec. The server trusts only our token, accepts being framed
// by any origin and serves spec.Folder.
func LaunchArgs(spec *api.LaunchSpec) []string {
	args := []string{
		"lab",
		"--no-browser",
		"--expose-app-in-browser",
		"--ServerApp.port",
		strconv.Itoa(int(spec.Port)),
		// use our token rather than any pre-configured password
		"--ServerApp.password=''",
		"--ServerApp.token",
		spec.Token,
		"--LabApp.quit_button=False",
		tornadoCSP,
		"--ServerApp.allow_origin=*",
		"--ServerApp.allow_credentials=True",
		"--ServerApp.root_dir",
		spec.Folder,
	}
	if !spec.OverrideDefaultArgs {
		args = append(args, "--ContentsManager.allow_hidden=True")
	}
	return append(args, spec.ServerArgs...)
}

func ListArgs() []string {
	return []string{"lab", "list"}
}

func StopArgs(port uint16) []string {
	return []string{"lab", "stop", strconv.Itoa(int(port))}
}

// LaunchURL is the address a server started with LaunchArgs answers on.
func LaunchURL(port uint16, token string) string {
	return fmt.Sprintf("http://localhost:%d/lab?token=%s", port, token)
}

// ReadyPattern matches the line a lab server prints once it listens on port.
func ReadyPattern(port uint16) *regexp.Regexp {
	return regexp.MustCompile(`https?://\S+:` + strconv.Itoa(int(port)) + `/`)
}
