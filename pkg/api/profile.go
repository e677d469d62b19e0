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

package api

// apiVersion: jlab/v1beta1
// kind: LaunchProfile

type (
	Version string
	Kind    string
)

const (
	APIVersionV1Beta1 Version = "jlab/v1beta1"
	KindLaunchProfile Kind    = "LaunchProfile"
)

type EnvironmentType string

const (
	EnvPath       EnvironmentType = "path"
	EnvCondaRoot  EnvironmentType = "conda-root"
	EnvCondaEnv   EnvironmentType = "conda-env"
	EnvVirtualEnv EnvironmentType = "venv"
)

// LaunchProfileDoc models one YAML document containing a LaunchProfile.
type LaunchProfileDoc struct {
	APIVersion Version               `json:"apiVersion" yaml:"apiVersion"`
	Kind       Kind                  `json:"kind"       yaml:"kind"`
	Metadata   LaunchProfileMetadata `json:"metadata"   yaml:"metadata"`
	Spec       LaunchProfileSpec     `json:"spec"       yaml:"spec"`
}

type LaunchProfileMetadata struct {
	Name   string            `json:"name"             yaml:"name"`
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
}

type LaunchProfileSpec struct {
	JupyterBin          string            `json:"jupyterBin,omitempty"          yaml:"jupyterBin,omitempty"`
	Environment         EnvironmentSpec   `json:"environment,omitempty"         yaml:"environment,omitempty"`
	ServerArgs          []string          `json:"serverArgs,omitempty"          yaml:"serverArgs,omitempty"`
	OverrideDefaultArgs bool              `json:"overrideDefaultArgs,omitempty" yaml:"overrideDefaultArgs,omitempty"`
	Env                 map[string]string `json:"env,omitempty"                 yaml:"env,omitempty"`
}

// EnvironmentSpec points at the python environment that provides jupyter.
// When JupyterBin is empty the binary is looked up under Path.
type EnvironmentSpec struct {
	Type EnvironmentType `json:"type,omitempty" yaml:"type,omitempty"`
	Path string          `json:"path,omitempty" yaml:"path,omitempty"`
}
