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

import "time"

type ID string

type ServerState int

const (
	Starting ServerState = iota
	Ready
	Exited
)

func (s ServerState) String() string {
	switch s {
	case Starting:
		return "Starting"
	case Ready:
		return "Ready"
	case Exited:
		return "Exited"
	default:
		return "Unknown"
	}
}

// LaunchSpec is everything needed to start one server.
type LaunchSpec struct {
	ID     ID     `json:"id"     yaml:"id"`
	Folder string `json:"folder" yaml:"folder"`
	Port   uint16 `json:"port"   yaml:"port"`
	Token  string `json:"-"      yaml:"-"`

	JupyterBin          string   `json:"jupyterBin"          yaml:"jupyterBin"`
	ServerArgs          []string `json:"serverArgs"          yaml:"serverArgs"`
	OverrideDefaultArgs bool     `json:"overrideDefaultArgs" yaml:"overrideDefaultArgs"`
	Env                 []string `json:"env,omitempty"       yaml:"env,omitempty"`
	ProfileName         string   `json:"profileName"         yaml:"profileName"`

	RunPath     string `json:"runPath"     yaml:"runPath"`
	CaptureFile string `json:"captureFile" yaml:"captureFile"`
}

type SessionStatus struct {
	Pid            int         `json:"pid"                yaml:"pid"`
	State          ServerState `json:"state"              yaml:"state"`
	Link           string      `json:"link"               yaml:"link"`
	Origin         string      `json:"origin"             yaml:"origin"`
	SessionRunPath string      `json:"sessionRunPath"     yaml:"sessionRunPath"`
	StartedAt      time.Time   `json:"startedAt"          yaml:"startedAt"`
	ExitedAt       *time.Time  `json:"exitedAt,omitempty" yaml:"exitedAt,omitempty"`
}

// SessionMetadata is persisted under <runPath>/sessions/<id>/metadata.json
// for every server jlab launches.
type SessionMetadata struct {
	Spec   LaunchSpec    `json:"spec"   yaml:"spec"`
	Status SessionStatus `json:"status" yaml:"status"`
}
