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

import (
	"context"
	"time"
)

// OpenRequest describes one server launch.
type OpenRequest struct {
	Folder string
	// Port is the requested port; 0 picks a free one.
	Port      uint16
	Profile   *LaunchProfileDoc
	ExtraArgs []string
	// Wait blocks Open until the server prints its URL or ReadyTimeout
	// elapses.
	Wait         bool
	ReadyTimeout time.Duration
}

type LabController interface {
	Open(ctx context.Context, req *OpenRequest) (*Session, error)
	List(ctx context.Context) ([]*Session, error)
	StopServer(ctx context.Context, port uint16) error
	Stop() error
	Kill() error
	Wait(ctx context.Context) error
	Close(reason error) error
	Sessions() []*Session
}
