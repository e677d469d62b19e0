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

package common

import (
	"context"
	"fmt"
	"net"

	"github.com/eminwux/jlab/internal/errdefs"
)

// FreePort asks the kernel for a currently unused TCP port on loopback.
// The port is released before returning, so another process may still
// grab it before the server binds.
func FreePort(ctx context.Context) (uint16, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", errdefs.ErrPortAllocationFailed, err)
	}
	defer ln.Close()

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok || addr.Port == 0 {
		return 0, fmt.Errorf("%w: unexpected listener address %v", errdefs.ErrPortAllocationFailed, ln.Addr())
	}
	return uint16(addr.Port), nil
}

// PortAvailable reports whether port can currently be bound on loopback.
func PortAvailable(ctx context.Context, port uint16) bool {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", net.JoinHostPort("127.0.0.1", fmt.Sprint(port)))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}
