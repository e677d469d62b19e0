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

package supervisor

import (
	"context"

	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/pkg/api"
)

// ControllerTest is a test double for api.LabController.
type ControllerTest struct {
	// Last-call trackers
	LastOpen        *api.OpenRequest
	LastStopPort    uint16
	LastCloseReason error

	OpenFunc       func(ctx context.Context, req *api.OpenRequest) (*api.Session, error)
	ListFunc       func(ctx context.Context) ([]*api.Session, error)
	StopServerFunc func(ctx context.Context, port uint16) error
	StopFunc       func() error
	KillFunc       func() error
	WaitFunc       func(ctx context.Context) error
	CloseFunc      func(reason error) error
	SessionsFunc   func() []*api.Session
}

func NewLabControllerTest() *ControllerTest {
	return &ControllerTest{
		StopFunc:  func() error { return nil },
		KillFunc:  func() error { return nil },
		CloseFunc: func(_ error) error { return nil },
		WaitFunc: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
}

func (t *ControllerTest) Open(ctx context.Context, req *api.OpenRequest) (*api.Session, error) {
	t.LastOpen = req
	if t.OpenFunc != nil {
		return t.OpenFunc(ctx, req)
	}
	return nil, errdefs.ErrFuncNotSet
}

func (t *ControllerTest) List(ctx context.Context) ([]*api.Session, error) {
	if t.ListFunc != nil {
		return t.ListFunc(ctx)
	}
	return nil, errdefs.ErrFuncNotSet
}

func (t *ControllerTest) StopServer(ctx context.Context, port uint16) error {
	t.LastStopPort = port
	if t.StopServerFunc != nil {
		return t.StopServerFunc(ctx, port)
	}
	return errdefs.ErrFuncNotSet
}

func (t *ControllerTest) Stop() error {
	if t.StopFunc != nil {
		return t.StopFunc()
	}
	return errdefs.ErrFuncNotSet
}

func (t *ControllerTest) Kill() error {
	if t.KillFunc != nil {
		return t.KillFunc()
	}
	return errdefs.ErrFuncNotSet
}

func (t *ControllerTest) Wait(ctx context.Context) error {
	if t.WaitFunc != nil {
		return t.WaitFunc(ctx)
	}
	return errdefs.ErrFuncNotSet
}

func (t *ControllerTest) Close(reason error) error {
	t.LastCloseReason = reason
	if t.CloseFunc != nil {
		return t.CloseFunc(reason)
	}
	return errdefs.ErrFuncNotSet
}

func (t *ControllerTest) Sessions() []*api.Session {
	if t.SessionsFunc != nil {
		return t.SessionsFunc()
	}
	return nil
}
