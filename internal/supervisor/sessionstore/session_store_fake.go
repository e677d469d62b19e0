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

package sessionstore

import (
	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/pkg/api"
)

type Test struct {
	// Last-call trackers
	LastPut       *api.Session
	LastGetOrigin string
	LastRemoved   string
	LastMerged    []*api.Session

	PutFunc    func(s *api.Session) error
	GetFunc    func(origin string) (*api.Session, bool)
	ListFunc   func() []*api.Session
	RemoveFunc func(origin string)
	MergeFunc  func(sessions []*api.Session) int
}

func (t *Test) Put(s *api.Session) error {
	t.LastPut = s
	if t.PutFunc != nil {
		return t.PutFunc(s)
	}
	return errdefs.ErrFuncNotSet
}

func (t *Test) Get(origin string) (*api.Session, bool) {
	t.LastGetOrigin = origin
	if t.GetFunc != nil {
		return t.GetFunc(origin)
	}
	return nil, false
}

func (t *Test) List() []*api.Session {
	if t.ListFunc != nil {
		return t.ListFunc()
	}
	return nil
}

func (t *Test) Remove(origin string) {
	t.LastRemoved = origin
	if t.RemoveFunc != nil {
		t.RemoveFunc(origin)
	}
}

func (t *Test) Merge(sessions []*api.Session) int {
	t.LastMerged = sessions
	if t.MergeFunc != nil {
		return t.MergeFunc(sessions)
	}
	return 0
}
