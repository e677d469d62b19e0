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

package jupyter

import (
	"context"
	"sync"

	"github.com/eminwux/jlab/internal/errdefs"
)

type Test struct {
	mu    sync.Mutex
	Calls [][]string

	OutputFunc func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

func (t *Test) Output(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	t.mu.Lock()
	t.Calls = append(t.Calls, append([]string{name}, args...))
	t.mu.Unlock()
	if t.OutputFunc != nil {
		return t.OutputFunc(ctx, name, args...)
	}
	return nil, nil, errdefs.ErrFuncNotSet
}

func (t *Test) LastCall() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.Calls) == 0 {
		return nil
	}
	return t.Calls[len(t.Calls)-1]
}
