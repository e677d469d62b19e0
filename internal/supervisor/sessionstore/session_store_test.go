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
	"errors"
	"testing"

	"github.com/eminwux/jlab/internal/errdefs"
	"github.com/eminwux/jlab/pkg/api"
)

func mustSession(t *testing.T, link, folder string) *api.Session {
	t.Helper()
	s, err := api.NewSession(link, folder)
	if err != nil {
		t.Fatalf("NewSession(%q): %v", link, err)
	}
	return s
}

func Test_PutLastWriterWins(t *testing.T) {
	store := NewSessionStoreExec()
	first := mustSession(t, "http://localhost:8888/lab?token=a", "/one")
	second := mustSession(t, "http://localhost:8888/tree?token=b", "/two")

	if err := store.Put(first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put(second); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := store.Get("http://localhost:8888")
	if !ok || got.Folder != "/two" {
		t.Fatalf("Get = %+v, %v; want folder /two", got, ok)
	}
	if n := len(store.List()); n != 1 {
		t.Fatalf("List has %d entries; want 1", n)
	}
}

func Test_ListSortedByOrigin(t *testing.T) {
	store := NewSessionStoreExec()
	n := store.Merge([]*api.Session{
		mustSession(t, "http://localhost:9000/", "/c"),
		mustSession(t, "http://localhost:8000/", "/a"),
		nil,
		mustSession(t, "http://127.0.0.1:8500/", "/b"),
	})
	if n != 3 {
		t.Fatalf("Merge stored %d; want 3", n)
	}
	list := store.List()
	want := []string{"http://127.0.0.1:8500", "http://localhost:8000", "http://localhost:9000"}
	for i, s := range list {
		if s.Key() != want[i] {
			t.Errorf("List[%d] = %s; want %s", i, s.Key(), want[i])
		}
	}

	store.Remove("http://localhost:8000")
	if _, ok := store.Get("http://localhost:8000"); ok {
		t.Error("session still present after Remove")
	}
}

func Test_ErrInvalidURL(t *testing.T) {
	store := NewSessionStoreExec()
	err := store.Put(&api.Session{Link: "http://x", Folder: "/x", Title: "x"})
	if !errors.Is(err, errdefs.ErrInvalidURL) {
		t.Fatalf("expected '%v'; got: '%v'", errdefs.ErrInvalidURL, err)
	}
	if !errors.Is(store.Put(nil), errdefs.ErrInvalidURL) {
		t.Fatal("nil session must be rejected")
	}
}
