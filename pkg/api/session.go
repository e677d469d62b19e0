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
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/eminwux/jlab/internal/errdefs"
)

// Session describes one reachable Jupyter server: the URL it answers on,
// the folder it serves and the connection metadata derived from the URL.
// A Session is never mutated after NewSession returns it.
type Session struct {
	Link   string  `json:"link"             yaml:"link"`
	Folder string  `json:"folder"           yaml:"folder"`
	Title  string  `json:"title"            yaml:"title"`
	Port   *uint16 `json:"port,omitempty"   yaml:"port,omitempty"`
	Origin *string `json:"origin,omitempty" yaml:"origin,omitempty"`
	Token  *string `json:"token,omitempty"  yaml:"token,omitempty"`
}

//nolint:gochecknoglobals // scheme default ports, read only
var defaultPorts = map[string]uint16{
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
	"ftp":   21,
}

func NewSession(link, folder string) (*Session, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", errdefs.ErrInvalidURL, link, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q: missing scheme or host", errdefs.ErrInvalidURL, link)
	}

	title, err := FolderTitle(folder)
	if err != nil {
		return nil, err
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())

	var port *uint16
	if p := u.Port(); p != "" {
		n, errP := strconv.ParseUint(p, 10, 16)
		if errP != nil {
			return nil, fmt.Errorf("%w: %q: bad port: %w", errdefs.ErrInvalidURL, link, errP)
		}
		v := uint16(n)
		if def, ok := defaultPorts[scheme]; !ok || def != v {
			port = &v
		}
	}

	origin := originOf(scheme, host, port)

	var token *string
	if vals, ok := u.Query()["token"]; ok && len(vals) > 0 {
		// the last occurrence wins
		tok := vals[len(vals)-1]
		token = &tok
	}

	return &Session{
		Link:   link,
		Folder: folder,
		Title:  title,
		Port:   port,
		Origin: &origin,
		Token:  token,
	}, nil
}

func originOf(scheme, host string, port *uint16) string {
	if port != nil {
		return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(int(*port)))
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host
}

// FolderTitle returns the final segment of folder. Both '/' and '\' are
// treated as separators so listings from other platforms still resolve.
// Trailing "." segments are skipped, so "/a/b/." yields "b".
func FolderTitle(folder string) (string, error) {
	trimmed := strings.TrimRight(folder, `/\`)
	for {
		i := strings.LastIndexAny(trimmed, `/\`)
		if i < 0 || trimmed[i+1:] != "." {
			break
		}
		trimmed = strings.TrimRight(trimmed[:i], `/\`)
	}
	name := trimmed[strings.LastIndexAny(trimmed, `/\`)+1:]
	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: %q", errdefs.ErrInvalidFolderPath, folder)
	case len(name) == 2 && name[1] == ':' && trimmed == name:
		// bare drive such as C:\
		return "", fmt.Errorf("%w: %q", errdefs.ErrInvalidFolderPath, folder)
	}
	return name, nil
}

// Key is the registry key of the session: its origin, or "" if unknown.
func (s *Session) Key() string {
	if s == nil || s.Origin == nil {
		return ""
	}
	return *s.Origin
}

func (s *Session) PortValue() (uint16, bool) {
	if s == nil || s.Port == nil {
		return 0, false
	}
	return *s.Port, true
}

func (s *Session) TokenValue() (string, bool) {
	if s == nil || s.Token == nil {
		return "", false
	}
	return *s.Token, true
}

// StatusLine renders the session the way `jupyter lab list` prints it.
func (s *Session) StatusLine() string {
	return s.Link + " :: " + s.Folder
}
