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

package naming

import (
	"crypto/rand"
	"encoding/hex"
)

const (
	TokenPrefix = "jupyter:"
	TokenLength = 48

	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// largest multiple of len(alphanumeric) that fits in a byte
	maxUnbiased = 248
)

// RandomToken returns TokenPrefix followed by TokenLength alphanumeric
// characters. The token is an opaque shared secret handed to the server.
func RandomToken() string {
	out := make([]byte, 0, len(TokenPrefix)+TokenLength)
	out = append(out, TokenPrefix...)

	buf := make([]byte, TokenLength*2)
	for len(out) < len(TokenPrefix)+TokenLength {
		if _, err := rand.Read(buf); err != nil {
			panic("naming: crypto/rand failed: " + err.Error())
		}
		for _, b := range buf {
			if b >= maxUnbiased {
				continue
			}
			out = append(out, alphanumeric[int(b)%len(alphanumeric)])
			if len(out) == len(TokenPrefix)+TokenLength {
				break
			}
		}
	}
	return string(out)
}

func RandomID() string {
	length := 4
	b := make([]byte, length)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
