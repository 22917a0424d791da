// Copyright 2026 The ZenaManage Authors
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

package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrNotFound      = errors.New("permission not found")
	ErrDuplicateCode = errors.New("permission code already registered")
	ErrInvalidCode   = errors.New("invalid permission code")
)

// Code identifies a single permission in the catalog. Codes are
// case-sensitive and dot-namespaced with a module prefix, e.g.
// "projects.create". Construct through Parse so an invalid code is an
// error at construction rather than a lookup miss later.
type Code string

// Parse validates the module.action shape and returns a Code.
func Parse(raw string) (Code, error) {
	module, action, ok := strings.Cut(raw, ".")
	if !ok || module == "" || action == "" {
		return "", fmt.Errorf("%w: %q must have the form module.action", ErrInvalidCode, raw)
	}
	if strings.Contains(action, ".") {
		return "", fmt.Errorf("%w: %q has more than one namespace separator", ErrInvalidCode, raw)
	}
	for _, part := range []string{module, action} {
		for _, r := range part {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
				return "", fmt.Errorf("%w: %q contains character %q", ErrInvalidCode, raw, r)
			}
		}
	}
	return Code(raw), nil
}

// MustParse is Parse for static catalog entries; it panics on a malformed
// code and is only used at bootstrap.
func MustParse(raw string) Code {
	c, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Code) String() string { return string(c) }

// Module returns the namespace prefix of the code.
func (c Code) Module() string {
	module, _, _ := strings.Cut(string(c), ".")
	return module
}

// Action returns the part of the code after the namespace separator.
func (c Code) Action() string {
	_, action, _ := strings.Cut(string(c), ".")
	return action
}

// Permission is an immutable catalog entry. Entries are created by system
// bootstrap, never by end users.
type Permission struct {
	Code        Code   `json:"code"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// Mutating reports whether granting this permission allows state changes.
// Used by the audit layer to decide whether allowed decisions are recorded;
// denials are always recorded.
func (p Permission) Mutating() bool {
	switch p.Action {
	case "view", "list", "export":
		return false
	}
	return true
}
