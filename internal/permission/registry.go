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
	"fmt"
	"sort"
	"sync"
)

// Registry exposes the closed set of valid permission codes. It is the only
// owner of Permission records; everything else resolves codes through it.
type Registry struct {
	mu      sync.RWMutex
	byCode  map[Code]Permission
	ordered []Code
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byCode: make(map[Code]Permission)}
}

// NewCatalogRegistry creates a registry pre-loaded with the static
// ZenaManage catalog. Used by server bootstrap and tests.
func NewCatalogRegistry() *Registry {
	r := NewRegistry()
	for _, p := range Catalog() {
		// Catalog entries are validated at build time via MustParse.
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a permission to the catalog. Bootstrap/seed time only.
func (r *Registry) Register(p Permission) error {
	code, err := Parse(string(p.Code))
	if err != nil {
		return err
	}
	if p.Module != "" && p.Module != code.Module() {
		return fmt.Errorf("%w: module %q does not match code %q", ErrInvalidCode, p.Module, p.Code)
	}
	p.Module = code.Module()
	p.Action = code.Action()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byCode[code]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}
	r.byCode[code] = p
	r.ordered = append(r.ordered, code)
	return nil
}

// Exists reports whether the code is part of the catalog.
func (r *Registry) Exists(code Code) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byCode[code]
	return ok
}

// Describe returns the catalog entry for a code.
func (r *Registry) Describe(code Code) (Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byCode[code]
	if !ok {
		return Permission{}, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	return p, nil
}

// All returns every registered permission sorted by code.
func (r *Registry) All() []Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]Code, len(r.ordered))
	copy(codes, r.ordered)
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	out := make([]Permission, 0, len(codes))
	for _, c := range codes {
		out = append(out, r.byCode[c])
	}
	return out
}
