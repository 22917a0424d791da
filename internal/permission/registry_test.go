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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates that permission codes are strictly shaped as module.action.
// Scope: Unit Test
// Security: Input validation at the authorization boundary (fail closed on malformed codes)
// Expected: Well-formed codes parse; empty parts, extra separators and uppercase are rejected.
// Test Case ID: PERM-01
func TestPermission_Parse(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"projects.create", false},
		{"change_requests.approve", false},
		{"tasks.assign", false},
		{"m0dule1.action2", false},
		{"projects", true},
		{"projects.", true},
		{".create", true},
		{"projects.create.all", true},
		{"Projects.create", true},
		{"projects.Create", true},
		{"projects.cre ate", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			code, err := Parse(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.raw, code.String())
		})
	}
}

// TestPurpose: Validates module and action accessors on a parsed code.
// Scope: Unit Test
// Expected: Module returns the namespace prefix, Action the remainder.
// Test Case ID: PERM-02
func TestPermission_Code_Parts(t *testing.T) {
	code := MustParse("documents.upload")
	assert.Equal(t, "documents", code.Module())
	assert.Equal(t, "upload", code.Action())
}

// TestPurpose: Validates registry registration, duplicate rejection and lookup.
// Scope: Unit Test
// Expected: A registered code exists and is describable; re-registering the
// same code fails with ErrDuplicateCode; unknown codes report ErrNotFound.
// Test Case ID: PERM-03
func TestPermission_Registry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()

	p := Permission{Code: MustParse("projects.create"), Description: "Create projects"}
	require.NoError(t, r.Register(p))

	assert.True(t, r.Exists(p.Code))
	got, err := r.Describe(p.Code)
	require.NoError(t, err)
	assert.Equal(t, "projects", got.Module)
	assert.Equal(t, "create", got.Action)

	err = r.Register(p)
	assert.ErrorIs(t, err, ErrDuplicateCode)

	assert.False(t, r.Exists(MustParse("projects.delete")))
	_, err = r.Describe(MustParse("projects.delete"))
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestPurpose: Validates that the seeded catalog registry is complete and consistent.
// Scope: Unit Test
// Expected: Every catalog entry exists in the registry, All() is sorted by
// code, and module/action fields match the code.
// Test Case ID: PERM-04
func TestPermission_CatalogRegistry(t *testing.T) {
	r := NewCatalogRegistry()

	all := r.All()
	require.Equal(t, len(Catalog()), len(all))

	for i, p := range all {
		assert.True(t, r.Exists(p.Code))
		assert.Equal(t, p.Code.Module(), p.Module)
		assert.Equal(t, p.Code.Action(), p.Action)
		if i > 0 {
			assert.Less(t, all[i-1].Code, p.Code, "All() must be sorted by code")
		}
	}

	assert.True(t, r.Exists(ProjectsView))
	assert.True(t, r.Exists(MatrixImport))
	assert.True(t, r.Exists(PlatformAdminTenant))
}

// TestPurpose: Validates the mutating classification used for audit sampling.
// Scope: Unit Test
// Expected: view/list/export actions are read-only; everything else mutates.
// Test Case ID: PERM-05
func TestPermission_Mutating(t *testing.T) {
	r := NewCatalogRegistry()

	view, err := r.Describe(ProjectsView)
	require.NoError(t, err)
	assert.False(t, view.Mutating())

	export, err := r.Describe(MatrixExport)
	require.NoError(t, err)
	assert.False(t, export.Mutating())

	create, err := r.Describe(ProjectsCreate)
	require.NoError(t, err)
	assert.True(t, create.Mutating())

	imp, err := r.Describe(MatrixImport)
	require.NoError(t, err)
	assert.True(t, imp.Mutating())
}
