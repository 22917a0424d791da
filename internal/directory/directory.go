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

// Package directory is the read model over users, tenants and projects that
// the authorization engine needs: whether a user exists, whether a tenant
// exists, and which tenant a project belongs to. The records themselves are
// owned by the surrounding CRUD application.
package directory

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrTenantNotFound  = errors.New("tenant not found")
	ErrProjectNotFound = errors.New("project not found")
)

// Tenant status constants
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// User is the identity slice of a platform user.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	TenantID  *string   `json:"tenant_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Tenant represents an isolated customer account.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a tenant-owned project. TenantID is the isolation boundary.
type Project struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SetTenantID implements tenantscope.TenantOwned.
func (p *Project) SetTenantID(id string) { p.TenantID = id }

// GetTenantID implements tenantscope.TenantOwned.
func (p *Project) GetTenantID() string { return p.TenantID }

// Reader resolves identity and tenancy facts for context building.
type Reader interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetTenant(ctx context.Context, id string) (*Tenant, error)
	GetProject(ctx context.Context, id string) (*Project, error)
}
