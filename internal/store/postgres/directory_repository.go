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

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kha997/zenamanage/internal/directory"
	"github.com/kha997/zenamanage/internal/rbac"
	"github.com/kha997/zenamanage/internal/tenantscope"
)

// DirectoryRepository implements directory.Reader plus the tenant-owned
// project access paths, all of which go through the Tenant Isolation Guard.
type DirectoryRepository struct {
	db    *DB
	guard *tenantscope.Guard
}

// NewDirectoryRepository creates a new directory repository.
func NewDirectoryRepository(db *DB, guard *tenantscope.Guard) *DirectoryRepository {
	return &DirectoryRepository{db: db, guard: guard}
}

// GetUser retrieves a user by id.
func (r *DirectoryRepository) GetUser(ctx context.Context, id string) (*directory.User, error) {
	var (
		user     directory.User
		tenantID sql.NullString
	)
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, email, name, tenant_id, is_active, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Email, &user.Name, &tenantID, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if tenantID.Valid {
		user.TenantID = &tenantID.String
	}
	return &user, nil
}

// GetTenant retrieves a tenant by id.
func (r *DirectoryRepository) GetTenant(ctx context.Context, id string) (*directory.Tenant, error) {
	var tenant directory.Tenant
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, name, status, created_at
		FROM tenants
		WHERE id = $1
	`, id).Scan(&tenant.ID, &tenant.Name, &tenant.Status, &tenant.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return &tenant, nil
}

// GetProject retrieves a project by id. This lookup is deliberately
// unscoped: the Context Extractor uses it to learn which tenant a project
// belongs to before a tenant context exists.
func (r *DirectoryRepository) GetProject(ctx context.Context, id string) (*directory.Project, error) {
	var project directory.Project
	err := r.db.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, created_at
		FROM projects
		WHERE id = $1
	`, id).Scan(&project.ID, &project.TenantID, &project.Name, &project.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// ListProjects returns the caller's tenant's projects. The guard injects
// the tenant predicate; without a tenant context the query is rejected.
func (r *DirectoryRepository) ListProjects(ctx context.Context, actx *rbac.AuthContext) ([]*directory.Project, error) {
	q, err := r.guard.Scope(ctx, tenantscope.Query{
		SQL: `SELECT id, tenant_id, name, created_at FROM projects WHERE 1=1`,
	}, actx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.pool.Query(ctx, q.SQL+` ORDER BY created_at`, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*directory.Project
	for rows.Next() {
		var project directory.Project
		if err := rows.Scan(&project.ID, &project.TenantID, &project.Name, &project.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &project)
	}
	return projects, rows.Err()
}

// CreateProject stamps tenant ownership from the context and inserts. A
// caller-supplied tenant id never survives; context wins.
func (r *DirectoryRepository) CreateProject(ctx context.Context, actx *rbac.AuthContext, project *directory.Project) error {
	if err := r.guard.StampTenant(ctx, project, actx); err != nil {
		return err
	}
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO projects (id, tenant_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, project.ID, project.TenantID, project.Name, project.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}
