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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kha997/zenamanage/internal/audit"
)

// auditChainLockKey serializes appends so the hash chain has a single
// writer per transaction. pg_advisory_xact_lock releases on commit.
const auditChainLockKey = 874411

// AuditRepository implements audit.Recorder on PostgreSQL. The table is
// append-only; a database trigger rejects UPDATE and DELETE.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository.
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append seals the entry into the hash chain and inserts it.
func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertAuditEntry(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// insertAuditEntry writes one chained entry inside an existing
// transaction. Store mutations use it so the entry commits atomically with
// the rows it describes.
func insertAuditEntry(ctx context.Context, tx pgx.Tx, entry *audit.Entry) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, auditChainLockKey); err != nil {
		return fmt.Errorf("failed to lock audit chain: %w", err)
	}

	var prevHash string
	err := tx.QueryRow(ctx, `
		SELECT hash FROM audit_log ORDER BY seq DESC LIMIT 1
	`).Scan(&prevHash)
	if err != nil && err != pgx.ErrNoRows {
		return fmt.Errorf("failed to read audit chain head: %w", err)
	}

	hash, err := audit.ComputeHash(prevHash, entry)
	if err != nil {
		return err
	}
	entry.PrevHash = prevHash
	entry.Hash = hash

	before, err := marshalNullable(entry.Before)
	if err != nil {
		return err
	}
	after, err := marshalNullable(entry.After)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO audit_log (
			id, actor_user_id, action, entity_type, entity_id,
			tenant_id, project_id, decision, reason, before, after,
			occurred_at, prev_hash, hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		entry.ID, entry.ActorUserID, entry.Action, entry.EntityType, entry.EntityID,
		entry.TenantID, entry.ProjectID, string(entry.Decision), entry.Reason, before, after,
		entry.OccurredAt, entry.PrevHash, entry.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// List returns entries matching the filter in append order.
func (r *AuditRepository) List(ctx context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.TenantID != "" {
		add("tenant_id = $%d", filter.TenantID)
	}
	if filter.UserID != "" {
		add("actor_user_id = $%d", filter.UserID)
	}
	if !filter.Since.IsZero() {
		add("occurred_at >= $%d", filter.Since)
	}
	if !filter.Until.IsZero() {
		add("occurred_at <= $%d", filter.Until)
	}

	query := `
		SELECT id, actor_user_id, action, entity_type, entity_id,
		       tenant_id, project_id, decision, reason, before, after,
		       occurred_at, prev_hash, hash
		FROM audit_log`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		var (
			entry         audit.Entry
			tenantID      sql.NullString
			projectID     sql.NullString
			decision      string
			before, after []byte
		)
		if err := rows.Scan(
			&entry.ID, &entry.ActorUserID, &entry.Action, &entry.EntityType, &entry.EntityID,
			&tenantID, &projectID, &decision, &entry.Reason, &before, &after,
			&entry.OccurredAt, &entry.PrevHash, &entry.Hash,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if tenantID.Valid {
			entry.TenantID = &tenantID.String
		}
		if projectID.Valid {
			entry.ProjectID = &projectID.String
		}
		entry.Decision = audit.Decision(decision)
		if len(before) > 0 {
			if err := json.Unmarshal(before, &entry.Before); err != nil {
				return nil, fmt.Errorf("failed to decode audit before: %w", err)
			}
		}
		if len(after) > 0 {
			if err := json.Unmarshal(after, &entry.After); err != nil {
				return nil, fmt.Errorf("failed to decode audit after: %w", err)
			}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func marshalNullable(m map[string]any) ([]byte, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit payload: %w", err)
	}
	return b, nil
}
