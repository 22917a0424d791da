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

package audit

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// The trail is hash-chained: each entry carries a blake2b digest over the
// previous entry's digest and its own canonical payload. An operator can
// prove the trail was not rewritten without trusting the database.

type chainPayload struct {
	ID          string         `json:"id"`
	ActorUserID string         `json:"actor_user_id"`
	Action      string         `json:"action"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	TenantID    *string        `json:"tenant_id"`
	ProjectID   *string        `json:"project_id"`
	Decision    Decision       `json:"decision"`
	Reason      string         `json:"reason"`
	Before      map[string]any `json:"before"`
	After       map[string]any `json:"after"`
	OccurredAt  int64          `json:"occurred_at_unix_nano"`
}

// ComputeHash returns the chain digest for an entry given the previous
// entry's digest (empty string for the first entry).
func ComputeHash(prevHash string, entry *Entry) (string, error) {
	payload, err := json.Marshal(chainPayload{
		ID:          entry.ID,
		ActorUserID: entry.ActorUserID,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		TenantID:    entry.TenantID,
		ProjectID:   entry.ProjectID,
		Decision:    entry.Decision,
		Reason:      entry.Reason,
		Before:      entry.Before,
		After:       entry.After,
		OccurredAt:  entry.OccurredAt.UnixNano(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chain payload: %w", err)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	h.Write([]byte(prevHash))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Seal sets PrevHash and Hash on an entry about to be appended.
func Seal(prev *Entry, entry *Entry) error {
	prevHash := ""
	if prev != nil {
		prevHash = prev.Hash
	}
	hash, err := ComputeHash(prevHash, entry)
	if err != nil {
		return err
	}
	entry.PrevHash = prevHash
	entry.Hash = hash
	return nil
}

// VerifyChain walks entries in append order and reports the first break.
func VerifyChain(entries []*Entry) error {
	prevHash := ""
	for i, e := range entries {
		if e.PrevHash != prevHash {
			return fmt.Errorf("audit chain broken at entry %d (%s): prev_hash mismatch", i, e.ID)
		}
		want, err := ComputeHash(prevHash, e)
		if err != nil {
			return err
		}
		if e.Hash != want {
			return fmt.Errorf("audit chain broken at entry %d (%s): hash mismatch", i, e.ID)
		}
		prevHash = e.Hash
	}
	return nil
}
