package store

import (
	"database/sql"
	"fmt"
	"time"
)

// AuditEntry records one change to a business entity. Stock entries use the
// item kind as EntityType.
type AuditEntry struct {
	ID         int64     `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Action     string    `json:"action"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	Actor      string    `json:"actor"`
	CreatedAt  time.Time `json:"created_at"`
}

const auditSelectCols = `id, entity_type, entity_id, action, old_value, new_value, actor, created_at`

func scanAuditEntries(rows *sql.Rows) ([]*AuditEntry, error) {
	defer rows.Close()
	var entries []*AuditEntry
	for rows.Next() {
		var (
			e         AuditEntry
			createdAt any
		)
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.OldValue, &e.NewValue, &e.Actor, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// AppendAudit writes an entry; an empty actor is recorded as "system".
func (db *DB) AppendAudit(entityType string, entityID int64, action, oldValue, newValue, actor string) error {
	if actor == "" {
		actor = "system"
	}
	if _, err := db.c().exec(`INSERT INTO audit_log (entity_type, entity_id, action, old_value, new_value, actor) VALUES (?, ?, ?, ?, ?, ?)`,
		entityType, entityID, action, oldValue, newValue, actor); err != nil {
		return fmt.Errorf("append audit %s %d: %w", entityType, entityID, err)
	}
	return nil
}

// ListAuditLog returns the newest entries first.
func (db *DB) ListAuditLog(limit int) ([]*AuditEntry, error) {
	rows, err := db.c().query(`SELECT `+auditSelectCols+` FROM audit_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanAuditEntries(rows)
}

func (db *DB) ListEntityAudit(entityType string, entityID int64) ([]*AuditEntry, error) {
	rows, err := db.c().query(`SELECT `+auditSelectCols+` FROM audit_log WHERE entity_type=? AND entity_id=? ORDER BY id DESC`, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return scanAuditEntries(rows)
}

// ListActorAudit returns what one user (or "system", or a peer source) did.
func (db *DB) ListActorAudit(actor string, limit int) ([]*AuditEntry, error) {
	rows, err := db.c().query(`SELECT `+auditSelectCols+` FROM audit_log WHERE actor=? ORDER BY id DESC LIMIT ?`, actor, limit)
	if err != nil {
		return nil, err
	}
	return scanAuditEntries(rows)
}
