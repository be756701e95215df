package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/example/clan-roster/internal/persistence"
)

// AbsenceRepository implements persistence.AbsenceRepository on SQLite.
type AbsenceRepository struct {
	pool *ConnectionPool
}

// NewAbsenceRepository creates a new SQLite absence repository.
func NewAbsenceRepository(pool *ConnectionPool) *AbsenceRepository {
	return &AbsenceRepository{pool: pool}
}

// CreateAbsence inserts a new absence record.
func (r *AbsenceRepository) CreateAbsence(ctx context.Context, absence persistence.Absence) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO absences (id, event_id, user_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		absence.ID, absence.EventID, absence.UserID, nullString(absence.Reason),
		formatTime(absence.CreatedAt),
	)
	return mapSQLError(err)
}

// ListAbsencesForEvent returns the event's absences oldest first.
func (r *AbsenceRepository) ListAbsencesForEvent(ctx context.Context, eventID string) ([]persistence.Absence, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, event_id, user_id, reason, created_at
		FROM absences WHERE event_id = ? ORDER BY created_at, id
	`, eventID)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	var absences []persistence.Absence
	for rows.Next() {
		var absence persistence.Absence
		var reason sql.NullString
		var created string
		if err := rows.Scan(&absence.ID, &absence.EventID, &absence.UserID, &reason, &created); err != nil {
			return nil, mapSQLError(err)
		}
		absence.Reason = stringPtr(reason)
		if absence.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		absences = append(absences, absence)
	}
	return absences, rows.Err()
}

// AuditRepository implements persistence.AuditRepository on SQLite. The table
// is append-only; entries survive deletion of the event they describe.
type AuditRepository struct {
	pool *ConnectionPool
}

// NewAuditRepository creates a new SQLite audit repository.
func NewAuditRepository(pool *ConnectionPool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// AppendAudit inserts an audit entry.
func (r *AuditRepository) AppendAudit(ctx context.Context, entry persistence.AuditEntry) error {
	details := entry.Details
	if len(details) == 0 {
		details = json.RawMessage("{}")
	}
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, entity, entity_id, actor_id, event_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID, entry.Action, entry.Entity, entry.EntityID, entry.ActorID,
		nullString(entry.EventID), string(details), formatTime(entry.CreatedAt),
	)
	return mapSQLError(err)
}

// ListAuditForEvent returns the event's audit entries oldest first.
func (r *AuditRepository) ListAuditForEvent(ctx context.Context, eventID string) ([]persistence.AuditEntry, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT id, action, entity, entity_id, actor_id, event_id, details, created_at
		FROM audit_log WHERE event_id = ? ORDER BY created_at, id
	`, eventID)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	var entries []persistence.AuditEntry
	for rows.Next() {
		var entry persistence.AuditEntry
		var entryEventID sql.NullString
		var details, created string
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Entity, &entry.EntityID, &entry.ActorID, &entryEventID, &details, &created); err != nil {
			return nil, mapSQLError(err)
		}
		entry.EventID = stringPtr(entryEventID)
		entry.Details = json.RawMessage(details)
		if entry.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
