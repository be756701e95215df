package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/clan-roster/internal/persistence"
)

// EventRepository implements persistence.EventRepository on SQLite.
type EventRepository struct {
	pool *ConnectionPool
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, name, description, briefing, game_type, status, scheduled_date, creator_id, created_at, updated_at`

// CreateEventGraph writes the event with its squads and slots in one
// transaction.
func (r *EventRepository) CreateEventGraph(ctx context.Context, event persistence.Event, squads []persistence.Squad, slots []persistence.Slot) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO events (`+eventColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			event.ID, event.Name, event.Description, event.Briefing,
			event.GameType, string(event.Status), formatTime(event.ScheduledDate),
			event.CreatorID, formatTime(event.CreatedAt), formatTime(event.UpdatedAt),
		)
		if err != nil {
			return mapSQLError(err)
		}

		for _, squad := range squads {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO squads (id, event_id, name, display_order, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
				squad.ID, squad.EventID, squad.Name, squad.Order,
				formatTime(squad.CreatedAt), formatTime(squad.UpdatedAt),
			); err != nil {
				return mapSQLError(err)
			}
		}

		for _, slot := range slots {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO slots (id, squad_id, role, display_order, user_id, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`,
				slot.ID, slot.SquadID, slot.Role, slot.Order, nullString(slot.UserID),
				formatTime(slot.CreatedAt), formatTime(slot.UpdatedAt),
			); err != nil {
				return mapSQLError(err)
			}
		}
		return nil
	})
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	return scanEvent(row)
}

// ListEvents returns events matching the filter, newest scheduled first.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events`
	var conditions []string
	var args []any
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.GameType != nil {
		conditions = append(conditions, "game_type = ?")
		args = append(args, *filter.GameType)
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY scheduled_date DESC, id"

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// UpdateEvent updates event fields. CreatorID and CreatedAt never change.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE events
		SET name = ?, description = ?, briefing = ?, game_type = ?, status = ?, scheduled_date = ?, updated_at = ?
		WHERE id = ?
	`,
		event.Name, event.Description, event.Briefing, event.GameType,
		string(event.Status), formatTime(event.ScheduledDate), formatTime(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return mapSQLError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// DeleteEvent removes the event and everything it owns, reporting the
// cascade counts. Audit entries are kept.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) (persistence.CascadeCounts, error) {
	var counts persistence.CascadeCounts
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE id = ?`, id).Scan(&exists); err != nil {
			return mapSQLError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}

		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM squads WHERE event_id = ?`, id).Scan(&counts.Squads); err != nil {
			return mapSQLError(err)
		}
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM slots WHERE squad_id IN (SELECT id FROM squads WHERE event_id = ?)
		`, id).Scan(&counts.Slots); err != nil {
			return mapSQLError(err)
		}
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM comm_nodes WHERE event_id = ?`, id).Scan(&counts.Nodes); err != nil {
			return mapSQLError(err)
		}
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM absences WHERE event_id = ?`, id).Scan(&counts.Absences); err != nil {
			return mapSQLError(err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
			return mapSQLError(err)
		}
		return nil
	})
	if err != nil {
		return persistence.CascadeCounts{}, err
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var event persistence.Event
	var status, scheduled, created, updated string
	err := row.Scan(
		&event.ID, &event.Name, &event.Description, &event.Briefing,
		&event.GameType, &status, &scheduled, &event.CreatorID, &created, &updated,
	)
	if err != nil {
		return persistence.Event{}, mapSQLError(err)
	}

	event.Status = persistence.EventStatus(status)
	if event.ScheduledDate, err = parseTime(scheduled); err != nil {
		return persistence.Event{}, err
	}
	if event.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}
