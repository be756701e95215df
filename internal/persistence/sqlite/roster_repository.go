package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/clan-roster/internal/persistence"
)

// SquadRepository implements persistence.SquadRepository on SQLite.
type SquadRepository struct {
	pool *ConnectionPool
}

// NewSquadRepository creates a new SQLite squad repository.
func NewSquadRepository(pool *ConnectionPool) *SquadRepository {
	return &SquadRepository{pool: pool}
}

const squadColumns = `id, event_id, name, display_order, created_at, updated_at`

// CreateSquad inserts a new squad.
func (r *SquadRepository) CreateSquad(ctx context.Context, squad persistence.Squad) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO squads (`+squadColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		squad.ID, squad.EventID, squad.Name, squad.Order,
		formatTime(squad.CreatedAt), formatTime(squad.UpdatedAt),
	)
	return mapSQLError(err)
}

// GetSquad retrieves a squad by ID.
func (r *SquadRepository) GetSquad(ctx context.Context, id string) (persistence.Squad, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+squadColumns+` FROM squads WHERE id = ?`, id)
	return scanSquad(row)
}

// ListSquadsForEvent returns the event's squads ordered for display.
func (r *SquadRepository) ListSquadsForEvent(ctx context.Context, eventID string) ([]persistence.Squad, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+squadColumns+` FROM squads WHERE event_id = ? ORDER BY display_order, id
	`, eventID)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	var squads []persistence.Squad
	for rows.Next() {
		squad, err := scanSquad(rows)
		if err != nil {
			return nil, err
		}
		squads = append(squads, squad)
	}
	return squads, rows.Err()
}

// UpdateSquad updates name and order. EventID never changes.
func (r *SquadRepository) UpdateSquad(ctx context.Context, squad persistence.Squad) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE squads SET name = ?, display_order = ?, updated_at = ? WHERE id = ?
	`, squad.Name, squad.Order, formatTime(squad.UpdatedAt), squad.ID)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(result)
}

// DeleteSquad removes the squad and all of its slots, occupied or not.
func (r *SquadRepository) DeleteSquad(ctx context.Context, id string) (int, error) {
	var slotsDeleted int
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM squads WHERE id = ?`, id).Scan(&exists); err != nil {
			return mapSQLError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots WHERE squad_id = ?`, id).Scan(&slotsDeleted); err != nil {
			return mapSQLError(err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM squads WHERE id = ?`, id); err != nil {
			return mapSQLError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return slotsDeleted, nil
}

// SlotRepository implements persistence.SlotRepository on SQLite.
type SlotRepository struct {
	pool *ConnectionPool
}

// NewSlotRepository creates a new SQLite slot repository.
func NewSlotRepository(pool *ConnectionPool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

const slotColumns = `id, squad_id, role, display_order, user_id, created_at, updated_at`

// CreateSlot inserts a new slot.
func (r *SlotRepository) CreateSlot(ctx context.Context, slot persistence.Slot) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO slots (`+slotColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		slot.ID, slot.SquadID, slot.Role, slot.Order, nullString(slot.UserID),
		formatTime(slot.CreatedAt), formatTime(slot.UpdatedAt),
	)
	return mapSQLError(err)
}

// GetSlot retrieves a slot by ID.
func (r *SlotRepository) GetSlot(ctx context.Context, id string) (persistence.Slot, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id)
	return scanSlot(row)
}

// ListSlotsForSquad returns the squad's slots ordered for display.
func (r *SlotRepository) ListSlotsForSquad(ctx context.Context, squadID string) ([]persistence.Slot, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+slotColumns+` FROM slots WHERE squad_id = ? ORDER BY display_order, id
	`, squadID)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()
	return collectSlots(rows)
}

// ListSlotsForEvent returns every slot of the event across all squads.
func (r *SlotRepository) ListSlotsForEvent(ctx context.Context, eventID string) ([]persistence.Slot, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT s.id, s.squad_id, s.role, s.display_order, s.user_id, s.created_at, s.updated_at
		FROM slots s
		JOIN squads sq ON sq.id = s.squad_id
		WHERE sq.event_id = ?
		ORDER BY sq.display_order, s.display_order, s.id
	`, eventID)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()
	return collectSlots(rows)
}

// UpdateSlot updates role and order. Occupancy is written only through
// OccupySlot, ReleaseSlot and MoveOccupant.
func (r *SlotRepository) UpdateSlot(ctx context.Context, slot persistence.Slot) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE slots SET role = ?, display_order = ?, updated_at = ? WHERE id = ?
	`, slot.Role, slot.Order, formatTime(slot.UpdatedAt), slot.ID)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(result)
}

// DeleteSlot removes a free slot; deleting an occupied one fails with
// ErrConflict.
func (r *SlotRepository) DeleteSlot(ctx context.Context, id string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var userID sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT user_id FROM slots WHERE id = ?`, id).Scan(&userID)
		if err != nil {
			return mapSQLError(err)
		}
		if userID.Valid {
			return persistence.ErrConflict
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, id); err != nil {
			return mapSQLError(err)
		}
		return nil
	})
}

// FindSlotByOccupant returns the slot held by userID within the event.
func (r *SlotRepository) FindSlotByOccupant(ctx context.Context, eventID, userID string) (persistence.Slot, error) {
	row := r.pool.db.QueryRowContext(ctx, `
		SELECT s.id, s.squad_id, s.role, s.display_order, s.user_id, s.created_at, s.updated_at
		FROM slots s
		JOIN squads sq ON sq.id = s.squad_id
		WHERE sq.event_id = ? AND s.user_id = ?
	`, eventID, userID)
	return scanSlot(row)
}

// OccupySlot sets the occupant only if the slot is currently free.
func (r *SlotRepository) OccupySlot(ctx context.Context, slotID, userID string) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE slots SET user_id = ? WHERE id = ? AND user_id IS NULL
	`, userID, slotID)
	if err != nil {
		return mapSQLError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := r.pool.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots WHERE id = ?`, slotID).Scan(&exists); err != nil {
			return mapSQLError(err)
		}
		if exists == 0 {
			return persistence.ErrNotFound
		}
		return persistence.ErrConflict
	}
	return nil
}

// ReleaseSlot clears the occupant. Releasing a free slot is a no-op.
func (r *SlotRepository) ReleaseSlot(ctx context.Context, slotID string) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE slots SET user_id = NULL WHERE id = ?
	`, slotID)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(result)
}

// MoveOccupant releases fromSlotID and occupies toSlotID as one transaction.
// Both slots are untouched on failure.
func (r *SlotRepository) MoveOccupant(ctx context.Context, userID, fromSlotID, toSlotID string) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE slots SET user_id = NULL WHERE id = ? AND user_id = ?
		`, fromSlotID, userID)
		if err != nil {
			return mapSQLError(err)
		}
		if err := requireAffected(result); err != nil {
			return err
		}

		result, err = tx.ExecContext(ctx, `
			UPDATE slots SET user_id = ? WHERE id = ? AND user_id IS NULL
		`, userID, toSlotID)
		if err != nil {
			return mapSQLError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			var exists int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots WHERE id = ?`, toSlotID).Scan(&exists); err != nil {
				return mapSQLError(err)
			}
			if exists == 0 {
				return persistence.ErrNotFound
			}
			return persistence.ErrConflict
		}
		return nil
	})
}

func scanSquad(row rowScanner) (persistence.Squad, error) {
	var squad persistence.Squad
	var created, updated string
	if err := row.Scan(&squad.ID, &squad.EventID, &squad.Name, &squad.Order, &created, &updated); err != nil {
		return persistence.Squad{}, mapSQLError(err)
	}
	var err error
	if squad.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Squad{}, err
	}
	if squad.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Squad{}, err
	}
	return squad, nil
}

func scanSlot(row rowScanner) (persistence.Slot, error) {
	var slot persistence.Slot
	var userID sql.NullString
	var created, updated string
	if err := row.Scan(&slot.ID, &slot.SquadID, &slot.Role, &slot.Order, &userID, &created, &updated); err != nil {
		return persistence.Slot{}, mapSQLError(err)
	}
	slot.UserID = stringPtr(userID)
	var err error
	if slot.CreatedAt, err = parseTime(created); err != nil {
		return persistence.Slot{}, err
	}
	if slot.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.Slot{}, err
	}
	return slot, nil
}

func collectSlots(rows *sql.Rows) ([]persistence.Slot, error) {
	var slots []persistence.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
