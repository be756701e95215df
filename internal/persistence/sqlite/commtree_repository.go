package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/clan-roster/internal/persistence"
)

// CommNodeRepository implements persistence.CommNodeRepository on SQLite.
type CommNodeRepository struct {
	pool *ConnectionPool
}

// NewCommNodeRepository creates a new SQLite communication node repository.
func NewCommNodeRepository(pool *ConnectionPool) *CommNodeRepository {
	return &CommNodeRepository{pool: pool}
}

const nodeColumns = `id, event_id, name, frequency, node_type, parent_id, position_x, position_y, display_order, created_at, updated_at`

// CreateNode inserts a new node.
func (r *CommNodeRepository) CreateNode(ctx context.Context, node persistence.CommNode) error {
	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO comm_nodes (`+nodeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		node.ID, node.EventID, node.Name, nullString(node.Frequency), node.Type,
		nullString(node.ParentID), node.PositionX, node.PositionY, node.Order,
		formatTime(node.CreatedAt), formatTime(node.UpdatedAt),
	)
	return mapSQLError(err)
}

// GetNode retrieves a node by ID.
func (r *CommNodeRepository) GetNode(ctx context.Context, id string) (persistence.CommNode, error) {
	row := r.pool.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM comm_nodes WHERE id = ?`, id)
	return scanNode(row)
}

// ListNodesForEvent returns the event's nodes ordered by display order.
func (r *CommNodeRepository) ListNodesForEvent(ctx context.Context, eventID string) ([]persistence.CommNode, error) {
	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM comm_nodes WHERE event_id = ? ORDER BY display_order, id
	`, eventID)
	if err != nil {
		return nil, mapSQLError(err)
	}
	defer rows.Close()

	var nodes []persistence.CommNode
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// UpdateNode updates node fields. EventID never changes.
func (r *CommNodeRepository) UpdateNode(ctx context.Context, node persistence.CommNode) error {
	result, err := r.pool.db.ExecContext(ctx, `
		UPDATE comm_nodes
		SET name = ?, frequency = ?, node_type = ?, parent_id = ?, position_x = ?, position_y = ?, display_order = ?, updated_at = ?
		WHERE id = ?
	`,
		node.Name, nullString(node.Frequency), node.Type, nullString(node.ParentID),
		node.PositionX, node.PositionY, node.Order, formatTime(node.UpdatedAt),
		node.ID,
	)
	if err != nil {
		return mapSQLError(err)
	}
	return requireAffected(result)
}

// DeleteNodeCascade removes the node and its descendants, returning the
// number of nodes deleted.
func (r *CommNodeRepository) DeleteNodeCascade(ctx context.Context, id string) (int, error) {
	var deleted int
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			WITH RECURSIVE subtree(id) AS (
				SELECT id FROM comm_nodes WHERE id = ?
				UNION ALL
				SELECT c.id FROM comm_nodes c JOIN subtree s ON c.parent_id = s.id
			)
			SELECT COUNT(*) FROM subtree
		`, id).Scan(&deleted)
		if err != nil {
			return mapSQLError(err)
		}
		if deleted == 0 {
			return persistence.ErrNotFound
		}
		// The parent_id foreign key cascades the subtree with the root.
		if _, err := tx.ExecContext(ctx, `DELETE FROM comm_nodes WHERE id = ?`, id); err != nil {
			return mapSQLError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// UpdatePositions applies a bulk presentational move. A position referencing
// a node outside the event rejects the whole batch.
func (r *CommNodeRepository) UpdatePositions(ctx context.Context, eventID string, positions []persistence.NodePosition) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, pos := range positions {
			result, err := tx.ExecContext(ctx, `
				UPDATE comm_nodes SET position_x = ?, position_y = ? WHERE id = ? AND event_id = ?
			`, pos.X, pos.Y, pos.NodeID, eventID)
			if err != nil {
				return mapSQLError(err)
			}
			if err := requireAffected(result); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceTree atomically removes every node of the event and installs the
// provided set.
func (r *CommNodeRepository) ReplaceTree(ctx context.Context, eventID string, nodes []persistence.CommNode) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM comm_nodes WHERE event_id = ?`, eventID); err != nil {
			return mapSQLError(err)
		}
		for _, node := range nodes {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO comm_nodes (`+nodeColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				node.ID, node.EventID, node.Name, nullString(node.Frequency), node.Type,
				nullString(node.ParentID), node.PositionX, node.PositionY, node.Order,
				formatTime(node.CreatedAt), formatTime(node.UpdatedAt),
			); err != nil {
				return mapSQLError(err)
			}
		}
		return nil
	})
}

func scanNode(row rowScanner) (persistence.CommNode, error) {
	var node persistence.CommNode
	var frequency, parentID sql.NullString
	var created, updated string
	err := row.Scan(
		&node.ID, &node.EventID, &node.Name, &frequency, &node.Type,
		&parentID, &node.PositionX, &node.PositionY, &node.Order, &created, &updated,
	)
	if err != nil {
		return persistence.CommNode{}, mapSQLError(err)
	}
	node.Frequency = stringPtr(frequency)
	node.ParentID = stringPtr(parentID)
	if node.CreatedAt, err = parseTime(created); err != nil {
		return persistence.CommNode{}, err
	}
	if node.UpdatedAt, err = parseTime(updated); err != nil {
		return persistence.CommNode{}, err
	}
	return node, nil
}
