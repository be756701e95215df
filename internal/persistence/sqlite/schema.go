package sqlite

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	briefing       TEXT NOT NULL DEFAULT '',
	game_type      TEXT NOT NULL,
	status         TEXT NOT NULL CHECK (status IN ('ACTIVE', 'INACTIVE')),
	scheduled_date TEXT NOT NULL,
	creator_id     TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS squads (
	id            TEXT PRIMARY KEY,
	event_id      TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	display_order INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_squads_event ON squads(event_id);

CREATE TABLE IF NOT EXISTS slots (
	id            TEXT PRIMARY KEY,
	squad_id      TEXT NOT NULL REFERENCES squads(id) ON DELETE CASCADE,
	role          TEXT NOT NULL,
	display_order INTEGER NOT NULL DEFAULT 0,
	user_id       TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_slots_squad ON slots(squad_id);
CREATE INDEX IF NOT EXISTS idx_slots_user ON slots(user_id) WHERE user_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS comm_nodes (
	id            TEXT PRIMARY KEY,
	event_id      TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	frequency     TEXT,
	node_type     TEXT NOT NULL CHECK (node_type IN ('COMMAND', 'SQUAD', 'ELEMENT', 'SUPPORT')),
	parent_id     TEXT REFERENCES comm_nodes(id) ON DELETE CASCADE,
	position_x    REAL NOT NULL DEFAULT 0,
	position_y    REAL NOT NULL DEFAULT 0,
	display_order INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comm_nodes_event ON comm_nodes(event_id);
CREATE INDEX IF NOT EXISTS idx_comm_nodes_parent ON comm_nodes(parent_id);

CREATE TABLE IF NOT EXISTS absences (
	id         TEXT PRIMARY KEY,
	event_id   TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	reason     TEXT,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_absences_event ON absences(event_id);

CREATE TABLE IF NOT EXISTS audit_log (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	entity     TEXT NOT NULL,
	entity_id  TEXT NOT NULL,
	actor_id   TEXT NOT NULL,
	event_id   TEXT,
	details    TEXT NOT NULL DEFAULT '{}',
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_event ON audit_log(event_id);
`

// Migrate applies the schema. Statements are idempotent so it is safe to run
// on every startup. The audit_log table deliberately has no foreign key on
// event_id: audit entries outlive the events they describe.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
