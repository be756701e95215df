package persistence

import "context"

// EventFilter narrows event listings.
type EventFilter struct {
	Status   *EventStatus
	GameType *string
}

// EventRepository stores events and owns the whole-graph write used by event
// creation plus the cascading delete.
type EventRepository interface {
	// CreateEventGraph writes the event together with its squads and slots
	// as one atomic unit. Either everything lands or nothing does.
	CreateEventGraph(ctx context.Context, event Event, squads []Squad, slots []Slot) error
	GetEvent(ctx context.Context, id string) (Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	// DeleteEvent removes the event and everything it owns, reporting how
	// many dependent records were cascaded.
	DeleteEvent(ctx context.Context, id string) (CascadeCounts, error)
}

// SquadRepository stores squads within events.
type SquadRepository interface {
	CreateSquad(ctx context.Context, squad Squad) error
	GetSquad(ctx context.Context, id string) (Squad, error)
	ListSquadsForEvent(ctx context.Context, eventID string) ([]Squad, error)
	UpdateSquad(ctx context.Context, squad Squad) error
	// DeleteSquad removes the squad and all of its slots, occupied or not,
	// returning the number of slots cascaded.
	DeleteSquad(ctx context.Context, id string) (int, error)
}

// SlotRepository stores slots and owns the conditional occupancy writes the
// assignment engine relies on.
type SlotRepository interface {
	CreateSlot(ctx context.Context, slot Slot) error
	GetSlot(ctx context.Context, id string) (Slot, error)
	ListSlotsForSquad(ctx context.Context, squadID string) ([]Slot, error)
	ListSlotsForEvent(ctx context.Context, eventID string) ([]Slot, error)
	UpdateSlot(ctx context.Context, slot Slot) error
	// DeleteSlot fails with ErrConflict while the slot is occupied.
	DeleteSlot(ctx context.Context, id string) error
	// FindSlotByOccupant returns the slot held by userID within the event,
	// or ErrNotFound when the user holds none.
	FindSlotByOccupant(ctx context.Context, eventID, userID string) (Slot, error)
	// OccupySlot sets the occupant only if the slot is currently free;
	// otherwise it fails with ErrConflict and changes nothing.
	OccupySlot(ctx context.Context, slotID, userID string) error
	// ReleaseSlot clears the occupant. Releasing a free slot is a no-op.
	ReleaseSlot(ctx context.Context, slotID string) error
	// MoveOccupant releases fromSlotID and occupies toSlotID for userID as
	// one atomic unit. It fails with ErrConflict if toSlotID is occupied and
	// leaves both slots untouched on failure.
	MoveOccupant(ctx context.Context, userID, fromSlotID, toSlotID string) error
}

// CommNodeRepository stores the per-event communication hierarchy.
type CommNodeRepository interface {
	CreateNode(ctx context.Context, node CommNode) error
	GetNode(ctx context.Context, id string) (CommNode, error)
	// ListNodesForEvent returns nodes ordered by Order, then ID.
	ListNodesForEvent(ctx context.Context, eventID string) ([]CommNode, error)
	UpdateNode(ctx context.Context, node CommNode) error
	// DeleteNodeCascade removes the node and its descendants, returning the
	// total number of nodes deleted.
	DeleteNodeCascade(ctx context.Context, id string) (int, error)
	// UpdatePositions applies a bulk presentational move. Positions whose
	// node does not belong to eventID are rejected with ErrNotFound and no
	// position is changed.
	UpdatePositions(ctx context.Context, eventID string, positions []NodePosition) error
	// ReplaceTree atomically removes every node of the event and installs
	// the provided set.
	ReplaceTree(ctx context.Context, eventID string, nodes []CommNode) error
}

// AbsenceRepository stores declared absences.
type AbsenceRepository interface {
	CreateAbsence(ctx context.Context, absence Absence) error
	ListAbsencesForEvent(ctx context.Context, eventID string) ([]Absence, error)
}

// AuditRepository is the append-only sink for audit entries.
type AuditRepository interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAuditForEvent(ctx context.Context, eventID string) ([]AuditEntry, error)
}
