package persistence

import (
	"encoding/json"
	"time"
)

// EventStatus enumerates the lifecycle states of an event.
type EventStatus string

const (
	// EventStatusActive marks an event open for assignment.
	EventStatusActive EventStatus = "ACTIVE"
	// EventStatusInactive marks a closed or archived event.
	EventStatusInactive EventStatus = "INACTIVE"
)

// Valid reports whether the status is a known value.
func (s EventStatus) Valid() bool {
	return s == EventStatusActive || s == EventStatusInactive
}

// Event represents a mission event owning squads and a communication tree.
type Event struct {
	ID            string
	Name          string
	Description   string
	Briefing      string
	GameType      string
	Status        EventStatus
	ScheduledDate time.Time
	CreatorID     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Squad represents an ordered group of slots within one event.
type Squad struct {
	ID        string
	EventID   string
	Name      string
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slot represents a single roster position within a squad. Occupancy is
// expressed solely through UserID; there is no separate status column.
type Slot struct {
	ID        string
	SquadID   string
	Role      string
	Order     int
	UserID    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Occupied reports whether the slot currently holds a user.
func (s Slot) Occupied() bool {
	return s.UserID != nil && *s.UserID != ""
}

// CommNode represents one node of the per-event communication hierarchy.
// The hierarchy is a flat collection; structure lives only in ParentID.
type CommNode struct {
	ID        string
	EventID   string
	Name      string
	Frequency *string
	Type      string
	ParentID  *string
	PositionX float64
	PositionY float64
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Absence records a user's declared inability to attend an event.
type Absence struct {
	ID        string
	EventID   string
	UserID    string
	Reason    *string
	CreatedAt time.Time
}

// AuditEntry is the append-only record emitted by every mutating operation.
// Details carries the per-action payload serialized by the application layer.
type AuditEntry struct {
	ID        string
	Action    string
	Entity    string
	EntityID  string
	ActorID   string
	EventID   *string
	Details   json.RawMessage
	CreatedAt time.Time
}

// CascadeCounts reports how many dependent records an event deletion removed.
type CascadeCounts struct {
	Squads   int
	Slots    int
	Nodes    int
	Absences int
}

// NodePosition is one entry of a bulk presentational position update.
type NodePosition struct {
	NodeID string
	X      float64
	Y      float64
}
