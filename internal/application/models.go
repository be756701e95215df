package application

import (
	"context"
	"time"

	"github.com/example/clan-roster/internal/commtree"
	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/persistence"
)

// UserRef is the slice of the external user entity the roster core needs:
// identity plus clan membership for the proxy permission checks.
type UserRef struct {
	ID     string
	ClanID string
}

// UserDirectory resolves external users. Implementations live outside the
// core; lookups return ErrNotFound for unknown users.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (UserRef, error)
}

// SlotStatus is derived from occupancy; it is never stored independently.
type SlotStatus string

const (
	// SlotStatusFree marks an unoccupied slot.
	SlotStatusFree SlotStatus = "FREE"
	// SlotStatusOccupied marks a slot held by a user.
	SlotStatusOccupied SlotStatus = "OCCUPIED"
)

// Slot is the roster position view exposed by the services.
type Slot struct {
	ID      string
	SquadID string
	Role    string
	Order   int
	UserID  *string
}

// Status derives the occupancy status from UserID.
func (s Slot) Status() SlotStatus {
	if s.UserID != nil && *s.UserID != "" {
		return SlotStatusOccupied
	}
	return SlotStatusFree
}

// Squad is the squad view including its ordered slots.
type Squad struct {
	ID      string
	EventID string
	Name    string
	Order   int
	Slots   []Slot
}

// Event is the event view. Squads is populated by graph reads and left nil
// by listings.
type Event struct {
	ID            string
	Name          string
	Description   string
	Briefing      string
	GameType      string
	Status        persistence.EventStatus
	ScheduledDate time.Time
	CreatorID     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Squads        []Squad
}

// SlotSummary is the assignment result: the mutated slot together with its
// squad and event context for caller reporting.
type SlotSummary struct {
	Slot      Slot
	SquadName string
	EventID   string
	EventName string
}

// CommNode is the communication tree node view.
type CommNode struct {
	ID        string
	EventID   string
	Name      string
	Frequency *string
	Type      commtree.NodeType
	ParentID  *string
	PositionX float64
	PositionY float64
	Order     int
}

// Absence is the declared absence view.
type Absence struct {
	ID        string
	EventID   string
	UserID    string
	Reason    *string
	CreatedAt time.Time
}

// AbsenceResult reports whether marking the absence also freed a slot.
type AbsenceResult struct {
	Absence     Absence
	SlotFreed   bool
	FreedSlotID *string
}

// SlotInput captures caller provided slot fields.
type SlotInput struct {
	Role  string
	Order int
}

// SquadInput captures caller provided squad fields for event creation.
type SquadInput struct {
	Name  string
	Order int
	Slots []SlotInput
}

// EventInput captures caller provided event fields.
type EventInput struct {
	Name          string
	Description   string
	Briefing      string
	GameType      string
	ScheduledDate time.Time
}

// EventUpdate carries partial event field updates; nil fields are untouched.
type EventUpdate struct {
	Name          *string
	Description   *string
	Briefing      *string
	GameType      *string
	ScheduledDate *time.Time
}

// CreateEventParams wraps the data required to create an event with its
// full squad/slot graph.
type CreateEventParams struct {
	Actor  permission.Actor
	Input  EventInput
	Squads []SquadInput
}

// CreateEventFromTemplateParams clones the squad/slot shape of an existing
// event; occupancy is never copied.
type CreateEventFromTemplateParams struct {
	Actor      permission.Actor
	TemplateID string
	Overrides  EventUpdate
}

// UpdateEventParams wraps a partial event update.
type UpdateEventParams struct {
	Actor   permission.Actor
	EventID string
	Update  EventUpdate
}

// ChangeStatusParams wraps an event status transition.
type ChangeStatusParams struct {
	Actor   permission.Actor
	EventID string
	Status  persistence.EventStatus
}

// ListEventsParams narrows event listings.
type ListEventsParams struct {
	Status   *persistence.EventStatus
	GameType *string
}

// CreateSquadParams wraps squad creation under an existing event.
type CreateSquadParams struct {
	Actor   permission.Actor
	EventID string
	Name    string
	Order   int
}

// UpdateSquadParams wraps a squad rename/reorder.
type UpdateSquadParams struct {
	Actor   permission.Actor
	SquadID string
	Name    string
	Order   int
}

// CreateSlotParams wraps slot creation under an existing squad.
type CreateSlotParams struct {
	Actor   permission.Actor
	SquadID string
	Input   SlotInput
}

// UpdateSlotParams wraps a slot role/order edit. Occupancy is never editable
// through this path.
type UpdateSlotParams struct {
	Actor  permission.Actor
	SlotID string
	Input  SlotInput
}

// AssignParams wraps a slot assignment request.
type AssignParams struct {
	Actor        permission.Actor
	SlotID       string
	TargetUserID string
}

// UnassignParams wraps a slot release request.
type UnassignParams struct {
	Actor  permission.Actor
	SlotID string
}

// MarkAbsenceParams wraps an absence declaration.
type MarkAbsenceParams struct {
	Actor   permission.Actor
	EventID string
	UserID  string
	Reason  *string
}

// NodeInput captures caller provided communication node fields.
type NodeInput struct {
	Name      string
	Frequency *string
	Type      commtree.NodeType
	ParentID  *string
	PositionX float64
	PositionY float64
	Order     int
}

// CreateNodeParams wraps node creation under an event.
type CreateNodeParams struct {
	Actor   permission.Actor
	EventID string
	Input   NodeInput
}

// UpdateNodeParams wraps a node edit including re-parenting.
type UpdateNodeParams struct {
	Actor  permission.Actor
	NodeID string
	Input  NodeInput
}

// NodePosition is one entry of a bulk presentational position update.
type NodePosition struct {
	NodeID string
	X      float64
	Y      float64
}

// UpdatePositionsParams wraps the bulk presentational move.
type UpdatePositionsParams struct {
	Actor     permission.Actor
	EventID   string
	Positions []NodePosition
}
