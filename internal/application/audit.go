package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/persistence"
)

// AuditAction enumerates the audit log entry kinds emitted by the core.
type AuditAction string

const (
	AuditEventCreated         AuditAction = "EVENT_CREATED"
	AuditEventUpdated         AuditAction = "EVENT_UPDATED"
	AuditEventStatusChanged   AuditAction = "EVENT_STATUS_CHANGED"
	AuditEventDeleted         AuditAction = "EVENT_DELETED"
	AuditSquadCreated         AuditAction = "SQUAD_CREATED"
	AuditSquadUpdated         AuditAction = "SQUAD_UPDATED"
	AuditSquadDeleted         AuditAction = "SQUAD_DELETED"
	AuditSlotCreated          AuditAction = "SLOT_CREATED"
	AuditSlotUpdated          AuditAction = "SLOT_UPDATED"
	AuditSlotDeleted          AuditAction = "SLOT_DELETED"
	AuditSlotAssigned         AuditAction = "SLOT_ASSIGNED"
	AuditSlotUnassigned       AuditAction = "SLOT_UNASSIGNED"
	AuditAbsenceMarked        AuditAction = "ABSENCE_MARKED"
	AuditNodeCreated          AuditAction = "NODE_CREATED"
	AuditNodeUpdated          AuditAction = "NODE_UPDATED"
	AuditNodeDeleted          AuditAction = "NODE_DELETED"
	AuditNodePositionsUpdated AuditAction = "NODE_POSITIONS_UPDATED"
	AuditTreeGenerated        AuditAction = "TREE_GENERATED"
)

// AuditDetails is implemented by one payload struct per action, so audit
// records stay type-checked instead of free-form blobs.
type AuditDetails interface {
	AuditAction() AuditAction
}

// EventCreatedDetails accompanies EVENT_CREATED.
type EventCreatedDetails struct {
	SquadCount int     `json:"squadCount"`
	SlotCount  int     `json:"slotCount"`
	TemplateID *string `json:"templateId,omitempty"`
}

func (EventCreatedDetails) AuditAction() AuditAction { return AuditEventCreated }

// EventUpdatedDetails accompanies EVENT_UPDATED.
type EventUpdatedDetails struct {
	Fields []string `json:"fields"`
}

func (EventUpdatedDetails) AuditAction() AuditAction { return AuditEventUpdated }

// EventStatusChangedDetails accompanies EVENT_STATUS_CHANGED.
type EventStatusChangedDetails struct {
	From persistence.EventStatus `json:"from"`
	To   persistence.EventStatus `json:"to"`
}

func (EventStatusChangedDetails) AuditAction() AuditAction { return AuditEventStatusChanged }

// EventDeletedDetails accompanies EVENT_DELETED.
type EventDeletedDetails struct {
	Squads   int `json:"squads"`
	Slots    int `json:"slots"`
	Nodes    int `json:"nodes"`
	Absences int `json:"absences"`
}

func (EventDeletedDetails) AuditAction() AuditAction { return AuditEventDeleted }

// SquadCreatedDetails accompanies SQUAD_CREATED.
type SquadCreatedDetails struct {
	Name string `json:"name"`
}

func (SquadCreatedDetails) AuditAction() AuditAction { return AuditSquadCreated }

// SquadUpdatedDetails accompanies SQUAD_UPDATED.
type SquadUpdatedDetails struct {
	Name string `json:"name"`
}

func (SquadUpdatedDetails) AuditAction() AuditAction { return AuditSquadUpdated }

// SquadDeletedDetails accompanies SQUAD_DELETED.
type SquadDeletedDetails struct {
	SlotsDeleted int `json:"slotsDeleted"`
}

func (SquadDeletedDetails) AuditAction() AuditAction { return AuditSquadDeleted }

// SlotCreatedDetails accompanies SLOT_CREATED.
type SlotCreatedDetails struct {
	Role string `json:"role"`
}

func (SlotCreatedDetails) AuditAction() AuditAction { return AuditSlotCreated }

// SlotUpdatedDetails accompanies SLOT_UPDATED.
type SlotUpdatedDetails struct {
	Role string `json:"role"`
}

func (SlotUpdatedDetails) AuditAction() AuditAction { return AuditSlotUpdated }

// SlotDeletedDetails accompanies SLOT_DELETED.
type SlotDeletedDetails struct {
	Role string `json:"role"`
}

func (SlotDeletedDetails) AuditAction() AuditAction { return AuditSlotDeleted }

// SlotAssignedDetails accompanies SLOT_ASSIGNED. ReleasedSlotID carries the
// auto-release side effect when the user held another slot in the event.
type SlotAssignedDetails struct {
	TargetUserID   string  `json:"targetUserId"`
	ReleasedSlotID *string `json:"releasedSlotId,omitempty"`
	Override       bool    `json:"override,omitempty"`
}

func (SlotAssignedDetails) AuditAction() AuditAction { return AuditSlotAssigned }

// SlotUnassignedDetails accompanies SLOT_UNASSIGNED.
type SlotUnassignedDetails struct {
	OccupantID string `json:"occupantId"`
	Override   bool   `json:"override,omitempty"`
}

func (SlotUnassignedDetails) AuditAction() AuditAction { return AuditSlotUnassigned }

// AbsenceMarkedDetails accompanies ABSENCE_MARKED.
type AbsenceMarkedDetails struct {
	UserID      string  `json:"userId"`
	SlotFreed   bool    `json:"slotFreed"`
	FreedSlotID *string `json:"freedSlotId,omitempty"`
}

func (AbsenceMarkedDetails) AuditAction() AuditAction { return AuditAbsenceMarked }

// NodeCreatedDetails accompanies NODE_CREATED.
type NodeCreatedDetails struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (NodeCreatedDetails) AuditAction() AuditAction { return AuditNodeCreated }

// NodeUpdatedDetails accompanies NODE_UPDATED.
type NodeUpdatedDetails struct {
	Name string `json:"name"`
}

func (NodeUpdatedDetails) AuditAction() AuditAction { return AuditNodeUpdated }

// NodeDeletedDetails accompanies NODE_DELETED.
type NodeDeletedDetails struct {
	NodesDeleted int `json:"nodesDeleted"`
}

func (NodeDeletedDetails) AuditAction() AuditAction { return AuditNodeDeleted }

// NodePositionsUpdatedDetails accompanies NODE_POSITIONS_UPDATED.
type NodePositionsUpdatedDetails struct {
	Count int `json:"count"`
}

func (NodePositionsUpdatedDetails) AuditAction() AuditAction { return AuditNodePositionsUpdated }

// TreeGeneratedDetails accompanies TREE_GENERATED.
type TreeGeneratedDetails struct {
	SquadCount int `json:"squadCount"`
	NodeCount  int `json:"nodeCount"`
}

func (TreeGeneratedDetails) AuditAction() AuditAction { return AuditTreeGenerated }

// AuditEntry is the read view over the audit trail.
type AuditEntry struct {
	ID        string
	Action    AuditAction
	Entity    string
	EntityID  string
	ActorID   string
	EventID   *string
	Details   json.RawMessage
	CreatedAt time.Time
}

// auditRecorder appends typed audit entries. Audit writes are best-effort:
// a sink failure is logged with the operation context and never surfaced to
// the caller or allowed to roll back the primary mutation.
type auditRecorder struct {
	audits      persistence.AuditRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

func newAuditRecorder(audits persistence.AuditRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *auditRecorder {
	return &auditRecorder{
		audits:      audits,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

func (r *auditRecorder) record(ctx context.Context, actor permission.Actor, entity, entityID string, eventID *string, details AuditDetails) {
	if r == nil || r.audits == nil || details == nil {
		return
	}

	payload, err := json.Marshal(details)
	if err != nil {
		defaultLogger(r.logger).WarnContext(ctx, "failed to encode audit details",
			"action", string(details.AuditAction()), "error", err)
		return
	}

	entry := persistence.AuditEntry{
		ID:        r.idGenerator(),
		Action:    string(details.AuditAction()),
		Entity:    entity,
		EntityID:  entityID,
		ActorID:   actor.UserID,
		EventID:   eventID,
		Details:   payload,
		CreatedAt: r.now(),
	}

	if err := r.audits.AppendAudit(ctx, entry); err != nil {
		defaultLogger(r.logger).WarnContext(ctx, "failed to append audit entry",
			"action", entry.Action, "entity", entry.Entity, "entity_id", entry.EntityID, "error", err)
	}
}
