package application

import (
	"github.com/example/clan-roster/internal/commtree"
	"github.com/example/clan-roster/internal/persistence"
)

func eventView(event persistence.Event) Event {
	return Event{
		ID:            event.ID,
		Name:          event.Name,
		Description:   event.Description,
		Briefing:      event.Briefing,
		GameType:      event.GameType,
		Status:        event.Status,
		ScheduledDate: event.ScheduledDate,
		CreatorID:     event.CreatorID,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
	}
}

func squadView(squad persistence.Squad) Squad {
	return Squad{
		ID:      squad.ID,
		EventID: squad.EventID,
		Name:    squad.Name,
		Order:   squad.Order,
	}
}

func slotView(slot persistence.Slot) Slot {
	view := Slot{
		ID:      slot.ID,
		SquadID: slot.SquadID,
		Role:    slot.Role,
		Order:   slot.Order,
	}
	if slot.UserID != nil {
		occupant := *slot.UserID
		view.UserID = &occupant
	}
	return view
}

func nodeView(node persistence.CommNode) CommNode {
	view := CommNode{
		ID:        node.ID,
		EventID:   node.EventID,
		Name:      node.Name,
		Type:      commtree.NodeType(node.Type),
		PositionX: node.PositionX,
		PositionY: node.PositionY,
		Order:     node.Order,
	}
	if node.Frequency != nil {
		freq := *node.Frequency
		view.Frequency = &freq
	}
	if node.ParentID != nil {
		parent := *node.ParentID
		view.ParentID = &parent
	}
	return view
}

func absenceView(absence persistence.Absence) Absence {
	view := Absence{
		ID:        absence.ID,
		EventID:   absence.EventID,
		UserID:    absence.UserID,
		CreatedAt: absence.CreatedAt,
	}
	if absence.Reason != nil {
		reason := *absence.Reason
		view.Reason = &reason
	}
	return view
}

func auditView(entry persistence.AuditEntry) AuditEntry {
	view := AuditEntry{
		ID:        entry.ID,
		Action:    AuditAction(entry.Action),
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		ActorID:   entry.ActorID,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
	if entry.EventID != nil {
		eventID := *entry.EventID
		view.EventID = &eventID
	}
	return view
}
