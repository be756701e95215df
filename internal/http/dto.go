package http

import (
	"encoding/json"
	"time"

	"github.com/example/clan-roster/internal/application"
	"github.com/example/clan-roster/internal/commtree"
	"github.com/example/clan-roster/internal/persistence"
)

// ----------------------------- request shapes ----------------------------

type slotRequest struct {
	Role  string `json:"role"`
	Order int    `json:"order"`
}

type squadRequest struct {
	Name  string        `json:"name"`
	Order int           `json:"order"`
	Slots []slotRequest `json:"slots"`
}

type createEventRequest struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Briefing      string         `json:"briefing"`
	GameType      string         `json:"game_type"`
	ScheduledDate time.Time      `json:"scheduled_date"`
	Squads        []squadRequest `json:"squads"`
}

func (req createEventRequest) toParams() (application.EventInput, []application.SquadInput) {
	input := application.EventInput{
		Name:          req.Name,
		Description:   req.Description,
		Briefing:      req.Briefing,
		GameType:      req.GameType,
		ScheduledDate: req.ScheduledDate,
	}
	squads := make([]application.SquadInput, 0, len(req.Squads))
	for _, squad := range req.Squads {
		slots := make([]application.SlotInput, 0, len(squad.Slots))
		for _, slot := range squad.Slots {
			slots = append(slots, application.SlotInput{Role: slot.Role, Order: slot.Order})
		}
		squads = append(squads, application.SquadInput{Name: squad.Name, Order: squad.Order, Slots: slots})
	}
	return input, squads
}

type updateEventRequest struct {
	Name          *string    `json:"name"`
	Description   *string    `json:"description"`
	Briefing      *string    `json:"briefing"`
	GameType      *string    `json:"game_type"`
	ScheduledDate *time.Time `json:"scheduled_date"`
}

func (req updateEventRequest) toUpdate() application.EventUpdate {
	return application.EventUpdate{
		Name:          req.Name,
		Description:   req.Description,
		Briefing:      req.Briefing,
		GameType:      req.GameType,
		ScheduledDate: req.ScheduledDate,
	}
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

type squadCreateRequest struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

type assignRequest struct {
	UserID string `json:"user_id"`
}

type absenceRequest struct {
	UserID string  `json:"user_id"`
	Reason *string `json:"reason"`
}

type nodeRequest struct {
	Name      string  `json:"name"`
	Frequency *string `json:"frequency"`
	Type      string  `json:"type"`
	ParentID  *string `json:"parent_id"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	Order     int     `json:"order"`
}

func (req nodeRequest) toInput() application.NodeInput {
	return application.NodeInput{
		Name:      req.Name,
		Frequency: req.Frequency,
		Type:      commtree.NodeType(req.Type),
		ParentID:  req.ParentID,
		PositionX: req.PositionX,
		PositionY: req.PositionY,
		Order:     req.Order,
	}
}

type positionRequest struct {
	NodeID string  `json:"node_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type updatePositionsRequest struct {
	Positions []positionRequest `json:"positions"`
}

// ----------------------------- response shapes ---------------------------

type slotDTO struct {
	ID      string  `json:"id"`
	SquadID string  `json:"squad_id"`
	Role    string  `json:"role"`
	Order   int     `json:"order"`
	Status  string  `json:"status"`
	UserID  *string `json:"user_id,omitempty"`
}

func toSlotDTO(slot application.Slot) slotDTO {
	return slotDTO{
		ID:      slot.ID,
		SquadID: slot.SquadID,
		Role:    slot.Role,
		Order:   slot.Order,
		Status:  string(slot.Status()),
		UserID:  slot.UserID,
	}
}

type squadDTO struct {
	ID      string    `json:"id"`
	EventID string    `json:"event_id"`
	Name    string    `json:"name"`
	Order   int       `json:"order"`
	Slots   []slotDTO `json:"slots,omitempty"`
}

func toSquadDTO(squad application.Squad) squadDTO {
	dto := squadDTO{
		ID:      squad.ID,
		EventID: squad.EventID,
		Name:    squad.Name,
		Order:   squad.Order,
	}
	for _, slot := range squad.Slots {
		dto.Slots = append(dto.Slots, toSlotDTO(slot))
	}
	return dto
}

type eventDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Briefing      string     `json:"briefing"`
	GameType      string     `json:"game_type"`
	Status        string     `json:"status"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	CreatorID     string     `json:"creator_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Squads        []squadDTO `json:"squads,omitempty"`
}

func toEventDTO(event application.Event) eventDTO {
	dto := eventDTO{
		ID:            event.ID,
		Name:          event.Name,
		Description:   event.Description,
		Briefing:      event.Briefing,
		GameType:      event.GameType,
		Status:        string(event.Status),
		ScheduledDate: event.ScheduledDate,
		CreatorID:     event.CreatorID,
		CreatedAt:     event.CreatedAt,
		UpdatedAt:     event.UpdatedAt,
	}
	for _, squad := range event.Squads {
		dto.Squads = append(dto.Squads, toSquadDTO(squad))
	}
	return dto
}

func toEventDTOs(events []application.Event) []eventDTO {
	dtos := make([]eventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, toEventDTO(event))
	}
	return dtos
}

type slotSummaryDTO struct {
	Slot      slotDTO `json:"slot"`
	SquadName string  `json:"squad_name"`
	EventID   string  `json:"event_id"`
	EventName string  `json:"event_name"`
}

func toSlotSummaryDTO(summary application.SlotSummary) slotSummaryDTO {
	return slotSummaryDTO{
		Slot:      toSlotDTO(summary.Slot),
		SquadName: summary.SquadName,
		EventID:   summary.EventID,
		EventName: summary.EventName,
	}
}

type nodeDTO struct {
	ID        string  `json:"id"`
	EventID   string  `json:"event_id"`
	Name      string  `json:"name"`
	Frequency *string `json:"frequency,omitempty"`
	Type      string  `json:"type"`
	ParentID  *string `json:"parent_id,omitempty"`
	PositionX float64 `json:"position_x"`
	PositionY float64 `json:"position_y"`
	Order     int     `json:"order"`
}

func toNodeDTO(node application.CommNode) nodeDTO {
	return nodeDTO{
		ID:        node.ID,
		EventID:   node.EventID,
		Name:      node.Name,
		Frequency: node.Frequency,
		Type:      string(node.Type),
		ParentID:  node.ParentID,
		PositionX: node.PositionX,
		PositionY: node.PositionY,
		Order:     node.Order,
	}
}

func toNodeDTOs(nodes []application.CommNode) []nodeDTO {
	dtos := make([]nodeDTO, 0, len(nodes))
	for _, node := range nodes {
		dtos = append(dtos, toNodeDTO(node))
	}
	return dtos
}

type absenceDTO struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toAbsenceDTO(absence application.Absence) absenceDTO {
	return absenceDTO{
		ID:        absence.ID,
		EventID:   absence.EventID,
		UserID:    absence.UserID,
		Reason:    absence.Reason,
		CreatedAt: absence.CreatedAt,
	}
}

type absenceResultDTO struct {
	Absence     absenceDTO `json:"absence"`
	SlotFreed   bool       `json:"slot_freed"`
	FreedSlotID *string    `json:"freed_slot_id,omitempty"`
}

type auditEntryDTO struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	ActorID   string          `json:"actor_id"`
	EventID   *string         `json:"event_id,omitempty"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}

func toAuditEntryDTO(entry application.AuditEntry) auditEntryDTO {
	return auditEntryDTO{
		ID:        entry.ID,
		Action:    string(entry.Action),
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		ActorID:   entry.ActorID,
		EventID:   entry.EventID,
		Details:   entry.Details,
		CreatedAt: entry.CreatedAt,
	}
}

type cascadeCountsDTO struct {
	Squads   int `json:"squads"`
	Slots    int `json:"slots"`
	Nodes    int `json:"nodes"`
	Absences int `json:"absences"`
}

func toCascadeCountsDTO(counts persistence.CascadeCounts) cascadeCountsDTO {
	return cascadeCountsDTO{
		Squads:   counts.Squads,
		Slots:    counts.Slots,
		Nodes:    counts.Nodes,
		Absences: counts.Absences,
	}
}
