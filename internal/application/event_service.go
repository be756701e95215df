package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/persistence"
	"log/slog"
)

// EventService owns the event lifecycle: creation from scratch or from a
// template, status transitions, partial updates and the cascading delete.
type EventService struct {
	events      persistence.EventRepository
	squads      persistence.SquadRepository
	slots       persistence.SlotRepository
	users       UserDirectory
	audit       *auditRecorder
	locks       *EventLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService wires dependencies for event lifecycle operations.
func NewEventService(
	events persistence.EventRepository,
	squads persistence.SquadRepository,
	slots persistence.SlotRepository,
	users UserDirectory,
	audits persistence.AuditRepository,
	locks *EventLocks,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = NewEventLocks()
	}
	return &EventService{
		events:      events,
		squads:      squads,
		slots:       slots,
		users:       users,
		audit:       newAuditRecorder(audits, idGenerator, now, logger),
		locks:       locks,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateEvent validates the whole event/squad/slot batch before any write,
// then persists the graph atomically. Every slot starts free.
func (s *EventService) CreateEvent(ctx context.Context, params CreateEventParams) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}
	if params.Actor.UserID == "" {
		return Event{}, ErrPermissionDenied
	}

	vErr := &ValidationError{}
	validateEventInput(params.Input, vErr)
	validateSquadBatch(params.Squads, vErr)
	if vErr.HasErrors() {
		return Event{}, vErr
	}

	now := s.now()
	event := persistence.Event{
		ID:            s.idGenerator(),
		Name:          strings.TrimSpace(params.Input.Name),
		Description:   params.Input.Description,
		Briefing:      params.Input.Briefing,
		GameType:      params.Input.GameType,
		Status:        persistence.EventStatusActive,
		ScheduledDate: params.Input.ScheduledDate,
		CreatorID:     params.Actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	squads, slots := s.buildRoster(event.ID, params.Squads, now)

	if err := s.events.CreateEventGraph(ctx, event, squads, slots); err != nil {
		return Event{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "event", event.ID, &event.ID, EventCreatedDetails{
		SquadCount: len(squads),
		SlotCount:  len(slots),
	})
	serviceLogger(ctx, s.logger, "event", "create", "event_id", event.ID).
		InfoContext(ctx, "event created", "squads", len(squads), "slots", len(slots))

	return s.assembleGraph(event, squads, slots), nil
}

// CreateEventFromTemplate clones the squad/slot shape of an existing event.
// Occupancy is never copied: every slot of the clone starts free no matter
// who holds the template's slots at clone time.
func (s *EventService) CreateEventFromTemplate(ctx context.Context, params CreateEventFromTemplateParams) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}
	if params.Actor.UserID == "" {
		return Event{}, ErrPermissionDenied
	}

	template, err := s.events.GetEvent(ctx, params.TemplateID)
	if err != nil {
		return Event{}, mapRepoError(err)
	}
	templateSquads, err := s.squads.ListSquadsForEvent(ctx, template.ID)
	if err != nil {
		return Event{}, mapRepoError(err)
	}

	now := s.now()
	event := persistence.Event{
		ID:            s.idGenerator(),
		Name:          template.Name,
		Description:   template.Description,
		Briefing:      template.Briefing,
		GameType:      template.GameType,
		Status:        persistence.EventStatusActive,
		ScheduledDate: template.ScheduledDate,
		CreatorID:     params.Actor.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyEventUpdate(&event, params.Overrides)

	squads := make([]persistence.Squad, 0, len(templateSquads))
	slots := make([]persistence.Slot, 0)
	for _, templateSquad := range templateSquads {
		squad := persistence.Squad{
			ID:        s.idGenerator(),
			EventID:   event.ID,
			Name:      templateSquad.Name,
			Order:     templateSquad.Order,
			CreatedAt: now,
			UpdatedAt: now,
		}
		squads = append(squads, squad)

		templateSlots, err := s.slots.ListSlotsForSquad(ctx, templateSquad.ID)
		if err != nil {
			return Event{}, mapRepoError(err)
		}
		for _, templateSlot := range templateSlots {
			slots = append(slots, persistence.Slot{
				ID:        s.idGenerator(),
				SquadID:   squad.ID,
				Role:      templateSlot.Role,
				Order:     templateSlot.Order,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}

	if err := s.events.CreateEventGraph(ctx, event, squads, slots); err != nil {
		return Event{}, mapRepoError(err)
	}

	templateID := template.ID
	s.audit.record(ctx, params.Actor, "event", event.ID, &event.ID, EventCreatedDetails{
		SquadCount: len(squads),
		SlotCount:  len(slots),
		TemplateID: &templateID,
	})

	return s.assembleGraph(event, squads, slots), nil
}

// GetEvent returns the event with its full squad/slot graph.
func (s *EventService) GetEvent(ctx context.Context, eventID string) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return Event{}, mapRepoError(err)
	}
	squads, err := s.squads.ListSquadsForEvent(ctx, event.ID)
	if err != nil {
		return Event{}, mapRepoError(err)
	}
	slots, err := s.slots.ListSlotsForEvent(ctx, event.ID)
	if err != nil {
		return Event{}, mapRepoError(err)
	}
	return s.assembleGraph(event, squads, slots), nil
}

// ListEvents enumerates events without their graphs.
func (s *EventService) ListEvents(ctx context.Context, params ListEventsParams) ([]Event, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}

	events, err := s.events.ListEvents(ctx, persistence.EventFilter{
		Status:   params.Status,
		GameType: params.GameType,
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	views := make([]Event, 0, len(events))
	for _, event := range events {
		views = append(views, eventView(event))
	}
	return views, nil
}

// UpdateEvent applies a partial update after authorization.
func (s *EventService) UpdateEvent(ctx context.Context, params UpdateEventParams) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}

	event, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return Event{}, mapRepoError(err)
	}

	allowed, err := canManageEvent(ctx, s.users, params.Actor, event)
	if err != nil {
		return Event{}, err
	}
	if !allowed {
		return Event{}, ErrPermissionDenied
	}

	vErr := &ValidationError{}
	if params.Update.Name != nil && strings.TrimSpace(*params.Update.Name) == "" {
		vErr.add("name", "name must not be empty")
	}
	if params.Update.GameType != nil && strings.TrimSpace(*params.Update.GameType) == "" {
		vErr.add("game_type", "game type must not be empty")
	}
	if vErr.HasErrors() {
		return Event{}, vErr
	}

	fields := applyEventUpdate(&event, params.Update)
	event.UpdatedAt = s.now()

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		return Event{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "event", event.ID, &event.ID, EventUpdatedDetails{Fields: fields})
	return eventView(event), nil
}

// ChangeStatus transitions the event between ACTIVE and INACTIVE.
func (s *EventService) ChangeStatus(ctx context.Context, params ChangeStatusParams) (Event, error) {
	if s == nil || s.events == nil {
		return Event{}, fmt.Errorf("event repository not configured")
	}

	if !params.Status.Valid() {
		vErr := &ValidationError{}
		vErr.add("status", "status must be ACTIVE or INACTIVE")
		return Event{}, vErr
	}

	event, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return Event{}, mapRepoError(err)
	}

	allowed, err := canManageEvent(ctx, s.users, params.Actor, event)
	if err != nil {
		return Event{}, err
	}
	if !allowed {
		return Event{}, ErrPermissionDenied
	}

	previous := event.Status
	event.Status = params.Status
	event.UpdatedAt = s.now()

	if err := s.events.UpdateEvent(ctx, event); err != nil {
		return Event{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "event", event.ID, &event.ID, EventStatusChangedDetails{
		From: previous,
		To:   event.Status,
	})
	return eventView(event), nil
}

// DeleteEvent removes the event and everything it owns, reporting cascade
// counts for caller reporting.
func (s *EventService) DeleteEvent(ctx context.Context, actor permission.Actor, eventID string) (persistence.CascadeCounts, error) {
	if s == nil || s.events == nil {
		return persistence.CascadeCounts{}, fmt.Errorf("event repository not configured")
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return persistence.CascadeCounts{}, mapRepoError(err)
	}

	allowed, err := canManageEvent(ctx, s.users, actor, event)
	if err != nil {
		return persistence.CascadeCounts{}, err
	}
	if !allowed {
		return persistence.CascadeCounts{}, ErrPermissionDenied
	}

	unlock := s.locks.lock(eventID)
	counts, err := s.events.DeleteEvent(ctx, eventID)
	unlock()
	if err != nil {
		return persistence.CascadeCounts{}, mapRepoError(err)
	}
	s.locks.forget(eventID)

	s.audit.record(ctx, actor, "event", eventID, &eventID, EventDeletedDetails{
		Squads:   counts.Squads,
		Slots:    counts.Slots,
		Nodes:    counts.Nodes,
		Absences: counts.Absences,
	})
	serviceLogger(ctx, s.logger, "event", "delete", "event_id", eventID).
		InfoContext(ctx, "event deleted", "squads", counts.Squads, "slots", counts.Slots)

	return counts, nil
}

// GetAuditTrail returns the event's audit entries. Admin only.
func (s *EventService) GetAuditTrail(ctx context.Context, actor permission.Actor, eventID string) ([]AuditEntry, error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}
	if !permission.CanActOnAny(actor) {
		return nil, ErrPermissionDenied
	}

	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, mapRepoError(err)
	}

	entries, err := s.audit.audits.ListAuditForEvent(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	views := make([]AuditEntry, 0, len(entries))
	for _, entry := range entries {
		views = append(views, auditView(entry))
	}
	return views, nil
}

func (s *EventService) buildRoster(eventID string, inputs []SquadInput, now time.Time) ([]persistence.Squad, []persistence.Slot) {
	squads := make([]persistence.Squad, 0, len(inputs))
	slots := make([]persistence.Slot, 0)
	for _, squadInput := range inputs {
		squad := persistence.Squad{
			ID:        s.idGenerator(),
			EventID:   eventID,
			Name:      strings.TrimSpace(squadInput.Name),
			Order:     squadInput.Order,
			CreatedAt: now,
			UpdatedAt: now,
		}
		squads = append(squads, squad)
		for _, slotInput := range squadInput.Slots {
			slots = append(slots, persistence.Slot{
				ID:        s.idGenerator(),
				SquadID:   squad.ID,
				Role:      strings.TrimSpace(slotInput.Role),
				Order:     slotInput.Order,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}
	return squads, slots
}

func (s *EventService) assembleGraph(event persistence.Event, squads []persistence.Squad, slots []persistence.Slot) Event {
	view := eventView(event)
	view.Squads = make([]Squad, 0, len(squads))
	for _, squad := range squads {
		squadV := squadView(squad)
		for _, slot := range slots {
			if slot.SquadID == squad.ID {
				squadV.Slots = append(squadV.Slots, slotView(slot))
			}
		}
		view.Squads = append(view.Squads, squadV)
	}
	return view
}

func validateEventInput(input EventInput, vErr *ValidationError) {
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.GameType) == "" {
		vErr.add("game_type", "game type is required")
	}
	if input.ScheduledDate.IsZero() {
		vErr.add("scheduled_date", "scheduled date is required")
	}
}

func validateSquadBatch(squads []SquadInput, vErr *ValidationError) {
	if len(squads) == 0 {
		vErr.add("squads", "at least one squad is required")
		return
	}
	for i, squad := range squads {
		if strings.TrimSpace(squad.Name) == "" {
			vErr.add(fmt.Sprintf("squads[%d].name", i), "squad name is required")
		}
		if len(squad.Slots) == 0 {
			vErr.add(fmt.Sprintf("squads[%d].slots", i), "at least one slot is required")
		}
		for j, slot := range squad.Slots {
			if strings.TrimSpace(slot.Role) == "" {
				vErr.add(fmt.Sprintf("squads[%d].slots[%d].role", i, j), "slot role is required")
			}
		}
	}
}

func applyEventUpdate(event *persistence.Event, update EventUpdate) []string {
	var fields []string
	if update.Name != nil {
		event.Name = strings.TrimSpace(*update.Name)
		fields = append(fields, "name")
	}
	if update.Description != nil {
		event.Description = *update.Description
		fields = append(fields, "description")
	}
	if update.Briefing != nil {
		event.Briefing = *update.Briefing
		fields = append(fields, "briefing")
	}
	if update.GameType != nil {
		event.GameType = *update.GameType
		fields = append(fields, "game_type")
	}
	if update.ScheduledDate != nil {
		event.ScheduledDate = *update.ScheduledDate
		fields = append(fields, "scheduled_date")
	}
	return fields
}
