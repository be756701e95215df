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

// RosterService edits event structure: squads and slots. Structural edits
// are gated by roster management permission, which keys off the event
// creator's clan.
type RosterService struct {
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

// NewRosterService wires dependencies for roster structure operations.
func NewRosterService(
	events persistence.EventRepository,
	squads persistence.SquadRepository,
	slots persistence.SlotRepository,
	users UserDirectory,
	audits persistence.AuditRepository,
	locks *EventLocks,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *RosterService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = NewEventLocks()
	}
	return &RosterService{
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

// CreateSquad adds a squad to an existing event.
func (s *RosterService) CreateSquad(ctx context.Context, params CreateSquadParams) (Squad, error) {
	if s == nil || s.squads == nil {
		return Squad{}, fmt.Errorf("squad repository not configured")
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "squad name is required")
		return Squad{}, vErr
	}

	event, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return Squad{}, mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, params.Actor, event); err != nil {
		return Squad{}, err
	}

	now := s.now()
	squad := persistence.Squad{
		ID:        s.idGenerator(),
		EventID:   event.ID,
		Name:      name,
		Order:     params.Order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.squads.CreateSquad(ctx, squad); err != nil {
		return Squad{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "squad", squad.ID, &event.ID, SquadCreatedDetails{Name: squad.Name})
	return squadView(squad), nil
}

// UpdateSquad renames or reorders a squad.
func (s *RosterService) UpdateSquad(ctx context.Context, params UpdateSquadParams) (Squad, error) {
	if s == nil || s.squads == nil {
		return Squad{}, fmt.Errorf("squad repository not configured")
	}

	name := strings.TrimSpace(params.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "squad name is required")
		return Squad{}, vErr
	}

	squad, err := s.squads.GetSquad(ctx, params.SquadID)
	if err != nil {
		return Squad{}, mapRepoError(err)
	}
	event, err := s.events.GetEvent(ctx, squad.EventID)
	if err != nil {
		return Squad{}, mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, params.Actor, event); err != nil {
		return Squad{}, err
	}

	squad.Name = name
	squad.Order = params.Order
	squad.UpdatedAt = s.now()
	if err := s.squads.UpdateSquad(ctx, squad); err != nil {
		return Squad{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "squad", squad.ID, &event.ID, SquadUpdatedDetails{Name: squad.Name})
	return squadView(squad), nil
}

// DeleteSquad removes the squad and all of its slots, occupied or not. This
// deliberately mirrors event deletion rather than slot deletion: removing a
// structural unit evicts its occupants instead of being blocked by them.
func (s *RosterService) DeleteSquad(ctx context.Context, params UpdateSquadParams) (int, error) {
	if s == nil || s.squads == nil {
		return 0, fmt.Errorf("squad repository not configured")
	}

	squad, err := s.squads.GetSquad(ctx, params.SquadID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	event, err := s.events.GetEvent(ctx, squad.EventID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, params.Actor, event); err != nil {
		return 0, err
	}

	unlock := s.locks.lock(event.ID)
	defer unlock()

	slotsDeleted, err := s.squads.DeleteSquad(ctx, squad.ID)
	if err != nil {
		return 0, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "squad", squad.ID, &event.ID, SquadDeletedDetails{SlotsDeleted: slotsDeleted})
	serviceLogger(ctx, s.logger, "roster", "delete_squad", "event_id", event.ID).
		InfoContext(ctx, "squad deleted", "squad_id", squad.ID, "slots", slotsDeleted)
	return slotsDeleted, nil
}

// CreateSlot adds a slot to an existing squad. New slots always start free.
func (s *RosterService) CreateSlot(ctx context.Context, params CreateSlotParams) (Slot, error) {
	if s == nil || s.slots == nil {
		return Slot{}, fmt.Errorf("slot repository not configured")
	}

	role := strings.TrimSpace(params.Input.Role)
	if role == "" {
		vErr := &ValidationError{}
		vErr.add("role", "slot role is required")
		return Slot{}, vErr
	}

	squad, err := s.squads.GetSquad(ctx, params.SquadID)
	if err != nil {
		return Slot{}, mapRepoError(err)
	}
	event, err := s.events.GetEvent(ctx, squad.EventID)
	if err != nil {
		return Slot{}, mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, params.Actor, event); err != nil {
		return Slot{}, err
	}

	now := s.now()
	slot := persistence.Slot{
		ID:        s.idGenerator(),
		SquadID:   squad.ID,
		Role:      role,
		Order:     params.Input.Order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.slots.CreateSlot(ctx, slot); err != nil {
		return Slot{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "slot", slot.ID, &event.ID, SlotCreatedDetails{Role: slot.Role})
	return slotView(slot), nil
}

// UpdateSlot edits a slot's role and order. Occupancy is untouched; the
// assignment engine is the only writer of occupancy.
func (s *RosterService) UpdateSlot(ctx context.Context, params UpdateSlotParams) (Slot, error) {
	if s == nil || s.slots == nil {
		return Slot{}, fmt.Errorf("slot repository not configured")
	}

	role := strings.TrimSpace(params.Input.Role)
	if role == "" {
		vErr := &ValidationError{}
		vErr.add("role", "slot role is required")
		return Slot{}, vErr
	}

	slot, err := s.slots.GetSlot(ctx, params.SlotID)
	if err != nil {
		return Slot{}, mapRepoError(err)
	}
	squad, err := s.squads.GetSquad(ctx, slot.SquadID)
	if err != nil {
		return Slot{}, mapRepoError(err)
	}
	event, err := s.events.GetEvent(ctx, squad.EventID)
	if err != nil {
		return Slot{}, mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, params.Actor, event); err != nil {
		return Slot{}, err
	}

	slot.Role = role
	slot.Order = params.Input.Order
	slot.UpdatedAt = s.now()
	if err := s.slots.UpdateSlot(ctx, slot); err != nil {
		return Slot{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "slot", slot.ID, &event.ID, SlotUpdatedDetails{Role: slot.Role})
	return slotView(slot), nil
}

// DeleteSlot removes a free slot. Occupied slots must be released first and
// deleting one fails with ErrConflict.
func (s *RosterService) DeleteSlot(ctx context.Context, params UpdateSlotParams) error {
	if s == nil || s.slots == nil {
		return fmt.Errorf("slot repository not configured")
	}

	slot, err := s.slots.GetSlot(ctx, params.SlotID)
	if err != nil {
		return mapRepoError(err)
	}
	squad, err := s.squads.GetSquad(ctx, slot.SquadID)
	if err != nil {
		return mapRepoError(err)
	}
	event, err := s.events.GetEvent(ctx, squad.EventID)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, params.Actor, event); err != nil {
		return err
	}

	unlock := s.locks.lock(event.ID)
	defer unlock()

	if err := s.slots.DeleteSlot(ctx, slot.ID); err != nil {
		return mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "slot", slot.ID, &event.ID, SlotDeletedDetails{Role: slot.Role})
	return nil
}

func (s *RosterService) requireRosterAccess(ctx context.Context, actor permission.Actor, event persistence.Event) error {
	allowed, err := canManageRoster(ctx, s.users, actor, event)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}
