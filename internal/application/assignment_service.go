package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/persistence"
)

// AssignmentService owns slot occupancy: assignment with auto-release,
// release, the admin override variants and absence declarations. All
// occupancy mutations for one event are serialized through the shared
// event lock, and the repository's conditional writes keep the single
// occupancy rule intact even against concurrent writers.
type AssignmentService struct {
	events      persistence.EventRepository
	squads      persistence.SquadRepository
	slots       persistence.SlotRepository
	absences    persistence.AbsenceRepository
	users       UserDirectory
	audit       *auditRecorder
	locks       *EventLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAssignmentService wires dependencies for occupancy operations.
func NewAssignmentService(
	events persistence.EventRepository,
	squads persistence.SquadRepository,
	slots persistence.SlotRepository,
	absences persistence.AbsenceRepository,
	users UserDirectory,
	audits persistence.AuditRepository,
	locks *EventLocks,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *AssignmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = NewEventLocks()
	}
	return &AssignmentService{
		events:      events,
		squads:      squads,
		slots:       slots,
		absences:    absences,
		users:       users,
		audit:       newAuditRecorder(audits, idGenerator, now, logger),
		locks:       locks,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Assign places the target user into the slot. If the user already holds a
// different slot in the same event, that slot is released in the same
// operation. The event must be ACTIVE and the slot free.
//
// Authorization runs before occupancy is examined: a caller without
// permission sees ErrPermissionDenied even when the slot is already taken.
// Occupancy is only authoritative inside the event lock.
func (s *AssignmentService) Assign(ctx context.Context, params AssignParams) (SlotSummary, error) {
	return s.assign(ctx, params, false)
}

// AdminAssign is the override variant: clan leaders and admins may place a
// user even while the event is INACTIVE. Plain self-service is not enough.
func (s *AssignmentService) AdminAssign(ctx context.Context, params AssignParams) (SlotSummary, error) {
	return s.assign(ctx, params, true)
}

func (s *AssignmentService) assign(ctx context.Context, params AssignParams, override bool) (SlotSummary, error) {
	if s == nil || s.slots == nil {
		return SlotSummary{}, fmt.Errorf("slot repository not configured")
	}
	if params.TargetUserID == "" {
		vErr := &ValidationError{}
		vErr.add("target_user_id", "target user is required")
		return SlotSummary{}, vErr
	}

	slot, squad, event, err := s.resolveSlot(ctx, params.SlotID)
	if err != nil {
		return SlotSummary{}, err
	}

	if override {
		allowed, err := canProxyForUser(ctx, s.users, params.Actor, params.TargetUserID)
		if err != nil {
			return SlotSummary{}, err
		}
		if !allowed {
			return SlotSummary{}, ErrPermissionDenied
		}
	} else {
		if event.Status != persistence.EventStatusActive {
			return SlotSummary{}, ErrInvalidState
		}
		allowed, err := canActOnUser(ctx, s.users, params.Actor, params.TargetUserID)
		if err != nil {
			return SlotSummary{}, err
		}
		if !allowed {
			return SlotSummary{}, ErrPermissionDenied
		}
	}

	unlock := s.locks.lock(event.ID)
	defer unlock()

	// Re-read inside the lock; the slot may have changed hands while the
	// permission checks ran.
	slot, err = s.slots.GetSlot(ctx, slot.ID)
	if err != nil {
		return SlotSummary{}, mapRepoError(err)
	}
	if slot.UserID != nil {
		return SlotSummary{}, ErrConflict
	}

	var releasedSlotID *string
	held, err := s.slots.FindSlotByOccupant(ctx, event.ID, params.TargetUserID)
	switch {
	case err == nil:
		if err := s.slots.MoveOccupant(ctx, params.TargetUserID, held.ID, slot.ID); err != nil {
			return SlotSummary{}, mapRepoError(err)
		}
		freed := held.ID
		releasedSlotID = &freed
	case errors.Is(err, persistence.ErrNotFound):
		if err := s.slots.OccupySlot(ctx, slot.ID, params.TargetUserID); err != nil {
			return SlotSummary{}, mapRepoError(err)
		}
	default:
		return SlotSummary{}, mapRepoError(err)
	}

	occupant := params.TargetUserID
	slot.UserID = &occupant

	s.audit.record(ctx, params.Actor, "slot", slot.ID, &event.ID, SlotAssignedDetails{
		TargetUserID:   params.TargetUserID,
		ReleasedSlotID: releasedSlotID,
		Override:       override,
	})
	logger := serviceLogger(ctx, s.logger, "assignment", "assign", "event_id", event.ID, "slot_id", slot.ID)
	if releasedSlotID != nil {
		logger.InfoContext(ctx, "slot assigned with auto-release", "user_id", params.TargetUserID, "released_slot_id", *releasedSlotID)
	} else {
		logger.InfoContext(ctx, "slot assigned", "user_id", params.TargetUserID)
	}

	return SlotSummary{
		Slot:      slotView(slot),
		SquadName: squad.Name,
		EventID:   event.ID,
		EventName: event.Name,
	}, nil
}

// Unassign releases the slot's occupant. The permission check runs against
// the current occupant; releasing a free slot fails with ErrInvalidState.
func (s *AssignmentService) Unassign(ctx context.Context, params UnassignParams) (SlotSummary, error) {
	return s.unassign(ctx, params, false)
}

// AdminUnassign is the override variant for clan leaders and admins. The
// event status gate does not apply here either, matching AdminAssign.
func (s *AssignmentService) AdminUnassign(ctx context.Context, params UnassignParams) (SlotSummary, error) {
	return s.unassign(ctx, params, true)
}

func (s *AssignmentService) unassign(ctx context.Context, params UnassignParams, override bool) (SlotSummary, error) {
	if s == nil || s.slots == nil {
		return SlotSummary{}, fmt.Errorf("slot repository not configured")
	}

	slot, squad, event, err := s.resolveSlot(ctx, params.SlotID)
	if err != nil {
		return SlotSummary{}, err
	}

	unlock := s.locks.lock(event.ID)
	defer unlock()

	slot, err = s.slots.GetSlot(ctx, slot.ID)
	if err != nil {
		return SlotSummary{}, mapRepoError(err)
	}
	if slot.UserID == nil {
		return SlotSummary{}, ErrInvalidState
	}
	occupant := *slot.UserID

	if override {
		allowed, err := canProxyForUser(ctx, s.users, params.Actor, occupant)
		if err != nil {
			return SlotSummary{}, err
		}
		if !allowed {
			return SlotSummary{}, ErrPermissionDenied
		}
	} else {
		if event.Status != persistence.EventStatusActive {
			return SlotSummary{}, ErrInvalidState
		}
		allowed, err := canActOnUser(ctx, s.users, params.Actor, occupant)
		if err != nil {
			return SlotSummary{}, err
		}
		if !allowed {
			return SlotSummary{}, ErrPermissionDenied
		}
	}

	if err := s.slots.ReleaseSlot(ctx, slot.ID); err != nil {
		return SlotSummary{}, mapRepoError(err)
	}
	slot.UserID = nil

	s.audit.record(ctx, params.Actor, "slot", slot.ID, &event.ID, SlotUnassignedDetails{
		OccupantID: occupant,
		Override:   override,
	})
	serviceLogger(ctx, s.logger, "assignment", "unassign", "event_id", event.ID, "slot_id", slot.ID).
		InfoContext(ctx, "slot released", "user_id", occupant)

	return SlotSummary{
		Slot:      slotView(slot),
		SquadName: squad.Name,
		EventID:   event.ID,
		EventName: event.Name,
	}, nil
}

// MarkAbsence records that the user will not attend. If the user currently
// holds a slot in the event, that slot is freed in the same operation. The
// absence record is created whether or not a slot was held.
func (s *AssignmentService) MarkAbsence(ctx context.Context, params MarkAbsenceParams) (AbsenceResult, error) {
	if s == nil || s.absences == nil {
		return AbsenceResult{}, fmt.Errorf("absence repository not configured")
	}
	if params.UserID == "" {
		vErr := &ValidationError{}
		vErr.add("user_id", "user is required")
		return AbsenceResult{}, vErr
	}

	event, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return AbsenceResult{}, mapRepoError(err)
	}

	allowed, err := canActOnUser(ctx, s.users, params.Actor, params.UserID)
	if err != nil {
		return AbsenceResult{}, err
	}
	if !allowed {
		return AbsenceResult{}, ErrPermissionDenied
	}

	unlock := s.locks.lock(event.ID)
	defer unlock()

	var freedSlotID *string
	held, err := s.slots.FindSlotByOccupant(ctx, event.ID, params.UserID)
	switch {
	case err == nil:
		if err := s.slots.ReleaseSlot(ctx, held.ID); err != nil {
			return AbsenceResult{}, mapRepoError(err)
		}
		freed := held.ID
		freedSlotID = &freed
	case errors.Is(err, persistence.ErrNotFound):
	default:
		return AbsenceResult{}, mapRepoError(err)
	}

	absence := persistence.Absence{
		ID:        s.idGenerator(),
		EventID:   event.ID,
		UserID:    params.UserID,
		Reason:    params.Reason,
		CreatedAt: s.now(),
	}
	if err := s.absences.CreateAbsence(ctx, absence); err != nil {
		return AbsenceResult{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "absence", absence.ID, &event.ID, AbsenceMarkedDetails{
		UserID:      params.UserID,
		SlotFreed:   freedSlotID != nil,
		FreedSlotID: freedSlotID,
	})
	serviceLogger(ctx, s.logger, "assignment", "mark_absence", "event_id", event.ID).
		InfoContext(ctx, "absence marked", "user_id", params.UserID, "slot_freed", freedSlotID != nil)

	return AbsenceResult{
		Absence:     absenceView(absence),
		SlotFreed:   freedSlotID != nil,
		FreedSlotID: freedSlotID,
	}, nil
}

// ListAbsences returns the event's declared absences.
func (s *AssignmentService) ListAbsences(ctx context.Context, actor permission.Actor, eventID string) ([]Absence, error) {
	if s == nil || s.absences == nil {
		return nil, fmt.Errorf("absence repository not configured")
	}

	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, mapRepoError(err)
	}

	absences, err := s.absences.ListAbsencesForEvent(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	views := make([]Absence, 0, len(absences))
	for _, absence := range absences {
		views = append(views, absenceView(absence))
	}
	return views, nil
}

// resolveSlot walks slot to squad to event so callers can lock and
// authorize at the event level.
func (s *AssignmentService) resolveSlot(ctx context.Context, slotID string) (persistence.Slot, persistence.Squad, persistence.Event, error) {
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return persistence.Slot{}, persistence.Squad{}, persistence.Event{}, mapRepoError(err)
	}
	squad, err := s.squads.GetSquad(ctx, slot.SquadID)
	if err != nil {
		return persistence.Slot{}, persistence.Squad{}, persistence.Event{}, mapRepoError(err)
	}
	event, err := s.events.GetEvent(ctx, squad.EventID)
	if err != nil {
		return persistence.Slot{}, persistence.Squad{}, persistence.Event{}, mapRepoError(err)
	}
	return slot, squad, event, nil
}
