package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/clan-roster/internal/application"
	"github.com/example/clan-roster/internal/permission"
)

type assignmentService interface {
	Assign(ctx context.Context, params application.AssignParams) (application.SlotSummary, error)
	AdminAssign(ctx context.Context, params application.AssignParams) (application.SlotSummary, error)
	Unassign(ctx context.Context, params application.UnassignParams) (application.SlotSummary, error)
	AdminUnassign(ctx context.Context, params application.UnassignParams) (application.SlotSummary, error)
	MarkAbsence(ctx context.Context, params application.MarkAbsenceParams) (application.AbsenceResult, error)
	ListAbsences(ctx context.Context, actor permission.Actor, eventID string) ([]application.Absence, error)
}

// AssignmentHandler exposes slot occupancy changes and absences over HTTP.
type AssignmentHandler struct {
	service   assignmentService
	responder responder
}

func NewAssignmentHandler(service assignmentService, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{service: service, responder: newResponder(logger)}
}

func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
	h.assign(w, r, false)
}

func (h *AssignmentHandler) AdminAssign(w http.ResponseWriter, r *http.Request) {
	h.assign(w, r, true)
}

func (h *AssignmentHandler) assign(w http.ResponseWriter, r *http.Request, override bool) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("assignment service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	slotID := r.PathValue("id")
	if slotID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	// An empty body means self assignment.
	target := req.UserID
	if target == "" {
		target = actor.UserID
	}

	params := application.AssignParams{
		Actor:        actor,
		SlotID:       slotID,
		TargetUserID: target,
	}

	var (
		summary application.SlotSummary
		err     error
	)
	if override {
		summary, err = h.service.AdminAssign(ctx, params)
	} else {
		summary, err = h.service.Assign(ctx, params)
	}
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toSlotSummaryDTO(summary))
}

func (h *AssignmentHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	h.unassign(w, r, false)
}

func (h *AssignmentHandler) AdminUnassign(w http.ResponseWriter, r *http.Request) {
	h.unassign(w, r, true)
}

func (h *AssignmentHandler) unassign(w http.ResponseWriter, r *http.Request, override bool) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("assignment service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	slotID := r.PathValue("id")
	if slotID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	params := application.UnassignParams{Actor: actor, SlotID: slotID}

	var (
		summary application.SlotSummary
		err     error
	)
	if override {
		summary, err = h.service.AdminUnassign(ctx, params)
	} else {
		summary, err = h.service.Unassign(ctx, params)
	}
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toSlotSummaryDTO(summary))
}

func (h *AssignmentHandler) MarkAbsence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("assignment service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req absenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = actor.UserID
	}

	result, err := h.service.MarkAbsence(ctx, application.MarkAbsenceParams{
		Actor:   actor,
		EventID: eventID,
		UserID:  userID,
		Reason:  req.Reason,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, absenceResultDTO{
		Absence:     toAbsenceDTO(result.Absence),
		SlotFreed:   result.SlotFreed,
		FreedSlotID: result.FreedSlotID,
	})
}

func (h *AssignmentHandler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("assignment service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	absences, err := h.service.ListAbsences(ctx, actor, eventID)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	dtos := make([]absenceDTO, 0, len(absences))
	for _, absence := range absences {
		dtos = append(dtos, toAbsenceDTO(absence))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, dtos)
}
