package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/clan-roster/internal/application"
)

type rosterService interface {
	CreateSquad(ctx context.Context, params application.CreateSquadParams) (application.Squad, error)
	UpdateSquad(ctx context.Context, params application.UpdateSquadParams) (application.Squad, error)
	DeleteSquad(ctx context.Context, params application.UpdateSquadParams) (int, error)
	CreateSlot(ctx context.Context, params application.CreateSlotParams) (application.Slot, error)
	UpdateSlot(ctx context.Context, params application.UpdateSlotParams) (application.Slot, error)
	DeleteSlot(ctx context.Context, params application.UpdateSlotParams) error
}

// RosterHandler exposes squad and slot structure edits over HTTP.
type RosterHandler struct {
	service   rosterService
	responder responder
}

func NewRosterHandler(service rosterService, logger *slog.Logger) *RosterHandler {
	return &RosterHandler{service: service, responder: newResponder(logger)}
}

func (h *RosterHandler) CreateSquad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("roster service not configured"))
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

	var req squadCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	squad, err := h.service.CreateSquad(ctx, application.CreateSquadParams{
		Actor:   actor,
		EventID: eventID,
		Name:    req.Name,
		Order:   req.Order,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, toSquadDTO(squad))
}

func (h *RosterHandler) UpdateSquad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("roster service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	squadID := r.PathValue("id")
	if squadID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req squadCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	squad, err := h.service.UpdateSquad(ctx, application.UpdateSquadParams{
		Actor:   actor,
		SquadID: squadID,
		Name:    req.Name,
		Order:   req.Order,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toSquadDTO(squad))
}

func (h *RosterHandler) DeleteSquad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("roster service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	squadID := r.PathValue("id")
	if squadID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	deleted, err := h.service.DeleteSquad(ctx, application.UpdateSquadParams{
		Actor:   actor,
		SquadID: squadID,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, map[string]int{"deleted_slots": deleted})
}

func (h *RosterHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("roster service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	squadID := r.PathValue("id")
	if squadID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	slot, err := h.service.CreateSlot(ctx, application.CreateSlotParams{
		Actor:   actor,
		SquadID: squadID,
		Input:   application.SlotInput{Role: req.Role, Order: req.Order},
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, toSlotDTO(slot))
}

func (h *RosterHandler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("roster service not configured"))
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

	var req slotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	slot, err := h.service.UpdateSlot(ctx, application.UpdateSlotParams{
		Actor:  actor,
		SlotID: slotID,
		Input:  application.SlotInput{Role: req.Role, Order: req.Order},
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toSlotDTO(slot))
}

func (h *RosterHandler) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("roster service not configured"))
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

	if err := h.service.DeleteSlot(ctx, application.UpdateSlotParams{Actor: actor, SlotID: slotID}); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}
