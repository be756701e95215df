package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/clan-roster/internal/application"
	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/persistence"
)

type eventService interface {
	CreateEvent(ctx context.Context, params application.CreateEventParams) (application.Event, error)
	CreateEventFromTemplate(ctx context.Context, params application.CreateEventFromTemplateParams) (application.Event, error)
	GetEvent(ctx context.Context, eventID string) (application.Event, error)
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]application.Event, error)
	UpdateEvent(ctx context.Context, params application.UpdateEventParams) (application.Event, error)
	ChangeStatus(ctx context.Context, params application.ChangeStatusParams) (application.Event, error)
	DeleteEvent(ctx context.Context, actor permission.Actor, eventID string) (persistence.CascadeCounts, error)
	GetAuditTrail(ctx context.Context, actor permission.Actor, eventID string) ([]application.AuditEntry, error)
}

// EventHandler exposes the event lifecycle over HTTP.
type EventHandler struct {
	service   eventService
	responder responder
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, responder: newResponder(logger)}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("event service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, squads := req.toParams()
	event, err := h.service.CreateEvent(ctx, application.CreateEventParams{
		Actor:  actor,
		Input:  input,
		Squads: squads,
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, toEventDTO(event))
}

func (h *EventHandler) Clone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("event service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	templateID := r.PathValue("id")
	if templateID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.service.CreateEventFromTemplate(ctx, application.CreateEventFromTemplateParams{
		Actor:      actor,
		TemplateID: templateID,
		Overrides:  req.toUpdate(),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, toEventDTO(event))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("event service not configured"))
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	event, err := h.service.GetEvent(ctx, eventID)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("event service not configured"))
		return
	}

	var params application.ListEventsParams
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := persistence.EventStatus(strings.ToUpper(raw))
		params.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("game_type")); raw != "" {
		params.GameType = &raw
	}

	events, err := h.service.ListEvents(ctx, params)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toEventDTOs(events))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("event service not configured"))
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

	var req updateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.service.UpdateEvent(ctx, application.UpdateEventParams{
		Actor:   actor,
		EventID: eventID,
		Update:  req.toUpdate(),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("event service not configured"))
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

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	event, err := h.service.ChangeStatus(ctx, application.ChangeStatusParams{
		Actor:   actor,
		EventID: eventID,
		Status:  persistence.EventStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("event service not configured"))
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

	counts, err := h.service.DeleteEvent(ctx, actor, eventID)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toCascadeCountsDTO(counts))
}

func (h *EventHandler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("event service not configured"))
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

	entries, err := h.service.GetAuditTrail(ctx, actor, eventID)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	dtos := make([]auditEntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toAuditEntryDTO(entry))
	}
	h.responder.writeJSON(ctx, w, http.StatusOK, dtos)
}
