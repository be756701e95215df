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

type treeService interface {
	GetTree(ctx context.Context, eventID string) ([]application.CommNode, error)
	CreateNode(ctx context.Context, params application.CreateNodeParams) (application.CommNode, error)
	UpdateNode(ctx context.Context, params application.UpdateNodeParams) (application.CommNode, error)
	DeleteNode(ctx context.Context, actor permission.Actor, nodeID string) (int, error)
	UpdatePositions(ctx context.Context, params application.UpdatePositionsParams) error
	AutoGenerateTree(ctx context.Context, actor permission.Actor, eventID string) ([]application.CommNode, error)
}

// TreeHandler exposes the communication tree over HTTP.
type TreeHandler struct {
	service   treeService
	responder responder
}

func NewTreeHandler(service treeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{service: service, responder: newResponder(logger)}
}

func (h *TreeHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("tree service not configured"))
		return
	}

	eventID := r.PathValue("id")
	if eventID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	nodes, err := h.service.GetTree(ctx, eventID)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toNodeDTOs(nodes))
}

func (h *TreeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("tree service not configured"))
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

	nodes, err := h.service.AutoGenerateTree(ctx, actor, eventID)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, toNodeDTOs(nodes))
}

func (h *TreeHandler) CreateNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("tree service not configured"))
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

	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	node, err := h.service.CreateNode(ctx, application.CreateNodeParams{
		Actor:   actor,
		EventID: eventID,
		Input:   req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusCreated, toNodeDTO(node))
}

func (h *TreeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("tree service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	nodeID := r.PathValue("id")
	if nodeID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	node, err := h.service.UpdateNode(ctx, application.UpdateNodeParams{
		Actor:  actor,
		NodeID: nodeID,
		Input:  req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, toNodeDTO(node))
}

func (h *TreeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("tree service not configured"))
		return
	}

	actor, ok := ActorFromContext(ctx)
	if !ok {
		h.responder.writeError(ctx, w, http.StatusUnauthorized, errMissingUserID)
		return
	}

	nodeID := r.PathValue("id")
	if nodeID == "" {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errInvalidID)
		return
	}

	deleted, err := h.service.DeleteNode(ctx, actor, nodeID)
	if err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusOK, map[string]int{"deleted_nodes": deleted})
}

func (h *TreeHandler) UpdatePositions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.service == nil {
		h.responder.writeError(ctx, w, http.StatusInternalServerError, errors.New("tree service not configured"))
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

	var req updatePositionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(ctx, w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	positions := make([]application.NodePosition, 0, len(req.Positions))
	for _, pos := range req.Positions {
		positions = append(positions, application.NodePosition{NodeID: pos.NodeID, X: pos.X, Y: pos.Y})
	}

	if err := h.service.UpdatePositions(ctx, application.UpdatePositionsParams{
		Actor:     actor,
		EventID:   eventID,
		Positions: positions,
	}); err != nil {
		h.responder.handleServiceError(ctx, w, err)
		return
	}

	h.responder.writeJSON(ctx, w, http.StatusNoContent, nil)
}
