package http

import "net/http"

// RouterConfig collects the handlers and middleware the router serves.
type RouterConfig struct {
	Events      *EventHandler
	Roster      *RosterHandler
	Assignments *AssignmentHandler
	Tree        *TreeHandler

	// Middleware is applied outermost first.
	Middleware []func(http.Handler) http.Handler
}

// NewRouter wires every route onto a ServeMux using method patterns.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Events != nil {
		mux.HandleFunc("POST /events", cfg.Events.Create)
		mux.HandleFunc("GET /events", cfg.Events.List)
		mux.HandleFunc("GET /events/{id}", cfg.Events.Get)
		mux.HandleFunc("PATCH /events/{id}", cfg.Events.Update)
		mux.HandleFunc("DELETE /events/{id}", cfg.Events.Delete)
		mux.HandleFunc("POST /events/{id}/status", cfg.Events.ChangeStatus)
		mux.HandleFunc("POST /events/{id}/clone", cfg.Events.Clone)
		mux.HandleFunc("GET /events/{id}/audit", cfg.Events.AuditTrail)
	}

	if cfg.Roster != nil {
		mux.HandleFunc("POST /events/{id}/squads", cfg.Roster.CreateSquad)
		mux.HandleFunc("PUT /squads/{id}", cfg.Roster.UpdateSquad)
		mux.HandleFunc("DELETE /squads/{id}", cfg.Roster.DeleteSquad)
		mux.HandleFunc("POST /squads/{id}/slots", cfg.Roster.CreateSlot)
		mux.HandleFunc("PUT /slots/{id}", cfg.Roster.UpdateSlot)
		mux.HandleFunc("DELETE /slots/{id}", cfg.Roster.DeleteSlot)
	}

	if cfg.Assignments != nil {
		mux.HandleFunc("POST /slots/{id}/assign", cfg.Assignments.Assign)
		mux.HandleFunc("POST /slots/{id}/unassign", cfg.Assignments.Unassign)
		mux.HandleFunc("POST /slots/{id}/admin-assign", cfg.Assignments.AdminAssign)
		mux.HandleFunc("POST /slots/{id}/admin-unassign", cfg.Assignments.AdminUnassign)
		mux.HandleFunc("POST /events/{id}/absences", cfg.Assignments.MarkAbsence)
		mux.HandleFunc("GET /events/{id}/absences", cfg.Assignments.ListAbsences)
	}

	if cfg.Tree != nil {
		mux.HandleFunc("GET /events/{id}/comm-tree", cfg.Tree.Get)
		mux.HandleFunc("POST /events/{id}/comm-tree/generate", cfg.Tree.Generate)
		mux.HandleFunc("POST /events/{id}/comm-tree/nodes", cfg.Tree.CreateNode)
		mux.HandleFunc("PUT /events/{id}/comm-tree/positions", cfg.Tree.UpdatePositions)
		mux.HandleFunc("PUT /comm-nodes/{id}", cfg.Tree.UpdateNode)
		mux.HandleFunc("DELETE /comm-nodes/{id}", cfg.Tree.DeleteNode)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		handler = cfg.Middleware[i](handler)
	}
	return handler
}
