package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	clanhttp "github.com/example/clan-roster/internal/http"
	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/testfixtures"
)

func newTestServer(t *testing.T) (*testfixtures.Harness, http.Handler) {
	t.Helper()

	harness := testfixtures.NewHarness()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := clanhttp.NewRouter(clanhttp.RouterConfig{
		Events:      clanhttp.NewEventHandler(harness.Events, logger),
		Roster:      clanhttp.NewRosterHandler(harness.Roster, logger),
		Assignments: clanhttp.NewAssignmentHandler(harness.Assignments, logger),
		Tree:        clanhttp.NewTreeHandler(harness.Tree, logger),
		Middleware: []func(http.Handler) http.Handler{
			clanhttp.RequestLogger(logger),
			clanhttp.RequireActor(logger),
		},
	})

	return harness, handler
}

func doRequest(t *testing.T, handler http.Handler, method, path string, actor *permission.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = strings.NewReader("{}")
	}

	req := httptest.NewRequest(method, path, reader)
	if actor != nil {
		req.Header.Set("X-User-ID", actor.UserID)
		req.Header.Set("X-User-Role", string(actor.Role))
		req.Header.Set("X-Clan-ID", actor.ClanID)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func eventPayload() map[string]any {
	return map[string]any{
		"name":           "Operation Redwood",
		"game_type":      "arma3",
		"scheduled_date": time.Date(2024, 3, 16, 20, 0, 0, 0, time.UTC).Format(time.RFC3339),
		"squads": []map[string]any{
			{
				"name":  "Alpha",
				"order": 1,
				"slots": []map[string]any{
					{"role": "Squad Leader", "order": 1},
					{"role": "Medic", "order": 2},
				},
			},
		},
	}
}

func TestCreateAndGetEvent(t *testing.T) {
	harness, handler := newTestServer(t)
	creator := harness.Directory.Add(testfixtures.NewUserFixture(
		testfixtures.WithUserClan("clan-alpha"),
	)).Actor()

	rec := doRequest(t, handler, http.MethodPost, "/events", &creator, eventPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Squads []struct {
			Name  string `json:"name"`
			Slots []struct {
				Status string `json:"status"`
			} `json:"slots"`
		} `json:"squads"`
	}
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Status != "ACTIVE" {
		t.Fatalf("unexpected event: %+v", created)
	}
	if len(created.Squads) != 1 || len(created.Squads[0].Slots) != 2 {
		t.Fatalf("unexpected roster shape: %+v", created.Squads)
	}
	for _, slot := range created.Squads[0].Slots {
		if slot.Status != "FREE" {
			t.Errorf("slot status = %q, want FREE", slot.Status)
		}
	}

	rec = doRequest(t, handler, http.MethodGet, "/events/"+created.ID, &creator, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status = %d", rec.Code)
	}
}

func TestCreateEventValidationResponse(t *testing.T) {
	harness, handler := newTestServer(t)
	creator := harness.Directory.Add(testfixtures.NewUserFixture()).Actor()

	payload := eventPayload()
	delete(payload, "name")
	payload["scheduled_date"] = time.Time{}.Format(time.RFC3339)

	rec := doRequest(t, handler, http.MethodPost, "/events", &creator, payload)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var resp struct {
		Errors map[string]string `json:"errors"`
	}
	decodeBody(t, rec, &resp)
	if _, ok := resp.Errors["name"]; !ok {
		t.Errorf("errors should name the missing field: %v", resp.Errors)
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/events", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAssignAndUnassignOverHTTP(t *testing.T) {
	harness, handler := newTestServer(t)
	creator := harness.Directory.Add(testfixtures.NewUserFixture(
		testfixtures.WithUserClan("clan-alpha"),
	)).Actor()

	rec := doRequest(t, handler, http.MethodPost, "/events", &creator, eventPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event: status = %d", rec.Code)
	}
	var created struct {
		Squads []struct {
			Slots []struct {
				ID string `json:"id"`
			} `json:"slots"`
		} `json:"squads"`
	}
	decodeBody(t, rec, &created)
	slotID := created.Squads[0].Slots[0].ID

	// Empty body means self assignment.
	rec = doRequest(t, handler, http.MethodPost, "/slots/"+slotID+"/assign", &creator, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("assign: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var summary struct {
		Slot struct {
			Status string  `json:"status"`
			UserID *string `json:"user_id"`
		} `json:"slot"`
	}
	decodeBody(t, rec, &summary)
	if summary.Slot.Status != "OCCUPIED" || summary.Slot.UserID == nil || *summary.Slot.UserID != creator.UserID {
		t.Fatalf("unexpected slot after assign: %+v", summary.Slot)
	}

	// A second user cannot take an occupied slot.
	rival := harness.Directory.Add(testfixtures.NewUserFixture(
		testfixtures.WithUserClan("clan-bravo"),
	)).Actor()
	rec = doRequest(t, handler, http.MethodPost, "/slots/"+slotID+"/assign", &rival, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("conflicting assign: status = %d, want 409", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodPost, "/slots/"+slotID+"/unassign", &creator, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unassign: status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestRosterEditForbiddenForStranger(t *testing.T) {
	harness, handler := newTestServer(t)
	creator := harness.Directory.Add(testfixtures.NewUserFixture(
		testfixtures.WithUserClan("clan-alpha"),
	)).Actor()

	rec := doRequest(t, handler, http.MethodPost, "/events", &creator, eventPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event: status = %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &created)

	stranger := harness.Directory.Add(testfixtures.NewUserFixture(
		testfixtures.WithUserClan("clan-charlie"),
	)).Actor()
	rec = doRequest(t, handler, http.MethodPost, "/events/"+created.ID+"/squads", &stranger, map[string]any{
		"name":  "Charlie",
		"order": 3,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}

	var resp struct {
		ErrorCode string `json:"error_code"`
	}
	decodeBody(t, rec, &resp)
	if resp.ErrorCode != "PERMISSION_DENIED" {
		t.Errorf("error_code = %q", resp.ErrorCode)
	}
}

func TestGenerateTreeOverHTTP(t *testing.T) {
	harness, handler := newTestServer(t)
	leader := harness.Directory.Add(testfixtures.NewUserFixture(
		testfixtures.WithUserClan("clan-alpha"),
		testfixtures.WithUserRole(permission.RoleClanLeader),
	)).Actor()

	rec := doRequest(t, handler, http.MethodPost, "/events", &leader, eventPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event: status = %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &created)

	rec = doRequest(t, handler, http.MethodPost, "/events/"+created.ID+"/comm-tree/generate", &leader, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var nodes []struct {
		Name      string  `json:"name"`
		Type      string  `json:"type"`
		Frequency *string `json:"frequency"`
	}
	decodeBody(t, rec, &nodes)
	if len(nodes) != 2 {
		t.Fatalf("generated %d nodes, want 2 (command net + one squad)", len(nodes))
	}
	if nodes[0].Name != "COMANDO CENTRAL" || nodes[0].Type != "COMMAND" {
		t.Errorf("unexpected root node: %+v", nodes[0])
	}
	if nodes[0].Frequency == nil || *nodes[0].Frequency != "41.00" {
		t.Errorf("root frequency = %v, want 41.00", nodes[0].Frequency)
	}

	rec = doRequest(t, handler, http.MethodGet, "/events/"+created.ID+"/comm-tree", &leader, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get tree: status = %d", rec.Code)
	}
}

func TestUnknownEventReturns404(t *testing.T) {
	harness, handler := newTestServer(t)
	viewer := harness.Directory.Add(testfixtures.NewUserFixture()).Actor()

	rec := doRequest(t, handler, http.MethodGet, "/events/no-such-event", &viewer, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
