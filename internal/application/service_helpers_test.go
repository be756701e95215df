package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/clan-roster/internal/application"
	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/testfixtures"
)

// seedEvent creates an event with two squads of two slots each through the
// service layer, so the graph exists exactly as production writes it.
func seedEvent(t *testing.T, h *testfixtures.Harness, creator testfixtures.UserFixture) application.Event {
	t.Helper()

	event, err := h.Events.CreateEvent(context.Background(), application.CreateEventParams{
		Actor: creator.Actor(),
		Input: application.EventInput{
			Name:          "Operation Redwood",
			GameType:      "arma3",
			ScheduledDate: testfixtures.ReferenceTime().Add(48 * time.Hour),
		},
		Squads: []application.SquadInput{
			{
				Name:  "Alpha",
				Order: 1,
				Slots: []application.SlotInput{
					{Role: "Squad Leader", Order: 1},
					{Role: "Medic", Order: 2},
				},
			},
			{
				Name:  "Bravo",
				Order: 2,
				Slots: []application.SlotInput{
					{Role: "Squad Leader", Order: 1},
					{Role: "Rifleman", Order: 2},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return event
}

func requireValidationError(t *testing.T, err error, field string) {
	t.Helper()
	var vErr *application.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.FieldErrors[field]; !ok {
		t.Fatalf("expected field %q in validation error, got %v", field, vErr.FieldErrors)
	}
}

func memberOf(h *testfixtures.Harness, clanID string) testfixtures.UserFixture {
	return h.Directory.Add(testfixtures.NewUserFixture(
		testfixtures.WithUserClan(clanID),
		testfixtures.WithUserRole(permission.RoleMember),
	))
}

func leaderOf(h *testfixtures.Harness, clanID string) testfixtures.UserFixture {
	return h.Directory.Add(testfixtures.NewUserFixture(
		testfixtures.WithUserClan(clanID),
		testfixtures.WithUserRole(permission.RoleClanLeader),
	))
}

func adminUser(h *testfixtures.Harness) testfixtures.UserFixture {
	return h.Directory.Add(testfixtures.NewUserFixture(
		testfixtures.WithUserClan("clan-hq"),
		testfixtures.WithUserRole(permission.RoleAdmin),
	))
}
