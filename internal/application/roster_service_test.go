package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/clan-roster/internal/application"
	"github.com/example/clan-roster/internal/persistence"
	"github.com/example/clan-roster/internal/testfixtures"
)

func TestRosterEditScoping(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	ctx := context.Background()

	cases := []struct {
		name    string
		actor   testfixtures.UserFixture
		wantErr error
	}{
		// The scoping rule keys off the event creator's clan, so even the
		// creator themself cannot edit structure as a plain member.
		{"creator as member", creator, application.ErrPermissionDenied},
		{"leader of creator clan", leaderOf(h, "clan-alpha"), nil},
		{"leader of other clan", leaderOf(h, "clan-bravo"), application.ErrPermissionDenied},
		{"admin", adminUser(h), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.Roster.CreateSquad(ctx, application.CreateSquadParams{
				Actor: tc.actor.Actor(), EventID: event.ID, Name: "Charlie", Order: 3,
			})
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateSquadValidation(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")

	_, err := h.Roster.CreateSquad(context.Background(), application.CreateSquadParams{
		Actor: leader.Actor(), EventID: event.ID, Name: "   ",
	})
	requireValidationError(t, err, "name")
}

func TestUpdateSquad(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")

	squad, err := h.Roster.UpdateSquad(context.Background(), application.UpdateSquadParams{
		Actor: leader.Actor(), SquadID: event.Squads[0].ID, Name: "Assault", Order: 9,
	})
	if err != nil {
		t.Fatalf("UpdateSquad: %v", err)
	}
	if squad.Name != "Assault" || squad.Order != 9 {
		t.Fatalf("update not applied: %+v", squad)
	}
}

func TestDeleteSquadCascadesThroughOccupiedSlots(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	ctx := context.Background()

	member := memberOf(h, "clan-alpha")
	if _, err := h.Assignments.Assign(ctx, application.AssignParams{
		Actor: member.Actor(), SlotID: event.Squads[0].Slots[0].ID, TargetUserID: member.ID,
	}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	leader := leaderOf(h, "clan-alpha")
	deleted, err := h.Roster.DeleteSquad(ctx, application.UpdateSquadParams{
		Actor: leader.Actor(), SquadID: event.Squads[0].ID,
	})
	if err != nil {
		t.Fatalf("DeleteSquad: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 slots cascaded, got %d", deleted)
	}

	if _, err := h.Store.GetSlot(ctx, event.Squads[0].Slots[0].ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("occupied slot survived squad deletion: %v", err)
	}
}

func TestDeleteSlotOccupiedConflicts(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	slot := event.Squads[0].Slots[0]
	ctx := context.Background()

	member := memberOf(h, "clan-alpha")
	if _, err := h.Assignments.Assign(ctx, application.AssignParams{
		Actor: member.Actor(), SlotID: slot.ID, TargetUserID: member.ID,
	}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	leader := leaderOf(h, "clan-alpha")
	err := h.Roster.DeleteSlot(ctx, application.UpdateSlotParams{
		Actor: leader.Actor(), SlotID: slot.ID,
	})
	if !errors.Is(err, application.ErrConflict) {
		t.Fatalf("expected ErrConflict for occupied slot, got %v", err)
	}

	// After release the deletion goes through.
	if _, err := h.Assignments.Unassign(ctx, application.UnassignParams{
		Actor: member.Actor(), SlotID: slot.ID,
	}); err != nil {
		t.Fatalf("Unassign: %v", err)
	}
	if err := h.Roster.DeleteSlot(ctx, application.UpdateSlotParams{
		Actor: leader.Actor(), SlotID: slot.ID,
	}); err != nil {
		t.Fatalf("DeleteSlot after release: %v", err)
	}
}

func TestUpdateSlotPreservesOccupancy(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	slot := event.Squads[0].Slots[0]
	ctx := context.Background()

	member := memberOf(h, "clan-alpha")
	if _, err := h.Assignments.Assign(ctx, application.AssignParams{
		Actor: member.Actor(), SlotID: slot.ID, TargetUserID: member.ID,
	}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	leader := leaderOf(h, "clan-alpha")
	updated, err := h.Roster.UpdateSlot(ctx, application.UpdateSlotParams{
		Actor: leader.Actor(), SlotID: slot.ID,
		Input: application.SlotInput{Role: "Marksman", Order: 7},
	})
	if err != nil {
		t.Fatalf("UpdateSlot: %v", err)
	}
	if updated.Role != "Marksman" {
		t.Fatalf("role not updated: %+v", updated)
	}
	if updated.UserID == nil || *updated.UserID != member.ID {
		t.Fatalf("occupancy lost through slot edit: %+v", updated)
	}
}

func TestCreateSlotStartsFree(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")

	slot, err := h.Roster.CreateSlot(context.Background(), application.CreateSlotParams{
		Actor: leader.Actor(), SquadID: event.Squads[1].ID,
		Input: application.SlotInput{Role: "Engineer", Order: 3},
	})
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if slot.Status() != application.SlotStatusFree {
		t.Fatalf("new slot should be FREE: %+v", slot)
	}
	if slot.SquadID != event.Squads[1].ID {
		t.Fatalf("slot attached to wrong squad: %+v", slot)
	}
}
