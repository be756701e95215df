package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/clan-roster/internal/persistence"
)

var baseTime = time.Date(2024, time.March, 10, 18, 0, 0, 0, time.UTC)

func seedEvent(t *testing.T, store *Store, eventID string) {
	t.Helper()
	event := persistence.Event{
		ID:            eventID,
		Name:          "Operation Test",
		GameType:      "arma3",
		Status:        persistence.EventStatusActive,
		ScheduledDate: baseTime,
		CreatorID:     "u-creator",
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	}
	squads := []persistence.Squad{
		{ID: eventID + "-sq1", EventID: eventID, Name: "Alpha", Order: 0},
		{ID: eventID + "-sq2", EventID: eventID, Name: "Bravo", Order: 1},
	}
	slots := []persistence.Slot{
		{ID: eventID + "-sl1", SquadID: eventID + "-sq1", Role: "Leader", Order: 0},
		{ID: eventID + "-sl2", SquadID: eventID + "-sq1", Role: "Rifleman", Order: 1},
		{ID: eventID + "-sl3", SquadID: eventID + "-sq2", Role: "Medic", Order: 0},
	}
	if err := store.CreateEventGraph(context.Background(), event, squads, slots); err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func TestCreateEventGraphRejectsOrphanSlots(t *testing.T) {
	store := NewStore()
	event := persistence.Event{ID: "ev1", Status: persistence.EventStatusActive}
	squads := []persistence.Squad{{ID: "sq1", EventID: "ev1"}}
	slots := []persistence.Slot{{ID: "sl1", SquadID: "missing"}}

	err := store.CreateEventGraph(context.Background(), event, squads, slots)
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected foreign key violation, got %v", err)
	}
	if _, err := store.GetEvent(context.Background(), "ev1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatal("failed graph write must not leave the event behind")
	}
}

func TestOccupySlotConflict(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	ctx := context.Background()

	if err := store.OccupySlot(ctx, "ev1-sl1", "u1"); err != nil {
		t.Fatalf("first occupancy: %v", err)
	}
	if err := store.OccupySlot(ctx, "ev1-sl1", "u2"); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	slot, err := store.GetSlot(ctx, "ev1-sl1")
	if err != nil {
		t.Fatalf("get slot: %v", err)
	}
	if slot.UserID == nil || *slot.UserID != "u1" {
		t.Fatal("losing write must not change the occupant")
	}
}

func TestMoveOccupantAtomic(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	ctx := context.Background()

	if err := store.OccupySlot(ctx, "ev1-sl1", "u1"); err != nil {
		t.Fatalf("occupy: %v", err)
	}
	if err := store.MoveOccupant(ctx, "u1", "ev1-sl1", "ev1-sl3"); err != nil {
		t.Fatalf("move: %v", err)
	}

	from, _ := store.GetSlot(ctx, "ev1-sl1")
	to, _ := store.GetSlot(ctx, "ev1-sl3")
	if from.Occupied() {
		t.Fatal("source slot should be free after move")
	}
	if !to.Occupied() || *to.UserID != "u1" {
		t.Fatal("destination slot should hold the user after move")
	}
}

func TestMoveOccupantFailsWithoutStateChange(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	ctx := context.Background()

	if err := store.OccupySlot(ctx, "ev1-sl1", "u1"); err != nil {
		t.Fatalf("occupy u1: %v", err)
	}
	if err := store.OccupySlot(ctx, "ev1-sl3", "u2"); err != nil {
		t.Fatalf("occupy u2: %v", err)
	}

	err := store.MoveOccupant(ctx, "u1", "ev1-sl1", "ev1-sl3")
	if !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	from, _ := store.GetSlot(ctx, "ev1-sl1")
	to, _ := store.GetSlot(ctx, "ev1-sl3")
	if !from.Occupied() || *from.UserID != "u1" {
		t.Fatal("failed move must leave the source occupied")
	}
	if *to.UserID != "u2" {
		t.Fatal("failed move must leave the destination untouched")
	}
}

func TestFindSlotByOccupant(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	seedEvent(t, store, "ev2")
	ctx := context.Background()

	if err := store.OccupySlot(ctx, "ev2-sl1", "u1"); err != nil {
		t.Fatalf("occupy: %v", err)
	}

	if _, err := store.FindSlotByOccupant(ctx, "ev1", "u1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatal("occupancy in another event must not match")
	}
	slot, err := store.FindSlotByOccupant(ctx, "ev2", "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if slot.ID != "ev2-sl1" {
		t.Fatalf("found wrong slot %s", slot.ID)
	}
}

func TestDeleteSlotOccupiedConflict(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	ctx := context.Background()

	if err := store.OccupySlot(ctx, "ev1-sl1", "u1"); err != nil {
		t.Fatalf("occupy: %v", err)
	}
	if err := store.DeleteSlot(ctx, "ev1-sl1"); !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected conflict deleting occupied slot, got %v", err)
	}
	if err := store.ReleaseSlot(ctx, "ev1-sl1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := store.DeleteSlot(ctx, "ev1-sl1"); err != nil {
		t.Fatalf("delete after release: %v", err)
	}
}

func TestDeleteSquadCascadesThroughOccupiedSlots(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	ctx := context.Background()

	if err := store.OccupySlot(ctx, "ev1-sl1", "u1"); err != nil {
		t.Fatalf("occupy: %v", err)
	}
	deleted, err := store.DeleteSquad(ctx, "ev1-sq1")
	if err != nil {
		t.Fatalf("delete squad: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 slots cascaded, got %d", deleted)
	}
}

func TestDeleteEventCascadeCounts(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	ctx := context.Background()

	node := persistence.CommNode{ID: "n1", EventID: "ev1", Name: "HQ", Type: "COMMAND"}
	if err := store.CreateNode(ctx, node); err != nil {
		t.Fatalf("create node: %v", err)
	}
	absence := persistence.Absence{ID: "ab1", EventID: "ev1", UserID: "u1", CreatedAt: baseTime}
	if err := store.CreateAbsence(ctx, absence); err != nil {
		t.Fatalf("create absence: %v", err)
	}

	counts, err := store.DeleteEvent(ctx, "ev1")
	if err != nil {
		t.Fatalf("delete event: %v", err)
	}
	want := persistence.CascadeCounts{Squads: 2, Slots: 3, Nodes: 1, Absences: 1}
	if counts != want {
		t.Fatalf("cascade counts = %+v, want %+v", counts, want)
	}
	if _, err := store.GetSquad(ctx, "ev1-sq1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatal("squads must be gone after event deletion")
	}
}

func TestDeleteNodeCascade(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	ctx := context.Background()

	root := "n-root"
	child := "n-child"
	grandchild := "n-grand"
	mustCreate := func(id string, parent *string) {
		t.Helper()
		if err := store.CreateNode(ctx, persistence.CommNode{ID: id, EventID: "ev1", Name: id, Type: "SQUAD", ParentID: parent}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	mustCreate(root, nil)
	mustCreate(child, &root)
	mustCreate(grandchild, &child)
	mustCreate("n-other", nil)

	deleted, err := store.DeleteNodeCascade(ctx, child)
	if err != nil {
		t.Fatalf("cascade delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 nodes deleted, got %d", deleted)
	}
	if _, err := store.GetNode(ctx, root); err != nil {
		t.Fatal("root must survive")
	}
	if _, err := store.GetNode(ctx, grandchild); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatal("grandchild must be cascaded")
	}
}

func TestUpdatePositionsValidatesWholeBatch(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	seedEvent(t, store, "ev2")
	ctx := context.Background()

	if err := store.CreateNode(ctx, persistence.CommNode{ID: "n1", EventID: "ev1", Name: "HQ", Type: "COMMAND"}); err != nil {
		t.Fatalf("create node: %v", err)
	}
	if err := store.CreateNode(ctx, persistence.CommNode{ID: "n2", EventID: "ev2", Name: "HQ", Type: "COMMAND"}); err != nil {
		t.Fatalf("create node: %v", err)
	}

	positions := []persistence.NodePosition{
		{NodeID: "n1", X: 10, Y: 20},
		{NodeID: "n2", X: 30, Y: 40}, // belongs to another event
	}
	if err := store.UpdatePositions(ctx, "ev1", positions); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected not found for cross-event node, got %v", err)
	}

	node, _ := store.GetNode(ctx, "n1")
	if node.PositionX != 0 || node.PositionY != 0 {
		t.Fatal("failed batch must not move any node")
	}
}

func TestReplaceTree(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	ctx := context.Background()

	if err := store.CreateNode(ctx, persistence.CommNode{ID: "old", EventID: "ev1", Name: "OLD", Type: "COMMAND"}); err != nil {
		t.Fatalf("create node: %v", err)
	}

	fresh := []persistence.CommNode{
		{ID: "new-root", EventID: "ev1", Name: "HQ", Type: "COMMAND", Order: 0},
		{ID: "new-squad", EventID: "ev1", Name: "ALPHA", Type: "SQUAD", Order: 1},
	}
	if err := store.ReplaceTree(ctx, "ev1", fresh); err != nil {
		t.Fatalf("replace tree: %v", err)
	}

	nodes, err := store.ListNodesForEvent(ctx, "ev1")
	if err != nil {
		t.Fatalf("list nodes: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	if nodes[0].ID != "new-root" || nodes[1].ID != "new-squad" {
		t.Fatalf("unexpected node order: %s, %s", nodes[0].ID, nodes[1].ID)
	}
}

func TestUpdateSlotPreservesOccupancy(t *testing.T) {
	store := NewStore()
	seedEvent(t, store, "ev1")
	ctx := context.Background()

	if err := store.OccupySlot(ctx, "ev1-sl1", "u1"); err != nil {
		t.Fatalf("occupy: %v", err)
	}
	updated := persistence.Slot{ID: "ev1-sl1", Role: "Machine Gunner", Order: 5}
	if err := store.UpdateSlot(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	slot, _ := store.GetSlot(ctx, "ev1-sl1")
	if slot.Role != "Machine Gunner" || slot.Order != 5 {
		t.Fatal("role/order update not applied")
	}
	if !slot.Occupied() || *slot.UserID != "u1" {
		t.Fatal("occupancy must survive a role/order update")
	}
}

func TestAuditScoping(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	eventID := "ev1"
	entries := []persistence.AuditEntry{
		{ID: "a1", Action: "SLOT_ASSIGNED", Entity: "slot", EntityID: "sl1", ActorID: "u1", EventID: &eventID},
		{ID: "a2", Action: "EVENT_CREATED", Entity: "event", EntityID: "ev2", ActorID: "u1"},
	}
	for _, entry := range entries {
		if err := store.AppendAudit(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	scoped, err := store.ListAuditForEvent(ctx, "ev1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(scoped) != 1 || scoped[0].ID != "a1" {
		t.Fatalf("unexpected scoped entries: %+v", scoped)
	}
}
