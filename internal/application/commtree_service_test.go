package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/clan-roster/internal/application"
	"github.com/example/clan-roster/internal/commtree"
	"github.com/example/clan-roster/internal/testfixtures"
)

func TestAutoGenerateTree(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")
	ctx := context.Background()

	nodes, err := h.Tree.AutoGenerateTree(ctx, leader.Actor(), event.ID)
	if err != nil {
		t.Fatalf("AutoGenerateTree: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected root plus 2 squad nets, got %d", len(nodes))
	}

	root := nodes[0]
	if root.Type != commtree.TypeCommand || root.ParentID != nil {
		t.Fatalf("unexpected root: %+v", root)
	}
	if root.Name != "COMANDO CENTRAL" {
		t.Fatalf("unexpected root name: %s", root.Name)
	}
	if root.Frequency == nil || *root.Frequency != "41.00" {
		t.Fatalf("unexpected root frequency: %+v", root.Frequency)
	}

	for i, node := range nodes[1:] {
		if node.Type != commtree.TypeSquad {
			t.Fatalf("squad net %d has type %s", i, node.Type)
		}
		if node.ParentID == nil || *node.ParentID != root.ID {
			t.Fatalf("squad net %d not parented to root: %+v", i, node)
		}
	}
	if *nodes[1].Frequency != "42.00" || *nodes[2].Frequency != "43.00" {
		t.Fatalf("frequencies not sequential: %s %s", *nodes[1].Frequency, *nodes[2].Frequency)
	}
	if nodes[1].Name != "ALPHA" || nodes[2].Name != "BRAVO" {
		t.Fatalf("squad net names not upper-cased squad names: %s %s", nodes[1].Name, nodes[2].Name)
	}
}

func TestAutoGenerateTreeReplacesExisting(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")
	ctx := context.Background()

	manual, err := h.Tree.CreateNode(ctx, application.CreateNodeParams{
		Actor: leader.Actor(), EventID: event.ID,
		Input: application.NodeInput{Name: "LOGISTICS", Type: commtree.TypeSupport},
	})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	if _, err := h.Tree.AutoGenerateTree(ctx, leader.Actor(), event.ID); err != nil {
		t.Fatalf("AutoGenerateTree: %v", err)
	}

	tree, err := h.Tree.GetTree(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	for _, node := range tree {
		if node.ID == manual.ID {
			t.Fatal("manual node survived regeneration")
		}
	}
	if len(tree) != 3 {
		t.Fatalf("expected clean generated tree, got %d nodes", len(tree))
	}
}

func TestUpdateNodeRejectsCycles(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")
	ctx := context.Background()

	nodes, err := h.Tree.AutoGenerateTree(ctx, leader.Actor(), event.ID)
	if err != nil {
		t.Fatalf("AutoGenerateTree: %v", err)
	}
	root, squadNet := nodes[0], nodes[1]

	// Re-parenting the root under its own child closes a cycle.
	_, err = h.Tree.UpdateNode(ctx, application.UpdateNodeParams{
		Actor: leader.Actor(), NodeID: root.ID,
		Input: application.NodeInput{
			Name: root.Name, Frequency: root.Frequency, Type: root.Type,
			ParentID: &squadNet.ID, Order: root.Order,
		},
	})
	if !errors.Is(err, application.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected, got %v", err)
	}

	// Self-parenting is the degenerate cycle.
	_, err = h.Tree.UpdateNode(ctx, application.UpdateNodeParams{
		Actor: leader.Actor(), NodeID: squadNet.ID,
		Input: application.NodeInput{
			Name: squadNet.Name, Frequency: squadNet.Frequency, Type: squadNet.Type,
			ParentID: &squadNet.ID, Order: squadNet.Order,
		},
	})
	if !errors.Is(err, application.ErrCycleDetected) {
		t.Fatalf("expected ErrCycleDetected for self-parent, got %v", err)
	}

	// The failed updates must not have changed the stored parent.
	tree, err := h.Tree.GetTree(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	for _, node := range tree {
		if node.ID == root.ID && node.ParentID != nil {
			t.Fatalf("root gained a parent after rejected update: %+v", node)
		}
	}
}

func TestCreateNodeParentScoping(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	eventA := seedEvent(t, h, creator)
	eventB := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")
	ctx := context.Background()

	nodesB, err := h.Tree.AutoGenerateTree(ctx, leader.Actor(), eventB.ID)
	if err != nil {
		t.Fatalf("AutoGenerateTree: %v", err)
	}
	foreignParent := nodesB[0].ID

	_, err = h.Tree.CreateNode(ctx, application.CreateNodeParams{
		Actor: leader.Actor(), EventID: eventA.ID,
		Input: application.NodeInput{
			Name: "RAVEN", Type: commtree.TypeElement, ParentID: &foreignParent,
		},
	})
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-event parent, got %v", err)
	}
}

func TestCreateNodeValidation(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")

	_, err := h.Tree.CreateNode(context.Background(), application.CreateNodeParams{
		Actor: leader.Actor(), EventID: event.ID,
		Input: application.NodeInput{Name: "", Type: "PLATOON"},
	})
	requireValidationError(t, err, "name")
	requireValidationError(t, err, "type")
}

func TestDeleteNodeCascadesSubtree(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")
	ctx := context.Background()

	nodes, err := h.Tree.AutoGenerateTree(ctx, leader.Actor(), event.ID)
	if err != nil {
		t.Fatalf("AutoGenerateTree: %v", err)
	}
	root := nodes[0]

	deleted, err := h.Tree.DeleteNode(ctx, leader.Actor(), root.ID)
	if err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("expected whole tree deleted, got %d", deleted)
	}

	tree, err := h.Tree.GetTree(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	if len(tree) != 0 {
		t.Fatalf("nodes remain after root cascade: %+v", tree)
	}
}

func TestUpdatePositionsAllOrNothing(t *testing.T) {
	h := testfixtures.NewHarness()
	creator := memberOf(h, "clan-alpha")
	event := seedEvent(t, h, creator)
	leader := leaderOf(h, "clan-alpha")
	ctx := context.Background()

	nodes, err := h.Tree.AutoGenerateTree(ctx, leader.Actor(), event.ID)
	if err != nil {
		t.Fatalf("AutoGenerateTree: %v", err)
	}

	err = h.Tree.UpdatePositions(ctx, application.UpdatePositionsParams{
		Actor: leader.Actor(), EventID: event.ID,
		Positions: []application.NodePosition{
			{NodeID: nodes[0].ID, X: 10, Y: 20},
			{NodeID: "node-foreign", X: 1, Y: 1},
		},
	})
	if !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign node, got %v", err)
	}

	tree, err := h.Tree.GetTree(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	for _, node := range tree {
		if node.ID == nodes[0].ID && (node.PositionX == 10 || node.PositionY == 20) {
			t.Fatalf("partial batch applied: %+v", node)
		}
	}

	if err := h.Tree.UpdatePositions(ctx, application.UpdatePositionsParams{
		Actor: leader.Actor(), EventID: event.ID,
		Positions: []application.NodePosition{{NodeID: nodes[0].ID, X: 10, Y: 20}},
	}); err != nil {
		t.Fatalf("UpdatePositions: %v", err)
	}
}
