package commtree

import (
	"reflect"
	"testing"
)

func ptr(s string) *string { return &s }

func TestWouldCycleSelfParent(t *testing.T) {
	if !WouldCycle(nil, "n1", "n1") {
		t.Fatal("self parent must be a cycle")
	}
}

func TestWouldCycleAncestry(t *testing.T) {
	// n1 -> n2 -> n3 (n3 is root)
	nodes := []Node{
		{ID: "n1", ParentID: ptr("n2")},
		{ID: "n2", ParentID: ptr("n3")},
		{ID: "n3"},
	}

	// Re-parenting n3 under n1 closes the loop.
	if !WouldCycle(nodes, "n3", "n1") {
		t.Fatal("expected cycle via transitive ancestry")
	}

	// n2 under n3 keeps the forest acyclic.
	if WouldCycle(nodes, "n2", "n3") {
		t.Fatal("unexpected cycle for valid re-parenting")
	}

	// A fresh node under any existing chain is fine.
	if WouldCycle(nodes, "n4", "n1") {
		t.Fatal("new leaf must never cycle")
	}
}

func TestWouldCycleTerminatesOnCorruptChain(t *testing.T) {
	// Pre-existing corruption: a <-> b. The walk must terminate.
	nodes := []Node{
		{ID: "a", ParentID: ptr("b")},
		{ID: "b", ParentID: ptr("a")},
	}
	if WouldCycle(nodes, "c", "a") {
		t.Fatal("node outside the corrupt loop should not be reported")
	}
}

func TestDescendants(t *testing.T) {
	nodes := []Node{
		{ID: "root"},
		{ID: "a", ParentID: ptr("root")},
		{ID: "b", ParentID: ptr("root")},
		{ID: "a1", ParentID: ptr("a")},
		{ID: "a2", ParentID: ptr("a")},
		{ID: "other"},
	}

	got := Descendants(nodes, "a")
	want := []string{"a1", "a2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Descendants(a) = %v, want %v", got, want)
	}

	got = Descendants(nodes, "root")
	want = []string{"a", "a1", "a2", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Descendants(root) = %v, want %v", got, want)
	}

	if ds := Descendants(nodes, "other"); len(ds) != 0 {
		t.Fatalf("expected no descendants, got %v", ds)
	}
}

func TestGenerateFromSquadsShape(t *testing.T) {
	squads := []Squad{
		{Name: "Alpha", Order: 0},
		{Name: "Bravo", Order: 1},
	}

	nodes := GenerateFromSquads("COMANDO CENTRAL", 41, squads)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}

	root := nodes[0]
	if root.Type != TypeCommand || root.Name != "COMANDO CENTRAL" || root.Frequency != "41.00" {
		t.Fatalf("unexpected root node: %+v", root)
	}
	if root.PositionX != 0 || root.PositionY != 0 || root.Order != 0 || root.ParentOrder != -1 {
		t.Fatalf("root placement wrong: %+v", root)
	}

	alpha, bravo := nodes[1], nodes[2]
	if alpha.Name != "ALPHA" || alpha.Frequency != "42.00" || alpha.Type != TypeSquad {
		t.Fatalf("unexpected first squad node: %+v", alpha)
	}
	if bravo.Name != "BRAVO" || bravo.Frequency != "43.00" {
		t.Fatalf("unexpected second squad node: %+v", bravo)
	}
	if alpha.ParentOrder != 0 || bravo.ParentOrder != 0 {
		t.Fatal("squad nodes must parent on the root")
	}
	if alpha.Order != 1 || bravo.Order != 2 {
		t.Fatalf("squad orders wrong: %d, %d", alpha.Order, bravo.Order)
	}

	// Row of two is centred around x = 0.
	if alpha.PositionX != -100 || bravo.PositionX != 100 {
		t.Fatalf("row not centred: %f, %f", alpha.PositionX, bravo.PositionX)
	}
	if alpha.PositionY != bravo.PositionY || alpha.PositionY == 0 {
		t.Fatal("squad row must share a non-zero y offset")
	}
}

func TestGenerateFromSquadsRespectsOrderNotInputPosition(t *testing.T) {
	squads := []Squad{
		{Name: "Bravo", Order: 5},
		{Name: "Alpha", Order: 1},
	}
	nodes := GenerateFromSquads("HQ", 30, squads)
	if nodes[1].Name != "ALPHA" || nodes[2].Name != "BRAVO" {
		t.Fatalf("squads not sorted by order: %v, %v", nodes[1].Name, nodes[2].Name)
	}
	if nodes[1].Frequency != "31.00" || nodes[2].Frequency != "32.00" {
		t.Fatalf("frequencies not sequential by order: %v, %v", nodes[1].Frequency, nodes[2].Frequency)
	}
}

func TestGenerateFromSquadsSingleSquadCentred(t *testing.T) {
	nodes := GenerateFromSquads("HQ", 41, []Squad{{Name: "Solo", Order: 0}})
	if nodes[1].PositionX != 0 {
		t.Fatalf("single squad should sit at x=0, got %f", nodes[1].PositionX)
	}
}

func TestGenerateFromSquadsDeterministic(t *testing.T) {
	squads := []Squad{{Name: "Alpha", Order: 0}, {Name: "Bravo", Order: 1}, {Name: "Charlie", Order: 2}}
	first := GenerateFromSquads("HQ", 41, squads)
	second := GenerateFromSquads("HQ", 41, squads)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("projection must be deterministic")
	}
}
