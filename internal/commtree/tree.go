// Package commtree holds the pure algorithms behind the per-event
// communication hierarchy: cycle prevention over the parent-pointer forest and
// the deterministic projection of a squad list onto a two-level tree.
package commtree

import (
	"fmt"
	"sort"
	"strings"
)

// NodeType classifies a node in the communication hierarchy.
type NodeType string

const (
	// TypeCommand marks the command net root.
	TypeCommand NodeType = "COMMAND"
	// TypeSquad marks a squad net.
	TypeSquad NodeType = "SQUAD"
	// TypeElement marks a sub-element net below a squad.
	TypeElement NodeType = "ELEMENT"
	// TypeSupport marks a support net.
	TypeSupport NodeType = "SUPPORT"
)

// Valid reports whether the node type is a known value.
func (t NodeType) Valid() bool {
	switch t {
	case TypeCommand, TypeSquad, TypeElement, TypeSupport:
		return true
	default:
		return false
	}
}

// Node is the minimal shape the tree algorithms need.
type Node struct {
	ID       string
	ParentID *string
}

// WouldCycle reports whether attaching nodeID under parentID would close a
// cycle in the forest described by nodes. The walk keeps a visited set so a
// corrupted store (pre-existing cycle) terminates instead of looping.
func WouldCycle(nodes []Node, nodeID, parentID string) bool {
	if parentID == nodeID {
		return true
	}

	byID := make(map[string]Node, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}

	visited := make(map[string]struct{}, len(nodes))
	current := parentID
	for current != "" {
		if current == nodeID {
			return true
		}
		if _, seen := visited[current]; seen {
			return false
		}
		visited[current] = struct{}{}

		node, ok := byID[current]
		if !ok || node.ParentID == nil {
			return false
		}
		current = *node.ParentID
	}
	return false
}

// Descendants returns the IDs of every node transitively parented under
// rootID, excluding rootID itself.
func Descendants(nodes []Node, rootID string) []string {
	children := make(map[string][]string, len(nodes))
	for _, node := range nodes {
		if node.ParentID == nil {
			continue
		}
		children[*node.ParentID] = append(children[*node.ParentID], node.ID)
	}

	var out []string
	visited := map[string]struct{}{rootID: {}}
	queue := []string{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if _, seen := visited[child]; seen {
				continue
			}
			visited[child] = struct{}{}
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	sort.Strings(out)
	return out
}

// Squad is the input shape for tree generation, ordered by Order.
type Squad struct {
	Name  string
	Order int
}

// GeneratedNode describes one node of a freshly projected tree. ParentOrder
// is -1 for the root; squad nodes always point at the root.
type GeneratedNode struct {
	Name        string
	Frequency   string
	Type        NodeType
	ParentOrder int
	PositionX   float64
	PositionY   float64
	Order       int
}

const (
	// squadRowSpacing separates squad nodes horizontally on the canvas.
	squadRowSpacing = 200.0
	// squadRowOffset places the squad row below the command root.
	squadRowOffset = 150.0
)

// GenerateFromSquads projects an ordered squad list onto a two-level tree:
// one command root plus one squad net per squad. Frequencies are sequential
// starting at baseFrequency, formatted "NN.00". The projection is
// deterministic; running it twice yields the same shape.
func GenerateFromSquads(commandName string, baseFrequency int, squads []Squad) []GeneratedNode {
	ordered := make([]Squad, len(squads))
	copy(ordered, squads)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	nodes := make([]GeneratedNode, 0, len(ordered)+1)
	nodes = append(nodes, GeneratedNode{
		Name:        commandName,
		Frequency:   FormatFrequency(baseFrequency),
		Type:        TypeCommand,
		ParentOrder: -1,
		Order:       0,
	})

	count := len(ordered)
	for i, squad := range ordered {
		nodes = append(nodes, GeneratedNode{
			Name:        strings.ToUpper(squad.Name),
			Frequency:   FormatFrequency(baseFrequency + 1 + i),
			Type:        TypeSquad,
			ParentOrder: 0,
			PositionX:   (float64(i) - float64(count-1)/2) * squadRowSpacing,
			PositionY:   squadRowOffset,
			Order:       i + 1,
		})
	}
	return nodes
}

// FormatFrequency renders a whole-number frequency in the "NN.00" radio
// display convention.
func FormatFrequency(freq int) string {
	return fmt.Sprintf("%d.00", freq)
}
