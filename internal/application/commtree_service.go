package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/clan-roster/internal/commtree"
	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/persistence"
)

// CommTreeService maintains the per-event communication hierarchy: node
// CRUD with cycle prevention, bulk position moves and the deterministic
// auto-generation from the squad list.
type CommTreeService struct {
	events      persistence.EventRepository
	squads      persistence.SquadRepository
	nodes       persistence.CommNodeRepository
	users       UserDirectory
	audit       *auditRecorder
	locks       *EventLocks
	commandName string
	baseFreq    int
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCommTreeService wires dependencies for communication tree operations.
// commandName and baseFrequency seed auto-generated trees.
func NewCommTreeService(
	events persistence.EventRepository,
	squads persistence.SquadRepository,
	nodes persistence.CommNodeRepository,
	users UserDirectory,
	audits persistence.AuditRepository,
	locks *EventLocks,
	commandName string,
	baseFrequency int,
	idGenerator func() string,
	now func() time.Time,
	logger *slog.Logger,
) *CommTreeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if locks == nil {
		locks = NewEventLocks()
	}
	if commandName == "" {
		commandName = "COMANDO CENTRAL"
	}
	if baseFrequency <= 0 {
		baseFrequency = 41
	}
	return &CommTreeService{
		events:      events,
		squads:      squads,
		nodes:       nodes,
		users:       users,
		audit:       newAuditRecorder(audits, idGenerator, now, logger),
		locks:       locks,
		commandName: commandName,
		baseFreq:    baseFrequency,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// GetTree returns the event's nodes ordered for display.
func (s *CommTreeService) GetTree(ctx context.Context, eventID string) ([]CommNode, error) {
	if s == nil || s.nodes == nil {
		return nil, fmt.Errorf("node repository not configured")
	}

	if _, err := s.events.GetEvent(ctx, eventID); err != nil {
		return nil, mapRepoError(err)
	}

	nodes, err := s.nodes.ListNodesForEvent(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	views := make([]CommNode, 0, len(nodes))
	for _, node := range nodes {
		views = append(views, nodeView(node))
	}
	return views, nil
}

// CreateNode adds a node to the event's tree. A parent, when given, must
// belong to the same event.
func (s *CommTreeService) CreateNode(ctx context.Context, params CreateNodeParams) (CommNode, error) {
	if s == nil || s.nodes == nil {
		return CommNode{}, fmt.Errorf("node repository not configured")
	}

	if vErr := validateNodeInput(params.Input); vErr != nil {
		return CommNode{}, vErr
	}

	event, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return CommNode{}, mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, params.Actor, event); err != nil {
		return CommNode{}, err
	}

	unlock := s.locks.lock(event.ID)
	defer unlock()

	if params.Input.ParentID != nil {
		parent, err := s.nodes.GetNode(ctx, *params.Input.ParentID)
		if err != nil {
			return CommNode{}, mapRepoError(err)
		}
		if parent.EventID != event.ID {
			return CommNode{}, ErrNotFound
		}
	}

	now := s.now()
	node := persistence.CommNode{
		ID:        s.idGenerator(),
		EventID:   event.ID,
		Name:      strings.TrimSpace(params.Input.Name),
		Frequency: params.Input.Frequency,
		Type:      string(params.Input.Type),
		ParentID:  params.Input.ParentID,
		PositionX: params.Input.PositionX,
		PositionY: params.Input.PositionY,
		Order:     params.Input.Order,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.nodes.CreateNode(ctx, node); err != nil {
		return CommNode{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "comm_node", node.ID, &event.ID, NodeCreatedDetails{
		Name: node.Name,
		Type: node.Type,
	})
	return nodeView(node), nil
}

// UpdateNode edits a node. Re-parenting is checked against the current
// forest so the tree stays acyclic; a violating parent yields
// ErrCycleDetected and no write happens.
func (s *CommTreeService) UpdateNode(ctx context.Context, params UpdateNodeParams) (CommNode, error) {
	if s == nil || s.nodes == nil {
		return CommNode{}, fmt.Errorf("node repository not configured")
	}

	if vErr := validateNodeInput(params.Input); vErr != nil {
		return CommNode{}, vErr
	}

	node, err := s.nodes.GetNode(ctx, params.NodeID)
	if err != nil {
		return CommNode{}, mapRepoError(err)
	}
	event, err := s.events.GetEvent(ctx, node.EventID)
	if err != nil {
		return CommNode{}, mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, params.Actor, event); err != nil {
		return CommNode{}, err
	}

	unlock := s.locks.lock(event.ID)
	defer unlock()

	node, err = s.nodes.GetNode(ctx, params.NodeID)
	if err != nil {
		return CommNode{}, mapRepoError(err)
	}

	if params.Input.ParentID != nil {
		parent, err := s.nodes.GetNode(ctx, *params.Input.ParentID)
		if err != nil {
			return CommNode{}, mapRepoError(err)
		}
		if parent.EventID != event.ID {
			return CommNode{}, ErrNotFound
		}

		all, err := s.nodes.ListNodesForEvent(ctx, event.ID)
		if err != nil {
			return CommNode{}, mapRepoError(err)
		}
		if commtree.WouldCycle(treeShape(all), node.ID, *params.Input.ParentID) {
			return CommNode{}, ErrCycleDetected
		}
	}

	node.Name = strings.TrimSpace(params.Input.Name)
	node.Frequency = params.Input.Frequency
	node.Type = string(params.Input.Type)
	node.ParentID = params.Input.ParentID
	node.PositionX = params.Input.PositionX
	node.PositionY = params.Input.PositionY
	node.Order = params.Input.Order
	node.UpdatedAt = s.now()

	if err := s.nodes.UpdateNode(ctx, node); err != nil {
		return CommNode{}, mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "comm_node", node.ID, &event.ID, NodeUpdatedDetails{Name: node.Name})
	return nodeView(node), nil
}

// DeleteNode removes the node and its whole subtree, returning how many
// nodes were deleted.
func (s *CommTreeService) DeleteNode(ctx context.Context, actor permission.Actor, nodeID string) (int, error) {
	if s == nil || s.nodes == nil {
		return 0, fmt.Errorf("node repository not configured")
	}

	node, err := s.nodes.GetNode(ctx, nodeID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	event, err := s.events.GetEvent(ctx, node.EventID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, actor, event); err != nil {
		return 0, err
	}

	unlock := s.locks.lock(event.ID)
	defer unlock()

	deleted, err := s.nodes.DeleteNodeCascade(ctx, nodeID)
	if err != nil {
		return 0, mapRepoError(err)
	}

	s.audit.record(ctx, actor, "comm_node", nodeID, &event.ID, NodeDeletedDetails{NodesDeleted: deleted})
	serviceLogger(ctx, s.logger, "commtree", "delete_node", "event_id", event.ID).
		InfoContext(ctx, "node subtree deleted", "node_id", nodeID, "deleted", deleted)
	return deleted, nil
}

// UpdatePositions applies a bulk presentational move. The batch is all or
// nothing: one position referencing a node outside the event rejects the
// whole batch.
func (s *CommTreeService) UpdatePositions(ctx context.Context, params UpdatePositionsParams) error {
	if s == nil || s.nodes == nil {
		return fmt.Errorf("node repository not configured")
	}
	if len(params.Positions) == 0 {
		vErr := &ValidationError{}
		vErr.add("positions", "at least one position is required")
		return vErr
	}

	event, err := s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		return mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, params.Actor, event); err != nil {
		return err
	}

	unlock := s.locks.lock(event.ID)
	defer unlock()

	positions := make([]persistence.NodePosition, 0, len(params.Positions))
	for _, pos := range params.Positions {
		positions = append(positions, persistence.NodePosition{
			NodeID: pos.NodeID,
			X:      pos.X,
			Y:      pos.Y,
		})
	}
	if err := s.nodes.UpdatePositions(ctx, event.ID, positions); err != nil {
		return mapRepoError(err)
	}

	s.audit.record(ctx, params.Actor, "comm_node", event.ID, &event.ID, NodePositionsUpdatedDetails{Count: len(positions)})
	return nil
}

// AutoGenerateTree replaces the event's tree with the deterministic
// projection of its squad list: one command root plus one squad net per
// squad, with sequential frequencies. Any existing nodes are discarded.
func (s *CommTreeService) AutoGenerateTree(ctx context.Context, actor permission.Actor, eventID string) ([]CommNode, error) {
	if s == nil || s.nodes == nil {
		return nil, fmt.Errorf("node repository not configured")
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if err := s.requireRosterAccess(ctx, actor, event); err != nil {
		return nil, err
	}

	squads, err := s.squads.ListSquadsForEvent(ctx, event.ID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	inputs := make([]commtree.Squad, 0, len(squads))
	for _, squad := range squads {
		inputs = append(inputs, commtree.Squad{Name: squad.Name, Order: squad.Order})
	}
	generated := commtree.GenerateFromSquads(s.commandName, s.baseFreq, inputs)

	unlock := s.locks.lock(event.ID)
	defer unlock()

	now := s.now()
	nodes := make([]persistence.CommNode, 0, len(generated))
	idByOrder := make(map[int]string, len(generated))
	for _, gen := range generated {
		id := s.idGenerator()
		idByOrder[gen.Order] = id
		freq := gen.Frequency
		node := persistence.CommNode{
			ID:        id,
			EventID:   event.ID,
			Name:      gen.Name,
			Frequency: &freq,
			Type:      string(gen.Type),
			PositionX: gen.PositionX,
			PositionY: gen.PositionY,
			Order:     gen.Order,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if gen.ParentOrder >= 0 {
			parentID := idByOrder[gen.ParentOrder]
			node.ParentID = &parentID
		}
		nodes = append(nodes, node)
	}

	if err := s.nodes.ReplaceTree(ctx, event.ID, nodes); err != nil {
		return nil, mapRepoError(err)
	}

	s.audit.record(ctx, actor, "comm_node", event.ID, &event.ID, TreeGeneratedDetails{
		SquadCount: len(squads),
		NodeCount:  len(nodes),
	})
	serviceLogger(ctx, s.logger, "commtree", "auto_generate", "event_id", event.ID).
		InfoContext(ctx, "tree generated", "nodes", len(nodes))

	views := make([]CommNode, 0, len(nodes))
	for _, node := range nodes {
		views = append(views, nodeView(node))
	}
	return views, nil
}

func (s *CommTreeService) requireRosterAccess(ctx context.Context, actor permission.Actor, event persistence.Event) error {
	allowed, err := canManageRoster(ctx, s.users, actor, event)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrPermissionDenied
	}
	return nil
}

func validateNodeInput(input NodeInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "node name is required")
	}
	if !input.Type.Valid() {
		vErr.add("type", "node type must be COMMAND, SQUAD, ELEMENT or SUPPORT")
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}

func treeShape(nodes []persistence.CommNode) []commtree.Node {
	shape := make([]commtree.Node, 0, len(nodes))
	for _, node := range nodes {
		shape = append(shape, commtree.Node{ID: node.ID, ParentID: node.ParentID})
	}
	return shape
}
