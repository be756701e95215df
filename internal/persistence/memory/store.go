// Package memory provides a mutex-guarded in-memory implementation of every
// persistence repository. It backs unit tests and the default no-DSN
// deployment of the roster service.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/example/clan-roster/internal/commtree"
	"github.com/example/clan-roster/internal/persistence"
)

// Store implements the persistence repository interfaces over plain maps.
// All reads return clones so callers can never mutate shared state.
type Store struct {
	mu       sync.RWMutex
	events   map[string]persistence.Event
	squads   map[string]persistence.Squad
	slots    map[string]persistence.Slot
	nodes    map[string]persistence.CommNode
	absences map[string]persistence.Absence
	audits   []persistence.AuditEntry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		events:   make(map[string]persistence.Event),
		squads:   make(map[string]persistence.Squad),
		slots:    make(map[string]persistence.Slot),
		nodes:    make(map[string]persistence.CommNode),
		absences: make(map[string]persistence.Absence),
	}
}

// Close releases resources held by the store. No-op for the in-memory
// implementation.
func (s *Store) Close() error { return nil }

// --- EventRepository ---

// CreateEventGraph writes the event with its squads and slots atomically.
func (s *Store) CreateEventGraph(ctx context.Context, event persistence.Event, squads []persistence.Squad, slots []persistence.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return persistence.ErrDuplicate
	}
	squadIDs := make(map[string]struct{}, len(squads))
	for _, squad := range squads {
		if _, ok := s.squads[squad.ID]; ok {
			return persistence.ErrDuplicate
		}
		if squad.EventID != event.ID {
			return persistence.ErrForeignKeyViolation
		}
		squadIDs[squad.ID] = struct{}{}
	}
	for _, slot := range slots {
		if _, ok := s.slots[slot.ID]; ok {
			return persistence.ErrDuplicate
		}
		if _, ok := squadIDs[slot.SquadID]; !ok {
			return persistence.ErrForeignKeyViolation
		}
	}

	s.events[event.ID] = event
	for _, squad := range squads {
		s.squads[squad.ID] = squad
	}
	for _, slot := range slots {
		s.slots[slot.ID] = cloneSlot(slot)
	}
	return nil
}

// GetEvent retrieves an event by ID.
func (s *Store) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return event, nil
}

// ListEvents returns events matching the filter ordered by scheduled date.
func (s *Store) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]persistence.Event, 0, len(s.events))
	for _, event := range s.events {
		if filter.Status != nil && event.Status != *filter.Status {
			continue
		}
		if filter.GameType != nil && event.GameType != *filter.GameType {
			continue
		}
		events = append(events, event)
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].ScheduledDate.Equal(events[j].ScheduledDate) {
			return events[i].ID < events[j].ID
		}
		return events[i].ScheduledDate.Before(events[j].ScheduledDate)
	})
	return events, nil
}

// UpdateEvent updates an existing event.
func (s *Store) UpdateEvent(ctx context.Context, event persistence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.events[event.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	event.CreatorID = existing.CreatorID
	event.CreatedAt = existing.CreatedAt
	s.events[event.ID] = event
	return nil
}

// DeleteEvent removes the event and cascades to squads, slots, comm nodes and
// absences, reporting counts.
func (s *Store) DeleteEvent(ctx context.Context, id string) (persistence.CascadeCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return persistence.CascadeCounts{}, persistence.ErrNotFound
	}

	var counts persistence.CascadeCounts
	for squadID, squad := range s.squads {
		if squad.EventID != id {
			continue
		}
		for slotID, slot := range s.slots {
			if slot.SquadID == squadID {
				delete(s.slots, slotID)
				counts.Slots++
			}
		}
		delete(s.squads, squadID)
		counts.Squads++
	}
	for nodeID, node := range s.nodes {
		if node.EventID == id {
			delete(s.nodes, nodeID)
			counts.Nodes++
		}
	}
	for absenceID, absence := range s.absences {
		if absence.EventID == id {
			delete(s.absences, absenceID)
			counts.Absences++
		}
	}
	delete(s.events, id)
	return counts, nil
}

// --- SquadRepository ---

// CreateSquad stores a new squad under an existing event.
func (s *Store) CreateSquad(ctx context.Context, squad persistence.Squad) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.squads[squad.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.events[squad.EventID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	s.squads[squad.ID] = squad
	return nil
}

// GetSquad retrieves a squad by ID.
func (s *Store) GetSquad(ctx context.Context, id string) (persistence.Squad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	squad, ok := s.squads[id]
	if !ok {
		return persistence.Squad{}, persistence.ErrNotFound
	}
	return squad, nil
}

// ListSquadsForEvent returns the event's squads ordered by Order, then ID.
func (s *Store) ListSquadsForEvent(ctx context.Context, eventID string) ([]persistence.Squad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	squads := make([]persistence.Squad, 0)
	for _, squad := range s.squads {
		if squad.EventID == eventID {
			squads = append(squads, squad)
		}
	}
	sort.Slice(squads, func(i, j int) bool {
		if squads[i].Order == squads[j].Order {
			return squads[i].ID < squads[j].ID
		}
		return squads[i].Order < squads[j].Order
	})
	return squads, nil
}

// UpdateSquad updates an existing squad's name and order.
func (s *Store) UpdateSquad(ctx context.Context, squad persistence.Squad) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.squads[squad.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	squad.EventID = existing.EventID
	squad.CreatedAt = existing.CreatedAt
	s.squads[squad.ID] = squad
	return nil
}

// DeleteSquad removes the squad and all of its slots unconditionally,
// returning the number of slots cascaded.
func (s *Store) DeleteSquad(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.squads[id]; !ok {
		return 0, persistence.ErrNotFound
	}

	deleted := 0
	for slotID, slot := range s.slots {
		if slot.SquadID == id {
			delete(s.slots, slotID)
			deleted++
		}
	}
	delete(s.squads, id)
	return deleted, nil
}

// --- SlotRepository ---

// CreateSlot stores a new, free slot under an existing squad.
func (s *Store) CreateSlot(ctx context.Context, slot persistence.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.slots[slot.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.squads[slot.SquadID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	s.slots[slot.ID] = cloneSlot(slot)
	return nil
}

// GetSlot retrieves a slot by ID.
func (s *Store) GetSlot(ctx context.Context, id string) (persistence.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[id]
	if !ok {
		return persistence.Slot{}, persistence.ErrNotFound
	}
	return cloneSlot(slot), nil
}

// ListSlotsForSquad returns the squad's slots ordered by Order, then ID.
func (s *Store) ListSlotsForSquad(ctx context.Context, squadID string) ([]persistence.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots := make([]persistence.Slot, 0)
	for _, slot := range s.slots {
		if slot.SquadID == squadID {
			slots = append(slots, cloneSlot(slot))
		}
	}
	sortSlots(slots)
	return slots, nil
}

// ListSlotsForEvent returns every slot under the event's squads.
func (s *Store) ListSlotsForEvent(ctx context.Context, eventID string) ([]persistence.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots := s.slotsForEventLocked(eventID)
	sortSlots(slots)
	return slots, nil
}

// UpdateSlot updates a slot's role and order. Occupancy is owned by the
// conditional occupancy writes and is never touched here.
func (s *Store) UpdateSlot(ctx context.Context, slot persistence.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.slots[slot.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	slot.SquadID = existing.SquadID
	slot.UserID = existing.UserID
	slot.CreatedAt = existing.CreatedAt
	s.slots[slot.ID] = cloneSlot(slot)
	return nil
}

// DeleteSlot removes a slot; occupied slots are refused.
func (s *Store) DeleteSlot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if slot.Occupied() {
		return persistence.ErrConflict
	}
	delete(s.slots, id)
	return nil
}

// FindSlotByOccupant returns the slot held by userID within the event.
func (s *Store) FindSlotByOccupant(ctx context.Context, eventID, userID string) (persistence.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, slot := range s.slotsForEventLocked(eventID) {
		if slot.UserID != nil && *slot.UserID == userID {
			return cloneSlot(slot), nil
		}
	}
	return persistence.Slot{}, persistence.ErrNotFound
}

// OccupySlot sets the occupant only if the slot is currently free.
func (s *Store) OccupySlot(ctx context.Context, slotID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.occupyLocked(slotID, userID)
}

// ReleaseSlot clears the occupant of a slot.
func (s *Store) ReleaseSlot(ctx context.Context, slotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(slotID)
}

// MoveOccupant releases fromSlotID and occupies toSlotID atomically.
func (s *Store) MoveOccupant(ctx context.Context, userID, fromSlotID, toSlotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.slots[fromSlotID]
	if !ok {
		return persistence.ErrNotFound
	}
	to, ok := s.slots[toSlotID]
	if !ok {
		return persistence.ErrNotFound
	}
	if from.UserID == nil || *from.UserID != userID {
		return persistence.ErrConflict
	}
	if to.Occupied() {
		return persistence.ErrConflict
	}

	if err := s.releaseLocked(fromSlotID); err != nil {
		return err
	}
	return s.occupyLocked(toSlotID, userID)
}

func (s *Store) occupyLocked(slotID, userID string) error {
	slot, ok := s.slots[slotID]
	if !ok {
		return persistence.ErrNotFound
	}
	if slot.Occupied() {
		return persistence.ErrConflict
	}
	occupant := userID
	slot.UserID = &occupant
	s.slots[slotID] = slot
	return nil
}

func (s *Store) releaseLocked(slotID string) error {
	slot, ok := s.slots[slotID]
	if !ok {
		return persistence.ErrNotFound
	}
	slot.UserID = nil
	s.slots[slotID] = slot
	return nil
}

func (s *Store) slotsForEventLocked(eventID string) []persistence.Slot {
	squadIDs := make(map[string]struct{})
	for _, squad := range s.squads {
		if squad.EventID == eventID {
			squadIDs[squad.ID] = struct{}{}
		}
	}
	slots := make([]persistence.Slot, 0)
	for _, slot := range s.slots {
		if _, ok := squadIDs[slot.SquadID]; ok {
			slots = append(slots, cloneSlot(slot))
		}
	}
	return slots
}

// --- CommNodeRepository ---

// CreateNode stores a new communication node under an existing event.
func (s *Store) CreateNode(ctx context.Context, node persistence.CommNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.events[node.EventID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	s.nodes[node.ID] = cloneNode(node)
	return nil
}

// GetNode retrieves a node by ID.
func (s *Store) GetNode(ctx context.Context, id string) (persistence.CommNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return persistence.CommNode{}, persistence.ErrNotFound
	}
	return cloneNode(node), nil
}

// ListNodesForEvent returns the event's nodes ordered by Order, then ID.
func (s *Store) ListNodesForEvent(ctx context.Context, eventID string) ([]persistence.CommNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]persistence.CommNode, 0)
	for _, node := range s.nodes {
		if node.EventID == eventID {
			nodes = append(nodes, cloneNode(node))
		}
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Order == nodes[j].Order {
			return nodes[i].ID < nodes[j].ID
		}
		return nodes[i].Order < nodes[j].Order
	})
	return nodes, nil
}

// UpdateNode updates an existing node.
func (s *Store) UpdateNode(ctx context.Context, node persistence.CommNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.nodes[node.ID]
	if !ok {
		return persistence.ErrNotFound
	}
	node.EventID = existing.EventID
	node.CreatedAt = existing.CreatedAt
	s.nodes[node.ID] = cloneNode(node)
	return nil
}

// DeleteNodeCascade removes the node and its transitive children.
func (s *Store) DeleteNodeCascade(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, ok := s.nodes[id]
	if !ok {
		return 0, persistence.ErrNotFound
	}

	shape := make([]commtree.Node, 0, len(s.nodes))
	for _, node := range s.nodes {
		if node.EventID != root.EventID {
			continue
		}
		shape = append(shape, commtree.Node{ID: node.ID, ParentID: node.ParentID})
	}

	doomed := append(commtree.Descendants(shape, id), id)
	for _, nodeID := range doomed {
		delete(s.nodes, nodeID)
	}
	return len(doomed), nil
}

// UpdatePositions applies a bulk presentational move for nodes of one event.
func (s *Store) UpdatePositions(ctx context.Context, eventID string, positions []persistence.NodePosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole batch before changing anything.
	for _, pos := range positions {
		node, ok := s.nodes[pos.NodeID]
		if !ok || node.EventID != eventID {
			return persistence.ErrNotFound
		}
	}
	for _, pos := range positions {
		node := s.nodes[pos.NodeID]
		node.PositionX = pos.X
		node.PositionY = pos.Y
		s.nodes[pos.NodeID] = node
	}
	return nil
}

// ReplaceTree atomically swaps the event's node set for the provided one.
func (s *Store) ReplaceTree(ctx context.Context, eventID string, nodes []persistence.CommNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[eventID]; !ok {
		return persistence.ErrNotFound
	}
	for _, node := range nodes {
		if node.EventID != eventID {
			return persistence.ErrForeignKeyViolation
		}
	}

	for nodeID, node := range s.nodes {
		if node.EventID == eventID {
			delete(s.nodes, nodeID)
		}
	}
	for _, node := range nodes {
		s.nodes[node.ID] = cloneNode(node)
	}
	return nil
}

// --- AbsenceRepository ---

// CreateAbsence records a declared absence for an existing event.
func (s *Store) CreateAbsence(ctx context.Context, absence persistence.Absence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.absences[absence.ID]; ok {
		return persistence.ErrDuplicate
	}
	if _, ok := s.events[absence.EventID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	s.absences[absence.ID] = cloneAbsence(absence)
	return nil
}

// ListAbsencesForEvent returns absences ordered by creation time, then ID.
func (s *Store) ListAbsencesForEvent(ctx context.Context, eventID string) ([]persistence.Absence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	absences := make([]persistence.Absence, 0)
	for _, absence := range s.absences {
		if absence.EventID == eventID {
			absences = append(absences, cloneAbsence(absence))
		}
	}
	sort.Slice(absences, func(i, j int) bool {
		if absences[i].CreatedAt.Equal(absences[j].CreatedAt) {
			return absences[i].ID < absences[j].ID
		}
		return absences[i].CreatedAt.Before(absences[j].CreatedAt)
	})
	return absences, nil
}

// --- AuditRepository ---

// AppendAudit appends an entry to the audit log.
func (s *Store) AppendAudit(ctx context.Context, entry persistence.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audits = append(s.audits, cloneAudit(entry))
	return nil
}

// ListAuditForEvent returns audit entries scoped to an event in append order.
func (s *Store) ListAuditForEvent(ctx context.Context, eventID string) ([]persistence.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]persistence.AuditEntry, 0)
	for _, entry := range s.audits {
		if entry.EventID != nil && *entry.EventID == eventID {
			entries = append(entries, cloneAudit(entry))
		}
	}
	return entries, nil
}

// --- Helpers ---

func sortSlots(slots []persistence.Slot) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Order == slots[j].Order {
			return slots[i].ID < slots[j].ID
		}
		return slots[i].Order < slots[j].Order
	})
}

func cloneSlot(slot persistence.Slot) persistence.Slot {
	if slot.UserID != nil {
		occupant := *slot.UserID
		slot.UserID = &occupant
	}
	return slot
}

func cloneNode(node persistence.CommNode) persistence.CommNode {
	if node.Frequency != nil {
		freq := *node.Frequency
		node.Frequency = &freq
	}
	if node.ParentID != nil {
		parent := *node.ParentID
		node.ParentID = &parent
	}
	return node
}

func cloneAbsence(absence persistence.Absence) persistence.Absence {
	if absence.Reason != nil {
		reason := *absence.Reason
		absence.Reason = &reason
	}
	return absence
}

func cloneAudit(entry persistence.AuditEntry) persistence.AuditEntry {
	if entry.EventID != nil {
		eventID := *entry.EventID
		entry.EventID = &eventID
	}
	if entry.Details != nil {
		details := make([]byte, len(entry.Details))
		copy(details, entry.Details)
		entry.Details = details
	}
	return entry
}
