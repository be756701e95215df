package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/clan-roster/internal/application"
	"github.com/example/clan-roster/internal/permission"
	"github.com/example/clan-roster/internal/persistence"
)

var (
	userCounter  uint64
	eventCounter uint64
	squadCounter uint64
	slotCounter  uint64
	nodeCounter  uint64
)

var referenceTime = time.Date(2024, time.March, 9, 20, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic directory user for permission tests.
type UserFixture struct {
	ID     string
	ClanID string
	Role   permission.Role
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	fixture := UserFixture{
		ID:     fmt.Sprintf("user-%03d", idx),
		ClanID: "clan-alpha",
		Role:   permission.RoleMember,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserClan overrides the generated clan ID.
func WithUserClan(clanID string) UserOption {
	return func(f *UserFixture) {
		f.ClanID = clanID
	}
}

// WithUserRole sets the role on the generated fixture.
func WithUserRole(role permission.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// Ref returns the fixture as an application.UserRef directory entry.
func (f UserFixture) Ref() application.UserRef {
	return application.UserRef{ID: f.ID, ClanID: f.ClanID}
}

// Actor returns a permission.Actor derived from the fixture.
func (f UserFixture) Actor() permission.Actor {
	return permission.Actor{UserID: f.ID, Role: f.Role, ClanID: f.ClanID}
}

// ----------------------------- Event fixtures ----------------------------

// EventFixture represents a deterministic event record.
type EventFixture struct {
	ID            string
	Name          string
	Description   string
	Briefing      string
	GameType      string
	Status        persistence.EventStatus
	ScheduledDate time.Time
	CreatorID     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a deterministic event fixture with optional overrides.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	id := fmt.Sprintf("event-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EventFixture{
		ID:            id,
		Name:          fmt.Sprintf("Operation %03d", idx),
		GameType:      "arma3",
		Status:        persistence.EventStatusActive,
		ScheduledDate: referenceTime.Add(7 * 24 * time.Hour),
		CreatorID:     fmt.Sprintf("user-%03d", idx),
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventName overrides the generated name.
func WithEventName(name string) EventOption {
	return func(f *EventFixture) {
		f.Name = name
	}
}

// WithEventGameType overrides the game type.
func WithEventGameType(gameType string) EventOption {
	return func(f *EventFixture) {
		f.GameType = gameType
	}
}

// WithEventStatus sets the lifecycle status.
func WithEventStatus(status persistence.EventStatus) EventOption {
	return func(f *EventFixture) {
		f.Status = status
	}
}

// WithEventCreator sets the creator ID.
func WithEventCreator(userID string) EventOption {
	return func(f *EventFixture) {
		f.CreatorID = userID
	}
}

// WithEventScheduledDate sets the scheduled date.
func WithEventScheduledDate(t time.Time) EventOption {
	return func(f *EventFixture) {
		f.ScheduledDate = t
	}
}

// WithEventTimestamps sets both created and updated timestamps.
func WithEventTimestamps(created, updated time.Time) EventOption {
	return func(f *EventFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.Event value.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event{
		ID:            f.ID,
		Name:          f.Name,
		Description:   f.Description,
		Briefing:      f.Briefing,
		GameType:      f.GameType,
		Status:        f.Status,
		ScheduledDate: f.ScheduledDate,
		CreatorID:     f.CreatorID,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Input returns the fixture as an application.EventInput.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		Name:          f.Name,
		Description:   f.Description,
		Briefing:      f.Briefing,
		GameType:      f.GameType,
		ScheduledDate: f.ScheduledDate,
	}
}

// ----------------------------- Squad fixtures ----------------------------

// SquadFixture represents a deterministic squad record.
type SquadFixture struct {
	ID        string
	EventID   string
	Name      string
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SquadOption configures the generated squad fixture.
type SquadOption func(*SquadFixture)

// NewSquadFixture returns a deterministic squad fixture with optional overrides.
func NewSquadFixture(opts ...SquadOption) SquadFixture {
	idx := atomic.AddUint64(&squadCounter, 1)
	fixture := SquadFixture{
		ID:        fmt.Sprintf("squad-%03d", idx),
		EventID:   fmt.Sprintf("event-%03d", idx),
		Name:      fmt.Sprintf("Squad %03d", idx),
		Order:     int(idx),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSquadID overrides the generated squad ID.
func WithSquadID(id string) SquadOption {
	return func(f *SquadFixture) {
		f.ID = id
	}
}

// WithSquadEvent sets the owning event ID.
func WithSquadEvent(eventID string) SquadOption {
	return func(f *SquadFixture) {
		f.EventID = eventID
	}
}

// WithSquadName overrides the generated name.
func WithSquadName(name string) SquadOption {
	return func(f *SquadFixture) {
		f.Name = name
	}
}

// WithSquadOrder sets the display order.
func WithSquadOrder(order int) SquadOption {
	return func(f *SquadFixture) {
		f.Order = order
	}
}

// Persistence returns the fixture as a persistence.Squad value.
func (f SquadFixture) Persistence() persistence.Squad {
	return persistence.Squad{
		ID:        f.ID,
		EventID:   f.EventID,
		Name:      f.Name,
		Order:     f.Order,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ----------------------------- Slot fixtures -----------------------------

// SlotFixture represents a deterministic slot record.
type SlotFixture struct {
	ID        string
	SquadID   string
	Role      string
	Order     int
	UserID    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotOption configures the generated slot fixture.
type SlotOption func(*SlotFixture)

// NewSlotFixture returns a deterministic slot fixture with optional overrides.
func NewSlotFixture(opts ...SlotOption) SlotFixture {
	idx := atomic.AddUint64(&slotCounter, 1)
	fixture := SlotFixture{
		ID:        fmt.Sprintf("slot-%03d", idx),
		SquadID:   fmt.Sprintf("squad-%03d", idx),
		Role:      "Rifleman",
		Order:     int(idx),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSlotID overrides the generated slot ID.
func WithSlotID(id string) SlotOption {
	return func(f *SlotFixture) {
		f.ID = id
	}
}

// WithSlotSquad sets the owning squad ID.
func WithSlotSquad(squadID string) SlotOption {
	return func(f *SlotFixture) {
		f.SquadID = squadID
	}
}

// WithSlotRole overrides the role label.
func WithSlotRole(role string) SlotOption {
	return func(f *SlotFixture) {
		f.Role = role
	}
}

// WithSlotOrder sets the display order.
func WithSlotOrder(order int) SlotOption {
	return func(f *SlotFixture) {
		f.Order = order
	}
}

// WithSlotOccupant places a user into the slot.
func WithSlotOccupant(userID string) SlotOption {
	return func(f *SlotFixture) {
		occupant := userID
		f.UserID = &occupant
	}
}

// WithoutSlotOccupant clears any occupant on the fixture.
func WithoutSlotOccupant() SlotOption {
	return func(f *SlotFixture) {
		f.UserID = nil
	}
}

// Persistence returns the fixture as a persistence.Slot value.
func (f SlotFixture) Persistence() persistence.Slot {
	var occupant *string
	if f.UserID != nil {
		id := *f.UserID
		occupant = &id
	}
	return persistence.Slot{
		ID:        f.ID,
		SquadID:   f.SquadID,
		Role:      f.Role,
		Order:     f.Order,
		UserID:    occupant,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.SlotInput.
func (f SlotFixture) Input() application.SlotInput {
	return application.SlotInput{Role: f.Role, Order: f.Order}
}

// ----------------------------- Node fixtures -----------------------------

// NodeFixture represents a deterministic communication node record.
type NodeFixture struct {
	ID        string
	EventID   string
	Name      string
	Frequency *string
	Type      string
	ParentID  *string
	PositionX float64
	PositionY float64
	Order     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NodeOption configures the generated node fixture.
type NodeOption func(*NodeFixture)

// NewNodeFixture returns a deterministic node fixture with optional overrides.
func NewNodeFixture(opts ...NodeOption) NodeFixture {
	idx := atomic.AddUint64(&nodeCounter, 1)
	fixture := NodeFixture{
		ID:        fmt.Sprintf("node-%03d", idx),
		EventID:   fmt.Sprintf("event-%03d", idx),
		Name:      fmt.Sprintf("NET %03d", idx),
		Type:      "SQUAD",
		Order:     int(idx),
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithNodeID overrides the generated node ID.
func WithNodeID(id string) NodeOption {
	return func(f *NodeFixture) {
		f.ID = id
	}
}

// WithNodeEvent sets the owning event ID.
func WithNodeEvent(eventID string) NodeOption {
	return func(f *NodeFixture) {
		f.EventID = eventID
	}
}

// WithNodeName overrides the generated name.
func WithNodeName(name string) NodeOption {
	return func(f *NodeFixture) {
		f.Name = name
	}
}

// WithNodeType sets the node type.
func WithNodeType(nodeType string) NodeOption {
	return func(f *NodeFixture) {
		f.Type = nodeType
	}
}

// WithNodeFrequency sets the display frequency.
func WithNodeFrequency(freq string) NodeOption {
	return func(f *NodeFixture) {
		value := freq
		f.Frequency = &value
	}
}

// WithNodeParent sets the parent node ID.
func WithNodeParent(parentID string) NodeOption {
	return func(f *NodeFixture) {
		id := parentID
		f.ParentID = &id
	}
}

// WithNodePosition sets the canvas position.
func WithNodePosition(x, y float64) NodeOption {
	return func(f *NodeFixture) {
		f.PositionX = x
		f.PositionY = y
	}
}

// WithNodeOrder sets the display order.
func WithNodeOrder(order int) NodeOption {
	return func(f *NodeFixture) {
		f.Order = order
	}
}

// Persistence returns the fixture as a persistence.CommNode value.
func (f NodeFixture) Persistence() persistence.CommNode {
	var freq *string
	if f.Frequency != nil {
		value := *f.Frequency
		freq = &value
	}
	var parent *string
	if f.ParentID != nil {
		id := *f.ParentID
		parent = &id
	}
	return persistence.CommNode{
		ID:        f.ID,
		EventID:   f.EventID,
		Name:      f.Name,
		Frequency: freq,
		Type:      f.Type,
		ParentID:  parent,
		PositionX: f.PositionX,
		PositionY: f.PositionY,
		Order:     f.Order,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}
