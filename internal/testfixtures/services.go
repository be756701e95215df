package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/example/clan-roster/internal/application"
	"github.com/example/clan-roster/internal/persistence/memory"
)

// Directory is an in-memory application.UserDirectory for tests.
type Directory struct {
	mu    sync.RWMutex
	users map[string]application.UserRef
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{users: make(map[string]application.UserRef)}
}

// Add registers the fixture's directory entry and returns the fixture for
// chaining into actor construction.
func (d *Directory) Add(fixture UserFixture) UserFixture {
	d.mu.Lock()
	d.users[fixture.ID] = fixture.Ref()
	d.mu.Unlock()
	return fixture
}

// GetUser implements application.UserDirectory.
func (d *Directory) GetUser(_ context.Context, id string) (application.UserRef, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ref, ok := d.users[id]
	if !ok {
		return application.UserRef{}, application.ErrNotFound
	}
	return ref, nil
}

// Harness bundles the memory store with fully wired services, a
// deterministic clock and ID sequence, and a mutable user directory.
type Harness struct {
	Store       *memory.Store
	Directory   *Directory
	Clock       *Clock
	IDs         *IDGenerator
	Locks       *application.EventLocks
	Events      *application.EventService
	Roster      *application.RosterService
	Assignments *application.AssignmentService
	Tree        *application.CommTreeService
}

// NewHarness wires every service against a fresh memory store. The logger is
// silenced so test output stays readable.
func NewHarness() *Harness {
	store := memory.NewStore()
	directory := NewDirectory()
	clock := NewClock(ReferenceTime())
	ids := NewIDGenerator("id")
	locks := application.NewEventLocks()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &Harness{
		Store:     store,
		Directory: directory,
		Clock:     clock,
		IDs:       ids,
		Locks:     locks,
		Events: application.NewEventService(
			store, store, store, directory, store, locks, ids.NextFunc(), clock.NowFunc(), logger,
		),
		Roster: application.NewRosterService(
			store, store, store, directory, store, locks, ids.NextFunc(), clock.NowFunc(), logger,
		),
		Assignments: application.NewAssignmentService(
			store, store, store, store, directory, store, locks, ids.NextFunc(), clock.NowFunc(), logger,
		),
		Tree: application.NewCommTreeService(
			store, store, store, directory, store, locks, "COMANDO CENTRAL", 41, ids.NextFunc(), clock.NowFunc(), logger,
		),
	}
}
