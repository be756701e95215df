package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/clan-roster/internal/application"
	"github.com/example/clan-roster/internal/config"
	httptransport "github.com/example/clan-roster/internal/http"
	"github.com/example/clan-roster/internal/logging"
	"github.com/example/clan-roster/internal/persistence"
	"github.com/example/clan-roster/internal/persistence/memory"
	"github.com/example/clan-roster/internal/persistence/sqlite"
)

func main() {
	logger := logging.Setup()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var (
		events   persistence.EventRepository
		squads   persistence.SquadRepository
		slots    persistence.SlotRepository
		nodes    persistence.CommNodeRepository
		absences persistence.AbsenceRepository
		audits   persistence.AuditRepository
	)

	if cfg.SQLiteDSN == "" {
		logger.Info("no DSN configured, using in-memory store")
		store := memory.NewStore()
		events, squads, slots = store, store, store
		nodes, absences, audits = store, store, store
	} else {
		pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
		if err != nil {
			logger.Error("failed to open storage", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := pool.Close(); cerr != nil {
				logger.Error("failed to close storage", "error", cerr)
			}
		}()

		if err := pool.Migrate(context.Background()); err != nil {
			logger.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}

		events = sqlite.NewEventRepository(pool)
		squads = sqlite.NewSquadRepository(pool)
		slots = sqlite.NewSlotRepository(pool)
		nodes = sqlite.NewCommNodeRepository(pool)
		absences = sqlite.NewAbsenceRepository(pool)
		audits = sqlite.NewAuditRepository(pool)
	}

	directory := newEnvDirectory(os.Getenv("ROSTER_USERS"))
	idGenerator := uuid.NewString
	now := time.Now
	locks := application.NewEventLocks()

	eventService := application.NewEventService(
		events, squads, slots, directory, audits, locks, idGenerator, now, logger,
	)
	rosterService := application.NewRosterService(
		events, squads, slots, directory, audits, locks, idGenerator, now, logger,
	)
	assignmentService := application.NewAssignmentService(
		events, squads, slots, absences, directory, audits, locks, idGenerator, now, logger,
	)
	treeService := application.NewCommTreeService(
		events, squads, nodes, directory, audits, locks,
		cfg.CommandNetName, cfg.BaseFrequency, idGenerator, now, logger,
	)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Events:      httptransport.NewEventHandler(eventService, logger),
		Roster:      httptransport.NewRosterHandler(rosterService, logger),
		Assignments: httptransport.NewAssignmentHandler(assignmentService, logger),
		Tree:        httptransport.NewTreeHandler(treeService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireActor(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}
}

// envDirectory resolves users from a static "user=clan" mapping supplied via
// the ROSTER_USERS environment variable, for example
// "alice=clan-alpha,bob=clan-bravo". Unknown users resolve to ErrNotFound,
// which denies the clan-leader proxy paths that need a clan lookup.
type envDirectory struct {
	clans map[string]string
}

func newEnvDirectory(raw string) *envDirectory {
	clans := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		user, clan, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		clans[strings.TrimSpace(user)] = strings.TrimSpace(clan)
	}
	return &envDirectory{clans: clans}
}

func (d *envDirectory) GetUser(_ context.Context, id string) (application.UserRef, error) {
	clan, ok := d.clans[id]
	if !ok {
		return application.UserRef{}, application.ErrNotFound
	}
	return application.UserRef{ID: id, ClanID: clan}, nil
}
