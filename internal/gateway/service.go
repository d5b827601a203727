package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/gauntlet/internal/game"
	"github.com/mcdev12/gauntlet/internal/results"
	"github.com/mcdev12/gauntlet/internal/scoreboard"
)

// Service wires the connection manager, coordinator, and HTTP handlers into
// one startable unit.
type Service struct {
	manager     *Manager
	coordinator *Coordinator
	wsHandler   *WebSocketHandler
	admin       *AdminHandler
}

// Config holds configuration for the gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
	GracePeriod      time.Duration
}

// DefaultConfig returns the stock gateway configuration.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		GracePeriod:      DefaultGracePeriod,
	}
}

// NewService builds the full gateway around the given game state and result
// store.
func NewService(cfg Config, registry *game.Registry, engine game.Engine, answers *game.AnswerKey, store results.Store, clock clockwork.Clock) *Service {
	board := scoreboard.NewAggregator(registry, store)

	// The coordinator is the manager's event sink and the manager is the
	// coordinator's broadcaster; the coordinator is created first and the
	// manager patched in as its broadcast target.
	coordinator := NewCoordinator(registry, engine, answers, store, board, nil, clock, cfg.GracePeriod)
	manager := NewManager(cfg.ConnectionConfig, coordinator)
	coordinator.bc = manager

	return &Service{
		manager:     manager,
		coordinator: coordinator,
		wsHandler:   NewWebSocketHandler(manager),
		admin:       NewAdminHandler(answers),
	}
}

// Start runs the service until the context is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")

	go s.manager.Start(ctx)
	go s.coordinator.Run(ctx)

	<-ctx.Done()

	log.Info().Msg("gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and admin HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.admin.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

// ConnectionCount reports the number of live WebSocket connections.
func (s *Service) ConnectionCount() int {
	return s.manager.ConnectionCount()
}
