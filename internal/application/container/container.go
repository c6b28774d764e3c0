// Package container wires every singleton the application needs: the shared
// state, persistence, the upstream client, the handler chain, and the
// services the proxy and dashboard talk to.
package container

import (
	"fmt"

	"github.com/xolodev/xolo-go/internal/application/services"
	"github.com/xolodev/xolo-go/internal/domain/state"
	"github.com/xolodev/xolo-go/internal/engine"
	"github.com/xolodev/xolo-go/internal/engine/handlers"
	"github.com/xolodev/xolo-go/internal/infrastructure/messaging"
	"github.com/xolodev/xolo-go/internal/infrastructure/observability/logging"
	"github.com/xolodev/xolo-go/internal/infrastructure/persistence"
	"github.com/xolodev/xolo-go/internal/infrastructure/remote"
	"github.com/xolodev/xolo-go/internal/infrastructure/security"
	"github.com/xolodev/xolo-go/pkg/config"
)

// Container holds the wired singletons.
type Container struct {
	Logger      *logging.ChanneledLogger
	State       *state.ApplicationState
	Snapshots   *persistence.SnapshotStore
	Audit       *persistence.AuditLog
	Remote      *remote.Client
	Router      *engine.Router
	Engine      *services.EngineService
	States      *services.StateService
	Broadcaster *messaging.EventBroadcaster

	// DashboardSecret signs dashboard tokens. When a password is set but the
	// secret was left at its development default, a random per-process secret
	// is generated instead.
	DashboardSecret string
}

// NewContainer restores state from the snapshot and wires every service.
func NewContainer(logger *logging.ChanneledLogger) (*Container, error) {
	snapshots := persistence.NewSnapshotStore(config.StatePath, logger)
	st := snapshots.Load()
	if st.Balance.Rebase(config.AddedCredit) {
		logger.Startup().Info("Added credit rebased", "addedCredit", config.AddedCredit)
	}

	audit, err := persistence.OpenAuditLog(config.AuditDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}

	rc := remote.NewClient(st.Session, logger)
	broadcaster := messaging.NewEventBroadcaster(logger)

	chain := handlers.NewChain(handlers.Deps{
		State:   st,
		Remote:  rc,
		Persist: snapshots,
		Audit:   audit,
		Logger:  logger,
	})
	router := engine.NewRouter(st, rc, snapshots, logger, chain...)

	eng := services.NewEngineService(router, broadcaster)
	states := services.NewStateService(eng, st, snapshots, audit, broadcaster, logger)

	secret := config.DashboardSecret
	if config.DashboardPassword != "" && secret == "xolo-dev-secret" {
		generated, err := security.GenerateSecureKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate dashboard secret: %w", err)
		}
		secret = generated
		logger.Startup().Warn("Dashboard secret left at default, generated a per-process secret")
	}

	return &Container{
		Logger:          logger,
		State:           st,
		Snapshots:       snapshots,
		Audit:           audit,
		Remote:          rc,
		Router:          router,
		Engine:          eng,
		States:          states,
		Broadcaster:     broadcaster,
		DashboardSecret: secret,
	}, nil
}

// Close flushes the snapshot one last time and releases the audit handle.
func (c *Container) Close() error {
	if err := c.Snapshots.Save(c.State); err != nil {
		c.Logger.Shutdown().Error("Final snapshot save failed", "error", err.Error())
	}
	return c.Audit.Close()
}
