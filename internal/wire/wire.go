// Package wire assembles the application from an explicit store handle.
// There are no package-level singletons: callers open the database, build
// one App, and pass it to whatever entry point they run. Tests build
// their own App against an in-memory store the same way.
package wire

import (
	"database/sql"

	"github.com/example/missionctl/internal/adapters/sqlite"
	"github.com/example/missionctl/internal/app"
	"github.com/example/missionctl/internal/ports/primary"
)

// App bundles the wired services around one store handle.
type App struct {
	DB           *sql.DB
	Orchestrator primary.OrchestratorService
	Query        primary.QueryService
}

// New wires the services on top of the given database.
func New(database *sql.DB) *App {
	repos := sqlite.NewRepositories(database)
	return &App{
		DB:           database,
		Orchestrator: app.NewOrchestratorService(sqlite.NewTxRunner(database)),
		Query:        app.NewQueryService(repos, sqlite.NewQueryRepository(database)),
	}
}

// Close releases the store handle.
func (a *App) Close() error {
	return a.DB.Close()
}
