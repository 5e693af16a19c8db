// Package wire provides dependency injection for canvas-ai.
// It creates singleton services with lazy initialization.
package wire

import (
	"crypto/rand"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	cliadapter "github.com/example/canvasai/internal/adapters/cli"
	"github.com/example/canvasai/internal/adapters/canvas"
	"github.com/example/canvasai/internal/adapters/filesystem"
	mcpadapter "github.com/example/canvasai/internal/adapters/mcp"
	"github.com/example/canvasai/internal/adapters/sqlite"
	"github.com/example/canvasai/internal/app"
	"github.com/example/canvasai/internal/config"
	"github.com/example/canvasai/internal/db"
	"github.com/example/canvasai/internal/logging"
)

var (
	handlers   *cliadapter.Handlers
	runService *app.RunServiceImpl
	logger     *slog.Logger
	database   *sql.DB
	closeLog   func() error
	initErr    error
	once       sync.Once
)

// Handlers returns the singleton command handlers.
func Handlers() (*cliadapter.Handlers, error) {
	once.Do(initServices)
	return handlers, initErr
}

// MCPServer returns a new MCP server over the singleton handlers.
func MCPServer() (*mcpadapter.Server, error) {
	once.Do(initServices)
	if initErr != nil {
		return nil, initErr
	}
	return mcpadapter.NewServer(handlers, runService, logger)
}

// Close releases the database and the log file. Safe to call when nothing
// was initialized.
func Close() {
	if database != nil {
		database.Close()
	}
	if closeLog != nil {
		closeLog()
	}
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	paths, err := config.DefaultPaths()
	if err != nil {
		initErr = err
		return
	}

	logger, closeLog, err = logging.OpenFile(paths.LogFile())
	if err != nil {
		// Diagnostics are best effort; commands still run without them.
		logger, closeLog = logging.Discard(), nil
	}

	database, err = db.Open(paths.DBPath())
	if err != nil {
		logger.Error("failed to open database", "path", paths.DBPath(), "error", err)
		initErr = err
		return
	}

	// Secondary adapters
	now := time.Now
	settings := config.NewStore(paths)
	clients := canvas.NewProvider(settings, canvas.WithLogger(logger), canvas.WithClock(now))
	policies := filesystem.NewPolicyStore(paths.PolicyJSON(), paths.PolicyYAML())
	runRepo := sqlite.NewRunRepository(database)
	feedbackRepo := sqlite.NewFeedbackRepository(database)
	planRepo := sqlite.NewPlanRepository(database)
	tokenRepo := sqlite.NewReviewTokenRepository(database)
	idempotencyRepo := sqlite.NewIdempotencyRepository(database)
	actionLog := sqlite.NewActionLog(database)

	executor := app.NewEffectExecutor(filesystem.NewFileWriter(), logger)

	// Primary services
	runService = app.NewRunService(runRepo, actionLog)
	handlers = cliadapter.NewHandlers(cliadapter.Services{
		Workflow: app.NewWorkflowService(runRepo, feedbackRepo, clients, policies, executor, paths.ArtifactsDir(), now, logger),
		Review:   app.NewReviewService(runRepo, tokenRepo, idempotencyRepo, clients, policies, rand.Reader, now, logger),
		Plans:    app.NewPlanService(planRepo, runRepo, clients),
		Org:      app.NewOrgService(settings, clients),
		Feedback: app.NewFeedbackService(feedbackRepo),
		Runs:     runService,
		Courses:  app.NewCourseService(clients),
		Settings: app.NewSettingsService(settings, policies),
	}, logger)

	logger.Debug("services initialized", "db", paths.DBPath(), "config", paths.ConfigFile())
}
