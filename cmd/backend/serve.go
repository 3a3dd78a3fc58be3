package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/caseline/caseline/authz"
	"github.com/caseline/caseline/cmd/backend/handlers"
	"github.com/caseline/caseline/database"
	"github.com/caseline/caseline/environment"
	"github.com/caseline/caseline/events"
	"github.com/caseline/caseline/logger"
	"github.com/caseline/caseline/metrics"
	"github.com/caseline/caseline/session"
	"github.com/caseline/caseline/storage"
	"github.com/caseline/caseline/summary"
	"github.com/caseline/caseline/testcase"
	"github.com/caseline/caseline/testplan"
	"github.com/caseline/caseline/testrun"
)

var configFile string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log := logger.NewLogrusLogger(cfg.Log.Level)
	log.Info(ctx, "starting server", map[string]interface{}{
		"version": Version,
		"commit":  Commit,
		"date":    BuildDate,
	})

	// Connect to database
	dbCfg := database.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}

	db, err := database.Connect(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	defer sqlDB.Close()

	log.Info(ctx, "database connected", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// Initialize evidence storage
	blobs, err := storage.New(ctx, storage.Config{
		Backend:       cfg.Storage.Backend,
		LocalDir:      cfg.Storage.BaseDir,
		S3Bucket:      cfg.Storage.S3Bucket,
		S3Region:      cfg.Storage.S3Region,
		PresignExpiry: cfg.Storage.S3PresignExpiry,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info(ctx, "evidence storage initialized", map[string]interface{}{
		"backend": cfg.Storage.Backend,
	})

	// Event bus with the Prometheus collector subscribed. Stores publish
	// after commit; nothing here blocks a request.
	bus := events.NewBus(log)
	bus.Subscribe(metrics.NewCollector())

	// Authorization policy. AllowAll until an external policy source is
	// wired in; the stores already route every guarded write through it.
	policy := authz.NewAllowAll()

	// Initialize stores
	caseStore := testcase.NewMySQLStore(db, log, policy)
	planStore := testplan.NewMySQLStore(db, log)
	envStore := environment.NewMySQLStore(db, log)
	runStore := testrun.NewMySQLStore(db, log, bus)
	execStore := testrun.NewMySQLExecutionStore(db, log, policy, bus)
	linkStore := testrun.NewMySQLLinkStore(db, log)
	attachmentStore := testrun.NewMySQLAttachmentStore(db, log)
	stepNoteStore := testrun.NewMySQLStepNoteStore(db, log)
	historyStore := testrun.NewMySQLHistoryStore(db, log)
	summaryEngine := summary.NewEngine(db, execStore, log)

	// Initialize session manager
	sessionManager := session.NewManager(cfg.Session.Duration, log)
	sessionManager.StartCleanup(5 * time.Minute)
	defer sessionManager.StopCleanup()

	log.Info(ctx, "session manager initialized", map[string]interface{}{
		"duration": cfg.Session.Duration.String(),
	})

	// Signed session cookies, shared between issuing and verification.
	cookieCodec := securecookie.New([]byte(cfg.Session.CookieSecret), nil)

	// Setup router
	router := mux.NewRouter()

	// Public endpoints
	router.HandleFunc("/health", handlers.HealthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	sessionHandler := handlers.NewSessionHandler(
		sessionManager,
		cookieCodec,
		cfg.Session.CookieName,
		cfg.Session.Secure,
		log,
	)
	router.HandleFunc("/api/v1/sessions", sessionHandler.Login).Methods("POST")
	router.HandleFunc("/api/v1/sessions/current", sessionHandler.Current).Methods("GET")
	router.HandleFunc("/api/v1/sessions/current", sessionHandler.Logout).Methods("DELETE")

	// Protected API routes
	actorMiddleware := handlers.NewActorMiddleware(sessionManager, cookieCodec, cfg.Session.CookieName, log)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(actorMiddleware.Handler)

	caseHandler := handlers.NewTestCaseHandler(caseStore, log)
	apiRouter.HandleFunc("/cases", caseHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/cases", caseHandler.List).Methods("GET")
	apiRouter.HandleFunc("/cases/{case_id}", caseHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/cases/{case_id}", caseHandler.Revise).Methods("PUT")
	apiRouter.HandleFunc("/cases/{case_id}/status", caseHandler.SetStatus).Methods("PATCH")
	apiRouter.HandleFunc("/cases/{case_id}/versions", caseHandler.ListVersions).Methods("GET")
	apiRouter.HandleFunc("/cases/{case_id}/versions/{version}", caseHandler.GetVersion).Methods("GET")

	planHandler := handlers.NewTestPlanHandler(planStore, log)
	apiRouter.HandleFunc("/plans", planHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/plans", planHandler.List).Methods("GET")
	apiRouter.HandleFunc("/plans/{plan_id}", planHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/plans/{plan_id}", planHandler.Update).Methods("PUT")
	apiRouter.HandleFunc("/plans/{plan_id}", planHandler.Delete).Methods("DELETE")
	apiRouter.HandleFunc("/plans/{plan_id}/clone", planHandler.Clone).Methods("POST")
	apiRouter.HandleFunc("/plans/{plan_id}/children", planHandler.ListChildren).Methods("GET")
	apiRouter.HandleFunc("/plans/{plan_id}/cases", planHandler.AddCase).Methods("POST")
	apiRouter.HandleFunc("/plans/{plan_id}/cases", planHandler.ListCases).Methods("GET")
	apiRouter.HandleFunc("/plans/{plan_id}/cases/{case_id}", planHandler.RemoveCase).Methods("DELETE")

	envHandler := handlers.NewEnvironmentHandler(envStore, log)
	apiRouter.HandleFunc("/environments", envHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/environments", envHandler.List).Methods("GET")
	apiRouter.HandleFunc("/environments/{environment_id}", envHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/environments/{environment_id}", envHandler.Update).Methods("PUT")
	apiRouter.HandleFunc("/environments/{environment_id}", envHandler.Delete).Methods("DELETE")

	runHandler := handlers.NewTestRunHandler(runStore, log)
	apiRouter.HandleFunc("/runs", runHandler.Create).Methods("POST")
	apiRouter.HandleFunc("/runs/{run_id}", runHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/runs/{run_id}", runHandler.Update).Methods("PUT")
	apiRouter.HandleFunc("/runs/{run_id}/clone", runHandler.Clone).Methods("POST")
	apiRouter.HandleFunc("/runs/{run_id}/finish", runHandler.Finish).Methods("POST")
	apiRouter.HandleFunc("/runs/{run_id}/reopen", runHandler.Reopen).Methods("POST")
	apiRouter.HandleFunc("/plans/{plan_id}/runs", runHandler.ListByPlan).Methods("GET")

	execHandler := handlers.NewExecutionHandler(execStore, historyStore, linkStore, stepNoteStore, log)
	apiRouter.HandleFunc("/runs/{run_id}/executions", execHandler.ListByRun).Methods("GET")
	apiRouter.HandleFunc("/cases/{case_id}/executions", execHandler.ListByCase).Methods("GET")
	apiRouter.HandleFunc("/cases/{case_id}/history", execHandler.CaseHistory).Methods("GET")
	apiRouter.HandleFunc("/executions/{execution_id}", execHandler.GetByID).Methods("GET")
	apiRouter.HandleFunc("/executions/{execution_id}/status", execHandler.SetStatus).Methods("POST")
	apiRouter.HandleFunc("/executions/{execution_id}/notes", execHandler.AppendNote).Methods("POST")
	apiRouter.HandleFunc("/executions/{execution_id}/assignee", execHandler.Assign).Methods("PUT")
	apiRouter.HandleFunc("/executions/{execution_id}/history", execHandler.History).Methods("GET")
	apiRouter.HandleFunc("/executions/{execution_id}/links", execHandler.AddLink).Methods("POST")
	apiRouter.HandleFunc("/executions/{execution_id}/links", execHandler.ListLinks).Methods("GET")
	apiRouter.HandleFunc("/executions/{execution_id}/links/{link_id}", execHandler.RemoveLink).Methods("DELETE")
	apiRouter.HandleFunc("/executions/{execution_id}/step-notes", execHandler.ListStepNotes).Methods("GET")
	apiRouter.HandleFunc("/executions/{execution_id}/step-notes/{step_index}", execHandler.UpsertStepNote).Methods("PUT")

	attachmentHandler := handlers.NewAttachmentHandler(attachmentStore, execStore, blobs, log)
	apiRouter.HandleFunc("/executions/{execution_id}/attachments", attachmentHandler.Upload).Methods("POST")
	apiRouter.HandleFunc("/executions/{execution_id}/attachments", attachmentHandler.List).Methods("GET")
	apiRouter.HandleFunc("/attachments/{attachment_id}/download", attachmentHandler.Download).Methods("GET")
	apiRouter.HandleFunc("/attachments/{attachment_id}/url", attachmentHandler.GetURL).Methods("GET")
	apiRouter.HandleFunc("/attachments/{attachment_id}", attachmentHandler.Delete).Methods("DELETE")

	summaryHandler := handlers.NewSummaryHandler(summaryEngine, log)
	apiRouter.HandleFunc("/runs/{run_id}/summary", summaryHandler.RunSummary).Methods("GET")
	apiRouter.HandleFunc("/plans/{plan_id}/matrix", summaryHandler.PlanMatrix).Methods("GET")
	apiRouter.HandleFunc("/plans/{plan_id}/health", summaryHandler.PlanHealth).Methods("GET")

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info(ctx, "server listening", map[string]interface{}{
			"address": addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info(ctx, "shutting down server", nil)

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Let in-flight event deliveries drain before the process exits.
	bus.Wait()

	log.Info(ctx, "server stopped", nil)
	return nil
}
