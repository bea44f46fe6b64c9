package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	echoapi "github.com/mzhou3299/2-web-app-spogs/apps/api/echo"
	"github.com/mzhou3299/2-web-app-spogs/core"
	"github.com/mzhou3299/2-web-app-spogs/core/assignment"
	"github.com/mzhou3299/2-web-app-spogs/core/user"
	logsvc "github.com/mzhou3299/2-web-app-spogs/services/logger"
	sessionsvc "github.com/mzhou3299/2-web-app-spogs/services/session"
	"github.com/mzhou3299/2-web-app-spogs/storage/database"
	mongorepos "github.com/mzhou3299/2-web-app-spogs/storage/database/mongorepos"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(os.Stdout, "API", conf)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(os.Stdout, "DB", conf)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		dbLogger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		if err = db.Close(ctx); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up session store
	sessions, err := setUpSessions(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up session store: %v", err), err)
	}
	defer func() {
		if err = sessions.Close(); err != nil {
			logger.Error("Failed to close session store", err)
		}
	}()

	// set up services
	usrSvc := user.NewService(mongorepos.NewUserRepository(db))
	assignmentSvc := assignment.NewService(mongorepos.NewAssignmentRepository(db), conf.Location)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	assignment.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - Prometheus metrics of the API.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			AssignmentSvc: assignmentSvc,
			Sessions:      sessions,
			Validate:      validate,
			Translator:    translator,
			Registerer:    registry,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*database.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*conf.Database.ConnectTimeout)
	defer cancel()

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err = database.EnsureIndexes(ctx, db); err != nil {
		_ = db.Close(context.Background())
		return nil, err
	}
	return db, nil
}

// setUpSessions uses Redis when configured, process memory otherwise.
func setUpSessions(conf *core.Config) (core.SessionStore, error) {
	if conf.Redis.Addr == "" {
		return sessionsvc.NewMemoryStore(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.ConnectTimeout)
	defer cancel()
	return sessionsvc.OpenRedisStore(ctx, conf)
}
