package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bugbridge/internal/bridge"
	"bugbridge/internal/env"
	"bugbridge/internal/handlers"
	"bugbridge/internal/logger"
	"bugbridge/internal/repository"
	"bugbridge/internal/server"
	"bugbridge/internal/service"

	"github.com/spf13/viper"
)

const defaultJanitorTick = 1 * time.Minute

func main() {
	// init logger
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	// pin the external environment before anything else; no fallback
	radarBridge, err := pinEnvironment(log)
	if err != nil {
		log.Fatalw("failed to pin external environment", "err", err)
	}

	// open DB
	db, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(db)
	services := service.NewService(repos, radarBridge, viper.GetString("auth.signing_key"))
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start janitor (via composed service)
	go services.Janitor.Run(ctx, defaultJanitorTick)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// pinEnvironment validates the configured interpreter installation and
// resolves the external packages in it. Both the array utility and the
// radar package must import cleanly before the server starts serving.
func pinEnvironment(log *logger.Logger) (*bridge.Runner, error) {
	environment := env.New(viper.GetString("env.root"), viper.GetString("env.interpreter"))
	if err := environment.Validate(); err != nil {
		return nil, err
	}
	log.Infow("pinned environment", "root", environment.Root(), "interpreter", environment.Interpreter())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	radarPkg := viper.GetString("env.package")
	if radarPkg == "" {
		radarPkg = "bugtracker"
	}
	// numpy backs the array-inspection snippet; the radar package backs
	// calibration and tracking.
	for _, name := range []string{"numpy", radarPkg} {
		if _, err := environment.Resolve(ctx, name); err != nil {
			return nil, err
		}
		log.Infow("resolved package", "name", name)
	}

	workdir := viper.GetString("bridge.workdir")
	if err := bridge.EnsureWorkdir(workdir); err != nil {
		log.Infow("working directory check failed; calibration/tracking will refuse to run", "err", err)
	}
	return bridge.NewRunner(environment, workdir), nil
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "app.db")
		dbPath = "app.db"
	}
	return repository.InitDB(dbPath)
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
