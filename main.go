package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chartcraft/internal"
	"chartcraft/internal/config"
	"chartcraft/internal/container"
	"chartcraft/internal/errors"
	"chartcraft/ui"
	"chartcraft/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase opens the postgres connection used for workspace sessions
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load application configuration
	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(internal.ParseLogLevel(appConfig.LogLevel)).Named("Main")

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appConfig.Database.Enabled() {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatal("Failed to initialize database:", err)
		}
		if err := appContainer.InitWithDatabase(ctx, db); err != nil {
			log.Fatalf("Failed to initialize container: %v", err)
		}
	} else {
		logger.Info("DATABASE_URL not set, keeping workspaces in memory")
		appContainer.InitInMemory()
	}

	if err := appContainer.InitServices(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := appContainer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown: %v", err)
		}
	}()

	appContainer.Warmup(ctx)

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("🚀 Performance profiling server starting on :%s", appConfig.Profiling.Port)
			log.Printf("💡 View profiles: go tool pprof -http=:8082 http://localhost:%s/debug/pprof/profile?seconds=30", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("❌ pprof server failed: %v", err)
			}
		}()
	}

	gin.SetMode(appConfig.Server.GinMode)
	server, err := ui.NewServer(ui.ServerDeps{
		Workspaces: appContainer.Workspaces,
		Renders:    appContainer.Renders,
		Session: middleware.SessionConfig{
			CookieName: appConfig.Session.CookieName,
			TTL:        appConfig.Session.TTL,
			Secure:     appConfig.Server.GinMode == gin.ReleaseMode,
		},
	})
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Starting ChartCraft server on port %s", appConfig.Server.Port)
		errCh <- server.Start(":" + appConfig.Server.Port)
	}()

	select {
	case err := <-errCh:
		logger.Error("server stopped: %v", err)
	case <-ctx.Done():
		logger.Info("🛑 Shutting down")
	}
}
