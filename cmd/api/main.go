package main

import (
	"context"
	"log"

	"chartcraft/internal/config"
	"chartcraft/internal/container"
	"chartcraft/ui"

	"github.com/joho/godotenv"
)

// The JSON API is stateless, so it runs without a session store.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appContainer, err := container.New(appConfig)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	appContainer.InitInMemory()

	ctx := context.Background()
	if err := appContainer.InitServices(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer appContainer.Shutdown(ctx)

	app := ui.NewApp(appContainer.Renders)
	log.Fatal(app.Start(ui.Config{Port: appConfig.Server.APIPort}))
}
