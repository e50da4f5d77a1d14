package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/devrelay"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/config"
)

// devrelay is a local stand-in for the hosted realtime channel. It speaks
// the same frame protocol the client subscribes with, so the sync engine
// can be exercised end to end without the hosted provider.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	manager := devrelay.NewManager()
	manager.Start(ctx)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	handler := devrelay.NewHandler(manager)
	devrelay.SetupRouter(e, handler)

	log.Printf("Starting relay on port %s...", cfg.RelayPort)
	if err := e.Start(":" + cfg.RelayPort); err != nil {
		log.Fatalf("Relay stopped: %v", err)
	}
}
