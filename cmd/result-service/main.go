package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/parikshasetu/exam-platform/internal/app"
	"github.com/parikshasetu/exam-platform/pkg/database"
)

// @title Pariksha Result Service
// @version 1.0.0
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, database.ServiceResult); err != nil {
		log.Printf("result-service: %v", err)
		stop()
		os.Exit(1)
	}
}
