package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/gamerec-backend/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start()
	application.Log.Info("Recommender worker running",
		"metrics_addr", application.Cfg.MetricsAddr,
		"graph_enabled", application.Services.Orchestrator.Enabled(),
		"daily_limit", application.Cfg.DailySeen.Limit,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	application.Log.Info("Shutting down", "signal", s.String())
}
