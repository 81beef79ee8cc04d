package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codecollab/codecollab/internal/api"
	"github.com/codecollab/codecollab/internal/config"
	"github.com/codecollab/codecollab/internal/database"
	"github.com/codecollab/codecollab/internal/judge"
	"github.com/codecollab/codecollab/internal/server"
	"github.com/codecollab/codecollab/internal/stats"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	logger := log.New(os.Stderr, "[codecollab] ", log.LstdFlags)

	// .env is optional, the environment itself takes precedence
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Println("load .env:", err)
	}

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatal("config: ", err)
	}

	dbConn, err := database.NewPgCollabRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open: ", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close: ", err)
		}
	}()

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux)

	collabServer, err := server.NewCollabServer(logger, statsUpdater)
	if err != nil {
		logger.Fatal("new collab server: ", err)
	}

	runner := judge.NewClient(cfg.JudgeURL, cfg.JudgeAPIKey, cfg.JudgeTimeout, logger)

	srv := api.NewCollabApp(mux, logger, collabServer, dbConn, runner, cfg)

	statsUpdater.Run()
	defer statsUpdater.Stop()

	go collabServer.Run()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutting down relay...")
	if err := collabServer.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("relay shutdown:", err)
	}

	logger.Println("shutdown complete")
}
