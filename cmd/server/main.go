// Command server exposes the reporting pipeline over HTTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/revenue-reporter/internal/api"
	"github.com/ignite/revenue-reporter/internal/config"
	"github.com/ignite/revenue-reporter/internal/repository/postgres"
	"github.com/ignite/revenue-reporter/internal/runner"
	"github.com/ignite/revenue-reporter/internal/shopify"
	"github.com/ignite/revenue-reporter/internal/storage"
)

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.Storage, cfg.Report.MinorDigits)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	ctx := context.Background()
	if cfg.Storage.S3Bucket != "" {
		aws, err := storage.NewAWSStorage(ctx, cfg.Storage.S3Bucket,
			cfg.Storage.S3Prefix, cfg.Storage.S3Region, cfg.Storage.AWSProfile)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
		store.SetAWS(aws)
	}

	client := shopify.NewClient(shopify.Config{
		StoreDomain: cfg.Shopify.StoreDomain,
		AccessToken: cfg.Shopify.AccessToken,
		APIVersion:  cfg.Shopify.APIVersion,
		Timeout:     cfg.Shopify.Timeout(),
		MaxRetries:  cfg.Shopify.MaxRetries,
	})

	run := runner.New(cfg, client, store)

	if cfg.Database.Enabled {
		db, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		repo := postgres.NewReportRepo(db)
		if err := repo.InitSchema(ctx); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		run.SetRepo(repo)
	}

	if cfg.Redis.Enabled {
		cp := shopify.NewCheckpoint(cfg.Redis.Addr, cfg.Redis.DB, cfg.Shopify.StoreDomain)
		defer cp.Close()
		run.SetCheckpoint(cp)
	}

	server := api.NewServer(cfg.Server, run)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
