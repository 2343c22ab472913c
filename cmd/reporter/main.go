// Command reporter runs the revenue pipeline once: pull orders, build
// canonical rows, write the report artifacts.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignite/revenue-reporter/internal/config"
	"github.com/ignite/revenue-reporter/internal/pkg/logger"
	"github.com/ignite/revenue-reporter/internal/repository/postgres"
	"github.com/ignite/revenue-reporter/internal/runner"
	"github.com/ignite/revenue-reporter/internal/shopify"
	"github.com/ignite/revenue-reporter/internal/storage"
)

func main() {
	var (
		configPath   = flag.String("config", "config/config.yaml", "path to config file")
		days         = flag.Int("days", 0, "lookback window in days (overrides config and checkpoint)")
		skipPull     = flag.Bool("skip-pull", false, "reuse raw_orders.json from a previous run")
		skipWorkbook = flag.Bool("skip-workbook", false, "skip rendering the .xlsx workbook")
	)
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := storage.New(cfg.Storage, cfg.Report.MinorDigits)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ctrl-C aborts the run cleanly mid-pull.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Warn("interrupt received, aborting run")
		cancel()
	}()

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

	res, err := run.Run(ctx, runner.Options{
		Days:         *days,
		SkipPull:     *skipPull,
		SkipWorkbook: *skipWorkbook,
	})
	if err != nil {
		log.Fatalf("Run failed: %v", err)
	}

	logger.Info("artifacts written",
		"output_dir", cfg.Storage.OutputDir,
		"rows", res.RowCount,
		"orders", res.TotalOrders,
		"discrepancies", len(res.Discrepancies))
}
