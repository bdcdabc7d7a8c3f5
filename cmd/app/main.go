package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/sakinadamha/buildpk/pkg/charging"
	"github.com/sakinadamha/buildpk/pkg/handlers"
	"github.com/sakinadamha/buildpk/pkg/ledger"
	"github.com/sakinadamha/buildpk/pkg/market/plots"
	"github.com/sakinadamha/buildpk/pkg/market/points"
	"github.com/sakinadamha/buildpk/pkg/notify"
	"github.com/sakinadamha/buildpk/pkg/registry"
	"github.com/sakinadamha/buildpk/pkg/substrate"
	"github.com/sakinadamha/buildpk/pkg/substrate/dynamo"
	"github.com/sakinadamha/buildpk/pkg/verify"
)

// newStore picks the storage backend from the environment. Priority:
// DynamoDB, SQLite, flat files, in-memory.
func newStore(ctx context.Context, logger *slog.Logger) substrate.Store {
	if table := os.Getenv("DYNAMODB_TABLE_NAME"); table != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("unable to load SDK config, %v", err)
		}
		logger.Info("using DynamoDB storage", "table", table)
		return dynamo.New(dynamodb.NewFromConfig(cfg), table)
	}
	if path := os.Getenv("BUILDPK_DB"); path != "" {
		store, err := substrate.OpenSQLite(path)
		if err != nil {
			log.Fatalf("unable to open sqlite store: %v", err)
		}
		logger.Info("using SQLite storage", "path", path)
		return store
	}
	if dir := os.Getenv("BUILDPK_DATA_DIR"); dir != "" {
		logger.Info("using file storage", "dir", dir)
		return substrate.NewFile(dir)
	}
	logger.Warn("no storage configured, falling back to in-memory (state is lost on restart)")
	return substrate.NewMemory()
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	store := newStore(ctx, logger)

	var publisher notify.Publisher = notify.NoOpPublisher{}
	if queueURL := os.Getenv("SQS_QUEUE_URL"); queueURL != "" {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			log.Fatalf("unable to load SDK config, %v", err)
		}
		publisher = notify.NewSQSPublisher(sqs.NewFromConfig(cfg), queueURL)
		logger.Info("notifications mirrored to SQS", "queue", queueURL)
	}

	notifier := notify.New(store, publisher)
	lg := ledger.New(store)
	reg := registry.New(store, lg, notifier)
	ver := verify.New(store, reg, notifier)
	plotMarket := plots.New(store, lg, notifier)
	pointsMarket := points.New(store, lg, notifier)
	chargingSvc := charging.New(store, reg, plotMarket, pointsMarket, lg, notifier)

	plotMarket.Seed(ctx)

	router := handlers.NewRouter(logger, handlers.Services{
		Ledger:   lg,
		Registry: reg,
		Verify:   ver,
		Plots:    plotMarket,
		Points:   pointsMarket,
		Charging: chargingSvc,
		Notify:   notifier,
	})

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info("starting server", "port", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
