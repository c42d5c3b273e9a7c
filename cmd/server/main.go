package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"art-market/config"
	"art-market/internal/api"
	"art-market/internal/blob"
	"art-market/internal/broker"
	"art-market/internal/gateway"
	"art-market/internal/redisclient"
	"art-market/internal/service"
	"art-market/internal/store"
	"art-market/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env, cfg.Observ.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting art market")

	shutdownTracer, err := util.InitTracer(util.TracingOptions{
		Service:        "art-market",
		Env:            cfg.Server.Env,
		JaegerEndpoint: cfg.Observ.JaegerEndpoint,
		SampleRatio:    cfg.Observ.TraceSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	backend, closeBackend, err := openLedgerBackend(cfg.Ledger)
	if err != nil {
		log.Fatalf("Failed to open ledger: %v", err)
	}
	defer closeBackend()
	ledger := store.NewLedger(backend)
	log.Printf("Ledger opened: backend=%s", cfg.Ledger.Backend)

	blobs, err := openBlobStore(cfg.Blob)
	if err != nil {
		log.Fatalf("Failed to open blob store: %v", err)
	}
	log.Printf("Blob store opened: backend=%s", cfg.Blob.Backend)

	var writer broker.EventWriter
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		writer = producer
		log.Println("Kafka producer initialized")
	}
	eventPublisher := broker.NewEventPublisher(writer)

	piClient := gateway.NewPiClient(cfg.Payments.PiAPIKey, cfg.Payments.PiAPIURL, cfg.Payments.HTTPTimeout)
	if piClient.Simulated() {
		log.Println("PI_API_KEY not set, payments run in simulated mode")
	}

	marketplace := service.NewMarketplaceService(ledger, blobs, eventPublisher)
	reconciler := service.NewReconciler(ledger, piClient, eventPublisher)

	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		reconciler.WithDeliveryDedup(redisClient, cfg.Redis.DedupTTL)
		log.Println("Redis connected, webhook delivery dedup enabled")
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(cors.New(corsConfig(cfg.Server.CORSOrigin)))

	handler := api.NewHandler(ledger, marketplace, reconciler).WithMaxBodyBytes(cfg.Server.MaxBodyBytes)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func openLedgerBackend(cfg config.LedgerConfig) (store.Backend, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case "memory":
		return store.NewMemoryBackend(), noop, nil
	case "file":
		b, err := store.NewFileBackend(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return b, noop, nil
	case "postgres":
		b, err := store.NewPostgresBackend(cfg.DatabaseURL, cfg.DocumentName)
		if err != nil {
			return nil, noop, err
		}
		return b, func() { _ = b.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

func openBlobStore(cfg config.BlobConfig) (blob.Store, error) {
	switch cfg.Backend {
	case "disk":
		return blob.NewDiskStore(cfg.Dir)
	case "s3":
		return blob.NewS3Store(context.Background(), blob.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

func corsConfig(origin string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if origin == "" || origin == "*" {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = []string{origin}
	c.AllowCredentials = true
	return c
}
