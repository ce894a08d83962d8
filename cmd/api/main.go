package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	mongoadapter "github.com/robertarktes/college-event-tickets/internal/adapters/mongo"
	"github.com/robertarktes/college-event-tickets/internal/adapters/postgres"
	redisadapter "github.com/robertarktes/college-event-tickets/internal/adapters/redis"
	"github.com/robertarktes/college-event-tickets/internal/approval"
	"github.com/robertarktes/college-event-tickets/internal/auth"
	"github.com/robertarktes/college-event-tickets/internal/catalog"
	"github.com/robertarktes/college-event-tickets/internal/config"
	httphandler "github.com/robertarktes/college-event-tickets/internal/http"
	"github.com/robertarktes/college-event-tickets/internal/idempotency"
	"github.com/robertarktes/college-event-tickets/internal/inventory"
	"github.com/robertarktes/college-event-tickets/internal/observability"
	"github.com/robertarktes/college-event-tickets/internal/rateLimit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger(cfg.LogLevel)

	pool, err := pgxpool.New(context.Background(), cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := postgres.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}
	repo := postgres.NewRepository(pool)

	var audit *mongoadapter.AuditLogger
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatalf("failed to connect to mongo: %v", err)
		}
		defer mongoClient.Disconnect(context.Background())
		audit = mongoadapter.NewAuditLogger(mongoClient.Database("cet"), logger)
	}

	var rl *rateLimit.RateLimiter
	var idemp *idempotency.Idempotency
	if cfg.RedisAddr != "" {
		redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
		rl = rateLimit.NewRateLimiter(redisClient)
		idemp = idempotency.NewIdempotency(redisadapter.NewIdempotencyStore(redisClient), cfg.IdempotencyTTL)
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret)
	authSvc := auth.NewService(repo, tokens, cfg.StorageTimeout)
	catalogSvc := catalog.NewService(repo, cfg.StorageTimeout)

	var auditor approval.Auditor
	if audit != nil {
		auditor = audit
	}
	approvalSvc := approval.NewService(repo, auditor, logger, cfg.StorageTimeout)

	var ledgerAudit inventory.Auditor
	if audit != nil {
		ledgerAudit = audit
	}
	ledger := inventory.NewLedger(repo, ledgerAudit, logger, cfg.StorageTimeout)

	handlers := httphandler.NewHandlers(logger, authSvc, approvalSvc, ledger, catalogSvc, idemp)
	r := httphandler.SetupRouter(handlers, logger, tokens, rl)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}
