// jobmate-brain-service
//
// Personal job-application tracker with a pattern-matching chat lookup.
// Exposes:
//   - a REST API for uploads, logging applications, history and chat
//   - a gRPC ChatService carrying the same chat exchange
//   - an optional Telegram bot front-end
//
// Publishes EVENT_APPLICATION_LOGGED after each logged application.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"jobmate/brain-service/internal/chat"
	"jobmate/brain-service/internal/config"
	"jobmate/brain-service/internal/conversation"
	"jobmate/brain-service/internal/db"
	"jobmate/brain-service/internal/documents"
	"jobmate/brain-service/internal/events"
	"jobmate/brain-service/internal/extract"
	"jobmate/brain-service/internal/filestore"
	"jobmate/brain-service/internal/grpcserver"
	"jobmate/brain-service/internal/httpapi"
	"jobmate/brain-service/internal/logger"
	"jobmate/brain-service/internal/records"
	"jobmate/brain-service/internal/telegram"
)

const version = "1.0.0"

func main() {
	configPath := pflag.StringP("config", "c", config.DefaultPath, "path to the YAML config file")
	pflag.Parse()

	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[brain-service] Config error: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Logger)
	log := logger.With("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Redis ────────────────────────────────────────────────────────────────
	var rdb *redis.Client
	if cfg.Redis.URL != "" && (cfg.Session.Backend == "redis" || cfg.Events.Backend == "redis") {
		log.Info().Msg("connecting to Redis")
		rdb, err = db.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		defer rdb.Close()
		log.Info().Msg("redis connected")
	}

	// ── Record store ─────────────────────────────────────────────────────────
	var store records.Store
	switch cfg.Store.Backend {
	case "postgres":
		log.Info().Msg("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, cfg.Store.DatabaseURL, db.PoolOptions{
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			MaxConnLifetime: cfg.Store.MaxConnLifetime,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		if err := db.EnsureSchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("schema")
		}
		store = records.NewPostgresStore(pool)
		log.Info().Msg("postgres connected, schema ready")
	default:
		log.Warn().Msg("using in-memory record store; data is lost on exit")
		store = records.NewMemoryStore()
	}

	// ── Sessions ─────────────────────────────────────────────────────────────
	var sessions conversation.Store
	switch cfg.Session.Backend {
	case "redis":
		sessions = conversation.NewRedisStore(rdb, cfg.Session.TTL)
	default:
		mem := conversation.NewMemoryStore()
		sweeper := conversation.NewSweeper(mem, cfg.Session.SweepInterval, cfg.Session.TTL)
		if err := sweeper.Start(); err != nil {
			log.Fatal().Err(err).Msg("session sweeper")
		}
		defer sweeper.Stop()
		sessions = mem
	}

	// ── File storage ─────────────────────────────────────────────────────────
	files, err := newFileStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("file storage")
	}

	// ── Events ───────────────────────────────────────────────────────────────
	var pub events.Publisher = events.Nop{}
	switch cfg.Events.Backend {
	case "redis":
		pub = events.NewRedisPublisher(rdb)
	case "amqp":
		ap, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			log.Fatal().Err(err).Msg("amqp")
		}
		defer ap.Close()
		pub = ap
	}

	// ── Services ─────────────────────────────────────────────────────────────
	extractor, err := extract.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("text extractor")
	}
	docs := documents.NewService(store, files, extractor, cfg.Upload.Keywords)
	chatSvc := chat.NewService(store, sessions)

	// ── HTTP server ──────────────────────────────────────────────────────────
	gin.SetMode(gin.ReleaseMode)
	h := httpapi.NewHandler(httpapi.Deps{
		Version:   version,
		Records:   store,
		Documents: docs,
		Chat:      chatSvc,
		Events:    pub,
		MaxUpload: cfg.Upload.MaxBytes,
	})
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HTTPPort),
		Handler:      httpapi.NewRouter(h, cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info().Str("version", version).Str("addr", srv.Addr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// ── gRPC server ──────────────────────────────────────────────────────────
	var grpcSrv *grpc.Server
	if cfg.Server.GRPCPort != "" {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.Server.GRPCPort))
		if err != nil {
			log.Fatal().Err(err).Msg("gRPC listen")
		}
		grpcSrv = grpc.NewServer()
		grpcserver.Register(grpcSrv, grpcserver.NewServer(chatSvc))
		go func() {
			log.Info().Str("addr", lis.Addr().String()).Msg("gRPC listening")
			if err := grpcSrv.Serve(lis); err != nil {
				log.Error().Err(err).Msg("gRPC server error")
			}
		}()
	}

	// ── Telegram ─────────────────────────────────────────────────────────────
	if cfg.Telegram.Enabled {
		bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID, chatSvc, docs)
		if err != nil {
			log.Error().Err(err).Msg("telegram disabled")
		} else {
			go bot.Run(ctx)
		}
	}

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown error")
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	log.Info().Msg("stopped")
}

func newFileStore(ctx context.Context, cfg config.StorageConfig) (filestore.Store, error) {
	switch cfg.Backend {
	case "minio":
		m := cfg.MinIO
		return filestore.NewMinIO(ctx, filestore.MinIOConfig{
			Endpoint:        m.Endpoint,
			AccessKeyID:     m.AccessKeyID,
			SecretAccessKey: m.SecretAccessKey,
			UseSSL:          m.UseSSL,
			Bucket:          m.Bucket,
			Location:        m.Location,
		})
	case "s3":
		s := cfg.S3
		return filestore.NewS3(filestore.S3Config{
			Region:          s.Region,
			Bucket:          s.Bucket,
			AccessKeyID:     s.AccessKeyID,
			SecretAccessKey: s.SecretAccessKey,
		})
	default:
		return filestore.NewLocal(cfg.UploadDir)
	}
}
