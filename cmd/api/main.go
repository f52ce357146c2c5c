package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusevents/config"
	_ "campusevents/docs"
	"campusevents/internal/adapters/auth"
	"campusevents/internal/adapters/blob"
	"campusevents/internal/adapters/email"
	httpdelivery "campusevents/internal/delivery/http"
	"campusevents/internal/delivery/http/controllers"
	"campusevents/internal/delivery/http/middleware"
	"campusevents/internal/domain"
	"campusevents/internal/repository/mongodb"
	"campusevents/internal/repository/postgres"
	"campusevents/internal/repository/rediscache"
	"campusevents/internal/services"
)

const shutdownTimeout = 10 * time.Second

// @title           Campus Events API
// @version         1.0
// @description     Event feed, engagement and profile endpoints.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// stores bundles the repositories selected by STORE_DRIVER and how to release them.
type stores struct {
	events domain.EventRepository
	users  domain.UserRepository
	close  func(context.Context) error
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		if cfg.MigrationsEnabled {
			if err := postgres.RunMigrations(cfg.DBUrl, logger); err != nil {
				return nil, err
			}
		}
		db, err := postgres.Open(ctx, cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		logger.Info("using postgres store")
		return &stores{
			events: postgres.NewEventRepository(db),
			users:  postgres.NewUserRepository(db),
			close:  func(context.Context) error { return closeDB(db) },
		}, nil
	default:
		client, err := mongodb.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		logger.Info("using mongo store", "database", cfg.MongoDatabase)
		return &stores{
			events: mongodb.NewEventRepository(db),
			users:  mongodb.NewUserRepository(db),
			close:  client.Disconnect,
		}, nil
	}
}

func closeDB(db *sql.DB) error {
	if err := db.Close(); err != nil {
		return fmt.Errorf("close postgres: %w", err)
	}
	return nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	st, err := openStores(startCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
	}()

	var feedCache domain.FeedCache
	if cfg.RedisURL != "" {
		rdb, err := rediscache.Connect(startCtx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		feedCache = rediscache.NewFeedCache(rdb, cfg.FeedCacheTTL)
		logger.Info("feed cache enabled", "ttl", cfg.FeedCacheTTL)
	}

	blobs, err := blob.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("failed to prepare upload dir: %w", err)
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:             cfg.AWSRegion,
			AccessKeyID:        cfg.AWSAccessKeyID,
			SecretAccessKey:    cfg.AWSSecretAccessKey,
			InsecureSkipVerify: cfg.SESInsecureSkipVerify,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())

	feedService := services.NewFeedService(st.events, st.users, feedCache, logger, cfg.FeedPageSize, cfg.StoreTimeout)
	engagementService := services.NewEngagementService(st.events, feedCache, logger, cfg.StoreTimeout)
	profileService := services.NewProfileService(
		st.users,
		blobs,
		emailService,
		domain.ProfilePolicy{EmailEditable: cfg.ProfileEmailEditable},
		cfg.SuggestionsLimit,
		logger,
		cfg.StoreTimeout,
	)

	router := httpdelivery.NewRouter(
		controllers.NewEventController(logger, feedService),
		controllers.NewStatController(logger, engagementService),
		controllers.NewUserController(logger, profileService),
		auth.NewJWTVerifier(cfg.JWTSecret),
		middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 10*time.Minute),
		logger,
	)
	handler := middleware.CORS(cfg.CORSAllowedOrigins, middleware.LoggingMiddleware(logger, router))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
