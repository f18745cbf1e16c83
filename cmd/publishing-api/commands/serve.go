package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/techpress/publishing-api/internal/api"
	"github.com/techpress/publishing-api/internal/api/handler"
	"github.com/techpress/publishing-api/internal/core/service"
	mongostore "github.com/techpress/publishing-api/internal/infrastructure/db/mongo"
	redisstore "github.com/techpress/publishing-api/internal/infrastructure/db/redis"
	"github.com/techpress/publishing-api/internal/infrastructure/queue"
)

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Connect to MongoDB and Redis, ensure indexes, start the audit workers and
serve the API until SIGINT or SIGTERM. In-flight requests and queued audit
entries are drained before exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func runServe(cmd *cobra.Command) error {
	cfg, log, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// --- Storage ---
	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	users := mongostore.NewUserRepository(db)
	articles := mongostore.NewArticleRepository(db)
	likes := mongostore.NewLikeRepository(db)
	reviews := mongostore.NewReviewRepository(db)
	analytics := mongostore.NewAnalyticsRepository(db)
	audits := mongostore.NewAuditRepository(db)

	// --- Audit pipeline ---
	dispatcher := queue.NewDispatcher(queue.Config{
		Workers:      cfg.Audit.Workers,
		Buffer:       cfg.Audit.Buffer,
		WriteTimeout: cfg.Audit.WriteTimeout,
	}, audits, log)
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher.Start(dispatchCtx)

	// --- Services ---
	articleSvc := service.NewArticleService(articles, users, likes, reviews, analytics, log)
	e := api.NewRouter(api.Deps{
		Auth:     service.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL),
		Articles: articleSvc,
		Engagement: service.NewEngagementService(articles, users, likes, reviews,
			redisstore.NewLikeGuard(rdb, cfg.Likes.GuardWindow), log),
		Admin: service.NewAdminService(users, articles, likes, reviews, analytics, audits, articleSvc, log),
		Audit: service.NewAuditRecorder(dispatcher, log),
		Checks: []handler.DependencyCheck{
			{Name: "mongodb", Check: func(ctx context.Context) error { return mongostore.Ping(ctx, client) }},
			{Name: "redis", Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
		},
		JWTSecret:         cfg.JWTSecret,
		Users:             users,
		ExposeErrorDetail: !cfg.IsProduction(),
		Logger:            log,
	})

	// --- Serve ---
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("http server listening")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
			stopDispatch()
			dispatcher.Wait()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	stopDispatch()
	dispatcher.Wait()
	log.Info().Msg("shutdown complete")
	return nil
}
