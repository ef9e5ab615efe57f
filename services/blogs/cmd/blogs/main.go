package main

import (
	"context"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/example/wiki-platform/internal/platform/auth"
	"github.com/example/wiki-platform/internal/platform/cache"
	"github.com/example/wiki-platform/internal/platform/config"
	"github.com/example/wiki-platform/internal/platform/db"
	"github.com/example/wiki-platform/internal/platform/httpserver"
	"github.com/example/wiki-platform/internal/platform/logging"
	"github.com/example/wiki-platform/internal/platform/natsconn"
	"github.com/example/wiki-platform/internal/platform/run"
	"github.com/example/wiki-platform/services/blogs/internal/blog"
	"github.com/example/wiki-platform/services/blogs/internal/handlers"
	"github.com/example/wiki-platform/services/blogs/internal/notify"
	"github.com/example/wiki-platform/services/blogs/internal/store"
	"github.com/example/wiki-platform/services/blogs/internal/wiki"
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		os.Setenv("SERVICE_NAME", "blogs")
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	pool := initPool(cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	var (
		blogStore store.BlogStore
		directory interface {
			wiki.PageResolver
			wiki.Identity
			wiki.CategoryIndex
		}
	)
	if pool != nil {
		blogStore = store.NewPostgresBlogStore(pool)
		directory = wiki.NewPostgresDirectory(pool)
		log.Info("blog store: postgres")
	} else {
		blogStore = store.NewMemoryBlogStore()
		directory = wiki.NewDirectory()
		log.Warn("blog store: in-memory (development only)")
	}

	notifier := initNotifier(cfg, log)

	svc := blog.NewService(blog.Deps{
		Store:      blogStore,
		Pages:      directory,
		Users:      directory,
		Categories: directory,
		Notifier:   notifier,
		Log:        log,
		Limits: blog.Limits{
			DefaultLimit: cfg.Listing.DefaultLimit,
			MaxLimit:     cfg.Listing.MaxLimit,
		},
	})

	listCache := initCache(cfg, log)
	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc: func() error {
			if pool == nil {
				return nil
			}
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		},
	})

	// Public reads.
	r.Get("/v1/posts", handlers.RecentPosts(svc, listCache))
	r.Get("/v1/users/{name}/posts", handlers.UserPosts(svc))
	r.Get("/v1/categories/{name}/posts", handlers.CategoryPosts(svc))
	r.Get("/v1/posts/{page_id}/comments", handlers.ListComments(svc))

	// Writes need a logged-in wiki user.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))
		r.Post("/v1/posts", handlers.RegisterPost(svc, listCache))
		r.Post("/v1/posts/{page_id}/comments", handlers.CreateComment(svc))
		r.Put("/v1/comments/{comment_id}", handlers.UpdateComment(svc))
		r.Delete("/v1/comments/{comment_id}", handlers.DeleteComment(svc))
		r.Put("/v1/comments/{comment_id}/like", handlers.LikeComment(svc))
		r.Put("/v1/comments/{comment_id}/favorite", handlers.FavoriteComment(svc))
	})

	srv := httpserver.New(httpserver.Options{
		Addr:        cfg.HTTP.Addr,
		ServiceName: cfg.ServiceName,
		Logger:      log,
		Router:      r,
	})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initPool opens Postgres. Production refuses to start without it;
// development falls back to in-memory stores.
func initPool(cfg config.AppConfig, log *zap.Logger) *pgxpool.Pool {
	if cfg.DatabaseURL == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("DATABASE_URL not set")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory stores", zap.Error(err))
		return nil
	}
	return pool
}

// initNotifier prefers JetStream; without NATS notifications only hit
// the log.
func initNotifier(cfg config.AppConfig, log *zap.Logger) blog.Notifier {
	if cfg.NATSURL == "" {
		log.Warn("NATS_URL not set, notifications go to the log only")
		return notify.New(notify.LogSink{Log: log}, log)
	}

	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.ServiceName})
	if err != nil {
		if cfg.IsProduction() {
			log.Error("nats is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("nats unavailable, notifications go to the log only", zap.Error(err))
		return notify.New(notify.LogSink{Log: log}, log)
	}

	sink, err := notify.NewNATSSink(nc, log)
	if err != nil {
		nc.Close()
		if cfg.IsProduction() {
			log.Error("jetstream setup failed", zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("jetstream setup failed, notifications go to the log only", zap.Error(err))
		return notify.New(notify.LogSink{Log: log}, log)
	}
	return notify.New(sink, log)
}

// initCache is best-effort: a nil cache is a permanent miss.
func initCache(cfg config.AppConfig, log *zap.Logger) *cache.Cache {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, listing cache disabled")
		return nil
	}
	c, err := cache.New(cfg.RedisURL, 30*time.Second)
	if err != nil {
		log.Warn("redis url invalid, listing cache disabled", zap.Error(err))
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		log.Warn("redis unavailable, listing cache disabled", zap.Error(err))
		return nil
	}
	log.Info("listing cache: redis")
	return c
}
