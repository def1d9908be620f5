package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guardpost/guardpost/internal/auth"
	"github.com/guardpost/guardpost/internal/backend"
	"github.com/guardpost/guardpost/internal/chat"
	"github.com/guardpost/guardpost/internal/config"
	"github.com/guardpost/guardpost/internal/db"
	"github.com/guardpost/guardpost/internal/favorites"
	"github.com/guardpost/guardpost/internal/jobs"
	"github.com/guardpost/guardpost/internal/jobsearch"
	"github.com/guardpost/guardpost/internal/metrics"
	"github.com/guardpost/guardpost/internal/pages"
	"github.com/guardpost/guardpost/internal/profile"
	"github.com/guardpost/guardpost/internal/section"
	"github.com/guardpost/guardpost/internal/server"
	"github.com/guardpost/guardpost/internal/session"
	"github.com/guardpost/guardpost/internal/web"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the site server",
	Long:  `Starts the HTTP server for the marketplace site and its JSON API.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "port to listen on (overrides server.port)")
	serveCmd.Flags().Bool("watch", false, "reload pages when files in pages.content_dir change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		cfg.Pages.Watch = true
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	dbPath := filepath.Join(cfg.DataDir, "guardpost.db")
	database, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	store, closeStore, err := newSessionStore(cfg, database)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector("guardpost")
	mgr := session.NewManager(store, session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Session.Secure,
	}, logger.Named("session"))

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		AllowAll:       cfg.Server.AllowAll,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, mgr.Middleware, collector, logger.Named("http"))

	if err := registerAllRoutes(ctx, cfg, srv, mgr, database, collector, logger); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("guardpost starting",
		zap.String("version", Version),
		zap.Int("port", cfg.Server.Port),
		zap.String("database", dbPath),
		zap.String("session_store", string(cfg.Session.Store)),
		zap.String("backend", cfg.Backend.BaseURL),
	)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newSessionStore picks the configured session store. The returned func
// releases it.
func newSessionStore(cfg *config.Config, database *db.DB) (session.Store, func(), error) {
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Session.RedisAddr, err)
		}
		return session.NewRedisStore(client), func() { client.Close() }, nil
	default:
		return session.NewSQLStore(database), func() {}, nil
	}
}

// registerAllRoutes wires every feature package onto the server.
func registerAllRoutes(ctx context.Context, cfg *config.Config, srv *server.Server, mgr *session.Manager, database *db.DB, collector *metrics.Collector, logger *zap.Logger) error {
	r := srv.Site()

	rd, err := web.NewRenderer(siteName, cfg.Chat.Enabled, logger.Named("web"))
	if err != nil {
		return err
	}
	client := backend.New(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logger.Named("backend")),
	)

	// Static pages and pricing
	lib, err := pages.NewLibrary(pages.ContentFS(cfg.Pages.ContentDir), cfg.Pages.Include, logger.Named("pages"))
	if err != nil {
		return err
	}
	pages.NewHandler(lib, rd).RegisterRoutes(r)
	if cfg.Pages.Watch && cfg.Pages.ContentDir != "" {
		go func() {
			if err := pages.Watch(ctx, cfg.Pages.ContentDir, lib, logger.Named("pages")); err != nil {
				logger.Error("content watcher stopped", zap.Error(err))
			}
		}()
	}

	// Sign-in and session
	auth.NewHandler(client, rd, logger.Named("auth")).RegisterRoutes(r)

	// Profile sections; editors are dropped when their session ends
	editors := section.NewRegistry()
	mgr.OnClear(editors.DropSession)
	profile.NewHandler(client, editors, rd, logger.Named("profile")).RegisterRoutes(r, mgr.RequireToken)
	go sweepSessions(ctx, mgr, editors, cfg.Session.SweepInterval, cfg.Session.TTL, logger.Named("session"))

	// Jobs: local listings follow the browser when its session is renewed
	jobStore := jobs.NewStore(database)
	mgr.OnRenew(func(oldID, newID string) {
		if err := jobStore.Reassign(context.Background(), oldID, newID); err != nil {
			logger.Error("moving local jobs to renewed session", zap.Error(err))
		}
	})
	jobs.NewHandler(jobStore, client, rd, cfg.Jobs.PageSize, logger.Named("jobs")).RegisterRoutes(r, mgr.RequireToken)
	providers := jobsearch.ProvidersFromConfig(cfg.JobSearch, nil)
	jobsearch.NewService(cfg.JobSearch.PerPage, collector, logger.Named("jobsearch"), providers...).RegisterRoutes(r)

	// Favorites
	favorites.NewHandler(client, rd, logger.Named("favorites")).RegisterRoutes(r, mgr.RequireToken)

	// Chat widget
	if cfg.Chat.Enabled {
		rules := chat.DefaultRules()
		if data, ok := lib.Raw(pages.ChatFile); ok {
			if rules, err = chat.ParseRules(data); err != nil {
				return err
			}
		}
		svc := chat.NewService(chat.NewStore(database), chat.NewResponder(rules), collector, logger.Named("chat"))
		chat.NewHandler(svc, cfg.Server.AllowAll, logger.Named("chat")).RegisterRoutes(r)
	}

	return nil
}

// sweepSessions deletes expired sessions and evicts editors idle for longer
// than idle, every interval until ctx is done.
func sweepSessions(ctx context.Context, mgr *session.Manager, editors *section.Registry, every, idle time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired, err := mgr.Sweep(ctx)
			if err != nil {
				logger.Warn("sweeping sessions", zap.Error(err))
			}
			evicted := editors.EvictIdle(idle)
			if expired > 0 || evicted > 0 {
				logger.Debug("sessions swept", zap.Int("expired", expired), zap.Int("idle_editors", evicted))
			}
		}
	}
}
