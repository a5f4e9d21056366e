package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"mindcanvas/internal/auth"
	"mindcanvas/internal/config"
	"mindcanvas/internal/events"
	"mindcanvas/internal/export"
	"mindcanvas/internal/logger"
	"mindcanvas/internal/search"
	"mindcanvas/internal/server"
	"mindcanvas/internal/session"
	"mindcanvas/internal/store"
	"mindcanvas/internal/templates"
)

var log = logger.New("mindcanvasd")

// loadConfig reads the environment and applies flag overrides.
func loadConfig(addr, dsn string) config.Config {
	cfg := config.Load()
	if addr != "" {
		cfg.Addr = addr
	}
	if dsn != "" {
		cfg.DatabaseURL = dsn
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	return cfg
}

func newServeCommand() *cobra.Command {
	var addr string
	var dsn string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  `Starts the HTTP API. Settings come from the environment; flags override the address and database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(loadConfig(addr, dsn))
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (overrides MINDCANVAS_ADDR)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "SQLite path or Postgres DSN (overrides DATABASE_URL)")

	return cmd
}

func newMigrateCommand() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		Long:  `Migrates the schema and, when MEILI_URL is set, pushes every stored map to the search index.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig("", dsn)
			st, err := store.Open(cfg.DatabaseURL, cfg.IsPostgres())
			if err != nil {
				return err
			}
			defer st.Close()
			log.Info("schema is up to date", map[string]interface{}{"postgres": cfg.IsPostgres()})

			if cfg.MeiliURL == "" {
				return nil
			}
			meili := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
			defer meili.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), reindexTimeout)
			defer cancel()
			reindex(ctx, st, search.NewService(meili))
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "SQLite path or Postgres DSN (overrides DATABASE_URL)")

	return cmd
}

func runServe(cfg config.Config) error {
	st, err := store.Open(cfg.DatabaseURL, cfg.IsPostgres())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	var sessions session.Store = session.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Warn("redis unavailable, keeping revoked tokens in memory", map[string]interface{}{"error": err})
		} else {
			sessions = redisStore
		}
	}
	defer sessions.Close()

	var index search.Index
	if cfg.MeiliURL != "" {
		meili := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meili.Close()
		index = meili
	}
	searchService := search.NewService(index)

	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		nc, err := events.NewNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			log.Warn("nats unavailable, change events are disabled", map[string]interface{}{"error": err})
		} else {
			publisher = nc
		}
	}
	defer publisher.Close()

	defer startReindex(st, searchService)()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(server.Deps{
		Store:      st,
		Issuer:     auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Sessions:   sessions,
		Search:     searchService,
		Exporter:   export.NewService(cfg.ChromePath),
		Templates:  templates.Builtin(),
		Events:     publisher,
		CORSOrigin: cfg.CORSOrigin,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", map[string]interface{}{"addr": cfg.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", map[string]interface{}{"signal": sig.String()})
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

const reindexTimeout = time.Minute

// startReindex runs reindex in the background. The returned stop cancels it
// and waits, so the store can be closed afterwards.
func startReindex(st *store.Store, svc *search.Service) (stop func()) {
	ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
	done := make(chan struct{})
	go func() {
		defer close(done)
		reindex(ctx, st, svc)
	}()
	return func() {
		cancel()
		<-done
	}
}

// reindex pushes every stored map to the search index and reports how many
// it sent.
func reindex(ctx context.Context, st *store.Store, svc *search.Service) int {
	maps, err := st.AllMindMaps(ctx)
	if err != nil {
		log.Warn("load mind maps for reindex", map[string]interface{}{"error": err})
		return 0
	}
	svc.Reindex(maps)
	log.Debug("reindexed", map[string]interface{}{"count": len(maps)})
	return len(maps)
}
