package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"moodchat/internal/api"
	"moodchat/internal/config"
	"moodchat/internal/redis"
	"moodchat/internal/service/ai"
	"moodchat/internal/service/bot"
	"moodchat/internal/storage"
	"moodchat/internal/widget"
	"moodchat/internal/worker"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat backend (POST /get) and the web widget page",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(nil)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.BasicConfig.ServerAddress = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address override")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	responder, closeResponder, err := buildResponder(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeResponder()

	b := cfg.BasicConfig
	dispatcher := worker.NewDispatcher(worker.Config{
		MinWorkers:  b.MinWorkers,
		MaxWorkers:  b.MaxWorkers,
		QueueSize:   b.QueueSize,
		IdleTimeout: time.Duration(b.WorkerIdleTimeout) * time.Second,
	}, responder.Reply)
	defer dispatcher.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.NewHandler(dispatcher).RegisterRoutes(router)

	srv := &http.Server{
		Addr:              b.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", b.ServerAddress).Str("responder", b.Responder).Str("memory", b.MemoryBackend).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildResponder wires the configured responder and its name memory. The
// returned func releases whatever connections were opened.
func buildResponder(ctx context.Context, cfg *config.Config) (widget.Responder, func(), error) {
	b := cfg.BasicConfig
	if b.Responder == config.ResponderLLM {
		r, err := ai.NewResponder(ctx, b.Provider, cfg.Providers[b.Provider], ai.Options{
			Model:     b.Model,
			WebSearch: b.WebSearch,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, func() {}, nil
	}

	names, closeNames, err := buildNameStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return bot.NewRules(names), closeNames, nil
}

func buildNameStore(ctx context.Context, cfg *config.Config) (bot.NameStore, func(), error) {
	backend := cfg.BasicConfig.MemoryBackend
	switch strings.ToLower(backend) {
	case config.MemoryRedis:
		client, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("create redis client: %w", err)
		}
		return redis.NewNameStore(client, ""), func() { client.Close() }, nil
	case "sqlite", "sqlite3", "mysql":
		db, err := storage.Open(backend, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := storage.Migrate(db, backend); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate database: %w", err)
		}
		return storage.NewNameStore(db, backend), func() { db.Close() }, nil
	default:
		return bot.NewMemoryStore(), func() {}, nil
	}
}
