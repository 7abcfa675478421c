package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rentascout/rentascout-mvp/engine/search"
	"github.com/rentascout/rentascout-mvp/engine/semantic"
	"github.com/rentascout/rentascout-mvp/pkg/mid"
)

func newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the search API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			return runServe(cfg, slog.Default())
		},
	}

	cmd.Flags().StringVarP(&listen, "listen", "l", ":8080", "address for the API server to listen on")
	return cmd
}

func runServe(cfg Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vs, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		return err
	}
	defer vs.Close()
	if err := vs.EnsureCollection(ctx, cfg.Qdrant.Dims); err != nil {
		return err
	}
	log.Info("connected to Qdrant", "collection", cfg.Qdrant.Collection)

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}

	svc := search.New(embedder, vs, search.DefaultOptions(), log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("POST /v1/search", handleSearch(svc, log))
	mux.HandleFunc("POST /v1/tool/search_vehicles", handleToolSearch(svc, log))
	mux.Handle("GET /metrics", met.Handler())

	handler := mid.Chain(mux,
		mid.Recover(log),
		mid.Logger(log),
		mid.OTel("rentascout-api"),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
