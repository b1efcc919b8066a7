package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/docextract/docextract"
	"github.com/hazyhaar/docextract/probecache"
	"github.com/hazyhaar/docextract/shield"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the extraction tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd, mcpCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if listenAddr != "" {
		fileCfg.Listen = listenAddr
	}
	ex := newExtractor()

	var opts []docextract.HTTPOption
	if fileCfg.ProbeCache.Enabled {
		cache, err := probecache.Open(fileCfg.ProbeCache.DBPath, fileCfg.ProbeCache.MaxEntries)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts = append(opts, docextract.WithProbeCache(cache))
		logger.Info("probe cache enabled", "path", fileCfg.ProbeCache.DBPath, "max_entries", fileCfg.ProbeCache.MaxEntries)
	}

	r := chi.NewRouter()
	for _, mw := range shield.DefaultAPIStack(logger, int64(fileCfg.MaxInputMB)*1024*1024) {
		r.Use(mw)
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Route("/v1", func(r chi.Router) {
		ex.RegisterHTTP(r, opts...)
	})

	srv := &http.Server{
		Addr:              fileCfg.Listen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("docextract listening", "addr", fileCfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	return srv.Shutdown(shutdownCtx)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := mcp.NewServer(&mcp.Implementation{Name: "docextract", Version: "0.1.0"}, nil)
	newExtractor().RegisterMCP(srv)
	logger.Info("docextract mcp on stdio")
	return srv.Run(ctx, &mcp.StdioTransport{})
}
