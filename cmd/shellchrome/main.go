// Command shellchrome drives a Chrome page through snapshot-addressed
// actions, exposed over MCP (stdio) and/or HTTP.
//
// Usage:
//
//	shellchrome -mcp                               # MCP tools on stdio
//	shellchrome -http :8975                        # HTTP action surface
//	shellchrome -config shellchrome.yaml -mcp      # with YAML config
//	shellchrome -url https://example.com -mcp      # open a page at startup
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	_ "modernc.org/sqlite"

	"github.com/Huchangzhi/ShellChrome/browse"
	"github.com/Huchangzhi/ShellChrome/observability"
	"github.com/Huchangzhi/ShellChrome/shield"
)

const version = "0.3.0"

func main() {
	configPath := flag.String("config", "", "path to shellchrome.yaml config file")
	startURL := flag.String("url", "", "URL to open at startup")
	mcpMode := flag.Bool("mcp", false, "serve MCP tools on stdio")
	httpAddr := flag.String("http", "", "serve the HTTP action surface on this address")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	logger := observability.NewLogger(os.Stderr, *logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *startURL, *mcpMode, *httpAddr); err != nil {
		logger.Error("shellchrome: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath, startURL string, mcpMode bool, httpAddr string) error {
	if !mcpMode && httpAddr == "" {
		fmt.Fprintln(os.Stderr, "usage: shellchrome [-config <file>] [-url <url>] -mcp | -http <addr>")
		os.Exit(1)
	}

	cfg := &browse.Config{}
	if configPath != "" {
		loaded, err := browse.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	session, err := browse.New(cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}

	if startURL != "" {
		if _, err := session.Open(ctx, startURL); err != nil {
			return fmt.Errorf("open %s: %w", startURL, err)
		}
	}

	errCh := make(chan error, 2)

	if httpAddr != "" {
		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		for _, mw := range shield.DefaultStack() {
			r.Use(mw)
		}
		browse.RegisterHTTP(r, session)

		srv := &http.Server{Addr: httpAddr, Handler: r}
		go func() {
			errCh <- srv.ListenAndServe()
		}()
		go func() {
			<-ctx.Done()
			srv.Shutdown(context.Background())
		}()
		logger.Info("shellchrome: http listening", "addr", httpAddr)
	}

	if mcpMode {
		srv := mcp.NewServer(&mcp.Implementation{Name: "shellchrome", Version: version}, nil)
		browse.RegisterMCP(srv, session)
		go func() {
			errCh <- srv.Run(ctx, &mcp.StdioTransport{})
		}()
		logger.Info("shellchrome: mcp serving on stdio")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}
}
