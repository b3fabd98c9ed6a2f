package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/false-systems/nopea/internal/config"
	"github.com/false-systems/nopea/internal/httpapi"
	"github.com/false-systems/nopea/internal/nlog"
	"github.com/false-systems/nopea/internal/toolserver"
)

const subsystem = "cmd"

var serveMCP bool

// serveCmd starts nopea's long-running process: the HTTP admin API,
// and optionally the JSON-RPC tool surface over stdio for an
// MCP-speaking agent to attach to.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run nopea's HTTP admin API (and optional MCP tool surface)",
	Long: `serve starts nopea as a long-running process: the memory
service's decay ticker, the HTTP admin API, and — with --mcp — the
JSON-RPC tool surface over stdio for an MCP-speaking agent to attach
to. It keeps running, watching its config file for changes, until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	application, err := newApp()
	if err != nil {
		return err
	}
	defer application.Close()

	rootCtx := cmd.Context()
	if rootCtx == nil {
		rootCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := config.WatchFile(configPath, func(cfg config.NopeaConfig) {
		nlog.Info(subsystem, "config changed, new values take effect on next restart: auto_canary_threshold=%.2f", cfg.AutoCanaryThreshold)
	})
	if err != nil {
		nlog.Warn(subsystem, "config hot-reload disabled: %s", err)
	} else {
		defer watcher.Close()
	}

	group, gctx := errgroup.WithContext(ctx)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", application.cfg.APIPort),
		Handler: httpapi.New(application.registry, application.memory, application.cache).Handler(),
	}
	group.Go(func() error {
		nlog.Info(subsystem, "http admin api listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http admin api: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-gctx.Done()
		return httpSrv.Shutdown(context.Background())
	})

	if serveMCP {
		toolSrv := toolserver.New(application.registry, application.memory, application.cache)
		group.Go(func() error {
			nlog.Info(subsystem, "mcp tool surface serving over stdio")
			if err := toolSrv.Serve(); err != nil {
				return fmt.Errorf("mcp tool surface: %w", err)
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil && gctx.Err() == nil {
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve the JSON-RPC tool surface over stdio")
}
