package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jingkaihe/skillsd/pkg/logger"
	"github.com/jingkaihe/skillsd/pkg/mcpserver"
	"github.com/jingkaihe/skillsd/pkg/presenter"
	"github.com/jingkaihe/skillsd/pkg/skills"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	transportStdio  = "stdio"
	transportHTTP   = "http"
	defaultHTTPAddr = "127.0.0.1:8765"
)

type ServeConfig struct {
	Discovery       *DiscoveryConfig
	Transport       string
	Addr            string
	RefreshInterval time.Duration
}

func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Discovery:       NewDiscoveryConfig(),
		Transport:       transportStdio,
		Addr:            defaultHTTPAddr,
		RefreshInterval: skills.DefaultRefreshInterval,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve skills to MCP clients",
	Long: `Discover skills and serve them through the MCP "skill" tool.

Skills are searched in ./.agent/skills, ./.claude/skills, ~/.agent/skills and
~/.claude/skills, in that order, followed by any --skill-dir directories. The
first skill found under a given name wins. The directories are rescanned
periodically so added, changed and removed skills are picked up without a restart.

By default the server speaks MCP over stdio. Use --transport http to serve
streamable HTTP on --addr instead (host:port or unix:<socket path>).`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()
		config := getServeConfigFromFlags(cmd)
		runServeCommand(ctx, config)
	},
}

func init() {
	defaults := NewServeConfig()
	addDiscoveryFlags(serveCmd)
	serveCmd.Flags().String("transport", defaults.Transport, "MCP transport (stdio, http)")
	serveCmd.Flags().String("addr", defaults.Addr, "Listen address for the http transport (host:port or unix:<path>)")
	serveCmd.Flags().Duration("refresh-interval", defaults.RefreshInterval, "Delay between skill rescans")
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()
	config.Discovery = getDiscoveryConfigFromFlags(cmd)
	config.Transport = viper.GetString("transport")
	config.Addr = viper.GetString("http.addr")
	config.RefreshInterval = refreshInterval()

	flags := cmd.Flags()
	if flags.Changed("transport") {
		if transport, err := flags.GetString("transport"); err == nil {
			config.Transport = transport
		}
	}
	if flags.Changed("addr") {
		if addr, err := flags.GetString("addr"); err == nil {
			config.Addr = addr
		}
	}
	if flags.Changed("refresh-interval") {
		if interval, err := flags.GetDuration("refresh-interval"); err == nil {
			config.RefreshInterval = interval
		}
	}

	return config
}

func validateServeConfig(config *ServeConfig) error {
	switch config.Transport {
	case transportStdio:
	case transportHTTP:
		if config.Addr == "" {
			return errors.New("addr cannot be empty for the http transport")
		}
	default:
		return errors.Errorf("unsupported transport %q (expected %s or %s)", config.Transport, transportStdio, transportHTTP)
	}

	if config.RefreshInterval <= 0 {
		return errors.New("refresh interval must be positive")
	}
	if config.Discovery.MaxDepth <= 0 {
		return errors.New("max depth must be positive")
	}

	return nil
}

func runServeCommand(ctx context.Context, config *ServeConfig) {
	if err := validateServeConfig(config); err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	discovery, err := skills.NewDiscovery(config.Discovery.Options()...)
	if err != nil {
		presenter.Error(err, "failed to configure skill discovery")
		os.Exit(1)
	}

	log := logger.G(ctx).WithField("server", mcpserver.ServerName)
	log.Info("starting skills MCP server")

	count, err := discovery.Scan(ctx)
	if err != nil {
		log.WithError(err).Warn("initial skill scan completed with errors")
	}
	log.WithField("count", count).WithField("interval", config.RefreshInterval).Info("initial skill scan finished")

	go discovery.Run(ctx, config.RefreshInterval)

	srv, err := mcpserver.New(discovery.Cache(), mcpserver.WithStatus(discovery.Status))
	if err != nil {
		presenter.Error(err, "failed to create MCP server")
		os.Exit(1)
	}

	switch config.Transport {
	case transportHTTP:
		serveHTTP(ctx, srv, config.Addr)
	default:
		if err := srv.ServeStdio(ctx, os.Stdin, os.Stdout); err != nil {
			presenter.Error(err, "MCP server failed")
			os.Exit(1)
		}
	}
}

func serveHTTP(ctx context.Context, srv *mcpserver.Server, addr string) {
	httpServer, err := mcpserver.NewHTTPServer(srv, addr)
	if err != nil {
		presenter.Error(err, "failed to create HTTP server")
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start(ctx)
	}()

	presenter.Success("skills MCP server started")
	presenter.Info("Listening on: " + httpServer.Addr())
	presenter.Info("Press Ctrl+C to stop the server")

	select {
	case err := <-serverErr:
		if err != nil {
			logger.G(ctx).WithError(err).Error("skills MCP server error")
			presenter.Error(err, "skills MCP server failed")
			os.Exit(1)
		}
	case <-ctx.Done():
		presenter.Info("Shutdown signal received, stopping server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.G(ctx).WithError(err).Error("failed to shutdown skills MCP server gracefully")
			presenter.Error(err, "server shutdown error")
			os.Exit(1)
		}
	}

	presenter.Info("skills MCP server stopped")
}
