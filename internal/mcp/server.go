// Package mcp provides an MCP (Model Context Protocol) server for sliptrace.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/sliptrace/internal/config"
	"github.com/nvandessel/sliptrace/internal/ledger"
	"github.com/nvandessel/sliptrace/internal/pathutil"
	"github.com/nvandessel/sliptrace/internal/physics"
	"github.com/nvandessel/sliptrace/internal/ratelimit"
)

// Server wraps the MCP SDK server and exposes trace generation tools.
type Server struct {
	server   *sdk.Server
	root     string
	settings *config.SliptraceConfig
	ledger   *ledger.Store
	audit    *AuditLogger
	limiters ratelimit.ToolLimiters
	logger   *slog.Logger

	// newEngine overrides the physics engine; nil uses the generator default.
	newEngine func() physics.Engine
}

// Config holds server configuration.
type Config struct {
	Name     string                  // Server name (e.g., "sliptrace")
	Version  string                  // Server version
	Root     string                  // Project root directory
	Settings *config.SliptraceConfig // Loaded settings; nil uses config.Default()
	Logger   *slog.Logger            // Operational logger; must not write to stdout
}

// NewServer creates a new MCP server with sliptrace tools.
func NewServer(cfg *Config) (*Server, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:   mcpServer,
		root:     cfg.Root,
		settings: settings,
		audit:    NewAuditLogger(cfg.Root),
		limiters: ratelimit.NewToolLimiters(),
		logger:   logger,
	}

	if settings.Ledger.Enabled {
		store, err := ledger.Open(cfg.Root)
		if err != nil {
			s.audit.Close()
			return nil, fmt.Errorf("failed to open run ledger: %w", err)
		}
		s.ledger = store
	}

	s.registerTools()
	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the ledger and audit log.
func (s *Server) Close() error {
	var firstErr error
	if s.ledger != nil {
		if err := s.ledger.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.audit.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// allowedDirs lists where tools may read and write trace files: the project
// root and the directories of the configured trace destinations.
func (s *Server) allowedDirs() []string {
	return []string{
		s.root,
		filepath.Dir(pathutil.Resolve(s.root, s.settings.Output.TracePath)),
		filepath.Dir(pathutil.Resolve(s.root, s.settings.Output.InjectionPath)),
	}
}
