package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/id"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Uncharted Stars Story MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
	// defaultMinGapMs is the beat marker spacing used when none is configured.
	defaultMinGapMs = 200
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	// HTTPAddr is the listen address for the HTTP transport. Defaults to localhost:8091.
	HTTPAddr string
	// AllowedHosts extends the loopback hosts accepted in Host and Origin headers.
	AllowedHosts []string
	// AuthToken, when set, is required as a bearer token on every /mcp request.
	AuthToken string
	// MinGapMs is the default minimum spacing between beat markers.
	MinGapMs int64
	// Now and NewID are overridable for tests.
	Now   domain.Clock
	NewID domain.IDGenerator
}

func (c Config) withDefaults() Config {
	if c.Transport == "" {
		c.Transport = TransportStdio
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = defaultHTTPAddr
	}
	if c.MinGapMs <= 0 {
		c.MinGapMs = defaultMinGapMs
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.NewID == nil {
		c.NewID = id.NewID
	}
	return c
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	cfg       Config
}

// New creates an MCP server whose store-backed tools and resources are served
// by the given story service.
func New(service domain.StoryService, cfg Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("story service is required")
	}
	cfg = cfg.withDefaults()

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler:  completionHandler,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	resourceNotifier := func(ctx context.Context, uri string) {
		if strings.TrimSpace(uri) == "" {
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Printf("mcp resource updated notify failed: uri=%s err=%v", uri, err)
		}
	}

	for _, module := range newMCPRegistrationModules(service, cfg, resourceNotifier) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}

	return &Server{mcpServer: mcpServer, cfg: cfg}, nil
}

// completionHandler answers completion/complete requests with an empty list.
// No prompts or resource templates take arguments.
func completionHandler(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// Run starts the MCP server on the configured transport and blocks until ctx
// is cancelled or the transport fails.
func Run(ctx context.Context, service domain.StoryService, cfg Config) error {
	server, err := New(service, cfg)
	if err != nil {
		return err
	}
	switch server.cfg.Transport {
	case TransportStdio:
		return server.serveWithTransport(ctx, &mcp.StdioTransport{})
	case TransportHTTP:
		transport := NewHTTPTransport(server.mcpServer, server.cfg)
		return transport.Start(ctx)
	default:
		return fmt.Errorf("transport %q is not supported", server.cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport runs the MCP server on one transport. Cancellation is a
// clean exit.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
