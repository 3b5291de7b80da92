package mcp

import (
	"context"

	"persona-mcp/internal/analysis"
	"persona-mcp/internal/config"
	"persona-mcp/internal/persona"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server exposes the analytics core as MCP tools.
type Server struct {
	cfg     *config.AppConfig
	svc     *analysis.Service
	version string
}

// NewServer creates a new MCP server.
func NewServer(cfg *config.AppConfig, svc *analysis.Service, version string) *Server {
	return &Server{
		cfg:     cfg,
		svc:     svc,
		version: version,
	}
}

// Start runs the MCP protocol over stdio until the client disconnects or ctx ends.
func (s *Server) Start(ctx context.Context) error {
	server := sdk.NewServer(&sdk.Implementation{Name: "persona-mcp", Version: s.version}, nil)
	if err := s.registerTools(server); err != nil {
		return err
	}

	log.Info().Msg("MCP Server starting Stdio loop")
	return server.Run(ctx, &sdk.StdioTransport{})
}

func (s *Server) entries(ctx context.Context) ([]persona.Entry, error) {
	return s.svc.Entries(ctx)
}

func (s *Server) snapshot(ctx context.Context) (*analysis.Snapshot, error) {
	return s.svc.Snapshot(ctx)
}

func (s *Server) refresh(ctx context.Context) error {
	return s.svc.Refresh(ctx)
}
