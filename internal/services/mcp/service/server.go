package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/louisbranch/magemaker/internal/platform/branding"
	"github.com/louisbranch/magemaker/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// serverVersion identifies the MCP server version.
const serverVersion = "0.1.0"

// serverName identifies this MCP server to clients.
var serverName = branding.AppName + " MCP"

// Server hosts the sheet tools.
type Server struct {
	mcpServer *mcp.Server
}

// New builds an MCP server whose tools call sheets.
func New(sheets domain.Sheets, settings domain.Settings) (*Server, error) {
	if sheets == nil {
		return nil, errors.New("sheet service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerCharacterTools(mcpServer, sheets, settings)
	registerSheetTools(mcpServer, sheets, settings)
	mcpServer.AddResourceTemplate(domain.CharacterSheetResourceTemplate(), domain.CharacterSheetResourceHandler(sheets, settings))
	return &Server{mcpServer: mcpServer}, nil
}

func registerCharacterTools(server *mcp.Server, sheets domain.Sheets, settings domain.Settings) {
	mcp.AddTool(server, domain.CharacterCreateTool(), domain.CharacterCreateHandler(sheets, settings))
	mcp.AddTool(server, domain.CharacterGetTool(), domain.CharacterGetHandler(sheets, settings))
	mcp.AddTool(server, domain.CharacterListTool(), domain.CharacterListHandler(sheets, settings))
	mcp.AddTool(server, domain.CharacterExportTool(), domain.CharacterExportHandler(sheets, settings))
}

func registerSheetTools(server *mcp.Server, sheets domain.Sheets, settings domain.Settings) {
	mcp.AddTool(server, domain.TraitChangeTool(), domain.TraitChangeHandler(sheets, settings))
	mcp.AddTool(server, domain.CostQuoteTool(), domain.CostQuoteHandler(sheets, settings))
	mcp.AddTool(server, domain.PrioritySetTool(), domain.PrioritySetHandler(sheets, settings))
	mcp.AddTool(server, domain.AffinitySelectTool(), domain.AffinitySelectHandler(sheets, settings))
	mcp.AddTool(server, domain.RegimeStatusTool(), domain.RegimeStatusHandler(sheets, settings))
	mcp.AddTool(server, domain.RegimeAdvanceTool(), domain.RegimeAdvanceHandler(sheets, settings))
	mcp.AddTool(server, domain.ExperienceAwardTool(), domain.ExperienceAwardHandler(sheets, settings))
	mcp.AddTool(server, domain.MeritSetTool(), domain.MeritSetHandler(sheets, settings))
	mcp.AddTool(server, domain.FlawSetTool(), domain.FlawSetHandler(sheets, settings))
}

// Run serves MCP over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
