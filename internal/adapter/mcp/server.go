// Package mcp exposes the supervisor over the Model Context Protocol, so
// external assistants can list, spawn and drive agent sessions through the
// same code path the WebSocket protocol uses.
package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/AgentGuild/internal/supervisor"
)

// Server wraps the supervisor and exposes it as MCP tools and resources.
type Server struct {
	sup       *supervisor.Supervisor
	mcpServer *mcpserver.MCPServer
}

// NewServer creates the MCP server with all tools and resources registered.
func NewServer(sup *supervisor.Supervisor) *Server {
	s := &Server{sup: sup}
	s.mcpServer = mcpserver.NewMCPServer("agentguild", "0.1.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, true),
	)
	s.registerTools()
	s.registerResources()
	return s
}

// Handler returns the streamable HTTP transport, mountable on any router.
func (s *Server) Handler() http.Handler {
	return mcpserver.NewStreamableHTTPServer(s.mcpServer)
}
