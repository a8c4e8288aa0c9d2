// Package mcp exposes the archive to AI agents over the Model Context
// Protocol: message search, contact resolution and chat naming as stdio
// tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/chat-lens/internal/archive"
	"github.com/ziadkadry99/chat-lens/internal/resolver"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes archive tools.
type Server struct {
	arc *archive.Archive
	res *resolver.Resolver
	mcp *server.MCPServer
}

// NewServer creates a new MCP server over the given archive and resolver.
func NewServer(arc *archive.Archive, res *resolver.Resolver) *Server {
	s := &Server{
		arc: arc,
		res: res,
	}

	s.mcp = server.NewMCPServer(
		"chatlens",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchMessagesTool, s.handleSearchMessages)
	s.mcp.AddTool(resolveContactTool, s.handleResolveContact)
	s.mcp.AddTool(getChatInfoTool, s.handleGetChatInfo)
	s.mcp.AddTool(suggestChatNameTool, s.handleSuggestChatName)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
