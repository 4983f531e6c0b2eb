// Package mcp exposes the read-it-later collection to MCP clients over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/unowned-ai/readlater/pkg/bot"
)

type ReadLaterMCPServer struct {
	mcpServer *server.MCPServer
	retriever *bot.Retriever
}

// NewReadLaterMCPServer creates an MCP server with every tool registered.
func NewReadLaterMCPServer(retriever *bot.Retriever, version string) *ReadLaterMCPServer {
	s := server.NewMCPServer(
		"ReadLater MCP Server",
		version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
		server.WithRecovery(),
	)

	RegisterPingTool(s)
	RegisterGetLastItemTool(s, retriever)
	RegisterGetRandomUnreadTool(s, retriever)
	RegisterListItemsTool(s, retriever)
	RegisterListItemsByTagsTool(s, retriever)
	RegisterListTagsTool(s, retriever)
	RegisterSetItemStatusTool(s, retriever)
	RegisterDeleteItemTool(s, retriever)
	RegisterGetStatisticsTool(s, retriever)

	return &ReadLaterMCPServer{mcpServer: s, retriever: retriever}
}

// Start runs the stdio event loop until stdin closes.
func (s *ReadLaterMCPServer) Start() error {
	return server.ServeStdio(s.mcpServer)
}

// MCPRawServer exposes the raw mcp-go server.
func (s *ReadLaterMCPServer) MCPRawServer() *server.MCPServer {
	return s.mcpServer
}
