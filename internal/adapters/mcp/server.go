// Package mcpadapter exposes journal question answering and search as MCP
// tools over stdio.
package mcpadapter

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/journal-assistant/internal/core/ports"
)

const Version = "1.0.0"

type Server struct {
	answerer ports.QuestionAnswerer
	searcher ports.EntrySearcher
	mcp      *server.MCPServer
}

func NewServer(name string, answerer ports.QuestionAnswerer, searcher ports.EntrySearcher) *Server {
	s := &Server{
		answerer: answerer,
		searcher: searcher,
		mcp: server.NewMCPServer(
			name,
			Version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	return s
}

// ServeStdio blocks until stdin is closed or the process is signalled.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}
