// Command server is the main entry point for the Pinecone Assistant MCP
// server. It serves the protocol over stdio; all logging goes to stderr so
// stdout stays clean for protocol frames.
package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"

	"assistant-mcp/pkg/config"
	"assistant-mcp/pkg/router"
)

const version = "1.0.0"

func main() {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(true)

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration error", "error", err)
	}

	log.SetLevel(cfg.ParseLogLevel())
	log.Info("Starting Pinecone Assistant MCP server")

	rtr := router.New(cfg)

	// Initialize MCP server with the router's declared capabilities
	mcpServer := server.NewMCPServer(
		rtr.Name(),
		version,
		rtr.Capabilities()...,
	)

	for _, tool := range rtr.ListTools() {
		mcpServer.AddTool(tool, rtr.Handler)
	}

	log.Info("Server initialized and ready to handle requests")
	if err := server.ServeStdio(mcpServer); err != nil {
		log.Fatal("Server error", "error", err)
	}
}
