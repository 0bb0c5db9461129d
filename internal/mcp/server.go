package mcp

import (
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/quiphq/quip/internal/config"
	"github.com/quiphq/quip/internal/store"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"comment_add": {
		def:     addToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd },
	},
	"comment_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"comment_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"comment_update": {
		def:     updateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUpdate },
	},
	"comment_delete": {
		def:     deleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDelete },
	},
	"comment_use": {
		def:     useToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUse },
	},
	"comment_top": {
		def:     topToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTop },
	},
	"comment_categories": {
		def:     categoriesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCategories },
	},
	"comment_seed": {
		def:     seedToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSeed },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer creates a new MCP server with Quip tools registered.
// Tools listed in cfg.DisabledTools are excluded from registration.
func NewServer(s *store.Store, cfg *config.Config, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"quip",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(s, cfg)

	for _, name := range ValidateDisabledTools(cfg.DisabledTools) {
		log.Printf("unknown tool in disabled_tools: %s", name)
	}

	disabled := make(map[string]bool)
	for _, name := range cfg.DisabledTools {
		disabled[name] = true
	}

	// Register tools (skip disabled)
	for name, entry := range toolRegistry {
		if disabled[name] {
			continue
		}
		srv.AddTool(entry.def, entry.handler(h))
	}

	return srv
}

// Run starts the MCP server using stdio transport.
func Run(s *store.Store, cfg *config.Config, version string) error {
	return server.ServeStdio(NewServer(s, cfg, version))
}
