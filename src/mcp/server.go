// Package mcp exposes the translation service as MCP tools over stdio.
package mcp

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"screen-translator/src/lexicon"
	"screen-translator/src/service"
)

// Backend is the service surface the tools call.
type Backend interface {
	Recognize(ctx context.Context, png []byte) (service.Recognition, error)
	TranslateWith(ctx context.Context, text, source, target string) (service.TranslationResult, error)
	DictionaryLookup(ctx context.Context, word string) (lexicon.Entry, error)
	Similar(ctx context.Context, prefix string, limit int) ([]string, error)
	HealthCheck(ctx context.Context) service.Health
}

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"ocr_image": {
		def:     ocrToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleOCR },
	},
	"translate_text": {
		def:     translateToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleTranslate },
	},
	"dictionary_lookup": {
		def:     lookupToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleLookup },
	},
	"similar_words": {
		def:     similarToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSimilar },
	},
	"health": {
		def:     healthToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleHealth },
	},
}

var (
	ocrToolDef = mcp.NewTool("ocr_image",
		mcp.WithDescription("Recognize text in an image. Pass either a file path or base64 image data."),
		mcp.WithString("path", mcp.Description("Path to an image file")),
		mcp.WithString("image", mcp.Description("Base64 image data or data URL")),
	)
	translateToolDef = mcp.NewTool("translate_text",
		mcp.WithDescription("Translate text. Single words are answered from the dictionary when possible."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to translate")),
		mcp.WithString("source", mcp.Description("Source language code")),
		mcp.WithString("target", mcp.Description("Target language code")),
	)
	lookupToolDef = mcp.NewTool("dictionary_lookup",
		mcp.WithDescription("Look up one word in the dictionary."),
		mcp.WithString("word", mcp.Required(), mcp.Description("Word to look up")),
	)
	similarToolDef = mcp.NewTool("similar_words",
		mcp.WithDescription("List dictionary words that start with a prefix."),
		mcp.WithString("prefix", mcp.Required(), mcp.Description("Word prefix")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of words (default 10)")),
	)
	healthToolDef = mcp.NewTool("health",
		mcp.WithDescription("Report whether the recognition, translation and dictionary engines are ready."),
	)
)

// AllToolNames returns the registered tool names in sorted order.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewServer creates an MCP server with every tool registered.
func NewServer(b Backend, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"screen-translator",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(b)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run serves the tools on stdio until the client disconnects.
func Run(b Backend, version string) error {
	return server.ServeStdio(NewServer(b, version))
}
