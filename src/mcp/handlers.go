package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"screen-translator/src/apperr"
	"screen-translator/src/lexicon"
	"screen-translator/src/server"
)

const maxImageBytes = 10 * 1024 * 1024

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	backend Backend
}

func NewHandlers(b Backend) *Handlers {
	return &Handlers{backend: b}
}

type OCRRequest struct {
	Path  string `json:"path,omitempty"`
	Image string `json:"image,omitempty"`
}

type TranslateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

type LookupRequest struct {
	Word string `json:"word"`
}

type SimilarRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit,omitempty"`
}

type lookupResult struct {
	Entry   lexicon.Entry `json:"entry"`
	Display string        `json:"display"`
}

func (h *Handlers) HandleOCR(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[OCRRequest](req)
	if err != nil {
		return errorResult(apperr.NewInvalidRequest(err.Error())), nil
	}

	var img []byte
	switch {
	case input.Path != "" && input.Image != "":
		return errorResult(apperr.NewInvalidRequest("pass either path or image, not both")), nil
	case input.Path != "":
		st, err := os.Stat(input.Path)
		if err != nil {
			return errorResult(apperr.NewInvalidRequest("cannot read image: " + err.Error())), nil
		}
		if st.Size() > maxImageBytes {
			return errorResult(apperr.NewInvalidRequest("image too large")), nil
		}
		if img, err = os.ReadFile(input.Path); err != nil {
			return errorResult(apperr.NewInvalidRequest("cannot read image: " + err.Error())), nil
		}
	default:
		if img, err = server.DecodeImage(input.Image); err != nil {
			return errorResult(apperr.NewInvalidRequest(err.Error())), nil
		}
	}

	rec, err := h.backend.Recognize(ctx, img)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(rec)
}

func (h *Handlers) HandleTranslate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TranslateRequest](req)
	if err != nil {
		return errorResult(apperr.NewInvalidRequest(err.Error())), nil
	}
	res, err := h.backend.TranslateWith(ctx, input.Text, input.Source, input.Target)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(res)
}

func (h *Handlers) HandleLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LookupRequest](req)
	if err != nil {
		return errorResult(apperr.NewInvalidRequest(err.Error())), nil
	}
	entry, err := h.backend.DictionaryLookup(ctx, input.Word)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(lookupResult{Entry: entry, Display: lexicon.Format(entry)})
}

func (h *Handlers) HandleSimilar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SimilarRequest](req)
	if err != nil {
		return errorResult(apperr.NewInvalidRequest(err.Error())), nil
	}
	if input.Limit <= 0 {
		input.Limit = 10
	}
	words, err := h.backend.Similar(ctx, strings.TrimSpace(input.Prefix), input.Limit)
	if err != nil {
		return errorResult(err), nil
	}
	if words == nil {
		words = []string{}
	}
	return successResult(map[string]any{"words": words})
}

func (h *Handlers) HandleHealth(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.backend.HealthCheck(ctx))
}

// errorResult creates an MCP error result with IsError set. Internal error
// details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    apperr.Internal,
		"message": "an internal error occurred",
		"status":  500,
	}

	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Code != apperr.Internal {
		msg := ae.Message
		if msg == "" && ae.Err != nil {
			msg = ae.Err.Error()
		}
		errorObj = map[string]any{
			"code":    ae.Code,
			"message": msg,
			"status":  apperr.Status(err),
		}
		if ae.Reason != "" {
			errorObj["reason"] = ae.Reason
		}
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
