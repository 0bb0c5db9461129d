package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/quiphq/quip/internal/config"
	"github.com/quiphq/quip/internal/errors"
	"github.com/quiphq/quip/internal/store"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store *store.Store
	cfg   *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(s *store.Store, cfg *config.Config) *Handlers {
	return &Handlers{store: s, cfg: cfg}
}

// Request types for each tool

// AddRequest represents the arguments for comment_add.
type AddRequest struct {
	Text      string `json:"text"`
	Shortcode string `json:"shortcode,omitempty"`
	Category  string `json:"category,omitempty"`
}

// GetRequest represents the arguments for comment_get.
type GetRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for comment_list.
type ListRequest struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
}

// UpdateRequest represents the arguments for comment_update.
type UpdateRequest struct {
	ID        string  `json:"id"`
	Text      *string `json:"text,omitempty"`
	Shortcode *string `json:"shortcode,omitempty"`
	Category  *string `json:"category,omitempty"`
}

// DeleteRequest represents the arguments for comment_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// UseRequest represents the arguments for comment_use.
type UseRequest struct {
	ID string `json:"id"`
}

// TopRequest represents the arguments for comment_top.
type TopRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Handler implementations

// HandleAdd handles the comment_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	c, err := h.store.Add(ctx, store.AddInput{
		Text:      input.Text,
		Shortcode: input.Shortcode,
		Category:  input.Category,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(c)
}

// HandleGet handles the comment_get tool call.
func (h *Handlers) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[GetRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewValidation("id is required")), nil
	}

	c, err := h.store.GetByID(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(c)
}

// HandleList handles the comment_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	comments, err := h.store.GetAll(ctx, input.Category, input.Search)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"comments": comments,
		"count":    len(comments),
	})
}

// HandleUpdate handles the comment_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewValidation("id is required")), nil
	}

	updated, err := h.store.Update(ctx, input.ID, store.UpdateInput{
		Text:      input.Text,
		Shortcode: input.Shortcode,
		Category:  input.Category,
	})
	if err != nil {
		return errorResult(err), nil
	}
	if !updated {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}

	c, err := h.store.GetByID(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(c)
}

// HandleDelete handles the comment_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewValidation("id is required")), nil
	}

	deleted, err := h.store.Delete(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"deleted": deleted,
		"id":      input.ID,
	})
}

// HandleUse handles the comment_use tool call.
func (h *Handlers) HandleUse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UseRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}
	if input.ID == "" {
		return errorResult(errors.NewValidation("id is required")), nil
	}

	text, err := h.store.IncrementUse(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"id":   input.ID,
		"text": text,
	})
}

// HandleTop handles the comment_top tool call.
func (h *Handlers) HandleTop(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TopRequest](req)
	if err != nil {
		return errorResult(errors.NewValidation(err.Error())), nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = h.cfg.MenuLimit
	}

	comments, err := h.store.TopComments(ctx, limit)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"comments": comments,
		"count":    len(comments),
	})
}

// HandleCategories handles the comment_categories tool call.
func (h *Handlers) HandleCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	categories, err := h.store.Categories(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"categories": categories,
	})
}

// HandleSeed handles the comment_seed tool call.
func (h *Handlers) HandleSeed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	added, err := h.store.SeedSamples(ctx)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{
		"added": added,
	})
}

// errorResult builds an error tool result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if qErr, ok := err.(*errors.QuipError); ok {
		errorObj := map[string]any{
			"code":    qErr.Code,
			"message": qErr.Message,
			"status":  qErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or storage errors
		if qErr.Code != errors.ErrInternal && qErr.Details != nil {
			errorObj["details"] = qErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult builds a success tool result with JSON content.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
