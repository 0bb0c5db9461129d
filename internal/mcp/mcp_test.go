package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/quiphq/quip/internal/config"
	"github.com/quiphq/quip/internal/kv"
	"github.com/quiphq/quip/internal/store"
)

// testSetup creates an in-memory store and default config for testing.
func testSetup(t *testing.T) (*store.Store, *config.Config) {
	t.Helper()
	return store.New(kv.NewMemory()), config.DefaultConfig()
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultPayload unmarshals the first text content of a result.
func resultPayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent: %T", result.Content[0])
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}
	return payload
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Error("result should be an error")
	}

	payload := resultPayload(t, result)
	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Fatalf("payload has no error object: %v", payload)
	}
	if errorObj["code"] != expectedCode {
		t.Errorf("error code = %v, want %s", errorObj["code"], expectedCode)
	}
}

func TestHandleAdd(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
	}{
		{
			name: "minimal",
			args: map[string]any{"text": "Good job on the citations"},
		},
		{
			name: "all fields",
			args: map[string]any{
				"text":      "Check your spelling",
				"shortcode": "spelling",
				"category":  "Grammar",
			},
		},
		{
			name:      "missing text",
			args:      map[string]any{"category": "Grammar"},
			wantError: true,
		},
		{
			name:      "blank text",
			args:      map[string]any{"text": "   "},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleAdd(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("HandleAdd returned error: %v", err)
			}
			if tt.wantError {
				assertErrorCode(t, result, "VALIDATION")
				return
			}
			if result.IsError {
				t.Fatalf("unexpected error result: %v", resultPayload(t, result))
			}

			payload := resultPayload(t, result)
			if payload["id"] == "" {
				t.Error("response should carry the new id")
			}
			if payload["usedCount"] != float64(0) {
				t.Errorf("usedCount = %v, want 0", payload["usedCount"])
			}
		})
	}
}

func TestHandleAdd_DerivedShortcode(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)

	result, err := h.HandleAdd(context.Background(), makeRequest(map[string]any{
		"text": "Good job on the citations",
	}))
	if err != nil {
		t.Fatalf("HandleAdd returned error: %v", err)
	}

	payload := resultPayload(t, result)
	if payload["shortcode"] != "Good citations" {
		t.Errorf("shortcode = %v, want %q", payload["shortcode"], "Good citations")
	}
}

func TestHandleGet(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)
	ctx := context.Background()

	added, err := s.Add(ctx, store.AddInput{Text: "Fetch me"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	result, err := h.HandleGet(ctx, makeRequest(map[string]any{"id": added.ID}))
	if err != nil {
		t.Fatalf("HandleGet returned error: %v", err)
	}
	payload := resultPayload(t, result)
	if payload["text"] != "Fetch me" {
		t.Errorf("text = %v", payload["text"])
	}

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{"id": "nope"}))
	assertErrorCode(t, result, "NOT_FOUND")

	result, _ = h.HandleGet(ctx, makeRequest(map[string]any{}))
	assertErrorCode(t, result, "VALIDATION")
}

func TestHandleList(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)
	ctx := context.Background()

	for _, c := range []struct{ text, category string }{
		{"Grammar point one", "Grammar"},
		{"Grammar point two", "Grammar"},
		{"Structure note", "Structure"},
	} {
		if _, err := s.Add(ctx, store.AddInput{Text: c.text, Category: c.category}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	result, err := h.HandleList(ctx, makeRequest(map[string]any{"category": "Grammar"}))
	if err != nil {
		t.Fatalf("HandleList returned error: %v", err)
	}
	payload := resultPayload(t, result)
	if payload["count"] != float64(2) {
		t.Errorf("count = %v, want 2", payload["count"])
	}

	result, err = h.HandleList(ctx, makeRequest(map[string]any{"search": "structure"}))
	if err != nil {
		t.Fatalf("HandleList returned error: %v", err)
	}
	payload = resultPayload(t, result)
	if payload["count"] != float64(1) {
		t.Errorf("search count = %v, want 1", payload["count"])
	}
}

func TestHandleUpdate(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)
	ctx := context.Background()

	added, err := s.Add(ctx, store.AddInput{Text: "Original", Category: "Grammar"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	result, err := h.HandleUpdate(ctx, makeRequest(map[string]any{
		"id":   added.ID,
		"text": "Updated",
	}))
	if err != nil {
		t.Fatalf("HandleUpdate returned error: %v", err)
	}
	payload := resultPayload(t, result)
	if payload["text"] != "Updated" {
		t.Errorf("text = %v", payload["text"])
	}
	// Untouched fields survive partial updates.
	if payload["category"] != "Grammar" {
		t.Errorf("category = %v, want Grammar", payload["category"])
	}

	result, _ = h.HandleUpdate(ctx, makeRequest(map[string]any{"id": "nope", "text": "x"}))
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleDelete(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)
	ctx := context.Background()

	added, err := s.Add(ctx, store.AddInput{Text: "Doomed"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	result, err := h.HandleDelete(ctx, makeRequest(map[string]any{"id": added.ID}))
	if err != nil {
		t.Fatalf("HandleDelete returned error: %v", err)
	}
	payload := resultPayload(t, result)
	if payload["deleted"] != true {
		t.Errorf("deleted = %v, want true", payload["deleted"])
	}

	// Deleting again reports false, not an error.
	result, err = h.HandleDelete(ctx, makeRequest(map[string]any{"id": added.ID}))
	if err != nil {
		t.Fatalf("HandleDelete returned error: %v", err)
	}
	payload = resultPayload(t, result)
	if payload["deleted"] != false {
		t.Errorf("second delete = %v, want false", payload["deleted"])
	}
}

func TestHandleUse(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)
	ctx := context.Background()

	added, err := s.Add(ctx, store.AddInput{Text: "Count me"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	result, err := h.HandleUse(ctx, makeRequest(map[string]any{"id": added.ID}))
	if err != nil {
		t.Fatalf("HandleUse returned error: %v", err)
	}
	payload := resultPayload(t, result)
	if payload["text"] != "Count me" {
		t.Errorf("text = %v", payload["text"])
	}

	c, err := s.GetByID(ctx, added.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if c.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want 1", c.UsedCount)
	}

	result, _ = h.HandleUse(ctx, makeRequest(map[string]any{"id": "nope"}))
	assertErrorCode(t, result, "NOT_FOUND")
}

func TestHandleTop(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 10; i++ {
		c, err := s.Add(ctx, store.AddInput{Text: "comment"})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		ids = append(ids, c.ID)
	}
	if _, err := s.IncrementUse(ctx, ids[4]); err != nil {
		t.Fatalf("IncrementUse: %v", err)
	}

	result, err := h.HandleTop(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleTop returned error: %v", err)
	}
	payload := resultPayload(t, result)
	// Default limit comes from config (8).
	if payload["count"] != float64(8) {
		t.Errorf("count = %v, want 8", payload["count"])
	}

	comments := payload["comments"].([]any)
	first := comments[0].(map[string]any)
	if first["id"] != ids[4] {
		t.Errorf("top comment = %v, want the used one", first["id"])
	}

	result, err = h.HandleTop(ctx, makeRequest(map[string]any{"limit": 3}))
	if err != nil {
		t.Fatalf("HandleTop returned error: %v", err)
	}
	payload = resultPayload(t, result)
	if payload["count"] != float64(3) {
		t.Errorf("count = %v, want 3", payload["count"])
	}
}

func TestHandleCategories(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)
	ctx := context.Background()

	if _, err := s.Add(ctx, store.AddInput{Text: "x", Category: "Zebra"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	result, err := h.HandleCategories(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleCategories returned error: %v", err)
	}
	payload := resultPayload(t, result)
	categories := payload["categories"].([]any)
	if categories[0] != "All" {
		t.Errorf("first category = %v, want All", categories[0])
	}
}

func TestHandleSeed(t *testing.T) {
	s, cfg := testSetup(t)
	h := NewHandlers(s, cfg)
	ctx := context.Background()

	result, err := h.HandleSeed(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleSeed returned error: %v", err)
	}
	payload := resultPayload(t, result)
	if payload["added"] != float64(4) {
		t.Errorf("added = %v, want 4", payload["added"])
	}

	result, err = h.HandleSeed(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleSeed returned error: %v", err)
	}
	payload = resultPayload(t, result)
	if payload["added"] != float64(0) {
		t.Errorf("second seed added = %v, want 0", payload["added"])
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"comment_add", "capsule_store"})
	if len(unknown) != 1 || unknown[0] != "capsule_store" {
		t.Errorf("unknown = %v, want [capsule_store]", unknown)
	}
}

func TestNewServer_DisabledTools(t *testing.T) {
	s, cfg := testSetup(t)
	cfg.DisabledTools = []string{"comment_seed"}

	// Constructing the server must not panic and must skip the disabled
	// tool; the registry itself stays intact.
	if srv := NewServer(s, cfg, "test"); srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if len(AllToolNames()) != 9 {
		t.Errorf("registry has %d tools, want 9", len(AllToolNames()))
	}
}
