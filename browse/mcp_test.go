package browse

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Huchangzhi/ShellChrome/browse/element"
	"github.com/Huchangzhi/ShellChrome/browse/internal/driver"
)

var testImpl = &mcp.Implementation{Name: "browse-test", Version: "0.1.0"}

// stubEngine is a scripted Engine for exercising the tool surface without a
// browser.
type stubEngine struct {
	pages    []driver.PageInfo
	snapshot string
	records  []element.NodeRecord
	content  string

	clicked []string
	filled  map[string]string
	pressed []string

	clickErr error
	waitErr  error
}

func newStubEngine() *stubEngine {
	return &stubEngine{
		snapshot: "- uid_1 button \"Submit\"",
		records: []element.NodeRecord{
			{UID: "ocr_1", Role: "button", Name: "Go"},
		},
		content: "# Example",
		filled:  map[string]string{},
	}
}

func (e *stubEngine) Open(_ context.Context, url string) (driver.PageInfo, error) {
	info := driver.PageInfo{ID: "pg_test1", URL: url, Selected: true}
	e.pages = append(e.pages, info)
	return info, nil
}

func (e *stubEngine) Navigate(context.Context, string) error { return nil }

func (e *stubEngine) ClosePage(_ context.Context, id string) error {
	e.pages = nil
	return nil
}

func (e *stubEngine) SwitchPage(_ context.Context, id string) (driver.PageInfo, error) {
	for _, p := range e.pages {
		if p.ID == id {
			return p, nil
		}
	}
	return driver.PageInfo{}, element.ErrNoPage
}

func (e *stubEngine) Pages(context.Context) []driver.PageInfo { return e.pages }

func (e *stubEngine) TakeSnapshot(context.Context) (string, error) { return e.snapshot, nil }

func (e *stubEngine) ScanElements(context.Context) ([]element.NodeRecord, error) {
	return e.records, nil
}

func (e *stubEngine) Click(_ context.Context, uid string) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	e.clicked = append(e.clicked, uid)
	return nil
}

func (e *stubEngine) Fill(_ context.Context, uid, text string) error {
	e.filled[uid] = text
	return nil
}

func (e *stubEngine) Hover(context.Context, string) error { return nil }

func (e *stubEngine) PressKey(_ context.Context, key string) error {
	e.pressed = append(e.pressed, key)
	return nil
}

func (e *stubEngine) WaitFor(_ context.Context, text string, _ time.Duration) error {
	return e.waitErr
}

func (e *stubEngine) Screenshot(context.Context, string) ([]byte, error) {
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (e *stubEngine) PageContent(context.Context) (string, error) { return e.content, nil }

// mcpSession registers the tools against a stub engine and returns a
// connected client session.
func mcpSession(t *testing.T) (*stubEngine, *mcp.ClientSession) {
	t.Helper()
	eng := newStubEngine()

	srv := mcp.NewServer(testImpl, nil)
	RegisterMCP(srv, eng)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()

	go func() {
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testImpl, nil)
	session, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	return eng, session
}

// callTool invokes a tool and returns the JSON text from the first TextContent.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args any) string {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if err := result.GetError(); err != nil {
		t.Fatalf("CallTool(%s) tool error: %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text
}

// callToolErr invokes a tool expecting a tool-level error and returns it.
func callToolErr(t *testing.T, session *mcp.ClientSession, name string, args any) error {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if !result.IsError {
		t.Fatalf("CallTool(%s): expected tool error, got success", name)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): tool error with empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return errors.New(tc.Text)
}

func TestMCP_OpenAndListPages(t *testing.T) {
	_, session := mcpSession(t)

	text := callTool(t, session, "browse_open", map[string]any{
		"url": "https://example.com",
	})
	var info driver.PageInfo
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.ID == "" || !info.Selected {
		t.Errorf("open returned %+v, want selected page with id", info)
	}

	text = callTool(t, session, "browse_list_pages", map[string]any{})
	var pages []driver.PageInfo
	if err := json.Unmarshal([]byte(text), &pages); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(pages) != 1 || pages[0].URL != "https://example.com" {
		t.Errorf("list_pages = %+v, want the opened page", pages)
	}
}

func TestMCP_Snapshot(t *testing.T) {
	_, session := mcpSession(t)

	text := callTool(t, session, "browse_snapshot", map[string]any{})
	var resp map[string]string
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !strings.Contains(resp["snapshot"], "uid_1") {
		t.Errorf("snapshot = %q, want uid_1 line", resp["snapshot"])
	}
}

func TestMCP_ScanElements(t *testing.T) {
	_, session := mcpSession(t)

	text := callTool(t, session, "browse_scan_elements", map[string]any{})
	var resp struct {
		Elements []element.NodeRecord `json:"elements"`
		Rendered string               `json:"rendered"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Elements) != 1 || resp.Elements[0].UID != "ocr_1" {
		t.Errorf("elements = %+v, want single ocr_1 record", resp.Elements)
	}
	if !strings.Contains(resp.Rendered, "ocr_1") {
		t.Errorf("rendered = %q, want ocr_1 line", resp.Rendered)
	}
}

func TestMCP_ClickAndFill(t *testing.T) {
	eng, session := mcpSession(t)

	callTool(t, session, "browse_click", map[string]any{"uid": "uid_1"})
	if len(eng.clicked) != 1 || eng.clicked[0] != "uid_1" {
		t.Errorf("clicked = %v, want [uid_1]", eng.clicked)
	}

	callTool(t, session, "browse_fill", map[string]any{"uid": "uid_2", "text": "hello"})
	if eng.filled["uid_2"] != "hello" {
		t.Errorf("filled = %v, want uid_2 -> hello", eng.filled)
	}
}

func TestMCP_ClickErrorIsToolError(t *testing.T) {
	eng, session := mcpSession(t)
	eng.clickErr = &element.NotFoundError{UID: "uid_9", Reason: "not in current snapshot"}

	err := callToolErr(t, session, "browse_click", map[string]any{"uid": "uid_9"})
	if !strings.Contains(err.Error(), "uid_9") {
		t.Errorf("tool error = %v, want mention of uid_9", err)
	}
}

func TestMCP_WaitForTimeout(t *testing.T) {
	eng, session := mcpSession(t)
	eng.waitErr = &element.TimeoutError{Op: `wait for "Done"`, Timeout: time.Second}

	err := callToolErr(t, session, "browse_wait_for", map[string]any{
		"text":       "Done",
		"timeout_ms": 1000,
	})
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("tool error = %v, want timeout message", err)
	}
}

func TestMCP_PressKey(t *testing.T) {
	eng, session := mcpSession(t)

	callTool(t, session, "browse_press_key", map[string]any{"key": "Enter"})
	if len(eng.pressed) != 1 || eng.pressed[0] != "Enter" {
		t.Errorf("pressed = %v, want [Enter]", eng.pressed)
	}
}

func TestMCP_PageContent(t *testing.T) {
	_, session := mcpSession(t)

	text := callTool(t, session, "browse_page_content", map[string]any{})
	var resp map[string]string
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp["content"] != "# Example" {
		t.Errorf("content = %q, want %q", resp["content"], "# Example")
	}
}
