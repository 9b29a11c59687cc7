package browse

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Huchangzhi/ShellChrome/browse/element"
	"github.com/Huchangzhi/ShellChrome/kit"
)

// RegisterMCP registers the browse action surface on an MCP server.
func RegisterMCP(srv *mcp.Server, eng Engine) {
	registerOpenTool(srv, eng)
	registerNavigateTool(srv, eng)
	registerClosePageTool(srv, eng)
	registerSwitchPageTool(srv, eng)
	registerListPagesTool(srv, eng)
	registerSnapshotTool(srv, eng)
	registerScanTool(srv, eng)
	registerClickTool(srv, eng)
	registerFillTool(srv, eng)
	registerHoverTool(srv, eng)
	registerPressKeyTool(srv, eng)
	registerWaitForTool(srv, eng)
	registerScreenshotTool(srv, eng)
	registerPageContentTool(srv, eng)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// --- open ---

type urlRequest struct {
	URL string `json:"url"`
}

func decodeURLRequest(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r urlRequest
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

func registerOpenTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_open",
		Description: "Open a new page at the given URL and make it the current page.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "URL to open"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*urlRequest)
		return eng.Open(ctx, r.URL)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeURLRequest)
}

// --- navigate ---

func registerNavigateTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_navigate",
		Description: "Navigate the current page to a URL.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "URL to load"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*urlRequest)
		if err := eng.Navigate(ctx, r.URL); err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok", "url": r.URL}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeURLRequest)
}

// --- close_page / switch_page / list_pages ---

type pageRequest struct {
	PageID string `json:"page_id"`
}

func decodePageRequest(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r pageRequest
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

func registerClosePageTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_close_page",
		Description: "Close a page by id, or the current page when no id is given.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page id; empty closes the current page"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pageRequest)
		if err := eng.ClosePage(ctx, r.PageID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "closed"}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodePageRequest)
}

func registerSwitchPageTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_switch_page",
		Description: "Make the page with the given id the current page.",
		InputSchema: inputSchema(map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page id to select"},
		}, []string{"page_id"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pageRequest)
		return eng.SwitchPage(ctx, r.PageID)
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodePageRequest)
}

func registerListPagesTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_list_pages",
		Description: "List open pages as {id, url, selected} tuples.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return eng.Pages(ctx), nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- snapshot / scan ---

func registerSnapshotTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_snapshot",
		Description: "Capture an accessibility snapshot of the current page. Returns an indented element tree; each line carries the uid to address that element with.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		text, err := eng.TakeSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"snapshot": text}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func registerScanTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_scan_elements",
		Description: "Enumerate visible elements directly from the rendered page, bypassing the accessibility tree. Use when the snapshot comes back empty. Returns records addressed by ocr_* uids.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		recs, err := eng.ScanElements(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"elements": recs,
			"rendered": element.RenderRecords(recs),
		}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- click / hover ---

type uidRequest struct {
	UID string `json:"uid"`
}

func decodeUIDRequest(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
	var r uidRequest
	if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
		return nil, err
	}
	return &kit.MCPDecodeResult{Request: &r}, nil
}

func registerClickTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_click",
		Description: "Click the element with the given uid from the latest snapshot or scan.",
		InputSchema: inputSchema(map[string]any{
			"uid": map[string]any{"type": "string", "description": "Element uid (uid_* or ocr_*)"},
		}, []string{"uid"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*uidRequest)
		if err := eng.Click(ctx, r.UID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "clicked", "uid": r.UID}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeUIDRequest)
}

func registerHoverTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_hover",
		Description: "Hover the pointer over the element with the given uid.",
		InputSchema: inputSchema(map[string]any{
			"uid": map[string]any{"type": "string", "description": "Element uid (uid_* or ocr_*)"},
		}, []string{"uid"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*uidRequest)
		if err := eng.Hover(ctx, r.UID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "hovered", "uid": r.UID}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decodeUIDRequest)
}

// --- fill ---

type fillRequest struct {
	UID  string `json:"uid"`
	Text string `json:"text"`
}

func registerFillTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_fill",
		Description: "Replace the value of the input with the given uid. Existing content is cleared first.",
		InputSchema: inputSchema(map[string]any{
			"uid":  map[string]any{"type": "string", "description": "Element uid (uid_* or ocr_*)"},
			"text": map[string]any{"type": "string", "description": "Text to set"},
		}, []string{"uid", "text"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*fillRequest)
		if err := eng.Fill(ctx, r.UID, r.Text); err != nil {
			return nil, err
		}
		return map[string]string{"status": "filled", "uid": r.UID}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r fillRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- press_key ---

type pressKeyRequest struct {
	Key string `json:"key"`
}

func registerPressKeyTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_press_key",
		Description: "Press a keyboard key on the current page (e.g. Enter, Tab, ArrowDown, or a single character).",
		InputSchema: inputSchema(map[string]any{
			"key": map[string]any{"type": "string", "description": "Key name or single character"},
		}, []string{"key"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*pressKeyRequest)
		if err := eng.PressKey(ctx, r.Key); err != nil {
			return nil, err
		}
		return map[string]string{"status": "pressed", "key": r.Key}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r pressKeyRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- wait_for ---

type waitForRequest struct {
	Text      string `json:"text"`
	TimeoutMS int    `json:"timeout_ms"`
}

func registerWaitForTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_wait_for",
		Description: "Wait until the page's rendered text contains the given string.",
		InputSchema: inputSchema(map[string]any{
			"text":       map[string]any{"type": "string", "description": "Text to wait for"},
			"timeout_ms": map[string]any{"type": "integer", "description": "Timeout in milliseconds (default from config)"},
		}, []string{"text"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*waitForRequest)
		if err := eng.WaitFor(ctx, r.Text, time.Duration(r.TimeoutMS)*time.Millisecond); err != nil {
			return nil, err
		}
		return map[string]string{"status": "found", "text": r.Text}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r waitForRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- screenshot ---

type screenshotRequest struct {
	Path string `json:"path"`
}

type screenshotResponse struct {
	Bytes int    `json:"bytes"`
	Path  string `json:"path,omitempty"`
}

func registerScreenshotTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_screenshot",
		Description: "Capture the current page as a PNG, optionally writing it to a file.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "Optional file path to write the PNG to"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*screenshotRequest)
		data, err := eng.Screenshot(ctx, r.Path)
		if err != nil {
			return nil, err
		}
		return &screenshotResponse{Bytes: len(data), Path: r.Path}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r screenshotRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- page_content ---

func registerPageContentTool(srv *mcp.Server, eng Engine) {
	tool := &mcp.Tool{
		Name:        "browse_page_content",
		Description: "Render the current page's DOM as markdown.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		md, err := eng.PageContent(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]string{"content": md}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
