package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Huchangzhi/ShellChrome/browse/element"
	"github.com/Huchangzhi/ShellChrome/browse/internal/axtree"
	"github.com/Huchangzhi/ShellChrome/browse/internal/resolve"
	"github.com/Huchangzhi/ShellChrome/browse/internal/scan"
)

// Page wraps one Rod page with the primitives the snapshot engine needs. It
// satisfies the resolver's and interaction layer's page contracts.
type Page struct {
	id   string
	page *rod.Page
	nav  time.Duration
	log  *slog.Logger
}

func (p *Page) ID() string { return p.id }

// Navigate loads a URL and waits for the load event, bounded by the
// configured navigation timeout.
func (p *Page) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, p.nav)
	defer cancel()

	if err := p.page.Context(navCtx).Navigate(url); err != nil {
		return fmt.Errorf("driver: navigate %s: %w", url, err)
	}
	if err := p.page.Context(navCtx).WaitLoad(); err != nil {
		p.log.Warn("driver: wait load timeout", "url", url, "error", err)
	}
	return nil
}

// URL reports the page's current URL, empty when it cannot be read.
func (p *Page) URL(ctx context.Context) string {
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// HTML serialises the complete DOM as outer HTML.
func (p *Page) HTML(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("driver: get DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// evalInto evaluates js and unmarshals the structured result into out.
func (p *Page) evalInto(ctx context.Context, js string, out any) error {
	res, err := p.page.Context(ctx).Eval(js)
	if err != nil {
		return fmt.Errorf("driver: eval: %w", err)
	}
	raw, err := json.Marshal(res.Value.Val())
	if err != nil {
		return fmt.Errorf("driver: decode eval result: %w", err)
	}
	return json.Unmarshal(raw, out)
}

// AXNodes fetches the full accessibility tree as the flat node list the
// protocol reports. Bounding boxes are filled in per node from the DOM; nodes
// whose boxes cannot be computed keep none.
func (p *Page) AXNodes(ctx context.Context) ([]*axtree.RawNode, error) {
	res, err := proto.AccessibilityGetFullAXTree{}.Call(p.page.Context(ctx))
	if err != nil {
		return nil, &element.DriverError{Op: "fetch accessibility tree", Cause: err}
	}

	out := make([]*axtree.RawNode, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		raw := &axtree.RawNode{
			ID:      string(n.NodeID),
			Ignored: n.Ignored,
		}
		if n.Role != nil {
			raw.Role = n.Role.Value.Str()
		}
		if n.Name != nil {
			raw.Name = n.Name.Value.Str()
		}
		if n.Value != nil {
			raw.Value = n.Value.Value.Str()
		}
		if n.Description != nil {
			raw.Description = n.Description.Value.Str()
		}
		if n.BackendDOMNodeID != 0 {
			raw.BackendNodeID = int64(n.BackendDOMNodeID)
			raw.Box = p.boxForBackendNode(ctx, n.BackendDOMNodeID)
		}
		for _, cid := range n.ChildIDs {
			raw.ChildIDs = append(raw.ChildIDs, string(cid))
		}
		out = append(out, raw)
	}
	return out, nil
}

func (p *Page) boxForBackendNode(ctx context.Context, id proto.DOMBackendNodeID) *element.BoundingBox {
	res, err := proto.DOMGetBoxModel{BackendNodeID: id}.Call(p.page.Context(ctx))
	if err != nil || res.Model == nil || len(res.Model.Content) < 8 {
		return nil
	}
	q := res.Model.Content
	minX, maxX := q[0], q[0]
	minY, maxY := q[1], q[1]
	for i := 2; i+1 < len(q); i += 2 {
		if q[i] < minX {
			minX = q[i]
		}
		if q[i] > maxX {
			maxX = q[i]
		}
		if q[i+1] < minY {
			minY = q[i+1]
		}
		if q[i+1] > maxY {
			maxY = q[i+1]
		}
	}
	return &element.BoundingBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// ScanItems runs the visual scan script against the live page.
func (p *Page) ScanItems(ctx context.Context) ([]scan.Item, error) {
	var items []scan.Item
	if err := p.evalInto(ctx, scan.Script(), &items); err != nil {
		return nil, &element.DriverError{Op: "visual scan", Cause: err}
	}
	return items, nil
}

// candidateStash is where the enumeration script parks the element list so a
// scored match can be turned back into a handle by index.
const candidateStash = "__shellchrome_candidates"

func candidatesScript() string {
	return `() => {
		const els = Array.from(document.querySelectorAll('button, input, a, select, textarea, label, h1, h2, h3, h4, h5, h6, [role], span, div, p'));
		window.` + candidateStash + ` = els;
		return els.map((el, i) => {
			const rect = el.getBoundingClientRect();
			const tag = el.tagName.toLowerCase();
			const aria = el.getAttribute('role');
			let role = aria || tag;
			if (tag === 'a') role = aria || 'link';
			else if (tag === 'input' || tag === 'textarea') role = aria || 'textbox';
			else if (/^h[1-6]$/.test(tag)) role = aria || 'heading';
			const label = el.getAttribute('aria-label');
			return {
				idx: i,
				role: role,
				text: (el.innerText || label || el.value || el.placeholder || '').trim().slice(0, 200),
				x: rect.left,
				y: rect.top
			};
		});
	}`
}

// Candidates enumerates the page's elements for scored matching.
func (p *Page) Candidates(ctx context.Context) ([]resolve.Candidate, error) {
	var cands []resolve.Candidate
	if err := p.evalInto(ctx, candidatesScript(), &cands); err != nil {
		return nil, err
	}
	return cands, nil
}

// HandleForCandidate retrieves the element a prior Candidates call stashed at
// the given index.
func (p *Page) HandleForCandidate(ctx context.Context, idx int) (resolve.Handle, error) {
	el, err := p.page.Context(ctx).ElementByJS(rod.Eval(
		`(i) => window.`+candidateStash+` && window.`+candidateStash+`[i]`, idx))
	if err != nil {
		return nil, fmt.Errorf("driver: candidate %d: %w", idx, err)
	}
	return &handle{el: el, log: p.log}, nil
}

// HandleForBackendNode resolves a backend DOM node id into a live element.
// It fails when the node no longer exists or is detached from the document.
func (p *Page) HandleForBackendNode(ctx context.Context, id int64) (resolve.Handle, error) {
	res, err := proto.DOMResolveNode{
		BackendNodeID: proto.DOMBackendNodeID(id),
	}.Call(p.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("driver: resolve node %d: %w", id, err)
	}
	el, err := p.page.Context(ctx).ElementFromObject(res.Object)
	if err != nil {
		return nil, fmt.Errorf("driver: element from node %d: %w", id, err)
	}
	h := &handle{el: el, log: p.log}
	attached, err := h.attached(ctx)
	if err != nil || !attached {
		h.Release(ctx)
		return nil, fmt.Errorf("driver: node %d detached", id)
	}
	return h, nil
}

// HandleForSelector resolves a CSS selector without waiting for the element
// to appear.
func (p *Page) HandleForSelector(ctx context.Context, selector string) (resolve.Handle, error) {
	el, err := p.page.Context(ctx).Sleeper(rod.NotFoundSleeper).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("driver: selector %q: %w", selector, err)
	}
	return &handle{el: el, log: p.log}, nil
}

// ClickAt dispatches a pointer click at viewport coordinates.
func (p *Page) ClickAt(ctx context.Context, x, y float64) error {
	mouse := p.page.Context(ctx).Mouse
	if err := mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("driver: move mouse: %w", err)
	}
	if err := mouse.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("driver: click at (%.0f, %.0f): %w", x, y, err)
	}
	return nil
}

// PressKey presses a named key (see keys.go) or a single character.
func (p *Page) PressKey(ctx context.Context, name string) error {
	key, err := lookupKey(name)
	if err != nil {
		return err
	}
	if err := p.page.Context(ctx).Keyboard.Press(key); err != nil {
		return fmt.Errorf("driver: press %q: %w", name, err)
	}
	return nil
}

// waitForPoll is how often WaitForText re-checks the page.
const waitForPoll = 100 * time.Millisecond

// WaitForText polls until the page's rendered text contains want or the
// timeout elapses.
func (p *Page) WaitForText(ctx context.Context, want string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		res, err := p.page.Context(ctx).Eval(
			`(t) => !!(document.body && document.body.innerText.includes(t))`, want)
		if err == nil && res.Value.Bool() {
			return nil
		}
		if time.Now().After(deadline) {
			return &element.TimeoutError{Op: fmt.Sprintf("wait for %q", want), Timeout: timeout}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitForPoll):
		}
	}
}

// Screenshot captures the viewport as PNG bytes.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := p.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, &element.DriverError{Op: "screenshot", Cause: err}
	}
	return data, nil
}
