// Package interact applies high-level actions to elements addressed by uid.
// Each action resolves the uid to a live handle, steadies the layout, and
// then works through an ordered chain of interaction primitives. Failures
// inside the click chain are swallowed until the chain is exhausted.
package interact

import (
	"context"
	"log/slog"
	"time"

	"github.com/Huchangzhi/ShellChrome/browse/element"
	"github.com/Huchangzhi/ShellChrome/browse/internal/resolve"
)

// settleDelay is how long layout gets to stabilize after scrolling an element
// into view, and how long a freshly opened tab gets before it is looked for.
const settleDelay = 100 * time.Millisecond

// Resolver turns uids into live element handles.
type Resolver interface {
	Resolve(ctx context.Context, uid string) (resolve.Handle, error)
}

// Page is the slice of the browser driver the interaction layer needs beyond
// element handles.
type Page interface {
	// ClickAt dispatches a pointer click at viewport coordinates.
	ClickAt(ctx context.Context, x, y float64) error
}

// Tabs manages the open-page set for new-tab follow-up after link clicks.
type Tabs interface {
	Count(ctx context.Context) (int, error)
	SwitchToNewest(ctx context.Context) error
}

// Driver executes click, fill, and hover against one page.
type Driver struct {
	resolver Resolver
	page     Page
	tabs     Tabs
	log      *slog.Logger

	// settle overrides settleDelay in tests.
	settle time.Duration
}

func New(resolver Resolver, page Page, tabs Tabs, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.Default()
	}
	return &Driver{resolver: resolver, page: page, tabs: tabs, log: log, settle: settleDelay}
}

func (d *Driver) wait(ctx context.Context) {
	if d.settle <= 0 {
		return
	}
	t := time.NewTimer(d.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// prepare resolves the uid and scrolls the element into view. The caller must
// Release the returned handle.
func (d *Driver) prepare(ctx context.Context, uid string) (resolve.Handle, error) {
	h, err := d.resolver.Resolve(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := h.ScrollIntoView(ctx); err != nil {
		d.log.Debug("interact: scroll into view failed", "uid", uid, "error", err)
	}
	d.wait(ctx)
	return h, nil
}

// Click clicks the element. Strategies run in order until one succeeds:
// script-level click, native input click, pointer click at the bounding box
// center. When the element is a link that targets a new tab, a successful
// click is followed by a tab re-enumeration and a switch to the newest page.
func (d *Driver) Click(ctx context.Context, uid string) error {
	h, err := d.prepare(ctx, uid)
	if err != nil {
		return err
	}
	defer h.Release(ctx)

	newTab, err := h.OpensNewTab(ctx)
	if err != nil {
		newTab = false
	}

	if err := d.clickChain(ctx, uid, h); err != nil {
		return err
	}
	if newTab {
		d.followNewTab(ctx, uid)
	}
	return nil
}

func (d *Driver) clickChain(ctx context.Context, uid string, h resolve.Handle) error {
	var lastErr error

	if lastErr = h.ClickJS(ctx); lastErr == nil {
		return nil
	}
	d.log.Debug("interact: script click failed", "uid", uid, "error", lastErr)

	if lastErr = h.Click(ctx); lastErr == nil {
		return nil
	}
	d.log.Debug("interact: native click failed", "uid", uid, "error", lastErr)

	box, err := h.Box(ctx)
	if err == nil && box != nil {
		cx := box.X + box.Width/2
		cy := box.Y + box.Height/2
		if lastErr = d.page.ClickAt(ctx, cx, cy); lastErr == nil {
			return nil
		}
		d.log.Debug("interact: coordinate click failed", "uid", uid, "error", lastErr)
	}
	return &element.DriverError{Op: "click " + uid, Cause: lastErr}
}

func (d *Driver) followNewTab(ctx context.Context, uid string) {
	if d.tabs == nil {
		return
	}
	d.wait(ctx)
	n, err := d.tabs.Count(ctx)
	if err != nil || n <= 1 {
		return
	}
	if err := d.tabs.SwitchToNewest(ctx); err != nil {
		d.log.Warn("interact: switch to new tab failed", "uid", uid, "error", err)
	}
}

// Fill replaces the element's value with text. Any existing value is cleared
// first, with the standard input/change notifications fired, so the result is
// exactly text rather than a concatenation.
func (d *Driver) Fill(ctx context.Context, uid, text string) error {
	h, err := d.prepare(ctx, uid)
	if err != nil {
		return err
	}
	defer h.Release(ctx)

	if err := h.SetValue(ctx, ""); err != nil {
		// Older inputs reject scripted value assignment; select-all
		// and type over it instead.
		if err := h.Clear(ctx); err != nil {
			return &element.DriverError{Op: "clear " + uid, Cause: err}
		}
	}
	if err := h.Type(ctx, text); err != nil {
		return &element.DriverError{Op: "fill " + uid, Cause: err}
	}
	return nil
}

// Hover moves the pointer over the element.
func (d *Driver) Hover(ctx context.Context, uid string) error {
	h, err := d.prepare(ctx, uid)
	if err != nil {
		return err
	}
	defer h.Release(ctx)

	if err := h.Hover(ctx); err != nil {
		return &element.DriverError{Op: "hover " + uid, Cause: err}
	}
	return nil
}
