package driver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/Huchangzhi/ShellChrome/browse/element"
)

// handle adapts a Rod element to the resolver's element contract.
type handle struct {
	el  *rod.Element
	log *slog.Logger
}

func (h *handle) attached(ctx context.Context) (bool, error) {
	res, err := h.el.Context(ctx).Eval(`() => this.isConnected`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (h *handle) ScrollIntoView(ctx context.Context) error {
	return h.el.Context(ctx).ScrollIntoView()
}

func (h *handle) Click(ctx context.Context) error {
	return h.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

func (h *handle) ClickJS(ctx context.Context) error {
	_, err := h.el.Context(ctx).Eval(`() => this.click()`)
	return err
}

func (h *handle) Hover(ctx context.Context) error {
	return h.el.Context(ctx).Hover()
}

// Clear removes the element's value by selecting everything and deleting it.
func (h *handle) Clear(ctx context.Context) error {
	el := h.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Type(input.Backspace)
}

func (h *handle) Type(ctx context.Context, text string) error {
	return h.el.Context(ctx).Input(text)
}

// SetValue assigns the value directly and fires the input/change events
// frameworks listen for.
func (h *handle) SetValue(ctx context.Context, text string) error {
	_, err := h.el.Context(ctx).Eval(`(v) => {
		this.value = v;
		this.dispatchEvent(new Event('input', { bubbles: true }));
		this.dispatchEvent(new Event('change', { bubbles: true }));
	}`, text)
	return err
}

func (h *handle) Box(ctx context.Context) (*element.BoundingBox, error) {
	shape, err := h.el.Context(ctx).Shape()
	if err != nil {
		return nil, fmt.Errorf("driver: element shape: %w", err)
	}
	box := shape.Box()
	if box == nil {
		return nil, fmt.Errorf("driver: element has no box")
	}
	return &element.BoundingBox{X: box.X, Y: box.Y, Width: box.Width, Height: box.Height}, nil
}

// OpensNewTab reports whether the element is a link targeting a new tab.
func (h *handle) OpensNewTab(ctx context.Context) (bool, error) {
	res, err := h.el.Context(ctx).Eval(`() => this.tagName === 'A' && this.target === '_blank'`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// Release frees the remote object. Errors are logged, not surfaced; a handle
// that cannot be released is already gone.
func (h *handle) Release(ctx context.Context) {
	if err := h.el.Context(ctx).Release(); err != nil {
		h.log.Debug("driver: release element", "error", err)
	}
}
