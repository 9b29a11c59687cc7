// Package resolve maps opaque element identifiers back to live DOM handles.
// A snapshot is always somewhat stale by the time anyone acts on it, so
// resolution is a chain of strategies: the recorded direct handle first, then
// a scored re-match against the current page, then replay of the structural
// locator. Scan identifiers are re-derived by a fresh scan before the chain
// runs. Failures inside the chain are recovery points, not errors; only
// exhausting the chain surfaces one. Resolution never writes to the index.
package resolve

import (
	"context"
	"log/slog"

	"github.com/Huchangzhi/ShellChrome/browse/element"
	"github.com/Huchangzhi/ShellChrome/browse/internal/scan"
)

// Handle is a live reference to a DOM element. Callers own the reference and
// must Release it when done. Click is the driver's native input-event click;
// ClickJS dispatches a script-level click on the element itself. SetValue
// replaces the element's value and fires the standard input/change
// notifications without simulating keystrokes.
type Handle interface {
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context) error
	ClickJS(ctx context.Context) error
	Hover(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	SetValue(ctx context.Context, text string) error
	Box(ctx context.Context) (*element.BoundingBox, error)
	OpensNewTab(ctx context.Context) (bool, error)
	Release(ctx context.Context)
}

// Page is the slice of the browser driver the resolver needs.
type Page interface {
	// HandleForBackendNode turns a backend DOM node id into a handle. It
	// fails when the node is gone or detached.
	HandleForBackendNode(ctx context.Context, id int64) (Handle, error)
	// HandleForSelector resolves a CSS selector, failing when nothing
	// matches.
	HandleForSelector(ctx context.Context, selector string) (Handle, error)
	// Candidates enumerates the page's elements for scored matching.
	Candidates(ctx context.Context) ([]Candidate, error)
	// HandleForCandidate turns a candidate index from the most recent
	// Candidates call into a handle.
	HandleForCandidate(ctx context.Context, idx int) (Handle, error)
	// ScanItems re-runs the visual scan on the live page.
	ScanItems(ctx context.Context) ([]scan.Item, error)
}

// Resolver resolves identifiers against one page using the records held in
// the shared index.
type Resolver struct {
	page  Page
	index *element.Index
	log   *slog.Logger
}

func New(page Page, index *element.Index, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{page: page, index: index, log: log}
}

// Resolve turns a uid into a live handle or reports why it cannot.
func (r *Resolver) Resolve(ctx context.Context, uid string) (Handle, error) {
	ns, _, ok := element.ParseUID(uid)
	if !ok {
		return nil, &element.NotFoundError{UID: uid, Reason: "malformed identifier"}
	}
	rec, ok := r.index.Get(uid)
	if !ok {
		return nil, &element.NotFoundError{UID: uid, Reason: "not in current snapshot"}
	}
	switch ns {
	case element.TreePrefix:
		return r.resolveTree(ctx, rec)
	default:
		return r.resolveScan(ctx, rec)
	}
}

func (r *Resolver) resolveTree(ctx context.Context, rec *element.NodeRecord) (Handle, error) {
	if id := rec.Locator.BackendNodeID; id != 0 {
		h, err := r.page.HandleForBackendNode(ctx, id)
		if err == nil {
			return h, nil
		}
		r.log.Debug("resolve: backend node gone, rematching", "uid", rec.UID, "error", err)
	}
	if h, err := r.rematch(ctx, rec); err == nil {
		return h, nil
	}
	return nil, &element.StaleError{UID: rec.UID}
}

func (r *Resolver) resolveScan(ctx context.Context, rec *element.NodeRecord) (Handle, error) {
	// Scan records are re-derived at lookup time: re-run the scan and take
	// the same ordinal from the fresh list. When the page changed between
	// scan and lookup, the ordinal names whatever element holds that
	// position now; scan identifiers are volatile by contract. The shared
	// index is never touched during resolution.
	if fresh, ok := r.rescan(ctx, rec); ok {
		rec = fresh
	}
	if h, err := r.rematch(ctx, rec); err == nil {
		return h, nil
	}
	if sel := rec.Locator.Selector; sel != "" {
		h, err := r.page.HandleForSelector(ctx, sel)
		if err == nil {
			return h, nil
		}
		r.log.Debug("resolve: selector replay failed", "uid", rec.UID, "selector", sel, "error", err)
	}
	return nil, &element.StaleError{UID: rec.UID}
}

func (r *Resolver) rescan(ctx context.Context, rec *element.NodeRecord) (*element.NodeRecord, bool) {
	items, err := r.page.ScanItems(ctx)
	if err != nil {
		r.log.Debug("resolve: rescan failed", "uid", rec.UID, "error", err)
		return nil, false
	}
	recs := scan.ToRecords(items)
	_, n, ok := element.ParseUID(rec.UID)
	if !ok || n > len(recs) {
		return nil, false
	}
	return &recs[n-1], true
}

func (r *Resolver) rematch(ctx context.Context, rec *element.NodeRecord) (Handle, error) {
	cands, err := r.page.Candidates(ctx)
	if err != nil {
		return nil, &element.DriverError{Op: "enumerate candidates", Cause: err}
	}
	best, score, ok := Best(rec, cands)
	if !ok {
		return nil, &element.StaleError{UID: rec.UID}
	}
	r.log.Debug("resolve: scored rematch", "uid", rec.UID, "score", score, "candidate", best.Index)
	return r.page.HandleForCandidate(ctx, best.Index)
}
