// Package browse is the snapshot-driven page automation engine.
//
// A Session owns one browser connection, the set of open pages, and the
// current element snapshot. Operators address elements through short-lived
// opaque uids handed out by snapshots ("uid_*") and visual scans ("ocr_*");
// the session resolves them back to live elements on demand. The pipeline:
//
//	driver → snapshot/scan → index → resolve → interact → driver
//
// Usage:
//
//	s, err := browse.New(cfg, logger)
//	defer s.Close()
//	s.Start(ctx)
//	s.Open(ctx, "https://example.com")
//	text, _ := s.TakeSnapshot(ctx)
//	s.Click(ctx, "uid_4")
package browse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Huchangzhi/ShellChrome/browse/element"
	"github.com/Huchangzhi/ShellChrome/browse/internal/axtree"
	"github.com/Huchangzhi/ShellChrome/browse/internal/driver"
	"github.com/Huchangzhi/ShellChrome/browse/internal/interact"
	"github.com/Huchangzhi/ShellChrome/browse/internal/resolve"
	"github.com/Huchangzhi/ShellChrome/browse/internal/scan"
	"github.com/Huchangzhi/ShellChrome/dbopen"
	"github.com/Huchangzhi/ShellChrome/idgen"
	"github.com/Huchangzhi/ShellChrome/observability"

	_ "modernc.org/sqlite"
)

// Engine is the action surface exposed to frontends (MCP tools, HTTP
// endpoints, script players). Session implements it.
type Engine interface {
	Open(ctx context.Context, url string) (driver.PageInfo, error)
	Navigate(ctx context.Context, url string) error
	ClosePage(ctx context.Context, id string) error
	SwitchPage(ctx context.Context, id string) (driver.PageInfo, error)
	Pages(ctx context.Context) []driver.PageInfo
	TakeSnapshot(ctx context.Context) (string, error)
	ScanElements(ctx context.Context) ([]element.NodeRecord, error)
	Click(ctx context.Context, uid string) error
	Fill(ctx context.Context, uid, text string) error
	Hover(ctx context.Context, uid string) error
	PressKey(ctx context.Context, key string) error
	WaitFor(ctx context.Context, text string, timeout time.Duration) error
	Screenshot(ctx context.Context, path string) ([]byte, error)
	PageContent(ctx context.Context) (string, error)
}

// Session drives one browser. Commands are strictly serialized: one command
// runs to completion, including its internal retries and fallbacks, before
// the next is accepted.
type Session struct {
	cfg     *Config
	id      string
	mgr     *driver.Manager
	index   *element.Index
	content *contentPipeline
	events  *observability.EventLogger
	db      *sql.DB
	logger  *slog.Logger

	mu sync.Mutex // command serialization
}

// New creates a Session. Call Start to connect the browser.
func New(cfg *Config, logger *slog.Logger) (*Session, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Driver.Logger = logger

	s := &Session{
		cfg:     cfg,
		id:      idgen.Prefixed("sess_", idgen.NanoID(8))(),
		mgr:     driver.NewManager(cfg.Driver),
		index:   element.NewIndex(),
		content: newContentPipeline(),
		logger:  logger,
	}

	if cfg.DBPath != "" {
		db, err := dbopen.Open(cfg.DBPath,
			dbopen.WithMkdirAll(),
			dbopen.WithSchema(observability.Schema),
		)
		if err != nil {
			return nil, fmt.Errorf("browse: open audit db: %w", err)
		}
		s.db = db
		s.events = observability.NewEventLogger(db)
	}
	return s, nil
}

// Start connects to (or launches) the browser and prunes expired audit rows.
func (s *Session) Start(ctx context.Context) error {
	if s.db != nil && s.cfg.AuditRetentionDays > 0 {
		cfg := observability.RetentionConfig{ActionEventsDays: s.cfg.AuditRetentionDays}
		if err := observability.Cleanup(ctx, s.db, cfg); err != nil {
			s.logger.Warn("browse: audit cleanup failed", "error", err)
		}
	}
	return s.mgr.Start(ctx)
}

// Close shuts down the browser and the audit store.
func (s *Session) Close() error {
	err := s.mgr.Close()
	if s.db != nil {
		if cerr := s.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Index exposes the uid table for frontends that display records directly.
func (s *Session) Index() *element.Index {
	return s.index
}

// audit records one completed command. It never fails the command.
func (s *Session) audit(ctx context.Context, action, target string, start time.Time, err error) {
	if s.events == nil {
		return
	}
	pageID := ""
	if p := s.mgr.CurrentPage(); p != nil {
		pageID = p.ID()
	}
	ev := observability.ActionEvent{
		Action:    action,
		Target:    target,
		PageID:    pageID,
		SessionID: s.id,
		Success:   err == nil,
		Duration:  time.Since(start),
	}
	if err != nil {
		ev.Err = err.Error()
	}
	s.events.LogAction(ctx, ev)
}

func (s *Session) currentPage() (*driver.Page, error) {
	p := s.mgr.CurrentPage()
	if p == nil {
		return nil, element.ErrNoPage
	}
	return p, nil
}

// interactDriver builds the interaction chain for the current page.
func (s *Session) interactDriver(p *driver.Page) *interact.Driver {
	return interact.New(resolve.New(p, s.index, s.logger), p, s.mgr, s.logger)
}

// Open creates a new page, navigates it, and makes it current.
func (s *Session) Open(ctx context.Context, url string) (driver.PageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	p, err := s.mgr.OpenPage(ctx, url)
	s.audit(ctx, "open", url, start, err)
	if err != nil {
		return driver.PageInfo{}, err
	}
	return driver.PageInfo{ID: p.ID(), URL: p.URL(ctx), Selected: true}, nil
}

// Navigate loads a URL in the current page.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	p, err := s.currentPage()
	if err == nil {
		err = p.Navigate(ctx, url)
	}
	s.audit(ctx, "navigate", url, start, err)
	return err
}

// ClosePage closes the page with the given id, or the current page when id
// is empty.
func (s *Session) ClosePage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	err := s.mgr.ClosePage(ctx, id)
	s.audit(ctx, "close_page", id, start, err)
	return err
}

// SwitchPage makes the page with the given id current. The snapshot is left
// alone; resolving old uids against the new page is the caller's mistake to
// make.
func (s *Session) SwitchPage(ctx context.Context, id string) (driver.PageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	p, err := s.mgr.SwitchPage(ctx, id)
	s.audit(ctx, "switch_page", id, start, err)
	if err != nil {
		return driver.PageInfo{}, err
	}
	return driver.PageInfo{ID: p.ID(), URL: p.URL(ctx), Selected: true}, nil
}

// Pages lists the open pages in creation order.
func (s *Session) Pages(ctx context.Context) []driver.PageInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mgr.ListPages(ctx)
}

// TakeSnapshot captures the accessibility tree of the current page, replaces
// the tree uid namespace, and returns the rendered element tree. A page with
// no accessible elements yields the sentinel text, not an error.
func (s *Session) TakeSnapshot(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	text, err := s.takeSnapshotLocked(ctx)
	s.audit(ctx, "snapshot", "", start, err)
	return text, err
}

func (s *Session) takeSnapshotLocked(ctx context.Context) (string, error) {
	p, err := s.currentPage()
	if err != nil {
		return "", err
	}
	nodes, err := p.AXNodes(ctx)
	if err != nil {
		return "", err
	}
	snap := axtree.BuildFlat(nodes)
	epoch := s.index.ReplaceTree(snap.Index)
	snap.Epoch = epoch
	s.logger.Info("browse: snapshot taken",
		"page_id", p.ID(), "epoch", epoch, "elements", len(snap.Index))
	return element.RenderText(snap), nil
}

// ScanElements runs the flat visual scan on the current page, replaces the
// scan uid namespace, and returns the records in visual order.
func (s *Session) ScanElements(ctx context.Context) ([]element.NodeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	recs, err := s.scanElementsLocked(ctx)
	s.audit(ctx, "scan_elements", "", start, err)
	return recs, err
}

func (s *Session) scanElementsLocked(ctx context.Context) ([]element.NodeRecord, error) {
	p, err := s.currentPage()
	if err != nil {
		return nil, err
	}
	items, err := p.ScanItems(ctx)
	if err != nil {
		return nil, err
	}
	recs := scan.ToRecords(items)
	s.index.ReplaceScan(recs)
	s.logger.Info("browse: visual scan", "page_id", p.ID(), "elements", len(recs))
	return recs, nil
}

// Click clicks the element with the given uid.
func (s *Session) Click(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	p, err := s.currentPage()
	if err == nil {
		err = s.interactDriver(p).Click(ctx, uid)
	}
	s.audit(ctx, "click", uid, start, err)
	return err
}

// Fill replaces the value of the element with the given uid.
func (s *Session) Fill(ctx context.Context, uid, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	p, err := s.currentPage()
	if err == nil {
		err = s.interactDriver(p).Fill(ctx, uid, text)
	}
	s.audit(ctx, "fill", uid, start, err)
	return err
}

// Hover moves the pointer over the element with the given uid.
func (s *Session) Hover(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	p, err := s.currentPage()
	if err == nil {
		err = s.interactDriver(p).Hover(ctx, uid)
	}
	s.audit(ctx, "hover", uid, start, err)
	return err
}

// PressKey presses a named key or single character on the current page.
func (s *Session) PressKey(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	p, err := s.currentPage()
	if err == nil {
		err = p.PressKey(ctx, key)
	}
	s.audit(ctx, "press_key", key, start, err)
	return err
}

// WaitFor blocks until the page's rendered text contains text or the timeout
// elapses. A non-positive timeout uses the configured default.
func (s *Session) WaitFor(ctx context.Context, text string, timeout time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	if timeout <= 0 {
		timeout = s.cfg.DefaultWaitTimeout
	}
	p, err := s.currentPage()
	if err == nil {
		err = p.WaitForText(ctx, text, timeout)
	}
	s.audit(ctx, "wait_for", text, start, err)
	return err
}

// Screenshot captures the current page as PNG bytes, optionally writing them
// to path as well.
func (s *Session) Screenshot(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	data, err := s.screenshotLocked(ctx, path)
	s.audit(ctx, "screenshot", path, start, err)
	return data, err
}

func (s *Session) screenshotLocked(ctx context.Context, path string) ([]byte, error) {
	p, err := s.currentPage()
	if err != nil {
		return nil, err
	}
	data, err := p.Screenshot(ctx)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("browse: write screenshot: %w", err)
		}
	}
	return data, nil
}

// PageContent renders the current page's DOM as markdown.
func (s *Session) PageContent(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := time.Now()

	md, err := s.pageContentLocked(ctx)
	s.audit(ctx, "page_content", "", start, err)
	return md, err
}

func (s *Session) pageContentLocked(ctx context.Context) (string, error) {
	p, err := s.currentPage()
	if err != nil {
		return "", err
	}
	html, err := p.HTML(ctx)
	if err != nil {
		return "", err
	}
	return s.content.Markdown(html, p.URL(ctx))
}
