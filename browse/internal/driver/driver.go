// Package driver owns the Chrome connection and the open-page set. It wraps
// Rod: launching or attaching to a browser, creating stealth pages, and
// handing out the page/element primitives the snapshot and interaction layers
// are built on.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/Huchangzhi/ShellChrome/idgen"
)

// Config configures the browser driver.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string `yaml:"remote_url"`

	// Headless runs the local Chrome without a display. Default: true.
	Headless *bool `yaml:"headless"`

	// Stealth applies anti-detection patches to every new page. Default: true.
	Stealth *bool `yaml:"stealth"`

	// NavTimeout bounds navigation plus load wait. Default: 30s.
	NavTimeout time.Duration `yaml:"nav_timeout"`

	Logger *slog.Logger `yaml:"-"`
}

func (c *Config) defaults() {
	if c.Headless == nil {
		v := true
		c.Headless = &v
	}
	if c.Stealth == nil {
		v := true
		c.Stealth = &v
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// PageInfo describes one open page for listing and selection.
type PageInfo struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Selected bool   `json:"selected"`
}

// Manager owns the browser process and the ordered set of open pages.
// Exactly one page is current at any time once a page exists.
type Manager struct {
	cfg  Config
	gen  idgen.Generator
	mu   sync.Mutex
	b    *rod.Browser
	lnch *launcher.Launcher

	pages   []*Page // creation order
	current *Page
	closed  bool
}

func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg, gen: idgen.Prefixed("pg_", idgen.NanoID(8))}
}

// Start launches Chrome (or connects to a remote instance).
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("driver: manager is closed")
	}

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		m.cfg.Logger.Info("driver: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(*m.cfg.Headless)
		l = l.Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("driver: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		m.cfg.Logger.Info("driver: launched local chrome", "url", wsURL, "headless", *m.cfg.Headless)
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("driver: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		m.cfg.Logger.Warn("driver: ignore cert errors failed", "error", err)
	}
	m.b = b
	return nil
}

// Close shuts down every page and the browser.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.pages = nil
	m.current = nil
	if m.b != nil {
		m.b.Close()
		m.b = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}

// OpenPage creates a new page, navigates it, and makes it current.
func (m *Manager) OpenPage(ctx context.Context, url string) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.b == nil {
		return nil, fmt.Errorf("driver: no active browser")
	}

	var rp *rod.Page
	var err error
	if *m.cfg.Stealth {
		rp, err = stealth.Page(m.b)
	} else {
		rp, err = m.b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("driver: create page: %w", err)
	}

	p := m.newPageLocked(rp)
	if url != "" {
		if err := p.Navigate(ctx, url); err != nil {
			rp.Close()
			m.dropLocked(p)
			return nil, err
		}
	}
	m.current = p
	return p, nil
}

func (m *Manager) newPageLocked(rp *rod.Page) *Page {
	p := &Page{
		id:   m.gen(),
		page: rp,
		nav:  m.cfg.NavTimeout,
		log:  m.cfg.Logger,
	}
	m.pages = append(m.pages, p)
	return p
}

func (m *Manager) dropLocked(p *Page) {
	for i, q := range m.pages {
		if q == p {
			m.pages = append(m.pages[:i], m.pages[i+1:]...)
			break
		}
	}
	if m.current == p {
		m.current = nil
		if n := len(m.pages); n > 0 {
			m.current = m.pages[n-1]
		}
	}
}

// ClosePage closes the page with the given id, or the current page when id is
// empty. The most recently created surviving page becomes current.
func (m *Manager) ClosePage(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.current
	if id != "" {
		p = m.findLocked(id)
	}
	if p == nil {
		return fmt.Errorf("driver: no page %q", id)
	}
	if err := p.page.Close(); err != nil {
		m.cfg.Logger.Warn("driver: close page", "page_id", p.id, "error", err)
	}
	m.dropLocked(p)
	return nil
}

// SwitchPage makes the page with the given id current and focuses it.
func (m *Manager) SwitchPage(ctx context.Context, id string) (*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.findLocked(id)
	if p == nil {
		return nil, fmt.Errorf("driver: no page %q", id)
	}
	if _, err := p.page.Context(ctx).Activate(); err != nil {
		m.cfg.Logger.Debug("driver: activate page", "page_id", id, "error", err)
	}
	m.current = p
	return p, nil
}

// CurrentPage returns the current page, or nil when none is open.
func (m *Manager) CurrentPage() *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// ListPages reports the open pages in creation order.
func (m *Manager) ListPages(ctx context.Context) []PageInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PageInfo, 0, len(m.pages))
	for _, p := range m.pages {
		out = append(out, PageInfo{
			ID:       p.id,
			URL:      p.URL(ctx),
			Selected: p == m.current,
		})
	}
	return out
}

func (m *Manager) findLocked(id string) *Page {
	for _, p := range m.pages {
		if p.id == id {
			return p
		}
	}
	return nil
}

// Count reports how many pages the browser itself has open, including ones
// this manager has not adopted yet (for example a tab a click just spawned).
func (m *Manager) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	b := m.b
	m.mu.Unlock()
	if b == nil {
		return 0, fmt.Errorf("driver: no active browser")
	}
	pages, err := b.Context(ctx).Pages()
	if err != nil {
		return 0, fmt.Errorf("driver: list targets: %w", err)
	}
	return len(pages), nil
}

// SwitchToNewest adopts any browser page this manager does not know about
// and makes the newest adoption current. Used after a click opens a tab.
func (m *Manager) SwitchToNewest(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.b == nil {
		return fmt.Errorf("driver: no active browser")
	}
	live, err := m.b.Context(ctx).Pages()
	if err != nil {
		return fmt.Errorf("driver: list targets: %w", err)
	}

	known := make(map[proto.TargetTargetID]bool, len(m.pages))
	for _, p := range m.pages {
		known[p.page.TargetID] = true
	}
	var adopted *Page
	for _, rp := range live {
		if known[rp.TargetID] {
			continue
		}
		adopted = m.newPageLocked(rp)
		m.cfg.Logger.Info("driver: adopted new tab", "page_id", adopted.id)
	}
	if adopted == nil {
		return nil
	}
	if _, err := adopted.page.Context(ctx).Activate(); err != nil {
		m.cfg.Logger.Debug("driver: activate adopted tab", "error", err)
	}
	m.current = adopted
	return nil
}
