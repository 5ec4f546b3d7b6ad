// Package browser owns the shared Chrome instance behind the rendering
// strategy: lazy single-start, stealth page creation, resource blocking,
// and exactly-once teardown at run end.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// BlockedTypes lists resource types to block on every page
	// (images, stylesheets, fonts, media).
	BlockedTypes []string

	// BlockedHosts lists hostname substrings to block (analytics).
	BlockedHosts []string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if len(c.BlockedTypes) == 0 {
		c.BlockedTypes = []string{"images", "stylesheets", "fonts", "media"}
	}
	if len(c.BlockedHosts) == 0 {
		c.BlockedHosts = []string{
			"google-analytics.", "googletagmanager.", "doubleclick.",
			"facebook.net", "hotjar.", "segment.io",
		}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager manages the Chrome lifecycle. The browser is shared read-mostly
// across a run: one instance, many isolated page contexts. Lazy init is
// mutex-guarded so concurrent first-callers cannot race two instances up.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a Manager. Chrome starts on first Browser call.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Browser returns the shared Rod handle, launching Chrome on first use.
// A failed launch is retried once (self-repair); a second failure is the
// caller's fatal-initialization signal.
func (m *Manager) Browser(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}
	if m.browser != nil {
		return m.browser, nil
	}

	b, err := m.launch(ctx)
	if err != nil {
		m.cfg.Logger.Warn("browser: launch failed, retrying once", "error", err)
		m.cleanupLocked()
		if b, err = m.launch(ctx); err != nil {
			m.cleanupLocked()
			return nil, fmt.Errorf("browser: launch after retry: %w", err)
		}
	}

	m.browser = b
	return b, nil
}

// NewPage opens an isolated stealth page with resource blocking applied
// and the given user agent set. The caller owns the page and must close
// it on every exit path.
func (m *Manager) NewPage(ctx context.Context, userAgent string) (*rod.Page, error) {
	b, err := m.Browser(ctx)
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	if err := setUserAgent(page, userAgent); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: set user agent: %w", err)
	}

	if err := applyResourceBlocking(page, m.cfg.BlockedTypes, m.cfg.BlockedHosts); err != nil {
		m.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
	}

	return page, nil
}

// Close shuts down Chrome. Safe to call more than once; the browser is
// torn down exactly once.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.cleanupLocked()
	return nil
}

func (m *Manager) launch(ctx context.Context) (*rod.Browser, error) {
	log := m.cfg.Logger

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome")
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return b, nil
}

func (m *Manager) cleanupLocked() {
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
}
