// Package browser owns the process-wide headless Chrome instance used for
// HTML validation and functional tests. The browser launches lazily on the
// first acquisition and is reused by every caller afterward; each caller
// gets an isolated, short-lived Page (a tab) and must release it. When no
// Chrome binary is present, Acquire reports ErrUnavailable and callers
// degrade to structural checks instead of failing the validation.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrUnavailable signals that no headless browser can be launched on this
// host. It is the fallback indicator, not a failure: callers check for it
// with errors.Is and fall back to structural validation.
var ErrUnavailable = errors.New("browser: no chromium executable available")

// DefaultNavTimeout bounds a single page navigation. It is deliberately
// shorter than the sandbox process timeout; a stuck page aborts only that
// page, never the browser.
const DefaultNavTimeout = 10 * time.Second

// execCandidates are the binary names probed when CHROME_PATH is unset.
var execCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
	"chrome",
}

// Pool is the shared browser resource. The zero value is not usable; use
// NewPool. All methods are safe for concurrent use.
type Pool struct {
	navTimeout time.Duration
	execPath   string

	mu          sync.Mutex
	started     bool
	unavailable bool
	closed      bool
	rootCtx     context.Context
	rootCancel  context.CancelFunc
	allocCancel context.CancelFunc
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithNavTimeout overrides the per-page navigation timeout.
func WithNavTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.navTimeout = d
		}
	}
}

// WithExecPath pins the browser binary instead of probing PATH.
func WithExecPath(path string) PoolOption {
	return func(p *Pool) {
		p.execPath = path
	}
}

// NewPool creates a pool. The browser process itself is not launched until
// the first Acquire.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{navTimeout: DefaultNavTimeout}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Acquire returns an isolated page backed by the shared browser, starting
// the browser on first use. Returns ErrUnavailable when no browser can be
// launched; any other error means the pool is closed or the tab could not
// be created.
func (p *Pool) Acquire(ctx context.Context) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errors.New("browser: pool is closed")
	}
	if p.unavailable {
		return nil, ErrUnavailable
	}
	if !p.started {
		if err := p.startLocked(); err != nil {
			return nil, err
		}
	}

	tabCtx, tabCancel := chromedp.NewContext(p.rootCtx)
	page := newPage(tabCtx, tabCancel, p.navTimeout)
	return page, nil
}

// startLocked launches the browser. Caller holds p.mu.
func (p *Pool) startLocked() error {
	execPath := p.execPath
	if execPath == "" {
		execPath = findExecPath()
	}
	if execPath == "" {
		p.unavailable = true
		slog.Debug("no chromium binary found, browser validation disabled")
		return ErrUnavailable
	}
	if _, err := os.Stat(execPath); err != nil {
		p.unavailable = true
		slog.Debug("chromium binary not usable", "path", execPath, "error", err)
		return ErrUnavailable
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	rootCtx, rootCancel := chromedp.NewContext(allocCtx)

	// Run with no actions forces the browser process to launch now, so a
	// broken install degrades here instead of on every page.
	if err := chromedp.Run(rootCtx); err != nil {
		rootCancel()
		allocCancel()
		p.unavailable = true
		slog.Debug("browser failed to launch", "path", execPath, "error", err)
		return ErrUnavailable
	}

	p.rootCtx = rootCtx
	p.rootCancel = rootCancel
	p.allocCancel = allocCancel
	p.started = true
	slog.Debug("browser launched", "path", execPath)
	return nil
}

// Available reports whether a browser binary exists without launching it.
func (p *Pool) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unavailable || p.closed {
		return false
	}
	if p.started {
		return true
	}
	if p.execPath != "" {
		_, err := os.Stat(p.execPath)
		return err == nil
	}
	return findExecPath() != ""
}

// Close tears down the browser process. Call once at end of run; pages
// acquired earlier become invalid.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	if p.rootCancel != nil {
		p.rootCancel()
	}
	if p.allocCancel != nil {
		p.allocCancel()
	}
}

func findExecPath() string {
	if env := os.Getenv("CHROME_PATH"); env != "" {
		return env
	}
	for _, name := range execCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
