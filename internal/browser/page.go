package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Page is one isolated tab drawn from the Pool. It records uncaught page
// exceptions and console error output from the moment it is created until
// it is released. A Page is owned by a single validation or test; Release
// must run on every exit path.
type Page struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration

	mu       sync.Mutex
	errs     []string
	released bool
}

func newPage(ctx context.Context, cancel context.CancelFunc, timeout time.Duration) *Page {
	p := &Page{ctx: ctx, cancel: cancel, timeout: timeout}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch e := ev.(type) {
		case *runtime.EventExceptionThrown:
			p.record(fmt.Sprintf("JS Error: %s", exceptionText(e)))
		case *runtime.EventConsoleAPICalled:
			if e.Type == runtime.APITypeError {
				p.record(fmt.Sprintf("Console error: %s", consoleText(e)))
			}
		}
	})

	return p
}

func (p *Page) record(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, msg)
}

// Errors returns a copy of the page errors collected so far.
func (p *Page) Errors() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.errs))
	copy(out, p.errs)
	return out
}

// Navigate loads url and waits briefly for client-side initialization.
// The page timeout bounds the whole operation; on expiry only this page
// is abandoned, the browser stays up.
func (p *Page) Navigate(url string) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.Sleep(200*time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

// Run executes chromedp actions against this page under the page timeout.
// Functional test predicates build on this and the helpers below.
func (p *Page) Run(actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Text returns the text content of the first node matching the CSS
// selector.
func (p *Page) Text(selector string) (string, error) {
	var text string
	if err := p.Run(chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return text, nil
}

// Exists reports whether any node matches the CSS selector.
func (p *Page) Exists(selector string) (bool, error) {
	var count int
	err := p.Run(chromedp.Evaluate(
		fmt.Sprintf("document.querySelectorAll(%q).length", selector), &count))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Click dispatches a click on the first node matching the CSS selector.
func (p *Page) Click(selector string) error {
	return p.Run(chromedp.Click(selector, chromedp.ByQuery))
}

// Title returns the document title.
func (p *Page) Title() (string, error) {
	var title string
	if err := p.Run(chromedp.Title(&title)); err != nil {
		return "", err
	}
	return title, nil
}

// Eval evaluates a JavaScript expression, unmarshaling the result into
// out (pass nil to discard).
func (p *Page) Eval(expression string, out any) error {
	if out == nil {
		var discard any
		out = &discard
	}
	return p.Run(chromedp.Evaluate(expression, out))
}

// Screenshot captures the viewport as PNG bytes.
func (p *Page) Screenshot() ([]byte, error) {
	var buf []byte
	if err := p.Run(chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	return buf, nil
}

// Release closes the tab. Idempotent; the shared browser process is not
// touched.
func (p *Page) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return
	}
	p.released = true
	p.cancel()
}

func exceptionText(ev *runtime.EventExceptionThrown) string {
	d := ev.ExceptionDetails
	if d == nil {
		return "unknown exception"
	}
	if d.Exception != nil && d.Exception.Description != "" {
		return d.Exception.Description
	}
	return d.Text
}

func consoleText(ev *runtime.EventConsoleAPICalled) string {
	parts := make([]string, 0, len(ev.Args))
	for _, arg := range ev.Args {
		if arg == nil {
			continue
		}
		if arg.Description != "" {
			parts = append(parts, arg.Description)
			continue
		}
		if len(arg.Value) > 0 {
			parts = append(parts, strings.Trim(string(arg.Value), `"`))
		}
	}
	if len(parts) == 0 {
		return "(no message)"
	}
	return strings.Join(parts, " ")
}
