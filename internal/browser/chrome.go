// internal/browser/chrome.go
package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Snapshot is the raw style data read from a rendered page.
type Snapshot struct {
	Stylesheets string
	Colors      []string
	Fonts       []string
}

// Browser renders a page and reads its style data.
type Browser interface {
	Snapshot(ctx context.Context, url string) (*Snapshot, error)
}

// Options configures Chrome.
type Options struct {
	// RemoteURL points at a running Chrome's DevTools websocket. Empty launches a local headless Chrome.
	RemoteURL string
	UserAgent string
}

// Chrome gives every Snapshot call its own browser: a fresh local process, or
// a fresh browser context (separate cookies, cache and storage) on a remote one.
type Chrome struct {
	opts Options
}

func NewChrome(opts Options) *Chrome {
	return &Chrome{opts: opts}
}

const stylesheetsJS = `Array.from(document.querySelectorAll('link[rel="stylesheet"], style'))
	.map(node => node.textContent)
	.filter(text => text && text.trim() !== '')
	.join('\n')`

const colorsJS = `(() => {
	const seen = new Set();
	for (const el of document.querySelectorAll('*')) {
		const style = window.getComputedStyle(el);
		for (const value of [style.color, style.backgroundColor]) {
			if (value && value !== 'rgba(0, 0, 0, 0)') seen.add(value);
		}
	}
	return Array.from(seen);
})()`

const fontsJS = `(() => {
	const seen = new Set();
	for (const el of document.querySelectorAll('*')) {
		const style = window.getComputedStyle(el);
		for (const value of [style.fontFamily, style.fontSize]) {
			if (value) seen.add(value);
		}
	}
	return Array.from(seen);
})()`

func (c *Chrome) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.RemoteURL != "" {
		return chromedp.NewRemoteAllocator(ctx, c.opts.RemoteURL)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	if c.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.opts.UserAgent))
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}

// newTab opens the tab a Snapshot runs in. On a remote browser the tab lives
// in a new browser context that is disposed when the returned cancel runs.
func (c *Chrome) newTab(ctx context.Context) (context.Context, context.CancelFunc, error) {
	allocCtx, allocCancel := c.allocator(ctx)
	if c.opts.RemoteURL == "" {
		tabCtx, tabCancel := chromedp.NewContext(allocCtx)
		return tabCtx, func() { tabCancel(); allocCancel() }, nil
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, nil, fmt.Errorf("connect to remote chrome: %w", contextErr(browserCtx, err))
	}
	tabCtx, tabCancel := chromedp.NewContext(browserCtx, chromedp.WithNewBrowserContext())
	return tabCtx, func() {
		tabCancel()
		browserCancel()
		allocCancel()
	}, nil
}

// Snapshot navigates to url, waits until the main frame's network is almost
// idle and runs the three extraction passes. ctx bounds the whole call; the
// browser is torn down before Snapshot returns.
func (c *Chrome) Snapshot(ctx context.Context, url string) (*Snapshot, error) {
	tabCtx, cancel, err := c.newTab(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	watcher := newIdleWatcher()
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok {
			watcher.observe(e.FrameID, e.Name)
		}
	})

	if err := chromedp.Run(tabCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		return nil, fmt.Errorf("enable lifecycle events: %w", contextErr(tabCtx, err))
	}
	// the main frame shares the target's id
	watcher.setMainFrame(cdp.FrameID(chromedp.FromContext(tabCtx).Target.TargetID))

	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		return nil, fmt.Errorf("navigate: %w", contextErr(tabCtx, err))
	}

	select {
	case <-watcher.idle:
	case <-tabCtx.Done():
		return nil, fmt.Errorf("wait for network idle: %w", tabCtx.Err())
	}

	snap := &Snapshot{}
	if err := chromedp.Run(tabCtx,
		chromedp.Evaluate(stylesheetsJS, &snap.Stylesheets),
		chromedp.Evaluate(colorsJS, &snap.Colors),
		chromedp.Evaluate(fontsJS, &snap.Fonts),
	); err != nil {
		return nil, fmt.Errorf("evaluate: %w", contextErr(tabCtx, err))
	}
	return snap, nil
}

// contextErr prefers the context's error so deadline expiry stays detectable.
func contextErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// idleWatcher closes idle on the first networkAlmostIdle of the main frame
// that follows its init event. Events from other frames and those seen before
// the main frame is known are ignored, so neither an iframe nor the blank
// start page can release the wait.
type idleWatcher struct {
	mu        sync.Mutex
	mainFrame cdp.FrameID
	sawInit   bool
	once      sync.Once
	idle      chan struct{}
}

func newIdleWatcher() *idleWatcher {
	return &idleWatcher{idle: make(chan struct{})}
}

func (w *idleWatcher) setMainFrame(id cdp.FrameID) {
	w.mu.Lock()
	w.mainFrame = id
	w.mu.Unlock()
}

func (w *idleWatcher) observe(frame cdp.FrameID, event string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mainFrame == "" || frame != w.mainFrame {
		return
	}
	switch event {
	case "init":
		w.sawInit = true
	case "networkAlmostIdle":
		if w.sawInit {
			w.once.Do(func() { close(w.idle) })
		}
	}
}
