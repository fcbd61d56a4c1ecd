package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestIdleWatcher(t *testing.T) {
	const main = cdp.FrameID("MAIN")

	newWatcher := func() *idleWatcher {
		w := newIdleWatcher()
		w.setMainFrame(main)
		return w
	}

	t.Run("idle before init is ignored", func(t *testing.T) {
		w := newWatcher()
		w.observe(main, "networkAlmostIdle")
		assert.False(t, isClosed(w.idle))
	})

	t.Run("idle after init fires once", func(t *testing.T) {
		w := newWatcher()
		w.observe(main, "init")
		w.observe(main, "load")
		w.observe(main, "networkAlmostIdle")
		w.observe(main, "networkAlmostIdle")
		assert.True(t, isClosed(w.idle))
	})

	t.Run("networkIdle alone does not count", func(t *testing.T) {
		w := newWatcher()
		w.observe(main, "init")
		w.observe(main, "networkIdle")
		assert.False(t, isClosed(w.idle))
	})

	t.Run("iframe events are ignored", func(t *testing.T) {
		w := newWatcher()
		w.observe("IFRAME", "init")
		w.observe("IFRAME", "networkAlmostIdle")
		assert.False(t, isClosed(w.idle))

		w.observe(main, "init")
		w.observe("IFRAME", "networkAlmostIdle")
		assert.False(t, isClosed(w.idle))

		w.observe(main, "networkAlmostIdle")
		assert.True(t, isClosed(w.idle))
	})

	t.Run("events before the main frame is known are ignored", func(t *testing.T) {
		w := newIdleWatcher()
		w.observe(main, "init")
		w.observe(main, "networkAlmostIdle")
		assert.False(t, isClosed(w.idle))

		w.setMainFrame(main)
		w.observe(main, "networkAlmostIdle")
		assert.False(t, isClosed(w.idle), "init seen before setMainFrame does not count")
	})
}

func TestRemoteChromeUnreachable(t *testing.T) {
	// nothing listens here, so the connect step fails before any tab opens
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := NewChrome(Options{RemoteURL: "ws://" + addr + "/devtools/browser/none"}).Snapshot(ctx, "http://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to remote chrome")
}

func TestContextErrPrefersDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	assert.ErrorIs(t, contextErr(ctx, assert.AnError), context.DeadlineExceeded)
	assert.ErrorIs(t, contextErr(context.Background(), assert.AnError), assert.AnError)
}

const testPage = `<!doctype html>
<html><head>
<style>
/* brand */
body { color: rgb(10, 20, 30); background-color: rgb(250, 250, 250); font-family: Georgia; font-size: 16px; }
</style>
<style>   </style>
</head><body><h1 style="color: rgb(200, 0, 0)">Hello</h1></body></html>`

// Needs a local Chrome; enable with CHROME_TESTS=1.
func TestChromeSnapshot(t *testing.T) {
	if os.Getenv("CHROME_TESTS") == "" {
		t.Skip("set CHROME_TESTS=1 to run against a real Chrome")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(testPage))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snap, err := NewChrome(Options{}).Snapshot(ctx, srv.URL)
	require.NoError(t, err)

	assert.Contains(t, snap.Stylesheets, "font-family: Georgia")
	assert.NotContains(t, snap.Stylesheets, "\n\n")
	assert.Contains(t, snap.Colors, "rgb(200, 0, 0)")
	assert.NotContains(t, snap.Colors, "rgba(0, 0, 0, 0)")
	assert.Contains(t, snap.Fonts, "Georgia")
	assert.Contains(t, snap.Fonts, "16px")
}

// Needs a running Chrome; point CHROME_REMOTE_URL at its DevTools websocket.
func TestRemoteChromeIsolatesSnapshots(t *testing.T) {
	remote := os.Getenv("CHROME_REMOTE_URL")
	if remote == "" {
		t.Skip("set CHROME_REMOTE_URL to run against a remote Chrome")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		marker := "fresh"
		if _, err := r.Cookie("visited"); err == nil {
			marker = "returning"
		}
		http.SetCookie(w, &http.Cookie{Name: "visited", Value: "1", Path: "/"})
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<style>/* " + marker + " */ body { color: red; }</style>"))
	}))
	defer srv.Close()

	chrome := NewChrome(Options{RemoteURL: remote})
	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		snap, err := chrome.Snapshot(ctx, srv.URL)
		cancel()
		require.NoError(t, err)
		assert.Contains(t, snap.Stylesheets, "fresh", "snapshot %d saw a cookie from an earlier one", i)
	}
}
