package services

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Corphon/StyleCritic/internal/browser"
	"github.com/Corphon/StyleCritic/internal/llm"
	"github.com/Corphon/StyleCritic/internal/utils"
)

func quietMetrics() *utils.AnalysisMetrics {
	return utils.NewAnalysisMetricsWith(utils.NewMetricsCollector(), utils.NewLogger(io.Discard))
}

// scriptedProvider replays errs in order, then succeeds with text.
type scriptedProvider struct {
	mu      sync.Mutex
	errs    []error
	text    string
	calls   int
	prompts []llm.CompletionRequest
	block   bool
	// gate, when set, holds every call until it is closed.
	gate chan struct{}
}

func (p *scriptedProvider) Initialize(map[string]string) error { return nil }
func (p *scriptedProvider) GetName() string                    { return "scripted" }
func (p *scriptedProvider) GetSupportedModels() []string       { return nil }

func (p *scriptedProvider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls++
	p.prompts = append(p.prompts, req)
	call := p.calls
	block := p.block
	gate := p.gate
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if call <= len(p.errs) {
		return nil, p.errs[call-1]
	}
	return &llm.CompletionResponse{Text: p.text, ModelName: "scripted-1", TokensUsed: 7}, nil
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func rateLimited(retryAfter time.Duration) error {
	return &llm.APIError{Provider: "scripted", StatusCode: http.StatusTooManyRequests, RetryAfter: retryAfter}
}

// echoGenerator answers every call and records the prompts it saw.
type echoGenerator struct {
	mu      sync.Mutex
	prompts []string
	failOn  string
	err     error
}

func (g *echoGenerator) Generate(_ context.Context, _ string, userContent string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, userContent)
	g.mu.Unlock()

	if g.failOn != "" && strings.Contains(userContent, g.failOn) {
		return "", g.err
	}
	return "**critique** of " + firstLine(userContent), nil
}

func (g *echoGenerator) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// fakeBrowser returns a canned snapshot and counts calls.
type fakeBrowser struct {
	mu    sync.Mutex
	snap  *browser.Snapshot
	err   error
	calls int
	wait  bool
}

func (b *fakeBrowser) Snapshot(ctx context.Context, _ string) (*browser.Snapshot, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	if b.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.snap, nil
}

func (b *fakeBrowser) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

const sampleCSS = `/* theme */
body { margin: 0; padding: 0 1rem; color: #222 !important; display: flex; }
@media (max-width: 600px) { body { padding: 0; } }
@keyframes fade { from { opacity: 0 } }
.hero { background-image: url(hero.png); }`

func sampleSnapshot() *browser.Snapshot {
	return &browser.Snapshot{
		Stylesheets: sampleCSS,
		Colors:      []string{"rgb(34, 34, 34)", "rgb(255, 255, 255)", "rgb(34, 34, 34)"},
		Fonts:       []string{"Inter, sans-serif", "16px"},
	}
}
