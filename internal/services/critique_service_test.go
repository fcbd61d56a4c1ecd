package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StyleCritic/internal/errors"
	"github.com/Corphon/StyleCritic/internal/models"
	"github.com/Corphon/StyleCritic/internal/scoring"
)

func newTestCritic(b *fakeBrowser, gen TextGenerator) (*CritiqueService, *ProgressTracker) {
	metrics := quietMetrics()
	extractor := NewExtractorService(b, time.Second, metrics)
	analyzer := NewAnalyzerService(gen, scoring.Heuristic{}, AnalyzerOptions{})
	tracker := NewProgressService().CreateTracker("req-1")
	return NewCritiqueService(extractor, analyzer, time.Minute, metrics), tracker
}

func TestCritiqueEndToEnd(t *testing.T) {
	b := &fakeBrowser{snap: sampleSnapshot()}
	critic, tracker := newTestCritic(b, &echoGenerator{})

	resp, err := critic.Critique(context.Background(), models.AnalysisRequest{URL: "https://example.com"}, "req-1", tracker.Reporter())
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", resp.URL)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Len(t, resp.CategoryAnalysis, 5)
	assert.NotContains(t, resp.CSS, "!important")
	for _, res := range resp.CategoryAnalysis {
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 10.0)
	}
	assert.GreaterOrEqual(t, tracker.Snapshot().Progress, 95)
}

func TestCritiqueInvalidURLNeverLaunchesBrowser(t *testing.T) {
	b := &fakeBrowser{snap: sampleSnapshot()}
	gen := &echoGenerator{}
	critic, _ := newTestCritic(b, gen)

	_, err := critic.Critique(context.Background(), models.AnalysisRequest{URL: "not a url"}, "req-2", nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInputError(err))
	assert.Zero(t, b.callCount())
	assert.Empty(t, gen.calls())
}

func TestCritiqueExtractionFailure(t *testing.T) {
	b := &fakeBrowser{err: assert.AnError}
	gen := &echoGenerator{}
	critic, _ := newTestCritic(b, gen)

	_, err := critic.Critique(context.Background(), models.AnalysisRequest{URL: "https://example.com"}, "req-3", nil)
	require.Error(t, err)
	assert.True(t, errors.IsExtractionError(err))
	assert.Empty(t, gen.calls())
}

func TestCritiqueConcurrentRequestsAreIsolated(t *testing.T) {
	b := &fakeBrowser{snap: sampleSnapshot()}
	critic, _ := newTestCritic(b, &echoGenerator{})

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := critic.Critique(context.Background(), models.AnalysisRequest{URL: "https://example.com"}, "", nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 8, b.callCount())
	assert.Equal(t, int64(8), critic.metrics.Collector().GetCounterValue("analyses_succeeded"))
}
