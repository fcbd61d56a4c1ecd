package utils

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAreConcurrencySafe(t *testing.T) {
	m := NewMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncrementCounter("hits")
			m.AddCounter("bytes", 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), m.GetCounterValue("hits"))
	assert.Equal(t, int64(100), m.GetCounterValue("bytes"))
	assert.Zero(t, m.GetCounterValue("missing"))
}

func TestHistogramSnapshot(t *testing.T) {
	m := NewMetricsCollector()
	m.RecordHistogram("latency", 30)
	m.RecordHistogram("latency", 10)
	m.RecordHistogram("latency", 20)

	snapshot := m.GetMetrics()
	histograms, ok := snapshot["histograms"].(map[string]map[string]int64)
	require.True(t, ok)

	h := histograms["latency"]
	assert.Equal(t, int64(3), h["count"])
	assert.Equal(t, int64(60), h["sum"])
	assert.Equal(t, int64(10), h["min"])
	assert.Equal(t, int64(30), h["max"])
}

func TestAnalysisMetricsLifecycle(t *testing.T) {
	m := NewMetricsCollector()
	am := NewAnalysisMetricsWith(m, NewLogger(&bytes.Buffer{}))

	assert.Equal(t, int64(1), am.AnalysisStarted())
	assert.Equal(t, int64(2), am.AnalysisStarted())
	assert.Equal(t, int64(2), m.GetGauge("analyses_in_flight"))

	am.AnalysisFinished(5*time.Millisecond, nil)
	am.AnalysisFinished(5*time.Millisecond, errors.New("boom"))

	assert.Zero(t, m.GetGauge("analyses_in_flight"))
	assert.Equal(t, int64(1), m.GetCounterValue("analyses_succeeded"))
	assert.Equal(t, int64(1), m.GetCounterValue("analyses_failed"))
}

func TestRecordAPIRequestStatusBucket(t *testing.T) {
	m := NewMetricsCollector()
	am := NewAnalysisMetricsWith(m, NewLogger(&bytes.Buffer{}))

	am.RecordAPIRequest("/analyze", "POST", 429, time.Millisecond)
	am.RecordAPIRequest("/analyze", "POST", 200, time.Millisecond)

	assert.Equal(t, int64(1), m.GetCounterValue("api_responses_4xx"))
	assert.Equal(t, int64(1), m.GetCounterValue("api_responses_2xx"))
	assert.Equal(t, int64(2), m.GetCounterValue("api_requests_total"))
}

func TestRecordGenerationCountsRetries(t *testing.T) {
	m := NewMetricsCollector()
	am := NewAnalysisMetricsWith(m, NewLogger(&bytes.Buffer{}))

	am.RecordGeneration("openai", "gpt-3.5-turbo", 120, 3, time.Second)
	am.RecordCacheLookup(true)
	am.RecordCacheLookup(false)

	assert.Equal(t, int64(2), m.GetCounterValue("generation_retries_total"))
	assert.Equal(t, int64(120), m.GetCounterValue("generation_tokens_total"))
	assert.Equal(t, int64(1), m.GetCounterValue("generation_cache_hits"))
	assert.Equal(t, int64(1), m.GetCounterValue("generation_cache_misses"))
}
