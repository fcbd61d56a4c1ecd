package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"empty", "", 0},
		{"seconds", "7", 7 * time.Second},
		{"fractional seconds", "1.5", 1500 * time.Millisecond},
		{"negative", "-3", 0},
		{"http date", now.Add(90 * time.Second).Format(http.TimeFormat), 90 * time.Second},
		{"date in the past", now.Add(-time.Minute).Format(http.TimeFormat), 0},
		{"garbage", "soon", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRetryAfter(tt.value, now))
		})
	}
}

func TestIsRateLimited(t *testing.T) {
	limited := &APIError{Provider: "openai", StatusCode: http.StatusTooManyRequests, RetryAfter: 3 * time.Second}
	delay, ok := IsRateLimited(fmt.Errorf("attempt 1: %w", limited))
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, delay)

	_, ok = IsRateLimited(&APIError{StatusCode: http.StatusInternalServerError})
	assert.False(t, ok)

	_, ok = IsRateLimited(errors.New("connection reset"))
	assert.False(t, ok)
}

func TestNewAPIError(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"2"}},
		Body:       io.NopCloser(strings.NewReader("  slow down \n")),
	}

	apiErr := NewAPIError("anthropic", resp)
	assert.Equal(t, 2*time.Second, apiErr.RetryAfter)
	assert.Equal(t, "slow down", apiErr.Body)
	assert.True(t, apiErr.RateLimited())
	assert.Contains(t, apiErr.Error(), "anthropic api error (429)")
}

type stubProvider struct{ key string }

func (s *stubProvider) Initialize(config map[string]string) error {
	if config["api_key"] == "" {
		return errors.New("no key")
	}
	s.key = config["api_key"]
	return nil
}
func (s *stubProvider) GetName() string              { return "stub" }
func (s *stubProvider) GetSupportedModels() []string { return []string{"stub-1"} }
func (s *stubProvider) CompleteText(context.Context, CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{Text: "ok"}, nil
}

func TestRegistry(t *testing.T) {
	Register("stub-registry-test", func() Provider { return &stubProvider{} })

	p, err := GetProvider("stub-registry-test", map[string]string{"api_key": "k"})
	require.NoError(t, err)
	assert.Equal(t, "stub", p.GetName())
	assert.Contains(t, ListProviders(), "stub-registry-test")

	_, err = GetProvider("stub-registry-test", map[string]string{})
	assert.Error(t, err)

	_, err = GetProvider("does-not-exist", nil)
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
