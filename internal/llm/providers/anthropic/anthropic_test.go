package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StyleCritic/internal/llm"
)

func TestCompleteText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "You are an AI trained to analyze CSS.", body["system"])
		assert.EqualValues(t, defaultMaxTokens, body["max_tokens"])

		_, _ = w.Write([]byte(`{"model":"claude","stop_reason":"end_turn","content":[{"type":"text","text":"Good "},{"type":"text","text":"contrast."}],"usage":{"input_tokens":20,"output_tokens":4}}`))
	}))
	defer srv.Close()

	p, err := llm.GetProvider(providerName, map[string]string{"api_key": "sk-ant", "base_url": srv.URL})
	require.NoError(t, err)

	resp, err := p.CompleteText(context.Background(), llm.CompletionRequest{
		SystemPrompt: "You are an AI trained to analyze CSS.",
		Prompt:       "Analyze the Color Scheme used in this CSS: a{}",
	})
	require.NoError(t, err)
	assert.Equal(t, "Good contrast.", resp.Text)
	assert.Equal(t, 24, resp.TokensUsed)
}

func TestCompleteTextRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p, err := llm.GetProvider(providerName, map[string]string{"api_key": "sk-ant", "base_url": srv.URL})
	require.NoError(t, err)

	_, err = p.CompleteText(context.Background(), llm.CompletionRequest{Prompt: "x"})
	delay, limited := llm.IsRateLimited(err)
	assert.True(t, limited)
	assert.Zero(t, delay, "no Retry-After header means no hint")
}
