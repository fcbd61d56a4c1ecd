// internal/services/generation_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Corphon/StyleCritic/internal/cache"
	"github.com/Corphon/StyleCritic/internal/errors"
	"github.com/Corphon/StyleCritic/internal/llm"
	"github.com/Corphon/StyleCritic/internal/utils"
)

// TextGenerator produces text for a system prompt and user content.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// RetryPolicy governs waiting after rate-limit answers. Other failures are never retried.
type RetryPolicy struct {
	// MaxAttempts counts the first call.
	MaxAttempts  int
	DefaultDelay time.Duration
	MaxDelay     time.Duration
}

// Delay returns how long to wait given the provider's hint.
func (p RetryPolicy) Delay(hint time.Duration) time.Duration {
	delay := hint
	if delay <= 0 {
		delay = p.DefaultDelay
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// GenerationOptions configures a GenerationService.
type GenerationOptions struct {
	Model string
	// Timeout bounds each attempt.
	Timeout  time.Duration
	Retry    RetryPolicy
	Cache    cache.Backend
	CacheTTL time.Duration
	Metrics  *utils.AnalysisMetrics
	Logger   *utils.Logger
}

// GenerationService wraps an llm.Provider with retries and an optional cache.
type GenerationService struct {
	provider llm.Provider
	opts     GenerationOptions
	group    singleflight.Group
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewGenerationService(provider llm.Provider, opts GenerationOptions) *GenerationService {
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = utils.GetLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = utils.NewAnalysisMetrics()
	}
	return &GenerationService{
		provider: provider,
		opts:     opts,
		sleep:    sleepContext,
	}
}

// ProviderName reports the configured provider.
func (s *GenerationService) ProviderName() string {
	return s.provider.GetName()
}

// Model reports the configured model, empty for the provider default.
func (s *GenerationService) Model() string {
	return s.opts.Model
}

// Generate returns generated text, consulting the cache first when one is configured.
func (s *GenerationService) Generate(ctx context.Context, systemPrompt, userContent string) (string, error) {
	if s.opts.Cache == nil {
		return s.generateWithRetry(ctx, systemPrompt, userContent)
	}

	key := cache.GenerationKey(systemPrompt, userContent, s.opts.Model, s.provider.GetName())
	if data, ok, err := s.opts.Cache.Get(ctx, key); err != nil {
		s.opts.Logger.Warn("generation cache read failed", map[string]interface{}{
			"cache_key_prefix": key[:8],
			"error":            err.Error(),
		})
	} else if ok {
		s.opts.Metrics.RecordCacheLookup(true)
		return string(data), nil
	}
	s.opts.Metrics.RecordCacheLookup(false)

	// The shared call outlives any single caller; each caller still stops on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		text, err := s.generateWithRetry(shared, systemPrompt, userContent)
		if err != nil {
			return "", err
		}
		if err := s.opts.Cache.Set(shared, key, []byte(text), s.opts.CacheTTL); err != nil {
			s.opts.Logger.Warn("generation cache write failed", map[string]interface{}{
				"cache_key_prefix": key[:8],
				"error":            err.Error(),
			})
		}
		return text, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.opts.Logger.Debug("generation call shared", map[string]interface{}{"cache_key_prefix": key[:8]})
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", errors.NewGenerationError("generation request cancelled", ctx.Err())
	}
}

func (s *GenerationService) generateWithRetry(ctx context.Context, systemPrompt, userContent string) (string, error) {
	req := llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Prompt:       userContent,
		Model:        s.opts.Model,
	}
	start := time.Now()

	for attempt := 1; ; attempt++ {
		resp, err := s.attempt(ctx, req)
		if err == nil {
			s.opts.Metrics.RecordGeneration(s.provider.GetName(), resp.ModelName, resp.TokensUsed, attempt, time.Since(start))
			return resp.Text, nil
		}

		hint, limited := llm.IsRateLimited(err)
		if !limited {
			s.opts.Metrics.RecordError("generation", "generator")
			return "", errors.NewGenerationError("generation request failed", err)
		}
		if attempt >= s.opts.Retry.MaxAttempts {
			s.opts.Metrics.RecordError("generation", "generator")
			return "", errors.NewGenerationError(
				fmt.Sprintf("still rate limited after %d attempts", attempt), err)
		}

		delay := s.opts.Retry.Delay(hint)
		s.opts.Logger.Warn("rate limited by provider, retrying", map[string]interface{}{
			"provider": s.provider.GetName(),
			"attempt":  attempt,
			"delay_ms": delay.Milliseconds(),
		})
		if err := s.sleep(ctx, delay); err != nil {
			return "", errors.NewGenerationError("cancelled while waiting to retry", err)
		}
	}
}

func (s *GenerationService) attempt(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	return s.provider.CompleteText(ctx, req)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
