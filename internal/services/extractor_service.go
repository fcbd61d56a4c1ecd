// internal/services/extractor_service.go
package services

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Corphon/StyleCritic/internal/browser"
	"github.com/Corphon/StyleCritic/internal/errors"
	"github.com/Corphon/StyleCritic/internal/models"
	"github.com/Corphon/StyleCritic/internal/utils"
)

// Extractor turns a URL into the page's style data.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*models.ExtractedStyle, error)
}

// ExtractorService validates the URL and drives a Browser under the navigation timeout.
type ExtractorService struct {
	browser  browser.Browser
	validate *validator.Validate
	timeout  time.Duration
	metrics  *utils.AnalysisMetrics
	logger   *utils.Logger
}

func NewExtractorService(b browser.Browser, navigationTimeout time.Duration, metrics *utils.AnalysisMetrics) *ExtractorService {
	if metrics == nil {
		metrics = utils.NewAnalysisMetrics()
	}
	return &ExtractorService{
		browser:  b,
		validate: validator.New(),
		timeout:  navigationTimeout,
		metrics:  metrics,
		logger:   utils.GetLogger(),
	}
}

var urlValidator = validator.New()

// ValidateURL accepts absolute http(s) URLs with a host.
func ValidateURL(rawURL string) error {
	return validateURL(urlValidator, rawURL)
}

func validateURL(v *validator.Validate, rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return errors.NewInvalidInputError("url is required", nil)
	}
	if err := v.Var(rawURL, "url"); err != nil {
		return errors.NewInvalidInputError("url is not a valid absolute URL", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.NewInvalidInputError("url is not a valid absolute URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.NewInvalidInputError("url scheme must be http or https", nil)
	}
	if u.Host == "" {
		return errors.NewInvalidInputError("url must include a host", nil)
	}
	return nil
}

// Extract validates rawURL before any browser work, then snapshots the page.
func (s *ExtractorService) Extract(ctx context.Context, rawURL string) (*models.ExtractedStyle, error) {
	if err := validateURL(s.validate, rawURL); err != nil {
		return nil, err
	}
	rawURL = strings.TrimSpace(rawURL)

	navCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	snap, err := s.browser.Snapshot(navCtx, rawURL)
	if err != nil {
		s.metrics.RecordError("extraction", "extractor")
		s.logger.Error("page extraction failed", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		if stderrors.Is(err, context.DeadlineExceeded) {
			// the caller's deadline is the request budget, not the navigation one
			if ctx.Err() != nil {
				return nil, errors.NewNavigationTimeoutError("request deadline expired while the page was loading", err)
			}
			return nil, errors.NewNavigationTimeoutError("page did not settle within "+s.timeout.String(), err)
		}
		return nil, errors.NewExtractionError("failed to extract styles", err)
	}

	style := &models.ExtractedStyle{
		CSS:    snap.Stylesheets,
		Colors: models.NewStringSet(snap.Colors...),
		Fonts:  models.NewStringSet(snap.Fonts...),
	}
	s.metrics.RecordExtraction(time.Since(start), len(style.CSS))
	s.logger.Info("page extracted", map[string]interface{}{
		"url":       rawURL,
		"css_bytes": len(style.CSS),
		"colors":    len(style.Colors),
		"fonts":     len(style.Fonts),
	})
	return style, nil
}
