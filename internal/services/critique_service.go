// internal/services/critique_service.go
package services

import (
	"context"
	"time"

	"github.com/Corphon/StyleCritic/internal/models"
	"github.com/Corphon/StyleCritic/internal/utils"
)

// Critic runs the full URL-to-critique pipeline.
type Critic interface {
	Critique(ctx context.Context, req models.AnalysisRequest, requestID string, progress ProgressFunc) (*models.AnalysisResponse, error)
}

// CritiqueService chains extraction and analysis under one request timeout.
type CritiqueService struct {
	extractor      Extractor
	analyzer       *AnalyzerService
	requestTimeout time.Duration
	metrics        *utils.AnalysisMetrics
	logger         *utils.Logger
}

func NewCritiqueService(extractor Extractor, analyzer *AnalyzerService, requestTimeout time.Duration, metrics *utils.AnalysisMetrics) *CritiqueService {
	if metrics == nil {
		metrics = utils.NewAnalysisMetrics()
	}
	return &CritiqueService{
		extractor:      extractor,
		analyzer:       analyzer,
		requestTimeout: requestTimeout,
		metrics:        metrics,
		logger:         utils.GetLogger(),
	}
}

func (s *CritiqueService) Critique(ctx context.Context, req models.AnalysisRequest, requestID string, progress ProgressFunc) (resp *models.AnalysisResponse, err error) {
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	ordinal := s.metrics.AnalysisStarted()
	start := time.Now()
	defer func() {
		s.metrics.AnalysisFinished(time.Since(start), err)
		fields := map[string]interface{}{
			"request_id":  requestID,
			"request_no":  ordinal,
			"url":         req.URL,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if err != nil {
			fields["error"] = err.Error()
			s.logger.Error("analysis failed", fields)
			return
		}
		s.logger.Info("analysis completed", fields)
	}()

	s.logger.Info("analysis started", map[string]interface{}{
		"request_id": requestID,
		"request_no": ordinal,
		"url":        req.URL,
	})

	progress.report(5, "validating url")
	if err := ValidateURL(req.URL); err != nil {
		return nil, err
	}

	progress.report(10, "rendering page")
	style, err := s.extractor.Extract(ctx, req.URL)
	if err != nil {
		return nil, err
	}
	progress.report(30, "styles extracted")

	resp, err = s.analyzer.Analyze(ctx, style, progress)
	if err != nil {
		return nil, err
	}

	resp.URL = req.URL
	resp.RequestID = requestID
	resp.DurationMs = time.Since(start).Milliseconds()
	return resp, nil
}
