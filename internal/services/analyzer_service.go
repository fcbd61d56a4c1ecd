// internal/services/analyzer_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Corphon/StyleCritic/internal/config"
	"github.com/Corphon/StyleCritic/internal/cssutil"
	"github.com/Corphon/StyleCritic/internal/models"
	"github.com/Corphon/StyleCritic/internal/scoring"
	"github.com/Corphon/StyleCritic/internal/utils"
)

const maxParallelCategories = 5

// MarkdownRenderer converts generated Markdown to sanitized HTML.
type MarkdownRenderer interface {
	HTML(src string) (string, error)
}

// AnalyzerOptions configures an AnalyzerService.
type AnalyzerOptions struct {
	Prompts        config.Prompts
	MaxPromptChars int
	Parallel       bool
	// Renderer is optional; without it the html fields stay empty.
	Renderer MarkdownRenderer
}

// AnalyzerService turns extracted style data into a scored critique.
type AnalyzerService struct {
	generator TextGenerator
	scorer    scoring.Scorer
	opts      AnalyzerOptions
	logger    *utils.Logger
}

func NewAnalyzerService(generator TextGenerator, scorer scoring.Scorer, opts AnalyzerOptions) *AnalyzerService {
	if opts.MaxPromptChars <= 0 {
		opts.MaxPromptChars = config.NewConfig().MaxPromptChars
	}
	if opts.Prompts.System == "" {
		opts.Prompts = config.DefaultPrompts()
	}
	return &AnalyzerService{
		generator: generator,
		scorer:    scorer,
		opts:      opts,
		logger:    utils.GetLogger(),
	}
}

// BuildPrompt substitutes {{css}} and {{category}} in template.
func BuildPrompt(template, category, css string) string {
	return strings.NewReplacer("{{category}}", category, "{{css}}", css).Replace(template)
}

// Analyze filters and truncates the CSS, asks for an overall critique and one
// critique per category, and scores each category. No partial result is
// returned: any generation failure fails the whole analysis.
func (s *AnalyzerService) Analyze(ctx context.Context, style *models.ExtractedStyle, progress ProgressFunc) (*models.AnalysisResponse, error) {
	if style == nil {
		style = &models.ExtractedStyle{}
	}

	filtered := cssutil.Filter(style.CSS)
	truncated := cssutil.Truncate(filtered, s.opts.MaxPromptChars)
	progress.report(35, "stylesheet filtered")

	scoredStyle := &models.ExtractedStyle{CSS: filtered, Colors: style.Colors, Fonts: style.Fonts}

	overall, err := s.generator.Generate(ctx, s.opts.Prompts.System, BuildPrompt(s.opts.Prompts.Overall, "", truncated))
	if err != nil {
		return nil, fmt.Errorf("overall analysis: %w", err)
	}
	progress.report(45, "overall analysis generated")

	results, err := s.analyzeCategories(ctx, truncated, scoredStyle, progress)
	if err != nil {
		return nil, err
	}

	resp := &models.AnalysisResponse{
		CSS:              filtered,
		Colors:           style.Colors.Sorted(),
		Fonts:            style.Fonts.Sorted(),
		CategoryAnalysis: results,
		Analysis:         overall,
		AnalysisHTML:     s.html(overall),
	}
	progress.report(95, "critique assembled")
	return resp, nil
}

func (s *AnalyzerService) analyzeCategories(ctx context.Context, css string, style *models.ExtractedStyle, progress ProgressFunc) (map[models.Category]models.CategoryResult, error) {
	descriptors := models.Categories()
	results := make(map[models.Category]models.CategoryResult, len(descriptors))

	var (
		mu   sync.Mutex
		done int
	)
	record := func(res models.CategoryResult) {
		mu.Lock()
		defer mu.Unlock()
		results[res.Category] = res
		done++
		progress.report(45+done*10, res.DisplayName+" analysed")
	}

	if !s.opts.Parallel {
		for _, d := range descriptors {
			res, err := s.analyzeCategory(ctx, d, css, style)
			if err != nil {
				return nil, err
			}
			record(res)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelCategories)
	for _, d := range descriptors {
		d := d
		g.Go(func() error {
			res, err := s.analyzeCategory(gctx, d, css, style)
			if err != nil {
				return err
			}
			record(res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *AnalyzerService) analyzeCategory(ctx context.Context, d models.CategoryDescriptor, css string, style *models.ExtractedStyle) (models.CategoryResult, error) {
	prompt := BuildPrompt(s.opts.Prompts.Category, d.DisplayName, css)
	narrative, err := s.generator.Generate(ctx, s.opts.Prompts.System, prompt)
	if err != nil {
		return models.CategoryResult{}, fmt.Errorf("%s analysis: %w", d.DisplayName, err)
	}

	return models.CategoryResult{
		Category:    d.Category,
		DisplayName: d.DisplayName,
		Narrative:   narrative,
		HTML:        s.html(narrative),
		Score:       scoring.Clamp(s.scorer.Score(d.Category, style)),
	}, nil
}

// html renders best-effort; a render failure only drops the HTML field.
func (s *AnalyzerService) html(markdown string) string {
	if s.opts.Renderer == nil {
		return ""
	}
	out, err := s.opts.Renderer.HTML(markdown)
	if err != nil {
		s.logger.Warn("markdown render failed", map[string]interface{}{"error": err.Error()})
		return ""
	}
	return out
}
