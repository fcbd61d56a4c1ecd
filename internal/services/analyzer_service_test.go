package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/StyleCritic/internal/config"
	"github.com/Corphon/StyleCritic/internal/errors"
	"github.com/Corphon/StyleCritic/internal/models"
	"github.com/Corphon/StyleCritic/internal/render"
	"github.com/Corphon/StyleCritic/internal/scoring"
)

func sampleStyle() *models.ExtractedStyle {
	snap := sampleSnapshot()
	return &models.ExtractedStyle{
		CSS:    snap.Stylesheets,
		Colors: models.NewStringSet(snap.Colors...),
		Fonts:  models.NewStringSet(snap.Fonts...),
	}
}

func TestAnalyzeProducesAllCategories(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		name := "sequential"
		if parallel {
			name = "parallel"
		}
		t.Run(name, func(t *testing.T) {
			gen := &echoGenerator{}
			s := NewAnalyzerService(gen, scoring.Heuristic{}, AnalyzerOptions{
				Prompts:        config.DefaultPrompts(),
				MaxPromptChars: 4096,
				Parallel:       parallel,
				Renderer:       render.New(),
			})

			resp, err := s.Analyze(context.Background(), sampleStyle(), nil)
			require.NoError(t, err)

			require.Len(t, resp.CategoryAnalysis, 5)
			for _, d := range models.Categories() {
				res, ok := resp.CategoryAnalysis[d.Category]
				require.True(t, ok, d.Category)
				assert.Equal(t, d.DisplayName, res.DisplayName)
				assert.GreaterOrEqual(t, res.Score, 0.0)
				assert.LessOrEqual(t, res.Score, 10.0)
				assert.Contains(t, res.Narrative, "Analyze the "+d.DisplayName+" used in this CSS:")
				assert.Contains(t, res.HTML, "<strong>critique</strong>")
			}

			assert.NotContains(t, resp.CSS, "!important")
			assert.NotContains(t, resp.CSS, "@media")
			assert.NotContains(t, resp.CSS, "/*")
			assert.Equal(t, []string{"rgb(255, 255, 255)", "rgb(34, 34, 34)"}, resp.Colors)
			assert.NotEmpty(t, resp.Analysis)
			assert.NotEmpty(t, resp.AnalysisHTML)
			assert.Len(t, gen.calls(), 6)
		})
	}
}

func TestAnalyzeHeuristicScoresUseFilteredCSS(t *testing.T) {
	s := NewAnalyzerService(&echoGenerator{}, scoring.Heuristic{}, AnalyzerOptions{})

	resp, err := s.Analyze(context.Background(), sampleStyle(), nil)
	require.NoError(t, err)

	assert.Equal(t, 10.0, resp.CategoryAnalysis[models.CategoryLayout].Score)
	assert.Equal(t, 10.0, resp.CategoryAnalysis[models.CategoryDesignPrinciples].Score)
	assert.Equal(t, 10.0, resp.CategoryAnalysis[models.CategoryImagery].Score)
	assert.Empty(t, resp.CategoryAnalysis[models.CategoryImagery].HTML, "no renderer configured")
}

func TestAnalyzePromptsAreTruncated(t *testing.T) {
	gen := &echoGenerator{}
	s := NewAnalyzerService(gen, scoring.Heuristic{}, AnalyzerOptions{MaxPromptChars: 64})

	style := &models.ExtractedStyle{CSS: strings.Repeat(".card { margin: 4px; } ", 50)}
	resp, err := s.Analyze(context.Background(), style, nil)
	require.NoError(t, err)

	prefix := "Analyze the Typography used in this CSS: "
	for _, p := range gen.calls() {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		css := strings.TrimPrefix(p, prefix)
		assert.LessOrEqual(t, len(css), 64)
		assert.True(t, strings.HasSuffix(css, "}"))
	}
	assert.Greater(t, len(resp.CSS), 64, "response carries the filtered, untruncated CSS")
}

func TestAnalyzeFailsWithoutPartialResult(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		gen := &echoGenerator{
			failOn: "Analyze the Layout and Spacing",
			err:    errors.NewGenerationError("provider down", nil),
		}
		s := NewAnalyzerService(gen, scoring.Heuristic{}, AnalyzerOptions{Parallel: parallel})

		resp, err := s.Analyze(context.Background(), sampleStyle(), nil)
		assert.Nil(t, resp)
		require.Error(t, err)
		assert.True(t, errors.IsGenerationError(err))
	}
}

func TestAnalyzeReportsMonotonicProgress(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []int
	)
	progress := func(p int, _ string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, p)
	}

	s := NewAnalyzerService(&echoGenerator{}, scoring.Heuristic{}, AnalyzerOptions{Parallel: true})
	_, err := s.Analyze(context.Background(), sampleStyle(), progress)
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1])
	}
	assert.Equal(t, 95, seen[len(seen)-1])
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Analyze the {{category}} used in this CSS: {{css}}", "Typography", "h1{font:{{category}}}")
	assert.Equal(t, "Analyze the Typography used in this CSS: h1{font:{{category}}}", got)
}
