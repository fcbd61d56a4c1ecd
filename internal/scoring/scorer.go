// internal/scoring/scorer.go
package scoring

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/Corphon/StyleCritic/internal/models"
)

const (
	MinScore = 0.0
	MaxScore = 10.0
)

// Scorer assigns a placeholder score to one category of an extracted style.
type Scorer interface {
	Score(category models.Category, style *models.ExtractedStyle) float64
}

// New returns the scorer for mode ("heuristic" or "random").
func New(mode string) (Scorer, error) {
	switch strings.ToLower(mode) {
	case "", "heuristic":
		return Heuristic{}, nil
	case "random":
		return NewRandom(nil), nil
	default:
		return nil, fmt.Errorf("unknown scoring mode %q", mode)
	}
}

// Clamp bounds s to [MinScore, MaxScore].
func Clamp(s float64) float64 {
	switch {
	case s < MinScore:
		return MinScore
	case s > MaxScore:
		return MaxScore
	default:
		return s
	}
}

// Heuristic scores from set sizes and keyword presence. It is not a design judgement.
type Heuristic struct{}

func (Heuristic) Score(category models.Category, style *models.ExtractedStyle) float64 {
	if style == nil {
		style = &models.ExtractedStyle{}
	}
	colors, fonts := len(style.Colors), len(style.Fonts)
	css := style.CSS

	var s float64
	switch category {
	case models.CategoryColorScheme:
		s = mean(pick(colors > 5, 5, 10), pick(colors > 3, 7, 10))
	case models.CategoryTypography:
		s = mean(pick(fonts > 3, 7, 10), pick(fonts > 2, 7, 10))
	case models.CategoryLayout:
		s = pick(strings.Contains(css, "margin") && strings.Contains(css, "padding"), 10, 7)
	case models.CategoryDesignPrinciples:
		s = pick(strings.Contains(css, "flex") || strings.Contains(css, "grid"), 10, 8)
	case models.CategoryImagery:
		s = pick(strings.Contains(css, "background-image"), 10, 8)
	default:
		return MinScore
	}
	return Clamp(s)
}

func pick(cond bool, yes, no float64) float64 {
	if cond {
		return yes
	}
	return no
}

func mean(a, b float64) float64 {
	return (a + b) / 2
}

// Random draws a uniform integer score per call.
type Random struct {
	intN func(n int) int
}

// NewRandom builds a Random scorer; a nil intN uses math/rand.
func NewRandom(intN func(n int) int) *Random {
	if intN == nil {
		intN = rand.Intn
	}
	return &Random{intN: intN}
}

func (r *Random) Score(category models.Category, _ *models.ExtractedStyle) float64 {
	if !category.Valid() {
		return MinScore
	}
	return Clamp(float64(r.intN(int(MaxScore) + 1)))
}
