// internal/models/critique.go
package models

import (
	"encoding/json"
	"sort"
)

// Category identifies one critique dimension. The value doubles as the JSON key.
type Category string

const (
	CategoryColorScheme      Category = "ColorScheme"
	CategoryTypography       Category = "Typography"
	CategoryLayout           Category = "Layout"
	CategoryDesignPrinciples Category = "DesignPrinciples"
	CategoryImagery          Category = "Imagery"
)

// CategoryDescriptor pairs a category with the name used in prompts.
type CategoryDescriptor struct {
	Category    Category
	DisplayName string
}

// categories is ordered; responses and progress follow this order.
var categories = []CategoryDescriptor{
	{CategoryColorScheme, "Color Scheme"},
	{CategoryTypography, "Typography"},
	{CategoryLayout, "Layout and Spacing"},
	{CategoryDesignPrinciples, "Design Principles"},
	{CategoryImagery, "Imagery and Graphics"},
}

// Categories returns the category descriptors in critique order.
func Categories() []CategoryDescriptor {
	out := make([]CategoryDescriptor, len(categories))
	copy(out, categories)
	return out
}

// DisplayName returns the human-readable name, or the raw value for unknown categories.
func (c Category) DisplayName() string {
	for _, d := range categories {
		if d.Category == c {
			return d.DisplayName
		}
	}
	return string(c)
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	for _, d := range categories {
		if d.Category == c {
			return true
		}
	}
	return false
}

// StringSet is a deduplicated set of strings serialized as a sorted array.
type StringSet map[string]struct{}

// NewStringSet builds a set from values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s.Add(v)
	}
	return s
}

func (s StringSet) Add(v string) {
	s[v] = struct{}{}
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in ascending order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func (s StringSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewStringSet(values...)
	return nil
}

// ExtractedStyle is what the browser pass pulls out of a rendered page.
type ExtractedStyle struct {
	CSS    string    `json:"css"`
	Colors StringSet `json:"colors"`
	Fonts  StringSet `json:"fonts"`
}

// AnalysisRequest is the body of POST /analyze.
type AnalysisRequest struct {
	URL string `json:"url" binding:"required"`
}

// CategoryResult is the critique for a single category.
type CategoryResult struct {
	Category    Category `json:"category"`
	DisplayName string   `json:"displayName"`
	Narrative   string   `json:"narrative"`
	HTML        string   `json:"html,omitempty"`
	Score       float64  `json:"score"`
}

// AnalysisResponse is the full critique returned to clients.
type AnalysisResponse struct {
	URL              string                      `json:"url,omitempty"`
	RequestID        string                      `json:"requestId,omitempty"`
	CSS              string                      `json:"css"`
	Colors           []string                    `json:"colors"`
	Fonts            []string                    `json:"fonts"`
	CategoryAnalysis map[Category]CategoryResult `json:"categoryAnalysis"`
	Analysis         string                      `json:"analysis"`
	AnalysisHTML     string                      `json:"analysisHtml,omitempty"`
	DurationMs       int64                       `json:"durationMs"`
}

// OrderedResults returns the category results in critique order, skipping absent ones.
func (r *AnalysisResponse) OrderedResults() []CategoryResult {
	out := make([]CategoryResult, 0, len(r.CategoryAnalysis))
	for _, d := range categories {
		if res, ok := r.CategoryAnalysis[d.Category]; ok {
			out = append(out, res)
		}
	}
	return out
}
