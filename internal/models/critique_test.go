package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoriesOrderAndNames(t *testing.T) {
	got := Categories()
	require.Len(t, got, 5)

	want := []Category{
		CategoryColorScheme, CategoryTypography, CategoryLayout,
		CategoryDesignPrinciples, CategoryImagery,
	}
	for i, d := range got {
		assert.Equal(t, want[i], d.Category)
	}
	assert.Equal(t, "Layout and Spacing", CategoryLayout.DisplayName())
	assert.Equal(t, "Mystery", Category("Mystery").DisplayName())
	assert.False(t, Category("Mystery").Valid())
}

func TestCategoriesReturnsCopy(t *testing.T) {
	got := Categories()
	got[0].DisplayName = "changed"
	assert.Equal(t, "Color Scheme", CategoryColorScheme.DisplayName())
}

func TestStringSetJSON(t *testing.T) {
	set := NewStringSet("rgb(0, 0, 0)", "rgb(255, 255, 255)", "rgb(0, 0, 0)")
	assert.Len(t, set, 2)

	data, err := json.Marshal(ExtractedStyle{CSS: "a{}", Colors: set, Fonts: NewStringSet()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"css":"a{}","colors":["rgb(0, 0, 0)","rgb(255, 255, 255)"],"fonts":[]}`, string(data))

	var back ExtractedStyle
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Colors.Has("rgb(255, 255, 255)"))
}

func TestCategoryAnalysisKeys(t *testing.T) {
	resp := AnalysisResponse{
		CategoryAnalysis: map[Category]CategoryResult{
			CategoryImagery:     {Category: CategoryImagery, Score: 8},
			CategoryColorScheme: {Category: CategoryColorScheme, Score: 10},
		},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var raw map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &struct {
		CategoryAnalysis *map[string]map[string]json.RawMessage `json:"categoryAnalysis"`
	}{&raw}))
	assert.Contains(t, raw, "ColorScheme")
	assert.Contains(t, raw, "Imagery")

	ordered := resp.OrderedResults()
	require.Len(t, ordered, 2)
	assert.Equal(t, CategoryColorScheme, ordered[0].Category)
}
