// internal/report/markdown.go
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/Corphon/StyleCritic/internal/models"
)

// MarkdownWriter writes a human-readable critique report.
type MarkdownWriter struct {
	output io.Writer
}

func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

func (w *MarkdownWriter) Write(resp *models.AnalysisResponse) error {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, resp)
	w.writeScores(md, resp)
	w.writePalette(md, resp)
	w.writeOverall(md, resp)
	w.writeCategories(md, resp)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by StyleCritic in %s*", formatDuration(resp.DurationMs))

	return md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, resp *models.AnalysisResponse) {
	md.H1("Design Critique")
	md.PlainText("")

	rows := [][]string{{"URL", resp.URL}}
	if resp.RequestID != "" {
		rows = append(rows, []string{"Request", "`" + resp.RequestID + "`"})
	}
	rows = append(rows,
		[]string{"Colors", strconv.Itoa(len(resp.Colors))},
		[]string{"Font values", strconv.Itoa(len(resp.Fonts))},
		[]string{"Filtered CSS", strconv.Itoa(len(resp.CSS)) + " bytes"},
	)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeScores(md *markdown.Markdown, resp *models.AnalysisResponse) {
	md.H2("Scores")
	md.PlainText("")

	results := resp.OrderedResults()
	rows := make([][]string, 0, len(results))
	var total float64
	for _, res := range results {
		rows = append(rows, []string{res.DisplayName, formatScore(res.Score)})
		total += res.Score
	}
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Score (0-10)"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(results) == 0 {
		return
	}
	avg := total / float64(len(results))
	switch {
	case avg >= 9:
		md.Tip(fmt.Sprintf("Average score %s. The stylesheet shows few warning signs.", formatScore(avg)))
	case avg >= 7:
		md.Note(fmt.Sprintf("Average score %s.", formatScore(avg)))
	default:
		md.Warningf("Average score %s. Several categories need attention.", formatScore(avg))
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePalette(md *markdown.Markdown, resp *models.AnalysisResponse) {
	md.H2("Palette and Fonts")
	md.PlainText("")

	if len(resp.Colors) == 0 && len(resp.Fonts) == 0 {
		md.PlainText("No computed colors or fonts were captured.")
		md.PlainText("")
		return
	}

	if len(resp.Colors) > 0 {
		md.H3("Colors")
		md.BulletList(quoteAll(resp.Colors)...)
		md.PlainText("")
	}
	if len(resp.Fonts) > 0 {
		md.H3("Fonts")
		md.BulletList(quoteAll(resp.Fonts)...)
		md.PlainText("")
	}
}

func (w *MarkdownWriter) writeOverall(md *markdown.Markdown, resp *models.AnalysisResponse) {
	md.H2("Overall Analysis")
	md.PlainText("")
	md.PlainText(strings.TrimSpace(resp.Analysis))
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, resp *models.AnalysisResponse) {
	for _, res := range resp.OrderedResults() {
		md.H2(res.DisplayName)
		md.PlainText("")
		md.PlainTextf("**Score:** %s / 10", formatScore(res.Score))
		md.PlainText("")
		md.PlainText(strings.TrimSpace(res.Narrative))
		md.PlainText("")
	}

	if resp.CSS != "" {
		md.Details("Filtered CSS", "```css\n"+truncateString(resp.CSS, 2000)+"\n```")
		md.PlainText("")
	}
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = "`" + v + "`"
	}
	return out
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return strconv.FormatInt(ms, 10) + " ms"
	}
	return strconv.FormatFloat(float64(ms)/1000, 'f', 1, 64) + " s"
}

// truncateString truncates s to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
