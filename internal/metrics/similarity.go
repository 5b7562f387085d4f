package metrics

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// NormalizeText unifies line endings, strips trailing whitespace from each
// line, and trims leading/trailing whitespace overall. Two documents that
// differ only in line-ending or trailing-space noise normalize identically.
func NormalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Similarity returns a longest-common-subsequence ratio in [0,1] over the
// normalized lines of two documents, rounded to 4 decimals. It is symmetric,
// and nil when either document is empty: no similarity can be computed for a
// run that produced nothing.
func Similarity(a, b string) *float64 {
	if a == "" || b == "" {
		return nil
	}
	m := difflib.NewMatcher(
		strings.Split(NormalizeText(a), "\n"),
		strings.Split(NormalizeText(b), "\n"),
	)
	ratio := round4(m.Ratio())
	return &ratio
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

// remap converts a value in [-1,1] to [0,1].
func remap(v float64) float64 {
	return (v + 1.0) / 2.0
}
