package metrics

import (
	"math"
	"strings"
	"testing"
)

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		expected string
	}{
		{
			name:     "headings",
			markdown: "## Heading\nBody text",
			expected: "Heading Body text",
		},
		{
			name:     "bold-and-italic",
			markdown: "**bold** and *italic* and __strong__ and _em_",
			expected: "bold and italic and strong and em",
		},
		{
			name:     "links-keep-label",
			markdown: "see [the docs](https://example.com) here",
			expected: "see the docs here",
		},
		{
			name:     "images-removed",
			markdown: "before ![alt text](img.png) after",
			expected: "before  after",
		},
		{
			name:     "fenced-code-removed",
			markdown: "intro\n```go\nfmt.Println(1)\n```\noutro",
			expected: "intro  outro",
		},
		{
			name:     "inline-code-keeps-content",
			markdown: "run `go vet` now",
			expected: "run go vet now",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stripped := StripMarkdown(tt.markdown)
			if stripped != tt.expected {
				t.Fatalf("unexpected strip result %q, want %q", stripped, tt.expected)
			}
		})
	}
}

func TestCountWordsIgnoresEmptyTokens(t *testing.T) {
	if count := CountWords("  one   two\tthree  "); count != 3 {
		t.Fatalf("expected 3 words, got %d", count)
	}
	if count := CountWords("   "); count != 0 {
		t.Fatalf("expected 0 words for blank text, got %d", count)
	}
}

func TestEstimateSyllables(t *testing.T) {
	tests := []struct {
		word     string
		expected int
	}{
		{word: "the", expected: 1},
		{word: "cat", expected: 1},
		{word: "beautiful", expected: 3},
		{word: "jumped", expected: 1},
		{word: "quick", expected: 1},
		{word: "readability", expected: 5},
		{word: "Yes!", expected: 1},
		{word: "rhythm", expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			if got := EstimateSyllables(tt.word); got != tt.expected {
				t.Fatalf("syllables(%q) = %d, want %d", tt.word, got, tt.expected)
			}
		})
	}
}

func TestReadabilityScoreEmptyText(t *testing.T) {
	score, label := ReadabilityScore("")
	if score != 0 {
		t.Fatalf("expected zero score for empty text, got %f", score)
	}
	if label != LabelNotAvailable {
		t.Fatalf("expected N/A label, got %s", label)
	}
}

func TestReadabilityScoreSimpleText(t *testing.T) {
	// Two sentences, nine words, nine single-syllable words:
	// 206.835 - 1.015*(9/2) - 84.6*(9/9) = 117.6675
	score, label := ReadabilityScore("The quick brown fox jumps. The fox is quick.")
	if math.Abs(score-117.6675) > 0.0001 {
		t.Fatalf("unexpected score %f", score)
	}
	if label != LabelVeryEasy {
		t.Fatalf("unexpected label %s", label)
	}
}

func TestReadabilityLabelThresholds(t *testing.T) {
	tests := []struct {
		score    float64
		expected ReadabilityLabel
	}{
		{score: 95, expected: LabelVeryEasy},
		{score: 85, expected: LabelEasy},
		{score: 75, expected: LabelFairlyEasy},
		{score: 65, expected: LabelStandard},
		{score: 55, expected: LabelFairlyDifficult},
		{score: 40, expected: LabelDifficult},
		{score: 10, expected: LabelVeryDifficult},
	}

	for _, tt := range tests {
		if got := labelFor(tt.score); got != tt.expected {
			t.Fatalf("labelFor(%f) = %s, want %s", tt.score, got, tt.expected)
		}
	}
}

func TestKeywordDensity(t *testing.T) {
	text := "The quick brown fox jumps. The fox is quick."

	density := KeywordDensity(text, "fox")
	if math.Abs(density-22.2222) > 0.001 {
		t.Fatalf("unexpected density %f", density)
	}

	if KeywordDensity(text, "") != 0 {
		t.Fatalf("empty keyword should report zero density")
	}
	if KeywordDensity("", "fox") != 0 {
		t.Fatalf("empty text should report zero density")
	}
	if KeywordDensity(text, "foxes") != 0 {
		t.Fatalf("whole-word match should not count substrings")
	}
}

func TestKeywordDensityUsesFirstTermCaseInsensitively(t *testing.T) {
	text := "Go is fun. We like Go here."
	density := KeywordDensity(text, "GO, rust")
	if math.Abs(density-float64(2)/7*100) > 0.001 {
		t.Fatalf("unexpected density %f", density)
	}
}

func TestEstimateReadTime(t *testing.T) {
	if got := EstimateReadTime(0); got != "1 min read" {
		t.Fatalf("unexpected read time %q", got)
	}
	if got := EstimateReadTime(200); got != "1 min read" {
		t.Fatalf("unexpected read time %q", got)
	}
	if got := EstimateReadTime(201); got != "2 min read" {
		t.Fatalf("unexpected read time %q", got)
	}
	if got := EstimateReadTime(2400); got != "12 min read" {
		t.Fatalf("unexpected read time %q", got)
	}
}

func TestAnalyzeZeroWords(t *testing.T) {
	analysis := Analyze("", "fox")
	if analysis.WordCount != 0 || analysis.CharCount != 0 {
		t.Fatalf("expected zeroed counts, got %+v", analysis)
	}
	if analysis.ReadabilityScore != 0 || analysis.ReadabilityLabel != LabelNotAvailable {
		t.Fatalf("expected N/A readability, got %+v", analysis)
	}
	if analysis.KeywordDensity != 0 {
		t.Fatalf("expected zero density, got %f", analysis.KeywordDensity)
	}
}

func TestAnalyzeMarkdownDocument(t *testing.T) {
	markdown := "## Foxes\n\nThe quick brown fox jumps. The **fox** is quick."
	analysis := Analyze(markdown, "fox, brown")

	if analysis.WordCount != 10 {
		t.Fatalf("unexpected word count %d", analysis.WordCount)
	}
	if analysis.TargetKeyword != "fox" {
		t.Fatalf("unexpected target keyword %q", analysis.TargetKeyword)
	}
	if analysis.KeywordDensity <= 0 {
		t.Fatalf("expected positive density, got %f", analysis.KeywordDensity)
	}
	if analysis.ReadTime != "1 min read" {
		t.Fatalf("unexpected read time %q", analysis.ReadTime)
	}
	if !strings.Contains(string(analysis.ReadabilityLabel), "Easy") {
		t.Fatalf("unexpected readability label %s", analysis.ReadabilityLabel)
	}
}
