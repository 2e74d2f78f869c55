package metrics

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ReadabilityLabel buckets a Flesch reading-ease score for display.
type ReadabilityLabel string

const (
	LabelNotAvailable    ReadabilityLabel = "N/A"
	LabelVeryEasy        ReadabilityLabel = "Very Easy"
	LabelEasy            ReadabilityLabel = "Easy"
	LabelFairlyEasy      ReadabilityLabel = "Fairly Easy"
	LabelStandard        ReadabilityLabel = "Standard"
	LabelFairlyDifficult ReadabilityLabel = "Fairly Difficult"
	LabelDifficult       ReadabilityLabel = "Difficult"
	LabelVeryDifficult   ReadabilityLabel = "Very Difficult"
)

// Analysis bundles every derived metric for one piece of markdown content.
type Analysis struct {
	WordCount        int              `json:"word_count"`
	CharCount        int              `json:"char_count"`
	ReadabilityScore float64          `json:"readability_score"`
	ReadabilityLabel ReadabilityLabel `json:"readability_label"`
	KeywordDensity   float64          `json:"keyword_density"`
	TargetKeyword    string           `json:"target_keyword"`
	ReadTime         string           `json:"read_time"`
}

// Markdown stripping is lexical, not a parse: each pattern removes one
// syntax family, applied in a fixed order. Malformed markdown can leave
// residual symbols behind.
var (
	headingPattern     = regexp.MustCompile(`#+\s`)
	boldStarPattern    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	boldUnderPattern   = regexp.MustCompile(`__(.*?)__`)
	italicStarPattern  = regexp.MustCompile(`\*(.*?)\*`)
	italicUnderPattern = regexp.MustCompile(`_(.*?)_`)
	linkPattern        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	imagePattern       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	fencedCodePattern  = regexp.MustCompile("(?s)`{3}.*?`{3}")
	inlineCodePattern  = regexp.MustCompile("`(.+?)`")

	nonLetterPattern  = regexp.MustCompile(`[^a-z]`)
	silentTailPattern = regexp.MustCompile(`(?:[^laeiouy]es|ed|[^laeiouy]e)$`)
	vowelRunPattern   = regexp.MustCompile(`[aeiouy]+`)
	sentenceSplit     = regexp.MustCompile(`[.!?]+`)
)

// StripMarkdown reduces markdown to plain text for counting purposes.
func StripMarkdown(markdown string) string {
	text := headingPattern.ReplaceAllString(markdown, "")
	text = boldStarPattern.ReplaceAllString(text, "$1")
	text = boldUnderPattern.ReplaceAllString(text, "$1")
	text = italicStarPattern.ReplaceAllString(text, "$1")
	text = italicUnderPattern.ReplaceAllString(text, "$1")
	text = imagePattern.ReplaceAllString(text, "")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = fencedCodePattern.ReplaceAllString(text, "")
	text = inlineCodePattern.ReplaceAllString(text, "$1")
	return strings.ReplaceAll(text, "\n", " ")
}

// CountWords counts whitespace-delimited tokens, ignoring empty ones.
func CountWords(plainText string) int {
	return len(strings.Fields(plainText))
}

// EstimateSyllables applies the classic approximate heuristic: words of
// three letters or fewer count as one syllable; otherwise a trailing
// silent -e/-ed/-es and a leading y are stripped and maximal vowel-group
// runs are counted (y treated as a vowel), with a floor of one.
func EstimateSyllables(word string) int {
	cleaned := nonLetterPattern.ReplaceAllString(strings.ToLower(word), "")
	if len(cleaned) <= 3 {
		return 1
	}
	cleaned = silentTailPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimPrefix(cleaned, "y")
	runs := vowelRunPattern.FindAllString(cleaned, -1)
	if len(runs) == 0 {
		return 1
	}
	return len(runs)
}

// ReadabilityScore computes the Flesch reading ease of already-stripped
// text and maps it onto a display label. Zero words yields 0 and "N/A".
func ReadabilityScore(plainText string) (float64, ReadabilityLabel) {
	words := strings.Fields(plainText)
	if len(words) == 0 {
		return 0, LabelNotAvailable
	}

	sentenceCount := 0
	for _, segment := range sentenceSplit.Split(plainText, -1) {
		if strings.TrimSpace(segment) != "" {
			sentenceCount++
		}
	}
	if sentenceCount == 0 {
		sentenceCount = 1
	}

	syllables := 0
	for _, word := range words {
		syllables += EstimateSyllables(word)
	}

	wordCount := float64(len(words))
	score := 206.835 - 1.015*(wordCount/float64(sentenceCount)) - 84.6*(float64(syllables)/wordCount)
	return score, labelFor(score)
}

func labelFor(score float64) ReadabilityLabel {
	switch {
	case score > 90:
		return LabelVeryEasy
	case score > 80:
		return LabelEasy
	case score > 70:
		return LabelFairlyEasy
	case score > 60:
		return LabelStandard
	case score > 50:
		return LabelFairlyDifficult
	case score > 30:
		return LabelDifficult
	default:
		return LabelVeryDifficult
	}
}

// KeywordDensity measures how often the first comma-separated keyword
// appears in the stripped text, as a percentage of the word count.
// An empty keyword phrase or empty text reports zero.
func KeywordDensity(plainText, keywordPhrase string) float64 {
	wordCount := CountWords(plainText)
	if wordCount == 0 {
		return 0
	}
	target := firstKeyword(keywordPhrase)
	if target == "" {
		return 0
	}
	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(target) + `\b`)
	if err != nil {
		return 0
	}
	matches := pattern.FindAllStringIndex(plainText, -1)
	return float64(len(matches)) / float64(wordCount) * 100
}

func firstKeyword(keywordPhrase string) string {
	first, _, _ := strings.Cut(keywordPhrase, ",")
	return strings.ToLower(strings.TrimSpace(first))
}

const wordsPerMinute = 200

// EstimateReadTime renders the "N min read" label shown on feed cards.
func EstimateReadTime(wordCount int) string {
	minutes := int(math.Ceil(float64(wordCount) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// Analyze derives the full metric bundle for markdown content and an
// optional comma-separated keyword phrase.
func Analyze(markdown, keywordPhrase string) Analysis {
	plainText := StripMarkdown(markdown)
	wordCount := CountWords(plainText)
	if wordCount == 0 {
		return Analysis{ReadabilityLabel: LabelNotAvailable, ReadTime: EstimateReadTime(0)}
	}

	score, label := ReadabilityScore(plainText)
	return Analysis{
		WordCount:        wordCount,
		CharCount:        len(plainText),
		ReadabilityScore: score,
		ReadabilityLabel: label,
		KeywordDensity:   KeywordDensity(plainText, keywordPhrase),
		TargetKeyword:    firstKeyword(keywordPhrase),
		ReadTime:         EstimateReadTime(wordCount),
	}
}
