package store

import (
	"regexp"
	"strings"

	"github.com/berryware/berryrag/internal/util"
	"github.com/berryware/berryrag/pkg/common"
)

// ContentPolicy is the quality gate applied before a document is
// persisted. The thresholds separate readable prose from
// navigation-only or repetitive boilerplate; they are deliberately
// tunable configuration, not constants.
type ContentPolicy struct {
	// MinChars and MaxChars bound the accepted text length in bytes.
	MinChars int
	MaxChars int
	// MinWords is the minimum whitespace-separated word count.
	MinWords int
	// MinSentences is how many sentences longer than
	// MinSentenceChars the text must contain.
	MinSentences     int
	MinSentenceChars int
	// MinUniqueLineRatio rejects repetitive content: when the text has
	// more than UniqueLineMinLines non-blank lines, the ratio of
	// distinct lines to total lines must reach this value.
	MinUniqueLineRatio float64
	UniqueLineMinLines int
}

// DefaultContentPolicy returns the stock thresholds.
func DefaultContentPolicy() ContentPolicy {
	return ContentPolicy{
		MinChars:           100,
		MaxChars:           500000,
		MinWords:           20,
		MinSentences:       3,
		MinSentenceChars:   10,
		MinUniqueLineRatio: 0.5,
		UniqueLineMinLines: 10,
	}
}

// PolicyFromEnv builds a ContentPolicy from the environment, falling
// back to the defaults for unset variables.
func PolicyFromEnv() ContentPolicy {
	stock := DefaultContentPolicy()
	return ContentPolicy{
		MinChars:           util.GetEnvInt("CONTENT_MIN_CHARS", stock.MinChars),
		MaxChars:           util.GetEnvInt("CONTENT_MAX_CHARS", stock.MaxChars),
		MinWords:           util.GetEnvInt("CONTENT_MIN_WORDS", stock.MinWords),
		MinSentences:       util.GetEnvInt("CONTENT_MIN_SENTENCES", stock.MinSentences),
		MinSentenceChars:   util.GetEnvInt("CONTENT_MIN_SENTENCE_CHARS", stock.MinSentenceChars),
		MinUniqueLineRatio: util.GetEnvFloat("CONTENT_MIN_UNIQUE_LINE_RATIO", stock.MinUniqueLineRatio),
		UniqueLineMinLines: util.GetEnvInt("CONTENT_UNIQUE_LINE_MIN_LINES", stock.UniqueLineMinLines),
	}
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Check validates normalized text against the policy. A failing rule is
// reported as a ValidationError naming the rule; nil means the text is
// acceptable for ingestion.
func (p ContentPolicy) Check(text string) error {
	if len(text) < p.MinChars {
		return common.Validationf("content", "too short (%d chars, minimum %d)", len(text), p.MinChars)
	}
	if p.MaxChars > 0 && len(text) > p.MaxChars {
		return common.Validationf("content", "too long (%d chars, maximum %d)", len(text), p.MaxChars)
	}

	if words := len(strings.Fields(text)); words < p.MinWords {
		return common.Validationf("content", "not enough words (%d, minimum %d)", words, p.MinWords)
	}

	meaningful := 0
	for _, sentence := range sentenceSplit.Split(text, -1) {
		if len(strings.TrimSpace(sentence)) > p.MinSentenceChars {
			meaningful++
		}
	}
	if meaningful < p.MinSentences {
		return common.Validationf("content", "not enough meaningful sentences (%d, minimum %d)", meaningful, p.MinSentences)
	}

	lines := make([]string, 0)
	unique := make(map[string]struct{})
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		unique[line] = struct{}{}
	}
	if len(lines) > p.UniqueLineMinLines {
		ratio := float64(len(unique)) / float64(len(lines))
		if ratio < p.MinUniqueLineRatio {
			return common.Validationf("content", "too repetitive (unique line ratio %.2f, minimum %.2f)", ratio, p.MinUniqueLineRatio)
		}
	}

	return nil
}
