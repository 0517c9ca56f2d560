package render

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

const PreviewLength = 150

var affirmationPattern = regexp.MustCompile(`(?i)^(I am|I have|I will|I can|I choose|I embrace|I attract|I deserve)`)

type Sentence struct {
	Text        string
	Affirmation bool
}

// FormatDate renders a timestamp the way the history list shows it, e.g. "Mar 12, 2024".
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// Preview cuts content to its first PreviewLength characters and marks the cut.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) > PreviewLength {
		runes = runes[:PreviewLength]
	}
	return string(runes) + "..."
}

// GoalTag is the first three space-separated words of the life goals.
func GoalTag(lifeGoals string) string {
	words := strings.Split(lifeGoals, " ")
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " ") + "..."
}

// SplitSentences breaks text after '.', '!' or '?' when whitespace follows.
func SplitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(".!?", runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j == len(runes) {
			continue
		}
		sentences = append(sentences, string(runes[start:i+1]))
		start = j
		i = j - 1
	}
	if start < len(runes) {
		sentences = append(sentences, string(runes[start:]))
	}
	return sentences
}

// Highlight marks the sentences that read as affirmations ("I am ...", "I will ...").
func Highlight(text string) []Sentence {
	parts := SplitSentences(text)
	out := make([]Sentence, 0, len(parts))
	for _, p := range parts {
		out = append(out, Sentence{
			Text:        p,
			Affirmation: affirmationPattern.MatchString(strings.TrimSpace(p)),
		})
	}
	return out
}
