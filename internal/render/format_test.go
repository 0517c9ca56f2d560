package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 22, 10, 0, 0, time.UTC)
	assert.Equal(t, "Mar 5, 2024", FormatDate(ts))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short...", Preview("short"))

	long := strings.Repeat("é", 200)
	got := Preview(long)
	assert.Equal(t, strings.Repeat("é", PreviewLength)+"...", got)
}

func TestGoalTag(t *testing.T) {
	assert.Equal(t, "By 30: Start...", GoalTag("By 30: Start my own business"))
	assert.Equal(t, "Travel...", GoalTag("Travel"))
	assert.Equal(t, "...", GoalTag(""))
}

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"I am calm. I am strong!  Why not?", []string{"I am calm.", "I am strong!", "Why not?"}},
		{"Version 1.5 is here.", []string{"Version 1.5 is here."}},
		{"One.\n\nTwo.", []string{"One.", "Two."}},
		{"No punctuation", []string{"No punctuation"}},
		{"", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitSentences(tt.in), tt.in)
	}
}

func TestHighlight(t *testing.T) {
	got := Highlight("Dear Asha, breathe. i am worthy of love. I deserve rest! You shine. I choose joy.")

	var marked []string
	for _, s := range got {
		if s.Affirmation {
			marked = append(marked, s.Text)
		}
	}

	assert.Len(t, got, 5)
	assert.Equal(t, []string{"i am worthy of love.", "I deserve rest!", "I choose joy."}, marked)
}
