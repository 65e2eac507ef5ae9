package translation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptJapaneseRequestsDualRendition(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("会議は明日です", nil, Japanese)

	assert.Contains(t, prompt, "Polish: <Polish translation>")
	assert.Contains(t, prompt, "English: <English translation>")
	assert.Contains(t, prompt, "Message: 会議は明日です")
	assert.NotContains(t, prompt, "into Japanese")
}

func TestBuildPromptNonJapaneseRequestsJapaneseOnly(t *testing.T) {
	t.Parallel()

	for _, source := range []Language{Polish, English} {
		prompt := BuildPrompt("see you tomorrow", nil, source)

		assert.Contains(t, prompt, "into Japanese")
		assert.NotContains(t, prompt, "Polish: <Polish translation>")
	}
}

func TestBuildPromptHistorySection(t *testing.T) {
	t.Parallel()

	history := []HistoryEntry{
		{Message: "I met Tanaka yesterday"},
		{Message: "He was late again"},
	}
	prompt := BuildPrompt("tell him about the schedule", history, English)

	idx1 := strings.Index(prompt, "1. I met Tanaka yesterday")
	idx2 := strings.Index(prompt, "2. He was late again")
	require.GreaterOrEqual(t, idx1, 0)
	require.GreaterOrEqual(t, idx2, 0)
	assert.Less(t, idx1, idx2, "history must be numbered oldest first")
	assert.Contains(t, prompt, "resolve pronouns")
}

func TestBuildPromptOmitsHistorySectionWhenEmpty(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("hello", nil, English)

	assert.NotContains(t, prompt, "Recent messages")
	assert.NotContains(t, prompt, "resolve pronouns")
}

func TestBuildPromptDeterministic(t *testing.T) {
	t.Parallel()

	history := []HistoryEntry{{Message: "context line"}}

	first := BuildPrompt("same input", history, English)
	second := BuildPrompt("same input", history, English)

	assert.Equal(t, first, second)
}

func TestBuildPromptEndsWithStylingGuidance(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("hello", nil, English)

	assert.True(t, strings.HasSuffix(prompt, stylingInstruction))
}
