package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want Language
	}{
		{name: "hiragana", text: "おはよう", want: Japanese},
		{name: "katakana", text: "テスト", want: Japanese},
		{name: "kanji", text: "翻訳", want: Japanese},
		{name: "mixed latin and hiragana", text: "meeting at 3pm です", want: Japanese},
		{name: "polish diacritic lowercase", text: "jutro będę później", want: Polish},
		{name: "polish diacritic uppercase", text: "ŁADNIE dzisiaj", want: Polish},
		{name: "plain english", text: "see you tomorrow", want: English},
		{name: "empty string", text: "", want: English},
		{name: "digits and punctuation", text: "123 !?", want: English},
		{name: "japanese wins over polish", text: "ą です", want: Japanese},
		{name: "polish without diacritics reads as english", text: "czesc", want: English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Detect(tt.text))
		})
	}
}

func TestTarget(t *testing.T) {
	t.Parallel()

	assert.Equal(t, English, Target(Japanese))
	assert.Equal(t, Japanese, Target(Polish))
	assert.Equal(t, Japanese, Target(English))
}
