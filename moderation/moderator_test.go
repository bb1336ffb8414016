package moderation

import (
	"chat-relay/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary avoids words hidden inside common ones ("he" in "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger", "snake", "mushroom"}, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
		},
		{
			name:     "Multiple occurrences",
			input:    "badger badger badger",
			expected: "****** ****** ******",
		},
		{
			name:     "Leet speak and internal punctuation",
			input:    "Look at B.4.d.g.€r !",
			expected: "Look at ********** !",
		},
		{
			name:     "Uppercase and noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
		},
		{
			name:     "Accents are kept",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
		},
		{
			name:     "Trailing punctuation is kept",
			input:    "I love badger!",
			expected: "I love ******!",
		},
		{
			name:     "Wire separator inside text",
			input:    "snake|mushroom",
			expected: "*****|********",
		},
		{
			name:     "Nothing to censor",
			input:    "Chat relay is amazing",
			expected: "Chat relay is amazing",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req.Equal(tt.expected, mod.Censor(tt.input))
		})
	}
}

func TestModerator_Noise_Only_Words_Are_Skipped(t *testing.T) {
	req := require.New(t)

	// Given words made of noise only next to a real one
	mod, err := NewModerator([]string{"...", ",,,", "", "badger"}, replacementChar)
	req.NoError(err)

	req.Equal("The ****** is safe", mod.Censor("The badger is safe"))
	req.Equal("Hello ...", mod.Censor("Hello ..."))
}

func TestNewModerator_Rejects_Bad_Setup(t *testing.T) {
	req := require.New(t)

	_, err := NewModerator([]string{"...", ""}, replacementChar)
	req.ErrorIs(err, errors.ErrInvalidConfig)

	_, err = NewModerator([]string{"badger"}, '\n')
	req.ErrorIs(err, errors.ErrInvalidConfig)
}
