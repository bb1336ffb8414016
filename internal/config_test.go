package internal

import (
	"chat-relay/errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)

	config, err := Load()

	req.NoError(err)
	req.Equal("0.0.0.0:10000", config.Address())
	req.Equal("INFO", config.LogLevel)
	req.Equal(64, config.ConnectionBufferSize)
	req.Equal(4096, config.MaxFrameSize)
	req.Equal(5*time.Second, config.WriteTimeout)
	req.Equal(200*time.Millisecond, config.RestartInterval)
	req.Empty(config.BadgerFilepath)
	req.Empty(config.CensoredWordList())
}

func TestLoad_From_Environment(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "4000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CENSORED_WORDS", "badger, snake,,mushroom ")
	t.Setenv("CHARACTER_REPLACEMENT", "#")

	config, err := Load()

	req.NoError(err)
	req.Equal(4000, config.Port)
	req.Equal("DEBUG", config.LogLevel)
	req.Equal([]string{"badger", "snake", "mushroom"}, config.CensoredWordList())
	r, err := CharacterRune(config.CharReplacement)
	req.NoError(err)
	req.Equal('#', r)
}

func TestLoad_Rejects_Invalid_Values(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "PORT", "70000"},
		{"unknown log level", "LOG_LEVEL", "VERBOSE"},
		{"empty connection buffer", "CONNECTION_BUFFER_SIZE", "0"},
		{"tiny frames", "MAX_FRAME_SIZE", "8"},
		{"two characters replacement", "CHARACTER_REPLACEMENT", "**"},
		{"not a duration", "WRITE_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.ErrorIs(t, err, errors.ErrInvalidConfig)
		})
	}
}
