package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   LevelDebug,
		"":        LevelInfo,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLazyLoggerFollowsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := Logger("proxy")

	var first, second bytes.Buffer
	Setup(&first, FormatText, LevelInfo)
	logger.Info("first", "requestID", "abc")
	logger.Debug("hidden")

	Setup(&second, FormatJSON, LevelDebug)
	logger.Debug("second")

	assert.Contains(t, first.String(), "component=proxy")
	assert.Contains(t, first.String(), "requestID=abc")
	assert.NotContains(t, first.String(), "hidden")
	assert.Contains(t, second.String(), `"component":"proxy"`)
	assert.Contains(t, second.String(), `"msg":"second"`)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc", TruncateID("abc", 8))
	assert.Equal(t, "abcdefgh", TruncateID("abcdefghijkl", 8))
}
