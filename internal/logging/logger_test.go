package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	l := Component("feed")
	l.Info().Str("key", "value").Msg("hello cheffry")

	out := buf.String()
	assert.Contains(t, out, `"message":"hello cheffry"`)
	assert.Contains(t, out, `"component":"feed"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestLogger_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "console", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Debug().Msg("console line")
	assert.Contains(t, buf.String(), "console line")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	Info().Msg("hidden")
	Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel(" error "))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("bogus"))
	assert.Equal(t, zerolog.Disabled, parseLevel("off"))
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "info", Output: &buf})
	t.Cleanup(func() { Init(Config{}) })

	n, err := Writer{Component: "gorm"}.Write([]byte("slow query\n"))
	assert.NoError(t, err)
	assert.Equal(t, len("slow query\n"), n)
	assert.True(t, strings.Contains(buf.String(), `"component":"gorm"`))
}
