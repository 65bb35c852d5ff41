package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("splitpay-test", "debug", &buf)

	log.Info("split finalized", map[string]interface{}{"request_id": "abc"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "splitpay-test", entry["service"])
	assert.Equal(t, "split finalized", entry["message"])
	assert.Equal(t, "abc", entry["request_id"])
}

func TestJSONLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("splitpay-test", "warn", &buf)

	log.Debug("hidden", nil)
	log.Info("hidden", nil)
	log.Warn("shown", nil)
	log.Error("shown", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestJSONLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("svc", "verbose", &buf)

	log.Debug("hidden", nil)
	assert.Empty(t, buf.String())

	log.Info("shown", nil)
	assert.NotEmpty(t, buf.String())
}
