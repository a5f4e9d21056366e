package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	SetLevel(LevelDebug)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return buf
}

func TestJSONFormatCarriesFields(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	buf := captureOutput(t)

	New("sync").WithField("mindmapId", "m1").Warn("save failed", map[string]interface{}{
		"error": errors.New("network down"),
	})

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, LevelWarn, entry.Level)
	assert.Equal(t, "sync", entry.Logger)
	assert.Equal(t, "m1", entry.Data["mindmapId"])
	assert.Equal(t, "network down", entry.Data["error"])
}

func TestLevelFilter(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelError)

	l := New("server")
	l.Info("ignored")
	l.Error("kept")

	assert.NotContains(t, buf.String(), "ignored")
	assert.Contains(t, buf.String(), "[ERROR] server: kept")
}

func TestWithFieldsDoesNotLeakIntoParent(t *testing.T) {
	parent := New("editor")
	child := parent.WithFields(map[string]interface{}{"a": 1})

	assert.Empty(t, parent.fields)
	assert.Equal(t, 1, child.fields["a"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, LevelError, ParseLevel("Error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
}
