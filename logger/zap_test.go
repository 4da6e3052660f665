package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humblenginr/site_publisher/config"
)

func TestNew_JSONToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "run.log")
	log, err := New(config.LoggerConfig{Level: "warn", Encoding: "json", OutputPaths: []string{out}})
	require.NoError(t, err)

	child := log.With("run_id", "abc")
	child.Infow("below level")
	child.Warnw("publish failed", "key", "index.html")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "publish failed", entry["message"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "index.html", entry["key"])
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	log, err := New(config.LoggerConfig{Level: "loud", OutputPaths: []string{filepath.Join(t.TempDir(), "x.log")}})
	require.NoError(t, err)

	assert.False(t, log.Desugar().Core().Enabled(-1))
	assert.True(t, log.Desugar().Core().Enabled(0))
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Infow("discarded")
	assert.NotNil(t, log.With("k", "v"))
}
