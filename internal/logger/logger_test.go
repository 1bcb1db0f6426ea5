package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Info("Scheduler", "tick processed", map[string]interface{}{"seq": 7})

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "Scheduler", rec["component"])
	assert.Equal(t, "tick processed", rec["message"])
	assert.Equal(t, float64(7), rec["seq"])
	assert.Equal(t, "info", rec["level"])
}

func TestZerologAdapterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Debug("X", "hidden", nil)
	log.Info("X", "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Error("X", errors.New("boom"), nil)
	assert.Contains(t, buf.String(), "boom")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, InfoLevel, lvl)

	_, err = ParseLevel("chatty")
	assert.Error(t, err)
}

func TestRecorderCount(t *testing.T) {
	r := NewRecorder()
	r.Info("A", "one", nil)
	r.Info("A", "one", nil)
	r.Warning("A", "two", nil)

	assert.Equal(t, 2, r.Count("one"))
	assert.Len(t, r.Entries(), 3)
}
