package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterWritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.InfoLevel)

	log.Info("batch", "file processed", map[string]interface{}{"file": "a.nii", "slices": 10})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "batch", entry["component"])
	assert.Equal(t, "file processed", entry["message"])
	assert.Equal(t, "a.nii", entry["file"])
	assert.EqualValues(t, 10, entry["slices"])
}

func TestZerologAdapterError(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.InfoLevel)

	log.Error("batch", errors.New("boom"), nil)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["error"])
}

func TestZerologAdapterLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Debug("batch", "hidden", nil)
	log.Info("batch", "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Warning("batch", "shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, level)

	level, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestZerologAdapterSkipped(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.InfoLevel)

	log.Skipped("batch", "scan.nii", "shape", errors.New("slices are 300x256"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "batch", entry["component"])
	assert.Equal(t, "skipping file", entry["message"])
	assert.Equal(t, "scan.nii", entry["file"])
	assert.Equal(t, "shape", entry["reason"])
	assert.Equal(t, "slices are 300x256", entry["error"])
}

type sliceSize struct{ h, w int }

func (s sliceSize) String() string { return fmt.Sprintf("%dx%d", s.h, s.w) }

func TestZerologAdapterFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Debug("shape", "resized", map[string]interface{}{
		"size":  sliceSize{256, 256},
		"cause": errors.New("width differs"),
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "256x256", entry["size"])
	assert.Equal(t, "width differs", entry["cause"])
}
