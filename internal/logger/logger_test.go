package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{Service: "ridecore", Level: zerolog.DebugLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithUserID(ctx, "user-1")
	logg.Error(ctx, "boom", errors.New("bad thing"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ridecore", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "user-1", entry["user_id"])
	assert.Equal(t, "bad thing", entry["error"])
	assert.Equal(t, "boom", entry["message"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{Level: zerolog.WarnLevel, Output: &buf})

	logg.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	logg.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("nonsense"))
}
