// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_ServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "srt-test", Version: "v9"})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("recorder")
	l.Debug().Str(FieldEvent, "recorder.start").Msg("recording")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "srt-test", entry["service"])
	assert.Equal(t, "v9", entry["version"])
	assert.Equal(t, "recorder", entry[FieldComponent])
	assert.Equal(t, "recorder.start", entry[FieldEvent])
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestConfigure_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "loud", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	l := Derive(func(c *zerolog.Context) { *c = c.Str("k", "v") })
	l.Debug().Msg("suppressed")
	assert.Zero(t, buf.Len())
}
