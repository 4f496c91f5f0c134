// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Setup(&buf, tt.in)
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestSetupWritesConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, "info")

	logger.Debug().Msg("hidden")
	logger.Warn().Str("motif", "pattern_002").Msg("dangling ref dropped")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "dangling ref dropped")
	assert.Contains(t, out, "pattern_002")
}
