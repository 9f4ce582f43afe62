package logger_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriterLevels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.InitWithWriter(&buf, "warning", true))

	logger.Info().Msg("hidden")
	logger.Warn().Str("device", "D1").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "D1")
}

func TestInitInvalidLevel(t *testing.T) {
	err := logger.InitWithWriter(&bytes.Buffer{}, "loud", true)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestErrorWithCode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.InitWithWriter(&buf, "debug", true))

	logger.Default().ErrorWithCode(errors.New().New(errors.ErrMarkerIO)).Msg("marker")

	assert.Contains(t, buf.String(), "marker_io_failed")
}
