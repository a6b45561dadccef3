package logging_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/ha-memory-server/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupWithWriter(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logger := logging.SetupWithWriter("warn", "PROD", &buf)
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	logger.Info().Msg("dropped")
	logger.Warn().Str("component", "test").Msg("kept")

	require.NotContains(t, buf.String(), "dropped")
	require.Contains(t, buf.String(), `"component":"test"`)
}

func TestSetupWithWriter_BadLevelFallsBackToInfo(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	logging.SetupWithWriter("loud", "PROD", &buf)
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
