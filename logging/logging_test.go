package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	logger, err := New("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = New("loud", false)
	assert.Error(t, err)
}

func TestTemporalLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewTemporalLogger(zap.New(core))

	logger.Info("Domain added to cart", "domain", "meusite.com.br", "attempt", 2)
	logger.Error("Purchase failed", "error", errors.New("declined"))
	logger.Warn("odd", "dangling")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)

	ctx := entries[0].ContextMap()
	assert.Equal(t, "meusite.com.br", ctx["domain"])
	assert.Equal(t, int64(2), ctx["attempt"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "declined", entries[1].ContextMap()["error"])

	assert.Equal(t, "dangling", entries[2].ContextMap()["!BADKEY"])
}

func TestTemporalLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var logger log.Logger = NewTemporalLogger(zap.New(core))

	scoped := log.With(logger, "session_id", "abc")
	scoped.Info("state queried")
	scoped.Debug("filtered")

	entries := logs.FilterField(zap.String("session_id", "abc")).AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "state queried", entries[0].Message)
}
