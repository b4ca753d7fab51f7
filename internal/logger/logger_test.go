package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{Logger: zap.New(core), config: DefaultConfig()}, logs
}

func TestWithWalletAttachesField(t *testing.T) {
	log, logs := newObservedLogger()

	log.WithWallet("7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU").Info("analysis started")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		entries[0].ContextMap()["wallet"])
}

func TestWithComponentAttachesField(t *testing.T) {
	log, logs := newObservedLogger()

	log.WithComponent("helius").Warn("rate limited")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "helius", entries[0].ContextMap()["component"])
}

func TestWithOperationCarriesCorrelationID(t *testing.T) {
	log, logs := newObservedLogger()

	log.WithOperation("wallet_report").Info("step one")
	log.WithOperation("wallet_report").Info("step two")

	entries := logs.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	second := entries[1].ContextMap()
	assert.Equal(t, "wallet_report", first["operation"])
	assert.NotEmpty(t, first["correlation_id"])
	assert.NotEqual(t, first["correlation_id"], second["correlation_id"],
		"each operation scope gets its own correlation id")
}

func TestLogErrorAppendsError(t *testing.T) {
	log, logs := newObservedLogger()

	log.LogError("fetch failed", errors.New("boom"), zap.String("wallet", "abc"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, "abc", fields["wallet"])
}

func TestTrackPerformanceLogsBothEnds(t *testing.T) {
	log, logs := newObservedLogger()

	end := log.TrackPerformance("wallet_report")
	end()

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Starting operation", entries[0].Message)
	assert.Equal(t, "Operation completed", entries[1].Message)
	assert.Equal(t, entries[0].ContextMap()["correlation_id"],
		entries[1].ContextMap()["correlation_id"],
		"start and completion share one correlation scope")
	assert.Contains(t, entries[1].ContextMap(), "duration")
}