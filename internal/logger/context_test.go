package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestFromContext_FallsBackToGlobal verifies an empty context yields the global logger.
func TestFromContext_FallsBackToGlobal(t *testing.T) {
	t.Parallel()

	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestWithFields ensures scoped fields and names reach the log entries.
func TestWithFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	ctx := ToContext(context.Background(), zap.New(core).Sugar())

	ctx = WithName(ctx, "webhook")
	ctx = WithKV(ctx, "webhook_id", "abc")
	ctx = WithFields(ctx, "remote", "10.0.0.2")

	InfoKV(ctx, "Delivery accepted", "alarms", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "webhook", entries[0].LoggerName)
	require.Equal(t, "Delivery accepted", entries[0].Message)

	fields := entries[0].ContextMap()
	require.Equal(t, "abc", fields["webhook_id"])
	require.Equal(t, "10.0.0.2", fields["remote"])
	require.EqualValues(t, 3, fields["alarms"])
}
