package zap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/cqlmap"
)

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Debug("compiled", cqlmap.Fields{"tier": "dynamic", "key": "ab12"})
	l.Error("compile failed", cqlmap.Fields{"err": errors.New("boom")})
	l.Info("no fields", nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "cqlmap", entries[0].LoggerName)
	require.Len(t, entries[0].Context, 2)
	assert.Equal(t, "key", entries[0].Context[0].Key, "fields are sorted")
	assert.Equal(t, map[string]any{"tier": "dynamic", "key": "ab12"}, entries[0].ContextMap())

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["err"])

	assert.Empty(t, entries[2].Context)
}

func TestNewNil(t *testing.T) {
	assert.NotPanics(t, func() { New(nil).Warn("dropped", cqlmap.Fields{"a": 1}) })
}
