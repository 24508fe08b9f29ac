//go:build go1.21

package slog

import (
	"bytes"
	"encoding/json"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cqlmap"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewJSONHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("filtered", cqlmap.Fields{"a": 1})
	assert.Zero(t, buf.Len())

	l.Warn("pressure", cqlmap.Fields{"size": 9, "capacity": 10})
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "pressure", rec["msg"])
	group, ok := rec["cqlmap"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(9), group["size"])
	assert.Equal(t, float64(10), group["capacity"])
}

func TestAttrsSorted(t *testing.T) {
	got := attrs(cqlmap.Fields{"b": 1, "a": 2, "c": 3})
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Key, got[1].Key, got[2].Key})
	assert.Nil(t, attrs(nil))
}
