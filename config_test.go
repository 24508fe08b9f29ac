package cqlmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/cqlmap/provider/lru"
	"github.com/unkn0wn-root/cqlmap/provider/ristretto"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, defaultMaxDynamic, cfg.MaxDynamic)
	assert.Equal(t, defaultPressureThreshold, cfg.PressureThreshold)
	assert.Equal(t, BackendLRU, cfg.Backend)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.IsType(t, &lru.Provider{}, opts.Provider)
	assert.Equal(t, defaultMaxDynamic, opts.Provider.Cap())
}

func TestParseConfigRistretto(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
max_dynamic: 500
pressure_threshold: 0.9
backend: ristretto
ristretto:
  num_counters: 5000
  buffer_items: 32
`))
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.MaxDynamic)
	assert.Equal(t, 0.9, cfg.PressureThreshold)
	assert.Equal(t, int64(5000), cfg.Ristretto.NumCounters)

	opts, err := cfg.Options()
	require.NoError(t, err)
	p, ok := opts.Provider.(*ristretto.Provider)
	require.True(t, ok, "expected ristretto provider, got %T", opts.Provider)
	defer p.Close()

	c, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, 500, c.Stats().Capacity)
}

func TestParseConfigInvalid(t *testing.T) {
	for _, in := range []string{
		"backend: memcached",
		"pressure_threshold: 2",
		"max_dynamic: -3",
		"max_dynamic: [",
	} {
		_, err := ParseConfig([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cqlmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_dynamic: 42\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.MaxDynamic)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
