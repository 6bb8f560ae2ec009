package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tariff-impact/internal/config"
)

func TestOpen_Memory(t *testing.T) {
	st, err := Open(context.Background(), config.StoreConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)
}

func TestOpen_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.db")
	st, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	ctx := context.Background()
	require.NoError(t, st.Set(ctx, "k", []byte("v")))
	data, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	st, err := Open(context.Background(), config.StoreConfig{Driver: "redis", RedisURL: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, st)
	assert.NoError(t, st.Close())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "etcd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
