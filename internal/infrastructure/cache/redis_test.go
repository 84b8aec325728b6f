package cache_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Apothecary-api/internal/infrastructure/cache"
	"github.com/jhoicas/Apothecary-api/pkg/config"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := cache.NewRedis(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	mr.CheckGet(t, "k", "v")
}

func TestNewRedis_SinServidor(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := cache.NewRedis(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
