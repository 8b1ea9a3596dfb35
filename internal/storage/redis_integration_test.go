//go:build integration

package storage

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIntegration_RedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping integration test: TEST_REDIS_ADDR not set")
	}
	db, _ := strconv.Atoi(os.Getenv("TEST_REDIS_DB"))

	s, err := NewRedisStore(context.Background(), addr, os.Getenv("TEST_REDIS_PASSWORD"), db)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for _, key := range []string{KeyWatchlist, KeyTheme} {
		s.rdb.Del(ctx, redisPrefix+key)
	}
	exerciseStore(t, s)
}
