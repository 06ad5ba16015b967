package redis

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/interceptor/repository"
	"github.com/fastygo/interceptor/repository/storetest"
)

func TestStoreContract(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	storetest.Run(t, func(t *testing.T) repository.Store {
		opts, err := redislib.ParseURL(url)
		require.NoError(t, err)
		client := redislib.NewClient(opts)
		require.NoError(t, client.Ping(context.Background()).Err())

		prefix := "interceptor-test:" + uuid.NewString() + ":"
		t.Cleanup(func() {
			cleanup := redislib.NewClient(opts)
			defer cleanup.Close()
			ctx := context.Background()
			iter := cleanup.Scan(ctx, 0, prefix+"*", 100).Iterator()
			for iter.Next(ctx) {
				cleanup.Del(ctx, iter.Val())
			}
		})
		return NewStore(client, prefix, 100)
	})
}
