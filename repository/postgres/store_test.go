package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/interceptor/internal/config"
	pgInfra "github.com/fastygo/interceptor/internal/infrastructure/postgres"
	"github.com/fastygo/interceptor/repository"
	"github.com/fastygo/interceptor/repository/storetest"
)

func TestStoreContract(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	cfg := config.Default()
	cfg.Database.URL = url
	require.NoError(t, pgInfra.RunMigrations(cfg, nil))

	storetest.Run(t, func(t *testing.T) repository.Store {
		ctx := context.Background()
		pool, err := pgxpool.New(ctx, url)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `TRUNCATE records, record_sequences`)
		require.NoError(t, err)
		return NewStore(pool)
	})
}
