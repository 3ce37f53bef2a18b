//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"confide/internal/platform/database"
	"confide/internal/suspension"
	"confide/internal/suspension/store"
	"confide/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	require.NoError(t, database.Migrate(context.Background(), pg.DB))

	pgStore := store.NewPostgres(pg.DB)
	ctx := context.Background()

	t.Run("upsert and find round trip", func(t *testing.T) {
		until := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		stored, err := pgStore.Upsert(ctx, &suspension.SuspendedIdentity{
			IdentityHash:      "hash-roundtrip",
			IdentityEncrypted: "ciphertext",
			Reason:            "spam",
			SuspendedUntil:    &until,
			CreatedBy:         "admin",
		})
		require.NoError(t, err)
		require.NotZero(t, stored.ID)

		found, err := pgStore.FindByHash(ctx, "hash-roundtrip")
		require.NoError(t, err)
		require.NotNil(t, found)
		require.Equal(t, stored.ID, found.ID)
		require.Equal(t, "spam", found.Reason)
		require.NotNil(t, found.SuspendedUntil)
		require.True(t, until.Equal(found.SuspendedUntil.UTC().Truncate(time.Second)))
	})

	t.Run("unknown hash yields nil", func(t *testing.T) {
		found, err := pgStore.FindByHash(ctx, "no-such-hash")
		require.NoError(t, err)
		require.Nil(t, found)
	})

	t.Run("upsert replaces rather than duplicates", func(t *testing.T) {
		first, err := pgStore.Upsert(ctx, &suspension.SuspendedIdentity{
			IdentityHash:      "hash-replace",
			IdentityEncrypted: "ct-1",
			Reason:            "first",
		})
		require.NoError(t, err)

		second, err := pgStore.Upsert(ctx, &suspension.SuspendedIdentity{
			IdentityHash:      "hash-replace",
			IdentityEncrypted: "ct-2",
			Reason:            "second",
		})
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
		require.Equal(t, "second", second.Reason)
	})

	t.Run("concurrent upserts collapse into one row", func(t *testing.T) {
		const workers = 10
		var wg sync.WaitGroup
		errs := make(chan error, workers)

		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := pgStore.Upsert(ctx, &suspension.SuspendedIdentity{
					IdentityHash:      "hash-concurrent",
					IdentityEncrypted: "ct",
					Reason:            "race",
				})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		var count int
		require.NoError(t, pg.DB.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM suspended_identities WHERE identity_hash = $1`,
			"hash-concurrent").Scan(&count))
		require.Equal(t, 1, count)
	})
}
