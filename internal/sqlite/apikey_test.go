package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rpggio/drawbridge/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository_Resolve(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewAPIKeyRepository(db)

	userID := uuid.New()
	require.NoError(t, repo.Add(ctx, "secret-token", userID, "cli"))

	got, err := repo.ResolveUser(ctx, "secret-token")
	require.NoError(t, err)
	require.Equal(t, userID, got)

	var stored string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT key_hash FROM api_keys`).Scan(&stored))
	require.NotEqual(t, "secret-token", stored)
	require.Equal(t, HashToken("secret-token"), stored)

	_, err = repo.ResolveUser(ctx, "other")
	require.ErrorIs(t, err, repository.ErrNotFound)
}
