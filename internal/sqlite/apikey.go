package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/drawbridge/internal/repository"
)

// APIKeyRepository maps bearer tokens to user ids. Only token hashes are stored.
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Add registers a token for a user
func (r *APIKeyRepository) Add(ctx context.Context, token string, userID uuid.UUID, description string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO api_keys (key_hash, user_id, description, created_at)
		VALUES (?, ?, ?, ?)
	`, HashToken(token), userID, description, time.Now().UTC())
	if err != nil {
		return mapWriteError("failed to add api key", err)
	}
	return nil
}

// ResolveUser returns the user owning the token and records its use
func (r *APIKeyRepository) ResolveUser(ctx context.Context, token string) (uuid.UUID, error) {
	hash := HashToken(token)

	var userID uuid.UUID
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&userID)
	if err == sql.ErrNoRows {
		return uuid.Nil, repository.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, time.Now().UTC(), hash); err != nil {
		return uuid.Nil, fmt.Errorf("failed to touch api key: %w", err)
	}
	return userID, nil
}

// HashToken returns the hex sha256 of a token
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
