package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/drawbridge/internal/domain/session"
	"github.com/rpggio/drawbridge/internal/repository"
)

// SessionRepository implements session.Repository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session and assigns its id
func (r *SessionRepository) Create(ctx context.Context, sess *session.Session) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO edit_sessions (user_id, table_id, created_at, expires_at, is_closed)
		VALUES (?, ?, ?, ?, ?)
	`, sess.UserID, sess.TableID, sess.CreatedAt.UTC(), sess.ExpiresAt.UTC(), sess.IsClosed)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get session id: %w", err)
	}
	sess.ID = id
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id int64) (*session.Session, error) {
	var sess session.Session
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, table_id, created_at, expires_at, is_closed
		FROM edit_sessions
		WHERE id = ?
	`, id).Scan(
		&sess.ID,
		&sess.UserID,
		&sess.TableID,
		&sess.CreatedAt,
		&sess.ExpiresAt,
		&sess.IsClosed,
	)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// Close marks a session closed
func (r *SessionRepository) Close(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE edit_sessions SET is_closed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CloseExpired closes every open session whose expiry is before now
func (r *SessionRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE edit_sessions SET is_closed = 1
		WHERE is_closed = 0 AND expires_at < ?
	`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to close expired sessions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

// List returns sessions matching the filter, oldest first
func (r *SessionRepository) List(ctx context.Context, filter session.ListFilter) ([]session.Session, error) {
	query := `
		SELECT id, user_id, table_id, created_at, expires_at, is_closed
		FROM edit_sessions
	`

	args := []any{}
	conditions := []string{}
	if filter.TableID != nil {
		conditions = append(conditions, "table_id = ?")
		args = append(args, *filter.TableID)
	}
	if filter.UserID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if filter.IsClosed != nil {
		conditions = append(conditions, "is_closed = ?")
		args = append(args, *filter.IsClosed)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	list := []session.Session{}
	for rows.Next() {
		var sess session.Session
		if err := rows.Scan(
			&sess.ID,
			&sess.UserID,
			&sess.TableID,
			&sess.CreatedAt,
			&sess.ExpiresAt,
			&sess.IsClosed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		list = append(list, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return list, nil
}
