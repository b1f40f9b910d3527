package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/repository"
)

// Options configures a Service.
type Options struct {
	// TTL is added to the creation time to compute expiry. Zero means DefaultTTL.
	TTL        time.Duration
	Now        func() time.Time
	Activities ActivityRepository
	Metrics    Metrics
}

// Service tracks edit sessions. It only reports state; it never blocks
// writes to the tables a session refers to.
type Service struct {
	sessions   Repository
	activities ActivityRepository
	metrics    Metrics
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a new session service.
func NewService(sessions Repository, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		sessions:   sessions,
		activities: opts.Activities,
		metrics:    opts.Metrics,
		ttl:        opts.TTL,
		now:        opts.Now,
		logger:     logger,
	}
}

// TTL returns the configured session lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// CreateSession opens a new session for the user on the table. Existing
// open sessions for the same pair are left alone.
func (s *Service) CreateSession(ctx context.Context, userID uuid.UUID, tableID int64) (*Session, error) {
	if userID == uuid.Nil || tableID <= 0 {
		return nil, ErrInvalidInput
	}

	now := s.now().UTC()
	sess := &Session{
		UserID:    userID,
		TableID:   tableID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("creating session: %w", err)
	}

	s.logActivity(ctx, sess, activity.TypeSessionOpened, fmt.Sprintf("opened session %d on table %d", sess.ID, tableID))
	return sess, nil
}

// CloseSession marks a session closed. Closing a missing or already closed
// session does nothing.
func (s *Service) CloseSession(ctx context.Context, id int64) error {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("loading session: %w", err)
	}
	if sess.IsClosed {
		return nil
	}

	if err := s.sessions.Close(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("closing session: %w", err)
	}

	s.logActivity(ctx, sess, activity.TypeSessionClosed, fmt.Sprintf("closed session %d", id))
	return nil
}

// SweepExpired closes every open session whose expiry has passed and
// returns how many were closed. Repeated calls are harmless.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.CloseExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweeping expired sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("closed expired sessions", "count", n)
		if s.metrics != nil {
			s.metrics.SessionsSwept(n)
		}
	}
	return n, nil
}

// ListSessions sweeps expired sessions, then returns those matching the
// filter. The sweep ignores the filter.
func (s *Service) ListSessions(ctx context.Context, filter ListFilter) ([]Session, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		return nil, err
	}

	list, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	return list, nil
}

// OpenSessionsForTable lists open sessions on a table.
func (s *Service) OpenSessionsForTable(ctx context.Context, tableID int64) ([]Session, error) {
	open := false
	return s.ListSessions(ctx, ListFilter{TableID: &tableID, IsClosed: &open})
}

// OpenSessionsForUser lists a user's open sessions.
func (s *Service) OpenSessionsForUser(ctx context.Context, userID uuid.UUID) ([]Session, error) {
	open := false
	return s.ListSessions(ctx, ListFilter{UserID: &userID, IsClosed: &open})
}

func (s *Service) logActivity(ctx context.Context, sess *Session, typ activity.ActivityType, summary string) {
	if s.activities == nil {
		return
	}
	tableID := sess.TableID
	sessionID := sess.ID
	err := s.activities.Log(ctx, &activity.ActivityEntry{
		TableID:      &tableID,
		SessionID:    &sessionID,
		ActivityType: typ,
		Summary:      summary,
	})
	if err != nil {
		s.logger.Warn("failed to log session activity", "session_id", sess.ID, "error", err)
	}
}
