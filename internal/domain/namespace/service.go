package namespace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/drawbridge/internal/repository"
)

// Service handles namespace operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new namespace service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines namespace creation inputs.
type CreateRequest struct {
	Name        string
	Description *string
}

// UpdateRequest changes a namespace's name or description. Nil fields are kept.
type UpdateRequest struct {
	ID          int64
	Name        *string
	Description *string
}

// Create creates a new namespace.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Namespace, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}

	ns := &Namespace{
		Name:        name,
		Description: req.Description,
		TableIDs:    []int64{},
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, ns); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrNamespaceExists
		}
		return nil, fmt.Errorf("creating namespace: %w", err)
	}

	s.logger.Info("namespace created", "namespace_id", ns.ID, "name", ns.Name)
	return ns, nil
}

// Get fetches a namespace with the ids of its tables.
func (s *Service) Get(ctx context.Context, id int64) (*Namespace, error) {
	ns, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNamespaceNotFound
		}
		return nil, fmt.Errorf("getting namespace: %w", err)
	}
	return ns, nil
}

// List returns all namespaces ordered by name.
func (s *Service) List(ctx context.Context) ([]Namespace, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing namespaces: %w", err)
	}
	return list, nil
}

// Update renames a namespace or changes its description.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Namespace, error) {
	ns, err := s.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		ns.Name = name
	}
	if req.Description != nil {
		ns.Description = req.Description
	}

	if err := s.repo.Update(ctx, ns); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNamespaceNotFound
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, ErrNamespaceExists
		}
		return nil, fmt.Errorf("updating namespace: %w", err)
	}
	return ns, nil
}

// Delete removes a namespace. Its tables survive without a namespace.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNamespaceNotFound
		}
		return fmt.Errorf("deleting namespace: %w", err)
	}
	s.logger.Info("namespace deleted", "namespace_id", id)
	return nil
}
