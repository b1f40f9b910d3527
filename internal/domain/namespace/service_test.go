package namespace_test

import (
	"context"
	"testing"

	"github.com/rpggio/drawbridge/internal/domain/namespace"
	"github.com/rpggio/drawbridge/internal/repository"
	"github.com/rpggio/drawbridge/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNamespaceService_Create(t *testing.T) {
	ctx := context.Background()

	repo := &mocks.NamespaceRepository{}
	repo.On("Create", ctx, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*namespace.Namespace).ID = 9
	}).Return(nil)

	svc := namespace.NewService(repo, nil)
	ns, err := svc.Create(ctx, namespace.CreateRequest{Name: "  inventory "})
	require.NoError(t, err)
	require.Equal(t, int64(9), ns.ID)
	require.Equal(t, "inventory", ns.Name)
	require.Empty(t, ns.TableIDs)
}

func TestNamespaceService_CreateValidation(t *testing.T) {
	svc := namespace.NewService(&mocks.NamespaceRepository{}, nil)
	_, err := svc.Create(context.Background(), namespace.CreateRequest{Name: " "})
	require.ErrorIs(t, err, namespace.ErrInvalidInput)
}

func TestNamespaceService_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.NamespaceRepository{}
	repo.On("Create", ctx, mock.Anything).Return(repository.ErrAlreadyExists)

	svc := namespace.NewService(repo, nil)
	_, err := svc.Create(ctx, namespace.CreateRequest{Name: "dup"})
	require.ErrorIs(t, err, namespace.ErrNamespaceExists)
}

func TestNamespaceService_Update(t *testing.T) {
	ctx := context.Background()
	desc := "stock levels"
	newName := "stock"

	repo := &mocks.NamespaceRepository{}
	repo.On("Get", ctx, int64(1)).Return(&namespace.Namespace{ID: 1, Name: "inventory"}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(ns *namespace.Namespace) bool {
		return ns.Name == newName && ns.Description != nil && *ns.Description == desc
	})).Return(nil)

	svc := namespace.NewService(repo, nil)
	ns, err := svc.Update(ctx, namespace.UpdateRequest{ID: 1, Name: &newName, Description: &desc})
	require.NoError(t, err)
	require.Equal(t, newName, ns.Name)
}

func TestNamespaceService_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.NamespaceRepository{}
	repo.On("Get", ctx, int64(4)).Return((*namespace.Namespace)(nil), repository.ErrNotFound)
	repo.On("Delete", ctx, int64(4)).Return(repository.ErrNotFound)

	svc := namespace.NewService(repo, nil)
	_, err := svc.Get(ctx, 4)
	require.ErrorIs(t, err, namespace.ErrNamespaceNotFound)
	require.ErrorIs(t, svc.Delete(ctx, 4), namespace.ErrNamespaceNotFound)
}
