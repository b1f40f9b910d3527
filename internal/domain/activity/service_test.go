package activity_test

import (
	"context"
	"testing"

	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/rpggio/drawbridge/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()
	tableID := int64(3)

	repo := &mocks.ActivityRepository{}
	entry := &activity.ActivityEntry{
		TableID:      &tableID,
		ActivityType: activity.TypeTableCreated,
		Summary:      "created",
	}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, activity.ListActivityOptions{TableID: &tableID, Limit: activity.DefaultListLimit}).
		Return([]activity.ActivityEntry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.Log(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())

	list, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{TableID: &tableID})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestActivityService_LogValidation(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	require.ErrorIs(t, svc.Log(context.Background(), nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.Log(context.Background(), &activity.ActivityEntry{}), activity.ErrInvalidInput)
}
