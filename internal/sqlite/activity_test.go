package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/drawbridge/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	tableID := int64(1)
	entry1 := &activity.ActivityEntry{
		TableID:      &tableID,
		ActivityType: activity.TypeTableCreated,
		Summary:      "created table inventory",
	}
	entry2 := &activity.ActivityEntry{
		TableID:      &tableID,
		ActivityType: activity.TypeRowsInserted,
		Summary:      "inserted 2 rows into inventory",
	}

	require.NoError(t, repo.Log(ctx, entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, entry2))
	require.NotZero(t, entry1.ID)

	entries, err := repo.List(ctx, activity.ListActivityOptions{TableID: &tableID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
	require.Equal(t, tableID, *entries[0].TableID)
	require.Nil(t, entries[0].SessionID)
}

func TestActivityRepository_Filters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	t1, t2 := int64(1), int64(2)
	sessionID := int64(5)
	require.NoError(t, repo.Log(ctx, &activity.ActivityEntry{TableID: &t1, ActivityType: activity.TypeRowsDeleted, Summary: "a"}))
	require.NoError(t, repo.Log(ctx, &activity.ActivityEntry{TableID: &t2, SessionID: &sessionID, ActivityType: activity.TypeSessionOpened, Summary: "b"}))
	require.NoError(t, repo.Log(ctx, &activity.ActivityEntry{TableID: &t2, ActivityType: activity.TypeRowsDeleted, Summary: "c"}))

	typ := activity.TypeRowsDeleted
	entries, err := repo.List(ctx, activity.ListActivityOptions{ActivityType: &typ})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entries, err = repo.List(ctx, activity.ListActivityOptions{TableID: &t2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "c", entries[0].Summary)

	entries, err = repo.List(ctx, activity.ListActivityOptions{TableID: &t2, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, sessionID, *entries[0].SessionID)
}
