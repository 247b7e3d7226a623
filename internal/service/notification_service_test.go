package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamtrack/teamtrack-api/internal/models"
)

type unreadCacheStub struct {
	counts      map[string]int64
	invalidated []string
}

func newUnreadCacheStub() *unreadCacheStub {
	return &unreadCacheStub{counts: make(map[string]int64)}
}

func (c *unreadCacheStub) Get(ctx context.Context, userID string) (int64, bool, error) {
	count, ok := c.counts[userID]
	return count, ok, nil
}

func (c *unreadCacheStub) Set(ctx context.Context, userID string, count int64) error {
	c.counts[userID] = count
	return nil
}

func (c *unreadCacheStub) Invalidate(ctx context.Context, userID string) error {
	delete(c.counts, userID)
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func TestNotificationServiceUnreadCountCachesResult(t *testing.T) {
	store := &notificationStoreStub{}
	cache := newUnreadCacheStub()
	svc := NewNotificationService(store, cache, nil, nil)

	require.NoError(t, svc.Notify(context.Background(), "user-1", models.NotificationTask, "task-1", "assigned"))
	require.NoError(t, svc.Notify(context.Background(), "user-1", models.NotificationTask, "task-2", "assigned"))

	count, err := svc.UnreadCount(context.Background(), employeeClaims("user-1"))
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
	require.EqualValues(t, 2, cache.counts["user-1"])

	// Warm cache short-circuits the store.
	store.created = nil
	count, err = svc.UnreadCount(context.Background(), employeeClaims("user-1"))
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestNotificationServiceNotifyInvalidatesCache(t *testing.T) {
	store := &notificationStoreStub{}
	cache := newUnreadCacheStub()
	cache.counts["user-1"] = 5
	svc := NewNotificationService(store, cache, nil, nil)

	require.NoError(t, svc.Notify(context.Background(), "user-1", models.NotificationProject, "proj-1", "approved"))
	require.NotContains(t, cache.counts, "user-1")
	require.Contains(t, cache.invalidated, "user-1")
}

func TestNotificationServiceListRequiresActor(t *testing.T) {
	svc := NewNotificationService(&notificationStoreStub{}, nil, nil, nil)
	_, err := svc.List(context.Background(), nil, 20)
	require.Error(t, err)
}
