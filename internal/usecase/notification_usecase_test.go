package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkNotificationReadUpdatesBadge(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	notificationRepo := &fakeNotificationRepo{}
	tracker := NewReadStateTracker(store, notificationRepo)
	identity := &fakeIdentity{userID: "buyer", signedIn: true}
	uc := NewNotificationUseCase(notificationRepo, identity, tracker)

	notificationRepo.setUnread(2)
	tracker.RecomputeUnreadNotifications(context.Background(), "buyer")

	require.NoError(t, uc.MarkNotificationRead(context.Background(), "n1"))
	_, notifications := tracker.UnreadCounts()
	assert.Equal(t, 1, notifications)

	require.NoError(t, uc.MarkAllNotificationsRead(context.Background()))
	_, notifications = tracker.UnreadCounts()
	assert.Zero(t, notifications)
}

func TestNotificationOperationsRequireSignedInUser(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	notificationRepo := &fakeNotificationRepo{}
	tracker := NewReadStateTracker(store, notificationRepo)
	identity := &fakeIdentity{signedIn: false}
	uc := NewNotificationUseCase(notificationRepo, identity, tracker)

	_, err := uc.ListNotifications(context.Background(), 10)
	assert.Error(t, err)
	assert.Error(t, uc.MarkNotificationRead(context.Background(), "n1"))
	assert.Error(t, uc.MarkAllNotificationsRead(context.Background()))
}
