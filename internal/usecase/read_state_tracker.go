package usecase

import (
	"context"
	"sync"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/repository"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/logger"
)

// ReadStateTracker maintains the derived unread aggregates behind tab
// badges and the notification center. Counts are eagerly recomputed in
// full from the store and the notification collaborator rather than
// adjusted incrementally, so they can never drift from their source.
type ReadStateTracker struct {
	store            *ConversationStore
	notificationRepo repository.NotificationRepository

	mu                  sync.Mutex
	unreadConversations int
	unreadNotifications int
	observers           []BadgeObserver
}

func NewReadStateTracker(store *ConversationStore, notificationRepo repository.NotificationRepository) *ReadStateTracker {
	return &ReadStateTracker{
		store:            store,
		notificationRepo: notificationRepo,
	}
}

func (t *ReadStateTracker) AddObserver(observer BadgeObserver) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, observer)
}

// RecomputeUnreadConversations re-derives the unread-conversation count
// from current store state. Called after every store mutation that
// could change unread status.
func (t *ReadStateTracker) RecomputeUnreadConversations() int {
	count := t.store.UnreadConversationCount()

	t.mu.Lock()
	changed := count != t.unreadConversations
	t.unreadConversations = count
	conversations, notifications := t.unreadConversations, t.unreadNotifications
	observers := t.snapshotObservers()
	t.mu.Unlock()

	if changed {
		t.publish(observers, conversations, notifications)
	}
	return count
}

// RecomputeUnreadNotifications re-reads the unread notification count
// from the Data Store. A failed recomputation keeps the previously
// displayed count (stale but safe, corrected on the next trigger) and
// never surfaces a negative or undefined badge.
func (t *ReadStateTracker) RecomputeUnreadNotifications(ctx context.Context, userID string) int {
	count, err := t.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		t.mu.Lock()
		previous := t.unreadNotifications
		t.mu.Unlock()
		logger.Error("Failed to recompute unread notifications for user %s, keeping %d: %v", userID, previous, err)
		return previous
	}
	if count < 0 {
		count = 0
	}

	t.mu.Lock()
	changed := count != t.unreadNotifications
	t.unreadNotifications = count
	conversations, notifications := t.unreadConversations, t.unreadNotifications
	observers := t.snapshotObservers()
	t.mu.Unlock()

	if changed {
		t.publish(observers, conversations, notifications)
	}
	return count
}

// UnreadCounts returns the current aggregates without recomputation.
func (t *ReadStateTracker) UnreadCounts() (conversations, notifications int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unreadConversations, t.unreadNotifications
}

func (t *ReadStateTracker) publish(observers []BadgeObserver, conversations, notifications int) {
	for _, observer := range observers {
		observer.UnreadBadgesChanged(conversations, notifications)
	}
}

// callers must hold t.mu
func (t *ReadStateTracker) snapshotObservers() []BadgeObserver {
	observers := make([]BadgeObserver, len(t.observers))
	copy(observers, t.observers)
	return observers
}
