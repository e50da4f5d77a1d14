package usecase

import (
	"context"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/repository"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/service"
)

// NotificationUseCase backs the notification center screen: list the
// feed, mark records read, and keep the badge aggregate current.
type NotificationUseCase struct {
	notificationRepo repository.NotificationRepository
	identity         service.IdentityProvider
	tracker          *ReadStateTracker
}

func NewNotificationUseCase(
	notificationRepo repository.NotificationRepository,
	identity service.IdentityProvider,
	tracker *ReadStateTracker,
) *NotificationUseCase {
	return &NotificationUseCase{
		notificationRepo: notificationRepo,
		identity:         identity,
		tracker:          tracker,
	}
}

func (uc *NotificationUseCase) ListNotifications(ctx context.Context, limit int) ([]*entity.Notification, error) {
	userID, err := uc.identity.CurrentUserID()
	if err != nil {
		return nil, err
	}
	return uc.notificationRepo.ListByUserID(ctx, userID, limit)
}

func (uc *NotificationUseCase) MarkNotificationRead(ctx context.Context, notificationID string) error {
	userID, err := uc.identity.CurrentUserID()
	if err != nil {
		return err
	}
	if err := uc.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		return err
	}
	uc.tracker.RecomputeUnreadNotifications(ctx, userID)
	return nil
}

func (uc *NotificationUseCase) MarkAllNotificationsRead(ctx context.Context) error {
	userID, err := uc.identity.CurrentUserID()
	if err != nil {
		return err
	}
	if err := uc.notificationRepo.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	uc.tracker.RecomputeUnreadNotifications(ctx, userID)
	return nil
}
