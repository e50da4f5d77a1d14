package repository

import (
	"context"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
)

type NotificationRepository interface {
	ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}
