package notify

import (
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/service"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/logger"
)

// LogDispatcher satisfies the NotificationDispatcher contract by
// writing to the process log. The platform shell swaps in the real
// on-device notifier; the sync engine never knows the difference.
type LogDispatcher struct{}

func NewLogDispatcher() service.NotificationDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) ShowLocalNotification(title, body string, payload map[string]string) {
	logger.Info("Local notification: %s - %s (payload: %v)", title, body, payload)
}
