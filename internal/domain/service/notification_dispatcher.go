package service

// NotificationDispatcher surfaces a local (on-device) notification for
// an incoming message. Fire-and-forget: the sync engine relies on no
// return contract and never blocks on delivery.
type NotificationDispatcher interface {
	ShowLocalNotification(title, body string, payload map[string]string)
}
