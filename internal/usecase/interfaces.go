package usecase

import (
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/infrastructure/realtime"
)

// RealtimeChannel is the slice of the channel client the coordinator
// depends on, kept narrow so tests can substitute an in-memory channel.
type RealtimeChannel interface {
	Subscribe(topic string, predicate realtime.Predicate, handler realtime.Handler) (*realtime.Subscription, error)
	Unsubscribe(sub *realtime.Subscription)
}

// StoreObserver is the presentation layer's publish-on-change hook. The
// view reads store contents only in response to these callbacks; it
// never mutates.
type StoreObserver interface {
	ConversationsChanged()
	MessagesChanged(conversationID string)
}

// BadgeObserver receives unread aggregates for tab badges. Called only
// when a count actually changed.
type BadgeObserver interface {
	UnreadBadgesChanged(conversations, notifications int)
}

// NoticeSink receives transient, dismissible user-facing notices for
// collaborator failures. Errors never cross into the presentation layer
// any other way.
type NoticeSink interface {
	TransientNotice(message string)
}
