package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/repository"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/logger"
)

// SummaryPatch carries the denormalized last-message fields of a
// conversation, as delivered by a realtime change event.
type SummaryPatch struct {
	ConversationID      string
	LastMessage         string
	LastMessageAt       time.Time
	LastMessageSenderID string
	UnreadForViewer     bool
}

// ConversationStore is the authoritative client-side snapshot of
// conversations and messages for the signed-in user. It lives for one
// session: built after sign-in, discarded on sign-out. The sync
// coordinator is its only writer; the presentation layer reads through
// the listing methods and reacts to observer callbacks.
//
// Every mutation is an idempotent upsert keyed by a stable identifier,
// so interleaved mutations commute and replaying a duplicate event is a
// no-op.
type ConversationStore struct {
	convRepo repository.ConversationRepository
	viewerID string

	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message
	messageIndex  map[string]map[string]bool
	observers     []StoreObserver
}

func NewConversationStore(convRepo repository.ConversationRepository, viewerID string) *ConversationStore {
	return &ConversationStore{
		convRepo:      convRepo,
		viewerID:      viewerID,
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
		messageIndex:  make(map[string]map[string]bool),
	}
}

func (s *ConversationStore) ViewerID() string {
	return s.viewerID
}

func (s *ConversationStore) AddObserver(observer StoreObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// ListConversations returns the conversation list sorted descending by
// last activity (last-message timestamp, creation time for threads with
// no message yet). No side effects.
func (s *ConversationStore) ListConversations() []*entity.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]*entity.Conversation, 0, len(s.conversations))
	for _, conversation := range s.conversations {
		copied := *conversation
		list = append(list, &copied)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].LastActivityAt().After(list[j].LastActivityAt())
	})

	return list
}

func (s *ConversationStore) GetConversation(id string) (*entity.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.conversations[id]
	if !ok {
		return nil, false
	}
	copied := *conversation
	return &copied, true
}

// ListMessages returns the conversation's messages ascending by
// creation timestamp. Safe to call repeatedly; always reflects current
// state.
func (s *ConversationStore) ListMessages(conversationID string) []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := s.messages[conversationID]
	list := make([]*entity.Message, 0, len(stored))
	for _, message := range stored {
		copied := *message
		list = append(list, &copied)
	}
	return list
}

// ReplaceConversations applies a full snapshot of the conversation
// list, the reconciliation path after subscribe and on foreground.
func (s *ConversationStore) ReplaceConversations(conversations []*entity.Conversation) {
	s.mu.Lock()
	s.conversations = make(map[string]*entity.Conversation, len(conversations))
	for _, conversation := range conversations {
		copied := *conversation
		s.conversations[conversation.ID] = &copied
	}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, observer := range observers {
		observer.ConversationsChanged()
	}
}

// ReplaceMessages applies a full message-history snapshot for one
// conversation, discarding whatever incremental state preceded it.
func (s *ConversationStore) ReplaceMessages(conversationID string, messages []*entity.Message) {
	s.mu.Lock()
	sorted := make([]*entity.Message, 0, len(messages))
	index := make(map[string]bool, len(messages))
	for _, message := range messages {
		if index[message.ID] {
			continue
		}
		copied := *message
		sorted = append(sorted, &copied)
		index[message.ID] = true
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	s.messages[conversationID] = sorted
	s.messageIndex[conversationID] = index
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, observer := range observers {
		observer.MessagesChanged(conversationID)
	}
}

// UpsertConversationSummary replaces the last-message fields of a known
// conversation. When the conversation is unknown to the store, the full
// record is fetched from the Data Store and inserted.
func (s *ConversationStore) UpsertConversationSummary(ctx context.Context, patch SummaryPatch) error {
	s.mu.Lock()
	_, known := s.conversations[patch.ConversationID]
	s.mu.Unlock()

	if !known {
		fetched, err := s.convRepo.GetByID(ctx, patch.ConversationID)
		if err != nil {
			return err
		}
		s.mu.Lock()
		// A concurrent upsert may have inserted it while the fetch was in
		// flight; the fetched record is the fresher one either way.
		s.conversations[fetched.ID] = fetched
		s.mu.Unlock()
	}

	s.mu.Lock()
	conversation, ok := s.conversations[patch.ConversationID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	// An older event must not roll the summary backwards. The unread
	// flag additionally requires a strictly newer timestamp: a
	// redelivery of the current last message carries nothing the viewer
	// has not already read.
	newer := patch.LastMessageAt.After(conversation.LastMessageAt)
	if newer || patch.LastMessageAt.Equal(conversation.LastMessageAt) {
		conversation.LastMessage = patch.LastMessage
		conversation.LastMessageAt = patch.LastMessageAt
		conversation.LastMessageSenderID = patch.LastMessageSenderID
	}
	if patch.UnreadForViewer && newer {
		if conversation.Unread == nil {
			conversation.Unread = make(map[string]bool)
		}
		conversation.Unread[s.viewerID] = true
	}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, observer := range observers {
		observer.ConversationsChanged()
	}
	return nil
}

// AppendMessage inserts the message at its timestamp position. Inserting
// an identifier already present is a no-op, which absorbs duplicate
// realtime deliveries. Returns whether the message was new.
func (s *ConversationStore) AppendMessage(message *entity.Message) bool {
	s.mu.Lock()

	index := s.messageIndex[message.ConversationID]
	if index == nil {
		index = make(map[string]bool)
		s.messageIndex[message.ConversationID] = index
	}
	if index[message.ID] {
		s.mu.Unlock()
		logger.Debug("Duplicate delivery of message %s absorbed", message.ID)
		return false
	}

	copied := *message
	stored := s.messages[message.ConversationID]

	// Display position is the creation timestamp, never arrival order.
	at := sort.Search(len(stored), func(i int) bool {
		return stored[i].CreatedAt.After(copied.CreatedAt)
	})
	stored = append(stored, nil)
	copy(stored[at+1:], stored[at:])
	stored[at] = &copied

	s.messages[message.ConversationID] = stored
	index[message.ID] = true
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, observer := range observers {
		observer.MessagesChanged(message.ConversationID)
	}
	return true
}

// MarkConversationRead clears the viewer's unread flag on the
// conversation and on every unread message the viewer did not send.
func (s *ConversationStore) MarkConversationRead(conversationID string) {
	s.mu.Lock()
	if conversation, ok := s.conversations[conversationID]; ok {
		if conversation.Unread == nil {
			conversation.Unread = make(map[string]bool)
		}
		conversation.Unread[s.viewerID] = false
	}
	for _, message := range s.messages[conversationID] {
		if !message.Read && message.SenderID != s.viewerID {
			message.Read = true
		}
	}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, observer := range observers {
		observer.ConversationsChanged()
		observer.MessagesChanged(conversationID)
	}
}

// SetArchived toggles the archival flag; threads are never deleted
// client-side.
func (s *ConversationStore) SetArchived(conversationID string, archived bool) {
	s.mu.Lock()
	if conversation, ok := s.conversations[conversationID]; ok {
		conversation.Archived = archived
	}
	observers := s.snapshotObservers()
	s.mu.Unlock()

	for _, observer := range observers {
		observer.ConversationsChanged()
	}
}

// UnreadConversationCount derives the viewer's unread-conversation
// aggregate from current store state. A view over the data, never an
// independently maintained counter.
func (s *ConversationStore) UnreadConversationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, conversation := range s.conversations {
		if conversation.UnreadFor(s.viewerID) && conversation.LastMessageSenderID != s.viewerID {
			count++
		}
	}
	return count
}

// callers must hold s.mu
func (s *ConversationStore) snapshotObservers() []StoreObserver {
	observers := make([]StoreObserver, len(s.observers))
	copy(observers, s.observers)
	return observers
}
