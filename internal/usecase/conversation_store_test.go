package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
)

func testConversation(id, buyerID, sellerID string, lastMessageAt time.Time) *entity.Conversation {
	return &entity.Conversation{
		ID:            id,
		BuyerID:       buyerID,
		SellerID:      sellerID,
		ProductID:     "product-1",
		LastMessageAt: lastMessageAt,
		Unread:        make(map[string]bool),
		CreatedAt:     lastMessageAt.Add(-time.Hour),
	}
}

func testMessage(id, conversationID, senderID, content string, createdAt time.Time) *entity.Message {
	return &entity.Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Type:           entity.MessageTypeText,
		CreatedAt:      createdAt,
	}
}

func TestAppendMessageAbsorbsDuplicates(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	base := time.Now()

	m1 := testMessage("m1", "c1", "seller", "hi", base)

	assert.True(t, store.AppendMessage(m1))
	assert.False(t, store.AppendMessage(m1))

	assert.Len(t, store.ListMessages("c1"), 1)
}

func TestAppendMessageOrdersByCreationTime(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	base := time.Now()

	// Arrival order is the reverse of creation order.
	later := testMessage("mX", "c1", "seller", "second", base.Add(2*time.Second))
	earlier := testMessage("mY", "c1", "buyer", "first", base.Add(time.Second))

	store.AppendMessage(later)
	store.AppendMessage(earlier)

	messages := store.ListMessages("c1")
	require.Len(t, messages, 2)
	assert.Equal(t, "mY", messages[0].ID)
	assert.Equal(t, "mX", messages[1].ID)
}

func TestListConversationsSortedByLastActivity(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	base := time.Now()

	older := testConversation("c-old", "buyer", "seller-1", base.Add(-time.Hour))
	newer := testConversation("c-new", "buyer", "seller-2", base)
	// A thread with no message yet sorts by creation time.
	fresh := testConversation("c-fresh", "buyer", "seller-3", time.Time{})
	fresh.CreatedAt = base.Add(-30 * time.Minute)

	store.ReplaceConversations([]*entity.Conversation{older, newer, fresh})

	list := store.ListConversations()
	require.Len(t, list, 3)
	assert.Equal(t, "c-new", list[0].ID)
	assert.Equal(t, "c-fresh", list[1].ID)
	assert.Equal(t, "c-old", list[2].ID)
}

func TestUpsertConversationSummaryFetchesUnknownThread(t *testing.T) {
	repo := newFakeConversationRepo()
	store := NewConversationStore(repo, "buyer")
	base := time.Now()

	repo.seedConversation(testConversation("c1", "buyer", "seller", base))

	err := store.UpsertConversationSummary(context.Background(), SummaryPatch{
		ConversationID:      "c1",
		LastMessage:         "fresh off the wire",
		LastMessageAt:       base.Add(time.Second),
		LastMessageSenderID: "seller",
		UnreadForViewer:     true,
	})
	require.NoError(t, err)

	conversation, ok := store.GetConversation("c1")
	require.True(t, ok)
	assert.Equal(t, "fresh off the wire", conversation.LastMessage)
	assert.True(t, conversation.UnreadFor("buyer"))
}

func TestUpsertConversationSummaryIgnoresStaleTimestamps(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	base := time.Now()

	conversation := testConversation("c1", "buyer", "seller", base)
	conversation.LastMessage = "current"
	store.ReplaceConversations([]*entity.Conversation{conversation})

	err := store.UpsertConversationSummary(context.Background(), SummaryPatch{
		ConversationID:      "c1",
		LastMessage:         "from the past",
		LastMessageAt:       base.Add(-time.Minute),
		LastMessageSenderID: "seller",
	})
	require.NoError(t, err)

	got, ok := store.GetConversation("c1")
	require.True(t, ok)
	assert.Equal(t, "current", got.LastMessage)
	assert.Equal(t, base.Unix(), got.LastMessageAt.Unix())
}

func TestUpsertConversationSummaryRedeliveryKeepsReadState(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	base := time.Now()

	store.ReplaceConversations([]*entity.Conversation{testConversation("c1", "buyer", "seller", base)})

	patch := SummaryPatch{
		ConversationID:      "c1",
		LastMessage:         "knock knock",
		LastMessageAt:       base.Add(time.Second),
		LastMessageSenderID: "seller",
		UnreadForViewer:     true,
	}
	require.NoError(t, store.UpsertConversationSummary(context.Background(), patch))
	got, ok := store.GetConversation("c1")
	require.True(t, ok)
	require.True(t, got.UnreadFor("buyer"))

	store.MarkConversationRead("c1")
	require.Zero(t, store.UnreadConversationCount())

	// A reconnect replays the same change event.
	require.NoError(t, store.UpsertConversationSummary(context.Background(), patch))

	got, ok = store.GetConversation("c1")
	require.True(t, ok)
	assert.False(t, got.UnreadFor("buyer"))
	assert.Equal(t, "knock knock", got.LastMessage)
	assert.Zero(t, store.UnreadConversationCount())
}

func TestMarkConversationReadClearsOnlyCounterpartyMessages(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	base := time.Now()

	conversation := testConversation("c1", "buyer", "seller", base)
	conversation.Unread["buyer"] = true
	store.ReplaceConversations([]*entity.Conversation{conversation})

	theirs := testMessage("m1", "c1", "seller", "unread incoming", base)
	mine := testMessage("m2", "c1", "buyer", "my own", base.Add(time.Second))
	store.AppendMessage(theirs)
	store.AppendMessage(mine)

	store.MarkConversationRead("c1")

	got, ok := store.GetConversation("c1")
	require.True(t, ok)
	assert.False(t, got.UnreadFor("buyer"))

	messages := store.ListMessages("c1")
	require.Len(t, messages, 2)
	assert.True(t, messages[0].Read)
	assert.False(t, messages[1].Read, "own messages carry the counterparty's read state, not the viewer's")
}

func TestUnreadConversationCountExcludesOwnLastMessage(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	base := time.Now()

	incoming := testConversation("c1", "buyer", "seller-1", base)
	incoming.LastMessageSenderID = "seller-1"
	incoming.Unread["buyer"] = true

	// Stale unread flag on a thread where the viewer spoke last.
	outgoing := testConversation("c2", "buyer", "seller-2", base)
	outgoing.LastMessageSenderID = "buyer"
	outgoing.Unread["buyer"] = true

	read := testConversation("c3", "buyer", "seller-3", base)
	read.LastMessageSenderID = "seller-3"

	store.ReplaceConversations([]*entity.Conversation{incoming, outgoing, read})

	assert.Equal(t, 1, store.UnreadConversationCount())
}

func TestReplaceMessagesDedupesAndSorts(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	base := time.Now()

	m1 := testMessage("m1", "c1", "seller", "first", base)
	m2 := testMessage("m2", "c1", "buyer", "second", base.Add(time.Second))

	store.ReplaceMessages("c1", []*entity.Message{m2, m1, m1})

	messages := store.ListMessages("c1")
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)

	// The snapshot primes the identifier index, so the realtime echo of a
	// snapshotted message is a no-op.
	assert.False(t, store.AppendMessage(m2))
	assert.Len(t, store.ListMessages("c1"), 2)
}

func TestSetArchivedKeepsThreadListed(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")

	conversation := testConversation("c1", "buyer", "seller", time.Now())
	store.ReplaceConversations([]*entity.Conversation{conversation})

	store.SetArchived("c1", true)

	got, ok := store.GetConversation("c1")
	require.True(t, ok)
	assert.True(t, got.Archived)
	assert.Len(t, store.ListConversations(), 1)
}

func TestListingsReturnCopies(t *testing.T) {
	store := NewConversationStore(newFakeConversationRepo(), "buyer")
	base := time.Now()

	store.ReplaceConversations([]*entity.Conversation{testConversation("c1", "buyer", "seller", base)})
	store.AppendMessage(testMessage("m1", "c1", "seller", "original", base))

	store.ListConversations()[0].LastMessage = "mutated"
	store.ListMessages("c1")[0].Content = "mutated"

	got, _ := store.GetConversation("c1")
	assert.NotEqual(t, "mutated", got.LastMessage)
	assert.Equal(t, "original", store.ListMessages("c1")[0].Content)
}
