package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/infrastructure/realtime"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/errors"
)

// fakeConversationRepo is an in-memory ConversationRepository with
// per-method error injection.
type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message

	failCreateMessage error
	failListByUserID  error
	failListMessages  error
	failUpdate        error

	// When set, ListMessages blocks until the channel is closed.
	blockListMessages chan struct{}

	markReadCalls []string
	createCalls   int
	updateCalls   int
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
	}
}

func (r *fakeConversationRepo) seedConversation(conversation *entity.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *conversation
	r.conversations[conversation.ID] = &copied
}

func (r *fakeConversationRepo) seedMessage(message *entity.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *message
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], &copied)
}

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	copied := *conversation
	r.conversations[conversation.ID] = &copied
	return nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	copied := *conversation
	return &copied, nil
}

func (r *fakeConversationRepo) ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failListByUserID != nil {
		return nil, r.failListByUserID
	}
	var list []*entity.Conversation
	for _, conversation := range r.conversations {
		if conversation.HasParticipant(userID) {
			copied := *conversation
			list = append(list, &copied)
		}
	}
	return list, nil
}

func (r *fakeConversationRepo) Update(ctx context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.failUpdate != nil {
		return r.failUpdate
	}
	copied := *conversation
	r.conversations[conversation.ID] = &copied
	return nil
}

func (r *fakeConversationRepo) FindByTriple(ctx context.Context, buyerID, sellerID, productID string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conversation := range r.conversations {
		if conversation.BuyerID == buyerID && conversation.SellerID == sellerID && conversation.ProductID == productID {
			copied := *conversation
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Conversation", nil)
}

func (r *fakeConversationRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateMessage != nil {
		return r.failCreateMessage
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	copied := *message
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], &copied)
	return nil
}

func (r *fakeConversationRepo) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	r.mu.Lock()
	block := r.blockListMessages
	r.mu.Unlock()
	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failListMessages != nil {
		return nil, r.failListMessages
	}
	var list []*entity.Message
	for _, message := range r.messages[conversationID] {
		copied := *message
		list = append(list, &copied)
	}
	return list, nil
}

func (r *fakeConversationRepo) MarkMessagesRead(ctx context.Context, conversationID, viewerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markReadCalls = append(r.markReadCalls, conversationID)
	for _, message := range r.messages[conversationID] {
		if message.SenderID != viewerID {
			message.Read = true
		}
	}
	return nil
}

func (r *fakeConversationRepo) markReadCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.markReadCalls)
}

// fakeNotificationRepo serves a configurable unread count.
type fakeNotificationRepo struct {
	mu            sync.Mutex
	unread        int
	failCount     error
	notifications []*entity.Notification
}

func (r *fakeNotificationRepo) setUnread(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unread = count
}

func (r *fakeNotificationRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]*entity.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifications, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCount != nil {
		return 0, r.failCount
	}
	return r.unread, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unread > 0 {
		r.unread--
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unread = 0
	return nil
}

// fakeProductRepo holds seeded products.
type fakeProductRepo struct {
	mu       sync.Mutex
	products map[string]*entity.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*entity.Product)}
}

func (r *fakeProductRepo) seed(product *entity.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *product
	r.products[product.ID] = &copied
}

func (r *fakeProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	copied := *product
	return &copied, nil
}

// fakeUserRepo serves seeded profiles.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) seed(user *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

// fakeIdentity is a static IdentityProvider.
type fakeIdentity struct {
	userID   string
	signedIn bool
}

func (f *fakeIdentity) CurrentUserID() (string, error) {
	if !f.signedIn {
		return "", errors.Unauthorized("Not signed in", nil)
	}
	return f.userID, nil
}

func (f *fakeIdentity) SignedIn() bool { return f.signedIn }

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.signedIn = false
	return nil
}

// fakeChannel is an in-memory RealtimeChannel. Tests publish with Emit;
// handlers run synchronously on the caller's goroutine, matching the
// real channel's read-goroutine delivery.
type fakeChannel struct {
	mu         sync.Mutex
	subs       map[string]*fakeSubscription
	subscribed []string
	removed    []string
	failTopics map[string]error
}

type fakeSubscription struct {
	sub       *realtime.Subscription
	predicate realtime.Predicate
	handler   realtime.Handler
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		subs:       make(map[string]*fakeSubscription),
		failTopics: make(map[string]error),
	}
}

func (c *fakeChannel) Subscribe(topic string, predicate realtime.Predicate, handler realtime.Handler) (*realtime.Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.failTopics[topic]; err != nil {
		return nil, err
	}
	sub := &realtime.Subscription{ID: uuid.New().String(), Topic: topic}
	c.subs[sub.ID] = &fakeSubscription{sub: sub, predicate: predicate, handler: handler}
	c.subscribed = append(c.subscribed, topic)
	return sub, nil
}

func (c *fakeChannel) Unsubscribe(sub *realtime.Subscription) {
	if sub == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, sub.ID)
	c.removed = append(c.removed, sub.Topic)
}

// Emit delivers an event to every live subscription on the topic.
func (c *fakeChannel) Emit(topic string, event realtime.Event) {
	c.mu.Lock()
	var handlers []realtime.Handler
	for _, entry := range c.subs {
		if entry.sub.Topic != topic {
			continue
		}
		if entry.predicate != nil && !entry.predicate(event) {
			continue
		}
		handlers = append(handlers, entry.handler)
	}
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (c *fakeChannel) liveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// fakeDispatcher records local notifications.
type fakeDispatcher struct {
	mu     sync.Mutex
	titles []string
	bodies []string
}

func (d *fakeDispatcher) ShowLocalNotification(title, body string, payload map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.titles = append(d.titles, title)
	d.bodies = append(d.bodies, body)
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.titles)
}

func (d *fakeDispatcher) lastTitle() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.titles) == 0 {
		return ""
	}
	return d.titles[len(d.titles)-1]
}

// fakeNotices records transient notices.
type fakeNotices struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotices) TransientNotice(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *fakeNotices) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

// recordingBadgeObserver captures every published badge pair.
type recordingBadgeObserver struct {
	mu      sync.Mutex
	updates [][2]int
}

func (o *recordingBadgeObserver) UnreadBadgesChanged(conversations, notifications int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updates = append(o.updates, [2]int{conversations, notifications})
}

func (o *recordingBadgeObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.updates)
}

func (o *recordingBadgeObserver) last() (conversations, notifications int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.updates) == 0 {
		return 0, 0
	}
	latest := o.updates[len(o.updates)-1]
	return latest[0], latest[1]
}
