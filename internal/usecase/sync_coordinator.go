package usecase

import (
	"context"
	"sync"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/repository"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/service"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/infrastructure/realtime"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/logger"
)

// subscriptionState tracks one subscription's lifecycle:
// disconnected -> subscribing -> live -> disconnected.
type subscriptionState int

const (
	stateDisconnected subscriptionState = iota
	stateSubscribing
	stateLive
)

// SyncCoordinator bridges the realtime channel and process lifecycle
// into conversation-store mutations. It is the store's only writer.
//
// All mutations run on a single dispatch goroutine, so mutation order
// is exactly the order tasks are enqueued. Realtime handlers and user
// intents enqueue; snapshot fetches do their network round-trip off the
// loop and enqueue only the application of the result, fenced by a
// subscription-identity check so a torn-down subscription can never
// mutate the store late.
type SyncCoordinator struct {
	store      *ConversationStore
	tracker    *ReadStateTracker
	channel    RealtimeChannel
	convRepo   repository.ConversationRepository
	userRepo   repository.UserRepository
	identity   service.IdentityProvider
	dispatcher service.NotificationDispatcher
	notices    NoticeSink

	tasks chan func()
	quit  chan struct{}

	namesMu     sync.Mutex
	senderNames map[string]string

	mu         sync.Mutex
	started    bool
	stopped    bool
	foreground bool
	userID     string
	ctx        context.Context

	listState  subscriptionState
	listSub    *realtime.Subscription
	notifSub   *realtime.Subscription
	openState  subscriptionState
	openConvID string
	openSub    *realtime.Subscription
}

func NewSyncCoordinator(
	store *ConversationStore,
	tracker *ReadStateTracker,
	channel RealtimeChannel,
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	identity service.IdentityProvider,
	dispatcher service.NotificationDispatcher,
	notices NoticeSink,
) *SyncCoordinator {
	return &SyncCoordinator{
		store:       store,
		tracker:     tracker,
		channel:     channel,
		convRepo:    convRepo,
		userRepo:    userRepo,
		identity:    identity,
		dispatcher:  dispatcher,
		notices:     notices,
		tasks:       make(chan func(), 256),
		quit:        make(chan struct{}),
		senderNames: make(map[string]string),
	}
}

// Start subscribes the conversation-list and notification topics and
// issues the initial snapshot fetch. The app starts in the foreground.
// A failed list subscribe shuts the coordinator down; retrying takes a
// fresh coordinator, matching the per-session lifetime of the store.
func (c *SyncCoordinator) Start(ctx context.Context) error {
	userID, err := c.identity.CurrentUserID()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.foreground = true
	c.userID = userID
	c.ctx = ctx
	c.listState = stateSubscribing
	c.mu.Unlock()

	go c.run()

	listSub, err := c.channel.Subscribe(
		realtime.ConversationListTopic(userID),
		nil,
		func(event realtime.Event) { c.onListEvent(event) },
	)
	if err != nil {
		// Leave no dispatch goroutine running behind a dead start.
		c.mu.Lock()
		c.listState = stateDisconnected
		c.stopped = true
		c.mu.Unlock()
		close(c.quit)
		c.transientNotice("Messages are temporarily unavailable")
		return err
	}

	notifSub, err := c.channel.Subscribe(
		realtime.NotificationsTopic(userID),
		nil,
		func(event realtime.Event) { c.onNotificationEvent(event) },
	)
	if err != nil {
		logger.Warn("Notification subscription failed for user %s: %v", userID, err)
	}

	c.mu.Lock()
	c.listSub = listSub
	c.notifSub = notifSub
	c.listState = stateLive
	c.mu.Unlock()

	// One full snapshot before trusting incremental events, to bound
	// staleness from anything missed while disconnected.
	c.refreshConversations(listSub.ID)
	c.refreshNotifications()

	logger.Info("Sync coordinator live for user %s", userID)
	return nil
}

// Stop tears down every subscription synchronously, as on sign-out. No
// store mutation can originate from a torn-down subscription afterwards.
func (c *SyncCoordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	listSub, notifSub, openSub := c.listSub, c.notifSub, c.openSub
	c.listSub, c.notifSub, c.openSub = nil, nil, nil
	c.listState = stateDisconnected
	c.openState = stateDisconnected
	c.openConvID = ""
	c.mu.Unlock()

	c.channel.Unsubscribe(listSub)
	c.channel.Unsubscribe(notifSub)
	c.channel.Unsubscribe(openSub)
	close(c.quit)

	logger.Info("Sync coordinator stopped")
}

// OpenConversation subscribes the conversation's message topic, fetches
// its full history, and marks it read. Any previously open conversation
// is closed first.
func (c *SyncCoordinator) OpenConversation(conversationID string) {
	c.CloseConversation()

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.openConvID = conversationID
	c.openState = stateSubscribing
	c.mu.Unlock()

	openSub, err := c.channel.Subscribe(
		realtime.MessagesTopic(conversationID),
		func(event realtime.Event) bool { return event.Type == realtime.EventMessageCreated },
		func(event realtime.Event) { c.onOpenConversationEvent(event) },
	)
	if err != nil {
		c.mu.Lock()
		c.openState = stateDisconnected
		c.mu.Unlock()
		c.transientNotice("Could not open the conversation right now")
		return
	}

	c.mu.Lock()
	if c.openConvID != conversationID || c.stopped {
		// Closed (or re-opened elsewhere) while subscribing.
		c.mu.Unlock()
		c.channel.Unsubscribe(openSub)
		return
	}
	c.openSub = openSub
	c.openState = stateLive
	c.mu.Unlock()

	// Snapshot history before incremental events; events already in the
	// snapshot are discarded by the store's identifier-keyed merge.
	c.refreshMessages(conversationID, openSub.ID)
	c.MarkConversationRead(conversationID)
}

// CloseConversation tears down the open conversation's subscription
// synchronously.
func (c *SyncCoordinator) CloseConversation() {
	c.mu.Lock()
	openSub := c.openSub
	c.openSub = nil
	c.openConvID = ""
	c.openState = stateDisconnected
	c.mu.Unlock()

	if openSub != nil {
		c.channel.Unsubscribe(openSub)
	}
}

// SetForeground records app state. Background-to-foreground transitions
// re-issue the full snapshot for whatever is displayed: realtime
// delivery is not guaranteed while backgrounded, so this reconciliation
// is a correctness requirement rather than an optimization.
func (c *SyncCoordinator) SetForeground(foreground bool) {
	c.mu.Lock()
	wasForeground := c.foreground
	c.foreground = foreground
	listSub, openSub := c.listSub, c.openSub
	openConvID := c.openConvID
	stopped := c.stopped
	c.mu.Unlock()

	if stopped || wasForeground || !foreground {
		return
	}

	logger.Debug("Foreground reconciliation for user %s", c.viewerID())
	if listSub != nil {
		c.refreshConversations(listSub.ID)
	}
	if openSub != nil && openConvID != "" {
		c.refreshMessages(openConvID, openSub.ID)
	}
	c.refreshNotifications()
}

// MarkConversationRead clears local unread state immediately and pushes
// the read receipts to the Data Store. A remote failure leaves the
// local state cleared; the next reconciliation settles any divergence.
func (c *SyncCoordinator) MarkConversationRead(conversationID string) {
	c.dispatch(func() {
		c.store.MarkConversationRead(conversationID)
		c.tracker.RecomputeUnreadConversations()
	})

	ctx := c.baseContext()
	go func() {
		if err := c.convRepo.MarkMessagesRead(ctx, conversationID, c.viewerID()); err != nil {
			logger.Warn("Failed to push read state for conversation %s: %v", conversationID, err)
		}
	}()
}

// onListEvent handles change events on the conversation-list topic:
// summary upserts for every message, unread set only when the viewer
// did not send it and the conversation is not currently open. The list
// topic sees the open conversation's messages too; its append and
// read handling run on the message subscription.
func (c *SyncCoordinator) onListEvent(event realtime.Event) {
	c.dispatch(func() {
		stopped, openConvID := c.teardownCheck()
		if stopped {
			logger.Debug("Dropping list event queued before teardown")
			return
		}

		switch event.Type {
		case realtime.EventMessageCreated:
			if event.Message == nil {
				return
			}
			message := event.Message
			patch := SummaryPatch{
				ConversationID:      message.ConversationID,
				LastMessage:         message.Content,
				LastMessageAt:       message.CreatedAt,
				LastMessageSenderID: message.SenderID,
				UnreadForViewer:     message.SenderID != c.viewerID() && message.ConversationID != openConvID,
			}
			if err := c.store.UpsertConversationSummary(c.baseContext(), patch); err != nil {
				logger.Error("Summary upsert failed for conversation %s: %v", message.ConversationID, err)
				c.transientNotice("Some conversations may be out of date")
				return
			}
			c.tracker.RecomputeUnreadConversations()

		case realtime.EventConversationUpdated:
			if event.Conversation == nil {
				return
			}
			conversation := event.Conversation
			patch := SummaryPatch{
				ConversationID:      conversation.ID,
				LastMessage:         conversation.LastMessage,
				LastMessageAt:       conversation.LastMessageAt,
				LastMessageSenderID: conversation.LastMessageSenderID,
				UnreadForViewer:     conversation.UnreadFor(c.viewerID()) && conversation.ID != openConvID,
			}
			if err := c.store.UpsertConversationSummary(c.baseContext(), patch); err != nil {
				logger.Error("Summary upsert failed for conversation %s: %v", conversation.ID, err)
				return
			}
			c.tracker.RecomputeUnreadConversations()
		}
	})
}

// onOpenConversationEvent appends messages for the currently open
// conversation. Counterparty messages raise a local notification and,
// while the app is foregrounded, are marked read immediately.
func (c *SyncCoordinator) onOpenConversationEvent(event realtime.Event) {
	c.dispatch(func() {
		if event.Message == nil {
			return
		}
		message := event.Message

		c.mu.Lock()
		open := c.openConvID == message.ConversationID && c.openSub != nil
		foreground := c.foreground
		c.mu.Unlock()
		if !open {
			// Subscription torn down after the event was queued.
			logger.Debug("Dropping event for closed conversation %s", message.ConversationID)
			return
		}

		inserted := c.store.AppendMessage(message)
		if inserted {
			// Keep the list row current too. The unread flag stays off:
			// the viewer is looking at this conversation.
			patch := SummaryPatch{
				ConversationID:      message.ConversationID,
				LastMessage:         message.Content,
				LastMessageAt:       message.CreatedAt,
				LastMessageSenderID: message.SenderID,
			}
			if err := c.store.UpsertConversationSummary(c.baseContext(), patch); err != nil {
				logger.Warn("Summary upsert failed for open conversation %s: %v", message.ConversationID, err)
			}
		}
		c.tracker.RecomputeUnreadConversations()
		if !inserted || message.SenderID == c.viewerID() {
			return
		}

		c.dispatcher.ShowLocalNotification(
			c.senderDisplayName(message.SenderID),
			message.Content,
			map[string]string{"conversation_id": message.ConversationID, "message_id": message.ID},
		)

		if foreground {
			c.store.MarkConversationRead(message.ConversationID)
			c.tracker.RecomputeUnreadConversations()
			ctx := c.baseContext()
			go func() {
				if err := c.convRepo.MarkMessagesRead(ctx, message.ConversationID, c.viewerID()); err != nil {
					logger.Warn("Failed to push read state for conversation %s: %v", message.ConversationID, err)
				}
			}()
		}
	})
}

// ApplyConfirmedMessage folds a send-message response into the store.
// Sends are not optimistic: the message is applied only here, after the
// remote round-trip confirmed it. The later realtime echo is absorbed
// by the identifier-keyed merge.
func (c *SyncCoordinator) ApplyConfirmedMessage(message *entity.Message) {
	c.dispatch(func() {
		c.store.AppendMessage(message)
		patch := SummaryPatch{
			ConversationID:      message.ConversationID,
			LastMessage:         message.Content,
			LastMessageAt:       message.CreatedAt,
			LastMessageSenderID: message.SenderID,
		}
		if err := c.store.UpsertConversationSummary(c.baseContext(), patch); err != nil {
			logger.Warn("Summary upsert failed after send for conversation %s: %v", message.ConversationID, err)
		}
		c.tracker.RecomputeUnreadConversations()
	})
}

// ApplyArchived folds a confirmed archive toggle into the store.
func (c *SyncCoordinator) ApplyArchived(conversationID string, archived bool) {
	c.dispatch(func() {
		c.store.SetArchived(conversationID, archived)
	})
}

func (c *SyncCoordinator) onNotificationEvent(event realtime.Event) {
	if event.Type != realtime.EventNotificationCreated {
		return
	}
	c.dispatch(func() {
		if stopped, _ := c.teardownCheck(); stopped {
			return
		}
		c.tracker.RecomputeUnreadNotifications(c.baseContext(), c.viewerID())
	})
}

// teardownCheck reads the teardown flag and the open conversation in
// one critical section. Dispatched tasks consult it first: a task can
// sit in the queue across a Stop, and a stopped coordinator must not
// mutate the store.
func (c *SyncCoordinator) teardownCheck() (stopped bool, openConvID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped, c.openConvID
}

// refreshConversations fetches the full conversation-list snapshot and
// applies it, unless the owning subscription was torn down while the
// fetch was in flight.
func (c *SyncCoordinator) refreshConversations(subID string) {
	ctx := c.baseContext()
	go func() {
		conversations, err := c.convRepo.ListByUserID(ctx, c.viewerID())
		if err != nil {
			logger.Error("Conversation snapshot fetch failed: %v", err)
			c.transientNotice("Could not refresh your messages")
			return
		}
		c.dispatch(func() {
			if !c.listSubscriptionIs(subID) {
				logger.Debug("Discarding conversation snapshot for stale subscription %s", subID)
				return
			}
			c.store.ReplaceConversations(conversations)
			c.tracker.RecomputeUnreadConversations()
		})
	}()
}

// refreshMessages fetches the full history snapshot for one
// conversation, fenced by subscription identity.
func (c *SyncCoordinator) refreshMessages(conversationID, subID string) {
	ctx := c.baseContext()
	go func() {
		messages, err := c.convRepo.ListMessages(ctx, conversationID)
		if err != nil {
			logger.Error("Message snapshot fetch failed for conversation %s: %v", conversationID, err)
			c.transientNotice("Could not refresh the conversation")
			return
		}
		c.dispatch(func() {
			if !c.openSubscriptionIs(subID) {
				logger.Debug("Discarding message snapshot for stale subscription %s", subID)
				return
			}
			c.store.ReplaceMessages(conversationID, messages)
			c.tracker.RecomputeUnreadConversations()
		})
	}()
}

func (c *SyncCoordinator) refreshNotifications() {
	c.dispatch(func() {
		c.tracker.RecomputeUnreadNotifications(c.baseContext(), c.viewerID())
	})
}

// dispatch enqueues a mutation task on the serial loop. Tasks enqueued
// after Stop are dropped.
func (c *SyncCoordinator) dispatch(task func()) {
	select {
	case <-c.quit:
	case c.tasks <- task:
	}
}

func (c *SyncCoordinator) run() {
	for {
		select {
		case <-c.quit:
			return
		case task := <-c.tasks:
			task()
		}
	}
}

func (c *SyncCoordinator) listSubscriptionIs(subID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listSub != nil && c.listSub.ID == subID
}

func (c *SyncCoordinator) openSubscriptionIs(subID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openSub != nil && c.openSub.ID == subID
}

// senderDisplayName resolves the sender's profile name for the local
// notification title, cached for the session. A failed lookup falls
// back to a generic title; notifications never block on profile data
// being available.
func (c *SyncCoordinator) senderDisplayName(senderID string) string {
	c.namesMu.Lock()
	name, ok := c.senderNames[senderID]
	c.namesMu.Unlock()
	if ok {
		return name
	}

	user, err := c.userRepo.GetByID(c.baseContext(), senderID)
	if err != nil {
		logger.Debug("Profile lookup failed for sender %s: %v", senderID, err)
		return "New message"
	}

	name = user.FullName
	if name == "" {
		name = user.Username
	}
	if name == "" {
		return "New message"
	}

	c.namesMu.Lock()
	c.senderNames[senderID] = name
	c.namesMu.Unlock()
	return name
}

func (c *SyncCoordinator) viewerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *SyncCoordinator) baseContext() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx != nil {
		return c.ctx
	}
	return context.Background()
}

func (c *SyncCoordinator) transientNotice(message string) {
	if c.notices != nil {
		c.notices.TransientNotice(message)
	}
}
