package usecase

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/repository"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/service"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/errors"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/logger"
)

// SendFailedError reports a failed send. Content carries the composed
// text back so the caller can restore it to the composer for a retry;
// the store is guaranteed untouched.
type SendFailedError struct {
	Content string
	Err     error
}

func (e *SendFailedError) Error() string {
	return "send failed: " + e.Err.Error()
}

func (e *SendFailedError) Unwrap() error {
	return e.Err
}

type SendMessageInput struct {
	ConversationID string `validate:"required"`
	Content        string `validate:"required,max=2000"`
	Type           string `validate:"omitempty,oneof=text image"`
	ReplyToID      string
}

type StartConversationInput struct {
	ProductID      string `validate:"required"`
	InitialMessage string `validate:"omitempty,max=2000"`
}

// MessagingUseCase translates user intents into collaborator requests
// and, on success, into store mutations via the coordinator. It never
// writes the store directly.
type MessagingUseCase struct {
	convRepo    repository.ConversationRepository
	productRepo repository.ProductRepository
	identity    service.IdentityProvider
	coordinator *SyncCoordinator
	store       *ConversationStore
	validate    *validator.Validate
}

func NewMessagingUseCase(
	convRepo repository.ConversationRepository,
	productRepo repository.ProductRepository,
	identity service.IdentityProvider,
	coordinator *SyncCoordinator,
	store *ConversationStore,
) *MessagingUseCase {
	return &MessagingUseCase{
		convRepo:    convRepo,
		productRepo: productRepo,
		identity:    identity,
		coordinator: coordinator,
		store:       store,
		validate:    validator.New(),
	}
}

// SendMessage performs the remote send and, only after the round-trip
// confirms, applies the result locally. On failure nothing is inserted
// and the content rides back on the error.
func (uc *MessagingUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*entity.Message, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, errors.BadRequest("Invalid message input", err)
	}

	userID, err := uc.identity.CurrentUserID()
	if err != nil {
		return nil, err
	}

	conversation, err := uc.lookupConversation(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		logger.Warn("SendMessage: user %s is not a participant in conversation %s", userID, input.ConversationID)
		return nil, errors.Forbidden("You are not a participant in this conversation", nil)
	}

	messageType := input.Type
	if messageType == "" {
		messageType = entity.MessageTypeText
	}

	message := &entity.Message{
		ConversationID: input.ConversationID,
		SenderID:       userID,
		Content:        input.Content,
		Type:           messageType,
		ReplyToID:      input.ReplyToID,
		CreatedAt:      time.Now(),
	}

	if err := uc.convRepo.CreateMessage(ctx, message); err != nil {
		logger.Error("SendMessage: remote create failed for conversation %s: %v", input.ConversationID, err)
		return nil, &SendFailedError{Content: input.Content, Err: err}
	}

	// Denormalize last-message fields and flag the counterparty unread.
	conversation.LastMessage = message.Content
	conversation.LastMessageAt = message.CreatedAt
	conversation.LastMessageSenderID = userID
	if conversation.Unread == nil {
		conversation.Unread = make(map[string]bool)
	}
	conversation.Unread[conversation.OtherParticipant(userID)] = true
	if err := uc.convRepo.Update(ctx, conversation); err != nil {
		// The message exists remotely; the summary settles on the next
		// reconciliation.
		logger.Warn("SendMessage: failed to update conversation %s summary: %v", conversation.ID, err)
	}

	uc.coordinator.ApplyConfirmedMessage(message)

	return message, nil
}

// StartConversation finds or creates the unique thread between the
// signed-in buyer and the product's seller, then sends the opening
// message if one was composed.
func (uc *MessagingUseCase) StartConversation(ctx context.Context, input StartConversationInput) (*entity.Conversation, error) {
	if err := uc.validate.Struct(input); err != nil {
		return nil, errors.BadRequest("Invalid conversation input", err)
	}

	userID, err := uc.identity.CurrentUserID()
	if err != nil {
		return nil, err
	}

	product, err := uc.productRepo.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.SellerID == userID {
		logger.Warn("StartConversation: user %s attempted to contact themselves via product %s", userID, input.ProductID)
		return nil, errors.BadRequest("You cannot start a conversation about your own listing", nil)
	}

	conversation, err := uc.convRepo.FindByTriple(ctx, userID, product.SellerID, input.ProductID)
	if err != nil {
		if !errors.Is(err, "NOT_FOUND") {
			return nil, err
		}
		conversation = &entity.Conversation{
			BuyerID:   userID,
			SellerID:  product.SellerID,
			ProductID: input.ProductID,
			Unread:    make(map[string]bool),
		}
		if err := uc.convRepo.Create(ctx, conversation); err != nil {
			return nil, err
		}
		logger.Info("StartConversation: created conversation %s for product %s", conversation.ID, input.ProductID)
	}

	if input.InitialMessage != "" {
		if _, err := uc.SendMessage(ctx, SendMessageInput{
			ConversationID: conversation.ID,
			Content:        input.InitialMessage,
		}); err != nil {
			return nil, err
		}
	}

	return conversation, nil
}

// OpenConversation is the screen-mount intent.
func (uc *MessagingUseCase) OpenConversation(conversationID string) {
	uc.coordinator.OpenConversation(conversationID)
}

// CloseConversation is the screen-unmount intent.
func (uc *MessagingUseCase) CloseConversation() {
	uc.coordinator.CloseConversation()
}

// MarkConversationRead is the open-screen intent: local clear plus the
// remote read receipt, both via the coordinator.
func (uc *MessagingUseCase) MarkConversationRead(conversationID string) {
	uc.coordinator.MarkConversationRead(conversationID)
}

// ArchiveConversation toggles the archival flag; threads are never
// deleted from this client.
func (uc *MessagingUseCase) ArchiveConversation(ctx context.Context, conversationID string, archived bool) error {
	userID, err := uc.identity.CurrentUserID()
	if err != nil {
		return err
	}

	conversation, err := uc.lookupConversation(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(userID) {
		return errors.Forbidden("You are not a participant in this conversation", nil)
	}

	conversation.Archived = archived
	if err := uc.convRepo.Update(ctx, conversation); err != nil {
		return err
	}

	uc.coordinator.ApplyArchived(conversationID, archived)
	return nil
}

// lookupConversation prefers the store snapshot and falls back to the
// Data Store for threads the store has not seen yet.
func (uc *MessagingUseCase) lookupConversation(ctx context.Context, conversationID string) (*entity.Conversation, error) {
	if conversation, ok := uc.store.GetConversation(conversationID); ok {
		return conversation, nil
	}
	return uc.convRepo.GetByID(ctx, conversationID)
}
