package repository

import (
	"context"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
)

// ConversationRepository is the Data Store collaborator contract for
// conversations and their messages. All methods return tagged AppErrors;
// nothing is thrown across this boundary.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error)
	Update(ctx context.Context, conversation *entity.Conversation) error

	// FindByTriple locates the unique conversation for a
	// (buyer, seller, product) triple, or returns NOT_FOUND.
	FindByTriple(ctx context.Context, buyerID, sellerID, productID string) (*entity.Conversation, error)

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error)
	MarkMessagesRead(ctx context.Context, conversationID, viewerID string) error
}
