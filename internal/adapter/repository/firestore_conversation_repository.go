package repository

import (
	"context"
	"log"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/entity"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/domain/repository"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/errors"
)

type firestoreConversationRepository struct {
	client   *firestore.Client
	pageSize int
}

// NewFirestoreConversationRepository returns the Firestore-backed
// conversation store. pageSize bounds how much history a single
// snapshot fetch pulls; zero or negative means unbounded.
func NewFirestoreConversationRepository(client *firestore.Client, pageSize int) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client:   client,
		pageSize: pageSize,
	}
}

func (r *firestoreConversationRepository) Create(ctx context.Context, conversation *entity.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.Unread == nil {
		conversation.Unread = make(map[string]bool)
	}

	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Unavailable("Failed to create conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Unavailable("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreConversationRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	// Firestore has no OR filter across buyerId/sellerId on this index
	// layout, so both sides are queried and merged client-side.
	asBuyer := r.client.Collection("conversations").Where("buyerId", "==", userID)
	asSeller := r.client.Collection("conversations").Where("sellerId", "==", userID)

	var conversations []*entity.Conversation
	for _, query := range []firestore.Query{asBuyer, asSeller} {
		docs, err := query.Documents(ctx).GetAll()
		if err != nil {
			log.Printf("Firestore error while fetching conversations for user %s: %v", userID, err)
			return nil, errors.Unavailable("Failed to fetch conversations", err)
		}

		for _, doc := range docs {
			var conversation entity.Conversation
			if err := doc.DataTo(&conversation); err != nil {
				log.Printf("Error parsing conversation data for user %s: %v", userID, err)
				continue // Skip bad data instead of failing
			}
			conversations = append(conversations, &conversation)
		}
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastActivityAt().After(conversations[j].LastActivityAt())
	})

	return conversations, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	conversation.UpdatedAt = time.Now()

	_, err := r.client.Collection("conversations").Doc(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Unavailable("Failed to update conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) FindByTriple(ctx context.Context, buyerID, sellerID, productID string) (*entity.Conversation, error) {
	query := r.client.Collection("conversations").
		Where("buyerId", "==", buyerID).
		Where("sellerId", "==", sellerID).
		Where("productId", "==", productID).
		Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Unavailable("Failed to query conversation by triple", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}

	return &conversation, nil
}

func (r *firestoreConversationRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("conversations").Doc(message.ConversationID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Unavailable("Failed to create message", err)
	}

	return nil
}

func (r *firestoreConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	// Newest first so the page limit keeps the most recent history,
	// then reversed into display order.
	query := r.client.Collection("conversations").Doc(conversationID).Collection("messages").OrderBy("createdAt", firestore.Desc)
	if r.pageSize > 0 {
		query = query.Limit(r.pageSize)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, errors.Unavailable("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			log.Printf("Error parsing message data for conversation %s: %v", conversationID, err)
			return nil, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *firestoreConversationRepository) MarkMessagesRead(ctx context.Context, conversationID, viewerID string) error {
	query := r.client.Collection("conversations").Doc(conversationID).Collection("messages").
		Where("read", "==", false)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return errors.Unavailable("Failed to query unread messages", err)
	}

	batch := r.client.Batch()
	updated := 0
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			continue // Skip malformed documents
		}
		// The viewer's own messages carry no unread state to clear.
		if message.SenderID == viewerID {
			continue
		}
		batch.Update(doc.Ref, []firestore.Update{{Path: "read", Value: true}})
		updated++
	}

	if updated == 0 {
		return nil
	}

	if _, err := batch.Commit(ctx); err != nil {
		return errors.Unavailable("Failed to mark messages read", err)
	}

	return nil
}
