package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/model"
)

type ChatStore interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
	CreateConversation(ctx context.Context, c *model.Conversation) error
	GetConversation(ctx context.Context, id uuid.UUID) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID *int64, page Page) ([]model.Conversation, error)
	SetConversationStatus(ctx context.Context, id uuid.UUID, status model.ConversationStatus) error
	CreateMessage(ctx context.Context, m *model.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, page Page) ([]model.Message, error)
}

// ChatService runs support conversations between users and admins.
type ChatService struct {
	store ChatStore
}

func NewChatService(store ChatStore) *ChatService {
	return &ChatService{store: store}
}

type ConversationInput struct {
	Subject string `json:"subject" validate:"notblank,max=255"`
	Message string `json:"message" validate:"max=4000"`
}

type messageInput struct {
	Body string `json:"body" validate:"notblank,max=4000"`
}

// Open starts a conversation, optionally with a first message.
func (s *ChatService) Open(ctx context.Context, user *model.User, in ConversationInput) (*model.Conversation, error) {
	if err := check(in).OrNil(); err != nil {
		return nil, err
	}

	conv := &model.Conversation{UserID: user.ID, Subject: strings.TrimSpace(in.Subject), Status: model.ConversationOpen}
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		if err := s.store.CreateConversation(ctx, conv); err != nil {
			return err
		}
		if strings.TrimSpace(in.Message) == "" {
			return nil
		}
		return s.store.CreateMessage(ctx, &model.Message{ConversationID: conv.ID, SenderID: user.ID, Body: in.Message})
	})
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Conversations lists the user's conversations. With all set, as on the
// admin routes, every user's conversations are listed.
func (s *ChatService) Conversations(ctx context.Context, user *model.User, all bool, page Page) ([]model.Conversation, error) {
	if all {
		return s.store.ListConversations(ctx, nil, page)
	}
	return s.store.ListConversations(ctx, &user.ID, page)
}

func (s *ChatService) Messages(ctx context.Context, user *model.User, id uuid.UUID, all bool, page Page) ([]model.Message, error) {
	if _, err := s.conversation(ctx, user, id, all); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, id, page)
}

// Post appends a message. Closed conversations accept no further messages.
func (s *ChatService) Post(ctx context.Context, user *model.User, id uuid.UUID, all bool, body string) (*model.Message, error) {
	if err := check(messageInput{Body: body}).OrNil(); err != nil {
		return nil, err
	}

	conv, err := s.conversation(ctx, user, id, all)
	if err != nil {
		return nil, err
	}
	if conv.Status == model.ConversationClosed {
		return nil, apperr.Invalid("conversation", "conversation is closed")
	}

	msg := &model.Message{ConversationID: id, SenderID: user.ID, Body: body}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *ChatService) Close(ctx context.Context, id uuid.UUID) (*model.Conversation, error) {
	if err := s.store.SetConversationStatus(ctx, id, model.ConversationClosed); err != nil {
		return nil, err
	}
	return s.store.GetConversation(ctx, id)
}

// conversation loads a conversation owned by user, or any conversation when all is set.
func (s *ChatService) conversation(ctx context.Context, user *model.User, id uuid.UUID, all bool) (*model.Conversation, error) {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != user.ID && !all {
		return nil, apperr.NotFound("conversation", id)
	}
	return conv, nil
}
