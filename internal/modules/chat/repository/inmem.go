package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

// inMemoryChatRepository implements ChatRepository over process memory. It
// backs the chat service tests with the same contract as the gorm
// implementation.
type inMemoryChatRepository struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*entity.Conversation
	participants  map[uuid.UUID][]uuid.UUID            // conversationID -> userIDs
	messages      map[uuid.UUID][]*entity.Message      // conversationID -> ordered messages
	reads         map[uuid.UUID]map[uuid.UUID]struct{} // messageID -> userIDs
}

func NewInMemoryChatRepository() ChatRepository {
	return &inMemoryChatRepository{
		conversations: make(map[uuid.UUID]*entity.Conversation),
		participants:  make(map[uuid.UUID][]uuid.UUID),
		messages:      make(map[uuid.UUID][]*entity.Message),
		reads:         make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (r *inMemoryChatRepository) CreateConversation(ctx context.Context, convo *entity.Conversation, participantIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if convo.ID == uuid.Nil {
		convo.ID = uuid.New()
	}
	if convo.CreatedAt.IsZero() {
		convo.CreatedAt = time.Now()
	}
	r.conversations[convo.ID] = convo
	r.participants[convo.ID] = append([]uuid.UUID(nil), participantIDs...)
	return nil
}

func (r *inMemoryChatRepository) FindDirect(ctx context.Context, userA, userB uuid.UUID) (*entity.Conversation, error) {
	a, b := NormalizePair(userA, userB)

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, convo := range r.conversations {
		if convo.IsGroup || convo.UserAID == nil || convo.UserBID == nil {
			continue
		}
		if *convo.UserAID == a && *convo.UserBID == b {
			return convo, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *inMemoryChatRepository) FindByGroupKey(ctx context.Context, key string) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, convo := range r.conversations {
		if convo.GroupKey != nil && *convo.GroupKey == key {
			return convo, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *inMemoryChatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	convo, ok := r.conversations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return convo, nil
}

func (r *inMemoryChatRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var convos []*entity.Conversation
	for id, members := range r.participants {
		for _, member := range members {
			if member == userID {
				convos = append(convos, r.conversations[id])
				break
			}
		}
	}
	return convos, nil
}

func (r *inMemoryChatRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, member := range r.participants[conversationID] {
		if member == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *inMemoryChatRepository) ParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]uuid.UUID(nil), r.participants[conversationID]...), nil
}

func (r *inMemoryChatRepository) CreateMessage(ctx context.Context, msg *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], msg)
	r.reads[msg.ID] = map[uuid.UUID]struct{}{msg.SenderID: {}}
	return nil
}

func (r *inMemoryChatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]*entity.Message(nil), r.messages[conversationID]...), nil
}

func (r *inMemoryChatRepository) LastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messages[conversationID]
	if len(msgs) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return msgs[len(msgs)-1], nil
}

func (r *inMemoryChatRepository) ReaderIDs(ctx context.Context, messageID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uuid.UUID
	for userID := range r.reads[messageID] {
		ids = append(ids, userID)
	}
	return ids, nil
}

func (r *inMemoryChatRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, msg := range r.messages[conversationID] {
		if r.reads[msg.ID] == nil {
			r.reads[msg.ID] = make(map[uuid.UUID]struct{})
		}
		r.reads[msg.ID][userID] = struct{}{}
	}
	return nil
}

func (r *inMemoryChatRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for conversationID, members := range r.participants {
		participating := false
		for _, member := range members {
			if member == userID {
				participating = true
				break
			}
		}
		if !participating {
			continue
		}
		for _, msg := range r.messages[conversationID] {
			if _, read := r.reads[msg.ID][userID]; !read {
				count++
			}
		}
	}
	return count, nil
}

func (r *inMemoryChatRepository) CountUnreadIn(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, msg := range r.messages[conversationID] {
		if _, read := r.reads[msg.ID][userID]; !read {
			count++
		}
	}
	return count, nil
}
