package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

type ChatRepository interface {
	CreateConversation(ctx context.Context, convo *entity.Conversation, participantIDs []uuid.UUID) error
	FindDirect(ctx context.Context, userA, userB uuid.UUID) (*entity.Conversation, error)
	FindByGroupKey(ctx context.Context, key string) (*entity.Conversation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	ParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	CreateMessage(ctx context.Context, msg *entity.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*entity.Message, error)
	LastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error)
	ReaderIDs(ctx context.Context, messageID uuid.UUID) ([]uuid.UUID, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	CountUnreadIn(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
}

// NormalizePair orders two user ids deterministically so the direct
// conversation between A and B maps to one (UserAID, UserBID) pair no matter
// the argument order.
func NormalizePair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) > 0 {
		return b, a
	}
	return a, b
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) CreateConversation(ctx context.Context, convo *entity.Conversation, participantIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(convo).Error; err != nil {
			return err
		}

		for _, userID := range participantIDs {
			participant := entity.ConversationParticipant{
				ConversationID: convo.ID,
				UserID:         userID,
			}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func (r *chatRepository) FindDirect(ctx context.Context, userA, userB uuid.UUID) (*entity.Conversation, error) {
	a, b := NormalizePair(userA, userB)

	var convo entity.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Participants.User").
		Where("is_group = ? AND user_a_id = ? AND user_b_id = ?", false, a, b).
		First(&convo).Error; err != nil {
		return nil, err
	}
	return &convo, nil
}

func (r *chatRepository) FindByGroupKey(ctx context.Context, key string) (*entity.Conversation, error) {
	var convo entity.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Participants.User").
		Where("group_key = ?", key).
		First(&convo).Error; err != nil {
		return nil, err
	}
	return &convo, nil
}

func (r *chatRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	var convo entity.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Participants.User").
		First(&convo, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &convo, nil
}

func (r *chatRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Conversation, error) {
	var convos []*entity.Conversation
	if err := r.db.WithContext(ctx).
		Preload("Participants.User").
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Find(&convos).Error; err != nil {
		return nil, err
	}
	return convos, nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entity.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *chatRepository) ParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&entity.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateMessage writes the message and the sender's read row in one
// transaction, so a message can never exist without its sender having read it.
func (r *chatRepository) CreateMessage(ctx context.Context, msg *entity.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		read := entity.MessageRead{
			MessageID: msg.ID,
			UserID:    msg.SenderID,
		}
		return tx.Create(&read).Error
	})
}

func (r *chatRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*entity.Message, error) {
	var messages []*entity.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "avatar_url")
		}).
		Where("conversation_id = ?", conversationID).
		Order("created_at asc").
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *chatRepository) LastMessage(ctx context.Context, conversationID uuid.UUID) (*entity.Message, error) {
	var msg entity.Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at desc").
		First(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatRepository) ReaderIDs(ctx context.Context, messageID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&entity.MessageRead{}).
		Where("message_id = ?", messageID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// MarkRead inserts read rows for every message in the conversation the user
// has not read yet. Running it twice is a no-op the second time.
func (r *chatRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	query := `
		INSERT INTO message_reads (message_id, user_id, read_at)
		SELECT m.id, ?, NOW()
		FROM messages m
		WHERE m.conversation_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = ?
		  )
	`
	return r.db.WithContext(ctx).Exec(query, userID, conversationID, userID).Error
}

func (r *chatRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversation_participants cp
		  ON cp.conversation_id = m.conversation_id AND cp.user_id = ?
		WHERE NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = ?
		)
	`
	var count int64
	if err := r.db.WithContext(ctx).Raw(query, userID, userID).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *chatRepository) CountUnreadIn(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM messages m
		WHERE m.conversation_id = ?
		  AND NOT EXISTS (
			SELECT 1 FROM message_reads r
			WHERE r.message_id = m.id AND r.user_id = ?
		  )
	`
	var count int64
	if err := r.db.WithContext(ctx).Raw(query, conversationID, userID).Scan(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
