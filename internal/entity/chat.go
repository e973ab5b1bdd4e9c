package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation is either a two-person direct thread or a named group.
// Direct conversations store the participant pair sorted into
// (UserAID, UserBID) with a unique index, so looking up "the conversation
// between A and B" is a single indexed query regardless of argument order.
// Singleton groups (per role, per subject) carry a GroupKey.
type Conversation struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	IsGroup   bool       `gorm:"not null;default:false" json:"is_group"`
	Name      string     `gorm:"size:100" json:"name"`
	GroupKey  *string    `gorm:"size:100;uniqueIndex" json:"group_key,omitempty"`
	UserAID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_direct_pair,priority:1" json:"-"`
	UserBID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_direct_pair,priority:2" json:"-"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`

	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"participants,omitempty"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type ConversationParticipant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"conversation_id"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Message is append-only; rows are never updated after creation.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`

	Sender *User         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Reads  []MessageRead `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"reads,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MessageRead marks a message as seen by a user. The sender's row is written
// in the same transaction as the message itself.
type MessageRead struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey" json:"message_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	ReadAt    time.Time `gorm:"autoCreateTime" json:"read_at"`
}
