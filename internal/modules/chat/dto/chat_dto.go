package dto

import (
	"time"

	"github.com/google/uuid"
)

type StartDirectInput struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

type CreateGroupInput struct {
	Name           string   `json:"name" binding:"required"`
	ParticipantIDs []string `json:"participant_ids" binding:"required"`
}

type RoleGroupInput struct {
	Role string `json:"role" binding:"required,oneof=admin student preceptor professor"`
}

type SubjectGroupInput struct {
	SubjectID string `json:"subject_id" binding:"required,uuid"`
}

type SendMessageInput struct {
	Text string `json:"text" binding:"required"`
}

type MessageResponse struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	SenderName     string      `json:"sender_name,omitempty"`
	Text           string      `json:"text"`
	CreatedAt      time.Time   `json:"created_at"`
	ReadBy         []uuid.UUID `json:"read_by,omitempty"`
}

type ConversationResponse struct {
	ID             uuid.UUID   `json:"id"`
	IsGroup        bool        `json:"is_group"`
	Name           string      `json:"name"`
	ParticipantIDs []uuid.UUID `json:"participant_ids"`
}

// ConversationListItem is the inbox projection: one row per conversation the
// user participates in, with the display name already resolved.
type ConversationListItem struct {
	ID          uuid.UUID        `json:"id"`
	IsGroup     bool             `json:"is_group"`
	Name        string           `json:"name"`
	LastMessage *MessageResponse `json:"last_message,omitempty"`
	UnreadCount int64            `json:"unread_count"`
}

// ChatEvent is the payload pushed over redis/websocket when a message lands.
type ChatEvent struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	Message        MessageResponse `json:"message"`
}
