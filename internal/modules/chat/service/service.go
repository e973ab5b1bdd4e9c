package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/unicampus/portal/internal/entity"
	academicRepo "github.com/unicampus/portal/internal/modules/academic/repository"
	"github.com/unicampus/portal/internal/modules/chat/dto"
	"github.com/unicampus/portal/internal/modules/chat/repository"
	notification "github.com/unicampus/portal/internal/modules/notification/service"
	userRepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/apperror"
	"gorm.io/gorm"
)

const unreadCacheTTL = 30 * time.Second

type ChatService interface {
	GetOrCreateDirect(ctx context.Context, userID, otherID uuid.UUID) (*dto.ConversationResponse, error)
	CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, participantIDs []uuid.UUID) (*dto.ConversationResponse, error)
	GetOrCreateRoleGroup(ctx context.Context, creatorID uuid.UUID, role, name string) (*dto.ConversationResponse, error)
	GetOrCreateSubjectGroup(ctx context.Context, professorID, subjectID uuid.UUID) (*dto.ConversationResponse, error)
	ListConversations(ctx context.Context, userID uuid.UUID) ([]dto.ConversationListItem, error)
	SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, text string) (*dto.MessageResponse, error)
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]dto.MessageResponse, error)
	MarkRead(ctx context.Context, readerID, conversationID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
}

type chatService struct {
	repo        repository.ChatRepository
	users       userRepo.UserRepository
	subjects    academicRepo.SubjectRepository
	notifier    notification.NotificationService
	redisClient *redis.Client
}

func NewChatService(
	repo repository.ChatRepository,
	users userRepo.UserRepository,
	subjects academicRepo.SubjectRepository,
	notifier notification.NotificationService,
	redisClient *redis.Client,
) ChatService {
	return &chatService{
		repo:        repo,
		users:       users,
		subjects:    subjects,
		notifier:    notifier,
		redisClient: redisClient,
	}
}

func (s *chatService) GetOrCreateDirect(ctx context.Context, userID, otherID uuid.UUID) (*dto.ConversationResponse, error) {
	if userID == otherID {
		return nil, apperror.Validation("cannot start a conversation with yourself")
	}

	if _, err := s.users.FindByID(ctx, otherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("user %s does not exist", otherID)
		}
		return nil, err
	}

	convo, err := s.repo.FindDirect(ctx, userID, otherID)
	if err == nil {
		return s.toConversationResponse(ctx, convo)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	a, b := repository.NormalizePair(userID, otherID)
	convo = &entity.Conversation{
		IsGroup: false,
		UserAID: &a,
		UserBID: &b,
	}
	if err := s.repo.CreateConversation(ctx, convo, []uuid.UUID{a, b}); err != nil {
		// A concurrent call may have won the unique-index race; the pair
		// lookup is now guaranteed to succeed.
		if existing, findErr := s.repo.FindDirect(ctx, userID, otherID); findErr == nil {
			return s.toConversationResponse(ctx, existing)
		}
		return nil, err
	}

	return s.toConversationResponse(ctx, convo)
}

func (s *chatService) CreateGroup(ctx context.Context, creatorID uuid.UUID, name string, participantIDs []uuid.UUID) (*dto.ConversationResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.Validation("group name is required")
	}

	members := dedupWith(participantIDs, creatorID)
	if len(members) == 0 {
		return nil, apperror.Validation("group needs at least one participant")
	}

	convo := &entity.Conversation{
		IsGroup: true,
		Name:    name,
	}
	if err := s.repo.CreateConversation(ctx, convo, members); err != nil {
		return nil, err
	}

	return s.toConversationResponse(ctx, convo)
}

// GetOrCreateRoleGroup returns the singleton group for a role, creating it
// with all current holders of that role on first use. Membership is frozen at
// creation time; later role changes do not re-sync the roster.
func (s *chatService) GetOrCreateRoleGroup(ctx context.Context, creatorID uuid.UUID, role, name string) (*dto.ConversationResponse, error) {
	if !entity.KnownRole(role) {
		return nil, apperror.Validation("unknown role %s", role)
	}

	key := "role:" + role
	convo, err := s.repo.FindByGroupKey(ctx, key)
	if err == nil {
		return s.toConversationResponse(ctx, convo)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	holders, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}

	memberIDs := make([]uuid.UUID, 0, len(holders)+1)
	for _, holder := range holders {
		memberIDs = append(memberIDs, holder.ID)
	}
	memberIDs = dedupWith(memberIDs, creatorID)

	if name = strings.TrimSpace(name); name == "" {
		name = role
	}

	convo = &entity.Conversation{
		IsGroup:  true,
		Name:     name,
		GroupKey: &key,
	}
	if err := s.repo.CreateConversation(ctx, convo, memberIDs); err != nil {
		if existing, findErr := s.repo.FindByGroupKey(ctx, key); findErr == nil {
			return s.toConversationResponse(ctx, existing)
		}
		return nil, err
	}

	return s.toConversationResponse(ctx, convo)
}

// GetOrCreateSubjectGroup returns the singleton group for a subject, creating
// it with the professor plus every student enrolled at that moment.
func (s *chatService) GetOrCreateSubjectGroup(ctx context.Context, professorID, subjectID uuid.UUID) (*dto.ConversationResponse, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("subject %s does not exist", subjectID)
		}
		return nil, err
	}

	key := "subject:" + subjectID.String()
	convo, err := s.repo.FindByGroupKey(ctx, key)
	if err == nil {
		return s.toConversationResponse(ctx, convo)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	studentIDs, err := s.subjects.ListEnrolledStudentIDs(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	memberIDs := dedupWith(studentIDs, professorID)

	convo = &entity.Conversation{
		IsGroup:  true,
		Name:     subject.Name,
		GroupKey: &key,
	}
	if err := s.repo.CreateConversation(ctx, convo, memberIDs); err != nil {
		if existing, findErr := s.repo.FindByGroupKey(ctx, key); findErr == nil {
			return s.toConversationResponse(ctx, existing)
		}
		return nil, err
	}

	return s.toConversationResponse(ctx, convo)
}

func (s *chatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]dto.ConversationListItem, error) {
	convos, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ConversationListItem, 0, len(convos))
	for _, convo := range convos {
		name, err := s.displayName(ctx, convo, userID)
		if err != nil {
			return nil, err
		}

		item := dto.ConversationListItem{
			ID:      convo.ID,
			IsGroup: convo.IsGroup,
			Name:    name,
		}

		last, err := s.repo.LastMessage(ctx, convo.ID)
		if err == nil {
			item.LastMessage = &dto.MessageResponse{
				ID:             last.ID,
				ConversationID: last.ConversationID,
				SenderID:       last.SenderID,
				Text:           last.Text,
				CreatedAt:      last.CreatedAt,
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		unread, err := s.repo.CountUnreadIn(ctx, convo.ID, userID)
		if err != nil {
			return nil, err
		}
		item.UnreadCount = unread

		items = append(items, item)
	}

	// Most recent activity first; conversations without messages sink to
	// the bottom.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].LastMessage == nil {
			return false
		}
		if items[j].LastMessage == nil {
			return true
		}
		return items[i].LastMessage.CreatedAt.After(items[j].LastMessage.CreatedAt)
	})

	return items, nil
}

func (s *chatService) SendMessage(ctx context.Context, senderID, conversationID uuid.UUID, text string) (*dto.MessageResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("message text is required")
	}

	isMember, err := s.repo.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperror.ErrForbidden
	}

	msg := &entity.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	resp := dto.MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Text:           msg.Text,
		CreatedAt:      msg.CreatedAt,
		ReadBy:         []uuid.UUID{senderID},
	}
	if sender, err := s.users.FindByID(ctx, senderID); err == nil {
		resp.SenderName = sender.Name
	}

	s.fanOut(ctx, conversationID, resp)

	return &resp, nil
}

func (s *chatService) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]dto.MessageResponse, error) {
	isMember, err := s.repo.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, apperror.ErrForbidden
	}

	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		readBy, err := s.repo.ReaderIDs(ctx, msg.ID)
		if err != nil {
			return nil, err
		}

		resp := dto.MessageResponse{
			ID:             msg.ID,
			ConversationID: msg.ConversationID,
			SenderID:       msg.SenderID,
			Text:           msg.Text,
			CreatedAt:      msg.CreatedAt,
			ReadBy:         readBy,
		}
		if msg.Sender != nil {
			resp.SenderName = msg.Sender.Name
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

func (s *chatService) MarkRead(ctx context.Context, readerID, conversationID uuid.UUID) error {
	isMember, err := s.repo.IsParticipant(ctx, conversationID, readerID)
	if err != nil {
		return err
	}
	if !isMember {
		return apperror.ErrForbidden
	}

	if err := s.repo.MarkRead(ctx, conversationID, readerID); err != nil {
		return err
	}

	s.invalidateUnread(ctx, readerID)
	return nil
}

func (s *chatService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	cacheKey := unreadCacheKey(userID)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Int64(); err == nil {
			return cached, nil
		}
	}

	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	if s.redisClient != nil {
		s.redisClient.SetEx(ctx, cacheKey, count, unreadCacheTTL)
	}

	return count, nil
}

// fanOut publishes the new message to every participant's live channel,
// notifies everyone but the sender, and drops their stale unread counters.
func (s *chatService) fanOut(ctx context.Context, conversationID uuid.UUID, msg dto.MessageResponse) {
	participantIDs, err := s.repo.ParticipantIDs(ctx, conversationID)
	if err != nil {
		log.Printf("failed to resolve participants of %s: %v", conversationID, err)
		return
	}

	event := dto.ChatEvent{ConversationID: conversationID, Message: msg}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	for _, participantID := range participantIDs {
		if s.redisClient != nil {
			channel := fmt.Sprintf("chat_events:%s", participantID)
			s.redisClient.Publish(ctx, channel, payload)
		}

		if participantID == msg.SenderID {
			continue
		}

		s.invalidateUnread(ctx, participantID)

		if s.notifier != nil {
			notif := &entity.Notification{
				UserID:     participantID,
				ActorID:    msg.SenderID,
				EntityID:   conversationID,
				EntityType: "conversation",
				Type:       entity.NotificationChatMessage,
				Message:    fmt.Sprintf("%s sent you a message", msg.SenderName),
			}
			if err := s.notifier.CreateNotification(ctx, notif); err != nil {
				log.Printf("failed to create chat notification: %v", err)
			}
		}
	}
}

func (s *chatService) invalidateUnread(ctx context.Context, userID uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, unreadCacheKey(userID))
	}
}

func (s *chatService) displayName(ctx context.Context, convo *entity.Conversation, viewerID uuid.UUID) (string, error) {
	if convo.IsGroup {
		return convo.Name, nil
	}

	participantIDs, err := s.repo.ParticipantIDs(ctx, convo.ID)
	if err != nil {
		return "", err
	}

	for _, participantID := range participantIDs {
		if participantID == viewerID {
			continue
		}
		other, err := s.users.FindByID(ctx, participantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "Deleted user", nil
			}
			return "", err
		}
		return other.Name, nil
	}

	return convo.Name, nil
}

func (s *chatService) toConversationResponse(ctx context.Context, convo *entity.Conversation) (*dto.ConversationResponse, error) {
	participantIDs, err := s.repo.ParticipantIDs(ctx, convo.ID)
	if err != nil {
		return nil, err
	}

	return &dto.ConversationResponse{
		ID:             convo.ID,
		IsGroup:        convo.IsGroup,
		Name:           convo.Name,
		ParticipantIDs: participantIDs,
	}, nil
}

// dedupWith returns ids with duplicates removed and always includes extra.
func dedupWith(ids []uuid.UUID, extra uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids)+1)
	result := make([]uuid.UUID, 0, len(ids)+1)

	for _, id := range append(ids, extra) {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}

	return result
}

func unreadCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("chat:unread:%s", userID)
}
