package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unicampus/portal/internal/entity"
	academicRepo "github.com/unicampus/portal/internal/modules/academic/repository"
	"github.com/unicampus/portal/internal/modules/chat/repository"
	userRepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/apperror"
)

type chatFixture struct {
	svc      ChatService
	users    userRepo.UserRepository
	subjects academicRepo.SubjectRepository
}

func newChatFixture() *chatFixture {
	users := userRepo.NewInMemoryUserRepository()
	subjects := academicRepo.NewInMemorySubjectRepository()
	repo := repository.NewInMemoryChatRepository()
	return &chatFixture{
		svc:      NewChatService(repo, users, subjects, nil, nil),
		users:    users,
		subjects: subjects,
	}
}

func (f *chatFixture) seedUser(t *testing.T, name, role string) *entity.User {
	t.Helper()
	u := &entity.User{
		Name:  name,
		Email: name + "@unicampus.edu",
		Role:  entity.Role{Name: role},
	}
	require.NoError(t, f.users.Create(context.Background(), u, nil))
	return u
}

func TestGetOrCreateDirectIsSymmetric(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleProfessor)

	first, err := f.svc.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	second, err := f.svc.GetOrCreateDirect(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "both argument orders must resolve to the same conversation")
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, first.ParticipantIDs)
	assert.False(t, first.IsGroup)
}

func TestGetOrCreateDirectRejectsSelf(t *testing.T) {
	f := newChatFixture()
	alice := f.seedUser(t, "alice", entity.RoleStudent)

	_, err := f.svc.GetOrCreateDirect(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestGetOrCreateDirectRejectsUnknownUser(t *testing.T) {
	f := newChatFixture()
	alice := f.seedUser(t, "alice", entity.RoleStudent)

	_, err := f.svc.GetOrCreateDirect(context.Background(), alice.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestSendMessageMarksSenderAsRead(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	convo, err := f.svc.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	sent, err := f.svc.SendMessage(ctx, alice.ID, convo.ID, "hi bob")
	require.NoError(t, err)
	assert.Contains(t, sent.ReadBy, alice.ID)

	aliceUnread, err := f.svc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, aliceUnread, "a sender never counts their own message as unread")

	bobUnread, err := f.svc.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, bobUnread)
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)
	eve := f.seedUser(t, "eve", entity.RoleStudent)

	convo, err := f.svc.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, eve.ID, convo.ID, "let me in")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestSendMessageRejectsBlankText(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	convo, err := f.svc.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, alice.ID, convo.ID, "   \n\t ")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	convo, err := f.svc.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, alice.ID, convo.ID, "one")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, alice.ID, convo.ID, "two")
	require.NoError(t, err)

	require.NoError(t, f.svc.MarkRead(ctx, bob.ID, convo.ID))
	require.NoError(t, f.svc.MarkRead(ctx, bob.ID, convo.ID))

	unread, err := f.svc.UnreadCount(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	messages, err := f.svc.ListMessages(ctx, bob.ID, convo.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	for _, msg := range messages {
		assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, msg.ReadBy)
	}
}

func TestCreateGroupAlwaysIncludesCreator(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.seedUser(t, "alice", entity.RolePreceptor)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	convo, err := f.svc.CreateGroup(ctx, alice.ID, "  study group  ", []uuid.UUID{bob.ID, bob.ID})
	require.NoError(t, err)

	assert.True(t, convo.IsGroup)
	assert.Equal(t, "study group", convo.Name)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, convo.ParticipantIDs)
}

func TestCreateGroupRejectsBlankName(t *testing.T) {
	f := newChatFixture()
	alice := f.seedUser(t, "alice", entity.RolePreceptor)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	_, err := f.svc.CreateGroup(context.Background(), alice.ID, "   ", []uuid.UUID{bob.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestRoleGroupIsSingletonWithFrozenRoster(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	first, err := f.svc.GetOrCreateRoleGroup(ctx, alice.ID, entity.RoleStudent, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, first.ParticipantIDs)

	// A student created after the group does not join it retroactively.
	f.seedUser(t, "carol", entity.RoleStudent)

	second, err := f.svc.GetOrCreateRoleGroup(ctx, bob.ID, entity.RoleStudent, "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.ElementsMatch(t, []uuid.UUID{alice.ID, bob.ID}, second.ParticipantIDs)
}

func TestRoleGroupRejectsUnknownRole(t *testing.T) {
	f := newChatFixture()
	alice := f.seedUser(t, "alice", entity.RoleStudent)

	_, err := f.svc.GetOrCreateRoleGroup(context.Background(), alice.ID, "janitor", "")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestSubjectGroupCollectsEnrolledStudents(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	prof := f.seedUser(t, "prof", entity.RoleProfessor)
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)

	subject := &entity.Subject{Name: "Algebra", Year: 1}
	require.NoError(t, f.subjects.Create(ctx, subject))
	require.NoError(t, f.subjects.EnrollStudent(ctx, subject.ID, alice.ID))
	require.NoError(t, f.subjects.EnrollStudent(ctx, subject.ID, bob.ID))

	convo, err := f.svc.GetOrCreateSubjectGroup(ctx, prof.ID, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", convo.Name)
	assert.ElementsMatch(t, []uuid.UUID{prof.ID, alice.ID, bob.ID}, convo.ParticipantIDs)

	again, err := f.svc.GetOrCreateSubjectGroup(ctx, prof.ID, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, convo.ID, again.ID)
}

func TestSubjectGroupRejectsUnknownSubject(t *testing.T) {
	f := newChatFixture()
	prof := f.seedUser(t, "prof", entity.RoleProfessor)

	_, err := f.svc.GetOrCreateSubjectGroup(context.Background(), prof.ID, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestListConversationsResolvesNamesAndOrder(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.seedUser(t, "alice", entity.RoleStudent)
	bob := f.seedUser(t, "bob", entity.RoleStudent)
	carol := f.seedUser(t, "carol", entity.RoleStudent)

	withBob, err := f.svc.GetOrCreateDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	withCarol, err := f.svc.GetOrCreateDirect(ctx, alice.ID, carol.ID)
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, bob.ID, withBob.ID, "older")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(ctx, carol.ID, withCarol.ID, "newer")
	require.NoError(t, err)

	items, err := f.svc.ListConversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, withCarol.ID, items[0].ID, "latest activity first")
	assert.Equal(t, "carol", items[0].Name)
	assert.Equal(t, "bob", items[1].Name)
	assert.EqualValues(t, 1, items[0].UnreadCount)
	assert.EqualValues(t, 1, items[1].UnreadCount)
	require.NotNil(t, items[0].LastMessage)
	assert.Equal(t, "newer", items[0].LastMessage.Text)
}
