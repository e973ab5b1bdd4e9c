package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"gorm.io/gorm"
)

// inMemoryUserRepository keeps users in process memory. It shares the
// UserRepository contract with the gorm implementation and backs the service
// tests, so no database is needed to exercise business logic.
type inMemoryUserRepository struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]*entity.User
	profiles map[uuid.UUID]*entity.Profile
	roles    map[string]*entity.Role
}

func NewInMemoryUserRepository() UserRepository {
	r := &inMemoryUserRepository{
		users:    make(map[uuid.UUID]*entity.User),
		profiles: make(map[uuid.UUID]*entity.Profile),
		roles:    make(map[string]*entity.Role),
	}
	for i, name := range []string{entity.RoleAdmin, entity.RoleStudent, entity.RolePreceptor, entity.RoleProfessor} {
		r.roles[name] = &entity.Role{ID: uint(i + 1), Name: name}
	}
	return r
}

func (r *inMemoryUserRepository) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.RoleID != nil {
		for _, role := range r.roles {
			if role.ID == *user.RoleID {
				user.Role = *role
			}
		}
	}
	r.users[user.ID] = user
	if profile != nil {
		profile.UserID = user.ID
		r.profiles[user.ID] = profile
		user.Profile = profile
	}
	return nil
}

func (r *inMemoryUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *inMemoryUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *inMemoryUserRepository) FindRoleByName(ctx context.Context, name string) (*entity.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	role, ok := r.roles[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (r *inMemoryUserRepository) FindAll(ctx context.Context) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*entity.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *inMemoryUserRepository) ListByRole(ctx context.Context, role string) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []*entity.User
	for _, user := range r.users {
		if user.Role.Name == role {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *inMemoryUserRepository) Update(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.users[user.ID] = user
	if profile != nil {
		profile.UserID = user.ID
		r.profiles[user.ID] = profile
		user.Profile = profile
	}
	return nil
}

func (r *inMemoryUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.users, id)
	delete(r.profiles, id)
	return nil
}

func (r *inMemoryUserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.users)), nil
}
