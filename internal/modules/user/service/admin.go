package user

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/user/dto"
	"github.com/unicampus/portal/internal/modules/user/repository"
	search "github.com/unicampus/portal/internal/modules/search/service"
	"github.com/unicampus/portal/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminService manages portal accounts. A user's role is fixed at creation;
// there is deliberately no operation to change it afterwards.
type AdminService interface {
	CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.UserResponse, error)
	GetAllUsers(ctx context.Context) ([]dto.UserResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateUserInput) (*dto.UserResponse, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type adminService struct {
	repo   repository.UserRepository
	search search.SearchService
}

func NewAdminService(repo repository.UserRepository, searchSvc search.SearchService) AdminService {
	return &adminService{repo: repo, search: searchSvc}
}

func (s *adminService) CreateUser(ctx context.Context, input dto.CreateUserInput) (*dto.UserResponse, error) {
	if _, err := s.repo.FindByEmail(ctx, input.Email); err == nil {
		return nil, apperror.Validation("email %s is already registered", input.Email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role, err := s.repo.FindRoleByName(ctx, input.Role)
	if err != nil {
		return nil, apperror.Validation("unknown role %s", input.Role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &entity.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		RoleID:       &role.ID,
	}

	profile := &entity.Profile{
		DNI:     input.DNI,
		Careers: input.Careers,
		Year:    input.Year,
	}

	if err := s.repo.Create(ctx, user, profile); err != nil {
		return nil, err
	}
	user.Role = *role

	if s.search != nil {
		if err := s.search.IndexUser(user); err != nil {
			log.Printf("failed to index user %s: %v", user.ID, err)
		}
	}

	resp := dto.ToUserResponse(user)
	return &resp, nil
}

func (s *adminService) GetAllUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, dto.ToUserResponse(user))
	}
	return responses, nil
}

func (s *adminService) UpdateUser(ctx context.Context, id uuid.UUID, input dto.UpdateUserInput) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	if input.Name != nil && *input.Name != "" {
		user.Name = *input.Name
	}

	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < 8 {
			return nil, apperror.Validation("password must be at least 8 characters")
		}
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashedPassword)
	}

	profile := user.Profile
	if profile == nil {
		profile = &entity.Profile{UserID: user.ID}
	}
	if input.DNI != nil {
		profile.DNI = input.DNI
	}
	if input.Careers != nil {
		profile.Careers = input.Careers
	}
	if input.Year != nil {
		profile.Year = input.Year
	}

	if err := s.repo.Update(ctx, user, profile); err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexUser(user); err != nil {
			log.Printf("failed to reindex user %s: %v", user.ID, err)
		}
	}

	resp := dto.ToUserResponse(user)
	return &resp, nil
}

func (s *adminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.ErrNotFound
		}
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.DeleteUser(id.String()); err != nil {
			log.Printf("failed to remove user %s from index: %v", id, err)
		}
	}

	return nil
}
