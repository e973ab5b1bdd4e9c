package profile

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/profile/dto"
	search "github.com/unicampus/portal/internal/modules/search/service"
	userdto "github.com/unicampus/portal/internal/modules/user/dto"
	userrepo "github.com/unicampus/portal/internal/modules/user/repository"
	"github.com/unicampus/portal/pkg/apperror"
	"github.com/unicampus/portal/pkg/storage"
	"gorm.io/gorm"
)

type ProfileService interface {
	Get(ctx context.Context, userID uuid.UUID) (*userdto.UserResponse, error)
	Update(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileInput) (*userdto.UserResponse, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, r io.Reader, fileName string) (string, error)
}

type profileService struct {
	users  userrepo.UserRepository
	images storage.ImageStorage
	search search.SearchService
}

func NewProfileService(users userrepo.UserRepository, images storage.ImageStorage, searchSvc search.SearchService) ProfileService {
	return &profileService{users: users, images: images, search: searchSvc}
}

func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*userdto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err)
	}
	resp := userdto.ToUserResponse(user)
	return &resp, nil
}

func (s *profileService) Update(ctx context.Context, userID uuid.UUID, input dto.UpdateProfileInput) (*userdto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, lookupError(err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperror.Validation("name must not be empty")
		}
		user.Name = name
	}

	profile := user.Profile
	if profile == nil {
		profile = &entity.Profile{UserID: user.ID}
	}
	if input.Bio != nil {
		profile.Bio = input.Bio
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

	if err := s.users.Update(ctx, user, profile); err != nil {
		return nil, &apperror.AppError{Code: 500, Message: "failed to update profile", Err: err}
	}

	if s.search != nil {
		s.search.IndexUser(user)
	}

	user.Profile = profile
	resp := userdto.ToUserResponse(user)
	return &resp, nil
}

// UploadAvatar stores the new image, points the user at it, then removes the
// previous one. The old file is deleted last so a failed upload never leaves
// the user without an avatar.
func (s *profileService) UploadAvatar(ctx context.Context, userID uuid.UUID, r io.Reader, fileName string) (string, error) {
	if s.images == nil {
		return "", &apperror.AppError{Code: 503, Message: "avatar storage is not configured", Err: apperror.ErrInternal}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", lookupError(err)
	}

	url, err := s.images.UploadImage(ctx, r, "avatars", fileName)
	if err != nil {
		return "", &apperror.AppError{Code: 500, Message: "failed to upload avatar", Err: err}
	}

	oldURL := user.AvatarURL
	user.AvatarURL = &url
	if err := s.users.Update(ctx, user, nil); err != nil {
		return "", &apperror.AppError{Code: 500, Message: "failed to save avatar", Err: err}
	}

	if oldURL != nil && *oldURL != "" {
		s.images.DeleteImage(ctx, *oldURL)
	}

	return url, nil
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperror.AppError{Code: 404, Message: "user not found", Err: apperror.ErrNotFound}
	}
	return &apperror.AppError{Code: 500, Message: "failed to load user", Err: err}
}
