package user

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/unicampus/portal/internal/entity"
	"github.com/unicampus/portal/internal/modules/user/dto"
	"github.com/unicampus/portal/internal/modules/user/repository"
	search "github.com/unicampus/portal/internal/modules/search/service"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

type AuthService interface {
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	GoogleLogin() string
	GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error)
}

type authService struct {
	repo         repository.UserRepository
	secret       string
	tokenTTL     time.Duration
	defaultRole  string
	emailDomain  string
	search       search.SearchService
	googleConfig *oauth2.Config
}

func NewAuthService(repo repository.UserRepository, searchSvc search.SearchService) AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "change-me"
	}

	ttl := time.Hour
	if ttlStr := os.Getenv("JWT_TTL_MINUTES"); ttlStr != "" {
		if minutes, err := strconv.Atoi(ttlStr); err == nil {
			ttl = time.Duration(minutes) * time.Minute
		}
	}

	defaultRole := os.Getenv("DEFAULT_ROLE")
	if defaultRole == "" {
		defaultRole = entity.RoleStudent
	}

	googleConfig := &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &authService{
		repo:         repo,
		secret:       secret,
		tokenTTL:     ttl,
		defaultRole:  defaultRole,
		emailDomain:  os.Getenv("ALLOWED_EMAIL_DOMAIN"),
		search:       searchSvc,
		googleConfig: googleConfig,
	}
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	return s.buildAuthResponse(user)
}

func (s *authService) GoogleLogin() string {
	return s.googleConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

func (s *authService) GoogleCallback(ctx context.Context, code string) (*dto.AuthResponse, error) {
	token, err := s.googleConfig.Exchange(ctx, code)
	if err != nil {
		return nil, errors.New("failed to exchange token: " + err.Error())
	}

	client := s.googleConfig.Client(ctx, token)
	userInfoResp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, errors.New("failed to get user info: " + err.Error())
	}
	defer userInfoResp.Body.Close()

	var googleUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}

	if err := json.NewDecoder(userInfoResp.Body).Decode(&googleUser); err != nil {
		return nil, errors.New("failed to decode user info: " + err.Error())
	}

	if s.emailDomain != "" && !strings.HasSuffix(googleUser.Email, "@"+s.emailDomain) {
		return nil, errors.New("email domain must be @" + s.emailDomain)
	}

	user, err := s.repo.FindByEmail(ctx, googleUser.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		// First sign-in through Google: provision an account with the
		// default role. The random password is never usable for login.
		randomPassword := uuid.New().String()
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(randomPassword), bcrypt.DefaultCost)

		role, err := s.repo.FindRoleByName(ctx, s.defaultRole)
		if err != nil {
			return nil, errors.New("default role not found")
		}

		user = &entity.User{
			Name:         googleUser.Name,
			Email:        googleUser.Email,
			PasswordHash: string(hashedPassword),
			RoleID:       &role.ID,
			GoogleID:     &googleUser.ID,
		}
		if googleUser.Picture != "" {
			user.AvatarURL = &googleUser.Picture
		}

		if err := s.repo.Create(ctx, user, &entity.Profile{}); err != nil {
			return nil, err
		}
		user.Role = *role

		if s.search != nil {
			if err := s.search.IndexUser(user); err != nil {
				log.Printf("failed to index user %s: %v", user.ID, err)
			}
		}
	}

	return s.buildAuthResponse(user)
}

func (s *authService) buildAuthResponse(user *entity.User) (*dto.AuthResponse, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	resp := &dto.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
		User:        user,
		Role:        &user.Role,
		Profile:     user.Profile,
	}

	if s.search != nil {
		searchToken, err := s.search.GenerateSearchToken(user.Role.Name)
		if err != nil {
			log.Printf("failed to generate search token: %v", err)
		} else {
			resp.SearchToken = searchToken
		}
	}

	return resp, nil
}
