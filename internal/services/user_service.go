package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"camioBack/internal/models"
	"camioBack/internal/repositories"
	"camioBack/utils"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 120 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// PresenceDropper removes a transporter from the active-presence set.
type PresenceDropper interface {
	GoOffline(ctx context.Context, transporterID int) error
}

type UserService struct {
	UserRepo     *repositories.UserRepository
	TokenManager *utils.Manager
	SigningKey   string
	Presence     PresenceDropper
}

func (s *UserService) SignUp(ctx context.Context, input models.SignUpRequest) (models.User, error) {
	input.Phone = strings.TrimSpace(input.Phone)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Name == "" || len(input.Password) < 6 {
		return models.User{}, models.ErrValidation
	}
	if input.Phone == "" && input.Email == "" {
		return models.User{}, models.ErrValidation
	}
	if input.Role != models.RoleClient && input.Role != models.RoleTransporter {
		return models.User{}, models.ErrValidation
	}

	if input.Phone != "" {
		if _, err := s.UserRepo.GetUserByPhone(ctx, input.Phone); err == nil {
			return models.User{}, models.ErrDuplicatePhone
		} else if !errors.Is(err, models.ErrUserNotFound) {
			return models.User{}, err
		}
	}
	if input.Email != "" {
		if _, err := s.UserRepo.GetUserByEmail(ctx, input.Email); err == nil {
			return models.User{}, models.ErrDuplicateEmail
		} else if !errors.Is(err, models.ErrUserNotFound) {
			return models.User{}, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}

	return s.UserRepo.CreateUser(ctx, models.User{
		Name:     strings.TrimSpace(input.Name),
		Phone:    input.Phone,
		Email:    input.Email,
		Password: string(hash),
		City:     strings.TrimSpace(input.City),
		Role:     input.Role,
	})
}

func (s *UserService) SignIn(ctx context.Context, input models.SignInRequest) (models.SignInResponse, error) {
	var user models.User
	var err error
	switch {
	case input.Phone != "":
		user, err = s.UserRepo.GetUserByPhone(ctx, input.Phone)
	case input.Email != "":
		user, err = s.UserRepo.GetUserByEmail(ctx, strings.ToLower(input.Email))
	default:
		return models.SignInResponse{}, models.ErrValidation
	}
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.SignInResponse{}, models.ErrInvalidCredentials
		}
		return models.SignInResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		return models.SignInResponse{}, models.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the session's refresh token and issues a fresh access token.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (models.SignInResponse, error) {
	session, err := s.UserRepo.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		return models.SignInResponse{}, err
	}
	if session == (models.Session{}) || session.ExpiresAt.Before(time.Now()) {
		return models.SignInResponse{}, models.ErrInvalidCredentials
	}

	user, err := s.UserRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return models.SignInResponse{}, err
	}
	return s.issueTokens(ctx, user)
}

// Logout drops the session. A transporter also leaves the active-presence set
// immediately instead of waiting for the activity window to lapse.
func (s *UserService) Logout(ctx context.Context, userID int, role string) error {
	if role == models.RoleTransporter && s.Presence != nil {
		if err := s.Presence.GoOffline(ctx, userID); err != nil {
			log.Printf("user %d: drop presence: %v", userID, err)
		}
	}
	return s.UserRepo.DeleteSession(ctx, userID)
}

func (s *UserService) GetUserByID(ctx context.Context, id int) (models.User, error) {
	user, err := s.UserRepo.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.Password = ""
	return user, nil
}

func (s *UserService) SubmitProofDocument(ctx context.Context, userID int, url string) error {
	return s.UserRepo.SetDocOfProof(ctx, userID, url)
}

func (s *UserService) issueTokens(ctx context.Context, user models.User) (models.SignInResponse, error) {
	now := time.Now()
	claims := models.Claims{
		UserID: uint(user.ID),
		Role:   user.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(accessTokenTTL).Unix(),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.SigningKey))
	if err != nil {
		return models.SignInResponse{}, err
	}

	refresh, err := s.TokenManager.NewRefreshToken()
	if err != nil {
		return models.SignInResponse{}, err
	}
	err = s.UserRepo.SetSession(ctx, user.ID, models.Session{
		UserID:       user.ID,
		Role:         user.Role,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(refreshTokenTTL),
	})
	if err != nil {
		return models.SignInResponse{}, err
	}

	user.Password = ""
	return models.SignInResponse{User: user, AccessToken: access, RefreshToken: refresh}, nil
}
