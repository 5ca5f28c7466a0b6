package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ponyfiction/internal/model"
	"ponyfiction/internal/pkg/jwtutil"
	"ponyfiction/internal/pkg/validation"
	"ponyfiction/internal/repository"
)

// SessionRevoker invalidates access tokens of a session before they expire.
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionID string) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type AuthService struct {
	tx         repository.Transactor
	userRepo   repository.Users
	sessions   repository.Sessions
	revoker    SessionRevoker
	files      *FileService
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type AuthConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ClientInfo identifies the device a session was opened from.
type ClientInfo struct {
	UserAgent string
	IP        string
}

type SignUpInput struct {
	Login    string  `json:"login" validate:"required,login"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Avatar   *Upload `json:"-"`
}

type LogInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	SessionID    string
	User         *model.User
}

func NewAuthService(
	tx repository.Transactor,
	userRepo repository.Users,
	sessions repository.Sessions,
	revoker SessionRevoker,
	files *FileService,
	cfg AuthConfig,
) *AuthService {
	return &AuthService{
		tx:         tx,
		userRepo:   userRepo,
		sessions:   sessions,
		revoker:    revoker,
		files:      files,
		jwtSecret:  cfg.JWTSecret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

func (s *AuthService) SignUp(ctx context.Context, input SignUpInput, client ClientInfo) (*AuthTokens, error) {
	input.Login = strings.TrimSpace(input.Login)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var tokens *AuthTokens
	var avatarPath string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.createUser(ctx, input, model.RoleUser)
		if err != nil {
			return err
		}

		if input.Avatar != nil && s.files != nil {
			avatar, _, err := s.files.Replace(ctx, nil, fmt.Sprintf("user/%d/avatar", user.ID), input.Avatar)
			if err != nil {
				return err
			}
			avatarPath = avatar.Path
			user.AvatarID = &avatar.ID
			user.Avatar = avatar
			if err := s.userRepo.Update(ctx, user, map[string]interface{}{"avatar_id": avatar.ID}); err != nil {
				return err
			}
		}

		tokens, err = s.sign(ctx, user, client)
		return err
	})
	if err != nil {
		if avatarPath != "" {
			s.files.Discard(ctx, avatarPath)
		}
		return nil, err
	}
	return tokens, nil
}

// CreateAccount adds an active user with the given role. It backs the
// createsu command; staff accounts can't be created over GraphQL.
func (s *AuthService) CreateAccount(ctx context.Context, input SignUpInput, role model.UserRole) (*model.User, error) {
	input.Login = strings.TrimSpace(input.Login)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Avatar = nil
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var user *model.User
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.createUser(ctx, input, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) createUser(ctx context.Context, input SignUpInput, role model.UserRole) (*model.User, error) {
	existingByLogin, err := s.userRepo.GetByLogin(ctx, input.Login)
	if err != nil {
		return nil, err
	}
	if existingByLogin != nil {
		return nil, ErrLoginExists
	}
	existingByEmail, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}
	user := &model.User{
		Login:        input.Login,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         role,
		Status:       model.StatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) LogIn(ctx context.Context, input LogInInput, client ClientInfo) (*AuthTokens, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status == model.StatusBanned {
		return nil, ErrUserBanned
	}

	var tokens *AuthTokens
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		tokens, err = s.sign(ctx, user, client)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// Refresh rotates a refresh token: the old session is revoked and a new one signed.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthTokens, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	var tokens *AuthTokens
	var revokedID string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessions.GetByTokenHash(ctx, hashToken(refreshToken))
		if err != nil {
			return err
		}
		if !session.Valid(s.now()) {
			return ErrInvalidRefreshToken
		}
		user, err := s.userRepo.GetByID(ctx, session.UserID)
		if err != nil {
			return err
		}
		if user == nil || user.Status == model.StatusBanned {
			return ErrInvalidRefreshToken
		}
		if err := s.sessions.Revoke(ctx, session.ID, s.now()); err != nil {
			return err
		}
		revokedID = session.ID
		tokens, err = s.sign(ctx, user, client)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.markRevoked(ctx, revokedID)
	return tokens, nil
}

// LogOut revokes the session owning refreshToken and returns the token.
func (s *AuthService) LogOut(ctx context.Context, viewer *model.User, refreshToken string) (string, error) {
	if viewer == nil {
		return "", ErrUnauthenticated
	}

	var sessionID string
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		session, err := s.sessions.GetByTokenHash(ctx, hashToken(strings.TrimSpace(refreshToken)))
		if err != nil {
			return err
		}
		if session == nil || session.UserID != viewer.ID || session.RevokedAt != nil {
			return ErrSessionNotFound
		}
		sessionID = session.ID
		return s.sessions.Revoke(ctx, session.ID, s.now())
	})
	if err != nil {
		return "", err
	}
	s.markRevoked(ctx, sessionID)
	return refreshToken, nil
}

// VerifyAccessToken parses token and rejects tokens of revoked sessions.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*jwtutil.Claims, error) {
	claims, err := jwtutil.ParseToken(s.jwtSecret, token)
	if err != nil {
		return nil, err
	}
	if s.revoker != nil && claims.SessionID != "" {
		revoked, err := s.revoker.IsRevoked(ctx, claims.SessionID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, jwtutil.ErrInvalidToken
		}
	}
	return claims, nil
}

func (s *AuthService) sign(ctx context.Context, user *model.User, client ClientInfo) (*AuthTokens, error) {
	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		UserAgent: truncate(client.UserAgent, 512),
		IP:        truncate(client.IP, 64),
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := jwtutil.GenerateToken(s.jwtSecret, s.accessTTL, jwtutil.Subject{
		UserID:    user.ID,
		Login:     user.Login,
		Role:      int(user.Role),
		SessionID: session.ID,
	})
	if err != nil {
		return nil, err
	}
	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		SessionID:    session.ID,
		User:         user,
	}, nil
}

func (s *AuthService) markRevoked(ctx context.Context, sessionID string) {
	if s.revoker == nil || sessionID == "" {
		return
	}
	// The session row is already revoked; the marker only shortens access token life.
	_ = s.revoker.Revoke(ctx, sessionID)
}

func newRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
