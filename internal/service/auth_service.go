package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"solarshare/internal/cache"
	"solarshare/internal/mailer"
	"solarshare/internal/middleware"
	"solarshare/internal/models"
	"solarshare/internal/repository"
	"solarshare/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig carries the session settings taken from config.Config.
type AuthConfig struct {
	JWTSecret                string
	TokenTTL                 time.Duration
	RequireEmailConfirmation bool
	PublicBaseURL            string
}

// AuthService owns registration, login and token revocation.
type AuthService struct {
	profiles repository.ProfileRepository
	store    *cache.Store
	mail     mailer.Mailer
	cfg      AuthConfig
	revoked  *memoryRevocations
	now      func() time.Time
}

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Email           string
	Password        string
	Name            string
	Phone           string
	IsSolarProvider bool
}

// LoginResult is returned after a successful sign-in.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Session   models.Session `json:"user"`
}

// NewAuthService wires the auth service. A nil mailer logs confirmation mail.
func NewAuthService(profiles repository.ProfileRepository, store *cache.Store, m mailer.Mailer, cfg AuthConfig) *AuthService {
	if m == nil {
		m = mailer.NewLogMailer(nil)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &AuthService{
		profiles: profiles,
		store:    store,
		mail:     m,
		cfg:      cfg,
		revoked:  newMemoryRevocations(),
		now:      time.Now,
	}
}

// Register creates an unconfirmed profile and mails the confirmation link.
// It never signs the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.Profile, error) {
	email := validation.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	name := strings.TrimSpace(in.Name)
	if err := validation.ValidateName(name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	phone := strings.TrimSpace(in.Phone)
	if err := validation.ValidatePhone(phone); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("", "An account with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	profile := &models.Profile{
		Email:           email,
		PasswordHash:    string(hash),
		Name:            name,
		Phone:           phone,
		IsSolarProvider: in.IsSolarProvider,
	}
	if s.cfg.RequireEmailConfirmation {
		token := strings.ReplaceAll(uuid.NewString(), "-", "")
		profile.ConfirmationToken = &token
	} else {
		now := s.now()
		profile.EmailConfirmedAt = &now
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}

	if profile.ConfirmationToken != nil {
		s.sendConfirmation(ctx, profile)
	}
	return profile, nil
}

func (s *AuthService) sendConfirmation(ctx context.Context, p *models.Profile) {
	link := s.cfg.PublicBaseURL + "/api/auth/confirm?token=" + url.QueryEscape(*p.ConfirmationToken)
	msg, err := mailer.ConfirmationEmail(p.Email, p.Name, link)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		// Registration stands even when the mail cannot be sent.
		slog.ErrorContext(ctx, "confirmation mail failed", slog.Uint64("user_id", uint64(p.ID)), slog.String("error", err.Error()))
	}
}

// Confirm marks the profile owning token as confirmed.
func (s *AuthService) Confirm(ctx context.Context, token string) (*models.Profile, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, models.NewValidationError("Confirmation token is required")
	}
	profile, err := s.profiles.GetByConfirmationToken(ctx, token)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.profiles.Confirm(ctx, profile.ID, now); err != nil {
		return nil, err
	}
	profile.EmailConfirmedAt = &now
	profile.ConfirmationToken = nil
	return profile, nil
}

// Login checks credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = validation.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if s.cfg.RequireEmailConfirmation && !profile.Confirmed() {
		return nil, models.NewForbiddenError("Please confirm your email address before signing in")
	}

	issued, err := middleware.IssueToken(s.cfg.JWTSecret, middleware.TokenSubject{
		UserID:     profile.ID,
		Name:       profile.Name,
		IsProvider: profile.IsSolarProvider,
	}, s.cfg.TokenTTL, s.now())
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &LoginResult{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		Session:   models.SessionOf(profile),
	}, nil
}

// Logout revokes the token's jti until the token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.TokenClaims) error {
	if claims == nil || claims.JTI == "" {
		return models.NewUnauthorizedError("Missing token")
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if rdb := s.store.Client(); rdb != nil {
		if err := rdb.Set(ctx, cache.BlacklistKey(claims.JTI), "1", ttl).Err(); err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}
	s.revoked.add(claims.JTI, claims.ExpiresAt)
	return nil
}

// IsRevoked reports whether jti was logged out.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if rdb := s.store.Client(); rdb != nil {
		n, err := rdb.Exists(ctx, cache.BlacklistKey(jti)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}
	return s.revoked.contains(jti, s.now()), nil
}

// Session returns the current-user snapshot.
func (s *AuthService) Session(ctx context.Context, userID uint) (models.Session, error) {
	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return models.Session{}, err
	}
	return models.SessionOf(profile), nil
}

// UpdateProfile changes the contact details of the caller.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uint, name, phone string) (models.Session, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if err := validation.ValidateName(name); err != nil {
		return models.Session{}, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePhone(phone); err != nil {
		return models.Session{}, models.NewValidationError(err.Error())
	}
	profile, err := s.profiles.UpdateContact(ctx, userID, name, phone)
	if err != nil {
		return models.Session{}, err
	}
	return models.SessionOf(profile), nil
}

// memoryRevocations backs logout when Redis is not configured.
type memoryRevocations struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{entries: make(map[string]time.Time)}
}

func (m *memoryRevocations) add(jti string, until time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[jti] = until
}

func (m *memoryRevocations) contains(jti string, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.entries[jti]
	if !ok {
		return false
	}
	if !now.Before(until) {
		delete(m.entries, jti)
		return false
	}
	return true
}
