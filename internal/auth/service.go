// Package auth handles staff credentials and bearer-token authentication for
// the admin SPA. Tokens are signed HS256 JWTs carrying the holder's roles so
// route guards never need a database round trip.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/noah-isme/backend-salon/internal/common"
)

const defaultAccessTTL = 12 * time.Hour

const rolesClaim = "roles"

// RoleAdmin unlocks user management and settings; RoleStaff is the default
// for salon operators.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// UserStore is the slice of the store the service needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (UserRecord, error)
	GetByID(ctx context.Context, id uuid.UUID) (UserRecord, error)
	Create(ctx context.Context, name, email, phone, passwordHash string, roles []string) (UserRecord, error)
	Update(ctx context.Context, id uuid.UUID, name, email, phone string, roles []string, isActive bool) (UserRecord, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (UserRecord, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]UserRecord, int64, error)
}

// User is the safe subset of an account returned to clients.
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Roles     []string  `json:"roles"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUser(u UserRecord) User {
	return User{
		ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone,
		Roles: u.Roles, IsActive: u.IsActive, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

// LoginResult bundles the token material returned after a successful login.
type LoginResult struct {
	User        User      `json:"user"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Claims is what a verified token resolves to.
type Claims struct {
	UserID uuid.UUID
	Roles  []string
}

// Service coordinates credential checks and token issuance.
type Service struct {
	store     UserStore
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
	signer    jwa.SignatureAlgorithm
	validator TokenValidator
	issuer    string
	audience  string
}

// Config configures the auth service.
type Config struct {
	Store          UserStore
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
	Audience       string
	ClockSkew      time.Duration
}

// NewService constructs a Service with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "backend-salon"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "salon-admin"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		store:     cfg.Store,
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
		signer:    jwa.HS256,
		validator: TokenValidator{
			Issuer:    issuer,
			Audience:  audience,
			ClockSkew: clockSkew,
			Algorithm: jwa.HS256,
		},
		issuer:   issuer,
		audience: audience,
	}, nil
}

// WithNow lets tests override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	normalized := strings.TrimSpace(strings.ToLower(email))
	if normalized == "" || password == "" {
		return LoginResult{}, invalidCredentials(nil)
	}
	rec, err := s.store.GetByEmail(ctx, normalized)
	if err != nil {
		return LoginResult{}, invalidCredentials(nil)
	}
	ok, err := argon2id.ComparePasswordAndHash(password, rec.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials(err)
	}
	if !rec.IsActive {
		return LoginResult{}, common.NewAppError("ACCOUNT_DISABLED", "account is disabled", http.StatusForbidden, nil)
	}
	token, expiresAt, err := s.signAccessToken(rec)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}
	return LoginResult{User: toUser(rec), AccessToken: token, ExpiresAt: expiresAt}, nil
}

// Me fetches the current authenticated user.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (User, error) {
	rec, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return User{}, unauthorized(err)
	}
	return toUser(rec), nil
}

// UpdateProfile changes the caller's own display name and phone.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, name, phone string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, common.NewValidation("VALIDATION", "name is required")
	}
	rec, err := s.store.UpdateProfile(ctx, userID, name, strings.TrimSpace(phone))
	if err != nil {
		return User{}, mapStoreErr(err)
	}
	return toUser(rec), nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < 8 {
		return common.NewValidation("WEAK_PASSWORD", "password must be at least 8 characters")
	}
	rec, err := s.store.GetByID(ctx, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	ok, err := argon2id.ComparePasswordAndHash(current, rec.PasswordHash)
	if err != nil || !ok {
		return common.NewAppError("INVALID_CREDENTIALS", "current password is incorrect", http.StatusUnauthorized, err)
	}
	hash, err := argon2id.CreateHash(next, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}

// SetPassword resets another user's password. Admin only; unlike
// ChangePassword it does not require the current password.
func (s *Service) SetPassword(ctx context.Context, userID uuid.UUID, next string) error {
	if len(next) < 8 {
		return common.NewValidation("WEAK_PASSWORD", "password must be at least 8 characters")
	}
	if _, err := s.store.GetByID(ctx, userID); err != nil {
		return mapStoreErr(err)
	}
	hash, err := argon2id.CreateHash(next, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}

// CreateUser provisions a staff account. Admin only, enforced by middleware.
func (s *Service) CreateUser(ctx context.Context, name, email, phone, password string, roles []string) (User, error) {
	name = strings.TrimSpace(name)
	normalized := strings.TrimSpace(strings.ToLower(email))
	if name == "" || normalized == "" {
		return User{}, common.NewValidation("VALIDATION", "name and email are required")
	}
	if len(password) < 8 {
		return User{}, common.NewValidation("WEAK_PASSWORD", "password must be at least 8 characters")
	}
	if len(roles) == 0 {
		roles = []string{RoleStaff}
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	rec, err := s.store.Create(ctx, name, normalized, strings.TrimSpace(phone), hash, roles)
	if err != nil {
		return User{}, mapStoreErr(err)
	}
	return toUser(rec), nil
}

// UpdateUser edits a staff account. Admin only.
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, name, email, phone string, roles []string, isActive bool) (User, error) {
	name = strings.TrimSpace(name)
	normalized := strings.TrimSpace(strings.ToLower(email))
	if name == "" || normalized == "" {
		return User{}, common.NewValidation("VALIDATION", "name and email are required")
	}
	if len(roles) == 0 {
		roles = []string{RoleStaff}
	}
	rec, err := s.store.Update(ctx, id, name, normalized, strings.TrimSpace(phone), roles, isActive)
	if err != nil {
		return User{}, mapStoreErr(err)
	}
	return toUser(rec), nil
}

// DeactivateUser disables an account without deleting its history.
func (s *Service) DeactivateUser(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	return nil
}

// ListUsers pages through staff accounts.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error) {
	recs, total, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	users := make([]User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, toUser(rec))
	}
	return users, total, nil
}

// ParseAccessToken validates a token and extracts its claims.
func (s *Service) ParseAccessToken(token string) (Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Claims{}, unauthorized(nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return Claims{}, unauthorized(err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return Claims{}, unauthorized(fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return Claims{}, unauthorized(err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return Claims{}, unauthorized(err)
	}
	userID, err := uuid.Parse(parsed.Subject())
	if err != nil {
		return Claims{}, unauthorized(err)
	}
	return Claims{UserID: userID, Roles: rolesFromToken(parsed)}, nil
}

func rolesFromToken(tok jwt.Token) []string {
	raw, ok := tok.Get(rolesClaim)
	if !ok {
		return nil
	}
	// jwx decodes JSON arrays as []interface{}.
	values, ok := raw.([]any)
	if !ok {
		return nil
	}
	roles := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			roles = append(roles, s)
		}
	}
	return roles
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) signAccessToken(rec UserRecord) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(rec.ID.String()).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.validator.ClockSkew)).
		Expiration(expiresAt).
		Claim(rolesClaim, rec.Roles)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func invalidCredentials(err error) error {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, err)
}

func unauthorized(err error) error {
	return common.NewAppError("UNAUTHORIZED", "missing or invalid token", http.StatusUnauthorized, err)
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return common.NewNotFound("user not found")
	case errors.Is(err, ErrEmailTaken):
		return common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
	default:
		return err
	}
}
