package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-salon/internal/common"
)

type memStore struct {
	users map[uuid.UUID]UserRecord
}

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]UserRecord{}}
}

func (m *memStore) add(t *testing.T, name, email, password string, roles []string, active bool) UserRecord {
	t.Helper()
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	require.NoError(t, err)
	rec := UserRecord{
		ID: uuid.New(), Name: name, Email: email, PasswordHash: hash,
		Roles: roles, IsActive: active, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.users[rec.ID] = rec
	return rec
}

func (m *memStore) GetByEmail(ctx context.Context, email string) (UserRecord, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return UserRecord{}, ErrUserNotFound
}

func (m *memStore) GetByID(ctx context.Context, id uuid.UUID) (UserRecord, error) {
	u, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return u, nil
}

func (m *memStore) Create(ctx context.Context, name, email, phone, passwordHash string, roles []string) (UserRecord, error) {
	for _, u := range m.users {
		if u.Email == email {
			return UserRecord{}, ErrEmailTaken
		}
	}
	rec := UserRecord{ID: uuid.New(), Name: name, Email: email, Phone: phone, PasswordHash: passwordHash, Roles: roles, IsActive: true}
	m.users[rec.ID] = rec
	return rec, nil
}

func (m *memStore) Update(ctx context.Context, id uuid.UUID, name, email, phone string, roles []string, isActive bool) (UserRecord, error) {
	u, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	u.Name, u.Email, u.Phone, u.Roles, u.IsActive = name, email, phone, roles, isActive
	m.users[id] = u
	return u, nil
}

func (m *memStore) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (UserRecord, error) {
	u, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	u.Name, u.Phone = name, phone
	m.users[id] = u
	return u, nil
}

func (m *memStore) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	m.users[id] = u
	return nil
}

func (m *memStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	u, ok := m.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.IsActive = false
	m.users[id] = u
	return nil
}

func (m *memStore) List(ctx context.Context, limit, offset int) ([]UserRecord, int64, error) {
	out := []UserRecord{}
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func newTestService(t *testing.T, store UserStore) *Service {
	t.Helper()
	svc, err := NewService(Config{Store: store, Secret: "test-secret-test-secret", AccessTokenTTL: time.Hour})
	require.NoError(t, err)
	return svc
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	store := newMemStore()
	rec := store.add(t, "Linh", "linh@salon.vn", "correct horse", []string{RoleAdmin}, true)
	svc := newTestService(t, store)

	result, err := svc.Login(context.Background(), "Linh@Salon.VN", "correct horse")
	require.NoError(t, err)
	require.Equal(t, rec.ID, result.User.ID)
	require.NotEmpty(t, result.AccessToken)

	claims, err := svc.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	require.Equal(t, rec.ID, claims.UserID)
	require.Equal(t, []string{RoleAdmin}, claims.Roles)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	store := newMemStore()
	store.add(t, "Linh", "linh@salon.vn", "correct horse", []string{RoleStaff}, true)
	svc := newTestService(t, store)

	_, err := svc.Login(context.Background(), "linh@salon.vn", "wrong")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)
}

func TestLoginRejectsDisabledAccount(t *testing.T) {
	store := newMemStore()
	store.add(t, "Linh", "linh@salon.vn", "correct horse", []string{RoleStaff}, false)
	svc := newTestService(t, store)

	_, err := svc.Login(context.Background(), "linh@salon.vn", "correct horse")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "ACCOUNT_DISABLED", appErr.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	store := newMemStore()
	store.add(t, "Linh", "linh@salon.vn", "correct horse", []string{RoleStaff}, true)
	svc := newTestService(t, store)

	issued := time.Now()
	svc.WithNow(func() time.Time { return issued })
	result, err := svc.Login(context.Background(), "linh@salon.vn", "correct horse")
	require.NoError(t, err)

	svc.WithNow(func() time.Time { return issued.Add(2 * time.Hour) })
	_, err = svc.ParseAccessToken(result.AccessToken)
	require.Error(t, err)
}

func TestChangePasswordRequiresCurrent(t *testing.T) {
	store := newMemStore()
	rec := store.add(t, "Linh", "linh@salon.vn", "correct horse", []string{RoleStaff}, true)
	svc := newTestService(t, store)

	err := svc.ChangePassword(context.Background(), rec.ID, "wrong", "new password 1")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_CREDENTIALS", appErr.Code)

	require.NoError(t, svc.ChangePassword(context.Background(), rec.ID, "correct horse", "new password 1"))
	_, err = svc.Login(context.Background(), "linh@salon.vn", "new password 1")
	require.NoError(t, err)
}

func TestRequireAuthMiddleware(t *testing.T) {
	store := newMemStore()
	rec := store.add(t, "Linh", "linh@salon.vn", "correct horse", []string{RoleAdmin}, true)
	svc := newTestService(t, store)
	result, err := svc.Login(context.Background(), "linh@salon.vn", "correct horse")
	require.NoError(t, err)

	var gotID string
	var gotAdmin bool
	handler := Middleware{Service: svc}.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = common.UserID(r.Context())
		gotAdmin = common.HasRole(r.Context(), RoleAdmin)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+result.AccessToken)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, rec.ID.String(), gotID)
	require.True(t, gotAdmin)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(common.WithRoles(req.Context(), []string{RoleStaff}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(common.WithRoles(req.Context(), []string{RoleAdmin}))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
