package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUserNotFound signals a lookup on a missing user record.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken signals a unique violation on the email column.
var ErrEmailTaken = errors.New("email already registered")

// UserRecord is the full user row including the password hash. It never
// leaves the auth package; handlers see the User view instead.
type UserRecord struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Roles        []string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const userCols = `id, name, email, phone, password_hash, roles, is_active, created_at, updated_at`

// Store persists salon staff accounts.
type Store struct {
	Pool *pgxpool.Pool
}

func (s *Store) GetByEmail(ctx context.Context, email string) (UserRecord, error) {
	return s.getWhere(ctx, `email = $1`, email)
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (UserRecord, error) {
	return s.getWhere(ctx, `id = $1`, id)
}

func (s *Store) getWhere(ctx context.Context, where string, arg any) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRecord{}, ErrUserNotFound
	}
	if err != nil {
		return UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) Create(ctx context.Context, name, email, phone, passwordHash string, roles []string) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx,
		`INSERT INTO users (name, email, phone, password_hash, roles)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userCols,
		name, email, phone, passwordHash, roles)
	u, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return UserRecord{}, ErrEmailTaken
		}
		return UserRecord{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, name, email, phone string, roles []string, isActive bool) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, phone = $4, roles = $5, is_active = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userCols,
		id, name, email, phone, roles, isActive)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRecord{}, ErrUserNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return UserRecord{}, ErrEmailTaken
		}
		return UserRecord{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (UserRecord, error) {
	row := s.Pool.QueryRow(ctx,
		`UPDATE users SET name = $2, phone = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userCols,
		id, name, phone)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRecord{}, ErrUserNotFound
	}
	if err != nil {
		return UserRecord{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE users SET is_active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]UserRecord, int64, error) {
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+userCols+` FROM users ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	items := []UserRecord{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, u)
	}
	return items, total, rows.Err()
}

func scanUser(row pgx.Row) (UserRecord, error) {
	var u UserRecord
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Roles, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
