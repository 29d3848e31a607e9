// Package settings holds the single-row salon profile shown in the admin
// settings screen.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Settings is the salon profile. The table holds exactly one row.
type Settings struct {
	SalonName    string    `json:"salonName"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email"`
	Currency     string    `json:"currency"`
	OpeningHours string    `json:"openingHours"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Input carries settings fields for update.
type Input struct {
	SalonName    string `json:"salonName" validate:"required,max=200"`
	Address      string `json:"address" validate:"max=300"`
	Phone        string `json:"phone" validate:"max=30"`
	Email        string `json:"email" validate:"omitempty,email"`
	Currency     string `json:"currency" validate:"required,len=3"`
	OpeningHours string `json:"openingHours" validate:"max=100"`
}

const settingsCols = `salon_name, address, phone, email, currency, opening_hours, updated_at`

// Store reads and writes the settings row.
type Store struct {
	Pool *pgxpool.Pool
}

func (s *Store) Get(ctx context.Context) (Settings, error) {
	var out Settings
	err := s.Pool.QueryRow(ctx, `SELECT `+settingsCols+` FROM settings WHERE id = 1`).
		Scan(&out.SalonName, &out.Address, &out.Phone, &out.Email,
			&out.Currency, &out.OpeningHours, &out.UpdatedAt)
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, in Input) (Settings, error) {
	var out Settings
	err := s.Pool.QueryRow(ctx,
		`UPDATE settings
		 SET salon_name = $1, address = $2, phone = $3, email = $4,
		     currency = $5, opening_hours = $6, updated_at = now()
		 WHERE id = 1
		 RETURNING `+settingsCols,
		in.SalonName, in.Address, in.Phone, in.Email, in.Currency, in.OpeningHours).
		Scan(&out.SalonName, &out.Address, &out.Phone, &out.Email,
			&out.Currency, &out.OpeningHours, &out.UpdatedAt)
	if err != nil {
		return Settings{}, fmt.Errorf("update settings: %w", err)
	}
	return out, nil
}

// Reset restores the defaults from the schema.
func (s *Store) Reset(ctx context.Context) (Settings, error) {
	var out Settings
	err := s.Pool.QueryRow(ctx,
		`UPDATE settings
		 SET salon_name = 'Beauty Salon', address = '', phone = '', email = '',
		     currency = 'VND', opening_hours = '09:00-20:00', updated_at = now()
		 WHERE id = 1
		 RETURNING `+settingsCols).
		Scan(&out.SalonName, &out.Address, &out.Phone, &out.Email,
			&out.Currency, &out.OpeningHours, &out.UpdatedAt)
	if err != nil {
		return Settings{}, fmt.Errorf("reset settings: %w", err)
	}
	return out, nil
}
