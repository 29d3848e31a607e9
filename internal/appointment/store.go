package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-salon/internal/common"
)

// ErrNotFound signals a lookup on a missing appointment.
var ErrNotFound = errors.New("appointment not found")

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// ValidStatus reports whether s is one of the lifecycle states.
func ValidStatus(s Status) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment is a booked salon visit.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	CustomerID      uuid.UUID  `json:"customerId"`
	CustomerName    string     `json:"customerName,omitempty"`
	ServiceID       uuid.UUID  `json:"serviceId"`
	ServiceName     string     `json:"serviceName,omitempty"`
	StaffID         *uuid.UUID `json:"staffId,omitempty"`
	StartsAt        time.Time  `json:"startsAt"`
	DurationMinutes int        `json:"durationMinutes"`
	Status          Status     `json:"status"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Input carries appointment fields for create and update.
type Input struct {
	CustomerID      uuid.UUID  `json:"customerId" validate:"required"`
	ServiceID       uuid.UUID  `json:"serviceId" validate:"required"`
	StaffID         *uuid.UUID `json:"staffId"`
	StartsAt        time.Time  `json:"startsAt" validate:"required"`
	DurationMinutes int        `json:"durationMinutes" validate:"min=0,max=480"`
	Notes           string     `json:"notes" validate:"max=1000"`
}

const apptCols = `a.id, a.customer_id, c.name, a.service_id, sv.name, a.staff_id,
	a.starts_at, a.duration_minutes, a.status, a.notes, a.created_at, a.updated_at`

const apptJoins = ` FROM appointments a
	JOIN customers c ON c.id = a.customer_id
	JOIN services sv ON sv.id = a.service_id`

// Store persists appointments.
type Store struct {
	Pool *pgxpool.Pool
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Appointment, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+apptCols+apptJoins+` WHERE a.id = $1`, id)
	a, err := scanAppt(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// ListBetween returns appointments starting inside [from, to), oldest first.
func (s *Store) ListBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+apptCols+apptJoins+`
		 WHERE a.starts_at >= $1 AND a.starts_at < $2
		 ORDER BY a.starts_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	return scanAppts(rows)
}

// List pages appointments, optionally narrowed by status or customer.
func (s *Store) List(ctx context.Context, status Status, customerID *uuid.UUID, limit, offset int) ([]Appointment, int64, error) {
	where := ` WHERE 1=1`
	args := []any{}
	idx := 1
	if status != "" {
		where += fmt.Sprintf(` AND a.status = $%d`, idx)
		args = append(args, status)
		idx++
	}
	if customerID != nil {
		where += fmt.Sprintf(` AND a.customer_id = $%d`, idx)
		args = append(args, *customerID)
		idx++
	}
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM appointments a`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	query := `SELECT ` + apptCols + apptJoins + where +
		fmt.Sprintf(` ORDER BY a.starts_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)
	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()
	items, err := scanAppts(rows)
	return items, total, err
}

func (s *Store) Create(ctx context.Context, in Input, duration int) (Appointment, error) {
	var id uuid.UUID
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO appointments (customer_id, service_id, staff_id, starts_at, duration_minutes, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		in.CustomerID, in.ServiceID, in.StaffID, in.StartsAt, duration, in.Notes,
	).Scan(&id)
	if err != nil {
		return Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, in Input, duration int) (Appointment, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE appointments
		 SET customer_id = $2, service_id = $3, staff_id = $4, starts_at = $5,
		     duration_minutes = $6, notes = $7, updated_at = now()
		 WHERE id = $1`,
		id, in.CustomerID, in.ServiceID, in.StaffID, in.StartsAt, duration, in.Notes)
	if err != nil {
		return Appointment{}, fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Appointment{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Appointment, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return Appointment{}, fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Appointment{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ServiceDuration reads the default duration for a service so bookings can
// omit an explicit length.
func (s *Store) ServiceDuration(ctx context.Context, serviceID uuid.UUID) (int, error) {
	var minutes int
	err := s.Pool.QueryRow(ctx,
		`SELECT duration_minutes FROM services WHERE id = $1`, serviceID).Scan(&minutes)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, common.NewNotFound("service not found")
	}
	if err != nil {
		return 0, fmt.Errorf("service duration: %w", err)
	}
	return minutes, nil
}

func scanAppt(row pgx.Row) (Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.CustomerID, &a.CustomerName, &a.ServiceID, &a.ServiceName,
		&a.StaffID, &a.StartsAt, &a.DurationMinutes, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanAppts(rows pgx.Rows) ([]Appointment, error) {
	items := []Appointment{}
	for rows.Next() {
		a, err := scanAppt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// AsAppError maps store sentinels onto API error envelopes.
func AsAppError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return common.NewNotFound("appointment not found")
	}
	return err
}
