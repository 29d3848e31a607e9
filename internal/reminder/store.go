// Package reminder tracks follow-up prompts for customers: birthday wishes,
// post-treatment checkins, and restock pings generated from orders. A cron
// worker flips due reminders to sent so the dashboard surfaces them.
package reminder

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

// ErrNotFound signals a lookup on a missing reminder.
var ErrNotFound = errors.New("reminder not found")

// Status is the reminder lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusCompleted Status = "completed"
	StatusSkipped   Status = "skipped"
)

// Reminder is a follow-up prompt tied to a customer.
type Reminder struct {
	ID           uuid.UUID  `json:"id"`
	CustomerID   uuid.UUID  `json:"customerId"`
	CustomerName string     `json:"customerName,omitempty"`
	OrderID      *uuid.UUID `json:"orderId,omitempty"`
	Title        string     `json:"title"`
	Message      string     `json:"message"`
	DueDate      time.Time  `json:"dueDate"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Input carries reminder fields for create and update.
type Input struct {
	CustomerID uuid.UUID  `json:"customerId" validate:"required"`
	OrderID    *uuid.UUID `json:"orderId"`
	Title      string     `json:"title" validate:"required,max=200"`
	Message    string     `json:"message" validate:"max=1000"`
	DueDate    time.Time  `json:"dueDate" validate:"required"`
}

const reminderCols = `r.id, r.customer_id, c.name, r.order_id, r.title, r.message,
	r.due_date, r.status, r.created_at, r.updated_at`

const reminderJoin = ` FROM reminders r JOIN customers c ON c.id = r.customer_id`

// Store persists reminders.
type Store struct {
	Pool *pgxpool.Pool
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (Reminder, error) {
	row := s.Pool.QueryRow(ctx, `SELECT `+reminderCols+reminderJoin+` WHERE r.id = $1`, id)
	rem, err := scanReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Reminder{}, ErrNotFound
	}
	if err != nil {
		return Reminder{}, fmt.Errorf("get reminder: %w", err)
	}
	return rem, nil
}

// List pages reminders, optionally filtered by status.
func (s *Store) List(ctx context.Context, status Status, limit, offset int) ([]Reminder, int64, error) {
	where := ""
	countArgs := []any{}
	args := []any{limit, offset}
	if status != "" {
		where = ` WHERE r.status = $3`
		args = append(args, status)
		countArgs = append(countArgs, status)
	}
	count := `SELECT count(*) FROM reminders r`
	if status != "" {
		count += ` WHERE r.status = $1`
	}
	var total int64
	if err := s.Pool.QueryRow(ctx, count, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reminders: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT `+reminderCols+reminderJoin+where+` ORDER BY r.due_date LIMIT $1 OFFSET $2`, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	items, err := scanReminders(rows)
	return items, total, err
}

// DueBetween returns open reminders due inside [from, to).
func (s *Store) DueBetween(ctx context.Context, from, to time.Time) ([]Reminder, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT `+reminderCols+reminderJoin+`
		 WHERE r.status IN ('pending', 'sent') AND r.due_date >= $1 AND r.due_date < $2
		 ORDER BY r.due_date`, from, to)
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	defer rows.Close()
	return scanReminders(rows)
}

func (s *Store) Create(ctx context.Context, in Input) (Reminder, error) {
	var id uuid.UUID
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO reminders (customer_id, order_id, title, message, due_date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		in.CustomerID, in.OrderID, in.Title, in.Message, in.DueDate,
	).Scan(&id)
	if err != nil {
		return Reminder{}, fmt.Errorf("create reminder: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, in Input) (Reminder, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE reminders
		 SET customer_id = $2, order_id = $3, title = $4, message = $5, due_date = $6, updated_at = now()
		 WHERE id = $1`,
		id, in.CustomerID, in.OrderID, in.Title, in.Message, in.DueDate)
	if err != nil {
		return Reminder{}, fmt.Errorf("update reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Reminder{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Reminder, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE reminders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return Reminder{}, fmt.Errorf("update reminder status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Reminder{}, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM reminders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDueAsSent flips pending reminders whose due date has arrived to sent
// and returns how many changed. The worker calls this on a schedule.
func (s *Store) MarkDueAsSent(ctx context.Context, today time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx,
		`UPDATE reminders SET status = 'sent', updated_at = now()
		 WHERE status = 'pending' AND due_date <= $1`, today)
	if err != nil {
		return 0, fmt.Errorf("mark due reminders: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanReminder(row pgx.Row) (Reminder, error) {
	var r Reminder
	err := row.Scan(&r.ID, &r.CustomerID, &r.CustomerName, &r.OrderID, &r.Title,
		&r.Message, &r.DueDate, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func scanReminders(rows pgx.Rows) ([]Reminder, error) {
	items := []Reminder{}
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// AsAppError maps store sentinels onto API error envelopes.
func AsAppError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return common.NewNotFound("reminder not found")
	}
	return err
}
