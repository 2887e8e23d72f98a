package repository

import (
	"context"
	"database/sql"

	"calsync/core/database"
	"calsync/core/logger"
	"calsync/modules/event/entity"

	"github.com/google/uuid"
)

type EventRepository interface {
	Create(ctx context.Context, ev *entity.Event) (*entity.Event, error)
	Update(ctx context.Context, ev *entity.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Event, error)
	// InsertIfAbsent inserts with do-nothing-on-conflict semantics on the
	// natural key (calendar_id, title, start_time, end_time). Returns false
	// when the row already existed, leaving local edits untouched.
	InsertIfAbsent(ctx context.Context, ev *entity.Event) (bool, error)
}

type eventRepository struct {
	db database.IDatabase
}

func NewEventRepository(db database.IDatabase) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, ev *entity.Event) (*entity.Event, error) {
	query := `
		INSERT INTO events (calendar_id, user_id, title, description, location,
			start_time, end_time, all_day, recurrence_rule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		ev.CalendarID, ev.UserID, ev.Title, ev.Description, ev.Location,
		ev.StartTime, ev.EndTime, ev.AllDay, ev.RecurrenceRule,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		logger.Error("EventRepository:Create:Error", "error", err, "user_id", ev.UserID)
		return nil, err
	}
	return ev, nil
}

func (r *eventRepository) Update(ctx context.Context, ev *entity.Event) error {
	query := `
		UPDATE events
		SET calendar_id = $1, title = $2, description = $3, location = $4,
			start_time = $5, end_time = $6, all_day = $7, recurrence_rule = $8,
			updated_at = NOW()
		WHERE id = $9
	`
	err := r.db.ExecContext(ctx, query,
		ev.CalendarID, ev.Title, ev.Description, ev.Location,
		ev.StartTime, ev.EndTime, ev.AllDay, ev.RecurrenceRule, ev.ID,
	)
	if err != nil {
		logger.Error("EventRepository:Update:Error", "error", err, "id", ev.ID)
	}
	return err
}

func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		logger.Error("EventRepository:Delete:Error", "error", err, "id", id)
		return err
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	var ev entity.Event
	query := `
		SELECT id, calendar_id, user_id, title, description, location,
		       start_time, end_time, all_day, recurrence_rule, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &ev, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetByID:Error", "error", err, "id", id)
		return nil, err
	}
	return &ev, nil
}

func (r *eventRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Event, error) {
	var events []entity.Event
	query := `
		SELECT id, calendar_id, user_id, title, description, location,
		       start_time, end_time, all_day, recurrence_rule, created_at, updated_at
		FROM events
		WHERE user_id = $1
		ORDER BY start_time
	`
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		logger.Error("EventRepository:ListByUser:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) InsertIfAbsent(ctx context.Context, ev *entity.Event) (bool, error) {
	query := `
		INSERT INTO events (calendar_id, user_id, title, description, location,
			start_time, end_time, all_day, recurrence_rule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (calendar_id, title, start_time, end_time) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		ev.CalendarID, ev.UserID, ev.Title, ev.Description, ev.Location,
		ev.StartTime, ev.EndTime, ev.AllDay, ev.RecurrenceRule,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// Conflict fired; the event was already imported.
			return false, nil
		}
		logger.Error("EventRepository:InsertIfAbsent:Error", "error", err, "user_id", ev.UserID)
		return false, err
	}
	return true, nil
}
