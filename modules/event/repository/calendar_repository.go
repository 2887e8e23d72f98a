package repository

import (
	"context"
	"database/sql"

	"calsync/core/database"
	"calsync/core/logger"
	"calsync/modules/event/entity"

	"github.com/google/uuid"
)

type CalendarRepository interface {
	Create(ctx context.Context, cal *entity.Calendar) (*entity.Calendar, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Calendar, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Calendar, error)
}

type calendarRepository struct {
	db database.IDatabase
}

func NewCalendarRepository(db database.IDatabase) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) Create(ctx context.Context, cal *entity.Calendar) (*entity.Calendar, error) {
	query := `
		INSERT INTO calendars (user_id, name, color)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, cal.UserID, cal.Name, cal.Color).
		Scan(&cal.ID, &cal.CreatedAt, &cal.UpdatedAt)
	if err != nil {
		logger.Error("CalendarRepository:Create:Error", "error", err, "user_id", cal.UserID)
		return nil, err
	}
	return cal, nil
}

func (r *calendarRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Calendar, error) {
	var cal entity.Calendar
	query := `SELECT id, user_id, name, color, created_at, updated_at FROM calendars WHERE id = $1`
	err := r.db.GetContext(ctx, &cal, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("CalendarRepository:GetByID:Error", "error", err, "id", id)
		return nil, err
	}
	return &cal, nil
}

func (r *calendarRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Calendar, error) {
	var cals []entity.Calendar
	query := `SELECT id, user_id, name, color, created_at, updated_at FROM calendars WHERE user_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &cals, query, userID); err != nil {
		logger.Error("CalendarRepository:ListByUser:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return cals, nil
}
