package repository

import (
	"context"
	"database/sql"

	"calsync/core/database"
	"calsync/core/logger"
	"calsync/modules/sync/provider"

	"github.com/google/uuid"
)

// CalendarMappingRepository links remote calendars to the local calendars
// their events are parked into, keyed by (user_id, provider, external_id).
type CalendarMappingRepository interface {
	GetLocalCalendarID(ctx context.Context, userID uuid.UUID, p provider.Provider, externalID string) (uuid.UUID, bool, error)
	Save(ctx context.Context, userID uuid.UUID, p provider.Provider, externalID string, localCalendarID uuid.UUID) error
}

type calendarMappingRepository struct {
	db database.IDatabase
}

func NewCalendarMappingRepository(db database.IDatabase) CalendarMappingRepository {
	return &calendarMappingRepository{db: db}
}

func (r *calendarMappingRepository) GetLocalCalendarID(ctx context.Context, userID uuid.UUID, p provider.Provider, externalID string) (uuid.UUID, bool, error) {
	var localID uuid.UUID
	query := `
		SELECT local_calendar_id FROM calendar_sync_mappings
		WHERE user_id = $1 AND provider = $2 AND external_id = $3
	`
	err := r.db.GetContext(ctx, &localID, query, userID, string(p), externalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, false, nil
		}
		logger.Error("CalendarMappingRepository:GetLocalCalendarID:Error", "error", err, "user_id", userID, "provider", p)
		return uuid.Nil, false, err
	}
	return localID, true, nil
}

func (r *calendarMappingRepository) Save(ctx context.Context, userID uuid.UUID, p provider.Provider, externalID string, localCalendarID uuid.UUID) error {
	query := `
		INSERT INTO calendar_sync_mappings (user_id, provider, external_id, local_calendar_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, provider, external_id)
		DO UPDATE SET local_calendar_id = EXCLUDED.local_calendar_id, updated_at = NOW()
	`
	if err := r.db.ExecContext(ctx, query, userID, string(p), externalID, localCalendarID); err != nil {
		logger.Error("CalendarMappingRepository:Save:Error", "error", err, "user_id", userID, "provider", p)
		return err
	}
	return nil
}
