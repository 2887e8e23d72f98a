package repository

import (
	"context"
	"database/sql"

	"calsync/core/database"
	"calsync/core/logger"
	"calsync/modules/sync/provider"

	"github.com/google/uuid"
)

// mappingRepository persists event-level external-identity links. Two
// uniqueness keys back it: (local_event_id, provider) for outbound routing
// and (provider, external_id) for inbound reconciliation.
type mappingRepository struct {
	db database.IDatabase
}

func NewMappingRepository(db database.IDatabase) provider.MappingStore {
	return &mappingRepository{db: db}
}

func (r *mappingRepository) GetExternalID(ctx context.Context, localID uuid.UUID, p provider.Provider) (string, error) {
	var externalID string
	query := `SELECT external_id FROM event_sync_mappings WHERE local_event_id = $1 AND provider = $2`
	err := r.db.GetContext(ctx, &externalID, query, localID, string(p))
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		logger.Error("MappingRepository:GetExternalID:Error", "error", err, "local_event_id", localID, "provider", p)
		return "", err
	}
	return externalID, nil
}

func (r *mappingRepository) Save(ctx context.Context, localID uuid.UUID, p provider.Provider, externalID string) error {
	query := `
		INSERT INTO event_sync_mappings (local_event_id, provider, external_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (local_event_id, provider)
		DO UPDATE SET external_id = EXCLUDED.external_id, updated_at = NOW()
	`
	if err := r.db.ExecContext(ctx, query, localID, string(p), externalID); err != nil {
		logger.Error("MappingRepository:Save:Error", "error", err, "local_event_id", localID, "provider", p)
		return err
	}
	return nil
}

func (r *mappingRepository) UpsertByExternal(ctx context.Context, p provider.Provider, externalID string, localID uuid.UUID) error {
	query := `
		INSERT INTO event_sync_mappings (local_event_id, provider, external_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (provider, external_id)
		DO UPDATE SET local_event_id = EXCLUDED.local_event_id, updated_at = NOW()
	`
	if err := r.db.ExecContext(ctx, query, localID, string(p), externalID); err != nil {
		logger.Error("MappingRepository:UpsertByExternal:Error", "error", err, "external_id", externalID, "provider", p)
		return err
	}
	return nil
}

func (r *mappingRepository) Remove(ctx context.Context, localID uuid.UUID, p provider.Provider) error {
	query := `DELETE FROM event_sync_mappings WHERE local_event_id = $1 AND provider = $2`
	if err := r.db.ExecContext(ctx, query, localID, string(p)); err != nil {
		logger.Error("MappingRepository:Remove:Error", "error", err, "local_event_id", localID, "provider", p)
		return err
	}
	return nil
}
