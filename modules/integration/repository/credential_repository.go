package repository

import (
	"context"
	"database/sql"

	"calsync/core/database"
	"calsync/core/logger"
	"calsync/modules/integration/entity"

	"github.com/google/uuid"
)

type CredentialRepository interface {
	// Upsert creates or overwrites the credential keyed by (user_id, provider).
	Upsert(ctx context.Context, cred *entity.Credential) error
	// GetByUserAndProvider returns nil, nil when the user never connected the provider.
	GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.Credential, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Credential, error)
	// Delete is idempotent; deleting an absent credential is not an error.
	Delete(ctx context.Context, userID uuid.UUID, provider string) error
}

type credentialRepository struct {
	db database.IDatabase
}

func NewCredentialRepository(db database.IDatabase) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Upsert(ctx context.Context, cred *entity.Credential) error {
	query := `
		INSERT INTO calendar_credentials (
			user_id, provider, access_token, refresh_token, app_password,
			provider_email, expires_at, created_at, updated_at
		)
		VALUES (
			:user_id, :provider, :access_token, :refresh_token, :app_password,
			:provider_email, :expires_at, NOW(), NOW()
		)
		ON CONFLICT (user_id, provider)
		DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			app_password = EXCLUDED.app_password,
			provider_email = EXCLUDED.provider_email,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`
	_, err := r.db.NamedExecContext(ctx, query, cred)
	if err != nil {
		logger.Error("CredentialRepository:Upsert:Error", "error", err, "user_id", cred.UserID, "provider", cred.Provider)
		return err
	}
	return nil
}

func (r *credentialRepository) GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*entity.Credential, error) {
	var cred entity.Credential
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, app_password,
		       provider_email, expires_at, created_at, updated_at
		FROM calendar_credentials
		WHERE user_id = $1 AND provider = $2
	`
	err := r.db.GetContext(ctx, &cred, query, userID, provider)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("CredentialRepository:GetByUserAndProvider:Error", "error", err, "user_id", userID, "provider", provider)
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Credential, error) {
	var creds []entity.Credential
	query := `
		SELECT id, user_id, provider, access_token, refresh_token, app_password,
		       provider_email, expires_at, created_at, updated_at
		FROM calendar_credentials
		WHERE user_id = $1
		ORDER BY created_at
	`
	if err := r.db.SelectContext(ctx, &creds, query, userID); err != nil {
		logger.Error("CredentialRepository:ListByUser:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return creds, nil
}

func (r *credentialRepository) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	query := `DELETE FROM calendar_credentials WHERE user_id = $1 AND provider = $2`
	if err := r.db.ExecContext(ctx, query, userID, provider); err != nil {
		logger.Error("CredentialRepository:Delete:Error", "error", err, "user_id", userID, "provider", provider)
		return err
	}
	return nil
}
