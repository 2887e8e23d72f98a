package service

import (
	"context"

	"calsync/core/logger"
	eventEntity "calsync/modules/event/entity"
	integrationService "calsync/modules/integration/service"
	"calsync/modules/sync/dto"
	"calsync/modules/sync/provider"

	"github.com/google/uuid"
)

// OutboundService fans a local event change out to every connected provider.
// One provider failing must not block the others; only failure to load the
// credential list aborts the run.
type OutboundService interface {
	SyncOut(ctx context.Context, userID uuid.UUID, ev *eventEntity.Event, action provider.Action) (*dto.OutboundReport, error)
}

type outboundService struct {
	tokens   integrationService.TokenService
	registry *provider.Registry
}

func NewOutboundService(tokens integrationService.TokenService, registry *provider.Registry) OutboundService {
	return &outboundService{tokens: tokens, registry: registry}
}

func (s *outboundService) SyncOut(ctx context.Context, userID uuid.UUID, ev *eventEntity.Event, action provider.Action) (*dto.OutboundReport, error) {
	creds, err := s.tokens.ListConnected(ctx, userID)
	if err != nil {
		logger.Error("OutboundService:SyncOut:ListCredentials", "error", err, "user_id", userID)
		return nil, err
	}

	report := &dto.OutboundReport{}
	for _, cred := range creds {
		p, ok := provider.Parse(cred.Provider)
		if !ok {
			logger.Warn("OutboundService:SyncOut:UnknownProvider", "user_id", userID, "provider", cred.Provider)
			continue
		}

		tokens, err := s.tokens.Get(ctx, userID, p)
		if err != nil {
			report.Results = append(report.Results, dto.ProviderResult{Provider: string(p), Error: err.Error()})
			logger.Error("OutboundService:SyncOut:GetTokens", "error", err, "user_id", userID, "provider", p)
			continue
		}
		if tokens == nil {
			// Disconnected or unrefreshable; skip without failing the run.
			report.Results = append(report.Results, dto.ProviderResult{Provider: string(p), Skipped: true})
			logger.Info("OutboundService:SyncOut:Skipped", "user_id", userID, "provider", p)
			continue
		}

		adapter, ok := s.registry.Get(p)
		if !ok {
			logger.Warn("OutboundService:SyncOut:NoAdapter", "user_id", userID, "provider", p)
			continue
		}

		if err := adapter.Push(ctx, userID, tokens, ev, action); err != nil {
			report.Results = append(report.Results, dto.ProviderResult{Provider: string(p), Error: err.Error()})
			logger.Error("OutboundService:SyncOut:Push", "error", err, "user_id", userID, "provider", p, "event_id", ev.ID, "action", action)
			continue
		}

		report.Results = append(report.Results, dto.ProviderResult{Provider: string(p), Synced: 1})
	}

	return report, nil
}
