package service

import (
	"context"

	"calsync/core/logger"
	eventEntity "calsync/modules/event/entity"
	eventRepository "calsync/modules/event/repository"
	integrationService "calsync/modules/integration/service"
	"calsync/modules/sync/dto"
	"calsync/modules/sync/provider"

	"github.com/google/uuid"
)

// InboundService pulls remote events from every connected provider and
// imports the ones not seen before. Existing local rows win: imports use
// insert-if-absent so a re-pulled event never clobbers local edits.
type InboundService interface {
	SyncIn(ctx context.Context, userID uuid.UUID) (*dto.InboundReport, error)
}

type inboundService struct {
	tokens   integrationService.TokenService
	registry *provider.Registry
	events   eventRepository.EventRepository
	mappings provider.MappingStore
}

func NewInboundService(
	tokens integrationService.TokenService,
	registry *provider.Registry,
	events eventRepository.EventRepository,
	mappings provider.MappingStore,
) InboundService {
	return &inboundService{tokens: tokens, registry: registry, events: events, mappings: mappings}
}

func (s *inboundService) SyncIn(ctx context.Context, userID uuid.UUID) (*dto.InboundReport, error) {
	creds, err := s.tokens.ListConnected(ctx, userID)
	if err != nil {
		logger.Error("InboundService:SyncIn:ListCredentials", "error", err, "user_id", userID)
		return nil, err
	}

	report := &dto.InboundReport{}
	for _, cred := range creds {
		p, ok := provider.Parse(cred.Provider)
		if !ok {
			logger.Warn("InboundService:SyncIn:UnknownProvider", "user_id", userID, "provider", cred.Provider)
			continue
		}

		tokens, err := s.tokens.Get(ctx, userID, p)
		if err != nil {
			report.Results = append(report.Results, dto.ProviderResult{Provider: string(p), Error: err.Error()})
			logger.Error("InboundService:SyncIn:GetTokens", "error", err, "user_id", userID, "provider", p)
			continue
		}
		if tokens == nil {
			report.Results = append(report.Results, dto.ProviderResult{Provider: string(p), Skipped: true})
			logger.Info("InboundService:SyncIn:Skipped", "user_id", userID, "provider", p)
			continue
		}

		adapter, ok := s.registry.Get(p)
		if !ok {
			logger.Warn("InboundService:SyncIn:NoAdapter", "user_id", userID, "provider", p)
			continue
		}

		remote, err := adapter.Pull(ctx, userID, tokens)
		if err != nil {
			report.Results = append(report.Results, dto.ProviderResult{Provider: string(p), Error: err.Error()})
			logger.Error("InboundService:SyncIn:Pull", "error", err, "user_id", userID, "provider", p)
			continue
		}

		imported := s.importEvents(ctx, userID, p, remote, report)
		report.Results = append(report.Results, dto.ProviderResult{Provider: string(p), Synced: imported})
	}

	return report, nil
}

// importEvents writes pulled events one at a time; a bad event is logged and
// skipped rather than failing its provider's whole batch.
func (s *inboundService) importEvents(ctx context.Context, userID uuid.UUID, p provider.Provider, remote []provider.RemoteEvent, report *dto.InboundReport) int {
	imported := 0
	for i := range remote {
		re := &remote[i]

		ev := &eventEntity.Event{
			CalendarID:     re.CalendarID,
			UserID:         userID,
			Title:          re.Title,
			Description:    re.Description,
			Location:       re.Location,
			StartTime:      re.StartTime,
			EndTime:        re.EndTime,
			AllDay:         re.AllDay,
			RecurrenceRule: re.Recurrence,
		}

		inserted, err := s.events.InsertIfAbsent(ctx, ev)
		if err != nil {
			logger.Error("InboundService:ImportEvents:Insert", "error", err, "user_id", userID, "provider", p, "external_id", re.ExternalID)
			continue
		}
		if !inserted {
			continue
		}

		if err := s.mappings.UpsertByExternal(ctx, p, re.ExternalID, ev.ID); err != nil {
			logger.Error("InboundService:ImportEvents:SaveMapping", "error", err, "user_id", userID, "provider", p, "external_id", re.ExternalID)
			continue
		}

		report.Inserted = append(report.Inserted, ev.ID)
		imported++
	}
	return imported
}
