package dto

import "github.com/google/uuid"

// ProviderResult reports one provider's share of a sync run. A run keeps
// going past individual provider failures; failed providers show up here
// with their error text instead of aborting the batch.
type ProviderResult struct {
	Provider string `json:"provider"`
	Synced   int    `json:"synced"`
	Skipped  bool   `json:"skipped,omitempty"`
	Error    string `json:"error,omitempty"`
}

type OutboundReport struct {
	Results []ProviderResult `json:"results"`
}

type InboundReport struct {
	Results  []ProviderResult `json:"results"`
	Inserted []uuid.UUID      `json:"inserted"`
}

type EnqueueResponse struct {
	TaskID string `json:"task_id"`
	Queued bool   `json:"queued"`
}
