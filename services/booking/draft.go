package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"glowdesk/models"
	"glowdesk/utils"
)

// DraftStore persists the one live draft per customer.
type DraftStore interface {
	Get(ctx context.Context, customerID string) (*models.BookingDraft, error)
	Set(ctx context.Context, draft *models.BookingDraft) error
	Delete(ctx context.Context, customerID string) error
}

// RedisDraftStore keeps drafts as JSON in Redis with a rolling TTL,
// mirroring how booking sessions are cached.
type RedisDraftStore struct{}

func (s *RedisDraftStore) Get(ctx context.Context, customerID string) (*models.BookingDraft, error) {
	client := utils.GetDraftCacheClient()
	data, err := client.Get(ctx, utils.DraftCachePrefix+customerID).Result()
	if err != nil {
		return nil, fmt.Errorf("draft not found for customer %s: %w", customerID, err)
	}
	var draft models.BookingDraft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse draft for customer %s: %w", customerID, err)
	}
	return &draft, nil
}

func (s *RedisDraftStore) Set(ctx context.Context, draft *models.BookingDraft) error {
	client := utils.GetDraftCacheClient()
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}
	key := utils.DraftCachePrefix + draft.CustomerID
	if err := client.Set(ctx, key, data, utils.DraftCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, customerID string) error {
	client := utils.GetDraftCacheClient()
	return client.Del(ctx, utils.DraftCachePrefix+customerID).Err()
}

// DraftManager owns the mutable in-progress booking selection per customer.
type DraftManager struct {
	Store DraftStore
}

// UpsertDraft merges a patch into the customer's draft, creating it on
// first touch. Repeated identical patches produce no observable change.
func (m *DraftManager) UpsertDraft(ctx context.Context, customerID string, patch models.DraftPatch) (*models.BookingDraft, error) {
	draft, err := m.Store.Get(ctx, customerID)
	if err != nil {
		draft = &models.BookingDraft{CustomerID: customerID}
	}

	if patch.Service != "" {
		draft.Service = patch.Service
	}
	if patch.PackageID != "" {
		draft.PackageID = patch.PackageID
	}
	if patch.DateTimeISO != "" {
		draft.DateTimeISO = patch.DateTimeISO
	}
	if patch.RecipientName != "" {
		draft.RecipientName = patch.RecipientName
	}
	if patch.RecipientPhone != "" {
		draft.RecipientPhone = patch.RecipientPhone
	}

	if err := m.Store.Set(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// CommitDraft validates the draft and hands it to the payment flow. The
// draft itself stays in place; the flow deletes it only after a payment
// push is successfully initiated.
func (m *DraftManager) CommitDraft(ctx context.Context, customerID string) (*models.BookingDraft, error) {
	draft, err := m.Store.Get(ctx, customerID)
	if err != nil {
		return nil, NewValidationError("no booking draft in progress")
	}

	if draft.RecipientName == "" {
		return nil, NewValidationError("recipient name is required")
	}
	if len(draft.RecipientPhone) < 8 {
		return nil, NewValidationError("recipient phone must have at least 8 digits")
	}
	if draft.Service == "" && draft.PackageID == "" {
		return nil, NewValidationError("a service or package must be selected")
	}
	if draft.DateTimeISO == "" {
		return nil, NewValidationError("a date and time must be selected")
	}
	if _, err := time.Parse(time.RFC3339, draft.DateTimeISO); err != nil {
		return nil, NewValidationError("selected date/time is not a valid timestamp")
	}

	return draft, nil
}
