package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/store"
)

// PromoEntry is one redeemable code and the record that owns it. Owner is
// nil for campaign codes.
type PromoEntry struct {
	Code  *domain.PromoCode
	Owner *domain.User
}

// Campaigns returns the campaign catalog with its persisted redemption state.
// Built-in codes missing from storage are added with an empty usedBy.
func (tx *Tx) Campaigns() ([]*domain.PromoCode, error) {
	if tx.campaignsLoaded {
		return tx.campaigns, nil
	}

	var stored []*domain.PromoCode
	raw, err := tx.repo.store.Get(tx.ctx, store.KeyPromoCampaigns)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load campaigns: %w", err)
	default:
		if err := json.Unmarshal(raw, &stored); err != nil {
			tx.repo.log.Warn("campaign catalog is malformed, reseeding", "error", err)
			stored = nil
		}
	}

	byCode := make(map[string]*domain.PromoCode, len(stored))
	campaigns := make([]*domain.PromoCode, 0, len(stored)+3)
	for _, p := range stored {
		if p == nil {
			continue
		}
		p.Code = domain.NormalizePromoCode(p.Code)
		if p.Code == "" || byCode[p.Code] != nil {
			continue
		}
		if p.UsedBy == nil {
			p.UsedBy = domain.UserIDs{}
		}
		p.Type = domain.PromoCampaign
		byCode[p.Code] = p
		campaigns = append(campaigns, p)
	}
	for _, p := range domain.CampaignPromoCodes() {
		if byCode[p.Code] == nil {
			campaigns = append(campaigns, p)
		}
	}

	tx.campaigns = campaigns
	tx.campaignsLoaded = true
	return campaigns, nil
}

func (tx *Tx) buildPromoIndex() error {
	campaigns, err := tx.Campaigns()
	if err != nil {
		return err
	}
	idx := make(map[string][]PromoEntry)
	for _, p := range campaigns {
		idx[p.Code] = append(idx[p.Code], PromoEntry{Code: p})
	}
	for _, u := range tx.users {
		for _, p := range u.CreatedPromoCodes {
			idx[p.Code] = append(idx[p.Code], PromoEntry{Code: p, Owner: u})
		}
	}
	tx.promoIndex = idx
	return nil
}

// LookupPromo returns every record registered under code, campaign entries
// first, then user-created ones in roster order. The returned pointers are
// the working copies that SavePromo persists.
func (tx *Tx) LookupPromo(code string) ([]PromoEntry, error) {
	if tx.promoIndex == nil {
		if err := tx.buildPromoIndex(); err != nil {
			return nil, err
		}
	}
	return tx.promoIndex[domain.NormalizePromoCode(code)], nil
}

// PromoExists reports whether any record already uses code.
func (tx *Tx) PromoExists(code string) (bool, error) {
	entries, err := tx.LookupPromo(code)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// SavePromo marks the owner of e for persistence.
func (tx *Tx) SavePromo(e PromoEntry) {
	if e.Owner == nil {
		tx.campaignsDirty = true
		return
	}
	tx.Save(e.Owner)
}

// AddCreatedPromo registers a user-created code on its author.
func (tx *Tx) AddCreatedPromo(owner *domain.User, p *domain.PromoCode) {
	owner.CreatedPromoCodes = append(owner.CreatedPromoCodes, p)
	if tx.promoIndex != nil {
		tx.promoIndex[p.Code] = append(tx.promoIndex[p.Code], PromoEntry{Code: p, Owner: owner})
	}
	tx.Save(owner)
}
