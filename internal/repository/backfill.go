package repository

import (
	"encoding/json"
	"strings"

	"incoin_webapp/internal/domain"

	"github.com/shopspring/decimal"
)

// storedUser accepts every historical layout of a user record. The outer ID
// shadows domain.User.ID because early records stored a numeric id, and the
// flat balance fields predate the balances map.
type storedUser struct {
	domain.User
	ID         json.RawMessage  `json:"id"`
	Balance    *decimal.Decimal `json:"balance"`
	BalanceUSD *decimal.Decimal `json:"balanceUSD"`
	BalanceRUB *decimal.Decimal `json:"balanceRUB"`
}

// decodeUser returns ok=false for records that cannot be used at all: invalid
// JSON, or a missing id or username. Such records are treated as absent.
func decodeUser(raw []byte) (*domain.User, bool) {
	var s storedUser
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	id, err := domain.DecodeID(s.ID)
	if err != nil || id == "" {
		return nil, false
	}
	s.User.Username = strings.TrimSpace(s.User.Username)
	if s.User.Username == "" {
		return nil, false
	}

	u := s.User
	u.ID = id
	if u.Balances == nil {
		u.Balances = domain.Balances{}
	}
	legacy := map[domain.Currency]*decimal.Decimal{
		domain.CurrencyINCOIN: s.Balance,
		domain.CurrencyUSD:    s.BalanceUSD,
		domain.CurrencyRUB:    s.BalanceRUB,
	}
	for c, v := range legacy {
		if _, ok := u.Balances[c]; !ok && v != nil {
			u.Balances[c] = *v
		}
	}
	return &u, true
}

// backfillStep fills defaults for the fields introduced in one schema version.
// Steps only fill what is missing, so running them on current records is a no-op.
type backfillStep struct {
	version int
	fill    func(u *domain.User)
}

var backfillSteps = []backfillStep{
	// v1: balances map with every currency, upgrades map with every catalog id.
	{version: 1, fill: func(u *domain.User) {
		if u.Balances == nil {
			u.Balances = domain.Balances{}
		}
		for _, c := range domain.Currencies {
			if _, ok := u.Balances[c]; !ok {
				u.Balances[c] = decimal.Zero
			}
		}
		if u.Upgrades == nil {
			u.Upgrades = map[string]int{}
		}
		for _, up := range domain.UpgradeCatalog {
			if lvl, ok := u.Upgrades[up.ID]; !ok || lvl < 0 {
				u.Upgrades[up.ID] = 0
			}
		}
		if u.GamesPlayed < 0 {
			u.GamesPlayed = 0
		}
	}},
	// v2: referral fields. The code itself is assigned by the repository,
	// which can check uniqueness across the roster.
	{version: 2, fill: func(u *domain.User) {
		if u.Referrals == nil {
			u.Referrals = []string{}
		}
		u.ReferralCode = strings.ToUpper(strings.TrimSpace(u.ReferralCode))
		u.ReferredBy = NormalizeReferralCode(u.ReferredBy)
	}},
	// v3: promo history; legacy type tags are mapped onto the current ones.
	{version: 3, fill: func(u *domain.User) {
		used := make([]string, 0, len(u.PromoCodesUsed))
		for _, c := range u.PromoCodesUsed {
			c = domain.NormalizePromoCode(c)
			if c != "" && !containsString(used, c) {
				used = append(used, c)
			}
		}
		u.PromoCodesUsed = used

		created := make([]*domain.PromoCode, 0, len(u.CreatedPromoCodes))
		for _, p := range u.CreatedPromoCodes {
			if p == nil {
				continue
			}
			p.Code = domain.NormalizePromoCode(p.Code)
			if p.Code == "" {
				continue
			}
			switch p.Type {
			case domain.PromoCampaign, domain.PromoReferral, domain.PromoUserCreated:
			case "youtube":
				p.Type = domain.PromoCampaign
			default:
				p.Type = domain.PromoUserCreated
			}
			if p.UsedBy == nil {
				p.UsedBy = domain.UserIDs{}
			}
			if p.CreatedBy == "" {
				p.CreatedBy = u.ID
			}
			created = append(created, p)
		}
		u.CreatedPromoCodes = created
	}},
	// v4: VIP fields; unknown tiers collapse to none.
	{version: 4, fill: func(u *domain.User) {
		if u.VIPStatus == "" {
			u.VIPStatus = domain.VIPNone
		}
		if _, ok := domain.FindVIPPlan(u.VIPStatus); !ok {
			u.VIPStatus = domain.VIPNone
		}
		if u.VIPStatus == domain.VIPNone {
			u.VIPExpiry = 0
		}
	}},
}

// backfill applies every step and stamps the current schema version. It
// reports whether the record came from an older schema.
func backfill(u *domain.User) bool {
	for _, step := range backfillSteps {
		step.fill(u)
	}
	upgraded := u.SchemaVersion < domain.SchemaVersion
	if upgraded {
		u.SchemaVersion = domain.SchemaVersion
	}
	return upgraded
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
