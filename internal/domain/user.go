package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// SchemaVersion is the layout written by this build. Records with a lower
// version are backfilled on load.
const SchemaVersion = 4

// User is one registered identity together with its whole economic state.
type User struct {
	SchemaVersion int    `json:"schemaVersion"`
	ID            string `json:"id"`
	Username      string `json:"username"`

	Balances    Balances        `json:"balances"`
	GamesPlayed int64           `json:"gamesPlayed"`
	TotalEarned decimal.Decimal `json:"totalEarned"`
	Upgrades    map[string]int  `json:"upgrades"`

	ReferralCode     string          `json:"referralCode"`
	ReferredBy       string          `json:"referredBy,omitempty"`
	Referrals        []string        `json:"referrals"`
	ReferralEarnings decimal.Decimal `json:"referralEarnings"`

	PromoCodesUsed    []string     `json:"promoCodesUsed"`
	CreatedPromoCodes []*PromoCode `json:"createdPromoCodes"`

	VIPStatus VIPTier `json:"vipStatus"`
	VIPExpiry int64   `json:"vipExpiry"` // unix ms, meaningful only while VIPStatus != none

	TelegramID *int64 `json:"telegramId,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	PhotoURL   string `json:"photoUrl,omitempty"`

	CreatedAt int64 `json:"createdAt"`
}

// NewUser returns a zero-state record. ID and ReferralCode are assigned by
// the repository on create.
func NewUser(username string, now time.Time) *User {
	u := &User{
		SchemaVersion:     SchemaVersion,
		Username:          username,
		Balances:          Balances{},
		Upgrades:          map[string]int{},
		Referrals:         []string{},
		PromoCodesUsed:    []string{},
		CreatedPromoCodes: []*PromoCode{},
		VIPStatus:         VIPNone,
		CreatedAt:         now.UnixMilli(),
	}
	for _, c := range Currencies {
		u.Balances[c] = decimal.Zero
	}
	for _, up := range UpgradeCatalog {
		u.Upgrades[up.ID] = 0
	}
	return u
}

func (u *User) HasUsedPromo(code string) bool {
	return slices.Contains(u.PromoCodesUsed, code)
}

func (u *User) HasReferred(username string) bool {
	return slices.Contains(u.Referrals, username)
}

// EffectiveVIP reads the tier with lazy expiry: an expired timestamp reads as
// none whatever the stored tag says.
func (u *User) EffectiveVIP(now time.Time) VIPTier {
	if u.VIPStatus == "" || u.VIPStatus == VIPNone {
		return VIPNone
	}
	if u.VIPExpiry <= now.UnixMilli() {
		return VIPNone
	}
	return u.VIPStatus
}

// ExpireVIP downgrades an expired tier in place and reports whether anything
// changed.
func (u *User) ExpireVIP(now time.Time) bool {
	if u.VIPStatus == VIPNone {
		return false
	}
	if u.EffectiveVIP(now) != VIPNone {
		return false
	}
	u.VIPStatus = VIPNone
	u.VIPExpiry = 0
	return true
}

// VIPMultiplier returns the earnings multiplier of the effective tier, 1 when
// there is none.
func (u *User) VIPMultiplier(now time.Time) decimal.Decimal {
	plan, ok := FindVIPPlan(u.EffectiveVIP(now))
	if !ok {
		return decimal.NewFromInt(1)
	}
	return plan.Multiplier
}

// Profile is the public projection of a user returned to clients.
type Profile struct {
	*User
	EffectiveVIP  VIPTier         `json:"effectiveVip"`
	VIPMultiplier decimal.Decimal `json:"vipMultiplier"`
}

func (u *User) Profile(now time.Time) Profile {
	return Profile{
		User:          u,
		EffectiveVIP:  u.EffectiveVIP(now),
		VIPMultiplier: u.VIPMultiplier(now),
	}
}
