package domain

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type PromoType string

const (
	PromoCampaign    PromoType = "campaign"
	PromoReferral    PromoType = "referral"
	PromoUserCreated PromoType = "user-created"
)

// PromoCode is a redeemable bonus. UsedBy only grows and holds each user id once.
type PromoCode struct {
	Code      string          `json:"code"`
	Type      PromoType       `json:"type"`
	Bonus     decimal.Decimal `json:"bonus"`
	MaxUses   int             `json:"maxUses,omitempty"`
	UsedBy    UserIDs         `json:"usedBy"`
	CreatedBy string          `json:"createdBy,omitempty"`
	CreatedAt int64           `json:"createdAt,omitempty"`
}

func (p *PromoCode) RedeemedBy(userID string) bool {
	return slices.Contains(p.UsedBy, userID)
}

// Exhausted reports whether a capped code has no uses left.
func (p *PromoCode) Exhausted() bool {
	return p.MaxUses > 0 && len(p.UsedBy) >= p.MaxUses
}

// MarkUsed appends userID unless it is already present.
func (p *PromoCode) MarkUsed(userID string) {
	if p.RedeemedBy(userID) {
		return
	}
	p.UsedBy = append(p.UsedBy, userID)
}

// NormalizePromoCode trims and upper-cases a code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// UserIDs decodes from an array of strings or numbers; older records stored
// numeric ids.
type UserIDs []string

func (ids *UserIDs) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(UserIDs, 0, len(raw))
	for _, r := range raw {
		id, err := DecodeID(r)
		if err != nil {
			return err
		}
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	*ids = out
	return nil
}

// DecodeID reads an id stored either as a JSON string or a JSON number.
func DecodeID(r json.RawMessage) (string, error) {
	if len(r) == 0 || string(r) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(r, &n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}
