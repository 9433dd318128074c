package repository

import (
	"testing"

	"incoin_webapp/internal/domain"

	"github.com/shopspring/decimal"
)

func TestDecodeUserLegacyLayout(t *testing.T) {
	raw := []byte(`{
		"id": 1700000000000,
		"username": "bob",
		"balance": 12.5,
		"balanceUSD": 3,
		"gamesPlayed": 2,
		"totalEarned": 0.2,
		"referralCode": "refabc",
		"promoCodesUsed": ["youtube2024", "YOUTUBE2024"],
		"createdPromoCodes": [{"code": "mine", "type": "user", "bonus": 10, "usedBy": [1700000000001, "1700000000001"]}],
		"vipStatus": "week",
		"vipExpiry": 123
	}`)

	u, ok := decodeUser(raw)
	if !ok {
		t.Fatalf("expected legacy record to decode")
	}
	if !backfill(u) {
		t.Fatalf("expected legacy record to be upgraded")
	}

	if u.ID != "1700000000000" {
		t.Fatalf("ID = %q", u.ID)
	}
	if !u.Balances.Get(domain.CurrencyINCOIN).Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("INCOIN = %s", u.Balances.Get(domain.CurrencyINCOIN))
	}
	if !u.Balances.Get(domain.CurrencyUSD).Equal(decimal.NewFromInt(3)) {
		t.Fatalf("USD = %s", u.Balances.Get(domain.CurrencyUSD))
	}
	if _, ok := u.Balances[domain.CurrencyRUB]; !ok {
		t.Fatalf("RUB balance should be backfilled")
	}
	if len(u.Upgrades) != len(domain.UpgradeCatalog) {
		t.Fatalf("upgrades = %v", u.Upgrades)
	}
	if u.ReferralCode != "REFABC" {
		t.Fatalf("ReferralCode = %q", u.ReferralCode)
	}
	if len(u.PromoCodesUsed) != 1 || u.PromoCodesUsed[0] != "YOUTUBE2024" {
		t.Fatalf("PromoCodesUsed = %v", u.PromoCodesUsed)
	}
	p := u.CreatedPromoCodes[0]
	if p.Code != "MINE" || p.Type != domain.PromoUserCreated || p.CreatedBy != u.ID {
		t.Fatalf("created promo = %+v", p)
	}
	if len(p.UsedBy) != 1 || p.UsedBy[0] != "1700000000001" {
		t.Fatalf("UsedBy = %v", p.UsedBy)
	}
	if u.Referrals == nil {
		t.Fatalf("referrals should be an empty list")
	}
	if u.SchemaVersion != domain.SchemaVersion {
		t.Fatalf("SchemaVersion = %d", u.SchemaVersion)
	}
}

func TestDecodeUserRejectsUnusableRecords(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"id":`,
		"missing id":     `{"username":"bob"}`,
		"blank username": `{"id":"u1","username":"  "}`,
		"wrong shape":    `[1,2,3]`,
	}
	for name, raw := range cases {
		if _, ok := decodeUser([]byte(raw)); ok {
			t.Fatalf("%s: expected record to be treated as absent", name)
		}
	}
}

func TestBackfillUnknownVIPTier(t *testing.T) {
	u := &domain.User{ID: "u1", Username: "a", VIPStatus: "platinum", VIPExpiry: 99}
	backfill(u)
	if u.VIPStatus != domain.VIPNone || u.VIPExpiry != 0 {
		t.Fatalf("vip = %s/%d", u.VIPStatus, u.VIPExpiry)
	}
}

func TestBackfillCurrentRecordIsNoop(t *testing.T) {
	u := domain.NewUser("alice", fixedNow())
	u.ID = "u1"
	if backfill(u) {
		t.Fatalf("current schema should not report an upgrade")
	}
}

func TestNormalizeReferralCode(t *testing.T) {
	cases := map[string]string{
		"refabc12345":     "REFABC12345",
		"ref_REFABC12345": "REFABC12345",
		" REFX ":          "REFX",
		"":                "",
	}
	for in, want := range cases {
		if got := NormalizeReferralCode(in); got != want {
			t.Fatalf("NormalizeReferralCode(%q) = %q; want %q", in, got, want)
		}
	}
}
