package domain

import (
	"github.com/shopspring/decimal"
)

// Economy policy constants.
var (
	GameAward       = decimal.RequireFromString("0.1")
	TopUpMin        = decimal.NewFromInt(10)
	TopUpMax        = decimal.NewFromInt(50_000_000)
	ReferralRate    = decimal.RequireFromString("0.15")
	UpgradeGrowth   = decimal.RequireFromString("1.5")
	PriceFloor      = decimal.NewFromInt(50)
	PriceCeiling    = decimal.NewFromInt(200)
	StartPrice      = decimal.NewFromInt(100)
	LeaderboardSize = 10
)

const (
	ReferralCodePrefix = "REF"
	ReferralCodeLength = 8
	msPerDay           = int64(86_400_000)
)

// Upgrade is a leveled purchase priced geometrically by level.
type Upgrade struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Effect      string          `json:"effect"`
	BasePrice   decimal.Decimal `json:"basePrice"`
}

// PriceAt returns BasePrice × 1.5^level.
func (u Upgrade) PriceAt(level int) decimal.Decimal {
	price := u.BasePrice
	for i := 0; i < level; i++ {
		price = price.Mul(UpgradeGrowth)
	}
	return price
}

var UpgradeCatalog = []Upgrade{
	{ID: "autoClicker", Name: "Auto clicker", Description: "Earns 1 INCOIN every 10 seconds", Effect: "+1 INCOIN/10s", BasePrice: decimal.NewFromInt(100)},
	{ID: "doubleReward", Name: "Double reward", Description: "x2 coins for every game", Effect: "x2 reward", BasePrice: decimal.NewFromInt(500)},
	{ID: "luckyCharm", Name: "Lucky charm", Description: "20% chance of a +1 INCOIN bonus", Effect: "+20% bonus", BasePrice: decimal.NewFromInt(250)},
	{ID: "speedBoost", Name: "Speed boost", Description: "Games run 30% shorter", Effect: "-30% time", BasePrice: decimal.NewFromInt(350)},
}

func FindUpgrade(id string) (Upgrade, bool) {
	for _, u := range UpgradeCatalog {
		if u.ID == id {
			return u, true
		}
	}
	return Upgrade{}, false
}

// VIPTier - статус подписки
type VIPTier string

const (
	VIPNone        VIPTier = "none"
	VIPWeek        VIPTier = "week"
	VIPMonth       VIPTier = "month"
	VIPTwoMonths   VIPTier = "twoMonths"
	VIPThreeMonths VIPTier = "threeMonths"
	VIPYear        VIPTier = "year"
	VIPTwoYears    VIPTier = "twoYears"
)

type VIPPlan struct {
	ID           VIPTier                      `json:"id"`
	Name         string                       `json:"name"`
	DurationDays int                          `json:"durationDays"`
	Prices       map[Currency]decimal.Decimal `json:"prices"`
	Multiplier   decimal.Decimal              `json:"multiplier"`
	Benefits     []string                     `json:"benefits"`
	Popular      bool                         `json:"popular,omitempty"`
}

// Duration in milliseconds.
func (p VIPPlan) DurationMs() int64 {
	return int64(p.DurationDays) * msPerDay
}

func (p VIPPlan) Price(c Currency) (decimal.Decimal, bool) {
	v, ok := p.Prices[c]
	return v, ok
}

func vipPrices(incoin, usd, rub int64) map[Currency]decimal.Decimal {
	return map[Currency]decimal.Decimal{
		CurrencyINCOIN: decimal.NewFromInt(incoin),
		CurrencyUSD:    decimal.NewFromInt(usd),
		CurrencyRUB:    decimal.NewFromInt(rub),
	}
}

var VIPPlans = []VIPPlan{
	{
		ID: VIPWeek, Name: "1 week VIP", DurationDays: 7,
		Prices: vipPrices(500, 5, 500), Multiplier: decimal.NewFromInt(2),
		Benefits: []string{"x2 game earnings", "VIP badge", "Daily bonus +50 INCOIN", "Leaderboard priority"},
	},
	{
		ID: VIPMonth, Name: "1 month VIP", DurationDays: 30,
		Prices: vipPrices(1800, 18, 1800), Multiplier: decimal.RequireFromString("2.5"), Popular: true,
		Benefits: []string{"x2.5 game earnings", "VIP badge", "Daily bonus +150 INCOIN", "Leaderboard priority", "Slots bonus +10%"},
	},
	{
		ID: VIPTwoMonths, Name: "2 months VIP", DurationDays: 60,
		Prices: vipPrices(3200, 32, 3200), Multiplier: decimal.NewFromInt(3),
		Benefits: []string{"x3 game earnings", "VIP badge", "Daily bonus +300 INCOIN", "Leaderboard priority", "Slots bonus +15%", "Profile frame"},
	},
	{
		ID: VIPThreeMonths, Name: "3 months VIP", DurationDays: 90,
		Prices: vipPrices(4500, 45, 4500), Multiplier: decimal.RequireFromString("3.5"),
		Benefits: []string{"x3.5 game earnings", "VIP badge", "Daily bonus +500 INCOIN", "Leaderboard priority", "Slots bonus +20%", "Profile frame", "Custom profile colors"},
	},
	{
		ID: VIPYear, Name: "1 year VIP", DurationDays: 365,
		Prices: vipPrices(15000, 150, 15000), Multiplier: decimal.NewFromInt(5),
		Benefits: []string{"x5 game earnings", "Legendary VIP badge", "Daily bonus +1000 INCOIN", "Top-1 priority", "Slots bonus +30%", "Legendary frame", "All customizations", "Exclusive title"},
	},
	{
		ID: VIPTwoYears, Name: "2 years VIP", DurationDays: 730,
		Prices: vipPrices(25000, 250, 25000), Multiplier: decimal.NewFromInt(10),
		Benefits: []string{"x10 game earnings", "Legendary VIP badge", "Daily bonus +2500 INCOIN", "Top-1 priority", "Slots bonus +50%", "Legendary frame", "All customizations", "Exclusive title"},
	},
}

func FindVIPPlan(id VIPTier) (VIPPlan, bool) {
	for _, p := range VIPPlans {
		if p.ID == id {
			return p, true
		}
	}
	return VIPPlan{}, false
}

// CampaignPromoCodes returns fresh copies of the built-in campaign codes.
func CampaignPromoCodes() []*PromoCode {
	return []*PromoCode{
		{Code: "YOUTUBE2024", Type: PromoCampaign, Bonus: decimal.NewFromInt(1000), UsedBy: UserIDs{}},
		{Code: "CRYPTO100", Type: PromoCampaign, Bonus: decimal.NewFromInt(500), UsedBy: UserIDs{}},
		{Code: "INCOIN777", Type: PromoCampaign, Bonus: decimal.NewFromInt(777), UsedBy: UserIDs{}},
	}
}

// GameKind identifies one of the minigames that report completion.
type GameKind string

const (
	GameClicker  GameKind = "clicker"
	GameGuess    GameKind = "guess"
	GameMemory   GameKind = "memory"
	GameSpeed    GameKind = "speed"
	GameColor    GameKind = "color"
	GameCatch    GameKind = "catch"
	GamePuzzle   GameKind = "puzzle"
	GameReaction GameKind = "reaction"
	GameMath     GameKind = "math"
	GameSlots    GameKind = "slots"
)

type Game struct {
	ID   GameKind `json:"id"`
	Name string   `json:"name"`
	// Wager games also settle bets through their own endpoint.
	Wager bool `json:"wager,omitempty"`
}

var GameCatalog = []Game{
	{ID: GameClicker, Name: "Coin clicker"},
	{ID: GameGuess, Name: "Guess the number"},
	{ID: GameMemory, Name: "Memory cards"},
	{ID: GameSpeed, Name: "Speed clicks"},
	{ID: GameColor, Name: "Color reaction"},
	{ID: GameCatch, Name: "Catch the coins"},
	{ID: GamePuzzle, Name: "Sliding puzzle"},
	{ID: GameReaction, Name: "Reaction pro"},
	{ID: GameMath, Name: "Quick math"},
	{ID: GameSlots, Name: "Slots 777", Wager: true},
}

// FindGame resolves a game by id or by display name.
func FindGame(label string) (Game, bool) {
	for _, g := range GameCatalog {
		if string(g.ID) == label || g.Name == label {
			return g, true
		}
	}
	return Game{}, false
}
