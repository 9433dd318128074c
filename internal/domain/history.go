package domain

import "github.com/shopspring/decimal"

// GameHistoryEntry - запись о завершённой мини-игре
type GameHistoryEntry struct {
	ID        string          `json:"id,omitempty"`
	Username  string          `json:"username,omitempty"`
	Game      string          `json:"game"`
	Earned    decimal.Decimal `json:"earned"`
	Timestamp int64           `json:"timestamp"`
}

type TradeDirection string

const (
	TradeBuy  TradeDirection = "buy"
	TradeSell TradeDirection = "sell"
)

func ParseTradeDirection(s string) (TradeDirection, error) {
	switch TradeDirection(s) {
	case TradeBuy, TradeSell:
		return TradeDirection(s), nil
	}
	return "", ErrInvalidTradeAction
}

type TradeRecord struct {
	ID        string          `json:"id,omitempty"`
	Username  string          `json:"username,omitempty"`
	Type      TradeDirection  `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	Timestamp int64           `json:"timestamp"`
}

type SlotWagerRecord struct {
	ID         string          `json:"id,omitempty"`
	Username   string          `json:"username,omitempty"`
	Currency   Currency        `json:"currency"`
	Bet        decimal.Decimal `json:"bet"`
	Symbols    []string        `json:"symbols"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Delta      decimal.Decimal `json:"delta"`
	Win        bool            `json:"win"`
	Timestamp  int64           `json:"timestamp"`
}

type LeaderboardEntry struct {
	Rank        int             `json:"rank"`
	Username    string          `json:"username"`
	Balance     decimal.Decimal `json:"balance"`
	GamesPlayed int64           `json:"gamesPlayed"`
	VIP         bool            `json:"vip,omitempty"`
}
