package service

import (
	"context"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/repository"

	"github.com/shopspring/decimal"
)

type TradeResult struct {
	User   domain.Profile     `json:"user"`
	Record domain.TradeRecord `json:"trade"`
}

// Trade settles at the current feed price.
func (s *EconomyService) Trade(ctx context.Context, userID, direction, amount string) (*TradeResult, error) {
	return s.TradeAt(ctx, userID, direction, amount, s.prices.Current())
}

// TradeAt settles amount tokens at price. Buys debit INCOIN and need cover;
// sells always credit. No token position is kept.
func (s *EconomyService) TradeAt(ctx context.Context, userID, direction, amount string, price decimal.Decimal) (*TradeResult, error) {
	res, err := s.tradeAt(ctx, userID, direction, amount, price)
	track("trade", err)
	return res, err
}

func (s *EconomyService) tradeAt(ctx context.Context, userID, direction, amount string, price decimal.Decimal) (*TradeResult, error) {
	dir, err := domain.ParseTradeDirection(direction)
	if err != nil {
		return nil, err
	}
	tokens, err := domain.ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	if !tokens.IsPositive() || !price.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	total := tokens.Mul(price)

	var res TradeResult
	err = s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := s.user(tx, userID)
		if err != nil {
			return err
		}
		switch dir {
		case domain.TradeBuy:
			if !u.Balances.Covers(domain.CurrencyINCOIN, total) {
				return domain.ErrInsufficientFunds
			}
			u.Balances.Add(domain.CurrencyINCOIN, total.Neg())
		case domain.TradeSell:
			u.Balances.Add(domain.CurrencyINCOIN, total)
		}
		tx.Save(u)

		res.Record = domain.TradeRecord{
			ID:        tx.NewID(),
			Username:  u.Username,
			Type:      dir,
			Amount:    tokens,
			Price:     price,
			Total:     total,
			Timestamp: tx.Now().UnixMilli(),
		}
		tx.AppendTrade(res.Record)
		res.User = u.Profile(tx.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
