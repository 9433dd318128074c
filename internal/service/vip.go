package service

import (
	"context"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/repository"

	"github.com/shopspring/decimal"
)

// ComputeVIPMultiplier is 1 without an unexpired tier, else the plan's multiplier.
func ComputeVIPMultiplier(u *domain.User, now time.Time) decimal.Decimal {
	return u.VIPMultiplier(now)
}

type VIPReceipt struct {
	User     domain.Profile  `json:"user"`
	Plan     domain.VIPPlan  `json:"plan"`
	Currency domain.Currency `json:"currency"`
	Price    decimal.Decimal `json:"price"`
	Expiry   int64           `json:"vipExpiry"`
}

// BuyVIP debits the plan price in currency and sets the tier with expiry
// counted from now. Buying again replaces the expiry; remaining time is
// not carried over.
func (s *EconomyService) BuyVIP(ctx context.Context, userID, planID, currency string) (*VIPReceipt, error) {
	res, err := s.buyVIP(ctx, userID, planID, currency)
	track("buy_vip", err)
	return res, err
}

func (s *EconomyService) buyVIP(ctx context.Context, userID, planID, currency string) (*VIPReceipt, error) {
	plan, ok := domain.FindVIPPlan(domain.VIPTier(planID))
	if !ok || plan.ID == domain.VIPNone {
		return nil, domain.ErrUnknownPlan
	}
	cur, err := domain.ParseCurrency(currency)
	if err != nil {
		return nil, err
	}
	price, ok := plan.Price(cur)
	if !ok {
		return nil, domain.ErrUnknownCurrency
	}

	var res VIPReceipt
	err = s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := s.user(tx, userID)
		if err != nil {
			return err
		}
		if !u.Balances.Covers(cur, price) {
			return domain.ErrInsufficientFunds
		}
		u.Balances.Add(cur, price.Neg())
		u.VIPStatus = plan.ID
		u.VIPExpiry = tx.Now().UnixMilli() + plan.DurationMs()
		tx.Save(u)

		ctx := tx.Context()
		snapshot := *u
		tx.After(func() {
			s.log.Info("vip purchased", "user_id", snapshot.ID, "plan", string(plan.ID), "currency", string(cur))
			s.notifier.VIPPurchased(ctx, &snapshot, plan)
		})

		res = VIPReceipt{User: u.Profile(tx.Now()), Plan: plan, Currency: cur, Price: price, Expiry: u.VIPExpiry}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
