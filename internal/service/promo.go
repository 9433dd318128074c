package service

import (
	"context"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/repository"
)

const maxPromoCodeLength = 32

type PromoResult struct {
	User  domain.Profile    `json:"user"`
	Promo *domain.PromoCode `json:"promo"`
}

// ApplyPromoCode redeems code once per user. Campaign codes are searched
// before user-created ones; the matched record is the one marked used.
func (s *EconomyService) ApplyPromoCode(ctx context.Context, userID, code string) (*PromoResult, error) {
	res, err := s.applyPromoCode(ctx, userID, code)
	track("apply_promo", err)
	return res, err
}

func (s *EconomyService) applyPromoCode(ctx context.Context, userID, code string) (*PromoResult, error) {
	code = domain.NormalizePromoCode(code)
	if code == "" {
		return nil, domain.ErrPromoNotFound
	}

	var res PromoResult
	err := s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := s.user(tx, userID)
		if err != nil {
			return err
		}
		if u.HasUsedPromo(code) {
			return domain.ErrAlreadyRedeemed
		}

		entries, err := tx.LookupPromo(code)
		if err != nil {
			return err
		}
		var (
			match     *repository.PromoEntry
			exhausted bool
		)
		for i := range entries {
			p := entries[i].Code
			if p.RedeemedBy(u.ID) {
				continue
			}
			if p.Exhausted() {
				exhausted = true
				continue
			}
			match = &entries[i]
			break
		}
		if match == nil {
			if exhausted {
				return domain.ErrPromoExhausted
			}
			return domain.ErrPromoNotFound
		}

		match.Code.MarkUsed(u.ID)
		u.Balances.Add(domain.CurrencyINCOIN, match.Code.Bonus)
		u.PromoCodesUsed = append(u.PromoCodesUsed, code)
		tx.SavePromo(*match)
		tx.Save(u)

		res = PromoResult{User: u.Profile(tx.Now()), Promo: match.Code}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// CreatePromoCode escrows bonus from the creator's INCOIN and publishes a
// user-created code anyone may redeem once.
func (s *EconomyService) CreatePromoCode(ctx context.Context, userID, code, bonus string) (*PromoResult, error) {
	res, err := s.createPromoCode(ctx, userID, code, bonus)
	track("create_promo", err)
	return res, err
}

func (s *EconomyService) createPromoCode(ctx context.Context, userID, code, bonus string) (*PromoResult, error) {
	code = domain.NormalizePromoCode(code)
	if !validPromoCode(code) {
		return nil, domain.ErrInvalidPromoCode
	}
	amount, err := domain.ParseAmount(bonus)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var res PromoResult
	err = s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := s.user(tx, userID)
		if err != nil {
			return err
		}
		exists, err := tx.PromoExists(code)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrPromoCodeExists
		}
		if !u.Balances.Covers(domain.CurrencyINCOIN, amount) {
			return domain.ErrInsufficientFunds
		}

		u.Balances.Add(domain.CurrencyINCOIN, amount.Neg())
		p := &domain.PromoCode{
			Code:      code,
			Type:      domain.PromoUserCreated,
			Bonus:     amount,
			UsedBy:    domain.UserIDs{},
			CreatedBy: u.ID,
			CreatedAt: tx.Now().UnixMilli(),
		}
		tx.AddCreatedPromo(u, p)

		res = PromoResult{User: u.Profile(tx.Now()), Promo: p}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func validPromoCode(code string) bool {
	if code == "" || len(code) > maxPromoCodeLength {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

