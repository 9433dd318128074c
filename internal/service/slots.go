package service

import (
	"context"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/game"
	"incoin_webapp/internal/repository"
)

type SlotResult struct {
	User   domain.Profile         `json:"user"`
	Spin   game.SlotSpin          `json:"spin"`
	Record domain.SlotWagerRecord `json:"record"`
}

// SettleSlotWager spins once and applies the signed delta to the selected
// balance. The bet must be covered before the spin, but a loss is applied
// without a floor, so the balance may end below zero.
func (s *EconomyService) SettleSlotWager(ctx context.Context, userID, bet, currency string) (*SlotResult, error) {
	res, err := s.settleSlotWager(ctx, userID, bet, currency)
	track("slot_spin", err)
	return res, err
}

func (s *EconomyService) settleSlotWager(ctx context.Context, userID, bet, currency string) (*SlotResult, error) {
	amount, err := domain.ParseAmount(bet)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	cur, err := domain.ParseCurrency(currency)
	if err != nil {
		return nil, err
	}

	var res SlotResult
	err = s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := s.user(tx, userID)
		if err != nil {
			return err
		}
		if !u.Balances.Covers(cur, amount) {
			return domain.ErrInsufficientFunds
		}

		spin := s.slots.Spin(amount)
		u.Balances.Add(cur, spin.Delta)
		tx.Save(u)

		res.Spin = spin
		res.Record = domain.SlotWagerRecord{
			ID:         tx.NewID(),
			Username:   u.Username,
			Currency:   cur,
			Bet:        amount,
			Symbols:    spin.Reels[:],
			Multiplier: spin.Multiplier,
			Delta:      spin.Delta,
			Win:        spin.Win,
			Timestamp:  tx.Now().UnixMilli(),
		}
		tx.AppendSlotWager(res.Record)
		res.User = u.Profile(tx.Now())

		outcome := spin.Outcome
		tx.After(func() { slotOutcomes.WithLabelValues(outcome, string(cur)).Inc() })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}
