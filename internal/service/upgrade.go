package service

import (
	"context"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/repository"

	"github.com/shopspring/decimal"
)

// UpgradeQuote is a catalog entry priced for one user.
type UpgradeQuote struct {
	domain.Upgrade
	Level int             `json:"level"`
	Price decimal.Decimal `json:"price"`
}

// UpgradeQuotes prices every upgrade at the user's next level.
func UpgradeQuotes(u *domain.User) []UpgradeQuote {
	out := make([]UpgradeQuote, 0, len(domain.UpgradeCatalog))
	for _, up := range domain.UpgradeCatalog {
		lvl := u.Upgrades[up.ID]
		out = append(out, UpgradeQuote{Upgrade: up, Level: lvl, Price: up.PriceAt(lvl)})
	}
	return out
}

type UpgradeReceipt struct {
	User    domain.Profile  `json:"user"`
	Upgrade string          `json:"upgrade"`
	Price   decimal.Decimal `json:"price"`
	Level   int             `json:"level"`
}

// BuyUpgrade debits basePrice × 1.5^level and raises the level by one.
func (s *EconomyService) BuyUpgrade(ctx context.Context, userID, upgradeID string) (*UpgradeReceipt, error) {
	up, ok := domain.FindUpgrade(upgradeID)
	if !ok {
		track("buy_upgrade", domain.ErrUnknownUpgrade)
		return nil, domain.ErrUnknownUpgrade
	}

	var res UpgradeReceipt
	err := s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := s.user(tx, userID)
		if err != nil {
			return err
		}
		lvl := u.Upgrades[up.ID]
		price := up.PriceAt(lvl)
		if !u.Balances.Covers(domain.CurrencyINCOIN, price) {
			return domain.ErrInsufficientFunds
		}
		u.Balances.Add(domain.CurrencyINCOIN, price.Neg())
		u.Upgrades[up.ID] = lvl + 1
		tx.Save(u)

		res = UpgradeReceipt{User: u.Profile(tx.Now()), Upgrade: up.ID, Price: price, Level: lvl + 1}
		return nil
	})
	track("buy_upgrade", err)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
