package service

import (
	"context"
	"log/slog"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/game"
	"incoin_webapp/internal/logger"
	"incoin_webapp/internal/repository"

	"github.com/shopspring/decimal"
)

// PriceSource supplies the token price trades settle at.
type PriceSource interface {
	Current() decimal.Decimal
}

type fixedPrice decimal.Decimal

func (p fixedPrice) Current() decimal.Decimal { return decimal.Decimal(p) }

// EconomyService owns every balance-affecting operation. Each call is one
// unit of work on the account repository: it reads the user, computes the
// new state and commits it (with any log entries) in a single batch.
type EconomyService struct {
	repo     *repository.AccountRepository
	slots    *game.SlotMachine
	prices   PriceSource
	notifier Notifier
	log      *slog.Logger
}

type EconomyOption func(*EconomyService)

func WithDice(d game.Dice) EconomyOption {
	return func(s *EconomyService) { s.slots = game.NewSlotMachine(d) }
}

func WithPriceSource(p PriceSource) EconomyOption {
	return func(s *EconomyService) { s.prices = p }
}

func WithNotifier(n Notifier) EconomyOption {
	return func(s *EconomyService) { s.notifier = n }
}

func NewEconomyService(repo *repository.AccountRepository, opts ...EconomyOption) *EconomyService {
	s := &EconomyService{
		repo:     repo,
		slots:    game.NewSlotMachine(nil),
		prices:   fixedPrice(domain.StartPrice),
		notifier: NopNotifier{},
		log:      logger.With("component", "economy"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Price is the current trade price.
func (s *EconomyService) Price() decimal.Decimal {
	return s.prices.Current()
}

func (s *EconomyService) user(tx *repository.Tx, userID string) (*domain.User, error) {
	return tx.FindByID(userID)
}

// GameResult is the outcome of a reported minigame.
type GameResult struct {
	User  domain.Profile          `json:"user"`
	Entry domain.GameHistoryEntry `json:"entry"`
}

// ReportGameComplete credits the fixed award for a finished catalog game.
func (s *EconomyService) ReportGameComplete(ctx context.Context, userID, gameLabel string) (*GameResult, error) {
	g, ok := domain.FindGame(gameLabel)
	if !ok {
		track("game_complete", domain.ErrUnknownGame)
		return nil, domain.ErrUnknownGame
	}
	return s.CreditFromGame(ctx, userID, g.Name, domain.GameAward)
}

// CreditFromGame adds award to INCOIN, counts the game and logs it.
func (s *EconomyService) CreditFromGame(ctx context.Context, userID, gameName string, award decimal.Decimal) (*GameResult, error) {
	var res GameResult
	err := s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := s.user(tx, userID)
		if err != nil {
			return err
		}
		u.Balances.Add(domain.CurrencyINCOIN, award)
		u.GamesPlayed++
		u.TotalEarned = u.TotalEarned.Add(award)
		tx.Save(u)

		res.Entry = domain.GameHistoryEntry{
			ID:        tx.NewID(),
			Username:  u.Username,
			Game:      gameName,
			Earned:    award,
			Timestamp: tx.Now().UnixMilli(),
		}
		tx.AppendGameHistory(res.Entry)
		res.User = u.Profile(tx.Now())
		return nil
	})
	track("game_complete", err)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// TopUpResult reports a deposit and the referral bonus it produced, if any.
type TopUpResult struct {
	User          domain.Profile  `json:"user"`
	Currency      domain.Currency `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	ReferralBonus decimal.Decimal `json:"referralBonus"`
	Referrer      string          `json:"referrer,omitempty"`
}

// TopUp credits a trusted deposit in [TopUpMin, TopUpMax]. A referred user's
// deposit pays the referrer in the same unit of work.
func (s *EconomyService) TopUp(ctx context.Context, userID, amount, currency string) (*TopUpResult, error) {
	res, err := s.topUp(ctx, userID, amount, currency)
	track("topup", err)
	return res, err
}

func (s *EconomyService) topUp(ctx context.Context, userID, amount, currency string) (*TopUpResult, error) {
	value, err := domain.ParseAmount(amount)
	if err != nil {
		return nil, err
	}
	if value.LessThan(domain.TopUpMin) || value.GreaterThan(domain.TopUpMax) {
		return nil, domain.ErrInvalidAmount
	}
	cur, err := domain.ParseCurrency(currency)
	if err != nil {
		return nil, err
	}

	res := TopUpResult{Currency: cur, Amount: value}
	err = s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := s.user(tx, userID)
		if err != nil {
			return err
		}
		u.Balances.Add(cur, value)
		tx.Save(u)

		if u.ReferredBy != "" {
			if referrer, bonus, ok := s.referralPayout(tx, u.Username, value); ok {
				res.Referrer = referrer.Username
				res.ReferralBonus = bonus
			}
		}
		res.User = u.Profile(tx.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// referralPayout credits ReferralRate × deposit to whoever referred
// referredUsername. It runs inside the caller's unit of work, once per
// deposit, and is a no-op when no referrer exists.
func (s *EconomyService) referralPayout(tx *repository.Tx, referredUsername string, deposit decimal.Decimal) (*domain.User, decimal.Decimal, bool) {
	referrer, err := tx.FindReferrerOf(referredUsername)
	if err != nil {
		return nil, decimal.Zero, false
	}
	bonus := deposit.Mul(domain.ReferralRate)
	referrer.Balances.Add(domain.CurrencyINCOIN, bonus)
	referrer.ReferralEarnings = referrer.ReferralEarnings.Add(bonus)
	tx.Save(referrer)

	ctx := tx.Context()
	snapshot := *referrer
	tx.After(func() {
		referralPayouts.Inc()
		s.log.Info("referral bonus credited", "referrer", snapshot.Username, "referred", referredUsername, "bonus", bonus.String())
		s.notifier.ReferralCredited(ctx, &snapshot, referredUsername, bonus)
	})
	return referrer, bonus, true
}
