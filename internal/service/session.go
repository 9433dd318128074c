package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/logger"
	"incoin_webapp/internal/repository"
	"incoin_webapp/internal/telegram"
)

const hydrateHistoryLimit = 50

// SessionService manages the single active session slot.
type SessionService struct {
	repo        *repository.AccountRepository
	history     *repository.HistoryRepository
	leaderboard *Leaderboard
	log         *slog.Logger
}

func NewSessionService(repo *repository.AccountRepository, history *repository.HistoryRepository, lb *Leaderboard) *SessionService {
	return &SessionService{
		repo:        repo,
		history:     history,
		leaderboard: lb,
		log:         logger.With("component", "session"),
	}
}

// Register creates a zero-state user and makes it the session. A referral
// code that resolves to an existing user attributes the signup to them;
// unknown codes are ignored.
func (s *SessionService) Register(ctx context.Context, username, referralCode string) (domain.Profile, error) {
	var out domain.Profile
	err := s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u := domain.NewUser(username, tx.Now())
		if err := tx.Create(u); err != nil {
			return err
		}
		s.attributeReferral(tx, u, referralCode)
		tx.SetSession(u)
		out = u.Profile(tx.Now())
		return nil
	})
	track("register", err)
	if err != nil {
		return domain.Profile{}, err
	}
	s.log.Info("user registered", "user_id", out.ID, "username", out.Username, "referred_by", out.ReferredBy)
	return out, nil
}

// Login makes an existing user the session, applying lazy VIP expiry.
func (s *SessionService) Login(ctx context.Context, username string) (domain.Profile, error) {
	var out domain.Profile
	err := s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := tx.FindByUsername(username)
		if err != nil {
			return err
		}
		u.ExpireVIP(tx.Now())
		tx.SetSession(u)
		out = u.Profile(tx.Now())
		return nil
	})
	track("login", err)
	if err != nil {
		return domain.Profile{}, err
	}
	return out, nil
}

// Logout clears the session slot. The roster is untouched.
func (s *SessionService) Logout(ctx context.Context) error {
	err := s.repo.Transact(ctx, func(tx *repository.Tx) error {
		tx.ClearSession()
		return nil
	})
	track("logout", err)
	return err
}

// Current returns the session user without writing.
func (s *SessionService) Current(ctx context.Context) (domain.Profile, error) {
	var out domain.Profile
	err := s.repo.View(ctx, func(tx *repository.Tx) error {
		u, err := tx.Session()
		if err != nil {
			return err
		}
		out = u.Profile(tx.Now())
		return nil
	})
	return out, err
}

// Profile returns any user by id.
func (s *SessionService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	var out domain.Profile
	err := s.repo.View(ctx, func(tx *repository.Tx) error {
		u, err := tx.FindByID(userID)
		if err != nil {
			return err
		}
		out = u.Profile(tx.Now())
		return nil
	})
	return out, err
}

// IsActive reports whether userID is the current session user.
func (s *SessionService) IsActive(ctx context.Context, userID string) (bool, error) {
	cur, err := s.Current(ctx)
	if errors.Is(err, domain.ErrNoSession) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return cur.ID == userID, nil
}

// Snapshot is everything a client restores on launch.
type Snapshot struct {
	User        domain.Profile            `json:"user"`
	Games       []domain.GameHistoryEntry `json:"gameHistory"`
	Trades      []domain.TradeRecord      `json:"tradeHistory"`
	Slots       []domain.SlotWagerRecord  `json:"slotHistory"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

// Hydrate restores the stored session, persisting a lapsed VIP tier as none.
// Without a stored session it falls back to auto-login when launch carries
// an external identity, and reports ErrNoSession otherwise.
func (s *SessionService) Hydrate(ctx context.Context, launch *telegram.LaunchContext) (*Snapshot, error) {
	var profile domain.Profile
	err := s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := tx.Session()
		switch {
		case err == nil:
			if u.ExpireVIP(tx.Now()) {
				s.log.Info("vip expired", "user_id", u.ID)
				tx.Save(u)
			}
		case errors.Is(err, domain.ErrNoSession) && launch != nil && launch.Identity != nil:
			u, err = s.autoLogin(tx, *launch.Identity, launch.ReferralCode)
			if err != nil {
				return err
			}
		default:
			return err
		}
		profile = u.Profile(tx.Now())
		return nil
	})
	track("hydrate", err)
	if err != nil {
		return nil, err
	}
	return s.snapshot(ctx, profile)
}

func (s *SessionService) snapshot(ctx context.Context, p domain.Profile) (*Snapshot, error) {
	snap := &Snapshot{User: p}
	var err error
	if snap.Games, err = s.history.GameHistory(ctx, p.Username, hydrateHistoryLimit); err != nil {
		return nil, err
	}
	if snap.Trades, err = s.history.TradeHistory(ctx, p.Username, hydrateHistoryLimit); err != nil {
		return nil, err
	}
	if snap.Slots, err = s.history.SlotHistory(ctx, p.Username, hydrateHistoryLimit); err != nil {
		return nil, err
	}
	if s.leaderboard != nil {
		snap.Leaderboard = s.leaderboard.Top()
	}
	return snap, nil
}

// AutoLogin resolves an external identity to an account, creating one on
// first launch, and makes it the session.
func (s *SessionService) AutoLogin(ctx context.Context, id telegram.Identity, referralCode string) (domain.Profile, error) {
	var out domain.Profile
	err := s.repo.Transact(ctx, func(tx *repository.Tx) error {
		u, err := s.autoLogin(tx, id, referralCode)
		if err != nil {
			return err
		}
		out = u.Profile(tx.Now())
		return nil
	})
	track("auto_login", err)
	if err != nil {
		return domain.Profile{}, err
	}
	return out, nil
}

func (s *SessionService) autoLogin(tx *repository.Tx, id telegram.Identity, referralCode string) (*domain.User, error) {
	if u, err := tx.FindByTelegramID(id.TelegramID); err == nil {
		if id.FirstName != "" {
			u.FirstName = id.FirstName
		}
		if id.PhotoURL != "" {
			u.PhotoURL = id.PhotoURL
		}
		u.ExpireVIP(tx.Now())
		tx.SetSession(u)
		return u, nil
	}

	suffix := "_" + strconv.FormatInt(id.TelegramID, 10)
	name := id.DisplayName()
	if name == "" {
		name = "tg" + suffix
	} else if _, err := tx.FindByUsername(name); err == nil {
		name += suffix
	}

	tgID := id.TelegramID
	u := domain.NewUser(name, tx.Now())
	u.TelegramID = &tgID
	u.FirstName = id.FirstName
	u.PhotoURL = id.PhotoURL
	if err := tx.Create(u); err != nil {
		return nil, err
	}
	s.attributeReferral(tx, u, referralCode)
	tx.SetSession(u)
	s.log.Info("telegram user created", "user_id", u.ID, "telegram_id", tgID, "username", u.Username)
	return u, nil
}

func (s *SessionService) attributeReferral(tx *repository.Tx, u *domain.User, code string) {
	code = repository.NormalizeReferralCode(code)
	if code == "" {
		return
	}
	referrer, err := tx.FindByReferralCode(code)
	if err != nil || referrer.ID == u.ID {
		s.log.Debug("referral code ignored", "code", code)
		return
	}
	u.ReferredBy = referrer.ReferralCode
	if !referrer.HasReferred(u.Username) {
		referrer.Referrals = append(referrer.Referrals, u.Username)
	}
	tx.Save(referrer)
	tx.Save(u)
}
