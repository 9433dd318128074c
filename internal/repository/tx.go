package repository

import (
	"context"
	"strings"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/store"

	"github.com/google/uuid"
)

func newUUID() string { return uuid.NewString() }

// Tx is one unit of work over the roster. Users returned by its lookups are
// the working copies that will be persisted; mutate them, then call Save.
type Tx struct {
	ctx      context.Context
	repo     *AccountRepository
	now      time.Time
	readOnly bool

	users     []*domain.User
	byID      map[string]*domain.User
	sessionID string

	campaigns       []*domain.PromoCode
	campaignsLoaded bool
	promoIndex      map[string][]PromoEntry

	logs  map[string][]any
	after []func()

	rosterDirty    bool
	sessionDirty   bool
	campaignsDirty bool
}

func (tx *Tx) Context() context.Context { return tx.ctx }

// Now is the wall-clock instant the unit of work started at.
func (tx *Tx) Now() time.Time { return tx.now }

// NewID returns a fresh opaque identifier.
func (tx *Tx) NewID() string { return tx.repo.newID() }

func (tx *Tx) dirty() bool {
	if tx.readOnly {
		return false
	}
	return tx.rosterDirty || tx.sessionDirty || tx.campaignsDirty || len(tx.logs) > 0
}

// Users returns the roster in insertion order.
func (tx *Tx) Users() []*domain.User { return tx.users }

func (tx *Tx) FindByID(id string) (*domain.User, error) {
	if u, ok := tx.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (tx *Tx) FindByUsername(name string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	for _, u := range tx.users {
		if u.Username == name {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (tx *Tx) FindByReferralCode(code string) (*domain.User, error) {
	code = NormalizeReferralCode(code)
	if code == "" {
		return nil, domain.ErrUserNotFound
	}
	for _, u := range tx.users {
		if u.ReferralCode == code {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (tx *Tx) FindByTelegramID(tgID int64) (*domain.User, error) {
	for _, u := range tx.users {
		if u.TelegramID != nil && *u.TelegramID == tgID {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// FindReferrerOf returns the user whose referrals list contains username.
func (tx *Tx) FindReferrerOf(username string) (*domain.User, error) {
	for _, u := range tx.users {
		if u.HasReferred(username) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Create assigns an id and a unique referral code and inserts u.
func (tx *Tx) Create(u *domain.User) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return domain.ErrInvalidUsername
	}
	if _, err := tx.FindByUsername(u.Username); err == nil {
		return domain.ErrDuplicateUsername
	}

	u.ID = tx.repo.newID()
	code, err := tx.uniqueReferralCode()
	if err != nil {
		return err
	}
	u.ReferralCode = code
	if u.CreatedAt == 0 {
		u.CreatedAt = tx.now.UnixMilli()
	}
	backfill(u)

	return tx.insert(u)
}

func (tx *Tx) insert(u *domain.User) error {
	if _, ok := tx.byID[u.ID]; ok {
		return domain.ErrDuplicateUsername
	}
	if existing, err := tx.FindByUsername(u.Username); err == nil && existing.ID != u.ID {
		return domain.ErrDuplicateUsername
	}
	if u.ReferralCode == "" || tx.referralCodeTaken(u.ReferralCode, u.ID) {
		code, err := tx.uniqueReferralCode()
		if err != nil {
			return err
		}
		u.ReferralCode = code
	}
	tx.users = append(tx.users, u)
	tx.byID[u.ID] = u
	tx.promoIndex = nil
	tx.rosterDirty = true
	return nil
}

// Save replaces the roster entry with u's id, or appends u if absent.
func (tx *Tx) Save(u *domain.User) {
	if cur, ok := tx.byID[u.ID]; ok {
		if cur != u {
			for i := range tx.users {
				if tx.users[i].ID == u.ID {
					tx.users[i] = u
					break
				}
			}
			tx.byID[u.ID] = u
			tx.promoIndex = nil
		}
		tx.rosterDirty = true
		return
	}
	tx.users = append(tx.users, u)
	tx.byID[u.ID] = u
	tx.promoIndex = nil
	tx.rosterDirty = true
}

// Session returns the active session user.
func (tx *Tx) Session() (*domain.User, error) {
	if tx.sessionID == "" {
		return nil, domain.ErrNoSession
	}
	u, ok := tx.byID[tx.sessionID]
	if !ok {
		return nil, domain.ErrNoSession
	}
	return u, nil
}

// SetSession makes u the active session user, saving it if needed.
func (tx *Tx) SetSession(u *domain.User) {
	tx.Save(u)
	tx.sessionID = u.ID
	tx.sessionDirty = true
}

// ClearSession removes the session pointer; the roster is untouched.
func (tx *Tx) ClearSession() {
	if tx.sessionID == "" {
		return
	}
	tx.sessionID = ""
	tx.sessionDirty = true
}

// After registers fn to run once the unit of work has been committed.
func (tx *Tx) After(fn func()) {
	tx.after = append(tx.after, fn)
}

func (tx *Tx) AppendGameHistory(e domain.GameHistoryEntry) {
	tx.appendLog(store.KeyGameHistory, e)
}

func (tx *Tx) AppendTrade(r domain.TradeRecord) {
	tx.appendLog(store.KeyTradeHistory, r)
}

func (tx *Tx) AppendSlotWager(r domain.SlotWagerRecord) {
	tx.appendLog(store.KeySlotHistory, r)
}

func (tx *Tx) appendLog(key string, entry any) {
	tx.logs[key] = append(tx.logs[key], entry)
}

func (tx *Tx) referralCodeTaken(code, ownerID string) bool {
	for _, u := range tx.users {
		if u.ID != ownerID && u.ReferralCode == code {
			return true
		}
	}
	return false
}

func (tx *Tx) uniqueReferralCode() (string, error) {
	for i := 0; i < referralCodeAttempts; i++ {
		code, err := GenerateReferralCode()
		if err != nil {
			return "", err
		}
		if !tx.referralCodeTaken(code, "") {
			return code, nil
		}
	}
	return "", errReferralCodeSpace
}

// assignMissingReferralCodes gives records loaded without a code, or with a
// code already owned by an earlier record, a fresh one.
func (tx *Tx) assignMissingReferralCodes() error {
	seen := make(map[string]bool, len(tx.users))
	for _, u := range tx.users {
		if u.ReferralCode != "" && !seen[u.ReferralCode] {
			seen[u.ReferralCode] = true
			continue
		}
		code, err := tx.uniqueReferralCode()
		if err != nil {
			return err
		}
		u.ReferralCode = code
		seen[code] = true
		tx.rosterDirty = true
	}
	return nil
}
