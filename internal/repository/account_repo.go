package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/logger"
	"incoin_webapp/internal/store"
)

// CommitObserver receives the roster after every successful commit.
type CommitObserver func(users []*domain.User)

// AccountRepository is the only writer of the roster and the session slot.
// Every read-compute-write runs inside Transact, serialized by mu, and is
// persisted as a single store batch so both copies of a user always carry
// the same value.
type AccountRepository struct {
	store store.Store
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
	log   *slog.Logger

	seq uint64 // guarded by mu

	obsMu     sync.Mutex
	observers []CommitObserver
	notified  uint64
}

type Option func(*AccountRepository)

// WithClock overrides the wall clock (used for lazy VIP expiry on save).
func WithClock(now func() time.Time) Option {
	return func(r *AccountRepository) { r.now = now }
}

// WithIDGenerator overrides user and log entry id generation.
func WithIDGenerator(gen func() string) Option {
	return func(r *AccountRepository) { r.newID = gen }
}

func NewAccountRepository(s store.Store, opts ...Option) *AccountRepository {
	r := &AccountRepository{
		store: s,
		now:   time.Now,
		newID: newUUID,
		log:   logger.With("component", "account_repo"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnCommit registers an observer called after each committed unit of work.
func (r *AccountRepository) OnCommit(fn CommitObserver) {
	r.obsMu.Lock()
	r.observers = append(r.observers, fn)
	r.obsMu.Unlock()
}

func (r *AccountRepository) Now() time.Time { return r.now() }

// Transact loads the current state, runs fn and, if fn succeeds and changed
// anything, writes every touched key in one atomic batch. When fn or the
// commit fails nothing is written. Commit observers and after hooks run once
// mu is released, so a slow hook never stalls other users.
func (r *AccountRepository) Transact(ctx context.Context, fn func(tx *Tx) error) error {
	tx, seq, err := r.apply(ctx, fn)
	if err != nil || seq == 0 {
		return err
	}

	r.notify(seq, tx.users)
	for _, hook := range tx.after {
		hook()
	}
	return nil
}

// apply runs one unit of work under mu. seq is zero when nothing was
// committed.
func (r *AccountRepository) apply(ctx context.Context, fn func(tx *Tx) error) (*Tx, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := fn(tx); err != nil {
		return nil, 0, err
	}
	if !tx.dirty() {
		return tx, 0, nil
	}
	if err := r.commit(ctx, tx); err != nil {
		return nil, 0, err
	}
	r.seq++
	return tx, r.seq, nil
}

// View runs fn against a consistent snapshot without writing anything.
func (r *AccountRepository) View(ctx context.Context, fn func(tx *Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	tx.readOnly = true
	return fn(tx)
}

func (r *AccountRepository) begin(ctx context.Context) (*Tx, error) {
	tx := &Tx{
		ctx:  ctx,
		repo: r,
		now:  r.now(),
		logs: map[string][]any{},
	}

	users, err := r.loadRoster(ctx)
	if err != nil {
		return nil, err
	}
	tx.users = users
	tx.byID = make(map[string]*domain.User, len(users))
	for _, u := range users {
		tx.byID[u.ID] = u
	}

	if err := tx.assignMissingReferralCodes(); err != nil {
		return nil, err
	}

	session, err := r.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	if session != nil {
		if _, ok := tx.byID[session.ID]; !ok {
			// Session copy without a roster entry: the roster is repaired on
			// the next commit.
			r.log.Warn("session user missing from roster, restoring", "user_id", session.ID)
			if err := tx.insert(session); err != nil {
				r.log.Warn("drop unusable session record", "user_id", session.ID, "error", err)
				session = nil
			}
		}
	}
	if session != nil {
		tx.sessionID = session.ID
	}
	return tx, nil
}

func (r *AccountRepository) loadRoster(ctx context.Context) ([]*domain.User, error) {
	raw, err := r.store.Get(ctx, store.KeyAllUsers)
	if errors.Is(err, store.ErrNotFound) {
		return []*domain.User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		r.log.Warn("roster is malformed, treating as empty", "error", err)
		return []*domain.User{}, nil
	}

	users := make([]*domain.User, 0, len(entries))
	seenID := make(map[string]bool, len(entries))
	seenName := make(map[string]bool, len(entries))
	for i, e := range entries {
		u, ok := decodeUser(e)
		if !ok {
			r.log.Warn("skip malformed roster entry", "index", i)
			continue
		}
		if seenID[u.ID] || seenName[u.Username] {
			r.log.Warn("skip duplicate roster entry", "user_id", u.ID, "username", u.Username)
			continue
		}
		seenID[u.ID] = true
		seenName[u.Username] = true
		backfill(u)
		users = append(users, u)
	}
	return users, nil
}

func (r *AccountRepository) loadSession(ctx context.Context) (*domain.User, error) {
	raw, err := r.store.Get(ctx, store.KeyCurrentUser)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	u, ok := decodeUser(raw)
	if !ok {
		r.log.Warn("session record is malformed, treating as absent")
		return nil, nil
	}
	backfill(u)
	return u, nil
}

func (r *AccountRepository) commit(ctx context.Context, tx *Tx) error {
	var ops []store.Op

	if tx.rosterDirty || tx.sessionDirty {
		for _, u := range tx.users {
			u.ExpireVIP(tx.now)
		}
		roster, err := json.Marshal(tx.users)
		if err != nil {
			return fmt.Errorf("encode roster: %w", err)
		}
		ops = append(ops, store.Put(store.KeyAllUsers, roster))

		if s := tx.byID[tx.sessionID]; s != nil {
			// Same value as the roster entry.
			b, err := json.Marshal(s)
			if err != nil {
				return fmt.Errorf("encode session: %w", err)
			}
			ops = append(ops, store.Put(store.KeyCurrentUser, b))
		} else if tx.sessionDirty {
			ops = append(ops, store.Del(store.KeyCurrentUser))
		}
	}

	if tx.campaignsDirty {
		b, err := json.Marshal(tx.campaigns)
		if err != nil {
			return fmt.Errorf("encode campaigns: %w", err)
		}
		ops = append(ops, store.Put(store.KeyPromoCampaigns, b))
	}

	for key, entries := range tx.logs {
		op, err := r.appendOp(ctx, key, entries)
		if err != nil {
			return err
		}
		ops = append(ops, op)
	}

	if err := r.store.Commit(ctx, ops...); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// appendOp builds the new value of an append-only log. Unreadable history is
// replaced rather than blocking the economic write.
func (r *AccountRepository) appendOp(ctx context.Context, key string, entries []any) (store.Op, error) {
	var existing []json.RawMessage
	raw, err := r.store.Get(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return store.Op{}, fmt.Errorf("load %s: %w", key, err)
	default:
		if err := json.Unmarshal(raw, &existing); err != nil {
			r.log.Warn("history is malformed, starting over", "key", key, "error", err)
			existing = nil
		}
	}

	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return store.Op{}, fmt.Errorf("encode %s entry: %w", key, err)
		}
		existing = append(existing, b)
	}
	b, err := json.Marshal(existing)
	if err != nil {
		return store.Op{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Put(key, b), nil
}

// notify hands a committed roster to the observers. Commits may finish out
// of order once mu is released; a roster older than the last one delivered
// is dropped.
func (r *AccountRepository) notify(seq uint64, users []*domain.User) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	if seq <= r.notified {
		return
	}
	r.notified = seq
	for _, fn := range r.observers {
		fn(users)
	}
}
