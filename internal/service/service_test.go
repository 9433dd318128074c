package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/game"
	"incoin_webapp/internal/repository"
	"incoin_webapp/internal/store"

	"github.com/shopspring/decimal"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu        sync.Mutex
	referrals []string
	vips      []domain.VIPTier
}

func (n *recordingNotifier) ReferralCredited(_ context.Context, referrer *domain.User, referred string, amount decimal.Decimal) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.referrals = append(n.referrals, fmt.Sprintf("%s<-%s:%s", referrer.Username, referred, amount.String()))
}

func (n *recordingNotifier) VIPPurchased(_ context.Context, buyer *domain.User, plan domain.VIPPlan) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.vips = append(n.vips, plan.ID)
}

type testEnv struct {
	mem      *store.Memory
	repo     *repository.AccountRepository
	econ     *EconomyService
	sessions *SessionService
	lb       *Leaderboard
	clock    *clock
	dice     *game.ScriptedDice
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		mem:      store.NewMemory(),
		clock:    &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		dice:     &game.ScriptedDice{},
		notifier: &recordingNotifier{},
	}
	seq := 0
	env.repo = repository.NewAccountRepository(env.mem,
		repository.WithClock(env.clock.Now),
		repository.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	env.lb = NewLeaderboard(env.repo)
	env.econ = NewEconomyService(env.repo,
		WithDice(env.dice),
		WithPriceSource(fixedPrice(decimal.NewFromInt(120))),
		WithNotifier(env.notifier),
	)
	env.sessions = NewSessionService(env.repo, repository.NewHistoryRepository(env.mem), env.lb)
	return env
}

func (e *testEnv) register(t *testing.T, name, ref string) domain.Profile {
	t.Helper()
	p, err := e.sessions.Register(context.Background(), name, ref)
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return p
}

func (e *testEnv) topUp(t *testing.T, userID, amount, currency string) {
	t.Helper()
	if _, err := e.econ.TopUp(context.Background(), userID, amount, currency); err != nil {
		t.Fatalf("top up %s %s: %v", amount, currency, err)
	}
}

func (e *testEnv) user(t *testing.T, userID string) *domain.User {
	t.Helper()
	p, err := e.sessions.Profile(context.Background(), userID)
	if err != nil {
		t.Fatalf("profile %s: %v", userID, err)
	}
	return p.User
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertBalance(t *testing.T, u *domain.User, c domain.Currency, want string) {
	t.Helper()
	if got := u.Balances.Get(c); !got.Equal(dec(want)) {
		t.Fatalf("%s %s balance = %s; want %s", u.Username, c, got, want)
	}
}
