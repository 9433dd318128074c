package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/store"

	"github.com/shopspring/decimal"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
}

func newTestRepo(t *testing.T) (*AccountRepository, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	seq := 0
	repo := NewAccountRepository(mem,
		WithClock(fixedNow),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	return repo, mem
}

func createUser(t *testing.T, repo *AccountRepository, name string, session bool) *domain.User {
	t.Helper()
	var created *domain.User
	err := repo.Transact(context.Background(), func(tx *Tx) error {
		u := domain.NewUser(name, tx.Now())
		if err := tx.Create(u); err != nil {
			return err
		}
		if session {
			tx.SetSession(u)
		}
		created = u
		return nil
	})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return created
}

func TestCreateAssignsIdentity(t *testing.T) {
	repo, _ := newTestRepo(t)
	u := createUser(t, repo, "alice", false)

	if u.ID == "" {
		t.Fatalf("expected id")
	}
	if !strings.HasPrefix(u.ReferralCode, "REF") || len(u.ReferralCode) != 11 {
		t.Fatalf("referral code = %q", u.ReferralCode)
	}
}

func TestCreateRejectsDuplicateUsername(t *testing.T) {
	repo, mem := newTestRepo(t)
	createUser(t, repo, "alice", false)
	before, _ := mem.Get(context.Background(), store.KeyAllUsers)

	err := repo.Transact(context.Background(), func(tx *Tx) error {
		return tx.Create(domain.NewUser("alice", tx.Now()))
	})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Fatalf("expected ErrDuplicateUsername, got %v", err)
	}
	after, _ := mem.Get(context.Background(), store.KeyAllUsers)
	if string(before) != string(after) {
		t.Fatalf("roster changed after failed create")
	}
}

func TestCreateRejectsBlankUsername(t *testing.T) {
	repo, _ := newTestRepo(t)
	err := repo.Transact(context.Background(), func(tx *Tx) error {
		return tx.Create(domain.NewUser("   ", tx.Now()))
	})
	if !errors.Is(err, domain.ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
}

func TestSessionAndRosterWrittenTogether(t *testing.T) {
	repo, mem := newTestRepo(t)
	ctx := context.Background()
	u := createUser(t, repo, "alice", true)

	err := repo.Transact(ctx, func(tx *Tx) error {
		s, err := tx.Session()
		if err != nil {
			return err
		}
		s.Balances.Add(domain.CurrencyINCOIN, decimal.NewFromInt(42))
		tx.Save(s)
		return nil
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}

	rosterRaw, _ := mem.Get(ctx, store.KeyAllUsers)
	sessionRaw, _ := mem.Get(ctx, store.KeyCurrentUser)

	var roster []json.RawMessage
	if err := json.Unmarshal(rosterRaw, &roster); err != nil {
		t.Fatalf("decode roster: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("roster size = %d", len(roster))
	}
	if string(roster[0]) != string(sessionRaw) {
		t.Fatalf("session copy diverged from roster:\n%s\n%s", roster[0], sessionRaw)
	}

	var stored domain.User
	_ = json.Unmarshal(sessionRaw, &stored)
	if stored.ID != u.ID || !stored.Balances.Get(domain.CurrencyINCOIN).Equal(decimal.NewFromInt(42)) {
		t.Fatalf("unexpected session copy: %+v", stored)
	}
}

func TestFailedUnitOfWorkWritesNothing(t *testing.T) {
	repo, mem := newTestRepo(t)
	ctx := context.Background()
	createUser(t, repo, "alice", true)
	before, _ := mem.Get(ctx, store.KeyCurrentUser)

	boom := errors.New("boom")
	err := repo.Transact(ctx, func(tx *Tx) error {
		s, _ := tx.Session()
		s.Balances.Add(domain.CurrencyINCOIN, decimal.NewFromInt(1000))
		tx.Save(s)
		tx.AppendGameHistory(domain.GameHistoryEntry{Game: "clicker"})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	after, _ := mem.Get(ctx, store.KeyCurrentUser)
	if string(before) != string(after) {
		t.Fatalf("session changed after failed unit of work")
	}
	if _, err := mem.Get(ctx, store.KeyGameHistory); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("history written after failed unit of work")
	}
}

func TestLookups(t *testing.T) {
	repo, _ := newTestRepo(t)
	alice := createUser(t, repo, "alice", false)
	createUser(t, repo, "bob", false)

	err := repo.View(context.Background(), func(tx *Tx) error {
		if u, err := tx.FindByUsername("alice"); err != nil || u.ID != alice.ID {
			t.Fatalf("FindByUsername = %v, %v", u, err)
		}
		if u, err := tx.FindByID(alice.ID); err != nil || u.Username != "alice" {
			t.Fatalf("FindByID = %v, %v", u, err)
		}
		if u, err := tx.FindByReferralCode(strings.ToLower(alice.ReferralCode)); err != nil || u.ID != alice.ID {
			t.Fatalf("FindByReferralCode = %v, %v", u, err)
		}
		if _, err := tx.FindByUsername("carol"); !errors.Is(err, domain.ErrUserNotFound) {
			t.Fatalf("expected ErrUserNotFound, got %v", err)
		}
		if _, err := tx.Session(); !errors.Is(err, domain.ErrNoSession) {
			t.Fatalf("expected ErrNoSession, got %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMalformedRosterIsTreatedAsEmpty(t *testing.T) {
	repo, mem := newTestRepo(t)
	ctx := context.Background()
	_ = mem.Commit(ctx, store.Put(store.KeyAllUsers, []byte(`{broken`)))

	u := createUser(t, repo, "alice", false)
	if u.ID == "" {
		t.Fatalf("expected user to be created over a corrupt roster")
	}
}

func TestSessionMissingFromRosterIsRestored(t *testing.T) {
	repo, mem := newTestRepo(t)
	ctx := context.Background()
	_ = mem.Commit(ctx, store.Put(store.KeyCurrentUser,
		[]byte(`{"id":1700000000000,"username":"legacy","balance":5}`)))

	err := repo.Transact(ctx, func(tx *Tx) error {
		s, err := tx.Session()
		if err != nil {
			return err
		}
		if s.Username != "legacy" || s.ReferralCode == "" {
			t.Fatalf("unexpected session %+v", s)
		}
		tx.Save(s)
		return nil
	})
	if err != nil {
		t.Fatalf("transact: %v", err)
	}

	err = repo.View(ctx, func(tx *Tx) error {
		_, err := tx.FindByUsername("legacy")
		return err
	})
	if err != nil {
		t.Fatalf("legacy session should now be in the roster: %v", err)
	}
}

func TestDuplicateReferralCodesAreReassigned(t *testing.T) {
	repo, mem := newTestRepo(t)
	ctx := context.Background()
	_ = mem.Commit(ctx, store.Put(store.KeyAllUsers, []byte(`[
		{"id":"a","username":"a","referralCode":"REFSAME0000"},
		{"id":"b","username":"b","referralCode":"REFSAME0000"},
		{"id":"c","username":"c"}
	]`)))

	err := repo.View(ctx, func(tx *Tx) error {
		seen := map[string]bool{}
		for _, u := range tx.Users() {
			if u.ReferralCode == "" || seen[u.ReferralCode] {
				t.Fatalf("referral code %q not unique", u.ReferralCode)
			}
			seen[u.ReferralCode] = true
		}
		a, _ := tx.FindByID("a")
		if a.ReferralCode != "REFSAME0000" {
			t.Fatalf("first owner should keep its code, got %q", a.ReferralCode)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCampaignRedemptionPersists(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	alice := createUser(t, repo, "alice", false)

	err := repo.Transact(ctx, func(tx *Tx) error {
		entries, err := tx.LookupPromo("youtube2024")
		if err != nil {
			return err
		}
		if len(entries) != 1 || entries[0].Owner != nil {
			t.Fatalf("expected one campaign entry, got %v", entries)
		}
		entries[0].Code.MarkUsed(alice.ID)
		tx.SavePromo(entries[0])
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = repo.View(ctx, func(tx *Tx) error {
		entries, err := tx.LookupPromo("YOUTUBE2024")
		if err != nil {
			return err
		}
		if !entries[0].Code.RedeemedBy(alice.ID) {
			t.Fatalf("campaign usedBy not persisted")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCreatedPromoIndexedOnOwner(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createUser(t, repo, "alice", false)

	err := repo.Transact(ctx, func(tx *Tx) error {
		alice, _ := tx.FindByUsername("alice")
		tx.AddCreatedPromo(alice, &domain.PromoCode{Code: "GIFT", Type: domain.PromoUserCreated, Bonus: decimal.NewFromInt(5), UsedBy: domain.UserIDs{}})
		exists, err := tx.PromoExists("gift")
		if err != nil || !exists {
			t.Fatalf("new code not indexed: %v", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = repo.View(ctx, func(tx *Tx) error {
		entries, _ := tx.LookupPromo("GIFT")
		if len(entries) != 1 || entries[0].Owner == nil || entries[0].Owner.Username != "alice" {
			t.Fatalf("unexpected entries %v", entries)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestLogoutKeepsRoster(t *testing.T) {
	repo, mem := newTestRepo(t)
	ctx := context.Background()
	createUser(t, repo, "alice", true)

	if err := repo.Transact(ctx, func(tx *Tx) error {
		tx.ClearSession()
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := mem.Get(ctx, store.KeyCurrentUser); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("session slot should be cleared, got %v", err)
	}
	err := repo.View(ctx, func(tx *Tx) error {
		_, err := tx.FindByUsername("alice")
		return err
	})
	if err != nil {
		t.Fatalf("user should remain in roster: %v", err)
	}
}

func TestSaveAppliesLazyVIPExpiry(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createUser(t, repo, "alice", true)

	err := repo.Transact(ctx, func(tx *Tx) error {
		s, _ := tx.Session()
		s.VIPStatus = domain.VIPWeek
		s.VIPExpiry = tx.Now().Add(-time.Hour).UnixMilli()
		tx.Save(s)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = repo.View(ctx, func(tx *Tx) error {
		s, _ := tx.Session()
		if s.VIPStatus != domain.VIPNone || s.VIPExpiry != 0 {
			t.Fatalf("expired vip persisted: %s/%d", s.VIPStatus, s.VIPExpiry)
		}
		return nil
	})
}

func TestCommitObserverAndHooks(t *testing.T) {
	repo, _ := newTestRepo(t)
	var observed, hooked int
	repo.OnCommit(func(users []*domain.User) { observed = len(users) })

	err := repo.Transact(context.Background(), func(tx *Tx) error {
		tx.After(func() { hooked++ })
		return tx.Create(domain.NewUser("alice", tx.Now()))
	})
	if err != nil {
		t.Fatal(err)
	}
	if observed != 1 || hooked != 1 {
		t.Fatalf("observed=%d hooked=%d", observed, hooked)
	}
}

func TestSlowHookDoesNotBlockOtherWriters(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createUser(t, repo, "alice", false)

	entered := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	go func() {
		_ = repo.Transact(ctx, func(tx *Tx) error {
			tx.After(func() {
				close(entered)
				<-release
			})
			u, err := tx.FindByUsername("alice")
			if err != nil {
				return err
			}
			u.GamesPlayed++
			tx.Save(u)
			return nil
		})
	}()
	<-entered

	done := make(chan error, 1)
	go func() {
		done <- repo.Transact(ctx, func(tx *Tx) error {
			return tx.Create(domain.NewUser("bob", tx.Now()))
		})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("second writer: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second writer blocked behind a running hook")
	}
}

func TestStaleRosterIsNotDelivered(t *testing.T) {
	repo, _ := newTestRepo(t)
	var got []int
	repo.OnCommit(func(users []*domain.User) { got = append(got, len(users)) })

	repo.notify(2, make([]*domain.User, 2))
	repo.notify(1, make([]*domain.User, 1))
	repo.notify(3, make([]*domain.User, 3))

	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("delivered = %v", got)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	repo, mem := newTestRepo(t)
	ctx := context.Background()
	createUser(t, repo, "alice", true)

	for i := 1; i <= 3; i++ {
		ts := int64(i)
		err := repo.Transact(ctx, func(tx *Tx) error {
			tx.AppendGameHistory(domain.GameHistoryEntry{Username: "alice", Game: "clicker", Earned: domain.GameAward, Timestamp: ts})
			tx.AppendTrade(domain.TradeRecord{Username: "bob", Type: domain.TradeBuy, Timestamp: ts})
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	hist := NewHistoryRepository(mem)
	games, err := hist.GameHistory(ctx, "alice", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(games) != 2 || games[0].Timestamp != 3 || games[1].Timestamp != 2 {
		t.Fatalf("games = %+v", games)
	}
	trades, _ := hist.TradeHistory(ctx, "alice", 0)
	if len(trades) != 0 {
		t.Fatalf("trades of another user leaked: %+v", trades)
	}
}
