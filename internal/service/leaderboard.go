package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/repository"
)

// Leaderboard is the top-N projection of the roster by INCOIN balance. It is
// rebuilt after every committed unit of work.
type Leaderboard struct {
	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
	subs    map[chan []domain.LeaderboardEntry]struct{}
	size    int
	now     func() time.Time
}

// NewLeaderboard registers the projection on repo.
func NewLeaderboard(repo *repository.AccountRepository) *Leaderboard {
	lb := &Leaderboard{
		subs: make(map[chan []domain.LeaderboardEntry]struct{}),
		size: domain.LeaderboardSize,
		now:  repo.Now,
	}
	repo.OnCommit(lb.Rebuild)
	return lb
}

// Load builds the initial projection from storage.
func (l *Leaderboard) Load(ctx context.Context, repo *repository.AccountRepository) error {
	return repo.View(ctx, func(tx *repository.Tx) error {
		l.Rebuild(tx.Users())
		return nil
	})
}

// Rebuild recomputes the projection and publishes it.
func (l *Leaderboard) Rebuild(users []*domain.User) {
	entries := Rank(users, l.size, l.now())

	l.mu.Lock()
	l.entries = entries
	subs := make([]chan []domain.LeaderboardEntry, 0, len(l.subs))
	for ch := range l.subs {
		subs = append(subs, ch)
	}
	l.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- entries:
		default:
		}
	}
}

// Top returns the current projection.
func (l *Leaderboard) Top() []domain.LeaderboardEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.LeaderboardEntry(nil), l.entries...)
}

func (l *Leaderboard) Subscribe(buffer int) (<-chan []domain.LeaderboardEntry, func()) {
	ch := make(chan []domain.LeaderboardEntry, buffer)
	l.mu.Lock()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, ch)
			l.mu.Unlock()
			close(ch)
		})
	}
}

// Rank orders users by INCOIN descending, ties by username, and keeps n.
func Rank(users []*domain.User, n int, now time.Time) []domain.LeaderboardEntry {
	sorted := append([]*domain.User(nil), users...)
	sort.SliceStable(sorted, func(i, j int) bool {
		bi := sorted[i].Balances.Get(domain.CurrencyINCOIN)
		bj := sorted[j].Balances.Get(domain.CurrencyINCOIN)
		if c := bi.Cmp(bj); c != 0 {
			return c > 0
		}
		return sorted[i].Username < sorted[j].Username
	})
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}

	out := make([]domain.LeaderboardEntry, 0, len(sorted))
	for i, u := range sorted {
		out = append(out, domain.LeaderboardEntry{
			Rank:        i + 1,
			Username:    u.Username,
			Balance:     u.Balances.Get(domain.CurrencyINCOIN),
			GamesPlayed: u.GamesPlayed,
			VIP:         u.EffectiveVIP(now) != domain.VIPNone,
		})
	}
	return out
}
