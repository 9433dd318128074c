package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/store"
)

// HistoryRepository reads the append-only logs written through Tx.
type HistoryRepository struct {
	store store.Store
}

func NewHistoryRepository(s store.Store) *HistoryRepository {
	return &HistoryRepository{store: s}
}

// GameHistory returns entries of username (and legacy entries without an
// owner), newest first, at most limit when limit > 0.
func (r *HistoryRepository) GameHistory(ctx context.Context, username string, limit int) ([]domain.GameHistoryEntry, error) {
	all, err := readLog[domain.GameHistoryEntry](ctx, r.store, store.KeyGameHistory)
	if err != nil {
		return nil, err
	}
	return newestFirst(all, limit, func(e domain.GameHistoryEntry) bool {
		return e.Username == "" || e.Username == username
	}), nil
}

func (r *HistoryRepository) TradeHistory(ctx context.Context, username string, limit int) ([]domain.TradeRecord, error) {
	all, err := readLog[domain.TradeRecord](ctx, r.store, store.KeyTradeHistory)
	if err != nil {
		return nil, err
	}
	return newestFirst(all, limit, func(e domain.TradeRecord) bool {
		return e.Username == "" || e.Username == username
	}), nil
}

func (r *HistoryRepository) SlotHistory(ctx context.Context, username string, limit int) ([]domain.SlotWagerRecord, error) {
	all, err := readLog[domain.SlotWagerRecord](ctx, r.store, store.KeySlotHistory)
	if err != nil {
		return nil, err
	}
	return newestFirst(all, limit, func(e domain.SlotWagerRecord) bool {
		return e.Username == "" || e.Username == username
	}), nil
}

// readLog decodes a log entry by entry; entries that fail to decode are skipped.
func readLog[T any](ctx context.Context, s store.Store, key string) ([]T, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, nil
	}
	out := make([]T, 0, len(entries))
	for _, e := range entries {
		var v T
		if err := json.Unmarshal(e, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func newestFirst[T any](all []T, limit int, keep func(T) bool) []T {
	out := make([]T, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if !keep(all[i]) {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
