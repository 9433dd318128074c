package store

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

// Logical keys of the persisted state.
const (
	KeyCurrentUser    = "current_user"
	KeyAllUsers       = "all_users"
	KeyGameHistory    = "game_history"
	KeyTradeHistory   = "trade_history"
	KeySlotHistory    = "slot_history"
	KeyPromoCampaigns = "promo_campaigns"
)

// Op is one write inside a batch. A nil Value with Delete set removes the key.
type Op struct {
	Key    string
	Value  []byte
	Delete bool
}

func Put(key string, value []byte) Op { return Op{Key: key, Value: value} }
func Del(key string) Op               { return Op{Key: key, Delete: true} }

// Store is a durable key-value store. Commit applies all ops or none.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Commit(ctx context.Context, ops ...Op) error
	Ping(ctx context.Context) error
	Close() error
}

// Open builds the backend named by kind.
func Open(ctx context.Context, kind string, opts Options) (Store, error) {
	var (
		s   Store
		err error
	)
	switch kind {
	case "", "memory":
		s = NewMemory()
	case "redis":
		s, err = NewRedis(ctx, opts.RedisAddr, opts.RedisPassword, opts.RedisDB)
	case "postgres":
		s, err = NewPostgres(ctx, opts.DatabaseURL, opts.MaxConns)
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
	if err != nil {
		return nil, err
	}
	if opts.Namespace != "" {
		s = WithNamespace(s, opts.Namespace)
	}
	return Instrument(s, kind), nil
}

type Options struct {
	Namespace     string
	DatabaseURL   string
	MaxConns      int32
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type namespaced struct {
	Store
	prefix string
}

// WithNamespace prefixes every key with "<ns>:".
func WithNamespace(s Store, ns string) Store {
	return &namespaced{Store: s, prefix: ns + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.Store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Commit(ctx context.Context, ops ...Op) error {
	prefixed := make([]Op, len(ops))
	for i, op := range ops {
		op.Key = n.prefix + op.Key
		prefixed[i] = op
	}
	return n.Store.Commit(ctx, prefixed...)
}
