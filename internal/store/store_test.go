package store

import (
	"context"
	"errors"
	"testing"
)

// exerciseStore runs the shared contract against any backend.
func exerciseStore(t *testing.T, s Store, prefix string) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, prefix+"missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Commit(ctx,
		Put(prefix+"a", []byte(`{"v":1}`)),
		Put(prefix+"b", []byte(`[1,2]`)),
	); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := s.Get(ctx, prefix+"a")
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	if len(got) == 0 {
		t.Fatalf("expected value for a")
	}

	if err := s.Commit(ctx, Put(prefix+"a", []byte(`{"v":2}`)), Del(prefix+"b")); err != nil {
		t.Fatalf("commit 2: %v", err)
	}
	if _, err := s.Get(ctx, prefix+"b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected b deleted, got %v", err)
	}

	if err := s.Commit(ctx, Del(prefix+"a")); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory(), "")
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte("abc")
	if err := m.Commit(ctx, Put("k", buf)); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'z'

	got, _ := m.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("stored value changed through caller buffer: %q", got)
	}
	got[1] = 'z'
	again, _ := m.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value changed through returned buffer: %q", again)
	}
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemory()
	if err := m.Commit(ctx, Put("k", []byte("v"))); err == nil {
		t.Fatalf("expected error on canceled context")
	}
	if _, err := m.Get(context.Background(), "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("nothing should be written, got %v", err)
	}
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	ns := WithNamespace(m, "incoin")

	if err := ns.Commit(ctx, Put(KeyCurrentUser, []byte("x"))); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Get(ctx, "incoin:current_user"); err != nil {
		t.Fatalf("expected prefixed key in backend: %v", err)
	}
	if v, err := ns.Get(ctx, KeyCurrentUser); err != nil || string(v) != "x" {
		t.Fatalf("namespaced get = %q, %v", v, err)
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), "etcd", Options{}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
