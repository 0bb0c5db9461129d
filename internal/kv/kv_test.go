package kv

import (
	"context"
	"testing"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()

	backends := make(map[string]Store)
	for _, name := range []string{"memory", "bolt", "sqlite"} {
		s, err := Open(name, t.TempDir())
		if err != nil {
			t.Fatalf("Open(%q) failed: %v", name, err)
		}
		t.Cleanup(func() { _ = s.Close() })
		backends[name] = s
	}
	return backends
}

func TestRoundtrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, found, err := s.Get(ctx, "missing")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if found {
				t.Error("missing key should not be found")
			}

			if err := s.Put(ctx, "k", []byte("first")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if err := s.Put(ctx, "k", []byte("second")); err != nil {
				t.Fatalf("Put (overwrite) failed: %v", err)
			}

			v, found, err := s.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !found {
				t.Fatal("key should be found after Put")
			}
			if string(v) != "second" {
				t.Errorf("value = %q, want %q", v, "second")
			}
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open("redis", t.TempDir()); err == nil {
		t.Error("Open should reject an unknown backend")
	}
}

func TestOpen_DefaultIsBolt(t *testing.T) {
	s, err := Open("", t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if _, ok := s.(*Bolt); !ok {
		t.Errorf("default backend = %T, want *Bolt", s)
	}
}
