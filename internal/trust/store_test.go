package trust

import (
	"context"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyringStore_RoundTrip(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()
	s := NewKeyringStore()

	fp, err := s.Load(ctx, "manual|gw|1")
	if err != nil || fp != "" {
		t.Fatalf("expected empty pin, got %q err=%v", fp, err)
	}

	if err := s.Save(ctx, "manual|gw|1", "AB:CD"); err != nil {
		t.Fatalf("save: %v", err)
	}
	fp, err = s.Load(ctx, "manual|gw|1")
	if err != nil || fp != "abcd" {
		t.Fatalf("expected normalized pin, got %q err=%v", fp, err)
	}

	if err := s.Delete(ctx, "manual|gw|1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "manual|gw|1"); err != nil {
		t.Fatalf("deleting a missing pin should succeed: %v", err)
	}
	fp, _ = s.Load(ctx, "manual|gw|1")
	if fp != "" {
		t.Fatalf("expected pin removed, got %q", fp)
	}
}

func TestKeyringStore_RejectsEmpty(t *testing.T) {
	keyring.MockInit()
	if err := NewKeyringStore().Save(context.Background(), "x", "  "); err == nil {
		t.Fatal("expected error for empty fingerprint")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Save(ctx, "a", "sha256:FF"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if fp, _ := s.Load(ctx, "a"); fp != "ff" {
		t.Fatalf("expected ff, got %q", fp)
	}
	_ = s.Delete(ctx, "a")
	if fp, _ := s.Load(ctx, "a"); fp != "" {
		t.Fatalf("expected empty, got %q", fp)
	}
}
