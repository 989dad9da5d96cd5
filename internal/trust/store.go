package trust

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"
)

const keyringService = "goclaw-node.gateway-tls"

// FingerprintStore persists pinned gateway fingerprints keyed by stable ID.
// Load returns "" when nothing is pinned.
type FingerprintStore interface {
	Load(ctx context.Context, stableID string) (string, error)
	Save(ctx context.Context, stableID, fingerprint string) error
	Delete(ctx context.Context, stableID string) error
}

// keyringProvider abstracts go-keyring for tests.
type keyringProvider interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
	Delete(service, user string) error
}

type osKeyring struct{}

func (osKeyring) Set(service, user, password string) error { return keyring.Set(service, user, password) }
func (osKeyring) Get(service, user string) (string, error)  { return keyring.Get(service, user) }
func (osKeyring) Delete(service, user string) error         { return keyring.Delete(service, user) }

// KeyringStore keeps pins in the OS keychain.
type KeyringStore struct {
	service  string
	provider keyringProvider
}

// NewKeyringStore returns a store using the OS keychain.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService, provider: osKeyring{}}
}

func (s *KeyringStore) Load(_ context.Context, stableID string) (string, error) {
	fp, err := s.provider.Get(s.service, stableID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load fingerprint for %s: %w", stableID, err)
	}
	return strings.TrimSpace(fp), nil
}

func (s *KeyringStore) Save(_ context.Context, stableID, fingerprint string) error {
	fp := NormalizeFingerprint(fingerprint)
	if fp == "" {
		return fmt.Errorf("save fingerprint for %s: empty fingerprint", stableID)
	}
	if err := s.provider.Set(s.service, stableID, fp); err != nil {
		return fmt.Errorf("save fingerprint for %s: %w", stableID, err)
	}
	return nil
}

func (s *KeyringStore) Delete(_ context.Context, stableID string) error {
	err := s.provider.Delete(s.service, stableID)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete fingerprint for %s: %w", stableID, err)
	}
	return nil
}

// MemoryStore is an in-process FingerprintStore.
type MemoryStore struct {
	mu   sync.RWMutex
	pins map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pins: make(map[string]string)}
}

func (s *MemoryStore) Load(_ context.Context, stableID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pins[stableID], nil
}

func (s *MemoryStore) Save(_ context.Context, stableID, fingerprint string) error {
	fp := NormalizeFingerprint(fingerprint)
	if fp == "" {
		return fmt.Errorf("save fingerprint for %s: empty fingerprint", stableID)
	}
	s.mu.Lock()
	s.pins[stableID] = fp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, stableID string) error {
	s.mu.Lock()
	delete(s.pins, stableID)
	s.mu.Unlock()
	return nil
}
