// Package identity manages the node's ed25519 device key.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "goclaw-node.device-identity"
	keyringUser    = "ed25519"
)

// keyringProvider abstracts go-keyring for tests.
type keyringProvider interface {
	Set(service, user, password string) error
	Get(service, user string) (string, error)
}

type osKeyring struct{}

func (osKeyring) Set(service, user, password string) error { return keyring.Set(service, user, password) }
func (osKeyring) Get(service, user string) (string, error)  { return keyring.Get(service, user) }

// Identity is the device key pair. DeviceID is the hex SHA-256 of the public key.
type Identity struct {
	DeviceID  string
	PublicKey ed25519.PublicKey
	private   ed25519.PrivateKey
}

func fromSeed(seed []byte) (*Identity, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("device key: seed has %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	sum := sha256.Sum256(pub)
	return &Identity{DeviceID: hex.EncodeToString(sum[:]), PublicKey: pub, private: priv}, nil
}

// Sign signs msg with the device key.
func (id *Identity) Sign(msg []byte) []byte { return ed25519.Sign(id.private, msg) }

// PublicKeyBase64URL returns the raw public key, base64url without padding.
func (id *Identity) PublicKeyBase64URL() string {
	return base64.RawURLEncoding.EncodeToString(id.PublicKey)
}

// Store loads or creates the device key in the OS keychain.
type Store struct {
	service  string
	provider keyringProvider
}

func NewStore() *Store {
	return &Store{service: keyringService, provider: osKeyring{}}
}

// LoadOrCreate returns the stored identity, generating and saving a new key
// on first use.
func (s *Store) LoadOrCreate() (*Identity, error) {
	raw, err := s.provider.Get(s.service, keyringUser)
	switch {
	case err == nil:
		seed, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
		if decErr != nil {
			return nil, fmt.Errorf("decode device key: %w", decErr)
		}
		return fromSeed(seed)
	case errors.Is(err, keyring.ErrNotFound):
	default:
		return nil, fmt.Errorf("load device key: %w", err)
	}

	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate device key: %w", err)
	}
	if err := s.provider.Set(s.service, keyringUser, base64.StdEncoding.EncodeToString(seed)); err != nil {
		return nil, fmt.Errorf("save device key: %w", err)
	}
	return fromSeed(seed)
}
