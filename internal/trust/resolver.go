// Package trust decides the TLS requirements for a gateway connection and
// verifies pinned certificate fingerprints.
package trust

import (
	"strings"

	"github.com/nextlevelbuilder/goclaw-node/internal/discovery"
)

// TLSParams is produced fresh for every connection attempt and never persisted here.
// AllowTOFU is always false: a fingerprint is never learned silently.
type TLSParams struct {
	Required            bool   `json:"required"`
	ExpectedFingerprint string `json:"expectedFingerprint,omitempty"`
	AllowTOFU           bool   `json:"allowTOFU"`
	StableID            string `json:"stableId"`
}

// Resolve returns the TLS parameters for ep, or nil when the connection may
// proceed without TLS.
//
// A stored pin always wins over discovery metadata. Discovery TXT records are
// unauthenticated, so they can force TLS on but never choose the expected
// fingerprint.
func Resolve(ep discovery.Endpoint, storedFingerprint string, manualTLSEnabled bool) *TLSParams {
	stableID := ep.StableID
	stored := strings.TrimSpace(storedFingerprint)

	if ep.IsManual() {
		if !manualTLSEnabled {
			return nil
		}
		// Empty stored pin: first-connection verification is left to the pinning prompt.
		return &TLSParams{
			Required:            true,
			ExpectedFingerprint: stored,
			StableID:            stableID,
		}
	}

	if stored != "" {
		return &TLSParams{
			Required:            true,
			ExpectedFingerprint: stored,
			StableID:            stableID,
		}
	}

	hinted := ep.TLSEnabled || strings.TrimSpace(ep.TLSFingerprintSHA256) != ""
	if hinted {
		return &TLSParams{
			Required: true,
			StableID: stableID,
		}
	}

	return nil
}
