package trust

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrFingerprintMismatch is returned when the presented leaf certificate does
// not match the pinned fingerprint.
var ErrFingerprintMismatch = errors.New("gateway TLS fingerprint mismatch")

// UnpinnedCertificateError reports a certificate that failed chain
// verification while no pin exists. Fingerprint lets a caller ask the user
// whether to pin it.
type UnpinnedCertificateError struct {
	StableID    string
	Fingerprint string
	Err         error
}

func (e *UnpinnedCertificateError) Error() string {
	return fmt.Sprintf("gateway %s presented an untrusted certificate (sha256 %s): %v", e.StableID, e.Fingerprint, e.Err)
}

func (e *UnpinnedCertificateError) Unwrap() error { return e.Err }

// NormalizeFingerprint lowercases a hex SHA-256 fingerprint and strips
// "sha256:" prefixes, colons and whitespace.
func NormalizeFingerprint(fp string) string {
	fp = strings.TrimSpace(strings.ToLower(fp))
	fp = strings.TrimPrefix(fp, "sha256:")
	fp = strings.TrimPrefix(fp, "sha-256:")
	return strings.NewReplacer(":", "", " ", "", "-", "").Replace(fp)
}

// CertificateFingerprint returns the lowercase hex SHA-256 of the DER certificate.
func CertificateFingerprint(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// ClientConfig builds a tls.Config enforcing p. With an expected fingerprint
// only the leaf fingerprint is checked (self-signed gateways are the norm).
// Without one the system roots verify the chain.
func (p *TLSParams) ClientConfig(serverName string) *tls.Config {
	expected := NormalizeFingerprint(p.ExpectedFingerprint)
	stableID := p.StableID

	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: serverName,
		// Verification happens in VerifyConnection so the fingerprint is
		// available for the pinning prompt on failure.
		InsecureSkipVerify: true,
	}
	cfg.VerifyConnection = func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("gateway presented no certificate")
		}
		leaf := cs.PeerCertificates[0]
		got := CertificateFingerprint(leaf)

		if expected != "" {
			if got != expected {
				return fmt.Errorf("%w: expected %s, got %s", ErrFingerprintMismatch, expected, got)
			}
			return nil
		}

		opts := x509.VerifyOptions{
			DNSName:       serverName,
			Intermediates: x509.NewCertPool(),
		}
		for _, c := range cs.PeerCertificates[1:] {
			opts.Intermediates.AddCert(c)
		}
		if _, err := leaf.Verify(opts); err != nil {
			return &UnpinnedCertificateError{StableID: stableID, Fingerprint: got, Err: err}
		}
		return nil
	}
	return cfg
}
