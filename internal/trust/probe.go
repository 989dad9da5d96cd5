package trust

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"
)

const probeTimeout = 10 * time.Second

// Probe connects to addr over TLS without verifying the chain and returns
// the leaf certificate fingerprint. The result is only a candidate: it must
// be confirmed by the user before it is saved as a pin.
func Probe(ctx context.Context, addr, serverName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	d := &tls.Dialer{
		NetDialer: &net.Dialer{},
		Config: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			ServerName:         serverName,
			InsecureSkipVerify: true,
		},
	}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", addr, err)
	}
	defer conn.Close()

	tc, ok := conn.(*tls.Conn)
	if !ok {
		return "", fmt.Errorf("probe %s: not a TLS connection", addr)
	}
	certs := tc.ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return "", errors.New("gateway presented no certificate")
	}
	return CertificateFingerprint(certs[0]), nil
}
