package trust

import (
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTLSServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, CertificateFingerprint(srv.Certificate())
}

func dial(t *testing.T, srv *httptest.Server, cfg *tls.Config) error {
	t.Helper()
	addr := strings.TrimPrefix(srv.URL, "https://")
	conn, err := tls.Dial("tcp", addr, cfg)
	if err != nil {
		return err
	}
	conn.Close()
	return nil
}

func TestClientConfig_PinnedMatch(t *testing.T) {
	srv, fp := newTLSServer(t)
	p := &TLSParams{Required: true, ExpectedFingerprint: strings.ToUpper(fp), StableID: "manual|127.0.0.1|1"}
	if err := dial(t, srv, p.ClientConfig("127.0.0.1")); err != nil {
		t.Fatalf("expected pinned handshake to succeed: %v", err)
	}
}

func TestClientConfig_PinnedMismatch(t *testing.T) {
	srv, _ := newTLSServer(t)
	p := &TLSParams{Required: true, ExpectedFingerprint: strings.Repeat("ab", 32), StableID: "x"}
	err := dial(t, srv, p.ClientConfig("127.0.0.1"))
	if !errors.Is(err, ErrFingerprintMismatch) {
		t.Fatalf("expected fingerprint mismatch, got %v", err)
	}
}

func TestClientConfig_UnpinnedSurfacesFingerprint(t *testing.T) {
	srv, fp := newTLSServer(t)
	p := &TLSParams{Required: true, StableID: "bonjour|local.|gw"}
	err := dial(t, srv, p.ClientConfig("127.0.0.1"))

	var unpinned *UnpinnedCertificateError
	if !errors.As(err, &unpinned) {
		t.Fatalf("expected UnpinnedCertificateError, got %v", err)
	}
	if unpinned.Fingerprint != fp || unpinned.StableID != "bonjour|local.|gw" {
		t.Fatalf("unexpected error contents: %+v", unpinned)
	}
}

func TestNormalizeFingerprint(t *testing.T) {
	cases := []struct{ in, want string }{
		{"AB:CD:EF", "abcdef"},
		{"sha256:AB CD", "abcd"},
		{"  SHA-256:ab-cd", "abcd"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeFingerprint(tc.in); got != tc.want {
			t.Fatalf("NormalizeFingerprint(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
