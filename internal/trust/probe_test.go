package trust

import (
	"context"
	"net"
	"strings"
	"testing"
)

func TestProbe_ReturnsLeafFingerprint(t *testing.T) {
	srv, want := newTLSServer(t)
	got, err := Probe(context.Background(), strings.TrimPrefix(srv.URL, "https://"), "127.0.0.1")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if got != want {
		t.Fatalf("fingerprint %s, want %s", got, want)
	}
}

func TestProbe_PlainTCPFails(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		c, err := ln.Accept()
		if err == nil {
			_, _ = c.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
			c.Close()
		}
	}()

	if _, err := Probe(context.Background(), ln.Addr().String(), "127.0.0.1"); err == nil {
		t.Fatal("expected handshake failure against plain TCP")
	}
}
