// Package discovery describes reachable gateway instances, either found via
// DNS-SD service records or entered manually by the user.
package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ManualPrefix marks a stable ID as user-entered rather than discovered.
const ManualPrefix = "manual|"

// TXT record keys advertised by the gateway.
const (
	TXTGatewayTLS       = "gatewayTls"
	TXTGatewayTLSSHA256 = "gatewayTlsSha256"
	TXTDisplayName      = "displayName"
)

// Endpoint is an immutable description of one gateway instance.
// Rediscovery produces a new value; it is never mutated in place.
type Endpoint struct {
	StableID             string `json:"stableId"`
	Name                 string `json:"name"`
	Host                 string `json:"host"`
	Port                 int    `json:"port"`
	TLSEnabled           bool   `json:"tlsEnabled"`
	TLSFingerprintSHA256 string `json:"tlsFingerprintSha256,omitempty"`
}

// IsManual reports whether the endpoint was entered by the user.
func (e Endpoint) IsManual() bool {
	return strings.HasPrefix(e.StableID, ManualPrefix)
}

// URL returns the WebSocket URL for the endpoint.
func (e Endpoint) URL(useTLS bool) string {
	scheme := "ws"
	if useTLS {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(e.Host, strconv.Itoa(e.Port)))
}

// ManualEndpoint builds an endpoint for a user-entered host and port.
// TLS is decided by the manual TLS setting, not by the endpoint itself.
func ManualEndpoint(host string, port int) Endpoint {
	host = strings.TrimSpace(host)
	return Endpoint{
		StableID: fmt.Sprintf("%s%s|%d", ManualPrefix, strings.ToLower(host), port),
		Name:     host,
		Host:     host,
		Port:     port,
	}
}

// FromServiceRecord builds an endpoint from a resolved DNS-SD service.
// TXT values are unauthenticated: they can hint TLS but are never trusted as a pin.
func FromServiceRecord(instance, domain, host string, port int, txt map[string]string) Endpoint {
	name := DecodeBonjourEscapes(instance)
	if dn := strings.TrimSpace(txt[TXTDisplayName]); dn != "" {
		name = DecodeBonjourEscapes(dn)
	}
	if domain == "" {
		domain = "local."
	}
	return Endpoint{
		StableID:             fmt.Sprintf("bonjour|%s|%s", domain, DecodeBonjourEscapes(instance)),
		Name:                 name,
		Host:                 strings.TrimSuffix(host, "."),
		Port:                 port,
		TLSEnabled:           parseTXTBool(txt[TXTGatewayTLS]),
		TLSFingerprintSHA256: strings.TrimSpace(txt[TXTGatewayTLSSHA256]),
	}
}

func parseTXTBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
