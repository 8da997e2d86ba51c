// Package ktls provides TLS server configuration and ALPN helpers, adapted
// from the teacher's client-side tlsconfig package to the server side: the
// version profiles and cipher suite tables are orientation-agnostic and kept
// close to the original; ServerConfig and NegotiateALPN are new.
package ktls

import (
	"crypto/tls"

	"github.com/kestrelhttp/kestrel/internal/kconst"
)

// VersionProfile pins a min/max TLS version range.
type VersionProfile struct {
	Min, Max uint16
}

var (
	// ProfileModern restricts the handshake to TLS 1.3.
	ProfileModern = VersionProfile{Min: tls.VersionTLS13, Max: tls.VersionTLS13}
	// ProfileSecure allows TLS 1.2 and 1.3, the recommended default.
	ProfileSecure = VersionProfile{Min: tls.VersionTLS12, Max: tls.VersionTLS13}
)

// CipherSuitesTLS12Secure lists ECDHE+AEAD suites for TLS 1.2 fallback.
var CipherSuitesTLS12Secure = []uint16{
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
}

// ApplyVersionProfile pins config's min/max protocol version.
func ApplyVersionProfile(config *tls.Config, profile VersionProfile) {
	config.MinVersion = profile.Min
	config.MaxVersion = profile.Max
}

// ServerConfig builds a *tls.Config from a certificate/key pair on disk,
// advertising h2 then http/1.1 over ALPN as required by spec.md §6 (the wire
// encoding of the source's literal "\x02h2" advertisement is handled by
// crypto/tls; we only need to list the protocol names in preference order).
func ServerConfig(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, err
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{kconst.ALPNH2, kconst.ALPNHTTP},
	}
	ApplyVersionProfile(cfg, ProfileSecure)
	cfg.CipherSuites = CipherSuitesTLS12Secure
	return cfg, nil
}

// NegotiateALPN returns the protocol negotiated over ALPN by a completed TLS
// handshake, or "" if the peer didn't participate in ALPN (treated as
// HTTP/1.x per §6).
func NegotiateALPN(conn *tls.Conn) string {
	return conn.ConnectionState().NegotiatedProtocol
}
