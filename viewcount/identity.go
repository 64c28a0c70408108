package viewcount

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"view-counter/viewcount/domain"
)

const (
	DefaultClientIPHeader = "Client-IP"
	identityLength        = 16
)

// IdentityResolver deriva uma identidade pseudônima do cliente a partir do request.
// O endereço em si nunca é gravado nem logado, só o digest com sal.
type IdentityResolver struct {
	Secret []byte
	// ClientHeader é verificado primeiro. Padrão: DefaultClientIPHeader.
	ClientHeader string
	// IgnoreProxyHeaders restringe a resolução ao RemoteAddr.
	IgnoreProxyHeaders bool
}

// ClientAddr retorna o endereço aparente do cliente, olhando em ordem o header
// do cliente, o primeiro item do X-Forwarded-For e o host do RemoteAddr. "" se nenhum.
func (ir IdentityResolver) ClientAddr(r *http.Request) string {
	if !ir.IgnoreProxyHeaders {
		header := ir.ClientHeader
		if header == "" {
			header = DefaultClientIPHeader
		}
		if v := strings.TrimSpace(r.Header.Get(header)); v != "" {
			return v
		}

		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
		return host
	}
	return remote
}

// Resolve retorna a identidade de r, ou domain.UnknownIdentity.
func (ir IdentityResolver) Resolve(r *http.Request) domain.Identity {
	addr := ir.ClientAddr(r)
	if addr == "" {
		return domain.UnknownIdentity
	}
	return ir.Hash(addr)
}

// Hash retorna os 16 primeiros chars hex de sha256(addr + secret).
func (ir IdentityResolver) Hash(addr string) domain.Identity {
	h := sha256.New()
	h.Write([]byte(addr))
	h.Write(ir.Secret)
	sum := hex.EncodeToString(h.Sum(nil))
	return domain.Identity(sum[:identityLength])
}
