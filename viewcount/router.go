package viewcount

import (
	"net/http"
	"strings"
)

// Paths das rotas. Essas strings são contrato com os clientes instalados.
const (
	PathTrack    = "/track"
	PathMostRead = "/posts/ibl-mostread"
	PathViews    = "/posts/{id}/views"
	PathNonce    = "/nonce"
	PathHealthz  = "/healthz"
	PathStats    = "/stats"
)

type Middleware func(http.Handler) http.Handler

// Route liga um (method, path) ao seu handler.
type Route struct {
	Method  string
	Path    string
	Handler http.Handler
}

// Routes retorna a tabela de rotas sob base (ex.: "/wp-json/iblmemorare/v1").
// trackMW só envolve o endpoint de tracking.
func (h *Handler) Routes(base string, trackMW ...Middleware) []Route {
	base = "/" + strings.Trim(base, "/")
	if base == "/" {
		base = ""
	}
	return []Route{
		{Method: http.MethodPost, Path: base + PathTrack, Handler: Chain(http.HandlerFunc(h.Track), trackMW...)},
		{Method: http.MethodGet, Path: base + PathMostRead, Handler: http.HandlerFunc(h.MostRead)},
		{Method: http.MethodGet, Path: base + PathViews, Handler: http.HandlerFunc(h.Views)},
		{Method: http.MethodGet, Path: base + PathNonce, Handler: http.HandlerFunc(h.Nonce)},
		{Method: http.MethodGet, Path: base + PathStats, Handler: http.HandlerFunc(h.Stats)},
		{Method: http.MethodGet, Path: PathHealthz, Handler: http.HandlerFunc(h.Healthz)},
	}
}

// NewMux registra a tabela de rotas num ServeMux novo.
func NewMux(routes []Route) *http.ServeMux {
	mux := http.NewServeMux()
	for _, rt := range routes {
		mux.Handle(rt.Method+" "+rt.Path, rt.Handler)
	}
	return mux
}

// Chain envolve h de modo que mws[0] seja o middleware mais externo.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
