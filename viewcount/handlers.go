package viewcount

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"view-counter/viewcount/application"
	"view-counter/viewcount/domain"

	"go.uber.org/zap"
)

const (
	HeaderNonce         = "X-WP-Nonce"
	DefaultCookiePrefix = "viewcount_viewed_"

	dateLayout   = "2006-01-02"
	maxTrackBody = 64 << 10
)

// NonceIssuer emite tokens anti-forgery para o script da página.
type NonceIssuer interface {
	Issue() (token string, expires time.Time, err error)
}

// Handler reúne os endpoints do contador. Monte uma vez no start-up.
type Handler struct {
	Tracker  application.Tracker
	Ranker   application.RankService
	Items    domain.ItemStore
	Counts   domain.CounterStore
	Nonces   NonceIssuer
	Resolver IdentityResolver
	// StatsStore é opcional; falhas são logadas e ignoradas.
	StatsStore domain.StatsStore
	Logger     *zap.Logger
	Clock      domain.Clock

	// CookiePrefix + id do post é o nome do marcador "já visto" do cliente.
	CookiePrefix string
	// Timeout limita as chamadas de storage dos endpoints de leitura. 0 = sem limite.
	Timeout time.Duration
}

// Track atende POST /track.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	id := postIDFrom(w, r)
	req := domain.TrackRequest{
		ItemID:        id,
		UserAgent:     r.UserAgent(),
		MarkerPresent: h.markerPresent(r, id),
		Identity:      h.Resolver.Resolve(r),
		Token:         r.Header.Get(HeaderNonce),
	}

	res := h.Tracker.Track(r.Context(), req)
	h.report(r.Context(), req, res)

	switch res.Outcome {
	case domain.Accepted:
		views := res.Views
		writeJSON(w, http.StatusOK, trackResponse{Success: true, Views: &views})
	case domain.Declined:
		writeJSON(w, http.StatusOK, trackResponse{Success: false, Reason: res.Reason})
	default:
		status, msg := errorStatus(res.Err)
		writeJSON(w, status, trackResponse{Error: msg})
	}
}

// MostRead atende GET /posts/ibl-mostread.
func (h *Handler) MostRead(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := domain.RankQuery{
		Limit:      int(absInt(params.Get("limit"))),
		WindowDays: int(absInt(params.Get("days"))),
		ItemType:   strings.TrimSpace(params.Get("post_type")),
		Category:   absInt(params.Get("category")),
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	ranking, err := h.Ranker.Rank(ctx, q)
	if err != nil {
		LoggerFrom(r.Context(), h.Logger).Error("most read query failed", zap.Error(err))
		status, msg := errorStatus(err)
		writeJSON(w, status, map[string]any{"success": false, "error": msg})
		return
	}

	data := make([]rankedItemResponse, 0, len(ranking.Items))
	for _, it := range ranking.Items {
		data = append(data, rankedItemResponse{
			ID:        int64(it.ID),
			Title:     it.Title,
			Excerpt:   it.Excerpt,
			Date:      it.PublishedAt.Format(dateLayout),
			URL:       it.URL,
			Views:     it.Views,
			Thumbnail: it.Thumbnail,
		})
	}

	resp := mostReadResponse{
		Success: true,
		Data:    data,
		Total:   len(data),
		Limit:   ranking.Query.Limit,
		Days:    ranking.Query.WindowDays,
		// 0 sem filtro, como os clientes instalados esperam.
		Category: ranking.Query.Category,
	}
	writeJSON(w, http.StatusOK, resp)
}

// Views atende GET /posts/{id}/views, a contagem exibida na UI editorial.
func (h *Handler) Views(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || n <= 0 {
		status, msg := errorStatus(domain.ErrInvalidID)
		writeJSON(w, status, map[string]any{"success": false, "error": msg})
		return
	}
	id := domain.ItemID(n)

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	views, err := h.itemViews(ctx, id)
	if err != nil {
		if domain.KindOf(err) == domain.KindStorage {
			LoggerFrom(r.Context(), h.Logger).Error("views lookup failed", zap.Int64("post_id", n), zap.Error(err))
		}
		status, msg := errorStatus(err)
		writeJSON(w, status, map[string]any{"success": false, "error": msg})
		return
	}
	writeJSON(w, http.StatusOK, viewsResponse{Success: true, ID: n, Views: views})
}

func (h *Handler) itemViews(ctx context.Context, id domain.ItemID) (int64, error) {
	if _, err := h.Items.Get(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, domain.StorageError(err, "load item")
	}
	views, err := h.Counts.Get(ctx, id)
	if err != nil {
		return 0, domain.StorageError(err, "load view count")
	}
	return views, nil
}

// Nonce atende GET /nonce.
func (h *Handler) Nonce(w http.ResponseWriter, r *http.Request) {
	if h.Nonces == nil {
		http.NotFound(w, r)
		return
	}
	token, exp, err := h.Nonces.Issue()
	if err != nil {
		LoggerFrom(r.Context(), h.Logger).Error("issue nonce", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal error"})
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, nonceResponse{
		Nonce:     token,
		ExpiresIn: int(time.Until(exp).Seconds()),
	})
}

// Stats atende GET /stats: totais de outcome do backend de stats configurado, ou
// de um item com ?post_id=N.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	reader, ok := h.StatsStore.(domain.StatsReader)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Statistics disabled"})
		return
	}

	var id domain.ItemID
	if raw := r.URL.Query().Get("post_id"); raw != "" {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": domain.ErrInvalidID.Message})
			return
		}
		id = domain.ItemID(n)
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	var (
		totals map[string]int64
		err    error
	)
	switch items, perItem := reader.(domain.ItemStatsReader); {
	case id == 0:
		totals, err = reader.Totals(ctx)
	case perItem:
		totals, err = items.ItemTotals(ctx, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Statistics disabled"})
		return
	}
	if err != nil {
		LoggerFrom(r.Context(), h.Logger).Error("read tracking stats", zap.Error(err))
		status, msg := errorStatus(domain.StorageError(err, "read stats"))
		writeJSON(w, status, map[string]any{"success": false, "error": msg})
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Success: true, Totals: totals})
}

func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (h *Handler) markerPresent(r *http.Request, id domain.ItemID) bool {
	if id <= 0 {
		return false
	}
	prefix := h.CookiePrefix
	if prefix == "" {
		prefix = DefaultCookiePrefix
	}
	_, err := r.Cookie(prefix + strconv.FormatInt(int64(id), 10))
	return err == nil
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.Timeout)
}

// report loga o outcome e registra no stats store.
func (h *Handler) report(ctx context.Context, req domain.TrackRequest, res domain.TrackResult) {
	log := LoggerFrom(ctx, h.Logger)
	fields := []zap.Field{
		zap.Int64("post_id", int64(req.ItemID)),
		zap.String("outcome", string(res.Outcome)),
		zap.String("identity", string(req.Identity)),
	}

	ev := domain.TrackEvent{ItemID: req.ItemID, Outcome: res.Outcome, Reason: res.Reason, At: time.Now()}
	if h.Clock != nil {
		ev.At = h.Clock.Now()
	}

	switch res.Outcome {
	case domain.Accepted:
		log.Info("view counted", append(fields, zap.Int64("views", res.Views))...)
	case domain.Declined:
		log.Debug("view declined", append(fields, zap.String("reason", res.Reason))...)
	default:
		kind := domain.KindOf(res.Err)
		ev.Reason = string(kind)
		if kind == domain.KindStorage || kind == "" {
			log.Error("view tracking failed", append(fields, zap.Error(res.Err))...)
		} else {
			log.Debug("view rejected", append(fields, zap.String("reason", string(kind)), zap.Error(res.Err))...)
		}
	}

	if h.StatsStore != nil {
		if err := h.StatsStore.Record(ctx, ev); err != nil {
			log.Warn("record tracking stats", zap.Error(err))
		}
	}
}

// errorStatus traduz um erro para status HTTP e mensagem para o cliente.
func errorStatus(err error) (int, string) {
	var e *domain.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, "Internal error"
	}
	switch e.Kind {
	case domain.KindAuth:
		return http.StatusUnauthorized, e.Message
	case domain.KindValidation:
		return http.StatusBadRequest, e.Message
	case domain.KindNotFound:
		return http.StatusNotFound, e.Message
	case domain.KindStorage:
		return http.StatusServiceUnavailable, "Storage unavailable"
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable, e.Message
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

// postIDFrom lê post_id de um corpo JSON ou do form/query.
// Ausente ou inválido vira 0, que o tracker rejeita.
func postIDFrom(w http.ResponseWriter, r *http.Request) domain.ItemID {
	if r.Body != nil && r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, maxTrackBody)
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" && r.Body != nil {
		var body struct {
			PostID json.Number `json:"post_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return 0
		}
		n, err := strconv.ParseInt(strings.TrimSpace(body.PostID.String()), 10, 64)
		if err != nil {
			return 0
		}
		return domain.ItemID(n)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("post_id")), 10, 64)
	if err != nil {
		return 0
	}
	return domain.ItemID(n)
}
