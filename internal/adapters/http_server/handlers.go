// internal/adapters/http_server/handlers.go
package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hostaway_reviews/internal/adapters/observability"
	"hostaway_reviews/internal/app"
	"hostaway_reviews/internal/domain"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Q        *app.QueryService
	WriteRPS int
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type patchRequest struct {
	ID       json.RawMessage `json:"id"`
	Approved *bool           `json:"approved"`
	Featured *bool           `json:"featured"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/reviews", func(r chi.Router) {
		r.MethodNotAllowed(h.methodNotAllowed)
		r.Get("/", h.listReviews)
		r.With(WriteLimit(h.WriteRPS)).Patch("/", h.updateReview)
	})
	s.mux.Get("/stats", h.stats)
	s.mux.Get("/showcase", h.showcase)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Status: "error", Message: msg})
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func (h *Handlers) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, PATCH")
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// parseFilter reads the dashboard filters; "all" means no filter, like the UI selects.
func parseFilter(r *http.Request) (domain.ReviewFilter, string) {
	q := r.URL.Query()
	opt := func(k string) string {
		v := strings.TrimSpace(q.Get(k))
		if strings.EqualFold(v, "all") {
			return ""
		}
		return v
	}
	f := domain.ReviewFilter{
		Search:  strings.TrimSpace(q.Get("q")),
		Listing: opt("listing"),
		Channel: opt("channel"),
	}
	if v := opt("minRating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return f, "minRating must be an integer"
		}
		f.MinRating = &n
	}
	for _, b := range []struct {
		key string
		dst **bool
	}{{"approved", &f.Approved}, {"featured", &f.Featured}} {
		if v := opt(b.key); v != "" {
			x, err := strconv.ParseBool(v)
			if err != nil {
				return f, b.key + " must be true or false"
			}
			*b.dst = &x
		}
	}
	sort, ok := app.ParseSort(q.Get("sort"))
	if !ok {
		return f, "sort must be date or rating"
	}
	f.Sort = sort
	return f, ""
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	f, bad := parseFilter(r)
	if bad != "" {
		writeError(w, http.StatusBadRequest, bad)
		return
	}
	rs, err := h.Q.List(r.Context(), f)
	if err != nil {
		log.Error().Err(err).Msg("list reviews failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}

	n := len(rs)
	etag, body := calcETagAndBody(envelope{Status: "success", Count: &n, Data: rs})
	if body == nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}
	// The property page polls; let it short-circuit when nothing changed.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReviews body")
	}
}

// parseReviewID accepts only a positive JSON integer.
func parseReviewID(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	id, err := n.Int64()
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	id, ok := parseReviewID(req.ID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid review ID")
		return
	}

	patch := domain.ModerationPatch{Approved: req.Approved, Featured: req.Featured}
	res, err := h.Q.Update(r.Context(), id, patch)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid review ID")
		return
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Review not found")
		return
	case err != nil:
		log.Error().Err(err).Int64("id", id).Msg("update review failed")
		writeError(w, http.StatusInternalServerError, "Failed to update review")
		return
	}

	if patch.Approved != nil {
		observability.ObserveModeration("approved", *patch.Approved)
	}
	if patch.Featured != nil {
		observability.ObserveModeration("featured", *patch.Featured)
	}
	log.Info().Int64("id", id).Bool("approved", res.Approved).Bool("featured", res.Featured).Msg("review moderated")
	writeJSON(w, http.StatusOK, envelope{Status: "success", Message: "Review updated successfully", Data: res})
}

func (h *Handlers) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Q.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("review stats failed")
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: st})
}

func (h *Handlers) showcase(w http.ResponseWriter, r *http.Request) {
	listing := strings.TrimSpace(r.URL.Query().Get("listing"))
	if listing == "" {
		writeError(w, http.StatusBadRequest, "listing is required")
		return
	}
	sc, err := h.Q.Showcase(r.Context(), listing)
	if err != nil {
		log.Error().Err(err).Str("listing", listing).Msg("showcase failed")
		writeError(w, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}
	writeJSON(w, http.StatusOK, envelope{Status: "success", Data: sc})
}
