package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostaway_reviews/internal/adapters/hostaway"
	server "hostaway_reviews/internal/adapters/http_server"
	"hostaway_reviews/internal/app"
	"hostaway_reviews/internal/domain"
	"hostaway_reviews/internal/storage/memory"
)

type listBody struct {
	Status string                   `json:"status"`
	Count  int                      `json:"count"`
	Data   []domain.CanonicalReview `json:"data"`
}

type patchBody struct {
	Status  string                  `json:"status"`
	Message string                  `json:"message"`
	Data    domain.ModerationResult `json:"data"`
}

type failingSource struct{}

func (failingSource) RawReviews(context.Context) ([]map[string]any, error) {
	return nil, errors.New("upstream down")
}

func newAPI(t *testing.T, src domain.ReviewSource, writeRPS int) (http.Handler, *memory.Store) {
	t.Helper()
	st := memory.New()
	srv := server.New()
	srv.MountHandlers(&server.Handlers{Q: app.NewQueryService(src, st), WriteRPS: writeRPS})
	return srv.Mux(), st
}

func do(t *testing.T, h http.Handler, method, target, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func findReview(rs []domain.CanonicalReview, id int64) (domain.CanonicalReview, bool) {
	for _, r := range rs {
		if r.ID == id {
			return r, true
		}
	}
	return domain.CanonicalReview{}, false
}

func TestGetReviews_ListsNormalizedFixture(t *testing.T) {
	h, _ := newAPI(t, hostaway.NewFixture(), 0)

	rr := do(t, h, http.MethodGet, "/reviews", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Header().Get("ETag"))

	body := decode[listBody](t, rr)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 7, body.Count)
	require.Len(t, body.Data, 7)

	r := body.Data[0]
	assert.EqualValues(t, 7453, r.ID)
	assert.Equal(t, 10, r.OverallRating)
	assert.Equal(t, "2020-08-21 22:45:14", r.SubmittedAt)
	assert.Equal(t, "airbnb", r.Channel)
	assert.False(t, r.Approved)
	assert.False(t, r.Featured)

	// raw field names stay on the wire
	assert.Contains(t, rr.Body.String(), `"overallRating":10`)
	assert.Contains(t, rr.Body.String(), `"listingName":"2B N1 A - 29 Shoreditch Heights"`)
}

func TestGetReviews_ETagNotModified(t *testing.T) {
	h, _ := newAPI(t, hostaway.NewFixture(), 0)

	first := do(t, h, http.MethodGet, "/reviews", "")
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	second := do(t, h, http.MethodGet, "/reviews", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, second.Code)

	// a moderation change invalidates the tag
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPatch, "/reviews", `{"id":7454,"approved":true}`).Code)
	third := do(t, h, http.MethodGet, "/reviews", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, third.Code)
}

func TestPatchReviews_FeatureThenList(t *testing.T) {
	h, _ := newAPI(t, hostaway.NewFixture(), 0)

	rr := do(t, h, http.MethodPatch, "/reviews", `{"id":7453,"featured":true}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	pb := decode[patchBody](t, rr)
	assert.Equal(t, "success", pb.Status)
	assert.Equal(t, domain.ModerationResult{ID: 7453, Approved: false, Featured: true}, pb.Data)

	list := decode[listBody](t, do(t, h, http.MethodGet, "/reviews", ""))
	for _, r := range list.Data {
		if r.ID == 7453 {
			assert.True(t, r.Featured)
			assert.False(t, r.Approved)
			continue
		}
		assert.False(t, r.Featured, "review %d", r.ID)
	}
}

func TestPatchReviews_BadIDs(t *testing.T) {
	h, st := newAPI(t, hostaway.NewFixture(), 0)

	for _, body := range []string{
		`{"approved":true}`,
		`{"id":"7453","approved":true}`,
		`{"id":null}`,
		`{"id":0,"approved":true}`,
		`{"id":-4}`,
		`{"id":74.5}`,
	} {
		rr := do(t, h, http.MethodPatch, "/reviews", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "error", decode[map[string]any](t, rr)["status"])
	}

	rr := do(t, h, http.MethodPatch, "/reviews", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPatch, "/reviews", `{"id":7453,"approved":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Zero(t, st.Len())
}

func TestPatchReviews_UnknownIDIsNotFound(t *testing.T) {
	h, st := newAPI(t, hostaway.NewFixture(), 0)

	rr := do(t, h, http.MethodPatch, "/reviews", `{"id":999999,"approved":true}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Review not found", body["message"])
	assert.Zero(t, st.Len(), "unknown id must not create state")
}

func TestReviews_MethodNotAllowed(t *testing.T) {
	h, _ := newAPI(t, hostaway.NewFixture(), 0)

	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rr := do(t, h, m, "/reviews", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code, m)
		assert.Equal(t, "GET, PATCH", rr.Header().Get("Allow"))
		assert.Equal(t, "error", decode[map[string]any](t, rr)["status"])
	}
}

func TestGetReviews_SourceFailureIs500(t *testing.T) {
	h, _ := newAPI(t, failingSource{}, 0)

	rr := do(t, h, http.MethodGet, "/reviews", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, "Failed to fetch reviews", body["message"])
	assert.NotContains(t, rr.Body.String(), "upstream down")

	rr = do(t, h, http.MethodPatch, "/reviews", `{"id":7453,"approved":true}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestGetReviews_Filters(t *testing.T) {
	h, _ := newAPI(t, hostaway.NewFixture(), 0)

	body := decode[listBody](t, do(t, h, http.MethodGet, "/reviews?minRating=9&sort=rating", ""))
	require.NotEmpty(t, body.Data)
	assert.Equal(t, len(body.Data), body.Count)
	for i, r := range body.Data {
		assert.GreaterOrEqual(t, r.OverallRating, 9)
		if i > 0 {
			assert.LessOrEqual(t, r.OverallRating, body.Data[i-1].OverallRating)
		}
	}

	body = decode[listBody](t, do(t, h, http.MethodGet, "/reviews?channel=vrbo&listing=all", ""))
	assert.Len(t, body.Data, 2)

	body = decode[listBody](t, do(t, h, http.MethodGet, "/reviews?q=wifi", ""))
	require.Len(t, body.Data, 1)
	assert.EqualValues(t, 7455, body.Data[0].ID)

	for _, bad := range []string{"/reviews?minRating=high", "/reviews?sort=guest", "/reviews?approved=maybe"} {
		assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, bad, "").Code, bad)
	}
}

func TestStatsAndShowcase(t *testing.T) {
	h, _ := newAPI(t, hostaway.NewFixture(), 0)

	for _, body := range []string{
		`{"id":7453,"approved":true,"featured":true}`,
		`{"id":7454,"approved":true}`,
		`{"id":7458,"featured":true}`, // featured but not approved: hidden
	} {
		require.Equal(t, http.StatusOK, do(t, h, http.MethodPatch, "/reviews", body).Code)
	}

	var stats struct {
		Data domain.ReviewStats `json:"data"`
	}
	rr := do(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 7, stats.Data.Total)
	assert.Equal(t, 2, stats.Data.Approved)
	assert.Equal(t, 2, stats.Data.Featured)

	var sc struct {
		Data domain.Showcase `json:"data"`
	}
	rr = do(t, h, http.MethodGet, "/showcase?listing=2B+N1+A+-+29+Shoreditch+Heights", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sc))
	assert.Equal(t, 2, sc.Data.Count)
	require.Len(t, sc.Data.Featured, 1)
	assert.EqualValues(t, 7453, sc.Data.Featured[0].ID)
	_, hidden := findReview(sc.Data.Approved, 7458)
	assert.False(t, hidden)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/showcase", "").Code)
}

func TestPatchReviews_WriteLimit(t *testing.T) {
	h, _ := newAPI(t, hostaway.NewFixture(), 1) // burst of 2

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, h, http.MethodPatch, "/reviews", `{"id":7453,"approved":true}`).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// reads are not throttled
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/reviews", "").Code)
}

func TestHealthz(t *testing.T) {
	h, _ := newAPI(t, hostaway.NewFixture(), 0)
	rr := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}
