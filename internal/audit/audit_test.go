package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	rows []TimelineRow
	last Query
}

func (s *stubRepo) Timeline(ctx context.Context, q Query) ([]TimelineRow, error) {
	s.last = q
	if q.Limit > 0 && len(s.rows) > q.Limit {
		return s.rows[:q.Limit], nil
	}
	return s.rows, nil
}

func entry(at string, actor, action string) TimelineRow {
	ts, _ := time.Parse(time.RFC3339, at)
	return TimelineRow{At: ts, ActorID: 1, Actor: actor, Action: action, Entity: "profile", EntityID: "1"}
}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepo{rows: []TimelineRow{
		entry("2026-03-10T10:00:00Z", "admin@bizos.local", "profile.update"),
		entry("2026-03-09T10:00:00Z", "admin@bizos.local", "profile.update"),
		entry("2026-03-08T10:00:00Z", "owner@bizos.local", "profile.update"),
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 2, Actor: " admin "})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 2)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Zero(t, result.Paging.PrevPage)
	assert.Equal(t, 3, repo.last.Limit)
	assert.Zero(t, repo.last.Offset)
	assert.Equal(t, "admin", repo.last.Actor)

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, result.Paging.PageSize)
	assert.Equal(t, 2*maxPageSize, repo.last.Offset)
	assert.Equal(t, 2, result.Paging.PrevPage)
	assert.False(t, result.Paging.HasNext)
}

func TestExportReadsEverything(t *testing.T) {
	repo := &stubRepo{rows: []TimelineRow{entry("2026-03-10T10:00:00Z", "a", "x"), entry("2026-03-09T10:00:00Z", "b", "y")}}
	rows, err := NewService(repo).Export(context.Background(), TimelineFilters{PageSize: 1})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Zero(t, repo.last.Limit)
}

func newTestHandler(repo *stubRepo) http.Handler {
	h := NewHandler(nil, NewService(repo))
	h.now = func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Route("/api/audit", h.MountRoutes)
	return r
}

func TestHandlerTimeline(t *testing.T) {
	repo := &stubRepo{rows: []TimelineRow{entry("2026-03-10T10:00:00Z", "admin@bizos.local", "profile.update")}}
	router := newTestHandler(repo)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit?entity=profile", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "profile.update", body.Rows[0].Action)
	assert.Equal(t, "profile", repo.last.Entity)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), repo.last.From)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), repo.last.To)
}

func TestHandlerRejectsBadFilters(t *testing.T) {
	router := newTestHandler(&stubRepo{})
	for _, target := range []string{
		"/api/audit?from=yesterday",
		"/api/audit?from=2026-03-10&to=2026-03-01",
		"/api/audit?from=2025-01-01&to=2026-03-01",
		"/api/audit?page=0",
		"/api/audit?page_size=abc",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equalf(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestHandlerExportCSV(t *testing.T) {
	row := entry("2026-03-10T10:00:00Z", "admin@bizos.local", "profile.update")
	row.Meta = map[string]any{"language": "pt"}
	router := newTestHandler(&stubRepo{rows: []TimelineRow{row}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/audit/export.csv", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "actor", records[0][2])
	assert.Equal(t, []string{"2026-03-10T10:00:00Z", "1", "admin@bizos.local", "profile.update", "profile", "1", `{"language":"pt"}`}, records[1])
}
