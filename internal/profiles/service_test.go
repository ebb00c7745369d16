package profiles

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizos/bizos/internal/nav"
	"github.com/bizos/bizos/internal/rbac"
	"github.com/bizos/bizos/internal/shared"
	"github.com/bizos/bizos/internal/view"
)

type memoryRepo struct {
	profiles map[int64]Profile
	updates  int
}

func (m *memoryRepo) GetProfile(ctx context.Context, userID int64) (Profile, error) {
	p, ok := m.profiles[userID]
	if !ok || p.DeletedAt != nil {
		return Profile{}, shared.ErrNotFound
	}
	return p, nil
}

func (m *memoryRepo) UpdateProfile(ctx context.Context, userID int64, input UpdateInput) (Profile, Profile, error) {
	before, err := m.GetProfile(ctx, userID)
	if err != nil {
		return Profile{}, Profile{}, err
	}
	after := before
	after.DisplayName = input.DisplayName
	after.Language = input.Language
	m.profiles[userID] = after
	m.updates++
	return before, after, nil
}

func (m *memoryRepo) ListUnknownRoles(ctx context.Context, known func(rbac.Role) bool) ([]RoleCount, error) {
	counts := make(map[rbac.Role]int)
	for _, p := range m.profiles {
		if p.DeletedAt == nil {
			counts[p.PrimaryRole]++
		}
	}
	return unknownRoles(counts, known), nil
}

type recordingInvalidator struct {
	users []int64
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, userID int64) error {
	r.users = append(r.users, userID)
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
	err  error
}

func (r *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	r.logs = append(r.logs, log)
	return r.err
}

func newRepo() *memoryRepo {
	deleted := time.Now()
	return &memoryRepo{profiles: map[int64]Profile{
		1: {UserID: 1, PrimaryRole: rbac.RoleDriver, DisplayName: "Dana", Language: "en"},
		2: {UserID: 2, PrimaryRole: rbac.Role("intern"), DisplayName: "Ivo", Language: "en"},
		3: {UserID: 3, PrimaryRole: rbac.Role("intern"), DisplayName: "Gone", Language: "en", DeletedAt: &deleted},
	}}
}

func TestMatchLanguage(t *testing.T) {
	tag, ok := MatchLanguage("pt-BR")
	require.True(t, ok)
	assert.Equal(t, "pt", tag.String())

	_, ok = MatchLanguage("de")
	assert.False(t, ok)
	_, ok = MatchLanguage("not a tag")
	assert.False(t, ok)
}

func TestUpdateSelfInvalidatesAndAudits(t *testing.T) {
	repo := newRepo()
	roles := &recordingInvalidator{}
	audit := &recordingAudit{}
	svc := NewService(repo, roles, audit, nil)

	p, err := svc.UpdateSelf(context.Background(), 1, UpdateInput{DisplayName: "  Dana R ", Language: "es-MX"})
	require.NoError(t, err)
	assert.Equal(t, "Dana R", p.DisplayName)
	assert.Equal(t, "es", p.Language)
	assert.Equal(t, rbac.RoleDriver, p.PrimaryRole)
	assert.Equal(t, []int64{1}, roles.users)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "profile.update", audit.logs[0].Action)
	assert.Equal(t, "1", audit.logs[0].EntityID)
}

func TestUpdateSelfRejectsInvalidInput(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.UpdateSelf(context.Background(), 1, UpdateInput{DisplayName: "", Language: "de"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "DisplayName")
	assert.Contains(t, verr.Fields, "Language")
	assert.Zero(t, repo.updates)
}

func TestUpdateSelfAuditFailureDoesNotFail(t *testing.T) {
	svc := NewService(newRepo(), nil, &recordingAudit{err: errors.New("db down")}, nil)
	_, err := svc.UpdateSelf(context.Background(), 1, UpdateInput{DisplayName: "Dana", Language: "fr"})
	assert.NoError(t, err)
}

func TestUpdateSelfMissingProfile(t *testing.T) {
	svc := NewService(newRepo(), nil, nil, nil)
	_, err := svc.UpdateSelf(context.Background(), 3, UpdateInput{DisplayName: "Gone", Language: "en"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUnknownRolesSkipsDeletedProfiles(t *testing.T) {
	repo := newRepo()
	got, err := repo.ListUnknownRoles(context.Background(), rbac.DefaultMatrix().Has)
	require.NoError(t, err)
	assert.Equal(t, []RoleCount{{Role: "intern", Profiles: 1}}, got)
}

func newProfileRouter(t *testing.T, repo *memoryRepo) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "bizos_session", time.Hour, false)

	engine, err := view.NewEngine()
	require.NoError(t, err)
	pages := &nav.Pages{Views: engine, Access: rbac.Middleware{Matrix: rbac.DefaultMatrix()}, CSRF: shared.NewCSRFManager("secret")}
	h := NewHandler(nil, NewService(repo, nil, nil, nil), pages)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			require.NoError(t, err)
			sess.SetUser("1")
			ctx := shared.ContextWithSession(r.Context(), sess)
			ctx = rbac.ContextWithResolution(ctx, rbac.Resolution{UserID: 1, Role: rbac.RoleDriver})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Route("/profile", h.MountRoutes)
	return router, sessions
}

func TestProfilePage(t *testing.T) {
	router, _ := newProfileRouter(t, newRepo())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/profile", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="Dana"`)
	assert.Contains(t, body, `href="/driver"`)
}

func TestProfileUpdateFlow(t *testing.T) {
	repo := newRepo()
	router, _ := newProfileRouter(t, repo)

	form := url.Values{"display_name": {"Dana Q"}, "language": {"fr"}}
	req := httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "Dana Q", repo.profiles[1].DisplayName)

	form = url.Values{"display_name": {"Dana Q"}, "language": {"xx-invalid"}}
	req = httptest.NewRequest(http.MethodPost, "/profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "supported languages")
}
