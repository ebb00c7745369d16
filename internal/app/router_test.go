package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizos/bizos/internal/audit"
	"github.com/bizos/bizos/internal/guard"
	"github.com/bizos/bizos/internal/nav"
	"github.com/bizos/bizos/internal/rbac"
	"github.com/bizos/bizos/internal/shared"
	"github.com/bizos/bizos/internal/view"
	"github.com/bizos/bizos/internal/workspace"
)

const testCSRFToken = "csrf-test-token"

type roleTable map[int64]string

func (t roleTable) LookupRole(ctx context.Context, userID int64) (rbac.RoleRecord, error) {
	role, ok := t[userID]
	if !ok {
		return rbac.RoleRecord{}, rbac.ErrNoProfile
	}
	return rbac.RoleRecord{Primary: role}, nil
}

// memberships lets every user belong to business 7.
type memberships struct{}

func (memberships) IsMember(ctx context.Context, userID, businessID int64) (bool, error) {
	return businessID == 7, nil
}

func (memberships) ListBusinesses(ctx context.Context, userID int64) ([]workspace.Business, error) {
	return []workspace.Business{{ID: 7, Name: "North Depot"}}, nil
}

type auditTrail []audit.TimelineRow

func (a auditTrail) Timeline(ctx context.Context, q audit.Query) ([]audit.TimelineRow, error) {
	return a, nil
}

type routerFixture struct {
	handler http.Handler
	mr      *miniredis.Miniredis
}

func newRouterFixture(t *testing.T, roles roleTable) *routerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	engine, err := view.NewEngine()
	require.NoError(t, err)

	sessions := shared.NewSessionManager(client, "bizos_session", time.Hour, false)
	csrf := shared.NewCSRFManager("test-secret")
	access := rbac.Middleware{
		Resolver: rbac.NewResolver(roles),
		Matrix:   rbac.DefaultMatrix(),
		Timeout:  time.Second,
	}
	pages := &nav.Pages{Views: engine, Access: access, CSRF: csrf}
	g := &guard.Guard{
		Access:     access,
		Views:      engine,
		Metrics:    guard.NewMetrics(prometheus.NewRegistry()),
		LoginPath:  "/auth/login",
		DeniedPath: "/denied",
	}
	logger := NewLogger(&Config{AppEnv: "test"})
	workspaceService := workspace.NewService(workspace.NewStore(client, 0), memberships{})
	handler := NewRouter(RouterParams{
		Logger:           logger,
		Pages:            pages,
		SessionManager:   sessions,
		CSRFManager:      csrf,
		Access:           access,
		Guard:            g,
		Routes:           Routes(),
		NavHandler:       nav.NewHandler(access),
		AccessHandler:    rbac.NewAccessHandler(access, csrf),
		AuditHandler:     audit.NewHandler(logger, audit.NewService(auditTrail{{Action: "profile.update", Entity: "profile", EntityID: "2"}})),
		WorkspaceHandler: workspace.NewHandler(logger, workspaceService, pages),
	})
	return &routerFixture{handler: handler, mr: mr}
}

func (f *routerFixture) get(t *testing.T, target string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	return f.do(t, http.MethodGet, target, "", userID)
}

func (f *routerFixture) do(t *testing.T, method, target, body string, userID int64) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if userID > 0 {
		id := "sess-" + strconv.FormatInt(userID, 10)
		payload, err := json.Marshal(map[string]any{
			"values":  map[string]string{shared.CSRFSessionKey: testCSRFToken},
			"user_id": strconv.FormatInt(userID, 10),
		})
		require.NoError(t, err)
		require.NoError(t, f.mr.Set("bizos:session:"+id, string(payload)))
		req.AddCookie(&http.Cookie{Name: "bizos_session", Value: id})
		req.Header.Set(shared.CSRFHeader, testCSRFToken)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealth(t *testing.T) {
	f := newRouterFixture(t, roleTable{})
	rec := f.get(t, "/healthz", 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterAnonymousGoesToLogin(t *testing.T) {
	f := newRouterFixture(t, roleTable{})

	rec := f.get(t, "/crm", 0)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fcrm", rec.Header().Get("Location"))

	rec = f.get(t, "/", 0)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/welcome", rec.Header().Get("Location"))
}

func TestRouterLandsRoleOnDefaultPath(t *testing.T) {
	f := newRouterFixture(t, roleTable{1: "driver", 2: "Admin", 3: "ghost"})

	rec := f.get(t, "/", 1)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/driver", rec.Header().Get("Location"))

	rec = f.get(t, "/", 2)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	rec = f.get(t, "/", 3)
	assert.Equal(t, "/denied", rec.Header().Get("Location"))
}

func TestRouterGuardsPortals(t *testing.T) {
	f := newRouterFixture(t, roleTable{1: "driver", 2: "admin"})

	rec := f.get(t, "/driver", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Driver Portal")
	assert.Contains(t, rec.Body.String(), `href="/logistics"`)
	assert.NotContains(t, rec.Body.String(), `href="/finance"`)

	rec = f.get(t, "/finance", 1)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = f.get(t, "/admin", 1)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied.")

	rec = f.get(t, "/finance", 2)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterAPIs(t *testing.T) {
	f := newRouterFixture(t, roleTable{1: "store"})

	rec := f.get(t, "/api/nav", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Role        string `json:"role"`
		DefaultPath string `json:"default_path"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "store", body.Role)
	assert.Equal(t, "/store", body.DefaultPath)

	rec = f.get(t, "/api/access/check?permission=store.portal", 1)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get(t, "/api/access/matrix", 1)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.get(t, "/api/nav", 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterGuardsAccountPages(t *testing.T) {
	f := newRouterFixture(t, roleTable{1: "driver", 2: "accountant", 3: "ghost"})

	rec := f.get(t, "/workspace", 1)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.NotContains(t, rec.Body.String(), "North Depot")

	rec = f.get(t, "/workspace", 3)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = f.get(t, "/workspace", 0)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth/login?next=%2Fworkspace", rec.Header().Get("Location"))

	rec = f.get(t, "/workspace", 2)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "North Depot")
}

func TestRouterGuardsWorkspaceAPI(t *testing.T) {
	f := newRouterFixture(t, roleTable{1: "driver", 2: "accountant", 3: "owner"})

	rec := f.do(t, http.MethodPut, "/api/workspace/selection", `{"business_id":7}`, 1)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, f.mr.Exists("bizos:workspace:1"))

	assert.Equal(t, http.StatusForbidden, f.get(t, "/api/workspace/selection", 1).Code)
	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/api/workspace/selection", 0).Code)

	rec = f.do(t, http.MethodPut, "/api/workspace/selection", `{"business_id":7}`, 2)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.mr.Exists("bizos:workspace:2"))

	rec = f.do(t, http.MethodPut, "/api/workspace/selection", `{"business_id":7}`, 3)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterInlineRouteOffersLoginToAnonymous(t *testing.T) {
	f := newRouterFixture(t, roleTable{})

	rec := f.get(t, "/admin", 0)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), "Access denied.")
	assert.Contains(t, rec.Body.String(), `href="/auth/login?next=%2Fadmin"`)
}

func TestRouterAuditRequiresAdminUsers(t *testing.T) {
	f := newRouterFixture(t, roleTable{1: "driver", 2: "admin"})

	assert.Equal(t, http.StatusForbidden, f.get(t, "/api/audit", 1).Code)
	assert.Equal(t, http.StatusForbidden, f.get(t, "/api/audit/export.csv", 1).Code)
	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/api/audit", 0).Code)

	rec := f.get(t, "/api/audit", 2)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "profile.update")
}
