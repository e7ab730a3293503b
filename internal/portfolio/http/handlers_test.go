package http

import (
	"bytes"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/internal/auth"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/repository"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/schema"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/service"
	"github.com/sheetfolio/portfolio-backend/internal/sheets/sheetstest"
)

func newTestRouter(t *testing.T) (*gin.Engine, *sheetstest.Fake) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := sheetstest.NewFake()
	log := zap.NewNop()
	reg := schema.NewRegistry()
	prov := repository.NewProvisioner(fake, reg, log)
	store := repository.NewSectionStore(fake, reg, prov, log)
	profiles := repository.NewProfileStore(fake, prov, log)
	agg := service.NewAggregator(profiles, store, reg, log)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := auth.NewSessions(rdb, time.Hour)

	r := gin.New()
	New(store, profiles, agg, sessions, log).Register(r.Group("/api/v1"))
	return r, fake
}

func perform(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func signupAndLogin(t *testing.T, r *gin.Engine, username, pin string) string {
	t.Helper()
	w := perform(r, nethttp.MethodPost, "/api/v1/auth/signup", "", map[string]any{
		"username": username, "pin": pin, "full_name": "Test User",
	})
	require.Equal(t, nethttp.StatusCreated, w.Code, w.Body.String())

	w = perform(r, nethttp.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": username, "pin": pin,
	})
	require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())
	token, _ := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestAuthFlow(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("signup then login", func(t *testing.T) {
		token := signupAndLogin(t, r, "alice", "4321")
		assert.NotEmpty(t, token)
	})

	t.Run("duplicate signup conflicts", func(t *testing.T) {
		w := perform(r, nethttp.MethodPost, "/api/v1/auth/signup", "", map[string]any{
			"username": "Alice", "pin": "0000", "full_name": "Impostor",
		})
		assert.Equal(t, nethttp.StatusConflict, w.Code)
	})

	t.Run("wrong pin is unauthorized", func(t *testing.T) {
		w := perform(r, nethttp.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"username": "alice", "pin": "9999",
		})
		assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
	})

	t.Run("unknown user is unauthorized, not 404", func(t *testing.T) {
		w := perform(r, nethttp.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"username": "ghost", "pin": "1234",
		})
		assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
	})

	t.Run("logout revokes the session", func(t *testing.T) {
		token := signupAndLogin(t, r, "carol", "1111")

		w := perform(r, nethttp.MethodPost, "/api/v1/auth/logout", token, nil)
		require.Equal(t, nethttp.StatusOK, w.Code)

		w = perform(r, nethttp.MethodGet, "/api/v1/profile", token, nil)
		assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
	})
}

func TestSectionEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	token := signupAndLogin(t, r, "alice", "4321")

	t.Run("mutations require a session", func(t *testing.T) {
		w := perform(r, nethttp.MethodPost, "/api/v1/sections", "", map[string]any{
			"section": "skills", "data": map[string]any{},
		})
		assert.Equal(t, nethttp.StatusUnauthorized, w.Code)
	})

	t.Run("add and list", func(t *testing.T) {
		w := perform(r, nethttp.MethodPost, "/api/v1/sections", token, map[string]any{
			"section": "skills",
			"data": map[string]any{
				"category":    "Backend",
				"skills_list": []string{"Go", "Redis"},
			},
		})
		require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, true, decode(t, w)["success"])

		w = perform(r, nethttp.MethodGet, "/api/v1/sections/skills", token, nil)
		require.Equal(t, nethttp.StatusOK, w.Code)
		records := decode(t, w)["records"].([]any)
		assert.Len(t, records, 1)
	})

	t.Run("validation failure enumerates fields", func(t *testing.T) {
		w := perform(r, nethttp.MethodPost, "/api/v1/sections", token, map[string]any{
			"section": "skills",
			"data":    map[string]any{"category": "Backend"},
		})
		require.Equal(t, nethttp.StatusBadRequest, w.Code)

		body := decode(t, w)
		assert.Equal(t, "validation failed", body["error"])
		details := body["details"].([]any)
		require.Len(t, details, 1)
		assert.Contains(t, details[0], "skills_list")
	})

	t.Run("unknown section is a 400", func(t *testing.T) {
		w := perform(r, nethttp.MethodPost, "/api/v1/sections", token, map[string]any{
			"section": "blog", "data": map[string]any{},
		})
		assert.Equal(t, nethttp.StatusBadRequest, w.Code)
		assert.Equal(t, "unknown section", decode(t, w)["error"])
	})

	t.Run("update and delete by index", func(t *testing.T) {
		w := perform(r, nethttp.MethodPut, "/api/v1/sections", token, map[string]any{
			"section": "skills",
			"index":   0,
			"data":    map[string]any{"category": "Platform"},
		})
		require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())

		w = perform(r, nethttp.MethodDelete, "/api/v1/sections", token, map[string]any{
			"section": "skills", "index": 0,
		})
		require.Equal(t, nethttp.StatusOK, w.Code)

		w = perform(r, nethttp.MethodDelete, "/api/v1/sections", token, map[string]any{
			"section": "skills", "index": 0,
		})
		assert.Equal(t, nethttp.StatusNotFound, w.Code, "nothing left to delete")
	})

	t.Run("missing index is a bad request", func(t *testing.T) {
		w := perform(r, nethttp.MethodPut, "/api/v1/sections", token, map[string]any{
			"section": "skills", "data": map[string]any{},
		})
		assert.Equal(t, nethttp.StatusBadRequest, w.Code)
	})
}

func TestProfileAndPortfolioEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)
	token := signupAndLogin(t, r, "alice", "4321")

	perform(r, nethttp.MethodPost, "/api/v1/sections", token, map[string]any{
		"section": "experience",
		"data":    map[string]any{"title": "Engineer", "company": "Acme"},
	})

	t.Run("own profile", func(t *testing.T) {
		w := perform(r, nethttp.MethodGet, "/api/v1/profile", token, nil)
		require.Equal(t, nethttp.StatusOK, w.Code)
		profile := decode(t, w)["profile"].(map[string]any)
		assert.Equal(t, "alice", profile["username"])
	})

	t.Run("public portfolio is visible anonymously", func(t *testing.T) {
		w := perform(r, nethttp.MethodGet, "/api/v1/portfolio/alice", "", nil)
		require.Equal(t, nethttp.StatusOK, w.Code)

		body := decode(t, w)
		sections := body["sections"].(map[string]any)
		assert.Len(t, sections["experience"], 1)
	})

	t.Run("export sets an attachment disposition", func(t *testing.T) {
		w := perform(r, nethttp.MethodGet, "/api/v1/portfolio/alice/export", "", nil)
		require.Equal(t, nethttp.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "portfolio-alice.json")
	})

	t.Run("patch profile with custom sections", func(t *testing.T) {
		w := perform(r, nethttp.MethodPatch, "/api/v1/profile", token, map[string]any{
			"fields": map[string]any{"headline": "Gopher"},
			"custom_sections": []map[string]any{
				{"id": "talks", "title": "Talks", "type": "list", "visible": true, "items": []string{"GopherCon"}},
			},
		})
		require.Equal(t, nethttp.StatusOK, w.Code, w.Body.String())

		w = perform(r, nethttp.MethodGet, "/api/v1/profile", token, nil)
		profile := decode(t, w)["profile"].(map[string]any)
		assert.Equal(t, "Gopher", profile["headline"])
		assert.Len(t, profile["custom_sections"], 1)
	})

	t.Run("private portfolio hides from visitors but not its owner", func(t *testing.T) {
		w := perform(r, nethttp.MethodPatch, "/api/v1/profile", token, map[string]any{
			"fields": map[string]any{"public": false},
		})
		require.Equal(t, nethttp.StatusOK, w.Code)

		w = perform(r, nethttp.MethodGet, "/api/v1/portfolio/alice", "", nil)
		assert.Equal(t, nethttp.StatusNotFound, w.Code)

		w = perform(r, nethttp.MethodGet, "/api/v1/portfolio/alice", token, nil)
		assert.Equal(t, nethttp.StatusOK, w.Code)
	})

	t.Run("missing tenant is a 404", func(t *testing.T) {
		w := perform(r, nethttp.MethodGet, "/api/v1/portfolio/ghost", "", nil)
		assert.Equal(t, nethttp.StatusNotFound, w.Code)
	})
}
