package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"gateway-go/models"
	"gateway-go/services"
)

func newGuardedRouter(repo services.SessionRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("gateway_session", cookie.NewStore([]byte("kunci-uji"))))

	auth := AuthRequired(repo)
	group := GroupRequired(repo)

	r.GET("/select-group", auth, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"sid": c.GetString(CtxSID)})
	})
	r.GET("/dashboard", auth, group, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"group": c.GetString(CtxCurrentGroup)})
	})
	return r
}

func TestAuthRequiredRedirectsWithoutToken(t *testing.T) {
	repo := services.NewMemorySessionRepository()
	r := newGuardedRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, mau 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, mau /login", loc)
	}
}

func TestAuthRequiredJSONClientsGet401(t *testing.T) {
	repo := services.NewMemorySessionRepository()
	r := newGuardedRouter(repo)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("klien JSON harus menerima 401, dapat %d", rec.Code)
	}
}

func TestGroupRequiredRedirectsWithoutGroup(t *testing.T) {
	repo := services.NewMemorySessionRepository()
	r := newGuardedRouter(repo)

	// Token ada, grup belum dipilih: lolos guard auth, tertahan guard grup.
	r.GET("/seed", func(c *gin.Context) {
		sid := services.EnsureSID(c)
		repo.Set(c.Request.Context(), sid, models.SessionKeyAccessToken, "tok-uji")
		c.Status(http.StatusOK)
	})

	recSeed := httptest.NewRecorder()
	reqSeed := httptest.NewRequest(http.MethodGet, "/seed", nil)
	r.ServeHTTP(recSeed, reqSeed)
	cookies := recSeed.Result().Cookies()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("tanpa grup harus 303, dapat %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/select-group" {
		t.Errorf("Location = %q, mau /select-group", loc)
	}
}

func TestGroupRequiredTreatsSentinelAsAbsent(t *testing.T) {
	repo := services.NewMemorySessionRepository()
	r := newGuardedRouter(repo)

	r.GET("/seed", func(c *gin.Context) {
		sid := services.EnsureSID(c)
		repo.Set(c.Request.Context(), sid, models.SessionKeyAccessToken, "tok-uji")
		repo.Set(c.Request.Context(), sid, models.SessionKeyCurrentGroup, "undefined")
		c.Status(http.StatusOK)
	})

	recSeed := httptest.NewRecorder()
	reqSeed := httptest.NewRequest(http.MethodGet, "/seed", nil)
	r.ServeHTTP(recSeed, reqSeed)
	cookies := recSeed.Result().Cookies()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("grup sentinel harus 303, dapat %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/select-group" {
		t.Errorf("Location = %q, mau /select-group", loc)
	}
}

func TestGuardsPassWithTokenAndGroup(t *testing.T) {
	repo := services.NewMemorySessionRepository()
	r := newGuardedRouter(repo)

	r.GET("/seed", func(c *gin.Context) {
		sid := services.EnsureSID(c)
		ctx := context.Background()
		repo.Set(ctx, sid, models.SessionKeyAccessToken, "tok-uji")
		repo.Set(ctx, sid, models.SessionKeyCurrentGroup, "g-1")
		c.Status(http.StatusOK)
	})

	recSeed := httptest.NewRecorder()
	reqSeed := httptest.NewRequest(http.MethodGet, "/seed", nil)
	r.ServeHTTP(recSeed, reqSeed)
	cookies := recSeed.Result().Cookies()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("dengan token dan grup harus 200, dapat %d", rec.Code)
	}
}
