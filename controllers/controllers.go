package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gateway-go/config"
	"gateway-go/middleware"
	"gateway-go/models"
	"gateway-go/services"
)

// Deps adalah semua layanan yang dipakai controller. Diisi sekali dari
// main (atau dari test dengan implementasi in-memory).
type Deps struct {
	Sessions   services.SessionRepository
	Backend    *services.BackendClient
	Dashboard  *services.DashboardService
	Chatbot    *services.ChatbotService
	Onboarding *services.OnboardingService
	Hub        *services.StreamHub
}

var deps Deps

// Init mendaftarkan dependensi controller.
func Init(d Deps) {
	deps = d
}

// requestIdentity membaca identitas yang sudah dipasang guard.
func requestIdentity(c *gin.Context) (sid, token string) {
	return c.GetString(middleware.CtxSID), c.GetString(middleware.CtxAccessToken)
}

// clearSessionKey menghapus satu key sesi; kegagalan hanya dicatat
// karena pembersihan terjadi di jalur error.
func clearSessionKey(c *gin.Context, sid, key string) {
	if err := deps.Sessions.Clear(c.Request.Context(), sid, key); err != nil {
		config.Log.Warn("Gagal membersihkan key sesi ", key, ": ", err)
	}
}

// isNavigationError melaporkan error backend yang selalu memaksa
// navigasi (401/403/404), apa pun data yang masih ter-cache.
func isNavigationError(err error) bool {
	return errors.Is(err, services.ErrUnauthorized) ||
		errors.Is(err, services.ErrForbidden) ||
		errors.Is(err, services.ErrNotFound)
}

// handleBackendError memetakan error backend ke navigasi:
//   - 401: token tidak dipercaya lagi, buang dan kembali ke login
//   - 403/404: grup tidak bisa diakses, buang pilihan grup
//   - selain itu: recoverable, JSON toast tanpa navigasi
func handleBackendError(c *gin.Context, sid, groupID string, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		clearSessionKey(c, sid, models.SessionKeyAccessToken)
		redirectOrError(c, http.StatusSeeOther, "/login", "Sesi berakhir. Silakan masuk kembali.")
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrNotFound):
		clearSessionKey(c, sid, models.SessionKeyCurrentGroup)
		if groupID != "" && deps.Dashboard != nil {
			deps.Dashboard.Forget(groupID)
		}
		redirectOrError(c, http.StatusSeeOther, "/select-group", "Grup tidak dapat diakses.")
	default:
		var apiErr *services.APIError
		msg := "Terjadi kesalahan. Silakan coba lagi."
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			msg = apiErr.Message
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": msg})
	}
}

func redirectOrError(c *gin.Context, code int, target, msg string) {
	if wantsJSON(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg, "redirect": target})
		return
	}
	c.Redirect(code, target)
}

func wantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return c.GetHeader("Accept") == "application/json"
}
