package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gateway-go/middleware"
	"gateway-go/models"
	"gateway-go/services"
)

// loadSnapshot mengambil snapshot dashboard grup aktif, memicu fetch
// awal bila perlu. Halaman anggota/iuran/pengaturan membaca dari
// dokumen ringkasan yang sama dengan dashboard.
func loadSnapshot(c *gin.Context) (services.DashboardSnapshot, bool) {
	sid, token := requestIdentity(c)
	groupID := c.GetString(middleware.CtxCurrentGroup)

	snap, err := deps.Dashboard.Load(c.Request.Context(), token, groupID, services.TriggerInitial)
	if err != nil && (isNavigationError(err) || snap.Summary == nil) {
		handleBackendError(c, sid, groupID, err)
		return services.DashboardSnapshot{}, false
	}
	return snap, true
}

// MembersView menampilkan daftar anggota beserta status bayarnya.
func MembersView(c *gin.Context) {
	snap, ok := loadSnapshot(c)
	if !ok {
		return
	}

	var members []models.Member
	if snap.Summary != nil {
		members = snap.Summary.Members
	}

	c.JSON(http.StatusOK, gin.H{
		"page":        "members",
		"members":     members,
		"lastUpdated": snap.LastUpdated,
		"notice":      snap.Notice,
	})
}

// FeesView menampilkan riwayat pembayaran dan siklus aktif.
func FeesView(c *gin.Context) {
	snap, ok := loadSnapshot(c)
	if !ok {
		return
	}

	var payments []models.Payment
	if snap.Summary != nil {
		payments = snap.Summary.RecentPayments
	}

	c.JSON(http.StatusOK, gin.H{
		"page":        "fees",
		"cycle":       snap.Cycle,
		"payments":    payments,
		"lastUpdated": snap.LastUpdated,
		"notice":      snap.Notice,
	})
}

// SettingsView menampilkan profil grup aktif.
func SettingsView(c *gin.Context) {
	snap, ok := loadSnapshot(c)
	if !ok {
		return
	}

	var group *models.Group
	if snap.Summary != nil {
		group = &snap.Summary.Group
	}

	c.JSON(http.StatusOK, gin.H{
		"page":       "settings",
		"group":      group,
		"categories": models.GroupCategories,
	})
}
