package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gateway-go/middleware"
	"gateway-go/models"
	"gateway-go/services"
)

// DashboardView memuat ringkasan dashboard grup aktif. Kunjungan
// pertama memicu fetch awal; kunjungan berikutnya menampilkan data yang
// sudah ada sambil refresh berjalan di belakang.
func DashboardView(c *gin.Context) {
	sid, token := requestIdentity(c)
	groupID := c.GetString(middleware.CtxCurrentGroup)

	snap, err := deps.Dashboard.Load(c.Request.Context(), token, groupID, services.TriggerInitial)
	if err != nil && (isNavigationError(err) || snap.Summary == nil) {
		// Token atau grup yang ditolak backend selalu menggusur
		// tampilan, meski masih ada data lama di cache.
		handleBackendError(c, sid, groupID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":      "dashboard",
		"dashboard": snap,
	})
}

// ManualRefresh menangani tombol refresh: minta backend membuang
// cache-nya, lalu ambil ulang. Selama berjalan, data lama tetap tampil.
func ManualRefresh(c *gin.Context) {
	sid, token := requestIdentity(c)
	groupID := c.GetString(middleware.CtxCurrentGroup)

	snap, err := deps.Dashboard.Refresh(c.Request.Context(), token, groupID)
	if err != nil && (isNavigationError(err) || snap.Summary == nil) {
		handleBackendError(c, sid, groupID, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": snap})
}

// StartCycle membuka siklus penagihan baru lalu me-refresh ringkasan
// supaya kartu siklus langsung terisi.
func StartCycle(c *gin.Context) {
	sid, token := requestIdentity(c)
	groupID := c.GetString(middleware.CtxCurrentGroup)

	var req models.StartCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Form siklus tidak valid"})
		return
	}

	cycle, err := deps.Backend.StartPaymentCycle(c.Request.Context(), token, groupID, req)
	if err != nil {
		handleBackendError(c, sid, groupID, err)
		return
	}

	snap, _ := deps.Dashboard.Load(c.Request.Context(), token, groupID, services.TriggerManual)
	c.JSON(http.StatusCreated, gin.H{"cycle": cycle, "dashboard": snap})
}

// CloseCycle menutup siklus berjalan lalu me-refresh ringkasan.
func CloseCycle(c *gin.Context) {
	sid, token := requestIdentity(c)
	groupID := c.GetString(middleware.CtxCurrentGroup)
	cycleID := c.Param("cycleID")

	if err := deps.Backend.ClosePaymentCycle(c.Request.Context(), token, groupID, cycleID); err != nil {
		handleBackendError(c, sid, groupID, err)
		return
	}

	snap, _ := deps.Dashboard.Load(c.Request.Context(), token, groupID, services.TriggerManual)
	c.JSON(http.StatusOK, gin.H{"dashboard": snap})
}

// Stream meng-upgrade koneksi ke WebSocket dan mengalirkan snapshot
// dashboard grup aktif setiap kali refresh selesai.
func Stream(c *gin.Context) {
	groupID := c.GetString(middleware.CtxCurrentGroup)
	deps.Hub.ServeWS(c.Writer, c.Request, groupID)
}
