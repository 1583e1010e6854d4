package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gateway-go/config"
	"gateway-go/models"
	"gateway-go/services"
)

// LoginView menampilkan halaman masuk. Pengguna yang sudah punya token
// langsung dilempar ke callback agar tujuan akhirnya dihitung ulang.
func LoginView(c *gin.Context) {
	sid := services.EnsureSID(c)

	token, err := deps.Sessions.Get(c.Request.Context(), sid, models.SessionKeyAccessToken)
	if err == nil && token != "" {
		c.Redirect(http.StatusSeeOther, "/auth/callback")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":    "login",
		"message": "Silakan masuk melalui penyedia identitas.",
	})
}

// AuthCallback menerima token hasil login dan menentukan tujuan
// berdasarkan jumlah grup pengguna:
//
//	0 grup  -> wizard pembuatan grup
//	1 grup  -> grup itu langsung dipilih, lanjut ke dashboard
//	>1 grup -> halaman pemilihan grup
//
// Kegagalan membaca daftar grup membatalkan login: token dibuang dan
// pengguna kembali ke halaman masuk.
func AuthCallback(c *gin.Context) {
	sid := services.EnsureSID(c)
	ctx := c.Request.Context()

	// Penyedia identitas bisa mengembalikan error sebagai query.
	if provErr := c.Query("error"); provErr != "" {
		config.Log.WithFields(map[string]interface{}{
			"error":   provErr,
			"message": c.Query("message"),
		}).Warn("⚠️ Callback login membawa error dari penyedia identitas")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	// Token bisa datang sebagai query (redirect penyedia identitas)
	// atau sudah tersimpan dari kunjungan sebelumnya.
	token := services.NormalizeSessionValue(strings.TrimSpace(c.Query("token")))
	if token != "" {
		if err := deps.Sessions.Set(ctx, sid, models.SessionKeyAccessToken, token); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal menyimpan sesi"})
			return
		}
	} else {
		stored, err := deps.Sessions.Get(ctx, sid, models.SessionKeyAccessToken)
		if err != nil || stored == "" {
			c.Redirect(http.StatusSeeOther, "/login")
			return
		}
		token = stored
	}

	groups, err := deps.Backend.ListUserGroups(ctx, token)
	if err != nil {
		config.Log.Error("Gagal mengambil daftar grup saat callback: ", err)
		clearSessionKey(c, sid, models.SessionKeyAccessToken)
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	claims := services.DecodeClaims(token)
	config.Log.WithFields(map[string]interface{}{
		"user":   claims.DisplayName(),
		"groups": len(groups),
	}).Info("✅ Login berhasil")

	switch len(groups) {
	case 0:
		c.Redirect(http.StatusSeeOther, "/create-group")
	case 1:
		if err := deps.Sessions.Set(ctx, sid, models.SessionKeyCurrentGroup, groups[0].ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal menyimpan sesi"})
			return
		}
		c.Redirect(http.StatusSeeOther, "/dashboard")
	default:
		c.Redirect(http.StatusSeeOther, "/select-group")
	}
}

// Logout membuang token dan grup aktif, lalu kembali ke halaman masuk.
// Transkrip chatbot sesi ini ikut dibuang.
func Logout(c *gin.Context) {
	sid, _ := requestIdentity(c)

	clearSessionKey(c, sid, models.SessionKeyAccessToken)
	clearSessionKey(c, sid, models.SessionKeyCurrentGroup)
	deps.Chatbot.Reset(sid)

	config.Log.Info("Pengguna keluar, sesi dibersihkan")
	c.Redirect(http.StatusSeeOther, "/login")
}
