package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gateway-go/models"
	"gateway-go/services"
)

// Kunci context yang diisi guard dan dibaca controller.
const (
	CtxSID          = "sid"
	CtxAccessToken  = "accessToken"
	CtxUser         = "user"
	CtxCurrentGroup = "currentGroupId"
)

// AuthRequired menjaga rute yang butuh login: tanpa token tersimpan,
// request dialihkan ke /login. Token yang ada diteruskan apa adanya ke
// backend; gateway tidak memverifikasi tanda tangannya sendiri.
func AuthRequired(repo services.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := services.EnsureSID(c)

		token, err := repo.Get(c.Request.Context(), sid, models.SessionKeyAccessToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal membaca sesi"})
			c.Abort()
			return
		}
		if token == "" {
			redirectOrUnauthorized(c, "/login")
			return
		}

		c.Set(CtxSID, sid)
		c.Set(CtxAccessToken, token)
		c.Set(CtxUser, services.DecodeClaims(token))

		c.Next()
	}
}

// GroupRequired menjaga rute yang butuh grup aktif. Nilai sentinel
// ("undefined"/"null") dari penyimpanan lama dinormalisasi jadi absen,
// sehingga pengguna diarahkan memilih grup, bukan melihat error.
func GroupRequired(repo services.SessionRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := c.GetString(CtxSID)
		if sid == "" {
			// Guard ini selalu dipasang setelah AuthRequired.
			redirectOrUnauthorized(c, "/login")
			return
		}

		groupID, err := repo.Get(c.Request.Context(), sid, models.SessionKeyCurrentGroup)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal membaca sesi"})
			c.Abort()
			return
		}
		if services.NormalizeSessionValue(groupID) == "" {
			redirectOrUnauthorized(c, "/select-group")
			return
		}

		c.Set(CtxCurrentGroup, groupID)
		c.Next()
	}
}

// redirectOrUnauthorized memilih bentuk penolakan sesuai jenis request:
// navigasi browser dialihkan, panggilan API dapat JSON 401.
func redirectOrUnauthorized(c *gin.Context, target string) {
	if wantsJSON(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sesi tidak valid", "redirect": target})
	} else {
		c.Redirect(http.StatusSeeOther, target)
	}
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := c.GetHeader("Accept")
	return accept == "application/json"
}
