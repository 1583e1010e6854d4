package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gateway-go/middleware"
	"gateway-go/models"
	"gateway-go/services"
)

// AdminOnly membatasi rute operasional untuk pemegang role admin pada
// klaim token. Klaim tidak diverifikasi gateway; backend tetap menolak
// panggilan data dengan token palsu, rute ini hanya membuka angka
// agregat arsip milik gateway sendiri.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := c.MustGet(middleware.CtxUser).(*models.Claims)
		if !ok || claims.Role != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func GetOpsMetricsHandler(c *gin.Context) {
	metrics, err := services.GetOpsMetrics(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func GetRecentConversationsHandler(c *gin.Context) {
	convos, err := services.GetRecentConversations(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, convos)
}
