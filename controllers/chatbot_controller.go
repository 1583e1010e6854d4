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

// ChatbotHandler menangani satu giliran percakapan chatbot.
//
// Pesan pengguna langsung tampil di transkrip (optimistis, tanpa
// rollback). Selama balasan belum datang, pengiriman berikutnya
// ditolak dengan 409. Kegagalan backend dijawab balasan fallback,
// bukan error ke klien.
func ChatbotHandler(c *gin.Context) {
	var req models.ChatbotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		config.Log.Error("Permintaan tidak valid:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Permintaan tidak valid"})
		return
	}

	sid, token := requestIdentity(c)
	groupID := c.GetString(middleware.CtxCurrentGroup)

	botMsg, err := deps.Chatbot.SendMessage(c.Request.Context(), sid, token, groupID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrChatBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal memproses pesan"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": botMsg})
}

// GetTranscript mengembalikan transkrip percakapan sesi ini.
// Selalu array, meskipun kosong.
func GetTranscript(c *gin.Context) {
	sid, _ := requestIdentity(c)

	messages := deps.Chatbot.Transcript(sid)
	if messages == nil {
		messages = []models.ChatMessage{}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
