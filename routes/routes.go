package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gateway-go/controllers"
	"gateway-go/middleware"
	"gateway-go/services"
)

// SetupRoutes mengatur semua rute utama aplikasi
func SetupRoutes(r *gin.Engine, sessions services.SessionRepository) {

	auth := middleware.AuthRequired(sessions)
	group := middleware.GroupRequired(sessions)

	// Rute publik
	r.GET("/login", controllers.LoginView)
	r.GET("/auth/callback", controllers.AuthCallback)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Rute yang butuh login tapi belum butuh grup aktif
	r.POST("/logout", auth, controllers.Logout)
	r.GET("/select-group", auth, controllers.SelectGroupView)
	r.POST("/select-group", auth, controllers.SelectGroup)

	onboarding := r.Group("/create-group", auth)
	{
		onboarding.GET("", controllers.CreateGroupView)
		onboarding.POST("", controllers.CreateGroup)
		onboarding.POST("/members", controllers.ImportMembers)
	}

	// Rute dashboard: butuh login dan grup aktif
	dash := r.Group("/", auth, group)
	{
		dash.GET("/dashboard", controllers.DashboardView)
		dash.POST("/dashboard/refresh", controllers.ManualRefresh)
		dash.GET("/dashboard/stream", controllers.Stream)
		dash.POST("/payment-cycles/start", controllers.StartCycle)
		dash.POST("/payment-cycles/:cycleID/close", controllers.CloseCycle)
		dash.GET("/members", controllers.MembersView)
		dash.GET("/fees", controllers.FeesView)
		dash.GET("/settings", controllers.SettingsView)
	}

	// Rute untuk fitur teks chatbot
	chatGroup := r.Group("/chatbot", auth, group)
	{
		chatGroup.POST("/message", controllers.ChatbotHandler)
		chatGroup.GET("/transcript", controllers.GetTranscript)
	}

	// Rute untuk fitur voice message (speech-to-text dan text-to-speech)
	voiceGroup := r.Group("/chatbot/voice", auth, group)
	{
		voiceGroup.POST("", controllers.UploadVoiceHandler)            // Upload audio dan transkripsi
		voiceGroup.POST("/speak", controllers.SpeakReplyHandler)       // Sintesis balasan bot ke audio
		voiceGroup.GET("/messages", controllers.GetVoiceMessages)      // Arsip pesan suara sesi ini
		voiceGroup.GET("/audio/:filename", controllers.ServeAudioFile) // Serve audio TTS dari S3 atau local
	}

	admin := r.Group("/admin", auth, controllers.AdminOnly())
	{
		admin.GET("/metrics", controllers.GetOpsMetricsHandler)
		admin.GET("/conversations", controllers.GetRecentConversationsHandler)
	}

	// Alamat tak dikenal kembali ke halaman masuk
	r.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/login")
	})
}
