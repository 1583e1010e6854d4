package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"gateway-go/config"
	"gateway-go/controllers"
	"gateway-go/routes"
	"gateway-go/services"
)

func main() {
	if err := config.LoadConfig(); err != nil {
		log.Fatal("Gagal memuat konfigurasi:", err)
	}

	config.InitLogger()

	// Penyimpanan sesi: PostgreSQL (+cache Redis) saat tersedia,
	// in-memory saat tidak, mis. pengembangan lokal tanpa basis data.
	var sessionRepo services.SessionRepository
	if err := config.InitDB(); err != nil {
		config.Log.Warn("PostgreSQL tidak tersedia, sesi disimpan in-memory: ", err)
		sessionRepo = services.NewMemorySessionRepository()
	} else {
		if err := config.InitRedis(); err != nil {
			config.Log.Warn("Redis tidak tersedia, cache sesi dilewati: ", err)
		}
		sessionRepo = services.NewPostgresSessionRepository(config.DB, config.Redis)
	}

	// Arsip percakapan & pesan suara bersifat best-effort.
	var archive services.ConversationArchive
	if err := config.InitMongoDB(); err != nil {
		config.Log.Warn("MongoDB tidak tersedia, arsip percakapan dinonaktifkan: ", err)
	} else {
		archive = &services.MongoConversationArchive{Collection: config.MongoConversations}
	}

	// Fitur suara butuh kredensial AWS + Google.
	var rosterArchiver services.RosterArchiver
	if config.AWSBucketName != "" {
		if err := config.LoadAWSConfig(); err != nil {
			config.Log.Warn("Gagal menginisialisasi AWS, fitur suara dinonaktifkan: ", err)
		} else {
			services.InitVoiceServices()
			rosterArchiver = services.S3RosterArchiver{}
		}
	} else {
		config.Log.Warn("⚠️ AWS_BUCKET_NAME belum diatur, fitur suara dinonaktifkan")
	}

	backend := services.NewBackendClient(config.BackendBaseURL)
	hub := services.NewStreamHub()
	dashboard := services.NewDashboardService(backend, config.DashboardPollInterval(), hub)
	chatbot := services.NewChatbotService(backend, archive)
	onboarding := services.NewOnboardingService(backend, sessionRepo, rosterArchiver)

	controllers.Init(controllers.Deps{
		Sessions:   sessionRepo,
		Backend:    backend,
		Dashboard:  dashboard,
		Chatbot:    chatbot,
		Onboarding: onboarding,
		Hub:        hub,
	})

	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	trustedProxies := []string{"127.0.0.1", "::1"}
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		log.Fatal("Gagal menetapkan proxy tepercaya:", err)
	}

	frontendOrigin := config.FrontendOrigin
	if frontendOrigin == "" {
		frontendOrigin = "http://localhost:5173"
	}
	corsConfig := cors.Config{
		AllowOrigins:     []string{frontendOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsConfig))

	// Middleware untuk menangani semua preflight OPTIONS request
	r.Use(func(c *gin.Context) {
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	sessionKey := []byte(config.SessionSecret)
	if len(sessionKey) == 0 {
		log.Fatal("Session secret key belum dikonfigurasi")
	}
	store := cookie.NewStore(sessionKey)
	store.Options(sessions.Options{Path: "/", MaxAge: 86400, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("gateway_session", store))

	// Poller latar dashboard
	pollCtx, cancelPoll := context.WithCancel(context.Background())
	go dashboard.Run(pollCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")

		cancelPoll()

		if err := config.CloseDB(); err != nil {
			log.Printf("Database shutdown error: %v", err)
		}
		if err := config.CloseRedis(); err != nil {
			log.Printf("Redis shutdown error: %v", err)
		}

		os.Exit(0)
	}()

	routes.SetupRoutes(r, sessionRepo)

	serverAddr := ":" + config.Port
	log.Printf("Server starting on %s", serverAddr)
	if err := r.Run(serverAddr); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
