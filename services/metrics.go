package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrik gateway, tersaji di GET /metrics.
var (
	dashboardRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_dashboard_refresh_total",
		Help: "Jumlah refresh ringkasan dashboard per pemicu.",
	}, []string{"trigger"})

	dashboardRefreshFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gateway_dashboard_refresh_failures_total",
		Help: "Jumlah refresh dashboard yang gagal.",
	})

	chatbotMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_chatbot_messages_total",
		Help: "Jumlah pesan chatbot per hasil (reply/fallback).",
	}, []string{"result"})

	memberImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_member_imports_total",
		Help: "Jumlah impor roster anggota per hasil.",
	}, []string{"result"})
)
