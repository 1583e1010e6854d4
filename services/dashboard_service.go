package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"gateway-go/config"
	"gateway-go/models"
)

// SyncState adalah fase mesin state synchronizer per grup.
type SyncState string

const (
	StateIdle       SyncState = "idle"
	StateLoading    SyncState = "loading"
	StateReady      SyncState = "ready"
	StateRefreshing SyncState = "refreshing"
)

// Pemicu refresh, untuk metrik.
const (
	TriggerInitial  = "initial"
	TriggerManual   = "manual"
	TriggerInterval = "interval"
)

const refreshFailedNotice = "Gagal memuat data terbaru. Menampilkan data terakhir yang berhasil dimuat."

// DashboardBackend adalah bagian backend yang dibutuhkan synchronizer.
type DashboardBackend interface {
	GetDashboard(ctx context.Context, token, groupID string) (*models.DashboardSummary, error)
	InvalidateDashboard(ctx context.Context, token, groupID string) error
	GetActiveCycle(ctx context.Context, token, groupID string) (*models.PaymentCycle, error)
}

// DashboardSnapshot adalah potret state synchronizer yang dirender view.
type DashboardSnapshot struct {
	State       SyncState                `json:"state"`
	Summary     *models.DashboardSummary `json:"summary,omitempty"`
	Cycle       *models.PaymentCycle     `json:"cycle,omitempty"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Notice      string                   `json:"notice,omitempty"`
}

type groupSync struct {
	mu          sync.Mutex
	state       SyncState
	summary     *models.DashboardSummary
	cycle       *models.PaymentCycle
	lastUpdated time.Time
	notice      string
	token       string // token terakhir yang melihat grup ini; dipakai poller
}

// DashboardService menjalankan protokol sinkronisasi dashboard:
// Idle -> Loading -> Ready, lalu Ready -> Refreshing -> Ready untuk
// refresh manual maupun polling 60 detik. Refresh yang tumpang tindih
// per grup disatukan lewat singleflight sehingga respons tidak balapan.
type DashboardService struct {
	backend  DashboardBackend
	hub      *StreamHub
	interval time.Duration

	flight singleflight.Group
	mu     sync.Mutex
	groups map[string]*groupSync
}

func NewDashboardService(backend DashboardBackend, interval time.Duration, hub *StreamHub) *DashboardService {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &DashboardService{
		backend:  backend,
		hub:      hub,
		interval: interval,
		groups:   make(map[string]*groupSync),
	}
}

func (s *DashboardService) group(groupID string) *groupSync {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[groupID]
	if !ok {
		g = &groupSync{state: StateIdle}
		s.groups[groupID] = g
	}
	return g
}

// Snapshot mengembalikan potret state saat ini tanpa memicu fetch.
func (s *DashboardService) Snapshot(groupID string) DashboardSnapshot {
	g := s.group(groupID)
	g.mu.Lock()
	defer g.mu.Unlock()
	return DashboardSnapshot{
		State:       g.state,
		Summary:     g.summary,
		Cycle:       g.cycle,
		LastUpdated: g.lastUpdated,
		Notice:      g.notice,
	}
}

// Load memuat (atau me-refresh) ringkasan grup. Pemanggilan yang
// tumpang tindih untuk grup yang sama berbagi satu fetch.
func (s *DashboardService) Load(ctx context.Context, token, groupID, trigger string) (DashboardSnapshot, error) {
	g := s.group(groupID)

	g.mu.Lock()
	g.token = token
	if g.summary == nil {
		g.state = StateLoading
	} else {
		g.state = StateRefreshing
	}
	g.mu.Unlock()

	dashboardRefreshTotal.WithLabelValues(trigger).Inc()

	_, err, _ := s.flight.Do(groupID, func() (interface{}, error) {
		return nil, s.fetch(ctx, token, groupID)
	})
	if err != nil {
		dashboardRefreshFailures.Inc()
		g.mu.Lock()
		if g.summary != nil {
			// Data lama tetap ditampilkan; kegagalan hanya jadi notis.
			g.state = StateReady
			g.notice = refreshFailedNotice
		} else {
			g.state = StateIdle
		}
		g.mu.Unlock()
		return s.Snapshot(groupID), err
	}

	return s.Snapshot(groupID), nil
}

// fetch mengganti utuh ringkasan + siklus aktif grup.
func (s *DashboardService) fetch(ctx context.Context, token, groupID string) error {
	summary, err := s.backend.GetDashboard(ctx, token, groupID)
	if err != nil {
		return err
	}

	// Siklus aktif diambil terpisah; 404 sudah dinormalisasi oleh
	// client menjadi hasActiveCycle=false. Kegagalan lain tidak
	// menggagalkan ringkasan.
	cycle, cycleErr := s.backend.GetActiveCycle(ctx, token, groupID)
	if cycleErr != nil {
		config.Log.Warn("Gagal mengambil siklus aktif grup ", groupID, ": ", cycleErr)
	}

	g := s.group(groupID)
	g.mu.Lock()
	g.summary = summary
	if cycleErr == nil {
		g.cycle = cycle
	}
	g.lastUpdated = summary.LastUpdated
	if g.lastUpdated.IsZero() {
		g.lastUpdated = time.Now()
	}
	g.state = StateReady
	g.notice = ""
	snap := DashboardSnapshot{
		State:       g.state,
		Summary:     g.summary,
		Cycle:       g.cycle,
		LastUpdated: g.lastUpdated,
	}
	g.mu.Unlock()

	if s.hub != nil {
		s.hub.Broadcast(groupID, "summary", snap)
	}
	return nil
}

// Refresh adalah aksi refresh manual: minta backend membatalkan
// cache-nya dulu, lalu ambil ulang ringkasan.
func (s *DashboardService) Refresh(ctx context.Context, token, groupID string) (DashboardSnapshot, error) {
	if err := s.backend.InvalidateDashboard(ctx, token, groupID); err != nil {
		dashboardRefreshFailures.Inc()
		g := s.group(groupID)
		g.mu.Lock()
		if g.summary != nil {
			// Invalidate gagal tapi data lama masih ada: tampilkan
			// data itu dengan notis, jangan diam-diam.
			g.state = StateReady
			g.notice = refreshFailedNotice
		}
		g.mu.Unlock()
		return s.Snapshot(groupID), err
	}
	return s.Load(ctx, token, groupID, TriggerManual)
}

// Forget membuang state grup, misal saat grup di-deselect.
func (s *DashboardService) Forget(groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.groups, groupID)
}

// Run menjalankan poller latar: setiap periode, semua grup yang pernah
// dimuat di-refresh di belakang tanpa memblokir tampilan. Kegagalan
// hanya menghasilkan notis; data terakhir yang baik tetap tampil.
func (s *DashboardService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

func (s *DashboardService) pollOnce(ctx context.Context) {
	s.mu.Lock()
	targets := make(map[string]string, len(s.groups))
	for id, g := range s.groups {
		g.mu.Lock()
		if g.token != "" && g.summary != nil {
			targets[id] = g.token
		}
		g.mu.Unlock()
	}
	s.mu.Unlock()

	for groupID, token := range targets {
		go func(groupID, token string) {
			fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if _, err := s.Load(fetchCtx, token, groupID, TriggerInterval); err != nil {
				config.Log.Warn("Refresh latar gagal untuk grup ", groupID, ": ", err)
				if s.hub != nil {
					s.hub.Broadcast(groupID, "notice", refreshFailedNotice)
				}
			}
		}(groupID, token)
	}
}
