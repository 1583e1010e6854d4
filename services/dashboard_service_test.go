package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"gateway-go/models"
)

// fakeDashboardBackend menghitung panggilan dan bisa dibuat gagal.
type fakeDashboardBackend struct {
	getCalls        int64
	invalidateCalls int64

	failGet        atomic.Bool
	failInvalidate atomic.Bool
	noCycle        bool
	failCycle      bool
}

func (f *fakeDashboardBackend) GetDashboard(ctx context.Context, token, groupID string) (*models.DashboardSummary, error) {
	atomic.AddInt64(&f.getCalls, 1)
	if f.failGet.Load() {
		return nil, &APIError{Status: 500}
	}
	return &models.DashboardSummary{
		Group:       models.Group{ID: groupID, Name: "Arisan RT"},
		LastUpdated: time.Now(),
	}, nil
}

func (f *fakeDashboardBackend) InvalidateDashboard(ctx context.Context, token, groupID string) error {
	atomic.AddInt64(&f.invalidateCalls, 1)
	if f.failInvalidate.Load() {
		return &APIError{Status: 500}
	}
	return nil
}

func (f *fakeDashboardBackend) GetActiveCycle(ctx context.Context, token, groupID string) (*models.PaymentCycle, error) {
	if f.failCycle {
		return nil, &APIError{Status: 500}
	}
	if f.noCycle {
		// 404 backend sudah dinormalisasi client menjadi "tanpa siklus".
		return &models.PaymentCycle{HasActiveCycle: false}, nil
	}
	return &models.PaymentCycle{CycleID: "c-1", Period: "2026-09", HasActiveCycle: true}, nil
}

func TestDashboardInitialLoad(t *testing.T) {
	backend := &fakeDashboardBackend{}
	svc := NewDashboardService(backend, time.Minute, nil)

	snap := svc.Snapshot("g-1")
	if snap.State != StateIdle {
		t.Fatalf("state awal = %v, mau idle", snap.State)
	}

	snap, err := svc.Load(context.Background(), "tok", "g-1", TriggerInitial)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.State != StateReady {
		t.Errorf("state setelah load = %v, mau ready", snap.State)
	}
	if snap.Summary == nil || snap.Summary.Group.Name != "Arisan RT" {
		t.Errorf("ringkasan tidak terisi: %+v", snap.Summary)
	}
	if snap.Cycle == nil || !snap.Cycle.HasActiveCycle {
		t.Errorf("siklus aktif harus terisi: %+v", snap.Cycle)
	}
	if snap.LastUpdated.IsZero() {
		t.Error("lastUpdated tidak boleh nol setelah load sukses")
	}
}

func TestDashboardNoActiveCycle(t *testing.T) {
	backend := &fakeDashboardBackend{noCycle: true}
	svc := NewDashboardService(backend, time.Minute, nil)

	snap, err := svc.Load(context.Background(), "tok", "g-1", TriggerInitial)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.State != StateReady {
		t.Errorf("grup tanpa siklus tetap ready, dapat %v", snap.State)
	}
	if snap.Cycle == nil || snap.Cycle.HasActiveCycle {
		t.Errorf("tanpa siklus aktif harus hasActiveCycle=false: %+v", snap.Cycle)
	}
}

func TestDashboardInitialFailureStaysIdle(t *testing.T) {
	backend := &fakeDashboardBackend{}
	backend.failGet.Store(true)
	svc := NewDashboardService(backend, time.Minute, nil)

	snap, err := svc.Load(context.Background(), "tok", "g-1", TriggerInitial)
	if err == nil {
		t.Fatal("Load harus gagal")
	}
	if snap.State != StateIdle {
		t.Errorf("gagal tanpa data lama harus kembali idle, dapat %v", snap.State)
	}
	if snap.Summary != nil {
		t.Errorf("tidak boleh ada ringkasan: %+v", snap.Summary)
	}
}

func TestDashboardRefreshFailureKeepsLastGood(t *testing.T) {
	backend := &fakeDashboardBackend{}
	svc := NewDashboardService(backend, time.Minute, nil)
	ctx := context.Background()

	if _, err := svc.Load(ctx, "tok", "g-1", TriggerInitial); err != nil {
		t.Fatalf("load awal: %v", err)
	}

	backend.failGet.Store(true)
	snap, err := svc.Load(ctx, "tok", "g-1", TriggerInterval)
	if err == nil {
		t.Fatal("refresh harus gagal")
	}
	if snap.State != StateReady {
		t.Errorf("data lama tetap tampil (ready), dapat %v", snap.State)
	}
	if snap.Summary == nil {
		t.Fatal("ringkasan lama tidak boleh hilang")
	}
	if snap.Notice == "" {
		t.Error("kegagalan refresh harus meninggalkan notis")
	}

	// Refresh sukses berikutnya membersihkan notis.
	backend.failGet.Store(false)
	snap, err = svc.Load(ctx, "tok", "g-1", TriggerInterval)
	if err != nil {
		t.Fatalf("refresh ulang: %v", err)
	}
	if snap.Notice != "" {
		t.Errorf("notis harus bersih setelah sukses, dapat %q", snap.Notice)
	}
}

func TestDashboardManualRefreshInvalidatesFirst(t *testing.T) {
	backend := &fakeDashboardBackend{}
	svc := NewDashboardService(backend, time.Minute, nil)
	ctx := context.Background()

	if _, err := svc.Load(ctx, "tok", "g-1", TriggerInitial); err != nil {
		t.Fatalf("load awal: %v", err)
	}

	// Dua refresh manual berturut-turut: masing-masing tepat satu
	// invalidate lalu satu fetch, tidak ada panggilan tersembunyi.
	if _, err := svc.Refresh(ctx, "tok", "g-1"); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if n := atomic.LoadInt64(&backend.invalidateCalls); n != 1 {
		t.Errorf("invalidate dipanggil %d kali, mau 1", n)
	}
	if n := atomic.LoadInt64(&backend.getCalls); n != 2 {
		t.Errorf("get dipanggil %d kali, mau 2", n)
	}

	if _, err := svc.Refresh(ctx, "tok", "g-1"); err != nil {
		t.Fatalf("Refresh kedua: %v", err)
	}
	if n := atomic.LoadInt64(&backend.invalidateCalls); n != 2 {
		t.Errorf("invalidate dipanggil %d kali, mau 2", n)
	}
	if n := atomic.LoadInt64(&backend.getCalls); n != 3 {
		t.Errorf("get dipanggil %d kali, mau 3", n)
	}
}

func TestDashboardInvalidateFailureLeavesNotice(t *testing.T) {
	backend := &fakeDashboardBackend{}
	svc := NewDashboardService(backend, time.Minute, nil)
	ctx := context.Background()

	if _, err := svc.Load(ctx, "tok", "g-1", TriggerInitial); err != nil {
		t.Fatalf("load awal: %v", err)
	}

	backend.failInvalidate.Store(true)
	snap, err := svc.Refresh(ctx, "tok", "g-1")
	if err == nil {
		t.Fatal("Refresh harus meneruskan kegagalan invalidate")
	}
	if snap.Summary == nil {
		t.Fatal("ringkasan lama tidak boleh hilang")
	}
	if snap.Notice == "" {
		t.Error("kegagalan invalidate harus meninggalkan notis, bukan diam")
	}
	if n := atomic.LoadInt64(&backend.getCalls); n != 1 {
		t.Errorf("invalidate gagal tidak boleh lanjut fetch (get=%d, mau 1)", n)
	}
}

func TestDashboardCycleFailureKeepsSummary(t *testing.T) {
	backend := &fakeDashboardBackend{failCycle: true}
	svc := NewDashboardService(backend, time.Minute, nil)

	snap, err := svc.Load(context.Background(), "tok", "g-1", TriggerInitial)
	if err != nil {
		t.Fatalf("kegagalan siklus tidak boleh menggagalkan ringkasan: %v", err)
	}
	if snap.Summary == nil {
		t.Fatal("ringkasan harus tetap terisi")
	}
}

func TestDashboardForget(t *testing.T) {
	backend := &fakeDashboardBackend{}
	svc := NewDashboardService(backend, time.Minute, nil)

	if _, err := svc.Load(context.Background(), "tok", "g-1", TriggerInitial); err != nil {
		t.Fatalf("load: %v", err)
	}
	svc.Forget("g-1")

	snap := svc.Snapshot("g-1")
	if snap.State != StateIdle || snap.Summary != nil {
		t.Errorf("state harus kembali kosong setelah Forget: %+v", snap)
	}
}

func TestDashboardErrorClassification(t *testing.T) {
	// Error terklasifikasi diteruskan apa adanya agar controller bisa
	// memetakan 401/403/404 ke navigasi.
	backend := &fakeDashboardBackend{}
	svc := NewDashboardService(backend, time.Minute, nil)

	backend.failGet.Store(true)
	_, err := svc.Load(context.Background(), "tok", "g-1", TriggerInitial)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error harus tetap bertipe APIError, dapat %T", err)
	}
}
