package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gateway-go/models"
)

type fakeChatBackend struct {
	calls    int
	sessions []string
	fail     bool
	block    chan struct{} // jika non-nil, panggilan menunggu channel ditutup
	reply    string
}

func (f *fakeChatBackend) SendChatMessage(ctx context.Context, token, groupID, message, sessionID string) (*models.BackendChatResponse, error) {
	f.calls++
	f.sessions = append(f.sessions, sessionID)
	if f.block != nil {
		<-f.block
	}
	if f.fail {
		return nil, &APIError{Status: 502}
	}
	reply := f.reply
	if reply == "" {
		reply = "Halo!"
	}
	return &models.BackendChatResponse{Response: reply}, nil
}

func TestChatbotRejectsEmptyMessage(t *testing.T) {
	backend := &fakeChatBackend{}
	svc := NewChatbotService(backend, nil)

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := svc.SendMessage(context.Background(), "sid-1", "tok", "g-1", msg)
		if !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("pesan %q harus ditolak ErrEmptyMessage, dapat %v", msg, err)
		}
	}
	if backend.calls != 0 {
		t.Errorf("pesan kosong tidak boleh sampai ke backend, terjadi %d panggilan", backend.calls)
	}
	if len(svc.Transcript("sid-1")) != 0 {
		t.Error("transkrip harus tetap kosong")
	}
}

func TestChatbotOptimisticAppend(t *testing.T) {
	backend := &fakeChatBackend{reply: "Iuran bulan ini Rp50.000."}
	svc := NewChatbotService(backend, nil)

	bot, err := svc.SendMessage(context.Background(), "sid-1", "tok", "g-1", "  berapa iuran?  ")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if bot.Sender != "bot" || bot.Text != "Iuran bulan ini Rp50.000." {
		t.Errorf("balasan tidak sesuai: %+v", bot)
	}

	msgs := svc.Transcript("sid-1")
	if len(msgs) != 2 {
		t.Fatalf("transkrip harus 2 pesan, dapat %d", len(msgs))
	}
	if msgs[0].Sender != "user" || msgs[0].Text != "berapa iuran?" {
		t.Errorf("pesan user salah: %+v", msgs[0])
	}
	if msgs[1].Sender != "bot" {
		t.Errorf("pesan kedua harus dari bot: %+v", msgs[1])
	}
}

func TestChatbotFreshSessionIDPerMessage(t *testing.T) {
	backend := &fakeChatBackend{}
	svc := NewChatbotService(backend, nil)
	ctx := context.Background()

	svc.SendMessage(ctx, "sid-1", "tok", "g-1", "satu")
	svc.SendMessage(ctx, "sid-1", "tok", "g-1", "dua")

	if len(backend.sessions) != 2 {
		t.Fatalf("backend harus dipanggil 2 kali, dapat %d", len(backend.sessions))
	}
	for _, s := range backend.sessions {
		if !strings.HasPrefix(s, "session-") {
			t.Errorf("session id %q harus berprefiks session-", s)
		}
	}
	if backend.sessions[0] == backend.sessions[1] {
		t.Error("setiap pesan harus memakai session id baru")
	}
}

func TestChatbotFallbackOnBackendFailure(t *testing.T) {
	backend := &fakeChatBackend{fail: true}
	svc := NewChatbotService(backend, nil)

	bot, err := svc.SendMessage(context.Background(), "sid-1", "tok", "g-1", "halo")
	if err != nil {
		t.Fatalf("kegagalan backend bersifat terminal, bukan error: %v", err)
	}
	if bot.Text != chatbotFallbackMessage {
		t.Errorf("balasan = %q, mau fallback", bot.Text)
	}

	msgs := svc.Transcript("sid-1")
	if len(msgs) != 2 {
		t.Fatalf("pesan user tetap tampil walau backend gagal, dapat %d pesan", len(msgs))
	}
	if msgs[0].Sender != "user" {
		t.Errorf("pesan user hilang: %+v", msgs)
	}
}

func TestChatbotSingleOutstandingRequest(t *testing.T) {
	backend := &fakeChatBackend{block: make(chan struct{})}
	svc := NewChatbotService(backend, nil)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.SendMessage(ctx, "sid-1", "tok", "g-1", "pertama")
	}()

	// Tunggu sampai pesan pertama masuk transkrip (optimistis).
	for len(svc.Transcript("sid-1")) == 0 {
		time.Sleep(time.Millisecond)
	}

	_, err := svc.SendMessage(ctx, "sid-1", "tok", "g-1", "kedua")
	if !errors.Is(err, ErrChatBusy) {
		t.Fatalf("pengiriman kedua harus ErrChatBusy, dapat %v", err)
	}
	if got := len(svc.Transcript("sid-1")); got != 1 {
		t.Errorf("pengiriman yang ditolak tidak boleh mengubah transkrip, dapat %d pesan", got)
	}

	close(backend.block)
	<-done

	if backend.calls != 1 {
		t.Errorf("backend harus dipanggil tepat sekali, dapat %d", backend.calls)
	}

	// Setelah giliran selesai, pengiriman baru diterima lagi.
	if _, err := svc.SendMessage(ctx, "sid-1", "tok", "g-1", "ketiga"); err != nil {
		t.Errorf("pengiriman setelah selesai harus diterima: %v", err)
	}
}

func TestChatbotResetDropsTranscript(t *testing.T) {
	backend := &fakeChatBackend{}
	svc := NewChatbotService(backend, nil)
	ctx := context.Background()

	svc.SendMessage(ctx, "sid-1", "tok", "g-1", "halo")
	svc.Reset("sid-1")

	if got := len(svc.Transcript("sid-1")); got != 0 {
		t.Errorf("transkrip harus kosong setelah Reset, dapat %d pesan", got)
	}
}

func TestChatbotTranscriptIsolatedPerSession(t *testing.T) {
	backend := &fakeChatBackend{}
	svc := NewChatbotService(backend, nil)
	ctx := context.Background()

	svc.SendMessage(ctx, "sid-1", "tok", "g-1", "halo")

	if got := len(svc.Transcript("sid-2")); got != 0 {
		t.Errorf("sesi lain harus mulai kosong, dapat %d pesan", got)
	}
}
