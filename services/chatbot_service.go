package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"gateway-go/config"
	"gateway-go/models"
)

var (
	ErrEmptyMessage = errors.New("pesan tidak boleh kosong")
	ErrChatBusy     = errors.New("masih ada pesan yang sedang diproses")
)

// Balasan tetap saat backend gagal; satu kegagalan bersifat terminal
// untuk giliran itu, tidak ada retry otomatis.
const chatbotFallbackMessage = "Maaf, terjadi gangguan sementara. Silakan coba lagi."

// ChatBackend adalah bagian backend yang dipakai sesi chatbot.
type ChatBackend interface {
	SendChatMessage(ctx context.Context, token, groupID, message, sessionID string) (*models.BackendChatResponse, error)
}

// ConversationArchive mengarsipkan pasangan pesan user/bot secara
// best-effort. Arsip tidak pernah dibaca balik ke transkrip tampilan.
type ConversationArchive interface {
	AppendExchange(ctx context.Context, sid, groupID, username string, userMsg, botMsg models.ChatMessage) error
}

type chatTranscript struct {
	mu       sync.Mutex
	messages []models.ChatMessage
	busy     bool
}

// ChatbotService memegang transkrip percakapan per sesi gateway.
// Transkrip append-only, hanya hidup di memori: sesi baru mulai kosong.
type ChatbotService struct {
	backend ChatBackend
	archive ConversationArchive // boleh nil

	mu       sync.Mutex
	sessions map[string]*chatTranscript
}

func NewChatbotService(backend ChatBackend, archive ConversationArchive) *ChatbotService {
	return &ChatbotService{
		backend:  backend,
		archive:  archive,
		sessions: make(map[string]*chatTranscript),
	}
}

func (s *ChatbotService) transcript(sid string) *chatTranscript {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.sessions[sid]
	if !ok {
		t = &chatTranscript{}
		s.sessions[sid] = t
	}
	return t
}

// Transcript mengembalikan salinan transkrip sesi.
func (s *ChatbotService) Transcript(sid string) []models.ChatMessage {
	t := s.transcript(sid)
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Reset membuang transkrip sesi, dipanggil saat logout.
func (s *ChatbotService) Reset(sid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
}

// SendMessage memproses satu giliran percakapan.
//
// Kontrak: input kosong ditolak; selama satu request masih terbang,
// pengiriman lain jadi no-op (satu outstanding request, tanpa antrean).
// Pesan user di-append optimistis tanpa rollback; kegagalan backend
// menghasilkan balasan fallback tetap.
func (s *ChatbotService) SendMessage(ctx context.Context, sid, token, groupID, text string) (models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	t := s.transcript(sid)

	t.mu.Lock()
	if t.busy {
		t.mu.Unlock()
		return models.ChatMessage{}, ErrChatBusy
	}
	t.busy = true

	userMsg := models.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    "user",
		Text:      text,
		Timestamp: time.Now(),
	}
	t.messages = append(t.messages, userMsg)
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.busy = false
		t.mu.Unlock()
	}()

	sessionID := "session-" + uuid.NewString()
	resp, err := s.backend.SendChatMessage(ctx, token, groupID, text, sessionID)

	botMsg := models.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    "bot",
		Timestamp: time.Now(),
	}
	if err != nil {
		config.Log.Error("Chatbot gagal membalas: ", err)
		botMsg.Text = chatbotFallbackMessage
		chatbotMessagesTotal.WithLabelValues("fallback").Inc()
	} else {
		botMsg.Text = resp.Response
		chatbotMessagesTotal.WithLabelValues("reply").Inc()
	}

	t.mu.Lock()
	t.messages = append(t.messages, botMsg)
	t.mu.Unlock()

	if s.archive != nil && err == nil {
		username := DecodeClaims(token).DisplayName()
		go func() {
			archiveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.archive.AppendExchange(archiveCtx, sid, groupID, username, userMsg, botMsg); err != nil {
				config.Log.Warn("Gagal mengarsipkan percakapan: ", err)
			}
		}()
	}

	return botMsg, nil
}

// ==== Arsip MongoDB ====

// MongoConversationArchive menyimpan riwayat percakapan ke koleksi
// conversations, satu dokumen per (sid, grup).
type MongoConversationArchive struct {
	Collection *mongo.Collection
}

func (a *MongoConversationArchive) AppendExchange(ctx context.Context, sid, groupID, username string, userMsg, botMsg models.ChatMessage) error {
	archived := []models.ArchivedMessage{
		{Sender: userMsg.Sender, Message: userMsg.Text, Timestamp: userMsg.Timestamp.Format(time.RFC3339)},
		{Sender: botMsg.Sender, Message: botMsg.Text, Timestamp: botMsg.Timestamp.Format(time.RFC3339)},
	}

	filter := bson.M{"sid": sid, "group_id": groupID}
	var existing bson.M
	err := a.Collection.FindOne(ctx, filter).Decode(&existing)

	now := time.Now()

	if err != nil {
		// Dokumen baru
		convo := models.Conversation{
			SID:       sid,
			GroupID:   groupID,
			Username:  username,
			Messages:  archived,
			CreatedAt: now,
			UpdatedAt: now,
		}
		_, insertErr := a.Collection.InsertOne(ctx, convo)
		return insertErr
	}

	// Jika sudah ada, push message baru dan update waktu
	update := bson.M{
		"$push": bson.M{
			"messages": bson.M{
				"$each": archived,
			},
		},
		"$set": bson.M{
			"updated_at": now,
		},
	}

	_, updateErr := a.Collection.UpdateOne(ctx, filter, update)
	return updateErr
}
