package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ==== Bagian: Chatbot Request & Response ====

type ChatbotRequest struct {
	Message string `json:"message" binding:"required"`
}

// BackendChatRequest adalah payload yang diteruskan ke backend.
// SessionID dibuat baru untuk setiap pesan.
type BackendChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// BackendChatResponse adalah balasan chatbot dari backend.
type BackendChatResponse struct {
	Response string `json:"response"`
	Type     string `json:"type,omitempty"`
}

// ChatMessage adalah satu entri transkrip percakapan.
// Transkrip bersifat append-only dan hidup sepanjang sesi gateway saja.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"` // "user" atau "bot"
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ==== Bagian: MongoDB Conversation (arsip best-effort) ====

type ArchivedMessage struct {
	Sender    string `bson:"sender" json:"sender"`
	Message   string `bson:"message" json:"message"`
	Timestamp string `bson:"timestamp" json:"timestamp"`
}

type Conversation struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SID       string             `bson:"sid" json:"sid"`
	GroupID   string             `bson:"group_id" json:"group_id"`
	Username  string             `bson:"username" json:"username"`
	Messages  []ArchivedMessage  `bson:"messages" json:"messages"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type VoiceMessage struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SID        string             `bson:"sid"`
	GroupID    string             `bson:"group_id"`
	Sender     string             `bson:"sender"`
	AudioURL   string             `bson:"audio_url"`
	Transcript string             `bson:"transcript"`
	Timestamp  time.Time          `bson:"timestamp"`
}
