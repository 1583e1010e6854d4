package controllers

import (
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gateway-go/config"
	"gateway-go/middleware"
	"gateway-go/models"
	"gateway-go/services"
)

// UploadVoiceHandler menerima rekaman suara, mentranskripsinya, dan
// mengembalikan transkrip untuk mengisi kolom input chatbot. Transkrip
// TIDAK dikirim otomatis sebagai pesan; pengguna tetap menekan kirim.
func UploadVoiceHandler(c *gin.Context) {
	sid, _ := requestIdentity(c)
	groupID := c.GetString(middleware.CtxCurrentGroup)

	if !services.VoiceEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Fitur suara tidak tersedia"})
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gagal mendapatkan berkas audio"})
		return
	}

	inputPath := filepath.Join(os.TempDir(), file.Filename)
	if err := c.SaveUploadedFile(file, inputPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "gagal menyimpan berkas audio"})
		return
	}
	defer os.Remove(inputPath)

	fileInfo, err := os.Stat(inputPath)
	if err != nil || fileInfo.Size() < 1000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File audio terlalu kecil atau corrupt"})
		return
	}

	// Konversi rekaman browser (webm) ke mp3 untuk Transcribe.
	outputPath := filepath.Join(os.TempDir(),
		"converted_"+strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))+".mp3")
	defer os.Remove(outputPath)

	cmd := exec.Command("ffmpeg", "-y", "-i", inputPath, outputPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		config.Log.Warn("⚠️ Peringatan atau kesalahan FFmpeg: ", string(output))
	}

	fi, statErr := os.Stat(outputPath)
	if statErr != nil || fi.Size() == 0 {
		config.Log.Error("❌ Berkas output tidak ditemukan atau kosong: ", statErr)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Konversi MP3 gagal atau menghasilkan file kosong.",
		})
		return
	}
	config.Log.WithField("bytes", fi.Size()).Info("✅ Konversi MP3 berhasil")

	mp3Bytes, err := os.ReadFile(outputPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal membaca file MP3"})
		return
	}

	transcript, s3Uri, err := services.TranscribeAudio(mp3Bytes)
	if err != nil {
		config.Log.Error("Transkripsi gagal: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal mentranskrip audio"})
		return
	}

	if err := services.SaveVoiceChatHistory(sid, groupID, transcript, s3Uri, "", ""); err != nil {
		config.Log.Warn("Gagal mengarsipkan pesan suara: ", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"transcript": transcript,
		"audio_url":  s3Uri,
	})
}

// SpeakReplyHandler mengubah teks balasan bot menjadi audio mp3 dan
// mengembalikan URL S3-nya, untuk tombol "dengarkan balasan".
func SpeakReplyHandler(c *gin.Context) {
	sid, _ := requestIdentity(c)
	groupID := c.GetString(middleware.CtxCurrentGroup)

	if !services.VoiceEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Fitur suara tidak tersedia"})
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text wajib diisi"})
		return
	}

	voiceBytes, err := services.SynthesizeSpeech(req.Text)
	if err != nil {
		config.Log.Error("Sintesis suara gagal: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal mengonversi teks menjadi suara"})
		return
	}

	botAudioURL, err := services.UploadBotVoiceToS3("bot_"+sid+".mp3", voiceBytes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal mengunggah audio bot ke S3"})
		return
	}

	if err := services.SaveVoiceChatHistory(sid, groupID, "", "", botAudioURL, req.Text); err != nil {
		config.Log.Warn("Gagal mengarsipkan pesan suara: ", err)
	}

	c.JSON(http.StatusOK, gin.H{"bot_audio_url": botAudioURL})
}

// GetVoiceMessages mengembalikan arsip pesan suara sesi ini, terurut
// berdasarkan waktu.
func GetVoiceMessages(c *gin.Context) {
	sid, _ := requestIdentity(c)
	groupID := c.GetString(middleware.CtxCurrentGroup)
	ctx := c.Request.Context()

	if config.MongoVoiceMessages == nil {
		c.JSON(http.StatusOK, []models.VoiceMessage{})
		return
	}

	filter := bson.M{"sid": sid, "group_id": groupID}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := config.MongoVoiceMessages.Find(ctx, filter, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal mengambil voice messages"})
		return
	}
	defer cursor.Close(ctx)

	var messages []models.VoiceMessage
	if err := cursor.All(ctx, &messages); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Gagal memproses data voice messages"})
		return
	}
	if messages == nil {
		messages = []models.VoiceMessage{}
	}

	c.JSON(http.StatusOK, messages)
}

// ServeAudioFile menyajikan berkas audio lokal (fallback saat S3 mati).
func ServeAudioFile(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	filePath := filepath.Join("uploads", filename)

	file, err := os.Open(filePath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File audio tidak ditemukan"})
		return
	}
	defer file.Close()

	c.Header("Content-Type", "audio/mpeg")
	c.Header("Content-Disposition", "inline; filename="+filename)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, file)
}
