package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gateway-go/config"
	"gateway-go/models"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribeTypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"
)

var (
	transcribeClient *transcribe.Client
	s3Client         *s3.Client
	httpClient       = http.Client{Timeout: 10 * time.Second} // HTTP client untuk ambil hasil transkripsi
)

// InitVoiceServices inisialisasi klien Transcribe dan S3 untuk adapter
// input suara chatbot.
func InitVoiceServices() {
	cfg := config.AWSConfig
	transcribeClient = transcribe.NewFromConfig(cfg)
	s3Client = s3.NewFromConfig(cfg)
	config.Log.Info("✅ Layanan suara (Transcribe & S3) telah diinisialisasi.")
}

// VoiceEnabled melaporkan apakah adapter suara siap dipakai.
func VoiceEnabled() bool {
	return transcribeClient != nil && s3Client != nil && config.AWSBucketName != ""
}

func uploadToS3(key string, body []byte, contentType string) (string, error) {
	uploader := manager.NewUploader(s3Client)

	upInput := &s3.PutObjectInput{
		Bucket:      aws.String(config.AWSBucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}

	_, err := uploader.Upload(context.TODO(), upInput)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", config.AWSBucketName, config.AWSRegion, key), nil
}

// UploadUserVoiceToS3 mengunggah audio pengguna agar bisa diproses Transcribe.
func UploadUserVoiceToS3(fileName string, audio []byte) (string, error) {
	url, err := uploadToS3("user/"+fileName, audio, "audio/mpeg")
	if err != nil {
		return "", fmt.Errorf("gagal mengunggah suara pengguna ke S3: %v", err)
	}
	return url, nil
}

// UploadBotVoiceToS3 mengunggah audio hasil sintesis balasan bot.
func UploadBotVoiceToS3(fileName string, audio []byte) (string, error) {
	url, err := uploadToS3("bot/"+fileName, audio, "audio/mpeg")
	if err != nil {
		return "", fmt.Errorf("gagal mengunggah suara bot ke S3: %v", err)
	}
	return url, nil
}

// SynthesizeSpeech mengubah teks balasan bot menjadi audio mp3
// menggunakan Google Cloud Text-to-Speech.
func SynthesizeSpeech(text string) ([]byte, error) {
	ctx := context.Background()

	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: "id-ID",
			SsmlGender:   texttospeechpb.SsmlVoiceGender_FEMALE,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	}

	resp, err := client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize: %w", err)
	}

	if len(resp.AudioContent) == 0 {
		return nil, fmt.Errorf("empty audio content")
	}

	return resp.AudioContent, nil
}

// TranscribeAudio mentranskripsi audio pengguna: unggah ke S3, jalankan
// job Transcribe, tunggu hasilnya. Transkrip dikembalikan untuk mengisi
// kolom input chatbot (tidak dikirim otomatis).
func TranscribeAudio(audioData []byte) (string, string, error) {
	audioFileName := fmt.Sprintf("user-audio-%d.mp3", time.Now().Unix())

	audioURL, err := UploadUserVoiceToS3(audioFileName, audioData)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload audio: %v", err)
	}
	config.Log.WithField("uri", audioURL).Debug("Audio pengguna diunggah ke S3")

	jobName := fmt.Sprintf("transcribe-job-%d", time.Now().Unix())

	if err := StartTranscriptionJob(jobName, audioURL); err != nil {
		return "", "", fmt.Errorf("failed to start transcription job: %v", err)
	}

	transcript, err := GetTranscriptionResult(jobName)
	if err != nil {
		return "", "", err
	}

	return transcript, audioURL, nil
}

// StartTranscriptionJob memulai proses transkripsi dengan Amazon Transcribe
func StartTranscriptionJob(jobName, mediaUri string) error {
	input := &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		LanguageCode:         transcribeTypes.LanguageCodeIdId,
		MediaFormat:          transcribeTypes.MediaFormatMp3,
		Media: &transcribeTypes.Media{
			MediaFileUri: aws.String(mediaUri),
		},
		OutputBucketName: aws.String(config.AWSBucketName),
	}

	_, err := transcribeClient.StartTranscriptionJob(context.TODO(), input)
	if err != nil {
		return fmt.Errorf("gagal memulai tugas transkripsi: %v", err)
	}
	return nil
}

// GetTranscriptionResult mengambil hasil transkripsi jika sudah selesai
func GetTranscriptionResult(jobName string) (string, error) {
	for i := 0; i < 20; i++ {
		job, err := transcribeClient.GetTranscriptionJob(context.TODO(), &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return "", fmt.Errorf("gagal mendapatkan tugas transkripsi: %v", err)
		}

		status := job.TranscriptionJob.TranscriptionJobStatus
		if status == transcribeTypes.TranscriptionJobStatusCompleted {
			transcriptUrl := *job.TranscriptionJob.Transcript.TranscriptFileUri
			return fetchTranscriptFromURL(transcriptUrl)
		} else if status == transcribeTypes.TranscriptionJobStatusFailed {
			return "", errors.New("tugas transkripsi gagal")
		}

		time.Sleep(3 * time.Second) // tunggu sebelum cek ulang
	}

	return "", errors.New("tugas transkripsi kehabisan waktu")
}

// fetchTranscriptFromURL mengambil hasil transkrip dari URL (berformat JSON)
func fetchTranscriptFromURL(url string) (string, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return "", fmt.Errorf("gagal mengambil transkrip: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("url transkrip mengembalikan status non-OK: %s", resp.Status)
	}

	var result struct {
		Results struct {
			Transcripts []struct {
				Transcript string `json:"transcript"`
			} `json:"transcripts"`
		} `json:"results"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("gagal mendekode respons transkrip: %v", err)
	}

	if len(result.Results.Transcripts) == 0 {
		return "", errors.New("tidak ditemukan transkrip dalam hasil")
	}

	return result.Results.Transcripts[0].Transcript, nil
}

// SaveVoiceChatHistory mengarsipkan pasangan pesan suara ke MongoDB.
func SaveVoiceChatHistory(sid, groupID, transcript, userAudioURL, botAudioURL, responseMessage string) error {
	if config.MongoVoiceMessages == nil {
		return nil
	}

	now := time.Now()

	userMsg := models.VoiceMessage{
		SID:        sid,
		GroupID:    groupID,
		Sender:     "user",
		AudioURL:   userAudioURL,
		Transcript: transcript,
		Timestamp:  now,
	}

	botMsg := models.VoiceMessage{
		SID:        sid,
		GroupID:    groupID,
		Sender:     "bot",
		AudioURL:   botAudioURL,
		Transcript: responseMessage,
		Timestamp:  now.Add(1 * time.Millisecond),
	}

	_, err := config.MongoVoiceMessages.InsertMany(context.TODO(), []interface{}{userMsg, botMsg})
	return err
}

// ==== Arsip roster S3 ====

// S3RosterArchiver menyimpan salinan roster anggota yang valid ke S3
// sebelum diteruskan ke backend.
type S3RosterArchiver struct{}

func (S3RosterArchiver) ArchiveRoster(ctx context.Context, groupID, filename string, data []byte) (string, error) {
	if s3Client == nil || config.AWSBucketName == "" {
		return "", errors.New("penyimpanan S3 belum dikonfigurasi")
	}
	key := fmt.Sprintf("rosters/%s/%d-%s", groupID, time.Now().Unix(), filename)
	return uploadToS3(key, data, "application/octet-stream")
}
