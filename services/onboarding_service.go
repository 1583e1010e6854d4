package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"gateway-go/config"
	"gateway-go/models"
)

// Ekstensi roster yang diterima sebelum upload dilakukan.
var allowedRosterExtensions = map[string]bool{
	"xlsx": true,
	"xls":  true,
	"csv":  true,
}

var (
	ErrGroupNameRequired   = errors.New("nama grup wajib diisi")
	ErrAccountNameRequired = errors.New("nama rekening wajib diisi")
	ErrFeeInvalid          = errors.New("iuran bulanan harus bilangan positif")
	ErrCategoryInvalid     = errors.New("kategori grup tidak dikenal")
	ErrRosterExtension     = errors.New("hanya berkas .xlsx, .xls, atau .csv yang didukung")
	ErrNoCreatedGroup      = errors.New("grup belum dibuat pada sesi ini")
)

// DeriveAccountName menurunkan nama rekening default dari nama grup.
// Pengguna tetap bisa menyuntingnya sebelum submit.
func DeriveAccountName(groupName string) string {
	name := strings.TrimSpace(groupName)
	if name == "" {
		return ""
	}
	return fmt.Sprintf("Rekening %s", name)
}

// ValidateGroupForm memeriksa field step 1. Kegagalan apa pun
// memblokir submit tanpa satu pun panggilan jaringan.
func ValidateGroupForm(req *models.CreateGroupRequest) error {
	req.GroupName = strings.TrimSpace(req.GroupName)
	req.AccountName = strings.TrimSpace(req.AccountName)
	req.Description = strings.TrimSpace(req.Description)

	if req.GroupName == "" {
		return ErrGroupNameRequired
	}
	if req.AccountName == "" {
		req.AccountName = DeriveAccountName(req.GroupName)
	}
	if req.AccountName == "" {
		return ErrAccountNameRequired
	}
	if req.Fee <= 0 {
		return ErrFeeInvalid
	}
	if !models.ValidGroupCategory(req.GroupCategory) {
		return ErrCategoryInvalid
	}
	return nil
}

// ValidateRosterFilename menolak berkas di luar allow-list ekstensi.
func ValidateRosterFilename(filename string) error {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if !allowedRosterExtensions[ext] {
		return ErrRosterExtension
	}
	return nil
}

// OnboardingBackend adalah bagian backend yang dipakai wizard.
type OnboardingBackend interface {
	CreateGroup(ctx context.Context, token string, req models.CreateGroupRequest) (string, error)
	UploadMembers(ctx context.Context, token, groupID, filename string, file io.Reader) (int, error)
}

// RosterArchiver menyimpan salinan roster yang diterima (mis. ke S3).
// Murni best-effort; kegagalan hanya dicatat.
type RosterArchiver interface {
	ArchiveRoster(ctx context.Context, groupID, filename string, data []byte) (string, error)
}

// ImportResult merangkum hasil step 2.
type ImportResult struct {
	GroupID  string `json:"groupId"`
	Imported int    `json:"imported"`
	Skipped  bool   `json:"skipped"`
	Warning  string `json:"warning,omitempty"`
}

// OnboardingService menjalankan wizard dua langkah pembuatan grup.
// Setelah step 1 berhasil, grup sudah ada di backend dan wizard tidak
// bisa mundur; kegagalan impor anggota tidak membatalkan grup.
type OnboardingService struct {
	backend  OnboardingBackend
	sessions SessionRepository
	archiver RosterArchiver // boleh nil
}

func NewOnboardingService(backend OnboardingBackend, sessions SessionRepository, archiver RosterArchiver) *OnboardingService {
	return &OnboardingService{backend: backend, sessions: sessions, archiver: archiver}
}

// CreateGroup menjalankan step 1: validasi lalu satu panggilan
// pembuatan grup. ID hasil pembuatan dipersist sebagai grup aktif.
func (s *OnboardingService) CreateGroup(ctx context.Context, sid, token string, req models.CreateGroupRequest) (string, error) {
	if err := ValidateGroupForm(&req); err != nil {
		return "", err
	}

	groupID, err := s.backend.CreateGroup(ctx, token, req)
	if err != nil {
		return "", err
	}

	if err := s.sessions.Set(ctx, sid, models.SessionKeyCurrentGroup, groupID); err != nil {
		return "", err
	}
	if err := s.sessions.Set(ctx, sid, models.SessionKeyOnboardingStep, "2"); err != nil {
		config.Log.Warn("Gagal menyimpan state wizard: ", err)
	}

	config.Log.WithField("group_id", groupID).Info("Grup baru dibuat")
	return groupID, nil
}

// ImportMembers menjalankan step 2. Tanpa berkas, flow langsung
// selesai sebagai sukses. Dengan berkas: ekstensi divalidasi sebelum
// upload; kegagalan upload tetap menyelesaikan flow dengan peringatan
// karena grup sudah ada.
func (s *OnboardingService) ImportMembers(ctx context.Context, sid, token, filename string, file io.Reader) (ImportResult, error) {
	groupID, err := s.sessions.Get(ctx, sid, models.SessionKeyCurrentGroup)
	if err != nil {
		return ImportResult{}, err
	}
	if groupID == "" {
		return ImportResult{}, ErrNoCreatedGroup
	}

	result := ImportResult{GroupID: groupID}

	if filename == "" || file == nil {
		result.Skipped = true
		s.finish(ctx, sid)
		return result, nil
	}

	if err := ValidateRosterFilename(filename); err != nil {
		return ImportResult{}, err
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return ImportResult{}, fmt.Errorf("gagal membaca berkas roster: %w", err)
	}

	if s.archiver != nil {
		if url, err := s.archiver.ArchiveRoster(ctx, groupID, filename, data); err != nil {
			config.Log.Warn("Gagal mengarsipkan roster: ", err)
		} else {
			config.Log.WithField("url", url).Debug("Roster diarsipkan")
		}
	}

	count, err := s.backend.UploadMembers(ctx, token, groupID, filename, bytes.NewReader(data))
	if err != nil {
		// Grup sudah dibuat; impor yang gagal bukan kegagalan flow.
		config.Log.Warn("Impor anggota gagal untuk grup ", groupID, ": ", err)
		memberImportsTotal.WithLabelValues("failed").Inc()
		result.Warning = "Grup berhasil dibuat, tetapi impor anggota gagal. Anggota dapat ditambahkan nanti dari halaman grup."
		s.finish(ctx, sid)
		return result, nil
	}

	memberImportsTotal.WithLabelValues("ok").Inc()
	result.Imported = count
	s.finish(ctx, sid)
	return result, nil
}

func (s *OnboardingService) finish(ctx context.Context, sid string) {
	if err := s.sessions.Clear(ctx, sid, models.SessionKeyOnboardingStep); err != nil {
		config.Log.Warn("Gagal membersihkan state wizard: ", err)
	}
}
