package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"gateway-go/models"
)

type fakeOnboardingBackend struct {
	createCalls int
	uploadCalls int
	lastReq     models.CreateGroupRequest

	createErr error
	uploadErr error
	count     int
}

func (f *fakeOnboardingBackend) CreateGroup(ctx context.Context, token string, req models.CreateGroupRequest) (string, error) {
	f.createCalls++
	f.lastReq = req
	if f.createErr != nil {
		return "", f.createErr
	}
	return "g-baru", nil
}

func (f *fakeOnboardingBackend) UploadMembers(ctx context.Context, token, groupID, filename string, file io.Reader) (int, error) {
	f.uploadCalls++
	if f.uploadErr != nil {
		return 0, f.uploadErr
	}
	return f.count, nil
}

func validForm() models.CreateGroupRequest {
	return models.CreateGroupRequest{
		GroupName:     "Arisan RT 05",
		AccountName:   "Rekening Bersama",
		Fee:           50000,
		GroupCategory: models.GroupCategorySocialGathering,
	}
}

func TestDeriveAccountName(t *testing.T) {
	if got := DeriveAccountName("  Arisan RT 05 "); got != "Rekening Arisan RT 05" {
		t.Errorf("DeriveAccountName = %q", got)
	}
	if got := DeriveAccountName("   "); got != "" {
		t.Errorf("nama kosong harus menghasilkan \"\", dapat %q", got)
	}
}

func TestCreateGroupValidationBlocksBackendCall(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*models.CreateGroupRequest)
		wantErr error
	}{
		{"nama kosong", func(r *models.CreateGroupRequest) { r.GroupName = "  " }, ErrGroupNameRequired},
		{"iuran nol", func(r *models.CreateGroupRequest) { r.Fee = 0 }, ErrFeeInvalid},
		{"iuran negatif", func(r *models.CreateGroupRequest) { r.Fee = -5 }, ErrFeeInvalid},
		{"kategori asing", func(r *models.CreateGroupRequest) { r.GroupCategory = "GAMING" }, ErrCategoryInvalid},
		{"kategori kosong", func(r *models.CreateGroupRequest) { r.GroupCategory = "" }, ErrCategoryInvalid},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			backend := &fakeOnboardingBackend{}
			svc := NewOnboardingService(backend, NewMemorySessionRepository(), nil)

			req := validForm()
			c.mutate(&req)

			_, err := svc.CreateGroup(context.Background(), "sid-1", "tok", req)
			if !errors.Is(err, c.wantErr) {
				t.Errorf("error = %v, mau %v", err, c.wantErr)
			}
			if backend.createCalls != 0 {
				t.Errorf("validasi gagal tidak boleh memanggil backend (%d panggilan)", backend.createCalls)
			}
		})
	}
}

func TestCreateGroupDerivesAccountName(t *testing.T) {
	backend := &fakeOnboardingBackend{}
	svc := NewOnboardingService(backend, NewMemorySessionRepository(), nil)

	req := validForm()
	req.AccountName = ""

	if _, err := svc.CreateGroup(context.Background(), "sid-1", "tok", req); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if backend.lastReq.AccountName != "Rekening Arisan RT 05" {
		t.Errorf("nama rekening tidak diturunkan: %q", backend.lastReq.AccountName)
	}
}

func TestCreateGroupPersistsActiveGroup(t *testing.T) {
	backend := &fakeOnboardingBackend{}
	repo := NewMemorySessionRepository()
	svc := NewOnboardingService(backend, repo, nil)
	ctx := context.Background()

	groupID, err := svc.CreateGroup(ctx, "sid-1", "tok", validForm())
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if groupID != "g-baru" {
		t.Errorf("groupID = %q", groupID)
	}
	if backend.createCalls != 1 {
		t.Errorf("backend dipanggil %d kali, mau 1", backend.createCalls)
	}

	got, _ := repo.Get(ctx, "sid-1", models.SessionKeyCurrentGroup)
	if got != "g-baru" {
		t.Errorf("grup aktif sesi = %q, mau g-baru", got)
	}
	step, _ := repo.Get(ctx, "sid-1", models.SessionKeyOnboardingStep)
	if step != "2" {
		t.Errorf("wizard harus lanjut ke step 2, dapat %q", step)
	}
}

func TestImportMembersWithoutFileSkips(t *testing.T) {
	backend := &fakeOnboardingBackend{}
	repo := NewMemorySessionRepository()
	svc := NewOnboardingService(backend, repo, nil)
	ctx := context.Background()

	if _, err := svc.CreateGroup(ctx, "sid-1", "tok", validForm()); err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	result, err := svc.ImportMembers(ctx, "sid-1", "tok", "", nil)
	if err != nil {
		t.Fatalf("ImportMembers: %v", err)
	}
	if !result.Skipped {
		t.Error("tanpa berkas harus Skipped")
	}
	if backend.uploadCalls != 0 {
		t.Errorf("tidak boleh ada upload, terjadi %d", backend.uploadCalls)
	}
}

func TestImportMembersRejectsBadExtensionBeforeUpload(t *testing.T) {
	backend := &fakeOnboardingBackend{}
	repo := NewMemorySessionRepository()
	svc := NewOnboardingService(backend, repo, nil)
	ctx := context.Background()

	svc.CreateGroup(ctx, "sid-1", "tok", validForm())

	for _, name := range []string{"anggota.pdf", "anggota.txt", "anggota", "anggota.xlsx.exe"} {
		_, err := svc.ImportMembers(ctx, "sid-1", "tok", name, strings.NewReader("data"))
		if !errors.Is(err, ErrRosterExtension) {
			t.Errorf("berkas %q harus ditolak, dapat %v", name, err)
		}
	}
	if backend.uploadCalls != 0 {
		t.Errorf("berkas ditolak sebelum upload, terjadi %d upload", backend.uploadCalls)
	}
}

func TestImportMembersAcceptedExtensions(t *testing.T) {
	for _, name := range []string{"anggota.xlsx", "anggota.XLS", "roster.csv"} {
		backend := &fakeOnboardingBackend{count: 7}
		repo := NewMemorySessionRepository()
		svc := NewOnboardingService(backend, repo, nil)
		ctx := context.Background()

		svc.CreateGroup(ctx, "sid-1", "tok", validForm())

		result, err := svc.ImportMembers(ctx, "sid-1", "tok", name, strings.NewReader("data"))
		if err != nil {
			t.Errorf("berkas %q harus diterima: %v", name, err)
			continue
		}
		if result.Imported != 7 {
			t.Errorf("imported = %d, mau 7", result.Imported)
		}
	}
}

func TestImportMembersFailureStillSucceeds(t *testing.T) {
	backend := &fakeOnboardingBackend{uploadErr: &APIError{Status: 500}}
	repo := NewMemorySessionRepository()
	svc := NewOnboardingService(backend, repo, nil)
	ctx := context.Background()

	svc.CreateGroup(ctx, "sid-1", "tok", validForm())

	result, err := svc.ImportMembers(ctx, "sid-1", "tok", "anggota.csv", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("kegagalan impor tidak boleh menggagalkan flow: %v", err)
	}
	if result.Warning == "" {
		t.Error("kegagalan impor harus meninggalkan peringatan")
	}
	if result.GroupID != "g-baru" {
		t.Errorf("groupID = %q", result.GroupID)
	}

	// Wizard tetap selesai.
	step, _ := repo.Get(ctx, "sid-1", models.SessionKeyOnboardingStep)
	if step != "" {
		t.Errorf("state wizard harus bersih, dapat %q", step)
	}
}

func TestImportMembersWithoutCreatedGroup(t *testing.T) {
	backend := &fakeOnboardingBackend{}
	svc := NewOnboardingService(backend, NewMemorySessionRepository(), nil)

	_, err := svc.ImportMembers(context.Background(), "sid-1", "tok", "anggota.csv", strings.NewReader("data"))
	if !errors.Is(err, ErrNoCreatedGroup) {
		t.Errorf("tanpa grup harus ErrNoCreatedGroup, dapat %v", err)
	}
}
