package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"gateway-go/models"
)

// Error terklasifikasi dari backend; controller memetakan ini ke
// redirect (401 -> login, 403/404 -> pilih grup) atau toast.
var (
	ErrUnauthorized = errors.New("token tidak valid atau kedaluwarsa")
	ErrForbidden    = errors.New("akses ke grup ditolak")
	ErrNotFound     = errors.New("sumber daya tidak ditemukan")
)

// APIError adalah kegagalan backend non-2xx lain yang bersifat
// recoverable: state lama dipertahankan, pengguna boleh mencoba ulang.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend mengembalikan status %d", e.Status)
}

// BackendClient memanggil REST API backend dengan bearer token.
type BackendClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewBackendClient(baseURL string) *BackendClient {
	return &BackendClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// errorMessage mencoba membaca pesan dari body error backend.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func statusError(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return &APIError{Status: status, Message: errorMessage(body)}
	}
}

func (c *BackendClient) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("gagal memanggil backend: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("gagal membaca respons backend: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("gagal memproses respons backend: %w", err)
		}
	}
	return nil
}

func (c *BackendClient) doJSON(ctx context.Context, method, path, token string, payload, out interface{}) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, token, body, contentType, out)
}

// ListUserGroups mengambil semua grup milik pengguna.
func (c *BackendClient) ListUserGroups(ctx context.Context, token string) ([]models.Group, error) {
	var groups []models.Group
	if err := c.doJSON(ctx, http.MethodGet, "/user/groups", token, nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup membuat grup baru dan mengembalikan ID-nya. Backend
// menaruh ID pada field "groupId" atau "id".
func (c *BackendClient) CreateGroup(ctx context.Context, token string, req models.CreateGroupRequest) (string, error) {
	var resp models.CreateGroupResponse
	if err := c.doJSON(ctx, http.MethodPost, "/groups", token, req, &resp); err != nil {
		return "", err
	}
	id := resp.CreatedID()
	if id == "" {
		return "", errors.New("backend tidak mengembalikan ID grup")
	}
	return id, nil
}

// GetDashboard mengambil dokumen ringkasan dashboard untuk sebuah grup.
func (c *BackendClient) GetDashboard(ctx context.Context, token, groupID string) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	path := fmt.Sprintf("/groups/%s/dashboard", groupID)
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// InvalidateDashboard meminta backend menghitung ulang cache ringkasan.
func (c *BackendClient) InvalidateDashboard(ctx context.Context, token, groupID string) error {
	path := fmt.Sprintf("/groups/%s/dashboard/refresh", groupID)
	return c.doJSON(ctx, http.MethodPost, path, token, nil, nil)
}

// GetActiveCycle mengambil siklus penagihan aktif. Respons 404 berarti
// "tidak ada siklus aktif" dan bukan error.
func (c *BackendClient) GetActiveCycle(ctx context.Context, token, groupID string) (*models.PaymentCycle, error) {
	var cycle models.PaymentCycle
	path := fmt.Sprintf("/groups/%s/payment-cycles/active", groupID)
	err := c.doJSON(ctx, http.MethodGet, path, token, nil, &cycle)
	if errors.Is(err, ErrNotFound) {
		return &models.PaymentCycle{HasActiveCycle: false}, nil
	}
	if err != nil {
		return nil, err
	}
	cycle.HasActiveCycle = true
	return &cycle, nil
}

// StartPaymentCycle membuka siklus penagihan baru untuk grup.
func (c *BackendClient) StartPaymentCycle(ctx context.Context, token, groupID string, req models.StartCycleRequest) (*models.PaymentCycle, error) {
	var cycle models.PaymentCycle
	path := fmt.Sprintf("/groups/%s/payment-cycles/start", groupID)
	if err := c.doJSON(ctx, http.MethodPost, path, token, req, &cycle); err != nil {
		return nil, err
	}
	cycle.HasActiveCycle = true
	return &cycle, nil
}

// ClosePaymentCycle menutup siklus penagihan yang sedang berjalan.
func (c *BackendClient) ClosePaymentCycle(ctx context.Context, token, groupID, cycleID string) error {
	path := fmt.Sprintf("/groups/%s/payment-cycles/%s/close", groupID, cycleID)
	return c.doJSON(ctx, http.MethodPost, path, token, nil, nil)
}

// UploadMembers mengunggah berkas roster anggota (multipart) dan
// mengembalikan jumlah anggota yang berhasil diimpor.
func (c *BackendClient) UploadMembers(ctx context.Context, token, groupID, filename string, file io.Reader) (int, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return 0, err
	}
	if err := writer.Close(); err != nil {
		return 0, err
	}

	path := fmt.Sprintf("/groups/%s/members/upload", groupID)
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, token, &buf, writer.FormDataContentType(), &raw); err != nil {
		return 0, err
	}

	// Backend bisa membalas {"count": n} atau langsung array anggota.
	var result models.MemberUploadResult
	if err := json.Unmarshal(raw, &result); err == nil && result.Count > 0 {
		return result.Count, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return len(list), nil
	}
	return 0, nil
}

// SendChatMessage meneruskan pesan chatbot ke backend.
func (c *BackendClient) SendChatMessage(ctx context.Context, token, groupID, message, sessionID string) (*models.BackendChatResponse, error) {
	var resp models.BackendChatResponse
	path := fmt.Sprintf("/groups/%s/chatbot/message", groupID)
	req := models.BackendChatRequest{Message: message, SessionID: sessionID}
	if err := c.doJSON(ctx, http.MethodPost, path, token, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
