package recordings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeSigner struct {
	signCalls int
	lastTTL   time.Duration
	err       error
}

func (f *fakeSigner) SignedDownloadURL(ctx context.Context, object string, ttl time.Duration) (string, error) {
	f.signCalls++
	f.lastTTL = ttl
	if f.err != nil {
		return "", f.err
	}
	return "https://storage.example.com/" + object + "?sig=abc", nil
}

func (f *fakeSigner) Bucket() string { return "recordings-bucket" }

func newWebhookRouter(signer *fakeSigner, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(signer, secret, time.Hour, nil)
	r := gin.New()
	r.POST("/webhook", h.RecordingReady)
	return r
}

func postWebhook(r *gin.Engine, body, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(signatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookEmptyFileList(t *testing.T) {
	signer := &fakeSigner{}
	r := newWebhookRouter(signer, "")

	w := postWebhook(r, `{"eventType":31,"payload":{"fileList":[]}}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Files []json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Files) != 0 {
		t.Fatalf("expected empty files, got %d", len(resp.Files))
	}
	if signer.signCalls != 0 {
		t.Fatalf("expected zero signing calls, got %d", signer.signCalls)
	}
}

func TestWebhookSignsEachFile(t *testing.T) {
	signer := &fakeSigner{}
	r := newWebhookRouter(signer, "")

	body := `{"payload":{"fileList":[{"fileName":"a.m4a"},{"fileName":"b.m4a"}]}}`
	w := postWebhook(r, body, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Files []struct {
			FileName    string `json:"file_name"`
			DownloadURL string `json:"download_url"`
		} `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(resp.Files))
	}
	if resp.Files[0].FileName != "a.m4a" || resp.Files[1].FileName != "b.m4a" {
		t.Fatalf("order not preserved: %+v", resp.Files)
	}
	if !strings.Contains(resp.Files[0].DownloadURL, "a.m4a") {
		t.Fatalf("unexpected url: %q", resp.Files[0].DownloadURL)
	}
	if signer.signCalls != 2 {
		t.Fatalf("expected 2 signing calls, got %d", signer.signCalls)
	}
	if signer.lastTTL != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", signer.lastTTL)
	}
}

func TestWebhookSigningFailureReturns500(t *testing.T) {
	signer := &fakeSigner{err: errors.New("storage: sign a.m4a: bad key")}
	r := newWebhookRouter(signer, "")

	w := postWebhook(r, `{"payload":{"fileList":[{"fileName":"a.m4a"}]}}`, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var resp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == "" {
		t.Fatal("expected non-empty error")
	}
}

func TestWebhookNilSignerReturns500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(nil, "", time.Hour, nil)
	r := gin.New()
	r.POST("/webhook", h.RecordingReady)

	w := postWebhook(r, `{"payload":{"fileList":[{"fileName":"a.m4a"}]}}`, "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "error") {
		t.Fatalf("expected error field, got %s", w.Body.String())
	}
}

func TestWebhookSignatureRequiredWhenConfigured(t *testing.T) {
	signer := &fakeSigner{}
	r := newWebhookRouter(signer, "hook-secret")
	body := `{"payload":{"fileList":[{"fileName":"a.m4a"}]}}`

	w := postWebhook(r, body, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for missing signature, got %d", w.Code)
	}

	w = postWebhook(r, body, "deadbeef")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad signature, got %d", w.Code)
	}
	if signer.signCalls != 0 {
		t.Fatalf("expected zero signing calls before auth, got %d", signer.signCalls)
	}

	w = postWebhook(r, body, Sign("hook-secret", []byte(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid signature, got %d: %s", w.Code, w.Body.String())
	}
	if signer.signCalls != 1 {
		t.Fatalf("expected 1 signing call, got %d", signer.signCalls)
	}
}

func TestWebhookRepeatDeliveriesNotDeduplicated(t *testing.T) {
	signer := &fakeSigner{}
	r := newWebhookRouter(signer, "")
	body := `{"noticeId":"n1","payload":{"fileList":[{"fileName":"a.m4a"}]}}`

	for i := 0; i < 2; i++ {
		if w := postWebhook(r, body, ""); w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	}
	if signer.signCalls != 2 {
		t.Fatalf("expected independent signing per delivery, got %d calls", signer.signCalls)
	}
}
