package recordings

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clearvoice/recording-gateway/pkg/storage"
)

// signatureHeader carries the hex HMAC-SHA256 of the raw request body.
const signatureHeader = "X-Webhook-Signature"

// WebhookFile is one produced file as the provider reports it.
type WebhookFile struct {
	FileName string `json:"fileName"`
}

// WebhookPayload is the provider's completion notification body.
type WebhookPayload struct {
	NoticeID  string `json:"noticeId"`
	EventType int    `json:"eventType"`
	Payload   struct {
		FileList []WebhookFile `json:"fileList"`
	} `json:"payload"`
}

// WebhookHandler converts provider completion notifications into signed
// download URLs. Every delivery is processed independently: URLs are signed
// fresh, never cached, and repeated deliveries are not deduplicated.
type WebhookHandler struct {
	signer storage.Signer
	secret []byte // empty disables signature verification
	ttl    time.Duration
	logger *zap.Logger
}

// NewWebhookHandler creates a webhook handler. An empty secret leaves the
// route unauthenticated; callers should log a warning at startup in that
// case.
func NewWebhookHandler(signer storage.Signer, secret string, ttl time.Duration, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = storage.DefaultURLTTL
	}
	return &WebhookHandler{signer: signer, secret: []byte(secret), ttl: ttl, logger: logger}
}

// RecordingReady handles POST /webhook. The provider posts the file list of
// a finished recording; the response maps each file to a time-limited signed
// download URL. An empty or absent file list yields {"files": []} without
// touching the signer.
func (h *WebhookHandler) RecordingReady(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body: " + err.Error()})
		return
	}
	if len(h.secret) > 0 && !h.verifySignature(raw, c.GetHeader(signatureHeader)) {
		h.logger.Warn("webhook signature mismatch", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	var body WebhookPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload: " + err.Error()})
			return
		}
	}

	deliveryID := body.NoticeID
	if deliveryID == "" {
		deliveryID = uuid.New().String()
	}
	h.logger.Info("webhook received",
		zap.String("delivery_id", deliveryID),
		zap.Int("event_type", body.EventType),
		zap.Int("file_count", len(body.Payload.FileList)),
	)

	if h.signer == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage signer not configured"})
		return
	}

	files := make([]storage.SignedFile, 0, len(body.Payload.FileList))
	for _, f := range body.Payload.FileList {
		if f.FileName == "" {
			continue
		}
		expiresAt := time.Now().Add(h.ttl)
		url, err := h.signer.SignedDownloadURL(c.Request.Context(), f.FileName, h.ttl)
		if err != nil {
			h.logger.Error("sign download url failed",
				zap.Error(err),
				zap.String("delivery_id", deliveryID),
				zap.String("file", f.FileName),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		files = append(files, storage.SignedFile{
			FileName:    f.FileName,
			DownloadURL: url,
			ExpiresAt:   expiresAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (h *WebhookHandler) verifySignature(body []byte, header string) bool {
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

// Sign computes the hex HMAC-SHA256 signature for a body. Exported for
// provider-side configuration checks and tests.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
