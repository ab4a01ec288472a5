// Package recordings exposes the cloud recording proxy endpoints. Each
// handler validates required identifiers, issues exactly one gateway call,
// and relays the provider's status code and JSON body unchanged. No
// recording state lives here: resource and session IDs belong to the caller.
package recordings

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clearvoice/recording-gateway/internal/agora"
	"github.com/clearvoice/recording-gateway/pkg/response"
)

// Gateway is the recording provider client used by the handlers.
type Gateway interface {
	Acquire(ctx context.Context, channel, uid string) (*agora.Response, error)
	Start(ctx context.Context, channel, uid, resourceID, token string) (*agora.Response, error)
	Stop(ctx context.Context, channel, uid, resourceID, sid string) (*agora.Response, error)
	Query(ctx context.Context, resourceID, sid string) (*agora.Response, error)
}

// Handler handles recording control HTTP endpoints.
type Handler struct {
	gateway Gateway
	logger  *zap.Logger
}

// NewHandler creates a recordings handler.
func NewHandler(gateway Gateway, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{gateway: gateway, logger: logger}
}

// ControlRequest is the body shared by acquire/start/stop/query. Fields not
// required by an operation are ignored.
type ControlRequest struct {
	Channel    string `json:"channel"`
	UID        string `json:"uid"`
	ResourceID string `json:"resourceId"`
	SID        string `json:"sid"`
	Token      string `json:"token"` // optional media access token for start
}

// Acquire handles POST /acquire.
func (h *Handler) Acquire(c *gin.Context) {
	var body ControlRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if body.Channel == "" {
		response.BadRequest(c, "channel required")
		return
	}
	resp, err := h.gateway.Acquire(c.Request.Context(), body.Channel, body.UID)
	if err != nil {
		h.relayTransportError(c, "acquire", body.Channel, err)
		return
	}
	c.Data(resp.StatusCode, "application/json", resp.Body)
}

// Start handles POST /start.
func (h *Handler) Start(c *gin.Context) {
	var body ControlRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if body.Channel == "" {
		response.BadRequest(c, "channel required")
		return
	}
	if body.ResourceID == "" {
		response.BadRequest(c, "resourceId required")
		return
	}
	resp, err := h.gateway.Start(c.Request.Context(), body.Channel, body.UID, body.ResourceID, body.Token)
	if err != nil {
		h.relayTransportError(c, "start", body.Channel, err)
		return
	}
	c.Data(resp.StatusCode, "application/json", resp.Body)
}

// Stop handles POST /stop.
func (h *Handler) Stop(c *gin.Context) {
	var body ControlRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if body.Channel == "" {
		response.BadRequest(c, "channel required")
		return
	}
	if body.ResourceID == "" {
		response.BadRequest(c, "resourceId required")
		return
	}
	if body.SID == "" {
		response.BadRequest(c, "sid required")
		return
	}
	resp, err := h.gateway.Stop(c.Request.Context(), body.Channel, body.UID, body.ResourceID, body.SID)
	if err != nil {
		h.relayTransportError(c, "stop", body.Channel, err)
		return
	}
	c.Data(resp.StatusCode, "application/json", resp.Body)
}

// Query handles POST /query.
func (h *Handler) Query(c *gin.Context) {
	var body ControlRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if body.ResourceID == "" {
		response.BadRequest(c, "resourceId required")
		return
	}
	if body.SID == "" {
		response.BadRequest(c, "sid required")
		return
	}
	resp, err := h.gateway.Query(c.Request.Context(), body.ResourceID, body.SID)
	if err != nil {
		h.relayTransportError(c, "query", "", err)
		return
	}
	c.Data(resp.StatusCode, "application/json", resp.Body)
}

func (h *Handler) relayTransportError(c *gin.Context, op, channel string, err error) {
	h.logger.Error("provider call failed",
		zap.String("op", op),
		zap.String("channel", channel),
		zap.Error(err),
	)
	response.BadGateway(c, "recording provider unreachable: "+err.Error())
}
