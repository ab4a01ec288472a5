package telephony

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/clearvoice/recording-gateway/internal/agora"
	"github.com/clearvoice/recording-gateway/pkg/response"
)

// Bridge places calls through the SIP gateway. Nil disables /make-call.
type Bridge interface {
	PlaceCall(ctx context.Context, channel, phoneNumber, mediaToken, uid string) (*agora.Response, error)
}

// Handler handles the outbound call HTTP endpoint.
type Handler struct {
	bridge Bridge
	logger *zap.Logger
}

// NewHandler creates a telephony handler. bridge may be nil when the SIP
// trunk is not configured.
func NewHandler(bridge Bridge, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{bridge: bridge, logger: logger}
}

// MakeCallRequest is the body for POST /make-call.
type MakeCallRequest struct {
	Channel string `json:"channel"`
	Phone   string `json:"phone"`
	Token   string `json:"token"`
	UID     string `json:"uid"`
}

// MakeCall handles POST /make-call. Validation failures return 400 before
// any outbound call is made.
func (h *Handler) MakeCall(c *gin.Context) {
	if h.bridge == nil {
		response.ServiceUnavailable(c, "telephony not configured (SIP_GATEWAY_URL, SIP_TRUNK_*)")
		return
	}
	var body MakeCallRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if body.Channel == "" {
		response.BadRequest(c, "channel required")
		return
	}
	if body.Phone == "" {
		response.BadRequest(c, "phone required")
		return
	}
	if body.Token == "" {
		response.BadRequest(c, "token required")
		return
	}

	resp, err := h.bridge.PlaceCall(c.Request.Context(), body.Channel, body.Phone, body.Token, body.UID)
	if err != nil {
		h.logger.Error("place call failed", zap.Error(err), zap.String("channel", body.Channel))
		response.BadGateway(c, "sip gateway unreachable: "+err.Error())
		return
	}
	c.Data(resp.StatusCode, "application/json", resp.Body)
}
