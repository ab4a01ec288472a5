// Package telephony bridges a phone number into a media channel through the
// provider's SIP gateway. Like internal/agora, this is a boundary adapter:
// it translates one request into one authenticated upstream call and keeps
// all routing decisions with the caller.
package telephony

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/clearvoice/recording-gateway/config"
	"github.com/clearvoice/recording-gateway/internal/agora"
)

// Client places outbound calls via the SIP gateway. Trunk credentials are
// deployment-fixed; requests only carry channel, callee and media token.
type Client struct {
	httpClient *http.Client
	gatewayURL string
	trunk      config.SIPConfig
	authHeader string
	logger     *zap.Logger
}

// NewClient creates a SIP bridge client sharing the provider's Basic auth.
func NewClient(sip config.SIPConfig, agoraCfg config.AgoraConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(agoraCfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		gatewayURL: sip.GatewayURL,
		trunk:      sip,
		authHeader: agora.BasicAuth(agoraCfg.CustomerID, agoraCfg.CustomerSecret),
		logger:     logger,
	}
}

type rtcConfig struct {
	ChannelName string `json:"channelName"`
	UID         string `json:"uid"`
	Token       string `json:"token"`
}

type sipConfig struct {
	URI      string `json:"uri"`
	Username string `json:"username"`
	Password string `json:"password"`
	Callee   string `json:"callee"`
}

type callPayload struct {
	RTCConfig rtcConfig `json:"rtcConfig"`
	SIPConfig sipConfig `json:"sipConfig"`
}

// PlaceCall dials phoneNumber over the SIP trunk and bridges it into the
// channel using the media token. The gateway's response is relayed verbatim.
func (c *Client) PlaceCall(ctx context.Context, channel, phoneNumber, mediaToken, uid string) (*agora.Response, error) {
	if uid == "" {
		uid = "0"
	}
	payload := callPayload{
		RTCConfig: rtcConfig{ChannelName: channel, UID: uid, Token: mediaToken},
		SIPConfig: sipConfig{
			URI:      c.trunk.TrunkURI,
			Username: c.trunk.Username,
			Password: c.trunk.Password,
			Callee:   phoneNumber,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telephony: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("telephony: build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telephony: POST %s: %w", c.gatewayURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telephony: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("sip gateway returned non-2xx",
			zap.Int("status", resp.StatusCode),
			zap.String("channel", channel),
		)
	}
	return &agora.Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
