// Package agora is the outbound client for the provider's cloud recording
// REST API. It translates the four recording operations into authenticated
// HTTP calls and hands the upstream's response back untouched; interpreting
// recording state is the caller's business, not this package's.
package agora

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/clearvoice/recording-gateway/config"
)

// Response carries an upstream reply for verbatim relay. A non-2xx status is
// not an error at this layer: the body and code are passed through so the
// caller sees exactly what the provider said. Errors are reserved for
// transport failures (timeout, DNS, connection refused).
type Response struct {
	StatusCode int
	Body       []byte
}

// Client issues recording operations against the provider API. It holds no
// per-request state; every call is an independent request/response exchange.
type Client struct {
	httpClient *http.Client
	baseURL    string
	appID      string
	authHeader string
	preset     Preset
	storage    config.ProviderStorageConfig
	logger     *zap.Logger
}

// NewClient creates a recording gateway client. The preset and the
// direct-write storage bundle are fixed at construction; requests only
// supply channel/uid/resource identifiers.
func NewClient(cfg config.AgoraConfig, storage config.ProviderStorageConfig, preset Preset, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		appID:      cfg.AppID,
		authHeader: BasicAuth(cfg.CustomerID, cfg.CustomerSecret),
		preset:     preset,
		storage:    storage,
		logger:     logger,
	}
}

// Mode returns the recording mode fixed by the configured preset.
func (c *Client) Mode() string { return c.preset.Mode }

type acquirePayload struct {
	Cname         string   `json:"cname"`
	UID           string   `json:"uid"`
	ClientRequest struct{} `json:"clientRequest"`
}

type recordingConfig struct {
	MaxIdleTime         int                `json:"maxIdleTime"`
	StreamTypes         int                `json:"streamTypes"`
	ChannelType         int                `json:"channelType"`
	VideoStreamType     int                `json:"videoStreamType"`
	PostponeTranscoding bool               `json:"postponeTranscoding,omitempty"`
	TranscodingConfig   *TranscodingConfig `json:"transcodingConfig,omitempty"`
}

type recordingFileConfig struct {
	AVFileType []string `json:"avFileType"`
}

type storageConfig struct {
	Vendor         int      `json:"vendor"`
	Region         int      `json:"region"`
	Bucket         string   `json:"bucket"`
	AccessKey      string   `json:"accessKey"`
	SecretKey      string   `json:"secretKey"`
	FileNamePrefix []string `json:"fileNamePrefix"`
}

type startClientRequest struct {
	Token               string              `json:"token"`
	RecordingConfig     recordingConfig     `json:"recordingConfig"`
	RecordingFileConfig recordingFileConfig `json:"recordingFileConfig"`
	StorageConfig       storageConfig       `json:"storageConfig"`
}

type startPayload struct {
	Cname         string             `json:"cname"`
	UID           string             `json:"uid"`
	ClientRequest startClientRequest `json:"clientRequest"`
}

// Acquire requests a recording resource for the channel.
// POST /v1/apps/{appID}/cloud_recording/acquire
func (c *Client) Acquire(ctx context.Context, channel, uid string) (*Response, error) {
	u := fmt.Sprintf("%s/v1/apps/%s/cloud_recording/acquire", c.baseURL, c.appID)
	return c.do(ctx, http.MethodPost, u, acquirePayload{Cname: channel, UID: defaultUID(uid)})
}

// Start begins recording on an acquired resource. The recording token is the
// channel's media access token and may be empty for channels without one.
// POST .../resourceid/{rid}/mode/{mode}/start
func (c *Client) Start(ctx context.Context, channel, uid, resourceID, token string) (*Response, error) {
	u := fmt.Sprintf("%s/v1/apps/%s/cloud_recording/resourceid/%s/mode/%s/start",
		c.baseURL, c.appID, url.PathEscape(resourceID), c.preset.Mode)
	payload := startPayload{
		Cname: channel,
		UID:   defaultUID(uid),
		ClientRequest: startClientRequest{
			Token: token,
			RecordingConfig: recordingConfig{
				MaxIdleTime:         c.preset.MaxIdleTime,
				StreamTypes:         c.preset.StreamTypes,
				ChannelType:         c.preset.ChannelType,
				VideoStreamType:     c.preset.VideoStreamType,
				PostponeTranscoding: c.preset.PostponeTranscoding,
				TranscodingConfig:   c.preset.Transcoding,
			},
			RecordingFileConfig: recordingFileConfig{AVFileType: c.preset.AVFileType},
			StorageConfig: storageConfig{
				Vendor:         c.preset.StorageVendor,
				Region:         c.preset.StorageRegion,
				Bucket:         c.storage.Bucket,
				AccessKey:      c.storage.AccessKey,
				SecretKey:      c.storage.SecretKey,
				FileNamePrefix: c.preset.FileNamePrefix,
			},
		},
	}
	return c.do(ctx, http.MethodPost, u, payload)
}

// Stop ends the recording session.
// POST .../resourceid/{rid}/sid/{sid}/mode/{mode}/stop
func (c *Client) Stop(ctx context.Context, channel, uid, resourceID, sid string) (*Response, error) {
	u := fmt.Sprintf("%s/v1/apps/%s/cloud_recording/resourceid/%s/sid/%s/mode/%s/stop",
		c.baseURL, c.appID, url.PathEscape(resourceID), url.PathEscape(sid), c.preset.Mode)
	return c.do(ctx, http.MethodPost, u, acquirePayload{Cname: channel, UID: defaultUID(uid)})
}

// Query fetches the current recording status.
// GET .../resourceid/{rid}/sid/{sid}/mode/{mode}/query
func (c *Client) Query(ctx context.Context, resourceID, sid string) (*Response, error) {
	u := fmt.Sprintf("%s/v1/apps/%s/cloud_recording/resourceid/%s/sid/%s/mode/%s/query",
		c.baseURL, c.appID, url.PathEscape(resourceID), url.PathEscape(sid), c.preset.Mode)
	return c.do(ctx, http.MethodGet, u, nil)
}

func (c *Client) do(ctx context.Context, method, rawURL string, payload interface{}) (*Response, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("agora: marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("agora: build request: %w", err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agora: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("agora: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("provider returned non-2xx",
			zap.Int("status", resp.StatusCode),
			zap.String("method", method),
			zap.String("url", rawURL),
		)
	}
	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

func defaultUID(uid string) string {
	if uid == "" {
		return "0"
	}
	return uid
}
