package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// serviceAccount is the subset of a Google service-account key file needed
// for V4 URL signing.
type serviceAccount struct {
	Type        string `json:"type"`
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
}

// GCSSigner issues V4 signed GET URLs for a Google Cloud Storage bucket
// using a service-account key. Signing is purely local (no network); the
// storage client is only dialed when existence verification is enabled.
type GCSSigner struct {
	bucket       string
	accessID     string
	privateKey   []byte
	client       *gcs.Client // nil unless verifyExists
	verifyExists bool
	logger       *zap.Logger
}

// NewGCSSigner parses the service-account JSON blob and prepares a signer
// for the bucket. A malformed or incomplete blob is a fatal configuration
// error: better to refuse to start than to fail on the first webhook.
func NewGCSSigner(ctx context.Context, bucket string, serviceAccountJSON []byte, verifyExists bool, logger *zap.Logger) (*GCSSigner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var sa serviceAccount
	if err := json.Unmarshal(serviceAccountJSON, &sa); err != nil {
		return nil, fmt.Errorf("storage: parse service account: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, errors.New("storage: service account missing client_email or private_key")
	}

	s := &GCSSigner{
		bucket:       bucket,
		accessID:     sa.ClientEmail,
		privateKey:   []byte(sa.PrivateKey),
		verifyExists: verifyExists,
		logger:       logger,
	}
	if verifyExists {
		client, err := gcs.NewClient(ctx, option.WithCredentialsJSON(serviceAccountJSON))
		if err != nil {
			return nil, fmt.Errorf("storage: create gcs client: %w", err)
		}
		s.client = client
	}
	return s, nil
}

// Bucket returns the bucket this signer issues URLs against.
func (s *GCSSigner) Bucket() string { return s.bucket }

// SignedDownloadURL returns a V4 signed GET URL valid until now+ttl. When
// existence verification is enabled the object must already be present;
// otherwise a URL may validly point at an object still being written.
func (s *GCSSigner) SignedDownloadURL(ctx context.Context, object string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	if s.verifyExists {
		if err := s.checkExists(ctx, object); err != nil {
			return "", err
		}
	}
	u, err := gcs.SignedURL(s.bucket, object, &gcs.SignedURLOptions{
		GoogleAccessID: s.accessID,
		PrivateKey:     s.privateKey,
		Method:         http.MethodGet,
		Expires:        time.Now().Add(ttl),
		Scheme:         gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("storage: sign %s: %w", object, err)
	}
	return u, nil
}

func (s *GCSSigner) checkExists(ctx context.Context, object string) error {
	_, err := s.client.Bucket(s.bucket).Object(object).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, object)
	}
	if err != nil {
		return fmt.Errorf("storage: stat %s: %w", object, err)
	}
	return nil
}

// Close releases the existence-check client, if any.
func (s *GCSSigner) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
