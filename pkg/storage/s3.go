package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Config holds the signer-side S3 credentials. These belong to this
// service, not to the provider's direct-write bundle.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

// S3Signer issues presigned GET URLs for an S3 recordings bucket.
type S3Signer struct {
	presign *s3.PresignClient
	cfg     S3Config
	logger  *zap.Logger
}

// NewS3Signer creates an S3 signer. Static credentials are used when set;
// otherwise the default credential chain applies.
func NewS3Signer(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3Signer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
	} else {
		logger.Warn("S3 signer using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3Signer{
		presign: s3.NewPresignClient(client),
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Bucket returns the bucket this signer issues URLs against.
func (s *S3Signer) Bucket() string { return s.cfg.Bucket }

// SignedDownloadURL returns a presigned GET URL valid until now+ttl. No
// existence check is performed; S3 reports a missing object when the URL is
// used.
func (s *S3Signer) SignedDownloadURL(ctx context.Context, object string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(object),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", object, err)
	}
	return req.URL, nil
}
