package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server          ServerConfig
	Agora           AgoraConfig
	ProviderStorage ProviderStorageConfig
	Signer          SignerConfig
	SIP             SIPConfig
	Auth            AuthConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// AgoraConfig holds the cloud recording provider's REST credentials.
type AgoraConfig struct {
	AppID          string
	CustomerID     string
	CustomerSecret string
	BaseURL        string
	Preset         string // named recording preset, see internal/agora
	TimeoutSec     int    // outbound call timeout
}

// ProviderStorageConfig is the direct-write credential bundle handed to the
// provider in start requests so its recording service can write into the
// bucket. This is NOT the credential this service signs download URLs with;
// the two are independent trust relationships to the same bucket.
type ProviderStorageConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
}

// SignerConfig holds this service's own credentials for issuing signed
// download URLs against the recordings bucket.
type SignerConfig struct {
	Vendor               string // "gcs" or "s3"
	Bucket               string // defaults to ProviderStorage.Bucket
	GoogleServiceAccount string // raw JSON blob (vendor gcs)
	AWSRegion            string // vendor s3
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	URLTTLMinutes        int
	VerifyObjectExists   bool
}

// SIPConfig holds the SIP trunk used by /make-call. All-or-none: when
// GatewayURL is empty the telephony endpoint is disabled.
type SIPConfig struct {
	GatewayURL string
	TrunkURI   string
	Username   string
	Password   string
}

// AuthConfig holds inbound authentication settings. Both are optional;
// unset values leave the corresponding routes open.
type AuthConfig struct {
	JWTSecret     string // bearer JWT on control routes
	WebhookSecret string // HMAC shared secret on /webhook
}

// Enabled reports whether the telephony endpoint is configured.
func (c SIPConfig) Enabled() bool { return c.GatewayURL != "" }

// Load reads configuration from environment, with optional .env file.
// Required variables are validated together so a misconfigured deployment
// fails at startup with one complete error instead of per-request surprises.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Agora: AgoraConfig{
			AppID:          os.Getenv("AGORA_APP_ID"),
			CustomerID:     os.Getenv("AGORA_CUSTOMER_ID"),
			CustomerSecret: os.Getenv("AGORA_CUSTOMER_SECRET"),
			BaseURL:        getEnv("AGORA_BASE_URL", "https://api.agora.io"),
			Preset:         getEnv("RECORDING_PRESET", "audio-m4a"),
			TimeoutSec:     getEnvInt("AGORA_TIMEOUT_SEC", 30),
		},
		ProviderStorage: ProviderStorageConfig{
			AccessKey: os.Getenv("AGORA_GCS_ACCESS_KEY"),
			SecretKey: os.Getenv("AGORA_GCS_SECRET_KEY"),
			Bucket:    os.Getenv("AGORA_BUCKET_NAME"),
		},
		Signer: SignerConfig{
			Vendor:               getEnv("SIGNER_VENDOR", "gcs"),
			Bucket:               os.Getenv("SIGNER_BUCKET"),
			GoogleServiceAccount: os.Getenv("GOOGLE_SERVICE_ACCOUNT"),
			AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
			AWSAccessKeyID:       os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretAccessKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
			URLTTLMinutes:        getEnvInt("SIGNED_URL_TTL_MINUTES", 60),
			VerifyObjectExists:   getEnvBool("SIGNER_VERIFY_EXISTS", false),
		},
		SIP: SIPConfig{
			GatewayURL: os.Getenv("SIP_GATEWAY_URL"),
			TrunkURI:   os.Getenv("SIP_TRUNK_URI"),
			Username:   os.Getenv("SIP_TRUNK_USERNAME"),
			Password:   os.Getenv("SIP_TRUNK_PASSWORD"),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("AUTH_JWT_SECRET"),
			WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		},
	}
	if cfg.Signer.Bucket == "" {
		cfg.Signer.Bucket = cfg.ProviderStorage.Bucket
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BucketMismatch reports whether the signer bucket differs from the bucket
// the provider writes into. Callers should log this loudly; the two values
// are never silently reconciled.
func (c *Config) BucketMismatch() bool {
	return c.Signer.Bucket != c.ProviderStorage.Bucket
}

func (c *Config) validate() error {
	var missing []string
	require := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	require("AGORA_APP_ID", c.Agora.AppID)
	require("AGORA_CUSTOMER_ID", c.Agora.CustomerID)
	require("AGORA_CUSTOMER_SECRET", c.Agora.CustomerSecret)
	require("AGORA_GCS_ACCESS_KEY", c.ProviderStorage.AccessKey)
	require("AGORA_GCS_SECRET_KEY", c.ProviderStorage.SecretKey)
	require("AGORA_BUCKET_NAME", c.ProviderStorage.Bucket)

	switch c.Signer.Vendor {
	case "gcs":
		require("GOOGLE_SERVICE_ACCOUNT", c.Signer.GoogleServiceAccount)
	case "s3":
		require("AWS_ACCESS_KEY_ID", c.Signer.AWSAccessKeyID)
		require("AWS_SECRET_ACCESS_KEY", c.Signer.AWSSecretAccessKey)
	default:
		return fmt.Errorf("config: SIGNER_VENDOR must be gcs or s3, got %q", c.Signer.Vendor)
	}

	if c.SIP.Enabled() {
		require("SIP_TRUNK_URI", c.SIP.TrunkURI)
		require("SIP_TRUNK_USERNAME", c.SIP.Username)
		require("SIP_TRUNK_PASSWORD", c.SIP.Password)
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
