package config

import (
	"strings"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("AGORA_APP_ID", "app123")
	t.Setenv("AGORA_CUSTOMER_ID", "abc")
	t.Setenv("AGORA_CUSTOMER_SECRET", "xyz")
	t.Setenv("AGORA_GCS_ACCESS_KEY", "write-key")
	t.Setenv("AGORA_GCS_SECRET_KEY", "write-secret")
	t.Setenv("AGORA_BUCKET_NAME", "recordings-bucket")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT", `{"type":"service_account"}`)
}

func TestLoadMissingRequiredFailsFast(t *testing.T) {
	setRequired(t)
	t.Setenv("AGORA_APP_ID", "")
	t.Setenv("AGORA_CUSTOMER_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required variables")
	}
	msg := err.Error()
	if !strings.Contains(msg, "AGORA_APP_ID") || !strings.Contains(msg, "AGORA_CUSTOMER_SECRET") {
		t.Fatalf("expected all missing variables named, got %q", msg)
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Agora.BaseURL != "https://api.agora.io" {
		t.Fatalf("unexpected base url: %q", cfg.Agora.BaseURL)
	}
	if cfg.Agora.TimeoutSec != 30 {
		t.Fatalf("expected 30s default timeout, got %d", cfg.Agora.TimeoutSec)
	}
	if cfg.Signer.Vendor != "gcs" || cfg.Signer.URLTTLMinutes != 60 {
		t.Fatalf("unexpected signer defaults: %+v", cfg.Signer)
	}
	if cfg.Signer.Bucket != "recordings-bucket" {
		t.Fatalf("signer bucket should default to provider bucket, got %q", cfg.Signer.Bucket)
	}
	if cfg.BucketMismatch() {
		t.Fatal("expected no bucket mismatch when signer bucket defaults")
	}
	if cfg.SIP.Enabled() {
		t.Fatal("expected telephony disabled without SIP_GATEWAY_URL")
	}
}

func TestLoadBucketMismatchFlagged(t *testing.T) {
	setRequired(t)
	t.Setenv("SIGNER_BUCKET", "some-other-bucket")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.BucketMismatch() {
		t.Fatal("expected bucket mismatch to be flagged")
	}
	if cfg.Signer.Bucket != "some-other-bucket" {
		t.Fatalf("signer bucket must not be silently reconciled, got %q", cfg.Signer.Bucket)
	}
}

func TestLoadSIPAllOrNone(t *testing.T) {
	setRequired(t)
	t.Setenv("SIP_GATEWAY_URL", "https://sip.example.com/api/call")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when trunk credentials are missing")
	}

	t.Setenv("SIP_TRUNK_URI", "sip.trunk.example.com")
	t.Setenv("SIP_TRUNK_USERNAME", "trunk-user")
	t.Setenv("SIP_TRUNK_PASSWORD", "trunk-pass")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.SIP.Enabled() {
		t.Fatal("expected telephony enabled")
	}
}

func TestLoadInvalidSignerVendor(t *testing.T) {
	setRequired(t)
	t.Setenv("SIGNER_VENDOR", "azure")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported signer vendor")
	}
}

func TestLoadS3VendorRequiresAWSCreds(t *testing.T) {
	setRequired(t)
	t.Setenv("SIGNER_VENDOR", "s3")
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when s3 vendor lacks credentials")
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA123")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	if _, err := Load(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
