// Package storage issues time-limited signed download URLs for recording
// objects. The provider writes files into the bucket with its own
// direct-write credential; signing uses this service's separate credential,
// so the two must never be mixed up.
package storage

import (
	"context"
	"errors"
	"time"
)

// DefaultURLTTL is the signed URL validity used when no TTL is configured.
const DefaultURLTTL = time.Hour

// ErrObjectNotFound is returned by signers that verify existence when the
// named object is not in the bucket.
var ErrObjectNotFound = errors.New("storage: object not found")

// SignedFile pairs an object name with its freshly issued download URL.
// Results are computed per request and never cached; repeated deliveries of
// the same file name get independent URLs.
type SignedFile struct {
	FileName    string    `json:"file_name"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Signer produces signed GET URLs for objects in the recordings bucket.
type Signer interface {
	// SignedDownloadURL returns a URL granting read access to the object
	// until now+ttl. Implementations do not require the object to exist
	// unless existence verification is explicitly enabled.
	SignedDownloadURL(ctx context.Context, object string, ttl time.Duration) (string, error)
	// Bucket returns the bucket the signer issues URLs against.
	Bucket() string
}
