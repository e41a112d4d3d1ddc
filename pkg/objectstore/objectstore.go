package objectstore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Store is the object storage contract the media handlers depend on. The
// production implementation is GCS; tests substitute an in-memory fake.
type Store interface {
	// GeneratePresignedUploadURL returns a time-limited URL a client can PUT
	// the object bytes to directly.
	GeneratePresignedUploadURL(key, contentType string, ttl time.Duration) (string, error)
	// GeneratePresignedDownloadURL returns a time-limited GET URL for the object.
	GeneratePresignedDownloadURL(key string, ttl time.Duration) (string, error)
	// UploadFile writes the object server-side (small files, server-generated exports).
	UploadFile(ctx context.Context, key string, r io.Reader, contentType string) error
	// DeleteObject removes the object. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, key string) error
	// ObjectExists reports whether the object is present in the bucket.
	ObjectExists(ctx context.Context, key string) (bool, error)
}

// GenerateKey builds the tenant-scoped object key. Encoding company, session
// and category into the path keeps tenants separated and avoids collisions:
//
//	companies/<companyID>/sessions/<sessionID>/<category>/<ts>-<rand>-<name>
func GenerateKey(companyID, sessionID uuid.UUID, category, fileName string) string {
	if category == "" {
		category = "general"
	}
	ts := time.Now().Format("20060102-150405")
	base := filepath.Base(fileName)
	return fmt.Sprintf("companies/%s/sessions/%s/%s/%s-%s-%s",
		companyID, sessionID, category, ts, uuid.New().String()[:8], base)
}
