package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/storage"
)

// GCSStore implements Store against a Google Cloud Storage bucket. Signed
// URLs use the bucket's default credentials (IAM SignBlob on Cloud Run,
// service-account key locally).
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore opens a storage client for the bucket named by GCS_BUCKET.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	bucket := os.Getenv("GCS_BUCKET")
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET not set")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) GeneratePresignedUploadURL(key, contentType string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     time.Now().Add(ttl),
	}
	return s.client.Bucket(s.bucket).SignedURL(key, opts)
}

func (s *GCSStore) GeneratePresignedDownloadURL(key string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	}
	return s.client.Bucket(s.bucket).SignedURL(key, opts)
}

func (s *GCSStore) UploadFile(ctx context.Context, key string, r io.Reader, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (s *GCSStore) DeleteObject(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
