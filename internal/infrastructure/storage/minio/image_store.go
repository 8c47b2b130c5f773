package minio

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// ImageStore keeps submitted mark images under <uid>/<uuid><ext>.
type ImageStore struct {
	client *Client
	logger logging.Logger
	newID  func() string
}

// NewImageStore builds the image store.
func NewImageStore(c *Client, logger logging.Logger) *ImageStore {
	return &ImageStore{client: c, logger: logger, newID: uuid.NewString}
}

// ObjectKey names the object for a requester's upload.
func (s *ImageStore) ObjectKey(uid, filename string) string {
	return uid + "/" + s.newID() + strings.ToLower(filepath.Ext(filename))
}

// Put uploads the image and returns its key and a URL the workers can pass
// along. size may be -1 when unknown.
func (s *ImageStore) Put(ctx context.Context, uid, filename, contentType string, r io.Reader, size int64) (*trademark.StoredImage, error) {
	if err := s.client.checkClosed(); err != nil {
		return nil, err
	}
	if uid == "" {
		return nil, errors.InvalidParam("uid is required")
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := s.ObjectKey(uid, filename)
	bucket := s.client.Bucket()
	if _, err := s.client.api.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to upload image")
	}

	url, err := s.URL(ctx, key)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("image uploaded", logging.String("bucket", bucket), logging.String("key", key))
	return &trademark.StoredImage{Key: key, URL: url}, nil
}

// URL renders the public URL when a public base is configured and a
// presigned GET URL otherwise.
func (s *ImageStore) URL(ctx context.Context, key string) (string, error) {
	cfg := s.client.config
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/") + "/" + cfg.ImageBucket + "/" + key, nil
	}
	u, err := s.client.api.PresignedGetObject(ctx, cfg.ImageBucket, key, cfg.PresignExpiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to presign image url")
	}
	return u.String(), nil
}

// Delete removes an uploaded image.
func (s *ImageStore) Delete(ctx context.Context, key string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.Bucket(), key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to delete image")
	}
	return nil
}
