// Package storage provides the blob-store backed implementation of image storage.
package storage

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"eatsy/config"
	"eatsy/internal/domain/lifecycle"
	"eatsy/internal/domain/service"
	"eatsy/internal/errors"

	"go.uber.org/fx"
	"gocloud.dev/blob"

	// Drivers are selected by the bucket URL scheme in config (file://, gs://).
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
)

// blobImageStorage implements service.ImageStorage on a gocloud bucket, so the
// same code serves a local directory in development and GCS in production.
type blobImageStorage struct {
	bucket        *blob.Bucket
	publicBaseURL string
}

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// New opens the configured bucket and returns it as a service.ImageStorage.
func New(params Params) (service.ImageStorage, error) {
	cfg := params.Config.Storage
	if cfg == nil || cfg.BucketURL == "" {
		return nil, errors.New("storage bucket URL must be provided")
	}

	openCtx, cancel := context.WithTimeout(params.Ctx, lifecycle.DefaultTimeout)
	defer cancel()

	bucket, err := blob.OpenBucket(openCtx, cfg.BucketURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open blob bucket")
	}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return bucket.Close()
		},
	})

	params.Logger.Info("Blob storage opened",
		slog.String("bucket_url", cfg.BucketURL),
	)

	return &blobImageStorage{
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload writes the image under the given key and returns its public URL.
func (s *blobImageStorage) Upload(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	writer, err := s.bucket.NewWriter(ctx, key, &blob.WriterOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to open blob writer")
	}

	if _, err := io.Copy(writer, body); err != nil {
		writer.Close()

		return "", errors.Wrap(err, "failed to write image")
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finalize image write")
	}

	return s.publicBaseURL + "/" + key, nil
}

// Delete removes the image stored under the given key.
func (s *blobImageStorage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil {
		return errors.Wrap(err, "failed to delete image")
	}

	return nil
}
