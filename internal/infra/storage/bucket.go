// Package storage implements image blob storage on top of gocloud.dev
// portable buckets, so the same code serves a local directory in
// development and an object store in production.
package storage

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"

	"places/config"
	"places/internal/domain/service"
	"places/internal/errors"
)

const signedURLExpiry = 15 * time.Minute

// Params defines the required parameters
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

type bucketStorage struct {
	bucket *blob.Bucket
}

// NewImageStorage opens the configured bucket and binds its lifetime to
// the application lifecycle.
func NewImageStorage(params Params) (service.ImageStorage, error) {
	if params.Config.Upload == nil || params.Config.Upload.BucketURL == "" {
		return nil, errors.New("upload bucket url must be provided")
	}

	bucket, err := blob.OpenBucket(context.Background(), params.Config.Upload.BucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", params.Config.Upload.BucketURL)
	}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return bucket.Close()
		},
	})

	return &bucketStorage{bucket: bucket}, nil
}

func (s *bucketStorage) Save(ctx context.Context, key string, r io.Reader) error {
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to open writer for %s", key)
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()

		return errors.Wrapf(err, "failed to write blob %s", key)
	}

	return errors.Wrapf(w.Close(), "failed to finish blob %s", key)
}

func (s *bucketStorage) Remove(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrapf(err, "failed to delete blob %s", key)
	}

	return nil
}

func (s *bucketStorage) URL(ctx context.Context, key string) (string, error) {
	url, err := s.bucket.SignedURL(ctx, key, &blob.SignedURLOptions{Expiry: signedURLExpiry})
	if err == nil {
		return url, nil
	}
	if gcerrors.Code(err) != gcerrors.Unimplemented {
		return "", errors.Wrapf(err, "failed to sign url for %s", key)
	}

	// Local file buckets cannot sign URLs; fall back to the media path
	// served by the reverse proxy.
	return "/media/" + key, nil
}
