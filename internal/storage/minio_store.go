package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-overview-api/internal/config"
)

const packageContentType = "application/zip"

// MinIOStore keeps packages in an S3 compatible bucket.
type MinIOStore struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger
}

// NewMinIOStore configures the client; it does not contact the server.
func NewMinIOStore(cfg config.MinIOConfig, logger zerolog.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &MinIOStore{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With().Str("component", "minio_package_store").Str("bucket", cfg.Bucket).Logger(),
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *MinIOStore) Open(ctx context.Context, ref string) ([]byte, error) {
	name, err := cleanRef(ref)
	if err != nil {
		return nil, err
	}

	object, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer object.Close()

	if _, err := object.Stat(); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, ref)
		}
		s.logger.Error().Err(err).Str("object_name", name).Msg("minio stat failed")
		return nil, err
	}

	return readLimited(object)
}

func (s *MinIOStore) Put(ctx context.Context, ref string, reader io.Reader, size int64) error {
	if size > MaxPackageBytes {
		return ErrPackageTooLarge
	}
	name, err := cleanRef(ref)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, s.bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: packageContentType,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("object_name", name).Int64("size", size).Msg("minio upload failed")
		return err
	}

	s.logger.Info().Str("object_name", name).Int64("size", size).Msg("minio upload succeeded")
	return nil
}
