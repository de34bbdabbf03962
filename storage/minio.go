package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"soundreview/config"
	"soundreview/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AudioStore is the blob store holding uploaded audio, keyed by the track's
// filename. The server never interprets the bytes.
type AudioStore struct {
	client *minio.Client
	bucket string
}

// NewAudioStore connects to MinIO and ensures the bucket exists.
func NewAudioStore(cfg *config.Config) (*AudioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("Created audio bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &AudioStore{client: client, bucket: cfg.MinioBucket}, nil
}

// Put stores an audio object under the given filename.
func (s *AudioStore) Put(ctx context.Context, filename string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, audioKey(filename), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to store audio object %s: %w", filename, err)
	}
	return nil
}

// Get opens an audio object for reading. The returned object is seekable, so
// HTTP handlers can serve range requests from it directly.
func (s *AudioStore) Get(ctx context.Context, filename string) (*minio.Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, audioKey(filename), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open audio object %s: %w", filename, err)
	}
	return obj, nil
}

// Stat checks an audio object's existence and size without reading it.
func (s *AudioStore) Stat(ctx context.Context, filename string) (minio.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, s.bucket, audioKey(filename), minio.StatObjectOptions{})
	if err != nil {
		return minio.ObjectInfo{}, fmt.Errorf("failed to stat audio object %s: %w", filename, err)
	}
	return info, nil
}

// Remove deletes an audio object. Used best-effort when a track is deleted.
func (s *AudioStore) Remove(ctx context.Context, filename string) error {
	err := s.client.RemoveObject(ctx, s.bucket, audioKey(filename), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove audio object %s: %w", filename, err)
	}
	return nil
}

func audioKey(filename string) string {
	return "audio/" + filename
}
