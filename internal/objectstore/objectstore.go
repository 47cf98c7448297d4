// Package objectstore keeps uploaded statement files in a MinIO bucket.
package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
	Bucket    string
}

type Store struct {
	client *minio.Client
	bucket string
}

// New connects to MinIO and creates the bucket when it does not exist yet.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// objectKey namespaces stored files per user so one user can never address
// another user's uploads.
func objectKey(userID int64, fileID string) string {
	return fmt.Sprintf("users/%d/%s", userID, fileID)
}

func (s *Store) Put(ctx context.Context, userID int64, fileID string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey(userID, fileID), r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storing object: %w", err)
	}

	return nil
}

// Get returns a reader over the stored file. The caller owns closing it.
func (s *Store) Get(ctx context.Context, userID int64, fileID string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(userID, fileID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetching object: %w", err)
	}

	// GetObject is lazy; Stat surfaces missing keys before the caller reads.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("statting object: %w", err)
	}

	return obj, nil
}

func (s *Store) Delete(ctx context.Context, userID int64, fileID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, objectKey(userID, fileID), minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("removing object: %w", err)
	}

	return nil
}

// Healthy reports whether the bucket is reachable.
func (s *Store) Healthy(ctx context.Context) bool {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	return err == nil && ok
}
