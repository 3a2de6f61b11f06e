package assets

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Asset kinds stored per user.
const (
	KindAvatar = "avatar"
	KindBadge  = "badge"
)

// ValidKind reports whether kind names a storable user asset.
func ValidKind(kind string) bool {
	return kind == KindAvatar || kind == KindBadge
}

// Storage keeps user avatar/badge images in an object-storage bucket,
// keyed by uid and kind.
type Storage struct {
	client *minio.Client
	bucket string
}

// NewStorage creates the MinIO-backed asset store and ensures the bucket
// exists.
func NewStorage(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (*Storage, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("minio endpoint missing")
	}
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &Storage{client: mc, bucket: bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		exist, xerr := mc.BucketExists(ctx, bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// Key returns the object key for a user asset.
func Key(uid, kind string) string {
	return "users/" + uid + "/" + kind
}

// Upload stores an asset and returns its object key.
func (s *Storage) Upload(ctx context.Context, uid, kind string, reader io.Reader, size int64, contentType string) (string, error) {
	key := Key(uid, kind)
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload asset: %w", err)
	}
	return key, nil
}

// Download returns a ReadCloser for the stored asset.
func (s *Storage) Download(ctx context.Context, uid, kind string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, Key(uid, kind), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	// stat to surface missing objects before streaming
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

// PresignedURL returns a presigned GET URL valid for the given duration.
func (s *Storage) PresignedURL(ctx context.Context, uid, kind string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, Key(uid, kind), expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}

// Delete removes a stored asset.
func (s *Storage) Delete(ctx context.Context, uid, kind string) error {
	return s.client.RemoveObject(ctx, s.bucket, Key(uid, kind), minio.RemoveObjectOptions{})
}
