// Package storage stores podcast audio in an S3-compatible bucket.
//
// Every upload goes through a one-time Target obtained from
// GenerateUploadURL. Browsers can PUT to Target.URL directly; the server
// side Uploader writes to Target.Key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrNotFound is returned when a storage identifier resolves to nothing.
var ErrNotFound = errors.New("storage: object not found")

const keyPrefix = "audio/"

// Target is a one-time upload destination.
type Target struct {
	Key       string    `json:"storageId"`
	URL       string    `json:"uploadUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// File is a file handed to the upload helper.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResponse describes one uploaded file.
type UploadResponse struct {
	StorageID   string `json:"storageId"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Object is a stored object as seen by the sweeper.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Store is the storage backend.
type Store interface {
	GenerateUploadURL(ctx context.Context) (Target, error)
	Put(ctx context.Context, target Target, f File) (UploadResponse, error)
	URL(ctx context.Context, storageID string) (string, error)
	Delete(ctx context.Context, storageID string) error
}

// MinioConfig configures NewMinioStore.
type MinioConfig struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	Bucket          string
	UseSSL          bool
	UploadURLExpiry time.Duration
	AudioURLExpiry  time.Duration
}

// MinioStore implements Store using MinIO or any S3-compatible service.
type MinioStore struct {
	client          *minio.Client
	bucket          string
	uploadURLExpiry time.Duration
	audioURLExpiry  time.Duration
}

// NewMinioStore connects to the bucket, creating it when missing.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioStore{
		client:          client,
		bucket:          cfg.Bucket,
		uploadURLExpiry: cfg.UploadURLExpiry,
		audioURLExpiry:  cfg.AudioURLExpiry,
	}, nil
}

// NewKey returns a fresh storage identifier.
func NewKey() string {
	return keyPrefix + uuid.NewString()
}

func (s *MinioStore) GenerateUploadURL(ctx context.Context) (Target, error) {
	key := NewKey()
	u, err := s.client.PresignedPutObject(ctx, s.bucket, key, s.uploadURLExpiry)
	if err != nil {
		return Target{}, fmt.Errorf("failed to presign upload: %w", err)
	}
	return Target{Key: key, URL: u.String(), ExpiresAt: time.Now().Add(s.uploadURLExpiry)}, nil
}

func (s *MinioStore) Put(ctx context.Context, target Target, f File) (UploadResponse, error) {
	if !target.ExpiresAt.IsZero() && time.Now().After(target.ExpiresAt) {
		return UploadResponse{}, fmt.Errorf("upload target %s expired", target.Key)
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucket, target.Key, f.Body, f.Size, minio.PutObjectOptions{
		ContentType: contentType,
		UserMetadata: map[string]string{
			"original-name": f.Name,
		},
	})
	if err != nil {
		return UploadResponse{}, fmt.Errorf("failed to upload %s: %w", f.Name, err)
	}

	return UploadResponse{
		StorageID:   target.Key,
		Name:        f.Name,
		ContentType: contentType,
		Size:        info.Size,
	}, nil
}

// URL resolves a storage identifier to a time-limited playable URL.
func (s *MinioStore) URL(ctx context.Context, storageID string) (string, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, storageID, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to stat %s: %w", storageID, err)
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, storageID, s.audioURLExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", storageID, err)
	}
	return u.String(), nil
}

func (s *MinioStore) Delete(ctx context.Context, storageID string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, storageID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", storageID, err)
	}
	return nil
}

// List returns the audio objects last modified before the cutoff.
func (s *MinioStore) List(ctx context.Context, before time.Time) ([]Object, error) {
	var objects []Object
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: keyPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if obj.LastModified.Before(before) {
			objects = append(objects, Object{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
		}
	}
	return objects, nil
}
