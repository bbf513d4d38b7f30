package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const DefaultLinkExpiry = 24 * time.Hour

// Uploader stores exported archives in an S3-compatible bucket.
type Uploader interface {
	// Upload stores data under key and returns a presigned download link.
	Upload(ctx context.Context, key string, data []byte, contentType string) (*Upload, error)
	CheckBucket(ctx context.Context) error
}

type Upload struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url"`
}

type UploaderConfig struct {
	Host      string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region     string
	LinkExpiry time.Duration
}

type uploaderImpl struct {
	client     *minio.Client
	bucket     string
	linkExpiry time.Duration
}

func NewUploader(cfg UploaderConfig) (Uploader, error) {
	if cfg.Host == "" {
		return nil, errors.New("missing Host parameter")
	}

	if cfg.Bucket == "" {
		return nil, errors.New("missing Bucket parameter")
	}

	if cfg.LinkExpiry <= 0 {
		cfg.LinkExpiry = DefaultLinkExpiry
	}

	client, err := minio.New(cfg.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &uploaderImpl{
		client:     client,
		bucket:     cfg.Bucket,
		linkExpiry: cfg.LinkExpiry,
	}, nil
}

func (u *uploaderImpl) CheckBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		return fmt.Errorf("bucket %s does not exist", u.bucket)
	}

	return nil
}

func (u *uploaderImpl) Upload(ctx context.Context, key string, data []byte, contentType string) (*Upload, error) {
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	link, err := u.client.PresignedGetObject(ctx, u.bucket, key, u.linkExpiry, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to presign %s: %w", key, err)
	}

	log.Printf("Uploaded %s to bucket %s (%d bytes)", key, u.bucket, len(data))

	return &Upload{Bucket: u.bucket, Key: key, URL: link.String()}, nil
}
