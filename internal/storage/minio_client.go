package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"communityboard/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage keeps post image attachments.
type Storage interface {
	UploadImage(ctx context.Context, postID string, file io.Reader, size int64, contentType, extension string) (objectName string, imageURL string, err error)
	DeleteImage(ctx context.Context, objectName string) error
}

type MinIOClient struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.BucketName, err)
		}
	}

	return &MinIOClient{
		client:  client,
		bucket:  cfg.BucketName,
		baseURL: baseURL(cfg.Endpoint, cfg.UseSSL),
	}, nil
}

func (m *MinIOClient) UploadImage(ctx context.Context, postID string, file io.Reader, size int64, contentType, extension string) (string, string, error) {
	now := time.Now().UTC()
	name := objectName(postID, uuid.New().String(), extension, now)

	_, err := m.client.PutObject(ctx, m.bucket, name, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"post-id":     postID,
				"uploaded-at": now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload to MinIO: %w", err)
	}

	return name, fmt.Sprintf("%s/%s/%s", m.baseURL, m.bucket, name), nil
}

func (m *MinIOClient) DeleteImage(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName,
		minio.RemoveObjectOptions{
			GovernanceBypass: true,
		})
	if err != nil {
		return fmt.Errorf("failed to delete from MinIO: %w", err)
	}
	return nil
}

// objectName lays objects out as posts/<post>/<year>/<month>/<id><ext>.
func objectName(postID, id, extension string, now time.Time) string {
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return fmt.Sprintf("posts/%s/%d/%02d/%s%s", postID, now.Year(), now.Month(), id, strings.ToLower(extension))
}

func baseURL(endpoint string, useSSL bool) string {
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	return scheme + "://" + strings.TrimSuffix(endpoint, "/")
}
