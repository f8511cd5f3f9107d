package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"campus-events-backend/config"
	"campus-events-backend/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient stocke les fichiers dans un bucket MinIO (ou compatible S3)
type MinioClient struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioClient construit le client depuis la configuration
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("MINIO_ENDPOINT est requis")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("MINIO_ACCESS_KEY et MINIO_SECRET_KEY sont requis")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("MINIO_BUCKET est requis")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	publicURL := strings.TrimRight(cfg.PublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &MinioClient{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

// EnsureBucket crée le bucket s'il n'existe pas
func (m *MinioClient) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
}

// Put dépose l'objet et retourne son URL publique
func (m *MinioClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*models.StoredObject, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: dépôt de %s: %w", key, err)
	}
	return stored(BackendMinio, key, fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, key)), nil
}

// Delete supprime l'objet
func (m *MinioClient) Delete(ctx context.Context, key string) error {
	return m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{})
}

func (m *MinioClient) Name() string {
	return BackendMinio
}
