package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"campus-events-backend/config"
	"campus-events-backend/models"
)

// Backends supportés
const (
	BackendCloudinary = "cloudinary"
	BackendMinio      = "minio"
	BackendGCS        = "gcs"
)

// ObjectStorage stocke les affiches et certificats
type ObjectStorage interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*models.StoredObject, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// New construit le backend choisi par STORAGE_BACKEND
func New(ctx context.Context, cfg *config.Config) (ObjectStorage, error) {
	switch cfg.Storage {
	case BackendCloudinary:
		return NewCloudinaryClient(cfg.Cloudinary)
	case BackendMinio:
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("bucket MinIO %s: %w", cfg.Minio.Bucket, err)
		}
		return client, nil
	case BackendGCS:
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("bucket GCS %s: %w", cfg.GCS.Bucket, err)
		}
		return client, nil
	}
	return nil, fmt.Errorf("backend de stockage inconnu: %q", cfg.Storage)
}

// ObjectKey construit une clé unique du type "posters/<owner>-<horodatage>.png"
func ObjectKey(folder, owner, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s-%d%s", strings.Trim(folder, "/"), owner, time.Now().UnixNano(), ext)
}

func stored(backend, key, url string) *models.StoredObject {
	return &models.StoredObject{URL: url, Key: key, Backend: backend, UploadedAt: time.Now()}
}
