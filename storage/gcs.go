package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"campus-events-backend/config"
	"campus-events-backend/models"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSClient stocke les fichiers dans Google Cloud Storage
type GCSClient struct {
	client    *storage.Client
	bucket    string
	projectID string
}

// NewGCSClient construit le client depuis la configuration
func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("GCS_BUCKET est requis")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSClient{client: client, bucket: cfg.Bucket, projectID: cfg.ProjectID}, nil
}

// EnsureBucket crée le bucket s'il n'existe pas (nécessite GCS_PROJECT_ID)
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.client.Bucket(g.bucket).Attrs(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrBucketNotExist) {
		return err
	}
	if strings.TrimSpace(g.projectID) == "" {
		return errors.New("GCS_PROJECT_ID est requis pour créer le bucket")
	}
	return g.client.Bucket(g.bucket).Create(ctx, g.projectID, nil)
}

// Put dépose l'objet et retourne son URL publique
func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (*models.StoredObject, error) {
	writer := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if strings.TrimSpace(contentType) != "" {
		writer.ContentType = contentType
	}
	if _, err := io.Copy(writer, r); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("gcs: dépôt de %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("gcs: dépôt de %s: %w", key, err)
	}
	return stored(BackendGCS, key, fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key)), nil
}

// Delete supprime l'objet
func (g *GCSClient) Delete(ctx context.Context, key string) error {
	return g.client.Bucket(g.bucket).Object(key).Delete(ctx)
}

func (g *GCSClient) Name() string {
	return BackendGCS
}
