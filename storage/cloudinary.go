package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"campus-events-backend/config"
	"campus-events-backend/models"
)

const cloudinaryAPI = "https://api.cloudinary.com/v1_1"

// CloudinaryClient envoie les fichiers à l'API REST Cloudinary avec des requêtes signées
type CloudinaryClient struct {
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	httpClient *http.Client
	now        func() time.Time
}

type cloudinaryUploadResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format"`
	Bytes     int    `json:"bytes"`
}

type cloudinaryDestroyResponse struct {
	Result string `json:"result"`
}

// NewCloudinaryClient construit le client depuis la configuration
func NewCloudinaryClient(cfg config.CloudinaryConfig) (*CloudinaryClient, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY et CLOUDINARY_API_SECRET sont requis")
	}
	return &CloudinaryClient{
		baseURL:    cloudinaryAPI,
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		folder:     strings.Trim(cfg.Folder, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}, nil
}

// publicID retire l'extension et préfixe le dossier de l'application
func (c *CloudinaryClient) publicID(key string) string {
	id := strings.TrimSuffix(key, path.Ext(key))
	if c.folder == "" || strings.HasPrefix(id, c.folder+"/") {
		return id
	}
	return c.folder + "/" + id
}

// sign calcule la signature Cloudinary : paramètres triés, concaténés, suivis du secret, en SHA-1
func (c *CloudinaryClient) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

func (c *CloudinaryClient) signedParams(publicID string) map[string]string {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.apiKey
	return params
}

// Put envoie le fichier (images et PDF sont des ressources "image" chez Cloudinary)
func (c *CloudinaryClient) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (*models.StoredObject, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", path.Base(key))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	for k, v := range c.signedParams(c.publicID(key)) {
		if err := writer.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	uploadURL := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var out cloudinaryUploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("cloudinary: envoi de %s: %w", key, err)
	}
	return stored(BackendCloudinary, out.PublicID, out.SecureURL), nil
}

// Delete supprime la ressource ; key est le public_id retourné par Put
func (c *CloudinaryClient) Delete(ctx context.Context, key string) error {
	form := url.Values{}
	for k, v := range c.signedParams(key) {
		form.Set(k, v)
	}

	deleteURL := fmt.Sprintf("%s/%s/image/destroy", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deleteURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out cloudinaryDestroyResponse
	if err := c.do(req, &out); err != nil {
		return fmt.Errorf("cloudinary: suppression de %s: %w", key, err)
	}
	if out.Result != "ok" && out.Result != "not found" {
		return fmt.Errorf("cloudinary: suppression de %s: résultat %q", key, out.Result)
	}
	return nil
}

func (c *CloudinaryClient) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("statut %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *CloudinaryClient) Name() string {
	return BackendCloudinary
}
