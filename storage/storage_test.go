package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"campus-events-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCloudinary(t *testing.T, handler http.HandlerFunc) *CloudinaryClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewCloudinaryClient(config.CloudinaryConfig{
		CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "campus-events",
	})
	require.NoError(t, err)
	client.baseURL = server.URL
	client.now = func() time.Time { return time.Unix(1700000000, 0) }
	return client
}

func TestCloudinarySign(t *testing.T) {
	client := &CloudinaryClient{apiSecret: "abcd"}
	// sha1("public_id=sample&timestamp=1315060510abcd")
	assert.Equal(t, "c3470533147774275dd37996cc4d0e68fd03cd4f",
		client.sign(map[string]string{"timestamp": "1315060510", "public_id": "sample"}))
}

func TestCloudinaryPut(t *testing.T) {
	client := newTestCloudinary(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "campus-events/posters/abc-1", r.FormValue("public_id"))
		assert.Equal(t, "1700000000", r.FormValue("timestamp"))
		assert.Equal(t, "key", r.FormValue("api_key"))
		assert.NotEmpty(t, r.FormValue("signature"))

		if file, _, err := r.FormFile("file"); assert.NoError(t, err) {
			content, _ := io.ReadAll(file)
			assert.Equal(t, "PNGDATA", string(content))
		}

		w.Write([]byte(`{"public_id":"campus-events/posters/abc-1","secure_url":"https://res.cloudinary.com/demo/abc-1.png"}`))
	})

	obj, err := client.Put(context.Background(), "posters/abc-1.png", strings.NewReader("PNGDATA"), 7, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "campus-events/posters/abc-1", obj.Key)
	assert.Equal(t, "https://res.cloudinary.com/demo/abc-1.png", obj.URL)
	assert.Equal(t, BackendCloudinary, obj.Backend)
}

func TestCloudinaryDelete(t *testing.T) {
	client := newTestCloudinary(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/destroy", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		// un public_id déjà préfixé n'est pas modifié
		assert.Equal(t, "campus-events/posters/abc-1", r.FormValue("public_id"))
		w.Write([]byte(`{"result":"ok"}`))
	})

	assert.NoError(t, client.Delete(context.Background(), "campus-events/posters/abc-1"))
}

func TestCloudinaryErrorStatus(t *testing.T) {
	client := newTestCloudinary(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Invalid Signature"}}`, http.StatusUnauthorized)
	})

	_, err := client.Put(context.Background(), "posters/x.png", strings.NewReader("x"), 1, "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Signature")
}

func TestNewCloudinaryClientRequiresCredentials(t *testing.T) {
	_, err := NewCloudinaryClient(config.CloudinaryConfig{CloudName: "demo"})
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("/posters/", "65f0c0ffee", "Affiche.PNG")
	assert.True(t, strings.HasPrefix(key, "posters/65f0c0ffee-"))
	assert.True(t, strings.HasSuffix(key, ".png"))
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(context.Background(), &config.Config{Storage: "ftp"})
	assert.Error(t, err)
}
