package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"marketplace-api/internal/domain"
)

// Folders on the media host.
const (
	FolderProducts = "products"
	FolderShops    = "shops"
	FolderUsers    = "users"
)

type Asset struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// Store is the opaque image-hosting capability the catalog delegates to.
type Store interface {
	Upload(ctx context.Context, file []byte, filename, folder string) (Asset, error)
	Delete(ctx context.Context, publicID string) error
}

// HTTPStore talks to the media host's REST upload API.
type HTTPStore struct {
	uploadURL string
	deleteURL string
	apiKey    string
	client    *http.Client
}

func NewHTTPStore(uploadURL, deleteURL, apiKey string, timeout time.Duration) *HTTPStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPStore{
		uploadURL: uploadURL,
		deleteURL: deleteURL,
		apiKey:    apiKey,
		client:    &http.Client{Timeout: timeout},
	}
}

func (s *HTTPStore) Upload(ctx context.Context, file []byte, filename, folder string) (Asset, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return Asset{}, err
	}
	if _, err := fw.Write(file); err != nil {
		return Asset{}, err
	}
	_ = mw.WriteField("folder", folder)
	if err := mw.Close(); err != nil {
		return Asset{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.uploadURL, &body)
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: image upload: %v", domain.ErrExternalService, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return Asset{}, fmt.Errorf("%w: image upload status %d: %s", domain.ErrExternalService, res.StatusCode, b)
	}

	var a Asset
	if err := json.NewDecoder(res.Body).Decode(&a); err != nil {
		return Asset{}, fmt.Errorf("%w: image upload decode: %v", domain.ErrExternalService, err)
	}
	return a, nil
}

func (s *HTTPStore) Delete(ctx context.Context, publicID string) error {
	u := s.deleteURL + "/" + url.PathEscape(publicID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: image delete: %v", domain.ErrExternalService, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w: image delete status %d", domain.ErrExternalService, res.StatusCode)
	}
	return nil
}
