package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Названия хостингов в конфигурации и в ответе /api/proxy-image.
const (
	NameFileIO = "fileio"
	NameCatbox = "catbox"
	NameS3     = "s3"
	NameLocal  = "local"
)

// Host — один хостинг картинок в цепочке.
type Host interface {
	Name() string
	Upload(ctx context.Context, img Image) (string, error)
}

// FileIO загружает файл на file.io.
type FileIO struct {
	client   *http.Client
	endpoint string
}

func NewFileIO(client *http.Client, endpoint string) *FileIO {
	return &FileIO{client: client, endpoint: endpoint}
}

func (h *FileIO) Name() string { return NameFileIO }

func (h *FileIO) Upload(ctx context.Context, img Image) (string, error) {
	body, contentType, err := multipartBody(nil, "file", img)
	if err != nil {
		return "", err
	}

	resp, err := postMultipart(ctx, h.client, h.endpoint, body, contentType)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var res struct {
		Success bool   `json:"success"`
		Link    string `json:"link"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", fmt.Errorf("decode file.io response: %w", err)
	}
	if !res.Success || !isAbsolute(res.Link) {
		return "", fmt.Errorf("file.io upload failed: %s", res.Message)
	}
	return res.Link, nil
}

// Catbox загружает файл на catbox.moe. Ответ — URL обычным текстом.
type Catbox struct {
	client   *http.Client
	endpoint string
}

func NewCatbox(client *http.Client, endpoint string) *Catbox {
	return &Catbox{client: client, endpoint: endpoint}
}

func (h *Catbox) Name() string { return NameCatbox }

func (h *Catbox) Upload(ctx context.Context, img Image) (string, error) {
	body, contentType, err := multipartBody(map[string]string{"reqtype": "fileupload"}, "fileToUpload", img)
	if err != nil {
		return "", err
	}

	resp, err := postMultipart(ctx, h.client, h.endpoint, body, contentType)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err != nil {
		return "", err
	}

	link := strings.TrimSpace(string(b))
	if !isAbsolute(link) {
		return "", fmt.Errorf("catbox upload failed: %q", link)
	}
	return link, nil
}

// ObjectStore — то, что нужно от S3.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, body io.Reader, contentType string, cacheControl string) error
	Exists(ctx context.Context, bucket, key string) (bool, error)
}

// S3 кладёт картинку в бакет и отдаёт публичный URL.
type S3 struct {
	store         ObjectStore
	bucket        string
	prefix        string
	publicBaseURL string
}

func NewS3(store ObjectStore, bucket, prefix, publicBaseURL string) *S3 {
	return &S3{
		store:         store,
		bucket:        bucket,
		prefix:        prefix,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (h *S3) Name() string { return NameS3 }

func (h *S3) Upload(ctx context.Context, img Image) (string, error) {
	key := h.prefix + img.Name

	exists, err := h.store.Exists(ctx, h.bucket, key)
	if err != nil {
		return "", err
	}
	if !exists {
		err := h.store.Put(ctx, h.bucket, key, bytes.NewReader(img.Data), img.ContentType, "public, max-age=31536000, immutable")
		if err != nil {
			return "", err
		}
	}

	return h.publicBaseURL + "/" + key, nil
}

// Local сохраняет файл в каталог, который раздаёт HTTP-сервер.
type Local struct {
	dir        string
	publicPath string
}

func NewLocal(dir, publicPath string) *Local {
	if !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	return &Local{dir: dir, publicPath: publicPath}
}

func (h *Local) Name() string { return NameLocal }

func (h *Local) Upload(_ context.Context, img Image) (string, error) {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(h.dir, img.Name)
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", err
	}

	return h.publicPath + img.Name, nil
}

func multipartBody(fields map[string]string, fileField string, img Image) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	part, err := w.CreateFormFile(fileField, img.Name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return body, w.FormDataContentType(), nil
}

func postMultipart(ctx context.Context, client *http.Client, endpoint string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("upload status %d", resp.StatusCode)
	}
	return resp, nil
}

func isAbsolute(link string) bool {
	return strings.HasPrefix(link, "https://") || strings.HasPrefix(link, "http://")
}
