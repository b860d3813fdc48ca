package imagehost

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
)

var (
	ErrInvalidURL = errors.New("invalid image url")
	ErrNotImage   = errors.New("source is not an image")
	ErrTooLarge   = errors.New("image is too large")

	ErrHostNotAllowed = fmt.Errorf("%w: source host is not allowed", ErrInvalidURL)
)

// DefaultAllowedHosts — CDN картинок Facebook.
var DefaultAllowedHosts = []string{"fbcdn.net", "*.fbcdn.net"}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
}

// Image — скачанная картинка.
type Image struct {
	Data        []byte
	ContentType string
	Name        string // стабильное имя файла по исходному URL
}

// Downloader скачивает картинки с CDN с заголовками браузера.
type Downloader struct {
	client       *http.Client
	userAgent    string
	maxBytes     int64
	allowedHosts []string
}

// DefaultMaxBytes — лимит размера картинки по умолчанию.
const DefaultMaxBytes = 10 << 20

// NewDownloader создаёт загрузчик. allowedHosts — шаблоны хостов источника
// в синтаксисе path.Match ("*.fbcdn.net"); пустой список заменяется DefaultAllowedHosts.
func NewDownloader(client *http.Client, userAgent string, maxBytes int64, allowedHosts []string) *Downloader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(allowedHosts) == 0 {
		allowedHosts = DefaultAllowedHosts
	}
	return &Downloader{client: client, userAgent: userAgent, maxBytes: maxBytes, allowedHosts: allowedHosts}
}

// ValidateURL принимает только абсолютные http(s)-ссылки.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}

// ValidateURL дополнительно проверяет хост источника по списку разрешённых.
func (d *Downloader) ValidateURL(raw string) error {
	if err := ValidateURL(raw); err != nil {
		return err
	}
	u, _ := url.Parse(strings.TrimSpace(raw))
	host := strings.ToLower(u.Hostname())
	for _, pattern := range d.allowedHosts {
		if ok, _ := path.Match(strings.ToLower(pattern), host); ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
}

func (d *Downloader) Download(ctx context.Context, imageURL string) (Image, error) {
	if err := d.ValidateURL(imageURL); err != nil {
		return Image{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("Referer", "https://www.facebook.com/")
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := d.client.Do(req)
	if err != nil {
		return Image{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Image{}, fmt.Errorf("download status %d", resp.StatusCode)
	}
	if resp.ContentLength > d.maxBytes {
		return Image{}, ErrTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return Image{}, err
	}
	if int64(len(data)) > d.maxBytes {
		return Image{}, ErrTooLarge
	}

	ct := mediaType(resp.Header.Get("Content-Type"))
	if ct == "" || ct == "application/octet-stream" {
		ct = mediaType(http.DetectContentType(data))
	}
	if !strings.HasPrefix(ct, "image/") {
		return Image{}, fmt.Errorf("%w: %s", ErrNotImage, ct)
	}

	return Image{Data: data, ContentType: ct, Name: fileName(imageURL, ct)}, nil
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}

func fileName(imageURL string, contentType string) string {
	sum := sha256.Sum256([]byte(imageURL))
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".img"
	}
	return hex.EncodeToString(sum[:16]) + ext
}
