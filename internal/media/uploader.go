// Package media moves uploaded files from the API's temp directory into
// object storage and hands back the public URL stored on the entity.
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Config describes the S3-compatible bucket media files are uploaded to.
// When Endpoint or Bucket is empty the uploader runs in local mode and serves
// files from the temp directory path.
type Config struct {
	Endpoint       string
	Region         string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	Prefix         string
	PublicEndpoint string
	RequestTimeout time.Duration
}

// Uploader stores media files and returns the URL a client can fetch them
// from.
type Uploader interface {
	Enabled() bool
	// UploadFile consumes the local file: it is removed whether the upload
	// succeeds or fails.
	UploadFile(ctx context.Context, localPath string) (string, error)
	Delete(ctx context.Context, fileURL string) error
}

// NewUploader builds an S3 uploader when the config names a bucket, or a
// local passthrough otherwise.
func NewUploader(cfg Config) Uploader {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if strings.TrimSpace(cfg.Bucket) == "" || strings.TrimSpace(cfg.Endpoint) == "" {
		return localUploader{}
	}
	client := newS3Client(cfg)
	if client == nil {
		return localUploader{}
	}
	return &s3Uploader{cfg: cfg, client: client}
}

// localUploader leaves files where the multipart handler wrote them and
// serves them by path. Suitable for development only.
type localUploader struct{}

func (localUploader) Enabled() bool { return false }

func (localUploader) UploadFile(ctx context.Context, localPath string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("stat upload %s: %w", localPath, err)
	}
	return "file://" + filepath.ToSlash(localPath), nil
}

func (localUploader) Delete(ctx context.Context, fileURL string) error {
	path := strings.TrimPrefix(fileURL, "file://")
	if path == fileURL {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type s3Uploader struct {
	cfg    Config
	client *s3Client
}

func (u *s3Uploader) Enabled() bool { return true }

func (u *s3Uploader) UploadFile(ctx context.Context, localPath string) (string, error) {
	defer func() {
		_ = os.Remove(localPath)
	}()

	body, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read upload %s: %w", localPath, err)
	}
	key, err := objectKey(localPath)
	if err != nil {
		return "", err
	}
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	fileURL, err := u.client.upload(ctx, key, contentType, body)
	if err != nil {
		return "", err
	}
	return fileURL, nil
}

func (u *s3Uploader) Delete(ctx context.Context, fileURL string) error {
	key := u.keyFromURL(fileURL)
	if key == "" {
		return nil
	}
	return u.client.delete(ctx, key)
}

func (u *s3Uploader) keyFromURL(fileURL string) string {
	base := strings.TrimRight(strings.TrimSpace(u.cfg.PublicEndpoint), "/")
	if base != "" && strings.HasPrefix(fileURL, base+"/") {
		return strings.TrimPrefix(fileURL, base+"/")
	}
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.TrimPrefix(parsed.Path, "/"), u.cfg.Bucket+"/")
}

// objectKey derives a collision-free storage key that keeps the original
// extension so content types survive the round trip.
func objectKey(localPath string) (string, error) {
	random := make([]byte, 16)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("generate object key: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(localPath))
	return time.Now().UTC().Format("2006/01/02") + "/" + hex.EncodeToString(random) + ext, nil
}
