package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestNewUploaderFallsBackToLocal(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"empty config", Config{}},
		{"bucket without endpoint", Config{Bucket: "media"}},
		{"endpoint without bucket", Config{Endpoint: "minio.local:9000"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uploader := NewUploader(tc.cfg)
			if uploader.Enabled() {
				t.Errorf("Enabled() = true, want local fallback")
			}
		})
	}

	remote := NewUploader(Config{Endpoint: "minio.local:9000", Bucket: "media"})
	if !remote.Enabled() {
		t.Error("Enabled() = false for a configured bucket, want true")
	}
}

func TestLocalUploaderServesFileURL(t *testing.T) {
	uploader := NewUploader(Config{})
	path := writeTempFile(t, "clip.mp4", "payload")

	fileURL, err := uploader.UploadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if !strings.HasPrefix(fileURL, "file://") || !strings.HasSuffix(fileURL, "clip.mp4") {
		t.Errorf("fileURL = %q, want file:// URL ending in clip.mp4", fileURL)
	}

	// Local mode leaves the staged file in place.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("staged file missing after upload: %v", err)
	}

	if err := uploader.Delete(context.Background(), fileURL); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after delete: %v", err)
	}
	// Deleting twice is not an error.
	if err := uploader.Delete(context.Background(), fileURL); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestLocalUploaderMissingFile(t *testing.T) {
	uploader := NewUploader(Config{})
	if _, err := uploader.UploadFile(context.Background(), filepath.Join(t.TempDir(), "absent.mp4")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestS3UploaderRoundTrip(t *testing.T) {
	type captured struct {
		method      string
		path        string
		body        string
		contentType string
		auth        string
		payloadHash string
	}
	requests := make(chan captured, 2)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests <- captured{
			method:      r.Method,
			path:        r.URL.Path,
			body:        string(body),
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			payloadHash: r.Header.Get("x-amz-content-sha256"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	uploader := NewUploader(Config{
		Endpoint:  server.URL,
		Region:    "eu-west-1",
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "media",
		Prefix:    "uploads",
	})
	if !uploader.Enabled() {
		t.Fatal("Enabled() = false, want S3 uploader")
	}

	staged := writeTempFile(t, "cover.png", "png bytes")
	fileURL, err := uploader.UploadFile(context.Background(), staged)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	put := <-requests
	if put.method != http.MethodPut {
		t.Errorf("method = %q, want PUT", put.method)
	}
	if !strings.HasPrefix(put.path, "/media/uploads/") || !strings.HasSuffix(put.path, ".png") {
		t.Errorf("path = %q, want /media/uploads/....png", put.path)
	}
	if put.body != "png bytes" {
		t.Errorf("body = %q, want staged content", put.body)
	}
	if put.contentType != "image/png" {
		t.Errorf("content type = %q, want image/png", put.contentType)
	}
	if !strings.HasPrefix(put.auth, "AWS4-HMAC-SHA256 Credential=access/") {
		t.Errorf("authorization = %q, want SigV4 credential", put.auth)
	}
	if !strings.Contains(put.auth, "/eu-west-1/s3/aws4_request") {
		t.Errorf("authorization = %q, want region scope", put.auth)
	}
	if len(put.payloadHash) != 64 {
		t.Errorf("payload hash = %q, want sha256 hex", put.payloadHash)
	}

	if !strings.HasPrefix(fileURL, server.URL+"/media/uploads/") {
		t.Errorf("fileURL = %q, want served from bucket", fileURL)
	}

	// The staged file is consumed either way.
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Errorf("staged file still present: %v", err)
	}

	if err := uploader.Delete(context.Background(), fileURL); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	del := <-requests
	if del.method != http.MethodDelete {
		t.Errorf("method = %q, want DELETE", del.method)
	}
	if del.path != put.path {
		t.Errorf("delete path = %q, want %q", del.path, put.path)
	}
}

func TestS3UploaderPublicEndpointRewrite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	uploader := NewUploader(Config{
		Endpoint:       server.URL,
		AccessKey:      "access",
		SecretKey:      "secret",
		Bucket:         "media",
		PublicEndpoint: "https://cdn.example.com",
	})

	staged := writeTempFile(t, "cover.png", "png bytes")
	fileURL, err := uploader.UploadFile(context.Background(), staged)
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if !strings.HasPrefix(fileURL, "https://cdn.example.com/") {
		t.Errorf("fileURL = %q, want public endpoint base", fileURL)
	}
}

func TestS3UploaderSurfacesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer server.Close()

	uploader := NewUploader(Config{
		Endpoint:  server.URL,
		AccessKey: "access",
		SecretKey: "secret",
		Bucket:    "media",
	})

	staged := writeTempFile(t, "clip.mp4", "mp4 bytes")
	if _, err := uploader.UploadFile(context.Background(), staged); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestObjectKeyKeepsExtension(t *testing.T) {
	key, err := objectKey("/tmp/staged-upload.MP4")
	if err != nil {
		t.Fatalf("objectKey: %v", err)
	}
	if !strings.HasSuffix(key, ".mp4") {
		t.Errorf("key = %q, want lowercased extension", key)
	}
	if strings.Contains(key, "staged-upload") {
		t.Errorf("key = %q, must not embed the local name", key)
	}
}
