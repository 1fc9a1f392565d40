package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/justsurfingit/campus-hire/internal/config"
)

// Storage keeps uploaded files and hands out their public URLs.
type Storage interface {
	Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
	Download(ctx context.Context, objectPath string) ([]byte, error)
	Delete(ctx context.Context, objectPath string) error
}

// NewStorage returns Supabase storage when configured, otherwise the local disk.
func NewStorage(cfg config.StorageConfig, publicBaseURL string) Storage {
	if cfg.SupabaseURL != "" && cfg.ServiceKey != "" {
		return &SupabaseStorage{
			BaseURL:    strings.TrimRight(cfg.SupabaseURL, "/"),
			ServiceKey: cfg.ServiceKey,
			Bucket:     cfg.Bucket,
			HTTP:       &http.Client{Timeout: 30 * time.Second},
		}
	}
	log.Printf("⚠️  Supabase storage not configured, saving uploads to %s", cfg.UploadDir)
	return &LocalStorage{Dir: cfg.UploadDir, PublicURL: strings.TrimRight(publicBaseURL, "/") + "/uploads"}
}

type SupabaseStorage struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	HTTP       *http.Client
}

func (s *SupabaseStorage) objectURL(objectPath string) string {
	return s.BaseURL + "/storage/v1/object/" + url.PathEscape(s.Bucket) + "/" + escapePath(objectPath)
}

func (s *SupabaseStorage) PublicURL(objectPath string) string {
	return s.BaseURL + "/storage/v1/object/public/" + url.PathEscape(s.Bucket) + "/" + escapePath(objectPath)
}

func (s *SupabaseStorage) do(ctx context.Context, method, objectPath string, body io.Reader, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.objectURL(objectPath), body)
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	req.Header.Set("apikey", s.ServiceKey)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage %s %s: status %d: %s", method, objectPath, resp.StatusCode, string(data))
	}
	return data, nil
}

func (s *SupabaseStorage) Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	h := http.Header{}
	h.Set("Content-Type", contentType)
	h.Set("x-upsert", "true")
	if _, err := s.do(ctx, http.MethodPost, objectPath, bytes.NewReader(data), h); err != nil {
		return "", err
	}
	return s.PublicURL(objectPath), nil
}

func (s *SupabaseStorage) Download(ctx context.Context, objectPath string) ([]byte, error) {
	return s.do(ctx, http.MethodGet, objectPath, nil, nil)
}

func (s *SupabaseStorage) Delete(ctx context.Context, objectPath string) error {
	_, err := s.do(ctx, http.MethodDelete, objectPath, nil, nil)
	return err
}

// newObjectName returns a collision-free base name for an uploaded object.
func newObjectName() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.NewString()[:8])
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// LocalStorage writes files below Dir; the router serves Dir at /uploads.
type LocalStorage struct {
	Dir       string
	PublicURL string
}

func (s *LocalStorage) path(objectPath string) (string, error) {
	clean := path.Clean("/" + objectPath)
	if clean == "/" {
		return "", fmt.Errorf("invalid object path %q", objectPath)
	}
	return filepath.Join(s.Dir, filepath.FromSlash(clean)), nil
}

func (s *LocalStorage) Upload(_ context.Context, objectPath, _ string, data []byte) (string, error) {
	full, err := s.path(objectPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return s.PublicURL + path.Clean("/"+objectPath), nil
}

func (s *LocalStorage) Download(_ context.Context, objectPath string) ([]byte, error) {
	full, err := s.path(objectPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

func (s *LocalStorage) Delete(_ context.Context, objectPath string) error {
	full, err := s.path(objectPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
