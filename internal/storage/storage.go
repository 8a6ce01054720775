package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidKey = errors.New("invalid storage key")
	ErrExists     = errors.New("object already exists")
	ErrNotFound   = errors.New("object not found")
)

// Store keeps immutable artifacts (cards, QR codes) and hands out URLs for them.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Open(key string) (io.ReadCloser, error)
	URL(key string) string
}

// LocalStore writes objects under a root directory and serves them from baseURL.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put stores data under key. Objects are write-once: an existing key is an error.
// Data is written to a temporary file and linked into place, so a key never
// names a partially written object.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p, err := s.path(key)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}
	if _, err := os.Stat(p); err == nil {
		return "", fmt.Errorf("%s: %w", key, ErrExists)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to sync object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close object: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("failed to set object mode: %w", err)
	}

	// link fails on an existing name, unlike rename
	if err := os.Link(tmp.Name(), p); err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%s: %w", key, ErrExists)
		}
		return "", fmt.Errorf("failed to publish object: %w", err)
	}
	return s.URL(key), nil
}

func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// URL is the public address of key.
func (s *LocalStore) URL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}

func (s *LocalStore) path(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(key)
	if cleaned != key || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}
