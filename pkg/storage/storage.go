package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GlebRadaev/playcash/pkg/clients"
)

var ErrStorage = errors.New("blob storage failure")

// BlobStore persists uploaded files and returns an opaque reference to them.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

func objectName(name string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(name))
}

// LocalStore writes blobs under dir. References are the generated file names.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

func (s *LocalStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	ref := objectName(name)
	f, err := os.Create(filepath.Join(s.dir, ref))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		zap.L().Error("can't write blob", zap.String("ref", ref), zap.Error(err))
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return ref, nil
}

// Delete removes a blob written by Put. Missing blobs are not an error.
func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if ref == "" || ref != filepath.Base(ref) {
		return fmt.Errorf("%w: invalid reference %q", ErrStorage, ref)
	}
	if err := os.Remove(filepath.Join(s.dir, ref)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// HTTPStore uploads blobs with PUT to baseURL/<object>. References are the object URLs.
type HTTPStore struct {
	baseURL string
	client  clients.HTTPClientI
}

func NewHTTPStore(baseURL string, client clients.HTTPClientI) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (s *HTTPStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	url := s.baseURL + "/" + objectName(name)
	headers := http.Header{}
	headers.Set("Content-Type", "application/octet-stream")

	code, _, err := s.client.Put(ctx, url, headers, r)
	if err != nil {
		zap.L().Error("blob upload failed", zap.String("url", url), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if code < 200 || code >= 300 {
		zap.L().Error("blob upload rejected", zap.String("url", url), zap.Int("status", code))
		return "", fmt.Errorf("%w: unexpected status %d", ErrStorage, code)
	}
	return url, nil
}

// Delete issues a DELETE for a reference returned by Put. 404 counts as deleted.
func (s *HTTPStore) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.baseURL+"/") {
		return fmt.Errorf("%w: foreign reference %q", ErrStorage, ref)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, ref, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		zap.L().Error("blob delete failed", zap.String("url", ref), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status %d", ErrStorage, resp.StatusCode)
	}
	return nil
}
