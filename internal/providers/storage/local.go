package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/polisbot/polisbot/internal/config"
)

// LocalProvider writes documents under a directory that the HTTP server
// exposes at /documents.
type LocalProvider struct {
	dir     string
	baseURL string
}

func NewLocal(cfg config.Config) (*LocalProvider, error) {
	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &LocalProvider{
		dir:     cfg.StorageDir,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

func (p *LocalProvider) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	key = filepath.Base(key)

	f, err := os.CreateTemp(p.dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, filepath.Join(p.dir, key)); err != nil {
		os.Remove(tmp)
		return "", err
	}

	return p.baseURL + "/documents/" + url.PathEscape(key), nil
}
