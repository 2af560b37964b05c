package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Local stores blobs on the filesystem served under baseURL
type Local struct {
	root    string
	domain  string
	baseURL string
}

// NewLocal stores files below root. URLs are domain + baseURL + path,
// e.g. "http://localhost:8888" + "/media/" + "post_images/a.png".
func NewLocal(root, domain, baseURL string) *Local {
	return &Local{root: root, domain: domain, baseURL: baseURL}
}

func (l *Local) Save(_ context.Context, name string, data []byte) (string, error) {
	rel := path.Join(PostImages, filepath.Base(name))
	full := filepath.Join(l.root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create media directory: %w", err)
	}
	// O_EXCL keeps an existing file from being overwritten
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", rel, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", rel, err)
	}

	return rel, nil
}

func (l *Local) URL(p string) string {
	return l.domain + joinURL(l.baseURL, p)
}

// Root is the directory served under the base URL
func (l *Local) Root() string {
	return l.root
}
