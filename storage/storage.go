// Package storage saves decoded post images and builds their public URL.
package storage

import "context"

// Folder holding post images, relative to the store root
const PostImages = "post_images"

// BlobStore persists binary objects
type BlobStore interface {
	// Save writes data under name and returns the stored path.
	Save(ctx context.Context, name string, data []byte) (string, error)
	// URL returns the absolute URL of a stored path.
	URL(path string) string
}

func joinURL(base, path string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	return base + "/" + path
}
