package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gravitalia/socialbook/config"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Storage.Directory = t.TempDir()

	blobs, err := Open(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8888/media/post_images/a.png", blobs.URL("post_images/a.png"))

	cfg.Storage.Driver = "s3"
	_, err = Open(ctx, cfg)
	assert.Error(t, err, "an s3 store without bucket is rejected")

	cfg.Storage.Driver = "ftp"
	_, err = Open(ctx, cfg)
	assert.ErrorContains(t, err, "unknown storage driver")
}
