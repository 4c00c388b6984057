package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Storage_RequiresBucket(t *testing.T) {
	_, err := NewS3Storage(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestS3Storage_GetURL(t *testing.T) {
	ctx := context.Background()
	base := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "conduit",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		UsePathStyle:    true,
	}

	t.Run("public url", func(t *testing.T) {
		cfg := base
		cfg.PublicURL = "https://cdn.example.com/"
		s, err := NewS3Storage(ctx, cfg)
		require.NoError(t, err)

		url, err := s.GetURL(ctx, "images/u1/a.png", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/images/u1/a.png", url)
	})

	t.Run("presigned", func(t *testing.T) {
		s, err := NewS3Storage(ctx, base)
		require.NoError(t, err)

		url, err := s.GetURL(ctx, "images/u1/a.png", 0)
		require.NoError(t, err)
		assert.Contains(t, url, "http://localhost:9000/conduit/images/u1/a.png")
		assert.Contains(t, url, "X-Amz-Signature=")
	})
}

func TestNew_SelectsDriver(t *testing.T) {
	s, err := New(context.Background(), Config{Driver: "local", Local: LocalConfig{BasePath: t.TempDir()}})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(context.Background(), Config{Driver: "ftp"})
	assert.Error(t, err)
}
