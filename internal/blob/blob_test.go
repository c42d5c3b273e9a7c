package blob

import (
	"context"
	"path/filepath"
	"testing"

	"art-market/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStorePutGet(t *testing.T) {
	d, err := NewDiskStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := d.Put(ctx, "a1.png", "image/png", []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.Equal(t, "a1.png", ref)

	data, err := d.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)
}

func TestDiskStoreMissingBlob(t *testing.T) {
	d, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = d.Get(context.Background(), "nope.png")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	d, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = d.Get(ctx, "../gallery.json")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = d.Put(ctx, "../evil.png", "image/png", []byte("x"))
	var storageErr *models.StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestDiskStoreDelete(t *testing.T) {
	d, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := d.Put(ctx, "a1.png", "image/png", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, d.Delete(ctx, ref))
	_, err = d.Get(ctx, ref)
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.NoError(t, d.Delete(ctx, ref))
	assert.NoError(t, d.Delete(ctx, "../gallery.json"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("a.png"))
	assert.Equal(t, "image/jpeg", ContentType("a.JPG"))
	assert.Equal(t, "application/octet-stream", ContentType("a.bin"))
}

func TestS3StorePutGet(t *testing.T) {
	t.Skip("Integration test - requires an S3-compatible endpoint")

	s, err := NewS3Store(context.Background(), S3Options{
		Bucket:    "artworks",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "admin",
		SecretKey: "secretpassword",
	})
	require.NoError(t, err)

	ctx := context.Background()
	ref, err := s.Put(ctx, "a1.png", "image/png", []byte("png"))
	require.NoError(t, err)

	data, err := s.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)

	require.NoError(t, s.Delete(ctx, ref))
	_, err = s.Get(ctx, ref)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
