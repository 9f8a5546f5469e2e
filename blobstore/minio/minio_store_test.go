package minio

import (
	"context"
	"testing"

	"github.com/hupe1980/pgraph/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	bucket := "test-pgraph"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "edges/knows/0.seg", data))

	got, err := store.Get(ctx, "edges/knows/0.seg")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "edges/")
	require.NoError(t, err)
	assert.Contains(t, names, "edges/knows/0.seg")

	require.NoError(t, store.Delete(ctx, "edges/knows/0.seg"))
	_, err = store.Get(ctx, "edges/knows/0.seg")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "b", "/graphs/social/")
	assert.Equal(t, "graphs/social/nodes.seg", s.key("nodes.seg"))

	s = NewStore(nil, "b", "")
	assert.Equal(t, "manifest.json", s.key("manifest.json"))
}
