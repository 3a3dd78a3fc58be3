package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3(t *testing.T) {
	ctx := context.Background()

	t.Run("valid bucket and region", func(t *testing.T) {
		blob, err := NewS3(ctx, "evidence-bucket", "us-east-1", time.Hour)
		require.NoError(t, err)
		require.NotNil(t, blob)
		assert.Equal(t, "evidence-bucket", blob.bucket)
		assert.Equal(t, time.Hour, blob.presignExpiry)
	})

	t.Run("zero expiry falls back to default", func(t *testing.T) {
		blob, err := NewS3(ctx, "evidence-bucket", "us-east-1", 0)
		require.NoError(t, err)
		assert.Equal(t, defaultPresignExpiry, blob.presignExpiry)
	})

	t.Run("empty bucket", func(t *testing.T) {
		_, err := NewS3(ctx, "", "us-east-1", 0)
		require.Error(t, err)
	})

	t.Run("empty region", func(t *testing.T) {
		_, err := NewS3(ctx, "evidence-bucket", "", 0)
		require.Error(t, err)
	})
}

// Invalid keys must be rejected before any request leaves the process,
// so these run against a bucket that does not exist.
func TestS3_KeyValidation(t *testing.T) {
	ctx := context.Background()
	blob, err := NewS3(ctx, "evidence-bucket", "us-east-1", 0)
	require.NoError(t, err)

	badKeys := []string{
		"",
		"../../../etc/passwd",
		`..\..\windows\system32`,
		"runs/../../outside.txt",
		"/absolute/key.txt",
	}

	for _, key := range badKeys {
		t.Run("put "+key, func(t *testing.T) {
			_, err := blob.Put(ctx, key, strings.NewReader("x"))
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
		t.Run("get "+key, func(t *testing.T) {
			_, err := blob.Get(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
		t.Run("delete "+key, func(t *testing.T) {
			err := blob.Delete(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
		t.Run("exists "+key, func(t *testing.T) {
			_, err := blob.Exists(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
		t.Run("url "+key, func(t *testing.T) {
			_, err := blob.URL(ctx, key)
			assert.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestCountingReader(t *testing.T) {
	cr := &countingReader{r: strings.NewReader("twelve bytes")}

	buf := make([]byte, 5)
	n, err := cr.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, int64(5), cr.n)

	rest := make([]byte, 64)
	for err == nil {
		_, err = cr.Read(rest)
	}
	assert.Equal(t, int64(len("twelve bytes")), cr.n)
}
