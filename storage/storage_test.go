package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "simple key", key: "report.txt", want: "report.txt"},
		{name: "nested key", key: "runs/abc/report.txt", want: "runs/abc/report.txt"},
		{name: "dot prefix cleans away", key: "./report.txt", want: "report.txt"},
		{name: "inner parent cleans away", key: "runs/../report.txt", want: "report.txt"},
		{name: "windows separators", key: `runs\abc\shot.png`, want: "runs/abc/shot.png"},
		{name: "empty", key: "", wantErr: true},
		{name: "dot", key: ".", wantErr: true},
		{name: "parent", key: "..", wantErr: true},
		{name: "traversal", key: "../outside.txt", wantErr: true},
		{name: "deep traversal", key: "runs/../../outside.txt", wantErr: true},
		{name: "windows traversal", key: `..\..\windows\system32`, wantErr: true},
		{name: "absolute", key: "/etc/passwd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cleanKey(tt.key)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("local backend", func(t *testing.T) {
		blob, err := New(ctx, Config{Backend: "local", LocalDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &Local{}, blob)
	})

	t.Run("backend name is case insensitive", func(t *testing.T) {
		blob, err := New(ctx, Config{Backend: "LOCAL", LocalDir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &Local{}, blob)
	})

	t.Run("local backend without dir", func(t *testing.T) {
		_, err := New(ctx, Config{Backend: "local"})
		require.Error(t, err)
	})

	t.Run("s3 backend", func(t *testing.T) {
		blob, err := New(ctx, Config{
			Backend:       "s3",
			S3Bucket:      "evidence-bucket",
			S3Region:      "us-east-1",
			PresignExpiry: time.Minute,
		})
		require.NoError(t, err)
		assert.IsType(t, &S3{}, blob)
	})

	t.Run("s3 backend without bucket", func(t *testing.T) {
		_, err := New(ctx, Config{Backend: "s3", S3Region: "us-east-1"})
		require.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := New(ctx, Config{Backend: "gcs"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported storage backend")
	})
}
