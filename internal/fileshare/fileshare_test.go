package fileshare

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iurnickita/abcretail/internal/fileshare/config"
)

func TestFileShareUpload(t *testing.T) {
	ctx := context.Background()
	mount := t.TempDir()
	fs := NewFileShare(config.Config{MountPath: mount, Share: "documents", Directory: "documents-directory"})

	require.Equal(t, "documents/documents-directory", fs.Location())
	require.NoError(t, fs.EnsureDirectory(ctx))
	require.NoError(t, fs.Upload(ctx, "invoice.pdf", strings.NewReader("%PDF-1.7"), 8))

	data, err := os.ReadFile(filepath.Join(mount, "documents", "documents-directory", "invoice.pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7", string(data))

	// временных файлов не остается
	entries, err := os.ReadDir(filepath.Join(mount, "documents", "documents-directory"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestFileShareUploadErrors(t *testing.T) {
	ctx := context.Background()
	mount := t.TempDir()
	fs := NewFileShare(config.Config{MountPath: mount, Share: "documents", Directory: "documents-directory"})
	require.NoError(t, fs.EnsureDirectory(ctx))

	for _, name := range []string{"", ".", "..", "../escape.txt", `dir\file.txt`, "a/b"} {
		err := fs.Upload(ctx, name, strings.NewReader("x"), 1)
		require.ErrorIs(t, err, ErrInvalidFileName, name)
	}

	err := fs.Upload(ctx, "short.txt", strings.NewReader("abc"), 10)
	require.ErrorIs(t, err, ErrSizeMismatch)
	_, err = os.Stat(filepath.Join(mount, "documents", "documents-directory", "short.txt"))
	require.True(t, os.IsNotExist(err))
}
