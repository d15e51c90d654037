// Package fileshare пишет файлы в каталог сетевой шары (SMB/NFS),
// смонтированной в файловую систему хоста.
package fileshare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iurnickita/abcretail/internal/fileshare/config"
)

type FileShare interface {
	// Location - путь каталога в виде share/directory.
	Location() string
	// EnsureDirectory создает каталог, если его нет.
	EnsureDirectory(ctx context.Context) error
	Upload(ctx context.Context, name string, body io.Reader, size int64) error
}

var (
	ErrInvalidFileName = errors.New("invalid file name")
	ErrSizeMismatch    = errors.New("file size mismatch")
)

type fileShare struct {
	share     string
	directory string
	path      string
}

func NewFileShare(cfg config.Config) FileShare {
	return &fileShare{
		share:     cfg.Share,
		directory: cfg.Directory,
		path:      filepath.Join(cfg.MountPath, cfg.Share, cfg.Directory),
	}
}

func (fs *fileShare) Location() string {
	return fs.share + "/" + fs.directory
}

func (fs *fileShare) EnsureDirectory(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return os.MkdirAll(fs.path, 0o755)
}

// Upload пишет файл во временный файл того же каталога и переименовывает его,
// чтобы читатели шары не видели файл частично записанным.
func (fs *fileShare) Upload(ctx context.Context, name string, body io.Reader, size int64) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(fs.path, "."+name+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	written, err := io.Copy(tmp, body)
	if err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if size >= 0 && written != size {
		return fmt.Errorf("%w: expected %d, written %d", ErrSizeMismatch, size, written)
	}
	return os.Rename(tmp.Name(), filepath.Join(fs.path, name))
}

func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	return nil
}
