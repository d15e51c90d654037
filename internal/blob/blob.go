package blob

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/iurnickita/abcretail/internal/awscfg"
	"github.com/iurnickita/abcretail/internal/blob/config"
)

// Blob - контейнер объектов с публичными ссылками на загруженные файлы.
type Blob interface {
	Container() string
	// EnsureContainer создает контейнер, если его нет.
	EnsureContainer(ctx context.Context) error
	// Upload загружает объект и возвращает ссылку на него.
	Upload(ctx context.Context, name string, contentType string, body io.Reader, size int64) (string, error)
}

func NewBlob(ctx context.Context, cfg config.Config) (Blob, error) {
	awsCfg, err := awscfg.Load(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = defaultPublicURL(cfg)
	}
	return NewS3Blob(awscfg.NewS3Client(awsCfg, cfg.Endpoint), cfg.Container, publicURL), nil
}

func defaultPublicURL(cfg config.Config) string {
	if cfg.Endpoint != "" {
		return strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Container
	}
	return "https://" + cfg.Container + ".s3." + cfg.Region + ".amazonaws.com"
}

// Name строит имя объекта: исходное имя, время загрузки UTC и расширение,
// например photo_20241001120000.png.
func Name(fileName string, now time.Time) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + "_" + now.UTC().Format("20060102150405") + ext
}
