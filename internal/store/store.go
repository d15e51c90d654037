package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/iurnickita/abcretail/internal/awscfg"
	"github.com/iurnickita/abcretail/internal/model"
	"github.com/iurnickita/abcretail/internal/store/config"
)

// Store - табличное хранилище записей с ключом (раздел, строка).
type Store interface {
	// EnsureTable создает таблицу, если ее нет.
	EnsureTable(ctx context.Context, table string) error
	// PutEntity записывает или перезаписывает запись по ключу.
	PutEntity(ctx context.Context, table string, entity model.Entity) error
	// GetEntity читает запись по ключу. Обработчики его не вызывают: метод
	// нужен для сверки содержимого хранилища в тестах обоих бэкендов.
	// Нет записи - ErrNotFound.
	GetEntity(ctx context.Context, table string, partitionKey string, rowKey string) (model.Entity, error)
	Close() error
}

var (
	ErrNotFound          = errors.New("entity not found")
	ErrTableNotFound     = errors.New("table not found")
	ErrInvalidTableName  = errors.New("invalid table name")
	ErrInvalidEntityKeys = errors.New("partition and row keys are required")
	ErrUnknownBackend    = errors.New("unknown store backend")
)

func NewStore(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return NewPostgresStore(cfg)
	case config.BackendDynamoDB:
		awsCfg, err := awscfg.Load(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		return NewDynamoStore(awscfg.NewDynamoDBClient(awsCfg, cfg.Endpoint), cfg.TablePrefix), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Имена таблиц в стиле Azure Table Storage: буква, затем буквы и цифры.
var tableNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{2,62}$`)

func validateTable(table string) error {
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}
	return nil
}

func validateEntity(entity model.Entity) error {
	if strings.TrimSpace(entity.PartitionKey) == "" || strings.TrimSpace(entity.RowKey) == "" {
		return ErrInvalidEntityKeys
	}
	return nil
}
