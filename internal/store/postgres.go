package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/iurnickita/abcretail/internal/model"
	"github.com/iurnickita/abcretail/internal/store/config"
)

const pgUndefinedTable = "42P01"

type postgresStore struct {
	database *sql.DB
}

func NewPostgresStore(cfg config.Config) (Store, error) {
	db, err := sql.Open("pgx", cfg.DBDsn)
	if err != nil {
		return nil, err
	}
	return &postgresStore{database: db}, nil
}

// Одна таблица на тип записей. Свойства записи хранятся в JSONB,
// так как набор полей задается вызывающим кодом.
func (store *postgresStore) EnsureTable(ctx context.Context, table string) error {
	if err := validateTable(table); err != nil {
		return err
	}
	_, err := store.database.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS "+tableIdent(table)+" ("+
			" partition_key VARCHAR (255) NOT NULL,"+
			" row_key VARCHAR (255) NOT NULL,"+
			" properties JSONB NOT NULL,"+
			" timestamp TIMESTAMPTZ NOT NULL,"+
			" PRIMARY KEY (partition_key, row_key)"+
			" );")
	return err
}

func (store *postgresStore) PutEntity(ctx context.Context, table string, entity model.Entity) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if err := validateEntity(entity); err != nil {
		return err
	}
	properties, err := json.Marshal(entity.Properties)
	if err != nil {
		return err
	}

	//Запись или перезапись по ключу
	_, err = store.database.ExecContext(ctx,
		"INSERT INTO "+tableIdent(table)+" (partition_key, row_key, properties, timestamp)"+
			" VALUES ($1, $2, $3, $4)"+
			" ON CONFLICT (partition_key, row_key) DO UPDATE"+
			" SET properties = EXCLUDED.properties, timestamp = EXCLUDED.timestamp",
		entity.PartitionKey,
		entity.RowKey,
		properties,
		time.Now().UTC())
	return mapPgError(err)
}

func (store *postgresStore) GetEntity(ctx context.Context, table string, partitionKey string, rowKey string) (model.Entity, error) {
	if err := validateTable(table); err != nil {
		return model.Entity{}, err
	}

	row := store.database.QueryRowContext(ctx,
		"SELECT partition_key, row_key, properties, timestamp"+
			" FROM "+tableIdent(table)+
			" WHERE partition_key = $1"+
			"   AND row_key = $2",
		partitionKey,
		rowKey)

	var entity model.Entity
	var properties []byte
	err := row.Scan(&entity.PartitionKey, &entity.RowKey, &properties, &entity.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Entity{}, ErrNotFound
		}
		return model.Entity{}, mapPgError(err)
	}
	if err := json.Unmarshal(properties, &entity.Properties); err != nil {
		return model.Entity{}, err
	}
	return entity, nil
}

func (store *postgresStore) Close() error {
	return store.database.Close()
}

func tableIdent(table string) string {
	return pgx.Identifier{strings.ToLower(table)}.Sanitize()
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return ErrTableNotFound
	}
	return err
}
