package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ms-tryon/internal/models"
	"ms-tryon/internal/tryon"
)

// Record is one named JSON document.
type Record struct {
	bun.BaseModel `bun:"table:kv_store"`

	Name      string    `bun:"name,pk"`
	Payload   string    `bun:"payload,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// DB keeps the store snapshot in a single kv_store row.
type DB struct {
	Bun  *bun.DB
	Name string
}

// Open connects to sqlite or postgres and returns a bun handle.
func Open(backend, dsn string) (*bun.DB, error) {
	var (
		sqldb *sql.DB
		err   error
		db    *bun.DB
	)

	switch backend {
	case "sqlite":
		sqldb, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// a single connection keeps ":memory:" databases shared
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case "postgres":
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported sql backend %q", backend)
	}

	if err := sqldb.Ping(); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("ping %s: %w", backend, err)
	}
	return db, nil
}

// New creates the kv_store table when missing.
func New(ctx context.Context, db *bun.DB, name string) (*DB, error) {
	_, err := db.NewCreateTable().
		Model((*Record)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("create kv_store table: %w", err)
	}
	return &DB{Bun: db, Name: name}, nil
}

func (d *DB) Load(ctx context.Context) (*models.Snapshot, error) {
	var rec Record
	err := d.Bun.NewSelect().
		Model(&rec).
		Where("name = ?", d.Name).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", d.Name, err)
	}
	return tryon.DecodeSnapshot([]byte(rec.Payload))
}

func (d *DB) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := tryon.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	rec := Record{
		Name:      d.Name,
		Payload:   string(data),
		UpdatedAt: time.Now().UTC(),
	}
	_, err = d.Bun.NewInsert().
		Model(&rec).
		On("CONFLICT (name) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", d.Name, err)
	}
	return nil
}
