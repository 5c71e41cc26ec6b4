package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/Spok95/kyefa/migrations"
)

// gooseMu: goose держит диалект и FS в глобальных переменных.
var gooseMu sync.Mutex

// Open открывает (или создаёт) файл кэша и накатывает миграции.
func Open(ctx context.Context, path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cache dir: %w", err)
		}
	}
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite: один писатель
	database.SetMaxOpenConns(1)
	if err := database.PingContext(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	if err := migrate(ctx, database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return &Cache{db: database}, nil
}

func migrate(ctx context.Context, database *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, ".")
}
