package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/nao1215/itemdesk/pkg/migration"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteBackend はSQLiteファイルにオリジンごとのトークンを保存するBackend。
type SQLiteBackend struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// origin はトークンの保存単位となるAPIのオリジン。
	origin string
}

// OpenSQLite はSQLiteファイルを開き、スキーマを適用したSQLiteBackendを返す。
// pathに ":memory:" を指定するとインメモリDBになる。
func OpenSQLite(ctx context.Context, path, origin string) (*SQLiteBackend, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := migration.Run(ctx, db, migrationFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}
	return &SQLiteBackend{db: db, origin: origin}, nil
}

// Load はオリジンに対応するトークンを返す。
func (b *SQLiteBackend) Load(ctx context.Context) (string, error) {
	var token string
	err := b.db.QueryRowContext(ctx,
		"SELECT token FROM session_tokens WHERE origin = ?", b.origin,
	).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// Save はオリジンに対応するトークンを上書き保存する。
func (b *SQLiteBackend) Save(ctx context.Context, token string) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO session_tokens (origin, token, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(origin) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at
	`, b.origin, token)
	return err
}

// Delete はオリジンに対応するトークンを削除する。
func (b *SQLiteBackend) Delete(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, "DELETE FROM session_tokens WHERE origin = ?", b.origin)
	return err
}

// Close はデータベース接続を閉じる。
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
