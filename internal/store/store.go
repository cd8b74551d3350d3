package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/nao1215/jobtracker/pkg/migration"
)

//go:embed migrations
var migrations embed.FS

var (
	// ErrNotFound は対象の行が存在しないことを表す。
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate は一意制約に違反したことを表す。
	ErrDuplicate = errors.New("store: duplicate")
)

// Dialect はSQL方言を表す。
type Dialect string

const (
	// DialectSQLite はSQLite（modernc.org/sqlite）。
	DialectSQLite Dialect = "sqlite"
	// DialectPostgres はPostgreSQL（pgx stdlib）。
	DialectPostgres Dialect = "pgx"
)

// Options はデータベース接続の設定。
type Options struct {
	// Driver は使用するドライバ（DialectSQLite または DialectPostgres）。
	Driver Dialect
	// DSN は接続文字列。SQLiteの場合はファイルパスまたは ":memory:"。
	DSN string
}

// Store はデータベース操作をまとめた構造体。
type Store struct {
	// db はコネクションプール。
	db *sql.DB
	// dialect は接続先のSQL方言。
	dialect Dialect
}

// Open はデータベースに接続し、マイグレーションを適用する。
func Open(ctx context.Context, opts Options) (*Store, error) {
	dialect := opts.Driver
	var dsn string
	switch dialect {
	case DialectSQLite:
		dsn = sqliteDSN(opts.DSN)
	case DialectPostgres:
		dsn = opts.DSN
	default:
		return nil, fmt.Errorf("未対応のドライバ: %q", opts.Driver)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	if dialect == DialectSQLite && strings.Contains(opts.DSN, ":memory:") {
		// インメモリDBは接続ごとに別DBになるため1接続に固定する
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	if err := migration.Run(ctx, db, migrations, "migrations/"+migrationDir(dialect)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	return &Store{db: db, dialect: dialect}, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping はデータベースへの疎通を確認する。
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func migrationDir(d Dialect) string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// sqliteDSN はWALモード、ビジータイムアウト、外部キー制約を有効にしたDSNを返す。
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// rebind は ? プレースホルダを方言に合わせて書き換える。
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// execAffected はUPDATE/DELETEを実行し、対象行が無ければErrNotFoundを返す。
func (s *Store) execAffected(ctx context.Context, query string, args ...any) error {
	res, err := s.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation はドライバ固有の一意制約違反エラーを判定する。
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

// wrapNoRows はsql.ErrNoRowsをErrNotFoundに変換する。
func wrapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
