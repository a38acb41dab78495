// Package sqlx stores scores in a relational database through jmoiron/sqlx.
// Postgres, MySQL and SQLite are supported.
package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"scorekeeper/core"
	"scorekeeper/engine"
)

// Driver names a supported database.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverSQLite   Driver = "sqlite"
)

// Config holds SQL connection configuration
type Config struct {
	Driver          Driver        `json:"driver" yaml:"driver" env:"SCOREKEEPER_STORAGE_SQL_DRIVER"`
	DSN             string        `json:"dsn" yaml:"dsn" env:"SCOREKEEPER_STORAGE_SQL_DSN"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns" env:"SCOREKEEPER_STORAGE_SQL_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns" env:"SCOREKEEPER_STORAGE_SQL_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime" env:"SCOREKEEPER_STORAGE_SQL_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `json:"auto_migrate" yaml:"auto_migrate" env:"SCOREKEEPER_STORAGE_SQL_AUTO_MIGRATE"`
}

// DefaultConfig returns local development defaults for driver.
func DefaultConfig(driver Driver) Config {
	cfg := Config{
		Driver:          driver,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		AutoMigrate:     true,
	}
	switch driver {
	case DriverMySQL:
		cfg.DSN = "root@tcp(localhost:3306)/scorekeeper"
	case DriverSQLite:
		cfg.DSN = "./data/scorekeeper.db"
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	default:
		cfg.DSN = "postgres://localhost:5432/scorekeeper?sslmode=disable"
	}
	return cfg
}

// Validate reports missing or unknown settings.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("driver must be one of: postgres, mysql, sqlite (got %q)", c.Driver)
	}
	if c.DSN == "" {
		return errors.New("dsn cannot be empty")
	}
	return nil
}

var migrations = map[Driver][]string{
	DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS scores (
			id BIGSERIAL PRIMARY KEY,
			player_name TEXT NOT NULL,
			player_age TEXT NOT NULL,
			player_school TEXT NOT NULL,
			score BIGINT NOT NULL,
			level BIGINT NOT NULL DEFAULT 0,
			submitted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_rank ON scores (score DESC, id ASC)`,
	},
	DriverMySQL: {
		`CREATE TABLE IF NOT EXISTS scores (
			id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
			player_name VARCHAR(255) NOT NULL,
			player_age VARCHAR(64) NOT NULL,
			player_school VARCHAR(255) NOT NULL,
			score BIGINT NOT NULL,
			level BIGINT NOT NULL DEFAULT 0,
			submitted_at VARCHAR(40) NOT NULL,
			INDEX idx_scores_rank (score DESC, id ASC)
		)`,
	},
	// AUTOINCREMENT keeps SQLite from reusing the id of a deleted top row.
	DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player_name TEXT NOT NULL,
			player_age TEXT NOT NULL,
			player_school TEXT NOT NULL,
			score INTEGER NOT NULL,
			level INTEGER NOT NULL DEFAULT 0,
			submitted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scores_rank ON scores (score DESC, id ASC)`,
	},
}

const columns = `id, player_name, player_age, player_school, score, level, submitted_at`

type scoreRow struct {
	ID           int64  `db:"id"`
	PlayerName   string `db:"player_name"`
	PlayerAge    string `db:"player_age"`
	PlayerSchool string `db:"player_school"`
	Score        int64  `db:"score"`
	Level        int64  `db:"level"`
	SubmittedAt  string `db:"submitted_at"`
	Total        int    `db:"total"`
}

func (r scoreRow) record() (core.ScoreRecord, error) {
	at, err := time.Parse(time.RFC3339Nano, r.SubmittedAt)
	if err != nil {
		return core.ScoreRecord{}, fmt.Errorf("row %d: submitted_at: %w", r.ID, err)
	}
	return core.ScoreRecord{
		ID:           r.ID,
		PlayerName:   r.PlayerName,
		PlayerAge:    r.PlayerAge,
		PlayerSchool: r.PlayerSchool,
		Score:        r.Score,
		Level:        r.Level,
		SubmittedAt:  at.UTC(),
	}, nil
}

// Store is a SQL-backed repository.
type Store struct {
	db       *sqlx.DB
	driver   Driver
	capacity int
	// serializes writers in this process; Postgres also takes a table lock
	mu sync.RWMutex
}

// New connects using cfg and runs migrations when cfg.AutoMigrate is set.
func New(ctx context.Context, cfg Config, capacity int) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver == DriverSQLite {
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return nil, err
		}
	}
	db, err := sqlx.ConnectContext(ctx, string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite {
		// one writer at a time; also keeps an in-memory database on one connection
		cfg.MaxOpenConns = 1
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	s := NewWithDB(db, cfg.Driver, capacity)
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// ensureSQLiteDir creates the parent directory of a plain file DSN.
func ensureSQLiteDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, "file:") || strings.HasPrefix(dsn, ":memory:") {
		return nil
	}
	path, _, _ := strings.Cut(dsn, "?")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sqlite directory: %w", err)
		}
	}
	return nil
}

// NewWithDB wraps an existing handle (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver, capacity int) *Store {
	if capacity <= 0 {
		capacity = core.DefaultRetentionCap
	}
	return &Store{db: db, driver: driver, capacity: capacity}
}

// Migrate creates the scores table and its ranking index.
func (s *Store) Migrate(ctx context.Context) error {
	stmts, ok := migrations[s.driver]
	if !ok {
		return fmt.Errorf("no migrations for driver %q", s.driver)
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }

// Insert stores rec and deletes the rows ranked below the cap in one transaction.
func (s *Store) Insert(ctx context.Context, rec core.ScoreRecord) (res core.InsertResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if s.driver == DriverPostgres {
		if _, err = tx.ExecContext(ctx, `LOCK TABLE scores IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return res, err
		}
	}

	args := []any{rec.PlayerName, rec.PlayerAge, rec.PlayerSchool, rec.Score, rec.Level, rec.SubmittedAt.UTC().Format(time.RFC3339Nano)}
	insert := `INSERT INTO scores (player_name, player_age, player_school, score, level, submitted_at) VALUES (?, ?, ?, ?, ?, ?)`
	if s.driver == DriverPostgres {
		if err = tx.QueryRowxContext(ctx, tx.Rebind(insert+` RETURNING id`), args...).Scan(&res.ID); err != nil {
			return res, err
		}
	} else {
		var r sql.Result
		if r, err = tx.ExecContext(ctx, tx.Rebind(insert), args...); err != nil {
			return res, err
		}
		if res.ID, err = r.LastInsertId(); err != nil {
			return res, err
		}
	}

	if err = tx.GetContext(ctx, &res.Size, `SELECT COUNT(*) FROM scores`); err != nil {
		return res, err
	}
	if over := res.Size - s.capacity; over > 0 {
		var rows []scoreRow
		q := tx.Rebind(`SELECT ` + columns + ` FROM scores ORDER BY score ASC, id DESC LIMIT ?`)
		if err = tx.SelectContext(ctx, &rows, q, over); err != nil {
			return res, err
		}
		ids := make([]int64, len(rows))
		res.Evicted = make([]core.ScoreRecord, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
			// rows come lowest first; report evictions in ranking order
			if res.Evicted[len(rows)-1-i], err = row.record(); err != nil {
				return res, err
			}
		}
		var del string
		var delArgs []any
		if del, delArgs, err = sqlx.In(`DELETE FROM scores WHERE id IN (?)`, ids); err != nil {
			return res, err
		}
		if _, err = tx.ExecContext(ctx, tx.Rebind(del), delArgs...); err != nil {
			return res, err
		}
		res.Size -= len(rows)
	}

	if err = tx.Commit(); err != nil {
		return res, err
	}
	return res, nil
}

// Ranked reads the top rows and the table size in a single statement.
func (s *Store) Ranked(ctx context.Context, limit int) (core.Standings, error) {
	if limit <= 0 {
		n, err := s.Count(ctx)
		return core.Standings{Records: []core.ScoreRecord{}, Total: n}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []scoreRow
	q := s.db.Rebind(`SELECT ` + columns + `, COUNT(*) OVER () AS total FROM scores ORDER BY score DESC, id ASC LIMIT ?`)
	if err := s.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return core.Standings{}, err
	}
	st := core.Standings{Records: make([]core.ScoreRecord, 0, len(rows))}
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return core.Standings{}, err
		}
		st.Records = append(st.Records, rec)
		st.Total = row.Total
	}
	return st, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM scores`); err != nil {
		return 0, err
	}
	return n, nil
}

var _ engine.Repository = (*Store)(nil)
