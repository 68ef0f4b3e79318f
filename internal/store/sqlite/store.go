package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paperbroker/internal/broker"
	"paperbroker/internal/store/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config selects and tunes the backing database.
type Config struct {
	Driver       string // "sqlite" (default) or "mysql"
	Path         string // sqlite database file
	DSN          string // mysql DSN
	MaxOpenConns int
}

// Store implements broker.Store on gorm. The default sqlite backend
// keeps the simulator self-contained; mysql is for running it behind a
// real database with true FOR UPDATE row locks.
type Store struct {
	db       *gorm.DB
	rowLocks bool
}

func New(cfg Config) (*Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = "sqlite"
	}

	var (
		dialector gorm.Dialector
		rowLocks  bool
	)
	switch driver {
	case "sqlite":
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			return nil, fmt.Errorf("sqlite store: database path is required")
		}
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		// sqlite has no FOR UPDATE; _txlock=immediate makes every
		// transaction take the write lock at BEGIN, which serializes
		// writers the same way row locks would for this workload.
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate&cache=shared", path)
		dialector = sqlite.Open(dsn)
	case "mysql":
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, fmt.Errorf("mysql store: dsn is required")
		}
		dialector = mysql.Open(cfg.DSN)
		rowLocks = true
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.AccountModel{},
		&model.PositionModel{},
		&model.OrderModel{},
		&model.ExecutionModel{},
	); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	maxConns := cfg.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 2
		if rowLocks {
			maxConns = 16
		}
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return &Store{db: db, rowLocks: rowLocks}, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithinTx runs fn inside one transaction. fn returning an error rolls
// the whole unit of work back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx broker.Tx) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is not initialized")
	}
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		return fn(&storeTx{db: gtx, rowLocks: s.rowLocks})
	})
}
