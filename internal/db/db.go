package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/swayamsankar/intern-app/internal/config"
)

// Open connects to the configured database and migrates the schema.
func Open(cfg config.DatabaseConfig, log *slog.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.LogEnabled && log != nil {
		gormLogger = NewGormLogger(log, cfg.SlowThreshold)
	}

	instance, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := instance.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// SQLite allows one writer; a single pooled connection also keeps
		// :memory: databases alive for the life of the handle.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(instance); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return instance, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	dsn := cfg.ConnectionString()
	switch cfg.Driver {
	case config.DriverSQLite:
		registerSQLiteDriver()
		return sqlite.New(sqlite.Config{DriverName: sqliteDriverName, DSN: dsn}), nil
	case config.DriverMySQL:
		return gormmysql.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

const sqliteDriverName = "sqlite3_unicode"

var registerSQLiteOnce sync.Once

// registerSQLiteDriver installs a go-sqlite3 driver whose lower() folds
// Unicode the way MySQL and PostgreSQL do. SQLite's built-in lower() only
// folds ASCII, which would make search case-sensitive for other letters.
func registerSQLiteDriver() {
	registerSQLiteOnce.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", unicodeLower, true)
			},
		})
	})
}

// unicodeLower receives NULL as a nil []byte and returns it unchanged.
func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	default:
		return v
	}
}

func Migrate(d *gorm.DB) error {
	if err := d.AutoMigrate(&Applicant{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func Close(d *gorm.DB) error {
	sqlDB, err := d.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func Ping(ctx context.Context, d *gorm.DB) error {
	sqlDB, err := d.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IsDuplicateKey reports whether err is a unique constraint violation from
// any of the supported drivers.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
