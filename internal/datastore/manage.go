package datastore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/racewatch/regbot/internal/errors"
	"github.com/racewatch/regbot/internal/logging"
)

// slowQueryThreshold is the duration after which a query is logged as slow.
const slowQueryThreshold = 1 * time.Second

var (
	logger      *slog.Logger
	closeLogger func() error
)

func init() {
	var err error
	logger, closeLogger, err = logging.NewFileLogger("logs/datastore.log", "datastore", slog.LevelInfo)
	if err != nil || logger == nil {
		// Fallback: discard logs rather than fail to start
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		closeLogger = func() error { return nil }
	}
}

// createGormLogger returns a GORM logger that forwards to the package logger.
func createGormLogger() gormlogger.Interface {
	return &slogGormLogger{level: gormlogger.Warn}
}

type slogGormLogger struct {
	level gormlogger.LogLevel
}

func (l *slogGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *slogGormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		logger.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		logger.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *slogGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		logger.Error("Query failed", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.Warn("Slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}

// performAutoMigration migrates the schema and reports per-table results.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	migrationStart := time.Now()

	tableMappings := []struct {
		model any
		name  string
	}{
		{&Series{}, "series"},
		{&Watch{}, "watches"},
	}

	for _, table := range tableMappings {
		if err := db.AutoMigrate(table.model); err != nil {
			enhancedErr := errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("operation", "auto_migrate_table").
				Context("db_type", dbType).
				Context("table", table.name).
				Build()
			logger.Error("Table migration failed", "table", table.name, "error", enhancedErr)
			return enhancedErr
		}
	}

	if debug {
		logger.Debug("Database migration completed",
			"db_type", dbType,
			"tables_migrated", len(tableMappings),
			"duration", time.Since(migrationStart))
	}
	return nil
}
