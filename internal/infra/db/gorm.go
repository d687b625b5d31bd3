package db

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/howardstar/f1hub/internal/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type gormZapWriter struct {
	logger *zap.Logger
}

func (w gormZapWriter) Printf(format string, args ...interface{}) {
	w.logger.Sugar().Infof(format, args...)
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA busy_timeout=5000;",
	"PRAGMA foreign_keys=ON;",
}

func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logger.New(
		gormZapWriter{logger: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, err
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one connection avoids SQLITE_BUSY
	// under concurrent jobs.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&userModel{},
		&favoriteDriverModel{},
		&favoriteTeamModel{},
		&notificationStateModel{},
		&raceReminderModel{},
		&voteModel{},
		&groupChatModel{},
	); err != nil {
		return nil, err
	}

	return db, nil
}
