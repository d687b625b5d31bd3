package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Backup struct {
	db     *gorm.DB
	dir    string
	keep   int
	logger *zap.Logger
}

func NewBackup(db *gorm.DB, dir string, keep int, logger *zap.Logger) *Backup {
	if keep < 1 {
		keep = 1
	}
	return &Backup{db: db, dir: dir, keep: keep, logger: logger}
}

// Run snapshots the live database with VACUUM INTO and prunes old
// snapshots, keeping only the newest ones.
func (b *Backup) Run(ctx context.Context) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	name := fmt.Sprintf("f1hub-%s.db", time.Now().UTC().Format("20060102-150405"))
	target := filepath.Join(b.dir, name)

	if err := b.db.WithContext(ctx).Exec("VACUUM INTO ?", target).Error; err != nil {
		return fmt.Errorf("vacuum into %s: %w", target, err)
	}
	b.logger.Info("database backup written", zap.String("path", target))

	return b.prune()
}

func (b *Backup) prune() error {
	entries, err := filepath.Glob(filepath.Join(b.dir, "f1hub-*.db"))
	if err != nil {
		return err
	}
	if len(entries) <= b.keep {
		return nil
	}

	sort.Strings(entries)
	for _, path := range entries[:len(entries)-b.keep] {
		if err := os.Remove(path); err != nil {
			b.logger.Warn("failed to remove old backup", zap.String("path", path), zap.Error(err))
			continue
		}
		b.logger.Info("old backup removed", zap.String("path", path))
	}
	return nil
}
