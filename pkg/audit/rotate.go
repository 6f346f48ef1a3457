package audit

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/newtron-network/netpec/pkg/util"
)

// RotationConfig bounds the log's size. Zero values disable rotation and
// pruning respectively.
type RotationConfig struct {
	MaxSize    int64 // bytes
	MaxBackups int
}

// DefaultRotation keeps five backups of 10 MiB
var DefaultRotation = RotationConfig{MaxSize: 10 << 20, MaxBackups: 5}

// backupSuffix sorts lexically in time order
const backupSuffix = "20060102-150405.000000000"

func (r RotationConfig) due(f *os.File) bool {
	if r.MaxSize <= 0 || f == nil {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Size() >= r.MaxSize
}

// rotate renames the current file to path.<timestamp> and starts a new one.
// The caller holds l.mu.
func (l *FileLogger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(l.path, l.path+"."+time.Now().Format(backupSuffix)); err != nil {
		return err
	}
	if err := l.open(); err != nil {
		return err
	}
	l.prune()
	return nil
}

// backups lists rotated files oldest first
func (l *FileLogger) backups() []string {
	matches, err := filepath.Glob(l.path + ".*")
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

// prune removes the oldest backups beyond MaxBackups
func (l *FileLogger) prune() {
	if l.rotation.MaxBackups <= 0 {
		return
	}
	backups := l.backups()
	for len(backups) > l.rotation.MaxBackups {
		if err := os.Remove(backups[0]); err != nil {
			util.WithField("path", backups[0]).Warnf("audit: removing old log: %v", err)
		}
		backups = backups[1:]
	}
}
