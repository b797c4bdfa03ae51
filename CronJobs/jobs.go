package CronJobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"Weighbridge/Exports"
	"Weighbridge/Models"

	"github.com/robfig/cron/v3"
)

const backupDir = "./Backups"

// BackupScheduler writes a dated workbook of every entry on a schedule, so
// the station keeps a local copy even if the upstream store is unreachable.
type BackupScheduler struct {
	store    Models.EntryStore
	schedule string
	Dir      string
	cron     *cron.Cron
}

func NewBackupScheduler(store Models.EntryStore) *BackupScheduler {
	schedule := os.Getenv("BACKUP_SCHEDULE")
	if schedule == "" {
		schedule = "0 2 * * *"
	}
	return &BackupScheduler{
		store:    store,
		schedule: schedule,
		Dir:      backupDir,
		cron:     cron.New(),
	}
}

// Start registers the backup job and starts the scheduler.
func (b *BackupScheduler) Start() error {
	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}

	_, err := b.cron.AddFunc(b.schedule, func() {
		if err := b.RunBackup(context.Background()); err != nil {
			log.Printf("Backup failed: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling backup: %w", err)
	}

	b.cron.Start()
	log.Printf("Backup scheduler started (schedule %q)\n", b.schedule)
	return nil
}

// Stop halts the scheduler. A backup already running finishes.
func (b *BackupScheduler) Stop() {
	b.cron.Stop()
}

// RunBackup exports every entry to a dated workbook under the backup
// directory. An empty store is not an error; there is nothing to back up.
func (b *BackupScheduler) RunBackup(ctx context.Context) error {
	entries, err := b.store.All(ctx)
	if err != nil {
		return fmt.Errorf("error loading entries: %w", err)
	}

	f, err := Exports.BuildWorkbook(entries)
	if err != nil {
		if err == Exports.ErrNoEntries {
			log.Println("Backup skipped: no entries")
			return nil
		}
		return err
	}

	path := filepath.Join(b.Dir, fmt.Sprintf("backup_%s.xlsx", time.Now().Format("2006-01-02")))
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving backup: %w", err)
	}

	log.Printf("Backup written: %s (%d entries)\n", path, len(entries))
	return nil
}
