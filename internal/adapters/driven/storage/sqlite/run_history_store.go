package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
)

// runTimeLayout is fixed width so that stored timestamps sort lexically.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z"

// runHistoryStore implements driven.RunHistoryStore.
type runHistoryStore struct {
	store *Store
}

var _ driven.RunHistoryStore = (*runHistoryStore)(nil)

// SaveRun stores a finished run.
func (s *runHistoryStore) SaveRun(ctx context.Context, run domain.IndexRunRecord) error {
	if run.ID == "" || run.FolderPath == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO index_runs (id, folder_path, started_at, finished_at, indexed, skipped, cancelled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			finished_at = excluded.finished_at,
			indexed = excluded.indexed,
			skipped = excluded.skipped,
			cancelled = excluded.cancelled
	`, run.ID, run.FolderPath,
		formatRunTime(run.StartedAt), formatRunTime(run.FinishedAt),
		run.Indexed, run.Skipped, boolToInt(run.Cancelled))

	if err != nil {
		return fmt.Errorf("saving index run: %w", err)
	}
	return nil
}

// LastRun returns the most recently finished run for a folder.
func (s *runHistoryStore) LastRun(ctx context.Context, folderPath string) (*domain.IndexRunRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, folder_path, started_at, finished_at, indexed, skipped, cancelled
		FROM index_runs
		WHERE folder_path = ?
		ORDER BY finished_at DESC
		LIMIT 1
	`, folderPath)

	var run domain.IndexRunRecord
	var startedAt, finishedAt string
	var cancelled int
	if err := row.Scan(&run.ID, &run.FolderPath, &startedAt, &finishedAt,
		&run.Indexed, &run.Skipped, &cancelled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning index run: %w", err)
	}

	var err error
	if run.StartedAt, err = parseRunTime(startedAt); err != nil {
		return nil, fmt.Errorf("index run %s: started_at: %w", run.ID, err)
	}
	if run.FinishedAt, err = parseRunTime(finishedAt); err != nil {
		return nil, fmt.Errorf("index run %s: finished_at: %w", run.ID, err)
	}
	run.Cancelled = cancelled == 1

	return &run, nil
}

func formatRunTime(t time.Time) string {
	return t.UTC().Format(runTimeLayout)
}

// parseRunTime reads a stored timestamp. RFC 3339 is accepted as well,
// which is how the driver renders values of DATETIME columns.
func parseRunTime(s string) (time.Time, error) {
	if t, err := time.Parse(runTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
