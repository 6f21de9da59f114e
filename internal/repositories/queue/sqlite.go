package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/verdantlab/ranger/internal/dbx"
	"github.com/verdantlab/ranger/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Enqueue(ctx context.Context, kind models.QueueKind, payload models.QueuePayload, targetTreeID string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	offlineID := uuid.NewString()

	query := `INSERT INTO queue_items (offline_id, kind, target_tree_id, payload, status, created_at)
			values (?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		offlineID, string(kind), targetTreeID, data, string(models.StatusPending), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to enqueue item: %w", err)
	}
	return offlineID, nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context, kind models.QueueKind) ([]models.QueueItem, error) {
	query := `SELECT offline_id, kind, target_tree_id, payload, status, last_error, created_at
			FROM queue_items WHERE kind = ? AND status = ? ORDER BY rowid`
	rows, err := r.db.QueryContext(ctx, query, string(kind), string(models.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to select queue items: %w", err)
	}
	defer rows.Close()

	var result []models.QueueItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, offlineID string) (*models.QueueItem, error) {
	query := `SELECT offline_id, kind, target_tree_id, payload, status, last_error, created_at
			FROM queue_items WHERE offline_id = ?`
	row := r.db.QueryRowContext(ctx, query, offlineID)

	item, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// MarkInFlight claims the item with a conditional update. Zero rows affected
// means either the item is already claimed or it does not exist; the two
// cases are distinguished with a follow-up lookup.
func (r *SQLiteRepository) MarkInFlight(ctx context.Context, offlineID string) error {
	query := `UPDATE queue_items SET status = ? WHERE offline_id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query,
		string(models.StatusInFlight), offlineID, string(models.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to mark item in flight: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 1 {
		return nil
	}

	if _, err := r.Get(ctx, offlineID); err != nil {
		return err
	}
	return ErrAlreadyInFlight
}

func (r *SQLiteRepository) MarkSucceeded(ctx context.Context, offlineID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM queue_items WHERE offline_id = ?`, offlineID)
	if err != nil {
		return fmt.Errorf("failed to remove item: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) MarkFailed(ctx context.Context, offlineID string, reason string) error {
	query := `UPDATE queue_items SET status = ?, last_error = ? WHERE offline_id = ?`
	res, err := r.db.ExecContext(ctx, query, string(models.StatusPending), reason, offlineID)
	if err != nil {
		return fmt.Errorf("failed to mark item failed: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpdatePayload(ctx context.Context, offlineID string, payload models.QueuePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE queue_items SET payload = ? WHERE offline_id = ?`, data, offlineID)
	if err != nil {
		return fmt.Errorf("failed to update payload: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CountPending(ctx context.Context, kind models.QueueKind) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_items WHERE kind = ? AND status = ?`,
		string(kind), string(models.StatusPending)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending items: %w", err)
	}
	return n, nil
}

func scanItem(scan func(dest ...any) error) (*models.QueueItem, error) {
	var item models.QueueItem
	var kind, status string
	var payload []byte
	if err := scan(&item.OfflineID, &kind, &item.TargetTreeID, &payload, &status, &item.LastError, &item.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &item.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	item.Kind = models.QueueKind(kind)
	item.Status = models.QueueStatus(status)
	return &item, nil
}
