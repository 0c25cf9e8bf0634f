package slotblocks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const dayLayout = "2006-01-02"

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides persistence for slot blocks.
type Store struct {
	db DB
}

// NewStore creates a new slot block store.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Create inserts a new active block.
func (s *Store) Create(ctx context.Context, b *Block) error {
	if b.WorkspaceID == "" || b.Location == "" {
		return fmt.Errorf("%w: workspace and location are required", ErrInvalidBlock)
	}
	if b.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidBlock)
	}
	day, err := time.Parse(dayLayout, b.Day)
	if err != nil {
		return fmt.Errorf("%w: bad day %q", ErrInvalidBlock, b.Day)
	}
	if _, err := time.Parse("15:04", b.StartTime); err != nil {
		return fmt.Errorf("%w: bad start time %q", ErrInvalidBlock, b.StartTime)
	}

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now().UTC()

	_, err = s.db.Exec(ctx, `
		INSERT INTO slot_blocks (id, workspace_id, day, start_time, duration_minutes, location, tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.ID, b.WorkspaceID, day, b.StartTime, b.DurationMinutes, b.Location, b.Tag, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("slotblocks: create: %w", err)
	}
	return nil
}

// Archive marks a block inactive, freeing the slot. The row is retained.
func (s *Store) Archive(ctx context.Context, workspaceID string, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE slot_blocks SET archived_at = now()
		WHERE id = $1 AND workspace_id = $2 AND archived_at IS NULL`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("slotblocks: archive: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slotblocks: archive %s: %w", id, ErrBlockNotFound)
	}
	return nil
}

// ListByDay returns blocks for a workspace and day. When activeOnly is set,
// archived blocks are filtered out.
func (s *Store) ListByDay(ctx context.Context, workspaceID, day string, activeOnly bool) ([]Block, error) {
	date, err := time.Parse(dayLayout, day)
	if err != nil {
		return nil, fmt.Errorf("%w: bad day %q", ErrInvalidBlock, day)
	}

	query := `
		SELECT id, workspace_id, day, start_time, duration_minutes, location, tag, archived_at, created_at
		FROM slot_blocks
		WHERE workspace_id = $1 AND day = $2`
	if activeOnly {
		query += ` AND archived_at IS NULL`
	}
	query += ` ORDER BY start_time ASC`

	rows, err := s.db.Query(ctx, query, workspaceID, date)
	if err != nil {
		return nil, fmt.Errorf("slotblocks: list by day: %w", err)
	}
	defer rows.Close()

	var result []Block
	for rows.Next() {
		var (
			b Block
			d time.Time
		)
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &d, &b.StartTime, &b.DurationMinutes, &b.Location, &b.Tag, &b.ArchivedAt, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("slotblocks: scan block: %w", err)
		}
		b.Day = d.Format(dayLayout)
		result = append(result, b)
	}
	return result, rows.Err()
}
