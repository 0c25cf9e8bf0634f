package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	slotActiveConstraint         = "reservations_slot_active_uniq"
	conversationActiveConstraint = "reservations_conversation_active_uniq"

	dayLayout = "2006-01-02"
)

// Store exposes the atomic persistence primitives for reservations. Exactly
// one of N concurrent TryClaim calls for a slot succeeds; the rest observe
// ErrSlotTaken. The uniqueness constraints in the schema are the load-bearing
// mechanism, not application code. Operator slot blocks occupy slots the same
// way reservations do: a claim covered by an unarchived block loses.
type Store interface {
	TryClaim(ctx context.Context, claim Claim) (*Reservation, error)
	Release(ctx context.Context, workspaceID string, id uuid.UUID, next Status) (*Reservation, error)
	Confirm(ctx context.Context, workspaceID string, id uuid.UUID) (*Reservation, error)
	FindActiveFor(ctx context.Context, workspaceID, conversationID string) (*Reservation, error)
	ListOccupied(ctx context.Context, workspaceID, day string, slotMinutes int) (map[SlotKey]struct{}, error)
	Reschedule(ctx context.Context, workspaceID string, oldID uuid.UUID, claim Claim) (*Reservation, error)
	ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]Reservation, error)
}

// PgxPool abstracts the pgx pool surface for testing.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// querier is satisfied by both PgxPool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists reservations in Postgres.
type PostgresStore struct {
	pool PgxPool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		panic("reservations: pgx pool required")
	}
	return &PostgresStore{pool: pool}
}

const reservationColumns = `id, workspace_id, conversation_id, contact_id, day, start_time, location, status, active_key, created_at, updated_at`

// TryClaim inserts a PENDING active reservation. The insert is the whole
// critical section: losing either unique index race surfaces as a mapped
// sentinel, never as a silent overwrite. The insert is additionally guarded
// against unarchived slot blocks covering the requested window, so operator
// holds and candidate bookings share one conflict-detection path.
func (s *PostgresStore) TryClaim(ctx context.Context, claim Claim) (*Reservation, error) {
	return tryClaim(ctx, s.pool, claim)
}

func tryClaim(ctx context.Context, q querier, claim Claim) (*Reservation, error) {
	day, err := time.Parse(dayLayout, claim.Day)
	if err != nil {
		return nil, fmt.Errorf("reservations: parse day %q: %w", claim.Day, err)
	}

	id := uuid.New()
	query := `
		INSERT INTO reservations (id, workspace_id, conversation_id, contact_id, day, start_time, location, status, active_key)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE NOT EXISTS (
			SELECT 1 FROM slot_blocks
			WHERE workspace_id = $2 AND day = $5 AND location = $7 AND archived_at IS NULL
			  AND $6::time >= start_time::time
			  AND $6::time < start_time::time + make_interval(mins => duration_minutes)
		)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	err = q.QueryRow(ctx, query,
		id,
		claim.WorkspaceID,
		claim.ConversationID,
		claim.ContactID,
		day,
		claim.StartTime,
		claim.Location,
		string(StatusPending),
		ActiveKey,
	).Scan(&createdAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// The NOT EXISTS guard suppressed the insert: an operator block
		// covers the window.
		return nil, ErrSlotTaken
	}
	if err != nil {
		if mapped := mapUniqueViolation(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("reservations: insert claim: %w", err)
	}

	return &Reservation{
		ID:             id,
		WorkspaceID:    claim.WorkspaceID,
		ConversationID: claim.ConversationID,
		ContactID:      claim.ContactID,
		Day:            claim.Day,
		StartTime:      claim.StartTime,
		Location:       claim.Location,
		Status:         StatusPending,
		Active:         true,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Release clears the active key and moves the row to a terminal status,
// freeing the slot. Releasing an already-released reservation is a no-op so
// delivery retries never crash the caller.
func (s *PostgresStore) Release(ctx context.Context, workspaceID string, id uuid.UUID, next Status) (*Reservation, error) {
	return release(ctx, s.pool, workspaceID, id, next)
}

func release(ctx context.Context, q querier, workspaceID string, id uuid.UUID, next Status) (*Reservation, error) {
	if !IsReleasable(next) {
		return nil, ErrInvalidStatus
	}

	query := `
		UPDATE reservations
		SET status = $1, active_key = NULL, updated_at = now()
		WHERE id = $2 AND workspace_id = $3 AND active_key = $4
		RETURNING ` + reservationColumns
	row := q.QueryRow(ctx, query, string(next), id, workspaceID, ActiveKey)
	res, err := scanReservation(row)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reservations: release: %w", err)
	}

	// Nothing active matched: either already released (idempotent no-op) or
	// the reservation never existed.
	existing, err := getByID(ctx, q, workspaceID, id)
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Confirm transitions a PENDING active reservation to CONFIRMED. Confirming an
// already-confirmed reservation is a no-op.
func (s *PostgresStore) Confirm(ctx context.Context, workspaceID string, id uuid.UUID) (*Reservation, error) {
	query := `
		UPDATE reservations
		SET status = $1, updated_at = now()
		WHERE id = $2 AND workspace_id = $3 AND active_key = $4 AND status = $5
		RETURNING ` + reservationColumns
	row := s.pool.QueryRow(ctx, query, string(StatusConfirmed), id, workspaceID, ActiveKey, string(StatusPending))
	res, err := scanReservation(row)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reservations: confirm: %w", err)
	}

	existing, err := getByID(ctx, s.pool, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == StatusConfirmed && existing.Active {
		return existing, nil
	}
	return nil, fmt.Errorf("reservations: confirm %s: reservation is %s: %w", id, existing.Status, ErrNotFound)
}

// FindActiveFor returns the conversation's in-flight reservation, or nil when
// it has none.
func (s *PostgresStore) FindActiveFor(ctx context.Context, workspaceID, conversationID string) (*Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE workspace_id = $1 AND conversation_id = $2 AND active_key = $3
	`
	row := s.pool.QueryRow(ctx, query, workspaceID, conversationID, ActiveKey)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reservations: find active: %w", err)
	}
	return res, nil
}

// ListOccupied merges active reservations and unarchived slot blocks for a day
// into one conflict-detection set. Blocks longer than one slot are expanded
// into the start time of every slotMinutes-sized window they cover.
func (s *PostgresStore) ListOccupied(ctx context.Context, workspaceID, day string, slotMinutes int) (map[SlotKey]struct{}, error) {
	date, err := time.Parse(dayLayout, day)
	if err != nil {
		return nil, fmt.Errorf("reservations: parse day %q: %w", day, err)
	}

	query := `
		SELECT start_time, location, 0 AS duration_minutes FROM reservations
		WHERE workspace_id = $1 AND day = $2 AND active_key = $3
		UNION ALL
		SELECT start_time, location, duration_minutes FROM slot_blocks
		WHERE workspace_id = $1 AND day = $2 AND archived_at IS NULL
	`
	rows, err := s.pool.Query(ctx, query, workspaceID, date, ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("reservations: list occupied: %w", err)
	}
	defer rows.Close()

	occupied := make(map[SlotKey]struct{})
	for rows.Next() {
		var (
			key      SlotKey
			duration int
		)
		if err := rows.Scan(&key.StartTime, &key.Location, &duration); err != nil {
			return nil, fmt.Errorf("reservations: scan occupied: %w", err)
		}
		for _, start := range coveredStarts(key.StartTime, duration, slotMinutes) {
			occupied[SlotKey{StartTime: start, Location: key.Location}] = struct{}{}
		}
	}
	return occupied, rows.Err()
}

// Reschedule atomically releases the old claim and inserts the new one. When
// the new claim loses its race the transaction rolls back and the old
// reservation stays exactly as it was.
func (s *PostgresStore) Reschedule(ctx context.Context, workspaceID string, oldID uuid.UUID, claim Claim) (*Reservation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("reservations: begin reschedule: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE reservations
		SET status = $1, active_key = NULL, updated_at = now()
		WHERE id = $2 AND workspace_id = $3 AND active_key = $4`,
		string(StatusCancelled), oldID, workspaceID, ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("reservations: reschedule release: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("reservations: reschedule %s: %w", oldID, ErrNotFound)
	}

	created, err := tryClaim(ctx, tx, claim)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("reservations: commit reschedule: %w", err)
	}
	return created, nil
}

// ListByConversation returns the full reservation history for a conversation,
// newest first. Rows are never deleted, so this is the audit trail.
func (s *PostgresStore) ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE workspace_id = $1 AND conversation_id = $2
		ORDER BY created_at DESC
	`
	rows, err := s.pool.Query(ctx, query, workspaceID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("reservations: list by conversation: %w", err)
	}
	defer rows.Close()

	var result []Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("reservations: scan history: %w", err)
		}
		result = append(result, *res)
	}
	return result, rows.Err()
}

func getByID(ctx context.Context, q querier, workspaceID string, id uuid.UUID) (*Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE id = $1 AND workspace_id = $2
	`
	row := q.QueryRow(ctx, query, id, workspaceID)
	res, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("reservations: %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reservations: get by id: %w", err)
	}
	return res, nil
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var (
		res       Reservation
		day       time.Time
		status    string
		activeKey *string
	)
	err := row.Scan(
		&res.ID, &res.WorkspaceID, &res.ConversationID, &res.ContactID,
		&day, &res.StartTime, &res.Location,
		&status, &activeKey,
		&res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	res.Day = day.Format(dayLayout)
	res.Status = Status(status)
	res.Active = activeKey != nil && *activeKey == ActiveKey
	return &res, nil
}

// mapUniqueViolation translates the two documented constraint violations into
// domain sentinels. Any other 23505 bubbles up as a store failure.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case slotActiveConstraint:
		return ErrSlotTaken
	case conversationActiveConstraint:
		return ErrConversationBusy
	default:
		return nil
	}
}
