// Package postgres implements the relational store for members and sessions.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/gym/internal/domain"
	"example.com/gym/internal/events"
	"example.com/gym/internal/observability"
)

// SQLSTATE class 23 integrity violations worth mapping to client errors.
const foreignKeyViolation = "23503"

// Repository provides Postgres-backed persistence for members, workout
// sessions, and the outbox rows recorded alongside each mutation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = "member_id, name, age, created_at, updated_at"

// ListMembers returns every member ordered by id.
func (r *Repository) ListMembers(ctx context.Context) ([]domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM member ORDER BY member_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]domain.Member, 0)
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Age, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// CreateMember inserts a member, letting the store assign its identity, and
// records a member.created outbox event in the same transaction.
func (r *Repository) CreateMember(ctx context.Context, name string, age int) (*domain.Member, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	member := domain.Member{Name: name, Age: age, CreatedAt: now, UpdatedAt: now}

	const insert = `INSERT INTO member (name, age, created_at, updated_at)
        VALUES ($1,$2,$3,$3) RETURNING member_id`
	if err := tx.QueryRow(ctx, insert, name, age, now).Scan(&member.ID); err != nil {
		return nil, err
	}

	if err := insertOutbox(ctx, tx, "member", member.ID, "member.created", events.MemberCreated{
		MemberID:   member.ID,
		Name:       member.Name,
		Age:        member.Age,
		OccurredAt: now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	observability.RecordMemberPersisted(now)
	return &member, nil
}

// UpdateMember overwrites the mutable member fields. The id is immutable.
func (r *Repository) UpdateMember(ctx context.Context, memberID int64, name string, age int) (*domain.Member, error) {
	now := time.Now().UTC()
	member := domain.Member{ID: memberID, Name: name, Age: age, UpdatedAt: now}

	const update = `UPDATE member SET name=$2, age=$3, updated_at=$4
        WHERE member_id=$1 RETURNING created_at`
	if err := r.pool.QueryRow(ctx, update, memberID, name, age, now).Scan(&member.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	observability.RecordMemberPersisted(now)
	return &member, nil
}

// DeleteMember removes a member along with every session they own. The
// cascade runs as explicit statements inside one transaction so no session
// with a dangling member reference is ever observable.
func (r *Repository) DeleteMember(ctx context.Context, memberID int64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	sessions, err := tx.Exec(ctx, `DELETE FROM workout_sessions WHERE member_id=$1`, memberID)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM member WHERE member_id=$1`, memberID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}

	now := time.Now().UTC()
	if err := insertOutbox(ctx, tx, "member", memberID, "member.deleted", events.MemberDeleted{
		MemberID:        memberID,
		SessionsRemoved: sessions.RowsAffected(),
		OccurredAt:      now,
	}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordSessionsCascadeDeleted(sessions.RowsAffected())
	return nil
}

const sessionColumns = "session_id, member_id, date, duration_minutes, calories_burned, created_at, updated_at"

// ListSessionsForMember returns a member's sessions ordered by id. A missing
// member is reported as ErrMemberNotFound; a member with no sessions yields
// an empty slice. The existence check and the listing run inside one
// transaction so a concurrent member delete cannot produce a stale answer.
func (r *Repository) ListSessionsForMember(ctx context.Context, memberID int64) ([]domain.WorkoutSession, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := checkMemberExists(ctx, tx, memberID); err != nil {
		return nil, err
	}

	query := `SELECT ` + sessionColumns + ` FROM workout_sessions WHERE member_id=$1 ORDER BY session_id`
	rows, err := tx.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]domain.WorkoutSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, tx.Commit(ctx)
}

// CreateSession stores a workout for an existing member. The owning member is
// verified inside the insert transaction; the table's foreign key backs the
// same invariant, and a violation from a racing member delete maps to
// ErrMemberNotFound rather than leaking a storage fault.
func (r *Repository) CreateSession(ctx context.Context, memberID int64, date domain.Date, durationMinutes, caloriesBurned int) (*domain.WorkoutSession, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := checkMemberExists(ctx, tx, memberID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := domain.WorkoutSession{
		MemberID:        memberID,
		Date:            date,
		DurationMinutes: durationMinutes,
		CaloriesBurned:  caloriesBurned,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	const insert = `INSERT INTO workout_sessions (member_id, date, duration_minutes, calories_burned, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$5) RETURNING session_id`
	if err := tx.QueryRow(ctx, insert, memberID, date.Time, durationMinutes, caloriesBurned, now).Scan(&session.ID); err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, err
	}

	if err := insertOutbox(ctx, tx, "workout_session", session.ID, "session.recorded", events.SessionRecorded{
		SessionID:       session.ID,
		MemberID:        memberID,
		Date:            date.String(),
		DurationMinutes: durationMinutes,
		CaloriesBurned:  caloriesBurned,
		OccurredAt:      now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	observability.RecordSessionPersisted(now)
	return &session, nil
}

// UpdateSession overwrites the mutable session fields. Ownership never moves.
func (r *Repository) UpdateSession(ctx context.Context, sessionID int64, date domain.Date, durationMinutes, caloriesBurned int) (*domain.WorkoutSession, error) {
	now := time.Now().UTC()
	session := domain.WorkoutSession{
		ID:              sessionID,
		Date:            date,
		DurationMinutes: durationMinutes,
		CaloriesBurned:  caloriesBurned,
		UpdatedAt:       now,
	}

	const update = `UPDATE workout_sessions SET date=$2, duration_minutes=$3, calories_burned=$4, updated_at=$5
        WHERE session_id=$1 RETURNING member_id, created_at`
	err := r.pool.QueryRow(ctx, update, sessionID, date.Time, durationMinutes, caloriesBurned, now).
		Scan(&session.MemberID, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	observability.RecordSessionPersisted(now)
	return &session, nil
}

// DeleteSession removes a single session.
func (r *Repository) DeleteSession(ctx context.Context, sessionID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workout_sessions WHERE session_id=$1`, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func checkMemberExists(ctx context.Context, tx pgx.Tx, memberID int64) error {
	var one int
	if err := tx.QueryRow(ctx, `SELECT 1 FROM member WHERE member_id=$1`, memberID).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrMemberNotFound
		}
		return err
	}
	return nil
}

func scanSession(rows pgx.Rows) (domain.WorkoutSession, error) {
	var s domain.WorkoutSession
	var day time.Time
	if err := rows.Scan(&s.ID, &s.MemberID, &day, &s.DurationMinutes, &s.CaloriesBurned, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return domain.WorkoutSession{}, err
	}
	s.Date = domain.DateOf(day)
	return s, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateType string, aggregateID int64, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	// Identities are never reused, so aggregate+event is unique per lifecycle.
	dedupeKey := fmt.Sprintf("%s:%d:%s", aggregateType, aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err = tx.Exec(ctx, stmt,
		aggregateType,
		fmt.Sprintf("%d", aggregateID),
		eventType,
		meta.Topic,
		meta.PartitionKeyFn(aggregateID),
		body,
		dedupeKey,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	PartitionKeyFn func(aggregateID int64) string
}

var eventCatalog = map[string]EventMetadata{
	"member.created": {
		Topic:          "member_events",
		PartitionKeyFn: func(id int64) string { return fmt.Sprintf("member:%d", id) },
	},
	"member.deleted": {
		Topic:          "member_events",
		PartitionKeyFn: func(id int64) string { return fmt.Sprintf("member:%d", id) },
	},
	"session.recorded": {
		Topic:          "session_events",
		PartitionKeyFn: func(id int64) string { return fmt.Sprintf("session:%d", id) },
	},
}
