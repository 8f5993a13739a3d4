//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/gym/internal/domain"
)

func TestRepositoryCRUDAndCascade(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	// Create and list.
	alice, err := repo.CreateMember(ctx, "Alice", 30)
	require.NoError(t, err)
	require.NotZero(t, alice.ID)

	bob, err := repo.CreateMember(ctx, "Bob", 41)
	require.NoError(t, err)
	require.NotEqual(t, alice.ID, bob.ID)

	members, err := repo.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, "Alice", members[0].Name)
	require.Equal(t, 30, members[0].Age)

	// Update overwrites mutable fields only.
	updated, err := repo.UpdateMember(ctx, alice.ID, "Alice B", 31)
	require.NoError(t, err)
	require.Equal(t, alice.ID, updated.ID)
	require.Equal(t, "Alice B", updated.Name)

	// Sessions round-trip through the DATE column.
	day, err := domain.ParseDate("2024-01-01")
	require.NoError(t, err)

	first, err := repo.CreateSession(ctx, alice.ID, day, 30, 200)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := repo.CreateSession(ctx, alice.ID, day, 45, 350)
	require.NoError(t, err)

	sessions, err := repo.ListSessionsForMember(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, []int64{first.ID, second.ID}, []int64{sessions[0].ID, sessions[1].ID})
	require.Equal(t, "2024-01-01", sessions[0].Date.String())
	require.Equal(t, 30, sessions[0].DurationMinutes)
	require.Equal(t, 200, sessions[0].CaloriesBurned)

	// A member with no sessions lists empty, not not-found.
	none, err := repo.ListSessionsForMember(ctx, bob.ID)
	require.NoError(t, err)
	require.Empty(t, none)

	// Cascade delete removes the member's sessions in the same transaction.
	require.NoError(t, repo.DeleteMember(ctx, alice.ID))

	_, err = repo.ListSessionsForMember(ctx, alice.ID)
	require.ErrorIs(t, err, domain.ErrMemberNotFound)

	var orphans int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM workout_sessions WHERE member_id=$1`, alice.ID).Scan(&orphans))
	require.Zero(t, orphans, "cascade delete must leave no orphan sessions")

	_, err = repo.UpdateSession(ctx, first.ID, day, 10, 10)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	day, err := domain.ParseDate("2024-01-01")
	require.NoError(t, err)

	_, err = repo.UpdateMember(ctx, 9999, "Nobody", 1)
	require.ErrorIs(t, err, domain.ErrMemberNotFound)

	require.ErrorIs(t, repo.DeleteMember(ctx, 9999), domain.ErrMemberNotFound)

	_, err = repo.CreateSession(ctx, 9999, day, 30, 200)
	require.ErrorIs(t, err, domain.ErrMemberNotFound)

	_, err = repo.ListSessionsForMember(ctx, 9999)
	require.ErrorIs(t, err, domain.ErrMemberNotFound)

	_, err = repo.UpdateSession(ctx, 9999, day, 30, 200)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.ErrorIs(t, repo.DeleteSession(ctx, 9999), domain.ErrSessionNotFound)
}

func TestRepositoryWritesOutboxRows(t *testing.T) {
	ctx := context.Background()
	pool := startDatabase(t, ctx)
	repo := NewRepository(pool)

	member, err := repo.CreateMember(ctx, "Eve", 27)
	require.NoError(t, err)

	day, err := domain.ParseDate("2024-02-02")
	require.NoError(t, err)
	_, err = repo.CreateSession(ctx, member.ID, day, 20, 150)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteMember(ctx, member.ID))

	var types []string
	rows, err := pool.Query(ctx, `SELECT event_type FROM outbox ORDER BY event_id`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var et string
		require.NoError(t, rows.Scan(&et))
		types = append(types, et)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"member.created", "session.recorded", "member.deleted"}, types)
}

func startDatabase(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("fitness_db"),
		postgrescontainer.WithUsername("gym"),
		postgrescontainer.WithPassword("gym"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	t.Helper()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	contents, err := os.ReadFile(resolvePath(t, "../../../db/migrations/0001_init.up.sql"))
	require.NoError(t, err)

	_, err = pool.Exec(ctx, string(contents))
	require.NoError(t, err)
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			if err == nil {
				err = errors.New("database not ready")
			}
			return err
		}
		time.Sleep(time.Second)
	}
}
