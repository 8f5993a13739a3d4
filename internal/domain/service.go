// Package domain defines the business logic for the gym membership service.
package domain

import (
	"context"
	"errors"
)

var (
	// ErrMemberNotFound is returned when a member id references no stored member.
	ErrMemberNotFound = errors.New("member not found")
	// ErrSessionNotFound is returned when a workout session cannot be located.
	ErrSessionNotFound = errors.New("workout session not found")
)

// Store captures persistence operations for members and their workout
// sessions. Implementations must keep every session's member reference valid:
// session writes against a missing member fail with ErrMemberNotFound, and
// deleting a member removes its sessions in the same transaction.
type Store interface {
	ListMembers(ctx context.Context) ([]Member, error)
	CreateMember(ctx context.Context, name string, age int) (*Member, error)
	UpdateMember(ctx context.Context, memberID int64, name string, age int) (*Member, error)
	DeleteMember(ctx context.Context, memberID int64) error

	ListSessionsForMember(ctx context.Context, memberID int64) ([]WorkoutSession, error)
	CreateSession(ctx context.Context, memberID int64, date Date, durationMinutes, caloriesBurned int) (*WorkoutSession, error)
	UpdateSession(ctx context.Context, sessionID int64, date Date, durationMinutes, caloriesBurned int) (*WorkoutSession, error)
	DeleteSession(ctx context.Context, sessionID int64) error
}

// Service orchestrates member and session workflows over a Store.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListMembers returns all members ordered by id.
func (s *Service) ListMembers(ctx context.Context) ([]Member, error) {
	return s.store.ListMembers(ctx)
}

// CreateMember registers a new member and returns it with its assigned id.
func (s *Service) CreateMember(ctx context.Context, name string, age int) (*Member, error) {
	return s.store.CreateMember(ctx, name, age)
}

// UpdateMember overwrites a member's mutable fields. The identity never changes.
func (s *Service) UpdateMember(ctx context.Context, memberID int64, name string, age int) (*Member, error) {
	return s.store.UpdateMember(ctx, memberID, name, age)
}

// DeleteMember removes a member and, in the same transaction, every workout
// session that member owns.
func (s *Service) DeleteMember(ctx context.Context, memberID int64) error {
	return s.store.DeleteMember(ctx, memberID)
}

// ListSessionsForMember returns the member's sessions ordered by id. A missing
// member yields ErrMemberNotFound; a member with no sessions yields an empty
// slice.
func (s *Service) ListSessionsForMember(ctx context.Context, memberID int64) ([]WorkoutSession, error) {
	return s.store.ListSessionsForMember(ctx, memberID)
}

// CreateSession records a workout for an existing member.
func (s *Service) CreateSession(ctx context.Context, memberID int64, date Date, durationMinutes, caloriesBurned int) (*WorkoutSession, error) {
	return s.store.CreateSession(ctx, memberID, date, durationMinutes, caloriesBurned)
}

// UpdateSession overwrites a session's mutable fields.
func (s *Service) UpdateSession(ctx context.Context, sessionID int64, date Date, durationMinutes, caloriesBurned int) (*WorkoutSession, error) {
	return s.store.UpdateSession(ctx, sessionID, date, durationMinutes, caloriesBurned)
}

// DeleteSession removes a single workout session.
func (s *Service) DeleteSession(ctx context.Context, sessionID int64) error {
	return s.store.DeleteSession(ctx, sessionID)
}
