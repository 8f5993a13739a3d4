// Package events defines the lifecycle event payloads published to Kafka.
package events

import "time"

// MemberCreated is emitted when a new member is registered.
type MemberCreated struct {
	MemberID   int64     `json:"member_id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MemberDeleted is emitted when a member and their sessions are removed.
type MemberDeleted struct {
	MemberID        int64     `json:"member_id"`
	SessionsRemoved int64     `json:"sessions_removed"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// SessionRecorded is emitted when a workout session is stored for a member.
type SessionRecorded struct {
	SessionID       int64     `json:"session_id"`
	MemberID        int64     `json:"member_id"`
	Date            string    `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	CaloriesBurned  int       `json:"calories_burned"`
	OccurredAt      time.Time `json:"occurred_at"`
}
