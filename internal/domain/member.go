package domain

import "time"

// Member is the canonical membership record stored in PostgreSQL.
type Member struct {
	ID        int64
	Name      string
	Age       int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkoutSession is a single workout belonging to a member.
type WorkoutSession struct {
	ID              int64
	MemberID        int64
	Date            Date
	DurationMinutes int
	CaloriesBurned  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
