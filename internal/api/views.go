package api

import (
	"example.com/gym/internal/domain"
	"example.com/gym/internal/schema"
)

// MemberView is the wire representation of a member. Field order is fixed.
type MemberView struct {
	MemberID int64  `json:"member_id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
}

// SessionView is the wire representation of a workout session. Dates encode
// as YYYY-MM-DD.
type SessionView struct {
	SessionID       int64       `json:"session_id"`
	MemberID        int64       `json:"member_id"`
	Date            domain.Date `json:"date"`
	DurationMinutes int         `json:"duration_minutes"`
	CaloriesBurned  int         `json:"calories_burned"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type memberResponse struct {
	Message string     `json:"message"`
	Member  MemberView `json:"member"`
}

type sessionResponse struct {
	Message string      `json:"message"`
	Session SessionView `json:"session"`
}

type validationResponse struct {
	Type   string             `json:"type"`
	Errors schema.FieldErrors `json:"errors"`
}

func toMemberView(m domain.Member) MemberView {
	return MemberView{MemberID: m.ID, Name: m.Name, Age: m.Age}
}

func toSessionView(s domain.WorkoutSession) SessionView {
	return SessionView{
		SessionID:       s.ID,
		MemberID:        s.MemberID,
		Date:            s.Date,
		DurationMinutes: s.DurationMinutes,
		CaloriesBurned:  s.CaloriesBurned,
	}
}
