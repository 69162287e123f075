package model

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SolvedProblem is one row of a user's solved set. Membership is unique per
// (user, problem) by construction at the storage layer.
type SolvedProblem struct {
	ProblemID    string    `json:"problem_id"`
	SubmissionID string    `json:"submission_id"`
	SolvedAt     time.Time `json:"solved_at"`
}
