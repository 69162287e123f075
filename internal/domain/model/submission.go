package model

import "time"

type SubmissionStatus string

const (
	StatusPending           SubmissionStatus = "Pending"
	StatusAccepted          SubmissionStatus = "Accepted"
	StatusWrongAnswer       SubmissionStatus = "WrongAnswer"
	StatusTimeLimitExceeded SubmissionStatus = "TimeLimitExceeded"
	StatusCompilationError  SubmissionStatus = "CompilationError"
	StatusRuntimeError      SubmissionStatus = "RuntimeError"
)

// VerdictForStatus maps a Judge0 status id onto the platform's verdict
// vocabulary. Total over all ints: unrecognized codes fall back to
// RuntimeError rather than failing.
func VerdictForStatus(statusID int) SubmissionStatus {
	switch statusID {
	case 1, 2:
		return StatusPending
	case 3:
		return StatusAccepted
	case 4:
		return StatusWrongAnswer
	case 5:
		return StatusTimeLimitExceeded
	case 6:
		return StatusCompilationError
	default: // 7-12 and anything the service invents later
		return StatusRuntimeError
	}
}

type Submission struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	ProblemID       string           `json:"problem_id"`
	Language        Language         `json:"language"`
	Code            string           `json:"code"`
	Status          SubmissionStatus `json:"status"`
	RuntimeMs       int              `json:"runtime_ms"`
	MemoryKb        int              `json:"memory_kb"`
	TestCasesPassed int              `json:"test_cases_passed"`
	TestCasesTotal  int              `json:"test_cases_total"`
	ErrorMessage    string           `json:"error_message"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// TestCaseResult is the ephemeral per-case detail returned alongside a
// graded submission for UI display. It is never persisted.
type TestCaseResult struct {
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expected_output"`
	ActualOutput   string  `json:"actual_output"`
	Error          string  `json:"error"`
	Passed         bool    `json:"passed"`
	RuntimeMs      float64 `json:"runtime_ms"`
	MemoryKb       int     `json:"memory_kb"`
}
