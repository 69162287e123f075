package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/HarshSoni1801/NullByte/internal/common"
	"github.com/HarshSoni1801/NullByte/internal/domain/model"
)

type SubmissionRepository interface {
	// CreateSubmission persists the pending record before any dispatch, so
	// an orchestration that dies mid-flight still leaves an auditable row.
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	// UpdateSubmissionResult writes the aggregated terminal fields. Called
	// exactly once per submission.
	UpdateSubmissionResult(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	ListSubmissionsForUserProblem(ctx context.Context, userID, problemID string, limit, offset int) ([]model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, s *model.Submission) error {
	query := `INSERT INTO submissions
	          (id, user_id, problem_id, language, code, status, test_cases_total)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.ProblemID, s.Language.String(), s.Code, s.Status, s.TestCasesTotal)
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) UpdateSubmissionResult(ctx context.Context, tx *sql.Tx, s *model.Submission) error {
	query := `UPDATE submissions SET
	            status = $1, runtime_ms = $2, memory_kb = $3,
	            test_cases_passed = $4, error_message = $5,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $6`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, s.Status, s.RuntimeMs, s.MemoryKb, s.TestCasesPassed, s.ErrorMessage, s.ID)
	} else {
		_, err = r.db.ExecContext(ctx, query, s.Status, s.RuntimeMs, s.MemoryKb, s.TestCasesPassed, s.ErrorMessage, s.ID)
	}
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateSubmissionResult: %w", err)
	}
	return nil
}

const submissionColumns = `id, user_id, problem_id, language, code, status, runtime_ms,
       memory_kb, test_cases_passed, test_cases_total, error_message, submitted_at, updated_at`

func scanSubmission(scan func(dest ...interface{}) error) (*model.Submission, error) {
	s := &model.Submission{}
	var lang string
	err := scan(
		&s.ID, &s.UserID, &s.ProblemID, &lang, &s.Code, &s.Status, &s.RuntimeMs,
		&s.MemoryKb, &s.TestCasesPassed, &s.TestCasesTotal, &s.ErrorMessage, &s.SubmittedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Language = model.Language(lang)
	return s, nil
}

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) ListSubmissionsForUserProblem(ctx context.Context, userID, problemID string, limit, offset int) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + `
	          FROM submissions WHERE user_id = $1 AND problem_id = $2
	          ORDER BY submitted_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.QueryContext(ctx, query, userID, problemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem query: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem scan: %w", err)
		}
		subs = append(subs, *s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListSubmissionsForUserProblem rows: %w", err)
	}
	return subs, nil
}
