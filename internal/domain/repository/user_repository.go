package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/HarshSoni1801/NullByte/internal/common"
	"github.com/HarshSoni1801/NullByte/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// MarkProblemSolved appends to the user's solved set. The set has
	// uniqueness per (user, problem) at the storage layer, so concurrent
	// accepted submissions cannot double-append.
	MarkProblemSolved(ctx context.Context, tx *sql.Tx, userID, problemID, submissionID string) error
	ListSolvedProblems(ctx context.Context, userID string) ([]model.SolvedProblem, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) Create(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (id, username, email, hashed_password, role)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Username, u.Email, u.HashedPassword, u.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("username or email already taken: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findBy(ctx, "id", id)
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findBy(ctx, "email", email)
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findBy(ctx, "username", username)
}

func (r *pgUserRepository) findBy(ctx context.Context, column, value string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT id, username, email, hashed_password, role, created_at, updated_at
	                      FROM users WHERE %s = $1`, column)
	u := &model.User{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&u.ID, &u.Username, &u.Email, &u.HashedPassword, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.findBy %s: %w", column, err)
	}
	return u, nil
}

func (r *pgUserRepository) MarkProblemSolved(ctx context.Context, tx *sql.Tx, userID, problemID, submissionID string) error {
	query := `INSERT INTO user_solved_problems (user_id, problem_id, submission_id)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, problem_id) DO NOTHING`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, userID, problemID, submissionID)
	} else {
		_, err = r.db.ExecContext(ctx, query, userID, problemID, submissionID)
	}
	if err != nil {
		return fmt.Errorf("pgUserRepository.MarkProblemSolved: %w", err)
	}
	return nil
}

func (r *pgUserRepository) ListSolvedProblems(ctx context.Context, userID string) ([]model.SolvedProblem, error) {
	query := `SELECT problem_id, submission_id, solved_at
	          FROM user_solved_problems WHERE user_id = $1 ORDER BY solved_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.ListSolvedProblems query: %w", err)
	}
	defer rows.Close()

	var solved []model.SolvedProblem
	for rows.Next() {
		var s model.SolvedProblem
		if err := rows.Scan(&s.ProblemID, &s.SubmissionID, &s.SolvedAt); err != nil {
			return nil, fmt.Errorf("pgUserRepository.ListSolvedProblems scan: %w", err)
		}
		solved = append(solved, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.ListSolvedProblems rows: %w", err)
	}
	return solved, nil
}
