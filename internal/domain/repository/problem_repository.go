package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/HarshSoni1801/NullByte/internal/common"
	"github.com/HarshSoni1801/NullByte/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	UpdateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error)
	ListProblems(ctx context.Context, limit, offset int, difficulty model.ProblemDifficulty, tag string) ([]model.Problem, int, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

// The ordered case sequences and per-language code sets live in jsonb
// columns: ordering inside them is load-bearing (result aggregation is
// index-aligned) and jsonb arrays preserve it.
type problemDocs struct {
	visible   []byte
	hidden    []byte
	startCode []byte
	wrappers  []byte
	refSols   []byte
}

func marshalProblemDocs(p *model.Problem) (problemDocs, error) {
	var d problemDocs
	var err error
	if d.visible, err = json.Marshal(p.VisibleTestCases); err != nil {
		return d, fmt.Errorf("marshal visible test cases: %w", err)
	}
	if d.hidden, err = json.Marshal(p.HiddenTestCases); err != nil {
		return d, fmt.Errorf("marshal hidden test cases: %w", err)
	}
	if d.startCode, err = json.Marshal(p.StartCode); err != nil {
		return d, fmt.Errorf("marshal start code: %w", err)
	}
	if d.wrappers, err = json.Marshal(p.WrapperCode); err != nil {
		return d, fmt.Errorf("marshal wrapper code: %w", err)
	}
	if d.refSols, err = json.Marshal(p.ReferenceSols); err != nil {
		return d, fmt.Errorf("marshal reference solutions: %w", err)
	}
	return d, nil
}

func unmarshalProblemDocs(p *model.Problem, d problemDocs) error {
	if err := json.Unmarshal(d.visible, &p.VisibleTestCases); err != nil {
		return fmt.Errorf("unmarshal visible test cases: %w", err)
	}
	if err := json.Unmarshal(d.hidden, &p.HiddenTestCases); err != nil {
		return fmt.Errorf("unmarshal hidden test cases: %w", err)
	}
	if err := json.Unmarshal(d.startCode, &p.StartCode); err != nil {
		return fmt.Errorf("unmarshal start code: %w", err)
	}
	if err := json.Unmarshal(d.wrappers, &p.WrapperCode); err != nil {
		return fmt.Errorf("unmarshal wrapper code: %w", err)
	}
	if err := json.Unmarshal(d.refSols, &p.ReferenceSols); err != nil {
		return fmt.Errorf("unmarshal reference solutions: %w", err)
	}
	return nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	docs, err := marshalProblemDocs(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}

	query := `INSERT INTO problems
	          (id, title, slug, description, difficulty, tags,
	           visible_test_cases, hidden_test_cases, start_code,
	           judge_wrapper_code, reference_solutions, created_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if tx != nil {
		_, err = tx.ExecContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, p.Difficulty,
			joinTags(p.Tags), docs.visible, docs.hidden, docs.startCode, docs.wrappers, docs.refSols, p.CreatedByID)
	} else {
		_, err = r.db.ExecContext(ctx, query, p.ID, p.Title, p.Slug, p.Description, p.Difficulty,
			joinTags(p.Tags), docs.visible, docs.hidden, docs.startCode, docs.wrappers, docs.refSols, p.CreatedByID)
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // slug uniqueness
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) UpdateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	docs, err := marshalProblemDocs(p)
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateProblem: %w", err)
	}

	query := `UPDATE problems SET
	            title = $1, slug = $2, description = $3, difficulty = $4, tags = $5,
	            visible_test_cases = $6, hidden_test_cases = $7, start_code = $8,
	            judge_wrapper_code = $9, reference_solutions = $10,
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $11`

	var res sql.Result
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, p.Title, p.Slug, p.Description, p.Difficulty,
			joinTags(p.Tags), docs.visible, docs.hidden, docs.startCode, docs.wrappers, docs.refSols, p.ID)
	} else {
		res, err = r.db.ExecContext(ctx, query, p.Title, p.Slug, p.Description, p.Difficulty,
			joinTags(p.Tags), docs.visible, docs.hidden, docs.startCode, docs.wrappers, docs.refSols, p.ID)
	}
	if err != nil {
		return fmt.Errorf("pgProblemRepository.UpdateProblem: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}

const problemColumns = `id, title, slug, description, difficulty, tags,
       visible_test_cases, hidden_test_cases, start_code,
       judge_wrapper_code, reference_solutions, created_by, created_at, updated_at`

func (r *pgProblemRepository) scanProblem(row *sql.Row) (*model.Problem, error) {
	p := &model.Problem{}
	var d problemDocs
	var tags string
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty, &tags,
		&d.visible, &d.hidden, &d.startCode, &d.wrappers, &d.refSols,
		&p.CreatedByID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, err
	}
	p.Tags = splitTags(tags)
	if err := unmarshalProblemDocs(p, d); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE id = $1`
	p, err := r.scanProblem(r.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return p, err
}

func (r *pgProblemRepository) FindProblemBySlug(ctx context.Context, slug string) (*model.Problem, error) {
	query := `SELECT ` + problemColumns + ` FROM problems WHERE slug = $1`
	p, err := r.scanProblem(r.db.QueryRowContext(ctx, query, slug))
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("pgProblemRepository.FindProblemBySlug: %w", err)
	}
	return p, err
}

func (r *pgProblemRepository) ListProblems(ctx context.Context, limit, offset int, difficulty model.ProblemDifficulty, tag string) ([]model.Problem, int, error) {
	var conditions []string
	var args []interface{}
	argID := 1

	if difficulty != "" {
		conditions = append(conditions, fmt.Sprintf("difficulty = $%d", argID))
		args = append(args, difficulty)
		argID++
	}
	if tag != "" {
		conditions = append(conditions, fmt.Sprintf("tags ILIKE $%d", argID))
		args = append(args, "%"+tag+"%")
		argID++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM problems"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems count: %w", err)
	}

	// Listings omit the document columns; the list view only needs metadata.
	query := fmt.Sprintf(`SELECT id, title, slug, description, difficulty, tags, created_at, updated_at
	                      FROM problems%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argID, argID+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.Problem{}
	for rows.Next() {
		var p model.Problem
		var tags string
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Difficulty, &tags, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems scan: %w", err)
		}
		p.Tags = splitTags(tags)
		problems = append(problems, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgProblemRepository.ListProblems rows: %w", err)
	}
	return problems, total, nil
}
