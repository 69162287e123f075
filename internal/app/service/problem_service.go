package service

import (
	"context"
	"database/sql"

	"github.com/HarshSoni1801/NullByte/internal/common"
	"github.com/HarshSoni1801/NullByte/internal/domain/model"
	"github.com/HarshSoni1801/NullByte/internal/domain/repository"
	"github.com/HarshSoni1801/NullByte/internal/judge"
	"github.com/HarshSoni1801/NullByte/internal/platform/cache"
	"github.com/HarshSoni1801/NullByte/internal/platform/logger"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type ProblemService struct {
	problemRepo  repository.ProblemRepository
	validator    *ReferenceValidator
	problemCache *cache.ProblemCache
	db           *sql.DB
}

func NewProblemService(
	problemRepo repository.ProblemRepository,
	validator *ReferenceValidator,
	problemCache *cache.ProblemCache,
	db *sql.DB,
) *ProblemService {
	return &ProblemService{
		problemRepo:  problemRepo,
		validator:    validator,
		problemCache: problemCache,
		db:           db,
	}
}

type ProblemRequest struct {
	Title            string                    `json:"title"`
	Description      string                    `json:"description"`
	Difficulty       model.ProblemDifficulty   `json:"difficulty"`
	Tags             []string                  `json:"tags"`
	VisibleTestCases []model.VisibleTestCase   `json:"visible_test_cases"`
	HiddenTestCases  []model.HiddenTestCase    `json:"hidden_test_cases"`
	StartCode        []model.StartCode         `json:"start_code"`
	WrapperCode      []model.WrapperCode       `json:"judge_wrapper_code"`
	ReferenceSols    []model.ReferenceSolution `json:"reference_solutions"`
}

// CreateProblem validates authoring invariants, proves every reference
// solution against every test case, and only then persists. Nothing is
// written when validation fails.
func (s *ProblemService) CreateProblem(ctx context.Context, userID string, req ProblemRequest) (*model.Problem, error) {
	problem := &model.Problem{
		ID:               uuid.NewString(),
		Title:            req.Title,
		Slug:             slug.Make(req.Title),
		Description:      req.Description,
		Difficulty:       req.Difficulty,
		Tags:             req.Tags,
		VisibleTestCases: req.VisibleTestCases,
		HiddenTestCases:  req.HiddenTestCases,
		StartCode:        req.StartCode,
		WrapperCode:      req.WrapperCode,
		ReferenceSols:    req.ReferenceSols,
		CreatedByID:      userID,
	}

	if err := s.checkAuthoringInvariants(problem); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(ctx, problem); err != nil {
		return nil, err
	}

	if err := s.problemRepo.CreateProblem(ctx, nil, problem); err != nil {
		return nil, common.Errorf("failed to create problem: %w", err)
	}

	logger.L().Info("problem created",
		zap.String("problem_id", problem.ID),
		zap.String("slug", problem.Slug))
	return problem, nil
}

// UpdateProblem replaces the problem's content and re-proves every
// reference solution before committing. The stored problem is untouched
// when validation fails.
func (s *ProblemService) UpdateProblem(ctx context.Context, problemID string, req ProblemRequest) (*model.Problem, error) {
	if problemID == "" {
		return nil, common.Errorf("problem ID is missing: %w", common.ErrBadRequest)
	}
	existing, err := s.problemRepo.FindProblemByID(ctx, problemID)
	if err != nil {
		return nil, err
	}

	updated := &model.Problem{
		ID:               existing.ID,
		Title:            req.Title,
		Slug:             slug.Make(req.Title),
		Description:      req.Description,
		Difficulty:       req.Difficulty,
		Tags:             req.Tags,
		VisibleTestCases: req.VisibleTestCases,
		HiddenTestCases:  req.HiddenTestCases,
		StartCode:        req.StartCode,
		WrapperCode:      req.WrapperCode,
		ReferenceSols:    req.ReferenceSols,
		CreatedByID:      existing.CreatedByID,
	}

	if err := s.checkAuthoringInvariants(updated); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(ctx, updated); err != nil {
		return nil, err
	}

	if err := s.problemRepo.UpdateProblem(ctx, nil, updated); err != nil {
		return nil, common.Errorf("failed to update problem: %w", err)
	}
	if s.problemCache != nil {
		s.problemCache.Invalidate(ctx, updated.ID)
	}

	logger.L().Info("problem updated", zap.String("problem_id", updated.ID))
	return updated, nil
}

// checkAuthoringInvariants rejects malformed problems before any dispatch:
// required fields, at least one hidden case, a marker in every wrapper,
// and a wrapper for every reference-solution language.
func (s *ProblemService) checkAuthoringInvariants(p *model.Problem) error {
	if p.Title == "" || p.Description == "" || p.Difficulty == "" {
		return common.Errorf("title, description and difficulty are required: %w", common.ErrBadRequest)
	}
	if len(p.HiddenTestCases) == 0 {
		return common.Errorf("at least one hidden test case is required: %w", common.ErrValidation)
	}
	if len(p.WrapperCode) == 0 {
		return common.Errorf("judge wrapper code is required: %w", common.ErrValidation)
	}

	for _, w := range p.WrapperCode {
		if _, err := model.ParseLanguage(w.Language); err != nil {
			return common.Errorf("wrapper: %v: %w", err, common.ErrValidation)
		}
		if !judge.HasMarker(w.Code) {
			return common.Errorf("wrapper for %s is missing the %s marker: %w",
				w.Language, judge.Marker, common.ErrValidation)
		}
	}

	for _, ref := range p.ReferenceSols {
		lang, err := model.ParseLanguage(ref.Language)
		if err != nil {
			return common.Errorf("reference solution: %v: %w", err, common.ErrValidation)
		}
		if _, ok := p.WrapperFor(lang); !ok {
			return common.Errorf("no wrapper code found for reference solution language %s: %w",
				ref.Language, common.ErrValidation)
		}
	}
	return nil
}

// GetProblem returns a problem by id. Grading-only content is stripped
// unless the caller is an admin.
func (s *ProblemService) GetProblem(ctx context.Context, problemID, userRole string) (*model.Problem, error) {
	var problem *model.Problem
	if s.problemCache != nil {
		problem = s.problemCache.Get(ctx, problemID)
	}
	if problem == nil {
		var err error
		problem, err = s.problemRepo.FindProblemByID(ctx, problemID)
		if err != nil {
			return nil, err
		}
		if s.problemCache != nil {
			s.problemCache.Set(ctx, problem)
		}
	}

	if userRole != model.RoleAdmin {
		// Copy before stripping so the cached entry stays complete.
		sanitized := *problem
		sanitized.Sanitize()
		return &sanitized, nil
	}
	return problem, nil
}

func (s *ProblemService) ListProblems(ctx context.Context, page, pageSize int, difficulty model.ProblemDifficulty, tag string) ([]model.Problem, int, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return s.problemRepo.ListProblems(ctx, pageSize, offset, difficulty, tag)
}
