package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/HarshSoni1801/NullByte/internal/common"
	"github.com/HarshSoni1801/NullByte/internal/domain/model"
	"github.com/HarshSoni1801/NullByte/internal/domain/repository"
	"github.com/HarshSoni1801/NullByte/internal/judge"
	"github.com/HarshSoni1801/NullByte/internal/platform/cache"
	"github.com/HarshSoni1801/NullByte/internal/platform/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitStage identifies how far a submission orchestration got before it
// failed. A record exists from the moment dispatch is attempted, so
// callers need to know whether the judge ever received the batch.
type SubmitStage string

const (
	StageDispatch SubmitStage = "dispatch"
	StagePoll     SubmitStage = "poll"
	StagePersist  SubmitStage = "persist"
)

// SubmitError wraps a failure after the pending record was created. The
// record is intentionally left Pending for audit; Stage tells the caller
// whether the batch was ever dispatched.
type SubmitError struct {
	Stage        SubmitStage
	SubmissionID string
	Err          error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submission %s failed at %s: %v", e.SubmissionID, e.Stage, e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	userRepo       repository.UserRepository
	judge          *judge.Client
	policy         judge.Policy
	problemCache   *cache.ProblemCache
	db             *sql.DB
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	userRepo repository.UserRepository,
	judgeClient *judge.Client,
	policy judge.Policy,
	problemCache *cache.ProblemCache,
	db *sql.DB,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		userRepo:       userRepo,
		judge:          judgeClient,
		policy:         policy,
		problemCache:   problemCache,
		db:             db,
	}
}

type SubmitRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// SubmitResult is the durable record plus the ephemeral per-case breakdown
// for UI display; the breakdown is never persisted.
type SubmitResult struct {
	Submission *model.Submission      `json:"submission"`
	TestCases  []model.TestCaseResult `json:"test_cases"`
}

// SubmitCode grades a submission against the problem's hidden test cases
// and persists the outcome.
func (s *SubmissionService) SubmitCode(ctx context.Context, userID, problemID string, req SubmitRequest) (*SubmitResult, error) {
	if userID == "" || problemID == "" || req.Code == "" || req.Language == "" {
		return nil, common.Errorf("all fields are required during submission: %w", common.ErrBadRequest)
	}

	lang, err := model.ParseLanguage(req.Language)
	if err != nil {
		return nil, common.Errorf("%v: %w", err, common.ErrBadRequest)
	}

	problem, err := s.loadProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if len(problem.HiddenTestCases) == 0 {
		return nil, common.Errorf("problem %s has no hidden test cases: %w", problemID, common.ErrValidation)
	}

	wrapper, ok := problem.WrapperFor(lang)
	if !ok {
		return nil, common.Errorf("no wrapper code found for language %s: %w", lang, common.ErrBadRequest)
	}
	fullCode, err := judge.ComposeSource(req.Code, wrapper.Code)
	if err != nil {
		return nil, common.Errorf("%v: %w", err, common.ErrValidation)
	}

	// The pending record exists before any external call: a crash
	// mid-flight still leaves an auditable row.
	submission := &model.Submission{
		ID:             uuid.NewString(),
		UserID:         userID,
		ProblemID:      problem.ID,
		Language:       lang,
		Code:           req.Code, // original source; the wrapper is never stored
		Status:         model.StatusPending,
		TestCasesTotal: len(problem.HiddenTestCases),
	}
	if err := s.submissionRepo.CreateSubmission(ctx, submission); err != nil {
		return nil, common.Errorf("failed to create submission: %w", err)
	}

	units := make([]judge.Unit, len(problem.HiddenTestCases))
	for i, tc := range problem.HiddenTestCases {
		units[i] = judge.Unit{
			SourceCode:     fullCode,
			LanguageID:     lang.JudgeID(),
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}

	tokens, err := s.judge.SubmitBatch(ctx, units, s.policy)
	if err != nil {
		logger.L().Error("submission dispatch failed",
			zap.String("submission_id", submission.ID), zap.Error(err))
		return nil, &SubmitError{Stage: StageDispatch, SubmissionID: submission.ID, Err: judgeErr(err)}
	}

	results, err := s.judge.AwaitBatch(ctx, tokens, s.policy)
	if err != nil {
		logger.L().Error("submission polling failed",
			zap.String("submission_id", submission.ID), zap.Error(err))
		return nil, &SubmitError{Stage: StagePoll, SubmissionID: submission.ID, Err: judgeErr(err)}
	}

	details := aggregateVerdicts(submission, problem.HiddenTestCases, results)

	if err := s.persistOutcome(ctx, submission); err != nil {
		return nil, &SubmitError{Stage: StagePersist, SubmissionID: submission.ID, Err: err}
	}

	logger.L().Info("submission graded",
		zap.String("submission_id", submission.ID),
		zap.String("problem_id", problem.ID),
		zap.String("status", string(submission.Status)),
		zap.Int("passed", submission.TestCasesPassed),
		zap.Int("total", submission.TestCasesTotal))

	return &SubmitResult{Submission: submission, TestCases: details}, nil
}

// persistOutcome writes the graded result and, on acceptance, records the
// problem in the user's solved set. Both writes share one transaction when
// a database handle is present; the repositories accept a nil tx otherwise.
func (s *SubmissionService) persistOutcome(ctx context.Context, sub *model.Submission) error {
	var tx *sql.Tx
	if s.db != nil {
		var err error
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()
	}

	if err := s.submissionRepo.UpdateSubmissionResult(ctx, tx, sub); err != nil {
		return err
	}
	if sub.Status == model.StatusAccepted {
		if err := s.userRepo.MarkProblemSolved(ctx, tx, sub.UserID, sub.ProblemID, sub.ID); err != nil {
			return err
		}
	}
	if tx != nil {
		return tx.Commit()
	}
	return nil
}

// aggregateVerdicts folds per-case results into the submission in test-case
// order. The overall status is the verdict of the FIRST non-accepted case;
// later failures of a different kind never override it. Runtime is the sum
// over passed cases, memory the peak over passed cases.
func aggregateVerdicts(sub *model.Submission, cases []model.HiddenTestCase, results []judge.Result) []model.TestCaseResult {
	sub.Status = model.StatusAccepted

	var runtimeSeconds float64
	details := make([]model.TestCaseResult, len(results))

	for i, res := range results {
		verdict := model.VerdictForStatus(res.Status.ID)
		passed := verdict == model.StatusAccepted

		if passed {
			sub.TestCasesPassed++
			runtimeSeconds += res.TimeSeconds()
			if res.Memory > sub.MemoryKb {
				sub.MemoryKb = res.Memory
			}
		} else if sub.Status == model.StatusAccepted {
			sub.Status = verdict
			sub.ErrorMessage = res.Diagnostic()
			if sub.ErrorMessage == "" {
				sub.ErrorMessage = "Error occurred"
			}
		}

		details[i] = model.TestCaseResult{
			Input:          cases[i].Input,
			ExpectedOutput: cases[i].ExpectedOutput,
			ActualOutput:   res.Stdout,
			Error:          res.Diagnostic(),
			Passed:         passed,
			RuntimeMs:      res.TimeSeconds() * 1000,
			MemoryKb:       res.Memory,
		}
	}

	sub.RuntimeMs = int(math.Round(runtimeSeconds * 1000))
	return details
}

// RunCode executes a solution against the problem's visible test cases and
// returns the raw judge results, index-aligned with the cases. Nothing is
// persisted; the raw stdout/stderr reaches the UI unmodified.
func (s *SubmissionService) RunCode(ctx context.Context, userID, problemID string, req SubmitRequest) ([]judge.Result, error) {
	if userID == "" || problemID == "" || req.Code == "" || req.Language == "" {
		return nil, common.Errorf("all fields are required during code run: %w", common.ErrBadRequest)
	}

	lang, err := model.ParseLanguage(req.Language)
	if err != nil {
		return nil, common.Errorf("%v: %w", err, common.ErrBadRequest)
	}

	problem, err := s.loadProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if len(problem.VisibleTestCases) == 0 {
		return nil, common.Errorf("problem %s has no visible test cases: %w", problemID, common.ErrValidation)
	}

	wrapper, ok := problem.WrapperFor(lang)
	if !ok {
		return nil, common.Errorf("no wrapper code found for language %s: %w", lang, common.ErrBadRequest)
	}
	fullCode, err := judge.ComposeSource(req.Code, wrapper.Code)
	if err != nil {
		return nil, common.Errorf("%v: %w", err, common.ErrValidation)
	}

	units := make([]judge.Unit, len(problem.VisibleTestCases))
	for i, tc := range problem.VisibleTestCases {
		units[i] = judge.Unit{
			SourceCode:     fullCode,
			LanguageID:     lang.JudgeID(),
			Stdin:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
		}
	}

	tokens, err := s.judge.SubmitBatch(ctx, units, s.policy)
	if err != nil {
		return nil, judgeErr(err)
	}
	results, err := s.judge.AwaitBatch(ctx, tokens, s.policy)
	if err != nil {
		return nil, judgeErr(err)
	}

	logger.L().Info("run completed",
		zap.String("problem_id", problem.ID),
		zap.Int("cases", len(results)))
	return results, nil
}

func (s *SubmissionService) GetSubmission(ctx context.Context, userID, submissionID string) (*model.Submission, error) {
	sub, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, common.ErrForbidden
	}
	return sub, nil
}

func (s *SubmissionService) ListSubmissions(ctx context.Context, userID, problemID string, limit, offset int) ([]model.Submission, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.submissionRepo.ListSubmissionsForUserProblem(ctx, userID, problemID, limit, offset)
}

func (s *SubmissionService) loadProblem(ctx context.Context, problemID string) (*model.Problem, error) {
	if s.problemCache != nil {
		if p := s.problemCache.Get(ctx, problemID); p != nil {
			return p, nil
		}
	}
	p, err := s.problemRepo.FindProblemByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("problem not found: %w", common.ErrNotFound)
		}
		return nil, err
	}
	if s.problemCache != nil {
		s.problemCache.Set(ctx, p)
	}
	return p, nil
}

// judgeErr maps transport-level failures onto the caller-facing taxonomy.
func judgeErr(err error) error {
	if errors.Is(err, judge.ErrRateLimited) || errors.Is(err, judge.ErrPollTimeout) {
		return common.Errorf("%v: %w", err, common.ErrJudgeUnavailable)
	}
	return common.Errorf("judge service error: %v: %w", err, common.ErrJudgeUnavailable)
}
