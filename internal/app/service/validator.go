package service

import (
	"context"
	"fmt"

	"github.com/HarshSoni1801/NullByte/internal/common"
	"github.com/HarshSoni1801/NullByte/internal/domain/model"
	"github.com/HarshSoni1801/NullByte/internal/judge"
	"github.com/HarshSoni1801/NullByte/internal/platform/logger"

	"go.uber.org/zap"
)

const (
	TestTypeVisible = "visible"
	TestTypeHidden  = "hidden"
)

// CaseFailure describes one test case a reference solution did not pass.
// TestIndex is 1-based within its own type so authors can find the case in
// the form they submitted.
type CaseFailure struct {
	TestType  string `json:"test_type"`
	TestIndex int    `json:"test_index"`
	Input     string `json:"input"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
	Status    string `json:"status"`
	Error     string `json:"error"`
}

// LanguageValidation groups a language's failures.
type LanguageValidation struct {
	Language string        `json:"language"`
	Failures []CaseFailure `json:"failures"`
}

// ValidationFailedError carries the full multi-language breakdown. The
// problem create/update that triggered validation is rejected atomically.
type ValidationFailedError struct {
	Errors []LanguageValidation
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("reference solution validation failed for %d language(s)", len(e.Errors))
}

// ReferenceValidator checks every declared reference solution against the
// union of visible and hidden test cases before a problem may be
// published. It reuses the submission engine's dispatch/poll machinery
// with a slower, rate-limit-tolerant cadence.
type ReferenceValidator struct {
	judge  *judge.Client
	policy judge.Policy
}

func NewReferenceValidator(judgeClient *judge.Client, policy judge.Policy) *ReferenceValidator {
	return &ReferenceValidator{judge: judgeClient, policy: policy}
}

// Validate runs every reference solution against every test case. It
// returns *ValidationFailedError when any case fails, a taxonomy error for
// malformed authoring input, or a judge transport error.
func (v *ReferenceValidator) Validate(ctx context.Context, p *model.Problem) error {
	if len(p.ReferenceSols) == 0 {
		return common.Errorf("at least one reference solution is required: %w", common.ErrValidation)
	}
	total := len(p.VisibleTestCases) + len(p.HiddenTestCases)
	if total == 0 {
		return common.Errorf("problem has no test cases to validate against: %w", common.ErrValidation)
	}

	var validationErrors []LanguageValidation

	for _, ref := range p.ReferenceSols {
		if ref.Language == "" || ref.Code == "" {
			return common.Errorf("language and code are required for reference solution: %w", common.ErrValidation)
		}
		lang, err := model.ParseLanguage(ref.Language)
		if err != nil {
			return common.Errorf("invalid language for reference solution: %v: %w", err, common.ErrValidation)
		}
		wrapper, ok := p.WrapperFor(lang)
		if !ok {
			return common.Errorf("no wrapper code found for language %s: %w", ref.Language, common.ErrValidation)
		}
		fullCode, err := judge.ComposeSource(ref.Code, wrapper.Code)
		if err != nil {
			return common.Errorf("wrapper for %s: %v: %w", ref.Language, err, common.ErrValidation)
		}

		// Visible cases first, hidden after, index preserved so failures
		// can be classified by original position and type.
		units := make([]judge.Unit, 0, total)
		for _, tc := range p.VisibleTestCases {
			units = append(units, judge.Unit{
				SourceCode:     fullCode,
				LanguageID:     lang.JudgeID(),
				Stdin:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
			})
		}
		for _, tc := range p.HiddenTestCases {
			units = append(units, judge.Unit{
				SourceCode:     fullCode,
				LanguageID:     lang.JudgeID(),
				Stdin:          tc.Input,
				ExpectedOutput: tc.ExpectedOutput,
			})
		}

		logger.L().Info("validating reference solution",
			zap.String("language", string(lang)),
			zap.Int("cases", total))

		tokens, err := v.judge.SubmitBatch(ctx, units, v.policy)
		if err != nil {
			return judgeErr(err)
		}
		results, err := v.judge.AwaitBatch(ctx, tokens, v.policy)
		if err != nil {
			return judgeErr(err)
		}

		failures := v.collectFailures(p, units, results)
		if len(failures) > 0 {
			validationErrors = append(validationErrors, LanguageValidation{
				Language: ref.Language,
				Failures: failures,
			})
		}
	}

	if len(validationErrors) > 0 {
		return &ValidationFailedError{Errors: validationErrors}
	}
	return nil
}

// collectFailures keeps every case whose raw judge status is not 3
// (Accepted). Raw status equality, not the mapped verdict, is the
// acceptance criterion here: a reference solution stuck in a non-terminal
// state would otherwise slip through as "pending".
func (v *ReferenceValidator) collectFailures(p *model.Problem, units []judge.Unit, results []judge.Result) []CaseFailure {
	var failures []CaseFailure
	for i, res := range results {
		if res.Status.ID == 3 {
			continue
		}

		testType := TestTypeVisible
		testIndex := i + 1
		if i >= len(p.VisibleTestCases) {
			testType = TestTypeHidden
			testIndex = i - len(p.VisibleTestCases) + 1
		}

		input := res.Stdin
		if input == "" {
			input = units[i].Stdin
		}
		expected := res.ExpectedOutput
		if expected == "" {
			expected = units[i].ExpectedOutput
		}
		actual := res.Stdout
		if actual == "" {
			actual = "No output"
		}
		errDetail := res.Diagnostic()
		if errDetail == "" {
			errDetail = "No error details"
		}

		failures = append(failures, CaseFailure{
			TestType:  testType,
			TestIndex: testIndex,
			Input:     input,
			Expected:  expected,
			Actual:    actual,
			Status:    res.Status.Description,
			Error:     errDetail,
		})
	}
	return failures
}
