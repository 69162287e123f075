package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

// VisibleTestCase is shown to users and drives the ephemeral run path.
type VisibleTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Explanation    string `json:"explanation,omitempty"`
}

// HiddenTestCase drives submission grading and is never exposed to users.
type HiddenTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// WrapperCode is the per-language judge harness. It must contain the
// substitution marker exactly where the solution is spliced in.
type WrapperCode struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// ReferenceSolution is an author-supplied correct solution, validated
// against every test case before the problem is published.
type ReferenceSolution struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// StartCode is the editor boilerplate shown to users per language.
type StartCode struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type Problem struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Slug             string              `json:"slug"`
	Description      string              `json:"description"`
	Difficulty       ProblemDifficulty   `json:"difficulty"`
	Tags             []string            `json:"tags,omitempty"`
	VisibleTestCases []VisibleTestCase   `json:"visible_test_cases,omitempty"`
	HiddenTestCases  []HiddenTestCase    `json:"hidden_test_cases,omitempty"`
	StartCode        []StartCode         `json:"start_code,omitempty"`
	WrapperCode      []WrapperCode       `json:"judge_wrapper_code,omitempty"`
	ReferenceSols    []ReferenceSolution `json:"reference_solutions,omitempty"`
	CreatedByID      string              `json:"created_by_id,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// WrapperFor returns the judge harness for a language. Wrapper entries are
// author-typed strings, so matching is case-insensitive like language
// resolution.
func (p *Problem) WrapperFor(lang Language) (WrapperCode, bool) {
	for _, w := range p.WrapperCode {
		if parsed, err := ParseLanguage(w.Language); err == nil && parsed == lang {
			return w, true
		}
	}
	return WrapperCode{}, false
}

// Sanitize strips grading-only content before the problem is returned to a
// non-admin caller.
func (p *Problem) Sanitize() {
	p.HiddenTestCases = nil
	p.WrapperCode = nil
	p.ReferenceSols = nil
}
