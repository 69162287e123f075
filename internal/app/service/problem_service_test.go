package service

import (
	"context"
	"errors"
	"testing"

	"github.com/HarshSoni1801/NullByte/internal/common"
	"github.com/HarshSoni1801/NullByte/internal/domain/model"
	"github.com/HarshSoni1801/NullByte/internal/judge"
)

func problemRequest() ProblemRequest {
	p := testProblem()
	return ProblemRequest{
		Title:            p.Title,
		Description:      p.Description,
		Difficulty:       p.Difficulty,
		Tags:             []string{"math"},
		VisibleTestCases: p.VisibleTestCases,
		HiddenTestCases:  p.HiddenTestCases,
		WrapperCode:      p.WrapperCode,
		ReferenceSols:    p.ReferenceSols,
	}
}

func newProblemService(t *testing.T, script *judgeScript, problems ...*model.Problem) (*ProblemService, *fakeProblemRepo) {
	t.Helper()
	repo := newFakeProblemRepo(problems...)
	svc := NewProblemService(repo, newValidator(t, script), nil, nil)
	return svc, repo
}

func TestCreateProblem(t *testing.T) {
	script := &judgeScript{grade: func(u judge.Unit) judge.Result {
		return judge.Result{Status: judge.Status{ID: 3}, Stdout: u.ExpectedOutput}
	}}
	svc, repo := newProblemService(t, script)

	p, err := svc.CreateProblem(context.Background(), "admin-1", problemRequest())
	if err != nil {
		t.Fatalf("CreateProblem() error = %v", err)
	}
	if p.ID == "" {
		t.Error("no id assigned")
	}
	if p.Slug != "sum-two-numbers" {
		t.Errorf("Slug = %q, want sum-two-numbers", p.Slug)
	}
	if p.CreatedByID != "admin-1" {
		t.Errorf("CreatedByID = %q", p.CreatedByID)
	}
	if repo.creates != 1 {
		t.Errorf("creates = %d, want 1", repo.creates)
	}
	if script.unitCount() != 4 {
		t.Errorf("validation dispatched %d units, want 4", script.unitCount())
	}
}

func TestCreateProblemRejectsBeforeDispatch(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ProblemRequest)
		wantErr error
	}{
		{"missing title", func(r *ProblemRequest) { r.Title = "" }, common.ErrBadRequest},
		{"no hidden cases", func(r *ProblemRequest) { r.HiddenTestCases = nil }, common.ErrValidation},
		{"no wrappers", func(r *ProblemRequest) { r.WrapperCode = nil }, common.ErrValidation},
		{"wrapper missing marker", func(r *ProblemRequest) {
			r.WrapperCode = []model.WrapperCode{{Language: "python", Code: "no substitution point"}}
		}, common.ErrValidation},
		{"wrapper for unknown language", func(r *ProblemRequest) {
			r.WrapperCode = append(r.WrapperCode, model.WrapperCode{Language: "brainfuck", Code: "{USER_CODE}"})
		}, common.ErrValidation},
		{"reference language without wrapper", func(r *ProblemRequest) {
			r.ReferenceSols = append(r.ReferenceSols, model.ReferenceSolution{Language: "java", Code: "class Main {}"})
		}, common.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := &judgeScript{grade: accept("")}
			svc, repo := newProblemService(t, script)

			req := problemRequest()
			tt.mutate(&req)
			_, err := svc.CreateProblem(context.Background(), "admin-1", req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if script.submits != 0 {
				t.Error("invalid authoring input must be rejected before any dispatch")
			}
			if repo.creates != 0 {
				t.Error("nothing may be persisted on rejection")
			}
		})
	}
}

func TestCreateProblemValidationFailureIsAtomic(t *testing.T) {
	script := &judgeScript{grade: func(u judge.Unit) judge.Result {
		return judge.Result{Status: judge.Status{ID: 4, Description: "Wrong Answer"}, Stdout: "nope"}
	}}
	svc, repo := newProblemService(t, script)

	_, err := svc.CreateProblem(context.Background(), "admin-1", problemRequest())
	var vf *ValidationFailedError
	if !errors.As(err, &vf) {
		t.Fatalf("error = %v, want *ValidationFailedError", err)
	}
	if repo.creates != 0 {
		t.Error("a problem whose reference solution fails must not be persisted")
	}
}

func TestUpdateProblemValidationFailureIsAtomic(t *testing.T) {
	existing := testProblem()
	script := &judgeScript{grade: func(u judge.Unit) judge.Result {
		return judge.Result{Status: judge.Status{ID: 4, Description: "Wrong Answer"}}
	}}
	svc, repo := newProblemService(t, script, existing)

	_, err := svc.UpdateProblem(context.Background(), existing.ID, problemRequest())
	var vf *ValidationFailedError
	if !errors.As(err, &vf) {
		t.Fatalf("error = %v, want *ValidationFailedError", err)
	}
	if repo.updates != 0 {
		t.Error("the stored problem must be untouched when re-validation fails")
	}
}

func TestUpdateProblemKeepsIdentity(t *testing.T) {
	existing := testProblem()
	existing.CreatedByID = "original-author"
	script := &judgeScript{grade: func(u judge.Unit) judge.Result {
		return judge.Result{Status: judge.Status{ID: 3}, Stdout: u.ExpectedOutput}
	}}
	svc, repo := newProblemService(t, script, existing)

	req := problemRequest()
	req.Title = "Sum Two Numbers II"
	updated, err := svc.UpdateProblem(context.Background(), existing.ID, req)
	if err != nil {
		t.Fatalf("UpdateProblem() error = %v", err)
	}
	if updated.ID != existing.ID {
		t.Errorf("ID changed on update: %q", updated.ID)
	}
	if updated.CreatedByID != "original-author" {
		t.Errorf("CreatedByID = %q, authorship must survive updates", updated.CreatedByID)
	}
	if updated.Slug != "sum-two-numbers-ii" {
		t.Errorf("Slug = %q, want regenerated slug", updated.Slug)
	}
	if repo.updates != 1 {
		t.Errorf("updates = %d, want 1", repo.updates)
	}
}

func TestGetProblemSanitizesForUsers(t *testing.T) {
	existing := testProblem()
	svc, _ := newProblemService(t, &judgeScript{grade: accept("")}, existing)

	p, err := svc.GetProblem(context.Background(), existing.ID, model.RoleUser)
	if err != nil {
		t.Fatalf("GetProblem() error = %v", err)
	}
	if p.HiddenTestCases != nil || p.WrapperCode != nil || p.ReferenceSols != nil {
		t.Error("grading content leaked to a non-admin caller")
	}
	if len(p.VisibleTestCases) != 1 {
		t.Error("visible cases must survive sanitization")
	}

	admin, err := svc.GetProblem(context.Background(), existing.ID, model.RoleAdmin)
	if err != nil {
		t.Fatalf("GetProblem() admin error = %v", err)
	}
	if len(admin.HiddenTestCases) == 0 || len(admin.WrapperCode) == 0 {
		t.Error("admin read must include grading content")
	}
}
