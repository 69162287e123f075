package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HarshSoni1801/NullByte/internal/common"
	"github.com/HarshSoni1801/NullByte/internal/domain/model"
	"github.com/HarshSoni1801/NullByte/internal/judge"
)

func fastPolicy() judge.Policy {
	return judge.Policy{
		PollInterval:      time.Millisecond,
		MaxPollAttempts:   5,
		RateLimitCooldown: time.Millisecond,
		MaxRetries:        2,
	}
}

// judgeScript drives a stub judge server. Every dispatched unit is graded
// by the grade callback when its result is fetched; results are terminal
// on the first fetch unless the callback says otherwise.
type judgeScript struct {
	mu         sync.Mutex
	units      []judge.Unit
	grade      func(u judge.Unit) judge.Result
	failSubmit bool
	submits    int
}

func accept(stdout string) func(judge.Unit) judge.Result {
	return func(judge.Unit) judge.Result {
		return judge.Result{Status: judge.Status{ID: 3, Description: "Accepted"}, Stdout: stdout, Time: "0.01", Memory: 1024}
	}
}

func (s *judgeScript) unitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.units)
}

func newJudgeServer(t *testing.T, script *judgeScript) *judge.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		script.mu.Lock()
		defer script.mu.Unlock()

		switch r.Method {
		case http.MethodPost:
			if script.failSubmit {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
			var req struct {
				Submissions []judge.Unit `json:"submissions"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode batch: %v", err)
			}
			script.submits++
			base := len(script.units)
			script.units = append(script.units, req.Submissions...)
			tokens := make([]map[string]string, len(req.Submissions))
			for i := range req.Submissions {
				tokens[i] = map[string]string{"token": fmt.Sprintf("tok-%d", base+i)}
			}
			json.NewEncoder(w).Encode(tokens)

		case http.MethodGet:
			var results []judge.Result
			for _, tok := range strings.Split(r.URL.Query().Get("tokens"), ",") {
				idx, err := strconv.Atoi(strings.TrimPrefix(tok, "tok-"))
				if err != nil || idx >= len(script.units) {
					t.Fatalf("unknown token %q", tok)
				}
				res := script.grade(script.units[idx])
				res.Token = tok
				results = append(results, res)
			}
			json.NewEncoder(w).Encode(map[string][]judge.Result{"submissions": results})
		}
	}))
	t.Cleanup(srv.Close)
	return judge.NewClient(srv.URL, "test-key", "test-host")
}

type fakeSubmissionRepo struct {
	created map[string]*model.Submission
	updated []*model.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{created: make(map[string]*model.Submission)}
}

func (r *fakeSubmissionRepo) CreateSubmission(_ context.Context, sub *model.Submission) error {
	cp := *sub
	r.created[sub.ID] = &cp
	return nil
}

func (r *fakeSubmissionRepo) UpdateSubmissionResult(_ context.Context, _ *sql.Tx, sub *model.Submission) error {
	cp := *sub
	r.created[sub.ID] = &cp
	r.updated = append(r.updated, &cp)
	return nil
}

func (r *fakeSubmissionRepo) GetSubmissionByID(_ context.Context, id string) (*model.Submission, error) {
	sub, ok := r.created[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return sub, nil
}

func (r *fakeSubmissionRepo) ListSubmissionsForUserProblem(_ context.Context, userID, problemID string, limit, offset int) ([]model.Submission, error) {
	var out []model.Submission
	for _, s := range r.created {
		if s.UserID == userID && s.ProblemID == problemID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type fakeProblemRepo struct {
	problems map[string]*model.Problem
	creates  int
	updates  int
}

func newFakeProblemRepo(problems ...*model.Problem) *fakeProblemRepo {
	r := &fakeProblemRepo{problems: make(map[string]*model.Problem)}
	for _, p := range problems {
		r.problems[p.ID] = p
	}
	return r
}

func (r *fakeProblemRepo) CreateProblem(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	r.creates++
	r.problems[p.ID] = p
	return nil
}

func (r *fakeProblemRepo) UpdateProblem(_ context.Context, _ *sql.Tx, p *model.Problem) error {
	r.updates++
	r.problems[p.ID] = p
	return nil
}

func (r *fakeProblemRepo) FindProblemByID(_ context.Context, id string) (*model.Problem, error) {
	p, ok := r.problems[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProblemRepo) FindProblemBySlug(_ context.Context, slug string) (*model.Problem, error) {
	for _, p := range r.problems {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeProblemRepo) ListProblems(_ context.Context, limit, offset int, difficulty model.ProblemDifficulty, tag string) ([]model.Problem, int, error) {
	var out []model.Problem
	for _, p := range r.problems {
		out = append(out, *p)
	}
	return out, len(out), nil
}

type fakeUserRepo struct {
	users  map[string]*model.User
	solved map[string]string // userID|problemID -> submissionID
	marks  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*model.User),
		solved: make(map[string]string),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email || u.Username == user.Username {
			return common.ErrConflict
		}
	}
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) MarkProblemSolved(_ context.Context, _ *sql.Tx, userID, problemID, submissionID string) error {
	r.marks++
	key := userID + "|" + problemID
	if _, ok := r.solved[key]; ok {
		return nil // set semantics, duplicate insert is a no-op
	}
	r.solved[key] = submissionID
	return nil
}

func (r *fakeUserRepo) ListSolvedProblems(_ context.Context, userID string) ([]model.SolvedProblem, error) {
	var out []model.SolvedProblem
	for key, subID := range r.solved {
		if strings.HasPrefix(key, userID+"|") {
			out = append(out, model.SolvedProblem{
				ProblemID:    strings.TrimPrefix(key, userID+"|"),
				SubmissionID: subID,
			})
		}
	}
	return out, nil
}

const pyWrapper = "import sys\n{USER_CODE}\nmain()"

func testProblem() *model.Problem {
	return &model.Problem{
		ID:          "prob-1",
		Title:       "Sum Two Numbers",
		Slug:        "sum-two-numbers",
		Description: "Read two integers, print their sum.",
		Difficulty:  model.DifficultyEasy,
		VisibleTestCases: []model.VisibleTestCase{
			{Input: "1 2", ExpectedOutput: "3"},
		},
		HiddenTestCases: []model.HiddenTestCase{
			{Input: "10 20", ExpectedOutput: "30"},
			{Input: "0 0", ExpectedOutput: "0"},
			{Input: "-5 5", ExpectedOutput: "0"},
		},
		WrapperCode: []model.WrapperCode{
			{Language: "python", Code: pyWrapper},
		},
		ReferenceSols: []model.ReferenceSolution{
			{Language: "python", Code: "def main(): pass"},
		},
	}
}
