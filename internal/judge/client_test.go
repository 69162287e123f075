package judge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fastPolicy keeps retry and poll waits negligible in tests.
func fastPolicy() Policy {
	return Policy{
		PollInterval:      time.Millisecond,
		MaxPollAttempts:   5,
		RateLimitCooldown: time.Millisecond,
		MaxRetries:        3,
	}
}

func testUnits(n int) []Unit {
	units := make([]Unit, n)
	for i := range units {
		units[i] = Unit{SourceCode: "print(1)", LanguageID: 71, Stdin: "in", ExpectedOutput: "out"}
	}
	return units
}

func TestSubmitBatch(t *testing.T) {
	var gotReq batchSubmitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/submissions/batch" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("base64_encoded") != "false" {
			t.Errorf("base64_encoded = %q, want false", r.URL.Query().Get("base64_encoded"))
		}
		if r.Header.Get("x-rapidapi-key") != "test-key" {
			t.Errorf("x-rapidapi-key = %q", r.Header.Get("x-rapidapi-key"))
		}
		if r.Header.Get("x-rapidapi-host") != "test-host" {
			t.Errorf("x-rapidapi-host = %q", r.Header.Get("x-rapidapi-host"))
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode([]batchSubmitResponse{{Token: "t0"}, {Token: "t1"}, {Token: "t2"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", "test-host")
	tokens, err := c.SubmitBatch(context.Background(), testUnits(3), fastPolicy())
	if err != nil {
		t.Fatalf("SubmitBatch() error = %v", err)
	}
	want := []string{"t0", "t1", "t2"}
	for i, tok := range tokens {
		if tok != want[i] {
			t.Errorf("tokens[%d] = %q, want %q", i, tok, want[i])
		}
	}
	if len(gotReq.Submissions) != 3 {
		t.Fatalf("server received %d units, want 3", len(gotReq.Submissions))
	}
	if gotReq.Submissions[0].LanguageID != 71 {
		t.Errorf("unit language_id = %d, want 71", gotReq.Submissions[0].LanguageID)
	}
}

func TestSubmitBatchEmpty(t *testing.T) {
	c := NewClient("http://judge.invalid", "k", "h")
	if _, err := c.SubmitBatch(context.Background(), nil, fastPolicy()); err == nil {
		t.Fatal("SubmitBatch() with no units should fail before any request")
	}
}

func TestSubmitBatchTokenCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]batchSubmitResponse{{Token: "only-one"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "h")
	if _, err := c.SubmitBatch(context.Background(), testUnits(2), fastPolicy()); err == nil {
		t.Fatal("SubmitBatch() should reject a token count that does not match the unit count")
	}
}

func TestFetchBatchRealignsByToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tokens"); got != "a,b,c" {
			t.Errorf("tokens param = %q, want %q", got, "a,b,c")
		}
		// Results deliberately out of request order.
		json.NewEncoder(w).Encode(batchFetchResponse{Submissions: []Result{
			{Token: "c", Status: Status{ID: 3}, Stdout: "third"},
			{Token: "a", Status: Status{ID: 3}, Stdout: "first"},
			{Token: "b", Status: Status{ID: 4}, Stdout: "second"},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "h")
	results, err := c.FetchBatch(context.Background(), []string{"a", "b", "c"}, fastPolicy())
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	wantOut := []string{"first", "second", "third"}
	for i, r := range results {
		if r.Stdout != wantOut[i] {
			t.Errorf("results[%d].Stdout = %q, want %q", i, r.Stdout, wantOut[i])
		}
	}
	if results[1].Status.ID != 4 {
		t.Errorf("results[1].Status.ID = %d, want 4", results[1].Status.ID)
	}
}

func TestFetchBatchPositionalFallback(t *testing.T) {
	// Deployments that omit the token field on fetch keep positional order.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(batchFetchResponse{Submissions: []Result{
			{Status: Status{ID: 3}, Stdout: "one"},
			{Status: Status{ID: 3}, Stdout: "two"},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "h")
	results, err := c.FetchBatch(context.Background(), []string{"a", "b"}, fastPolicy())
	if err != nil {
		t.Fatalf("FetchBatch() error = %v", err)
	}
	if results[0].Stdout != "one" || results[1].Stdout != "two" {
		t.Errorf("positional results = %q, %q", results[0].Stdout, results[1].Stdout)
	}
}

func TestRateLimitRetryThenSuccess(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode([]batchSubmitResponse{{Token: "t0"}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "h")
	tokens, err := c.SubmitBatch(context.Background(), testUnits(1), fastPolicy())
	if err != nil {
		t.Fatalf("SubmitBatch() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if tokens[0] != "t0" {
		t.Errorf("token = %q, want t0", tokens[0])
	}
}

func TestRateLimitRetriesExhausted(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	pol := fastPolicy()
	c := NewClient(srv.URL, "k", "h")
	_, err := c.SubmitBatch(context.Background(), testUnits(1), pol)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("SubmitBatch() error = %v, want ErrRateLimited", err)
	}
	if calls != pol.MaxRetries+1 {
		t.Errorf("calls = %d, want %d", calls, pol.MaxRetries+1)
	}
}

func TestServerErrorIsFatal(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", "h")
	if _, err := c.SubmitBatch(context.Background(), testUnits(1), fastPolicy()); err == nil {
		t.Fatal("SubmitBatch() should fail on a 5xx")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on non-429)", calls)
	}
}

func TestResultHelpers(t *testing.T) {
	r := Result{Status: Status{ID: 2}, Time: "0.042", Stderr: "", CompileOutput: "cc: error"}
	if r.Terminal() {
		t.Error("Terminal() = true for status 2")
	}
	if got := r.TimeSeconds(); got != 0.042 {
		t.Errorf("TimeSeconds() = %v, want 0.042", got)
	}
	if got := r.Diagnostic(); got != "cc: error" {
		t.Errorf("Diagnostic() = %q, want compile output", got)
	}

	r.Stderr = "segfault"
	if got := r.Diagnostic(); got != "segfault" {
		t.Errorf("Diagnostic() = %q, stderr should win", got)
	}

	r.Time = ""
	if got := r.TimeSeconds(); got != 0 {
		t.Errorf("TimeSeconds() = %v for empty time, want 0", got)
	}

	r.Status.ID = 3
	if !r.Terminal() {
		t.Error("Terminal() = false for status 3")
	}
}
