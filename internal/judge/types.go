// Package judge is the transport layer to the external Judge0 batch
// execution service: batch dispatch, bounded completion polling, and the
// harness/solution composition step that precedes both.
package judge

import "strconv"

// Unit is one execution sent to the judge: composed source, language id and
// the test case it runs against. A batch is an ordered sequence of units;
// the order is preserved through tokens and results so callers can map
// result[i] back to the originating test case.
type Unit struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

type batchSubmitRequest struct {
	Submissions []Unit `json:"submissions"`
}

type batchSubmitResponse struct {
	Token string `json:"token"`
}

type batchFetchResponse struct {
	Submissions []Result `json:"submissions"`
}

// Status is the judge's numeric state for one unit. Ids 1-2 mean the unit
// is still queued or running; anything above 2 is terminal.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Result is the judge's report for one unit. Nullable fields decode to
// their zero values.
type Result struct {
	Token          string `json:"token"`
	Status         Status `json:"status"`
	Stdout         string `json:"stdout"`
	Stderr         string `json:"stderr"`
	CompileOutput  string `json:"compile_output"`
	Time           string `json:"time"` // CPU seconds, e.g. "0.002"
	Memory         int    `json:"memory"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
}

// Terminal reports whether the result will not change further.
func (r Result) Terminal() bool {
	return r.Status.ID > 2
}

// TimeSeconds parses the judge's CPU-time string, 0 if absent.
func (r Result) TimeSeconds() float64 {
	t, err := strconv.ParseFloat(r.Time, 64)
	if err != nil {
		return 0
	}
	return t
}

// Diagnostic returns the most useful error channel for a non-passing unit:
// stderr first, then compiler output.
func (r Result) Diagnostic() string {
	if r.Stderr != "" {
		return r.Stderr
	}
	return r.CompileOutput
}
