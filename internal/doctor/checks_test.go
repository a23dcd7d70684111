package doctor

import (
	"context"
	"encoding/json"
	"testing"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status   CheckStatus
		expected string
	}{
		{StatusPass, "pass"},
		{StatusWarn, "warn"},
		{StatusFail, "fail"},
		{CheckStatus(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			if got := tc.status.String(); got != tc.expected {
				t.Errorf("got %q, want %q", got, tc.expected)
			}
		})
	}
}

func TestCheckResult_JSONStatusByName(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "x", Status: StatusWarn, Message: "m"})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != `{"name":"x","status":"warn","message":"m"}` {
		t.Errorf("got %s", got)
	}
}

// mockCheck is a test implementation of Check.
type mockCheck struct {
	name     string
	category string
	result   CheckResult
}

func (m *mockCheck) Name() string                      { return m.name }
func (m *mockCheck) Category() string                  { return m.category }
func (m *mockCheck) Run(_ context.Context) CheckResult { return m.result }

func TestRunAll(t *testing.T) {
	checks := []Check{
		&mockCheck{
			name:     "check1",
			category: "TEST",
			result:   CheckResult{Name: "check1", Status: StatusPass, Message: "OK"},
		},
		&mockCheck{
			name:     "check2",
			category: "TEST",
			result:   CheckResult{Name: "check2", Status: StatusFail, Message: "Failed"},
		},
	}

	results := RunAll(context.Background(), checks)

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Status != StatusPass {
		t.Errorf("expected first check to pass")
	}
	if results[1].Status != StatusFail {
		t.Errorf("expected second check to fail")
	}
}

func TestRunAllParallel(t *testing.T) {
	checks := []Check{
		&mockCheck{name: "check1", category: "TEST", result: CheckResult{Name: "check1", Status: StatusPass}},
		&mockCheck{name: "check2", category: "TEST", result: CheckResult{Name: "check2", Status: StatusWarn}},
		&mockCheck{name: "check3", category: "TEST", result: CheckResult{Name: "check3", Status: StatusFail}},
	}

	results := RunAllParallel(context.Background(), checks)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Order follows the checks, not completion.
	for i, want := range []CheckStatus{StatusPass, StatusWarn, StatusFail} {
		if results[i].Status != want {
			t.Errorf("result %d: got %v, want %v", i, results[i].Status, want)
		}
	}
}

func TestGroupByCategory(t *testing.T) {
	checks := []Check{
		&mockCheck{name: "c1", category: "B"},
		&mockCheck{name: "c2", category: "A"},
		&mockCheck{name: "c3", category: "B"},
	}

	order, grouped := GroupByCategory(checks)

	if len(order) != 2 || order[0] != "B" || order[1] != "A" {
		t.Errorf("expected order [B A], got %v", order)
	}
	if len(grouped["B"]) != 2 || grouped["B"][1] != 2 {
		t.Errorf("expected B to hold indices [0 2], got %v", grouped["B"])
	}
	if len(grouped["A"]) != 1 {
		t.Errorf("expected 1 check in category A, got %d", len(grouped["A"]))
	}
}

func TestCountByStatus(t *testing.T) {
	results := []CheckResult{
		{Status: StatusPass},
		{Status: StatusPass},
		{Status: StatusWarn},
		{Status: StatusFail},
	}

	counts := CountByStatus(results)

	if counts[StatusPass] != 2 {
		t.Errorf("expected 2 pass, got %d", counts[StatusPass])
	}
	if counts[StatusWarn] != 1 {
		t.Errorf("expected 1 warn, got %d", counts[StatusWarn])
	}
	if counts[StatusFail] != 1 {
		t.Errorf("expected 1 fail, got %d", counts[StatusFail])
	}
}

func TestHasFailuresAndIssues(t *testing.T) {
	tests := []struct {
		name         string
		results      []CheckResult
		wantFailures bool
		wantIssues   bool
	}{
		{
			name:    "all pass",
			results: []CheckResult{{Status: StatusPass}, {Status: StatusPass}},
		},
		{
			name:       "with warn only",
			results:    []CheckResult{{Status: StatusPass}, {Status: StatusWarn}},
			wantIssues: true,
		},
		{
			name:         "with fail",
			results:      []CheckResult{{Status: StatusPass}, {Status: StatusFail}},
			wantFailures: true,
			wantIssues:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasFailures(tc.results); got != tc.wantFailures {
				t.Errorf("HasFailures() = %v, want %v", got, tc.wantFailures)
			}
			if got := HasIssues(tc.results); got != tc.wantIssues {
				t.Errorf("HasIssues() = %v, want %v", got, tc.wantIssues)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name    string
		results []CheckResult
		want    string
	}{
		{name: "all good", results: []CheckResult{{Status: StatusPass}}, want: "Everything looks good"},
		{name: "one issue", results: []CheckResult{{Status: StatusFail}}, want: "1 issue found"},
		{name: "multiple issues", results: []CheckResult{{Status: StatusFail}, {Status: StatusWarn}}, want: "2 issues found"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Summary(tc.results); got != tc.want {
				t.Errorf("Summary() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCheckStatus_UnmarshalText(t *testing.T) {
	var r CheckResult
	if err := json.Unmarshal([]byte(`{"name":"x","status":"fail"}`), &r); err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusFail {
		t.Errorf("got %v, want fail", r.Status)
	}

	if err := json.Unmarshal([]byte(`{"status":"maybe"}`), &r); err == nil {
		t.Error("expected an error for an unknown status")
	}
}
