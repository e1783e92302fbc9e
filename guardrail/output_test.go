package guardrail

import (
	"strings"
	"testing"
)

func TestOutputSanitizerClean(t *testing.T) {
	s := NewOutputSanitizer(OutputConfig{}, nil)
	res := s.Validate("Net pay for the period is 4,250 dollars.")
	if !res.IsValid {
		t.Fatalf("expected valid, got %v", res.Violations)
	}
}

func TestOutputSanitizerRedactsStoredData(t *testing.T) {
	s := NewOutputSanitizer(OutputConfig{}, nil)
	res := s.Validate("Employee record: ssn 123-45-6789, email jane@corp.example")
	if res.IsValid {
		t.Fatal("expected violations")
	}
	if !strings.Contains(res.Sanitized, "[SSN_REDACTED]") || !strings.Contains(res.Sanitized, "[EMAIL_REDACTED]") {
		t.Fatalf("sanitized = %q", res.Sanitized)
	}
}

func TestOutputSanitizerTruncates(t *testing.T) {
	s := NewOutputSanitizer(OutputConfig{MaxLength: 20}, nil)
	res := s.Validate(strings.Repeat("a", 50))
	if res.IsValid {
		t.Fatal("expected length violation")
	}
	want := strings.Repeat("a", 20) + "... [TRUNCATED]"
	if res.Sanitized != want {
		t.Fatalf("sanitized = %q, want %q", res.Sanitized, want)
	}
}

func TestOutputSanitizerLeakDetection(t *testing.T) {
	s := NewOutputSanitizer(OutputConfig{}, nil)

	cases := []struct {
		name string
		in   string
		kind string
	}{
		{"db_error", "query failed: SQLSTATE 23505 duplicate key", "DB_ERROR"},
		{"db_detail", "insert failed\nDETAIL: key already exists", "DB_ERROR"},
		{"stack_trace", "panic: runtime error: index out of range", "STACK_TRACE"},
		{"goroutine_dump", "goroutine 17 [running]:\nmain.run()", "STACK_TRACE"},
		{"file_path", "see /home/svc/app/internal/worker.go line 42", "FILE_PATH"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := s.Validate(tc.in)
			if res.IsValid {
				t.Fatal("expected leak violation")
			}
			found := false
			for _, v := range res.Violations {
				if strings.Contains(v, tc.kind) {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %s violation, got %v", tc.kind, res.Violations)
			}
			// Leaks are flagged, not cut out of the text.
			if res.Sanitized != tc.in {
				t.Fatalf("leak content must not be redacted: %q", res.Sanitized)
			}
		})
	}
}

func TestOutputRedactionIdempotent(t *testing.T) {
	s := NewOutputSanitizer(OutputConfig{}, nil)
	first := s.Validate("ssn 123-45-6789 and routing 098765432")
	second := s.Validate(first.Sanitized)
	if !second.IsValid {
		t.Fatalf("second pass found violations: %v", second.Violations)
	}
}
