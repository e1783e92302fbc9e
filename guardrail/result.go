package guardrail

// Result is the outcome of running text through a sanitizer. All checks run
// unconditionally and violations accumulate, so one pass surfaces every
// problem. Sanitized is always populated, even when IsValid is false, so
// logs and fallbacks never see unredacted text. When internal-leak
// violations are present, Sanitized is still not safe to show verbatim; the
// caller is expected to substitute a generic message.
type Result struct {
	IsValid    bool
	Violations []string
	Sanitized  string
}

func newResult(violations []string, sanitized string) Result {
	return Result{
		IsValid:    len(violations) == 0,
		Violations: violations,
		Sanitized:  sanitized,
	}
}
