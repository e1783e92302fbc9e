package guardrail

import (
	"fmt"
	"log/slog"

	"github.com/finchly/payguard/internal/strutil"
)

const DefaultMaxOutputLength = 10_000

const truncationMarker = "... [TRUNCATED]"

// OutputConfig configures the outbound sanitizer.
type OutputConfig struct {
	MaxLength     int          `yaml:"max_length"`
	ExtraPatterns []RawPattern `yaml:"extra_patterns"`
}

// OutputSanitizer validates agent responses before delivery. It catches
// sensitive data that came from storage or was hallucinated, and flags
// internals (database errors, stack traces, file paths) that must never
// reach a user. Over-long responses are truncated with a marker rather than
// rejected.
type OutputSanitizer struct {
	maxLength int
	patterns  []Pattern
	leaks     []leakPattern

	log *slog.Logger
}

func NewOutputSanitizer(cfg OutputConfig, log *slog.Logger) *OutputSanitizer {
	if log == nil {
		log = slog.Default()
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxOutputLength
	}
	patterns := DefaultSensitivePatterns()
	patterns = append(patterns, compileRawPatterns(cfg.ExtraPatterns)...)
	return &OutputSanitizer{
		maxLength: maxLength,
		patterns:  patterns,
		leaks:     defaultLeakPatterns(),
		log:       log,
	}
}

func (s *OutputSanitizer) Validate(text string) Result {
	var violations []string
	sanitized := text

	if len(text) > s.maxLength {
		violations = append(violations, fmt.Sprintf(
			"response too long: %d characters (maximum allowed: %d)", len(text), s.maxLength))
		sanitized = strutil.TruncateUTF8(sanitized, s.maxLength) + truncationMarker
	}

	violations, sanitized = redact(s.patterns, sanitized, violations, func(name string, count int) string {
		return fmt.Sprintf("sensitive data in response (%s): %d instance(s) redacted", name, count)
	})

	// Leaked internals are flagged only. Their boundaries are not clean
	// enough to cut out; the caller replaces the whole response instead.
	for _, lp := range s.leaks {
		if lp.re.MatchString(sanitized) {
			violations = append(violations, fmt.Sprintf(
				"internal information leak (%s): response contains system internals", lp.name))
		}
	}

	if len(violations) > 0 {
		s.log.Warn("output_guardrail_violations", "count", len(violations), "violations", violations)
	}
	return newResult(violations, sanitized)
}
