package guardrail

import (
	"fmt"
	"log/slog"
	"strings"
)

const DefaultMaxInputLength = 5000

// InputConfig configures the inbound sanitizer. Zero values fall back to the
// built-in tables.
type InputConfig struct {
	MaxLength        int          `yaml:"max_length"`
	ExtraPatterns    []RawPattern `yaml:"extra_patterns"`
	InjectionPhrases []string     `yaml:"injection_phrases"`
}

// InputSanitizer validates and redacts user text before it reaches the
// agent. Checks run in order: length, sensitive-data redaction, injection
// detection. Injection phrases are matched against the original text so a
// phrase cannot hide inside a redaction boundary.
type InputSanitizer struct {
	maxLength int
	patterns  []Pattern
	phrases   []string

	log *slog.Logger
}

func NewInputSanitizer(cfg InputConfig, log *slog.Logger) *InputSanitizer {
	if log == nil {
		log = slog.Default()
	}
	maxLength := cfg.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxInputLength
	}
	patterns := DefaultSensitivePatterns()
	patterns = append(patterns, compileRawPatterns(cfg.ExtraPatterns)...)
	phrases := cfg.InjectionPhrases
	if len(phrases) == 0 {
		phrases = DefaultInjectionPhrases()
	}
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			lowered = append(lowered, p)
		}
	}
	return &InputSanitizer{
		maxLength: maxLength,
		patterns:  patterns,
		phrases:   lowered,
		log:       log,
	}
}

func (s *InputSanitizer) Validate(text string) Result {
	var violations []string

	if len(text) > s.maxLength {
		violations = append(violations, fmt.Sprintf(
			"input too long: %d characters (maximum allowed: %d)", len(text), s.maxLength))
	}

	violations, sanitized := redact(s.patterns, text, violations, func(name string, count int) string {
		return fmt.Sprintf("sensitive data detected (%s): %d instance(s) found; remove it before submitting", name, count)
	})

	// Injection phrases are checked against the original text, and are
	// flagged rather than redacted.
	lower := strings.ToLower(text)
	for _, phrase := range s.phrases {
		if strings.Contains(lower, phrase) {
			violations = append(violations, fmt.Sprintf(
				"potential prompt injection: input contains suspicious phrase %q", phrase))
		}
	}

	if len(violations) > 0 {
		// Never log the raw text; it may hold the very data being redacted.
		s.log.Warn("input_guardrail_violations", "count", len(violations), "violations", violations)
	}
	return newResult(violations, sanitized)
}
