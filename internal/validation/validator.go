package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ShayCichocki/matchday/internal/logging"
	"github.com/ShayCichocki/matchday/pkg/models"
)

// FallbackAnswer replaces an answer that has a blocking finding.
const FallbackAnswer = "I was unable to verify that answer against the team's records, so I won't guess. Please try again or ask more specifically."

var listLineRe = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+\S`)

// Validator checks answers against captured tool records. The config can be
// swapped while validations run.
type Validator struct {
	cfg atomic.Pointer[Config]
	log zerolog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the validator logger.
func WithLogger(l zerolog.Logger) Option {
	return func(v *Validator) {
		v.log = l
	}
}

// New creates a validator with the given config.
func New(cfg Config, opts ...Option) *Validator {
	v := &Validator{log: logging.Component("validation")}
	for _, opt := range opts {
		opt(v)
	}
	v.SetConfig(cfg)
	return v
}

// SetConfig replaces the active config.
func (v *Validator) SetConfig(cfg Config) {
	v.cfg.Store(&cfg)
}

// Config returns the active config.
func (v *Validator) Config() Config {
	return *v.cfg.Load()
}

// Claims summarises the data assertions found in an answer.
type Claims struct {
	ListLines int
	Phrases   []string
}

// Any reports whether the answer asserts enumerated data.
func (c Claims) Any(minListLines int) bool {
	return c.ListLines >= minListLines || len(c.Phrases) > 0
}

// DetectClaims extracts claim signals from an answer.
func DetectClaims(answer string, cfg Config) Claims {
	var c Claims
	for _, line := range strings.Split(answer, "\n") {
		if listLineRe.MatchString(line) {
			c.ListLines++
		}
	}
	lower := strings.ToLower(answer)
	for _, p := range cfg.ClaimPhrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			c.Phrases = append(c.Phrases, p)
		}
	}
	return c
}

// Validate returns the findings for one subtask's answer. It only reads its
// arguments and the active config, so repeated calls agree.
func (v *Validator) Validate(subtaskID, answer string, records []models.ToolInvocationRecord) []models.ValidationFinding {
	cfg := v.Config()

	if shape, ok := cfg.matchShape(answer); ok {
		v.log.Debug().Str("subtask", subtaskID).Str("shape", shape.Name).Msg("safe_shape")
		return nil
	}

	claims := DetectClaims(answer, cfg)
	if !claims.Any(cfg.MinListLines) {
		return nil
	}

	var enumerated, lists, items, failed int
	for _, r := range records {
		if r.SubtaskID != subtaskID {
			continue
		}
		if r.Error != "" {
			failed++
		}
		if r.Enumerated() {
			enumerated++
			items += r.ItemCount
			if r.ItemCount >= cfg.MinListLines {
				lists++
			}
		}
	}

	if enumerated == 0 {
		return []models.ValidationFinding{{
			Severity:  models.SeverityBlocking,
			Message:   fmt.Sprintf("answer enumerates team data but no tool call returned records (%s)", describe(claims)),
			SubtaskID: subtaskID,
		}}
	}
	// A single-record lookup cannot ground a listed roster.
	if claims.ListLines >= cfg.MinListLines && lists == 0 {
		return []models.ValidationFinding{{
			Severity:  models.SeverityBlocking,
			Message:   fmt.Sprintf("answer lists %d items but no tool call returned a list", claims.ListLines),
			SubtaskID: subtaskID,
		}}
	}

	var findings []models.ValidationFinding
	if claims.ListLines > items {
		findings = append(findings, models.ValidationFinding{
			Severity:  models.SeverityWarning,
			Message:   fmt.Sprintf("answer lists %d items but tools returned %d", claims.ListLines, items),
			SubtaskID: subtaskID,
		})
	}
	if failed > 0 {
		findings = append(findings, models.ValidationFinding{
			Severity:  models.SeverityInfo,
			Message:   fmt.Sprintf("%d tool calls failed while producing this answer", failed),
			SubtaskID: subtaskID,
		})
	}
	return findings
}

func describe(c Claims) string {
	var parts []string
	if c.ListLines > 0 {
		parts = append(parts, fmt.Sprintf("%d list lines", c.ListLines))
	}
	for _, p := range c.Phrases {
		parts = append(parts, fmt.Sprintf("%q", p))
	}
	return strings.Join(parts, ", ")
}
