package desensitize

import (
	"fmt"
	"regexp"
	"strconv"
	"sync/atomic"
)

// Rule rewrites a log line
type Rule interface {
	Name() string
	Enabled() bool
	SetEnabled(enabled bool)
	Process(s string) string
}

type toggle struct {
	disabled atomic.Bool
}

func (t *toggle) Enabled() bool {
	return !t.disabled.Load()
}

func (t *toggle) SetEnabled(enabled bool) {
	t.disabled.Store(!enabled)
}

// ContentRule replaces every match of a pattern in the line
type ContentRule struct {
	toggle
	name        string
	pattern     *regexp.Regexp
	replacement string
}

// NewContentRule compiles pattern; replacement may reference groups
func NewContentRule(name, pattern, replacement string) (*ContentRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	if pattern == "" {
		return nil, fmt.Errorf("pattern cannot be empty")
	}

	regex, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
	}

	return &ContentRule{name: name, pattern: regex, replacement: replacement}, nil
}

// MustNewContentRule panics on an invalid pattern
func MustNewContentRule(name, pattern, replacement string) *ContentRule {
	rule, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *ContentRule) Name() string {
	return r.name
}

func (r *ContentRule) Process(s string) string {
	return r.pattern.ReplaceAllString(s, r.replacement)
}

// FieldRule rewrites the value of a JSON string field
type FieldRule struct {
	toggle
	name         string
	fieldName    string
	fieldPattern *regexp.Regexp
	replacement  string
	jsonPattern  *regexp.Regexp
}

// NewFieldRule matches `"fieldName":"..."` and replaces pattern inside the value
func NewFieldRule(name, fieldName, pattern, replacement string) (*FieldRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	if fieldName == "" {
		return nil, fmt.Errorf("field name cannot be empty")
	}
	if pattern == "" {
		return nil, fmt.Errorf("pattern cannot be empty")
	}

	fieldPattern, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid field pattern '%s': %w", pattern, err)
	}
	jsonPattern := regexp.MustCompile(fmt.Sprintf(`"%s"\s*:\s*"([^"]*)"`, regexp.QuoteMeta(fieldName)))

	return &FieldRule{
		name:         name,
		fieldName:    fieldName,
		fieldPattern: fieldPattern,
		replacement:  replacement,
		jsonPattern:  jsonPattern,
	}, nil
}

// MustNewFieldRule panics on an invalid pattern
func MustNewFieldRule(name, fieldName, pattern, replacement string) *FieldRule {
	rule, err := NewFieldRule(name, fieldName, pattern, replacement)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *FieldRule) Name() string {
	return r.name
}

func (r *FieldRule) Process(s string) string {
	return r.jsonPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := r.jsonPattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		value := r.fieldPattern.ReplaceAllString(sub[1], r.replacement)
		return fmt.Sprintf(`"%s":"%s"`, r.fieldName, value)
	})
}

// PrecisionRule rounds a numeric JSON field to a fixed number of decimals.
// A negative precision replaces the number with the string "***".
type PrecisionRule struct {
	toggle
	name      string
	fieldName string
	precision int
	pattern   *regexp.Regexp
}

var numberPattern = `(-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?)`

// NewPrecisionRule builds a rule for the numeric field fieldName
func NewPrecisionRule(name, fieldName string, precision int) (*PrecisionRule, error) {
	if name == "" {
		return nil, fmt.Errorf("rule name cannot be empty")
	}
	if fieldName == "" {
		return nil, fmt.Errorf("field name cannot be empty")
	}

	pattern := regexp.MustCompile(fmt.Sprintf(`"%s"\s*:\s*%s`, regexp.QuoteMeta(fieldName), numberPattern))
	return &PrecisionRule{
		name:      name,
		fieldName: fieldName,
		precision: precision,
		pattern:   pattern,
	}, nil
}

// MustNewPrecisionRule panics on empty names
func MustNewPrecisionRule(name, fieldName string, precision int) *PrecisionRule {
	rule, err := NewPrecisionRule(name, fieldName, precision)
	if err != nil {
		panic(err)
	}
	return rule
}

func (r *PrecisionRule) Name() string {
	return r.name
}

func (r *PrecisionRule) Process(s string) string {
	return r.pattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := r.pattern.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		if r.precision < 0 {
			return fmt.Sprintf(`"%s":"***"`, r.fieldName)
		}
		v, err := strconv.ParseFloat(sub[1], 64)
		if err != nil {
			return match
		}
		return fmt.Sprintf(`"%s":%s`, r.fieldName, strconv.FormatFloat(v, 'f', r.precision, 64))
	})
}
