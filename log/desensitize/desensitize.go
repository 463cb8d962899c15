// Package desensitize rewrites log lines before they reach the output,
// hiding coordinates and credentials that must not be persisted in clear.
package desensitize

import (
	"sync"
)

// Hook applies its rules in insertion order
type Hook struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewHook creates an empty Hook
func NewHook() *Hook {
	return &Hook{}
}

// DefaultHook returns a Hook with coordinates rounded to one decimal
// and the builtin credential rules.
func DefaultHook() *Hook {
	h := NewHook()
	h.AddBuiltin(CoordinateRules(1)...)
	h.AddBuiltin(BuiltinRules()...)
	return h
}

// AddRule adds rule, replacing any rule with the same name in place
func (h *Hook) AddRule(rule Rule) {
	if rule == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, r := range h.rules {
		if r.Name() == rule.Name() {
			h.rules[i] = rule
			return
		}
	}
	h.rules = append(h.rules, rule)
}

// AddContentRule adds a regex rule over the whole line
func (h *Hook) AddContentRule(name, pattern, replacement string) error {
	rule, err := NewContentRule(name, pattern, replacement)
	if err != nil {
		return err
	}
	h.AddRule(rule)
	return nil
}

// AddFieldRule adds a rule over a JSON string field
func (h *Hook) AddFieldRule(name, fieldName, pattern, replacement string) error {
	rule, err := NewFieldRule(name, fieldName, pattern, replacement)
	if err != nil {
		return err
	}
	h.AddRule(rule)
	return nil
}

// AddBuiltin adds rules in order
func (h *Hook) AddBuiltin(rules ...Rule) {
	for _, rule := range rules {
		h.AddRule(rule)
	}
}

// RemoveRule removes the named rule
func (h *Hook) RemoveRule(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, r := range h.rules {
		if r.Name() == name {
			h.rules = append(h.rules[:i], h.rules[i+1:]...)
			return true
		}
	}
	return false
}

// SetEnabled toggles the named rule
func (h *Hook) SetEnabled(name string, enabled bool) bool {
	if r, ok := h.GetRule(name); ok {
		r.SetEnabled(enabled)
		return true
	}
	return false
}

// GetRule returns the named rule
func (h *Hook) GetRule(name string) (Rule, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, r := range h.rules {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// GetRules lists rule names in application order
func (h *Hook) GetRules() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.rules))
	for _, r := range h.rules {
		names = append(names, r.Name())
	}
	return names
}

// RuleCount returns the number of rules
func (h *Hook) RuleCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rules)
}

// Desensitize applies all enabled rules to s
func (h *Hook) Desensitize(s string) string {
	if s == "" {
		return s
	}

	h.mu.RLock()
	rules := h.rules
	h.mu.RUnlock()

	for _, rule := range rules {
		if rule.Enabled() {
			s = rule.Process(s)
		}
	}
	return s
}
