// pkg/directive/directive.go

// Package directive applies ordered, idempotent key/value upserts to
// line-oriented configuration text. It is pure: no I/O, so the rewrite
// algorithm can be property-tested independent of any store.
package directive

import (
	"fmt"
	"strings"
)

// UpsertPolicy selects how a rule lands in existing content.
type UpsertPolicy int

const (
	// ReplaceOrAppend rewrites an existing line for the key, commented or
	// not, or appends a new line when no occurrence exists.
	ReplaceOrAppend UpsertPolicy = iota
	// AppendIfAbsent appends only when no line (commented or not) carries
	// the key. Used for access-restricting directives that must never be
	// duplicated.
	AppendIfAbsent
)

// Rule is a single idempotent mutation intent.
type Rule struct {
	Key    string
	Value  string
	Policy UpsertPolicy
}

func (r Rule) line() string {
	return fmt.Sprintf("%s %s", r.Key, r.Value)
}

// Apply processes rules in caller order against content and returns the
// rewritten text. Later rules may rely on earlier ones being in place.
// Lines unrelated to the rule set are never touched. Applying the same
// rule twice yields the same content as applying it once.
func Apply(content string, rules []Rule) string {
	for _, rule := range rules {
		content = applyOne(content, rule)
	}
	return content
}

func applyOne(content string, rule Rule) string {
	hadTrailingNewline := strings.HasSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	if hadTrailingNewline {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}

	found := false
	for i, line := range lines {
		if !lineMatchesKey(line, rule.Key) {
			continue
		}
		found = true
		if rule.Policy == ReplaceOrAppend {
			lines[i] = rule.line()
		}
		// AppendIfAbsent: an occurrence, even commented, suppresses the append.
	}

	if !found {
		lines = append(lines, rule.line())
	}

	return strings.Join(lines, "\n") + "\n"
}

// lineMatchesKey reports whether the line's leading token is the key,
// case-sensitively, looking through a comment marker if present.
func lineMatchesKey(line, key string) bool {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimPrefix(trimmed, "#")
	trimmed = strings.TrimSpace(trimmed)
	if trimmed == "" {
		return false
	}
	fields := strings.Fields(trimmed)
	return fields[0] == key
}
