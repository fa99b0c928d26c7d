// Package matcher matches table file names against glob or regex patterns.
// It backs the excluded_files setting, so that a study export can skip
// whole families of bookkeeping files ("study-*.csv") as well as single
// names.
package matcher

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob PatternType = iota
	// Regex uses regular expressions.
	Regex
	// Auto detects the pattern type.
	Auto
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher matches file names against one pattern. Matching ignores case,
// since exports produced on different systems disagree on it.
type Matcher struct {
	pattern     string
	patternType PatternType
	glob        string
	compiled    *regexp.Regexp
}

// New creates a Matcher. Auto treats patterns with regex metacharacters
// as regular expressions and everything else as a glob.
func New(patternType PatternType, pattern string) (*Matcher, error) {
	m := &Matcher{pattern: pattern, patternType: patternType}
	if patternType == Auto {
		m.patternType = detectPatternType(pattern)
	}

	switch m.patternType {
	case Glob:
		m.glob = strings.ToLower(pattern)
		if _, err := filepath.Match(m.glob, ""); err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
	case Regex:
		expr := pattern
		if !strings.HasPrefix(expr, "^") {
			expr = "^" + expr
		}
		if !strings.HasSuffix(expr, "$") {
			expr += "$"
		}
		compiled, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		m.compiled = compiled
	default:
		return nil, fmt.Errorf("unsupported pattern type: %v", patternType)
	}
	return m, nil
}

// Match reports whether the base name of path matches.
func (m *Matcher) Match(path string) bool {
	name := filepath.Base(path)
	if m.patternType == Regex {
		return m.compiled.MatchString(name)
	}
	ok, _ := filepath.Match(m.glob, strings.ToLower(name))
	return ok
}

// Pattern returns the original pattern string.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Type returns the pattern type being used.
func (m *Matcher) Type() PatternType {
	return m.patternType
}

// detectPatternType attempts to detect if a pattern is glob or regex.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s",
		"(?", "{", "}", "+", "|", "(", ")", ".*",
	}
	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Glob
}

// Set matches a name against several patterns.
type Set struct {
	matchers []*Matcher
}

// NewSet compiles patterns with Auto detection. Blank patterns are ignored.
func NewSet(patterns ...string) (*Set, error) {
	s := &Set{matchers: make([]*Matcher, 0, len(patterns))}
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		m, err := New(Auto, p)
		if err != nil {
			return nil, err
		}
		s.matchers = append(s.matchers, m)
	}
	return s, nil
}

// Match returns true if any pattern matches. A nil Set matches nothing.
func (s *Set) Match(path string) bool {
	if s == nil {
		return false
	}
	for _, m := range s.matchers {
		if m.Match(path) {
			return true
		}
	}
	return false
}

// Patterns returns the patterns of the set in order.
func (s *Set) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.matchers))
	for i, m := range s.matchers {
		out[i] = m.pattern
	}
	return out
}

// Len returns the number of patterns.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.matchers)
}
