package rules

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Engine applies user-defined keyword replacements to final text before
// it is delivered, for vocabulary the hosted formatter cannot know
// (names, project jargon, preferred spellings).
//
// Rules file format, one rule per line:
//
//	spoken form => written form
//	re:^pattern$ => replacement
//
// Blank lines and lines starting with # are ignored.
type Engine struct {
	rules []rule
	limit int
}

type rule struct {
	pattern     *regexp.Regexp
	literal     string
	replacement string
}

// Load compiles rules from a file. A missing file yields an empty engine.
func Load(path string, iterationLimit int) (*Engine, error) {
	if iterationLimit <= 0 {
		iterationLimit = 10
	}
	if strings.TrimSpace(path) == "" {
		return &Engine{limit: iterationLimit}, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Engine{limit: iterationLimit}, nil
		}
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	rules, err := parse(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules file %q: %w", path, err)
	}
	return &Engine{rules: rules, limit: iterationLimit}, nil
}

// Apply rewrites text until no rule matches or the iteration limit hits.
func (e *Engine) Apply(text string) (string, error) {
	if len(e.rules) == 0 {
		return text, nil
	}

	result := text
	for i := 0; i < e.limit; i++ {
		changed := false
		for _, r := range e.rules {
			next := r.apply(result)
			if next != result {
				result = next
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return result, nil
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int { return len(e.rules) }

func (r rule) apply(text string) string {
	if r.pattern != nil {
		return r.pattern.ReplaceAllString(text, r.replacement)
	}
	return strings.ReplaceAll(text, r.literal, r.replacement)
}

func parse(contents string) ([]rule, error) {
	var rules []rule
	for index, raw := range strings.Split(contents, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		from, to, found := strings.Cut(line, "=>")
		if !found {
			return nil, fmt.Errorf("line %d: missing \"=>\"", index+1)
		}
		from = strings.TrimSpace(from)
		to = strings.TrimSpace(to)
		if from == "" {
			return nil, fmt.Errorf("line %d: empty match side", index+1)
		}

		if expr, isRegex := strings.CutPrefix(from, "re:"); isRegex {
			compiled, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", index+1, err)
			}
			rules = append(rules, rule{pattern: compiled, replacement: to})
			continue
		}
		rules = append(rules, rule{literal: from, replacement: to})
	}
	return rules, nil
}
