package application

import (
	"regexp"
	"strings"
)

// conventionalPrefixPattern matches an existing conventional-commit prefix at
// the start of a message: a lowercase type, an optional (scope), an optional
// breaking-change marker, and a colon.
var conventionalPrefixPattern = regexp.MustCompile(`^[a-z]+(\([^)]*\))?!?:\s*`)

// DefaultConventionalPrefixes is the fallback commit-type vocabulary used
// when the repository declares none.
func DefaultConventionalPrefixes() []string {
	return []string{"feat", "fix", "docs", "style", "refactor", "perf", "test", "build", "ci", "chore", "revert"}
}

// ApplyConventionalPrefix rewrites message to carry the given commit type.
// If the message already starts with a recognized `type(scope)?:` prefix the
// prefix is replaced (scope dropped); otherwise `type: ` is prepended. This
// is a pure text transform with no repository side effect.
func ApplyConventionalPrefix(message, typ string) string {
	rest := conventionalPrefixPattern.ReplaceAllString(message, "")
	rest = strings.TrimLeft(rest, " ")
	return typ + ": " + rest
}

// HasConventionalPrefix reports whether message already starts with a
// conventional-commit prefix.
func HasConventionalPrefix(message string) bool {
	return conventionalPrefixPattern.MatchString(message)
}
