package application_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gitpane/internal/git/application"
)

func TestApplyConventionalPrefix(t *testing.T) {
	tests := []struct {
		name    string
		message string
		typ     string
		want    string
	}{
		{"bare message", "add login form", "feat", "feat: add login form"},
		{"replace existing type", "fix: handle nil user", "feat", "feat: handle nil user"},
		{"replace scoped type", "feat(auth): add login", "fix", "fix: add login"},
		{"replace breaking marker", "feat!: drop v1 api", "chore", "chore: drop v1 api"},
		{"empty message", "", "docs", "docs: "},
		{"keeps message case", "Fix The Thing", "fix", "fix: Fix The Thing"},
		{"colon after a space is not a prefix", "update config: timeouts", "chore", "chore: update config: timeouts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, application.ApplyConventionalPrefix(tt.message, tt.typ))
		})
	}
}

func TestHasConventionalPrefix(t *testing.T) {
	require.True(t, application.HasConventionalPrefix("feat: x"))
	require.True(t, application.HasConventionalPrefix("fix(parser): x"))
	require.True(t, application.HasConventionalPrefix("refactor!: x"))
	require.False(t, application.HasConventionalPrefix("Add feature"))
	require.False(t, application.HasConventionalPrefix("FEAT: shouting"))
	require.False(t, application.HasConventionalPrefix(""))
}

func TestDefaultConventionalPrefixes(t *testing.T) {
	defaults := application.DefaultConventionalPrefixes()
	require.Contains(t, defaults, "feat")
	require.Contains(t, defaults, "fix")
	for _, p := range defaults {
		require.True(t, application.HasConventionalPrefix(p+": x"), p)
	}
}
