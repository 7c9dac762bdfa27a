package application

import (
	"errors"
	"strings"

	"github.com/zjrosen/gitpane/internal/git/domain"
)

// conflictPatterns are the substrings (lowercased) that mark a git failure as
// a merge/rebase/cherry-pick conflict rather than a hard error. The match is
// heuristic: git prints "CONFLICT (content)", "Automatic merge failed; fix
// conflicts", "needs merge" and "unmerged" variants depending on the
// operation. ClassifyFailure cross-checks against the post-operation
// snapshot, whose in-progress flags come from git's on-disk markers.
var conflictPatterns = []string{
	"conflict",
	"needs merge",
	"unmerged",
}

// IsConflictText reports whether the error text (including gateway stderr)
// matches a known conflict pattern.
func IsConflictText(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	var gitErr *domain.GitError
	if errors.As(err, &gitErr) {
		text += "\n" + gitErr.Stderr
	}
	text = strings.ToLower(text)
	for _, p := range conflictPatterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// ClassifyFailure decides whether a failed mutation left the repository in a
// conflict state. The re-fetched snapshot is authoritative: an operation
// reported in progress with unmerged paths is a conflict even when the error
// text matched nothing.
func ClassifyFailure(err error, after domain.Snapshot) bool {
	if IsConflictText(err) {
		return true
	}
	return len(InProgress(after)) > 0 && after.Conflicted()
}
