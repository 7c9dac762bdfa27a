package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Precondition refusals. Reported synchronously to the caller, never
// dispatched to the gateway.
var (
	// ErrOperationInFlight indicates another mutating operation is executing.
	ErrOperationInFlight = errors.New("another operation is already in flight")

	// ErrOperationInProgress indicates a merge/rebase/cherry-pick is in
	// progress and blocks starting a new one (or push/pull/fetch).
	ErrOperationInProgress = errors.New("a merge, rebase or cherry-pick is in progress")

	// ErrNoRemote indicates the repository has no remote configured.
	ErrNoRemote = errors.New("no remote configured")

	// ErrNothingToPush indicates the branch is not ahead of its upstream.
	ErrNothingToPush = errors.New("nothing to push")

	// ErrNothingToPull indicates the branch is not behind its upstream.
	ErrNothingToPull = errors.New("nothing to pull")

	// ErrProtectedBranch indicates a delete of a protected branch without force.
	ErrProtectedBranch = errors.New("branch is protected")

	// ErrDeleteCurrentBranch indicates a delete of the checked-out branch.
	ErrDeleteCurrentBranch = errors.New("cannot delete the current branch")

	// ErrCheckoutNotPending indicates a confirm/cancel without a pending checkout.
	ErrCheckoutNotPending = errors.New("no checkout is awaiting confirmation")

	// ErrCheckoutPending indicates a new checkout request while one awaits
	// confirmation.
	ErrCheckoutPending = errors.New("a checkout is already awaiting confirmation")
)

// GitError carries the failure of a single git invocation, including stderr,
// which conflict classification inspects.
type GitError struct {
	Op     string // git subcommand, e.g. "merge"
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s failed", e.Op)
	if line := firstLine(e.Stderr); line != "" {
		return msg + ": " + line
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *GitError) Unwrap() error { return e.Err }

// FetchError marks a failed snapshot fetch. Callers keep the last known-good
// snapshot; stale-but-consistent beats partially updated.
type FetchError struct {
	Query string // sub-query that failed
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching repository state (%s): %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
