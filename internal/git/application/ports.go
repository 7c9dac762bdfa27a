// Package application wires the snapshot fetcher, mutation orchestrator and
// checkout guard around the Gateway port.
package application

import (
	"context"

	domain "github.com/zjrosen/gitpane/internal/git/domain"
)

// StatusPayload is the result of one detailed-status query.
type StatusPayload struct {
	Branch    string
	Staged    []domain.FileChange
	Unstaged  []domain.FileChange
	Untracked []domain.FileChange
}

// MergeOptions control how a merge is performed.
type MergeOptions struct {
	NoFF   bool
	Squash bool
}

// TagOptions control tag creation.
type TagOptions struct {
	Message string // annotated tag when non-empty
	Commit  string // target commit; HEAD when empty
}

// DiffOptions select what DiffRaw shows.
type DiffOptions struct {
	File   string // restrict to one path; empty for the whole tree
	Staged bool   // diff the index instead of the working tree
	Commit string // diff a specific commit; overrides Staged
}

// Gateway executes one git operation per call against the working copy at
// path. It is stateless and safe to call repeatedly; queries return typed
// payloads, mutations return nil or an error (*domain.GitError carries
// stderr). The rest of this package never touches git except through it.
//
// This abstraction allows for easy testing with fake implementations.
type Gateway interface {
	// Repository queries. These are read-only and never mutate state.
	IsRepository(ctx context.Context, path string) (bool, error)
	DetailedStatus(ctx context.Context, path string) (StatusPayload, error)
	Branches(ctx context.Context, path string) ([]domain.BranchInfo, error)
	LogDetailed(ctx context.Context, path string, count int) ([]domain.CommitInfo, error)
	AheadBehind(ctx context.Context, path string) (domain.RemoteState, error)
	StashList(ctx context.Context, path string) ([]domain.StashEntry, error)
	MergeInProgress(ctx context.Context, path string) (bool, error)
	CherryPickInProgress(ctx context.Context, path string) (bool, error)
	RebaseInProgress(ctx context.Context, path string) (bool, error)
	Tags(ctx context.Context, path string) ([]domain.TagInfo, error)
	ConflictFiles(ctx context.Context, path string) ([]string, error)
	ConventionalPrefixes(ctx context.Context, path string) ([]string, error)

	// Staging and working-tree mutations.
	Stage(ctx context.Context, path string, files []string) error
	Unstage(ctx context.Context, path string, files []string) error
	DiscardChanges(ctx context.Context, path string, files []string) error
	CleanUntracked(ctx context.Context, path, file string) error

	// Commits.
	Commit(ctx context.Context, path, message string) error
	CommitAmend(ctx context.Context, path, message string, noEdit bool) error

	// Remote sync.
	Push(ctx context.Context, path string) error
	Pull(ctx context.Context, path string) error
	Fetch(ctx context.Context, path string) error

	// Branches.
	Checkout(ctx context.Context, path, branch string) error
	CreateBranch(ctx context.Context, path, name string, checkout bool) error
	DeleteBranch(ctx context.Context, path, name string, force bool) error

	// Merge. MergeContinue concludes a resolved merge by committing with the
	// message git prepared when the merge started.
	Merge(ctx context.Context, path, branch string, opts MergeOptions) error
	MergeContinue(ctx context.Context, path string) error
	MergeAbort(ctx context.Context, path string) error

	// Stash.
	StashPush(ctx context.Context, path, message string) error
	StashPop(ctx context.Context, path string, index int) error
	StashApply(ctx context.Context, path string, index int) error
	StashDrop(ctx context.Context, path string, index int) error

	// Cherry-pick.
	CherryPick(ctx context.Context, path, hash string) error
	CherryPickAbort(ctx context.Context, path string) error
	CherryPickContinue(ctx context.Context, path string) error

	// Rebase.
	Rebase(ctx context.Context, path, branch string) error
	RebaseAbort(ctx context.Context, path string) error
	RebaseContinue(ctx context.Context, path string) error
	RebaseSkip(ctx context.Context, path string) error

	// Tags.
	CreateTag(ctx context.Context, path, name string, opts TagOptions) error
	DeleteTag(ctx context.Context, path, name string) error

	// Conflict resolution.
	ResolveOurs(ctx context.Context, path, file string) error
	ResolveTheirs(ctx context.Context, path, file string) error

	// Inspection. Read-only; surfaced by the panel outside the snapshot.
	FileHistory(ctx context.Context, path, file string, count int) ([]domain.CommitInfo, error)
	Blame(ctx context.Context, path, file string) (string, error)
	Reflog(ctx context.Context, path string) ([]domain.ReflogEntry, error)
	ShowCommit(ctx context.Context, path, hash string) (string, error)
	DiffRaw(ctx context.Context, path string, opts DiffOptions) (string, error)

	// History surgery and bootstrap.
	ResetToReflog(ctx context.Context, path string, index int, hard bool) error
	Init(ctx context.Context, path string) error
}
