package application

import "github.com/zjrosen/gitpane/internal/git/domain"

// Operation identifies a single mutating action. The value doubles as the
// in-flight token surfaced to the UI.
type Operation string

// Mutating operations dispatched through the orchestrator.
const (
	OpStage          Operation = "staging"
	OpUnstage        Operation = "unstaging"
	OpDiscard        Operation = "discarding"
	OpCleanUntracked Operation = "cleaning-untracked"

	OpCommit      Operation = "committing"
	OpCommitAmend Operation = "amending"

	OpPush  Operation = "pushing"
	OpPull  Operation = "pulling"
	OpFetch Operation = "fetching"

	OpCheckout     Operation = "checkout"
	OpCreateBranch Operation = "creating-branch"
	OpDeleteBranch Operation = "deleting-branch"

	OpMerge         Operation = "merging"
	OpMergeAbort    Operation = "aborting-merge"
	OpMergeContinue Operation = "continuing-merge"

	OpStashPush  Operation = "stashing"
	OpStashPop   Operation = "popping-stash"
	OpStashApply Operation = "applying-stash"
	OpStashDrop  Operation = "dropping-stash"

	OpCherryPick         Operation = "cherry-picking"
	OpCherryPickAbort    Operation = "aborting-cherry-pick"
	OpCherryPickContinue Operation = "continuing-cherry-pick"

	OpRebase         Operation = "rebasing"
	OpRebaseAbort    Operation = "aborting-rebase"
	OpRebaseContinue Operation = "continuing-rebase"
	OpRebaseSkip     Operation = "skipping-rebase-commit"

	OpCreateTag Operation = "creating-tag"
	OpDeleteTag Operation = "deleting-tag"

	OpResolveOurs   Operation = "resolving-ours"
	OpResolveTheirs Operation = "resolving-theirs"

	OpResetReflog Operation = "resetting"
	OpInit        Operation = "initializing"
)

// ProgressKind names a multi-step git operation that may be in progress.
type ProgressKind string

// In-progress operation kinds.
const (
	ProgressMerge      ProgressKind = "merge"
	ProgressRebase     ProgressKind = "rebase"
	ProgressCherryPick ProgressKind = "cherry-pick"
)

// InProgress derives the in-progress operations from the snapshot's flags.
// Well-formed git state has at most one; if git ever reported several, all
// are returned rather than silently hiding any.
func InProgress(s domain.Snapshot) []ProgressKind {
	var kinds []ProgressKind
	if s.MergeInProgress {
		kinds = append(kinds, ProgressMerge)
	}
	if s.RebaseInProgress {
		kinds = append(kinds, ProgressRebase)
	}
	if s.CherryPickInProgress {
		kinds = append(kinds, ProgressCherryPick)
	}
	return kinds
}

// HasConflicts reports whether the snapshot carries unmerged paths.
func HasConflicts(s domain.Snapshot) bool {
	return s.Conflicted()
}

// blockedDuringProgress lists operations that may not start while a merge,
// rebase or cherry-pick is already in progress. Continue/abort/skip for the
// in-progress operation, plus stage/unstage/commit (to resolve conflicts),
// stay legal.
var blockedDuringProgress = map[Operation]bool{
	OpPush:       true,
	OpPull:       true,
	OpFetch:      true,
	OpMerge:      true,
	OpRebase:     true,
	OpCherryPick: true,
}

// BlockedByProgress reports whether op may not be dispatched against a
// snapshot with an operation in progress.
func BlockedByProgress(op Operation, s domain.Snapshot) bool {
	if len(InProgress(s)) == 0 {
		return false
	}
	return blockedDuringProgress[op]
}
