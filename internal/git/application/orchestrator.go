package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/gitpane/internal/git/domain"
	"github.com/zjrosen/gitpane/internal/log"
	"github.com/zjrosen/gitpane/internal/pubsub"
)

// Orchestrator serializes every mutating git action and keeps the current
// snapshot in sync. Each action runs as one logical unit: gateway call, then
// an unconditional snapshot re-fetch, then error surfacing. At most one
// mutation is ever in flight; a second request is refused with
// domain.ErrOperationInFlight while the first runs.
//
// The snapshot itself is an immutable value replaced wholesale under its own
// lock, so reads never need to coordinate with mutations.
type Orchestrator struct {
	gw        Gateway
	fetcher   *Fetcher
	notifier  *Notifier
	broker    *pubsub.Broker[domain.Snapshot]
	path      string
	protected []string

	opMu     sync.Mutex
	inFlight Operation

	snapMu   sync.RWMutex
	snapshot domain.Snapshot
	fetchErr error
}

// OrchestratorConfig wires an Orchestrator.
type OrchestratorConfig struct {
	Gateway           Gateway
	Fetcher           *Fetcher
	Notifier          *Notifier
	Path              string
	ProtectedBranches []string // defaults to main, master
}

// NewOrchestrator creates an orchestrator for one working copy.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	protected := cfg.ProtectedBranches
	if len(protected) == 0 {
		protected = []string{"main", "master"}
	}
	return &Orchestrator{
		gw:        cfg.Gateway,
		fetcher:   cfg.Fetcher,
		notifier:  cfg.Notifier,
		broker:    pubsub.NewBroker[domain.Snapshot](),
		path:      cfg.Path,
		protected: protected,
	}
}

// Snapshot returns the last successfully fetched snapshot.
func (o *Orchestrator) Snapshot() domain.Snapshot {
	o.snapMu.RLock()
	defer o.snapMu.RUnlock()
	return o.snapshot
}

// FetchErr returns the blocking fetch-error state, nil when the last fetch
// succeeded. Distinct from transient operation errors.
func (o *Orchestrator) FetchErr() error {
	o.snapMu.RLock()
	defer o.snapMu.RUnlock()
	return o.fetchErr
}

// InFlight returns the currently executing operation, or "" when idle.
func (o *Orchestrator) InFlight() Operation {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	return o.inFlight
}

// Errors returns the transient error notifier.
func (o *Orchestrator) Errors() *Notifier { return o.notifier }

// Path returns the working copy this orchestrator is attached to.
func (o *Orchestrator) Path() string { return o.path }

// Subscribe returns a stream of snapshots, one per completed fetch.
func (o *Orchestrator) Subscribe(ctx context.Context) <-chan pubsub.Event[domain.Snapshot] {
	return o.broker.Subscribe(ctx)
}

// Close shuts down the snapshot stream.
func (o *Orchestrator) Close() {
	o.broker.Shutdown()
}

// Refresh fetches a new snapshot and publishes it. On fetch failure the
// previous snapshot stays in place and the error becomes the blocking
// fetch-error state.
func (o *Orchestrator) Refresh(ctx context.Context) (domain.Snapshot, error) {
	snap, err := o.fetcher.Fetch(ctx, o.path)

	o.snapMu.Lock()
	if err != nil {
		o.fetchErr = err
		stale := o.snapshot
		o.snapMu.Unlock()
		return stale, err
	}
	o.snapshot = snap
	o.fetchErr = nil
	o.snapMu.Unlock()

	o.broker.Publish(snap)
	return snap, nil
}

// begin claims the in-flight token for op.
func (o *Orchestrator) begin(op Operation) error {
	o.opMu.Lock()
	defer o.opMu.Unlock()
	if o.inFlight != "" {
		return fmt.Errorf("%w (%s)", domain.ErrOperationInFlight, o.inFlight)
	}
	o.inFlight = op
	return nil
}

func (o *Orchestrator) end() {
	o.opMu.Lock()
	o.inFlight = ""
	o.opMu.Unlock()
}

// run executes one mutating action as a single logical unit. The snapshot is
// re-fetched regardless of the call's outcome: git state may have changed
// even on a reported failure, e.g. a partially applied merge.
func (o *Orchestrator) run(ctx context.Context, op Operation, call func(context.Context) error) error {
	if err := o.begin(op); err != nil {
		log.Debug(log.CatGit, "operation refused, another in flight", "op", string(op))
		return err
	}
	defer o.end()

	tracer := otel.Tracer("gitpane/git")
	ctx, span := tracer.Start(ctx, "operation."+string(op))
	span.SetAttributes(attribute.String("repo.path", o.path))
	defer span.End()

	opErr := call(ctx)

	after, fetchErr := o.Refresh(ctx)
	if fetchErr != nil {
		log.ErrorErr(log.CatGit, "post-operation refresh failed", fetchErr, "op", string(op))
	}

	if opErr != nil {
		span.RecordError(opErr)
		if ClassifyFailure(opErr, after) {
			o.notifier.Publish(conflictMessage(after), true)
		} else {
			o.notifier.Publish(opErr.Error(), false)
		}
		log.Warn(log.CatGit, "operation failed", "op", string(op), "error", opErr.Error())
		return opErr
	}

	log.Debug(log.CatGit, "operation completed", "op", string(op))
	return nil
}

// conflictMessage names the in-progress operation the user must now resolve.
func conflictMessage(s domain.Snapshot) string {
	kinds := InProgress(s)
	if len(kinds) == 0 {
		return "operation has conflicts; resolve and continue, or abort"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, "/") + " has conflicts; resolve and continue, or abort"
}

// requireIdleProgress refuses initiation ops while a merge/rebase/cherry-pick
// is already in progress.
func (o *Orchestrator) requireIdleProgress(op Operation) error {
	if BlockedByProgress(op, o.Snapshot()) {
		return domain.ErrOperationInProgress
	}
	return nil
}

// ── Staging and working tree ─────────────────────────────────────────

// Stage adds the given files to the index.
func (o *Orchestrator) Stage(ctx context.Context, files ...string) error {
	return o.run(ctx, OpStage, func(ctx context.Context) error {
		return o.gw.Stage(ctx, o.path, files)
	})
}

// Unstage removes the given files from the index.
func (o *Orchestrator) Unstage(ctx context.Context, files ...string) error {
	return o.run(ctx, OpUnstage, func(ctx context.Context) error {
		return o.gw.Unstage(ctx, o.path, files)
	})
}

// Discard reverts unstaged modifications to the given tracked files.
func (o *Orchestrator) Discard(ctx context.Context, files ...string) error {
	return o.run(ctx, OpDiscard, func(ctx context.Context) error {
		return o.gw.DiscardChanges(ctx, o.path, files)
	})
}

// CleanUntracked deletes one untracked file.
func (o *Orchestrator) CleanUntracked(ctx context.Context, file string) error {
	return o.run(ctx, OpCleanUntracked, func(ctx context.Context) error {
		return o.gw.CleanUntracked(ctx, o.path, file)
	})
}

// ── Commits ──────────────────────────────────────────────────────────

// Commit records the staged changes with the given message.
func (o *Orchestrator) Commit(ctx context.Context, message string) error {
	return o.run(ctx, OpCommit, func(ctx context.Context) error {
		return o.gw.Commit(ctx, o.path, message)
	})
}

// CommitAmend rewrites the last commit. An empty message keeps the existing
// one (--no-edit); a non-empty message overrides it.
func (o *Orchestrator) CommitAmend(ctx context.Context, message string) error {
	return o.run(ctx, OpCommitAmend, func(ctx context.Context) error {
		return o.gw.CommitAmend(ctx, o.path, message, message == "")
	})
}

// ── Remote sync ──────────────────────────────────────────────────────

// Push uploads local commits to the upstream. Refused without a remote, with
// nothing to push, or while a multi-step operation is in progress.
func (o *Orchestrator) Push(ctx context.Context) error {
	snap := o.Snapshot()
	if !snap.HasRemote {
		return domain.ErrNoRemote
	}
	if snap.Ahead == 0 {
		return domain.ErrNothingToPush
	}
	if err := o.requireIdleProgress(OpPush); err != nil {
		return err
	}
	return o.run(ctx, OpPush, func(ctx context.Context) error {
		return o.gw.Push(ctx, o.path)
	})
}

// Pull integrates upstream commits. Refused without a remote, with nothing to
// pull, or while a multi-step operation is in progress.
func (o *Orchestrator) Pull(ctx context.Context) error {
	snap := o.Snapshot()
	if !snap.HasRemote {
		return domain.ErrNoRemote
	}
	if snap.Behind == 0 {
		return domain.ErrNothingToPull
	}
	if err := o.requireIdleProgress(OpPull); err != nil {
		return err
	}
	return o.run(ctx, OpPull, func(ctx context.Context) error {
		return o.gw.Pull(ctx, o.path)
	})
}

// FetchRemote updates remote-tracking refs. Refused without a remote or while
// a multi-step operation is in progress.
func (o *Orchestrator) FetchRemote(ctx context.Context) error {
	if !o.Snapshot().HasRemote {
		return domain.ErrNoRemote
	}
	if err := o.requireIdleProgress(OpFetch); err != nil {
		return err
	}
	return o.run(ctx, OpFetch, func(ctx context.Context) error {
		return o.gw.Fetch(ctx, o.path)
	})
}

// ── Branches ─────────────────────────────────────────────────────────

// Checkout switches branches. Callers go through the CheckoutGuard, which
// only delegates here with a clean tree or straight after a confirmed
// discard.
func (o *Orchestrator) Checkout(ctx context.Context, branch string) error {
	return o.run(ctx, OpCheckout, func(ctx context.Context) error {
		return o.gw.Checkout(ctx, o.path, branch)
	})
}

// CreateBranch creates a branch, optionally checking it out.
func (o *Orchestrator) CreateBranch(ctx context.Context, name string, checkout bool) error {
	return o.run(ctx, OpCreateBranch, func(ctx context.Context) error {
		return o.gw.CreateBranch(ctx, o.path, name, checkout)
	})
}

// DeleteBranch deletes a local branch. The current branch is never deletable;
// protected branches require the force flag.
func (o *Orchestrator) DeleteBranch(ctx context.Context, name string, force bool) error {
	snap := o.Snapshot()
	if name == snap.CurrentBranch {
		return fmt.Errorf("%w: %s", domain.ErrDeleteCurrentBranch, name)
	}
	if !force && o.isProtected(name) {
		return fmt.Errorf("%w: %s", domain.ErrProtectedBranch, name)
	}
	return o.run(ctx, OpDeleteBranch, func(ctx context.Context) error {
		return o.gw.DeleteBranch(ctx, o.path, name, force)
	})
}

func (o *Orchestrator) isProtected(name string) bool {
	for _, p := range o.protected {
		if name == p {
			return true
		}
	}
	return false
}

// ── Merge ────────────────────────────────────────────────────────────

// Merge merges branch into the current branch.
func (o *Orchestrator) Merge(ctx context.Context, branch string, opts MergeOptions) error {
	if err := o.requireIdleProgress(OpMerge); err != nil {
		return err
	}
	return o.run(ctx, OpMerge, func(ctx context.Context) error {
		return o.gw.Merge(ctx, o.path, branch, opts)
	})
}

// MergeContinue concludes an in-progress merge once conflicts are staged,
// committing with the message git prepared for the merge.
func (o *Orchestrator) MergeContinue(ctx context.Context) error {
	return o.run(ctx, OpMergeContinue, func(ctx context.Context) error {
		return o.gw.MergeContinue(ctx, o.path)
	})
}

// MergeAbort abandons an in-progress merge.
func (o *Orchestrator) MergeAbort(ctx context.Context) error {
	return o.run(ctx, OpMergeAbort, func(ctx context.Context) error {
		return o.gw.MergeAbort(ctx, o.path)
	})
}

// ── Stash ────────────────────────────────────────────────────────────

// StashPush stashes the working tree with an optional message.
func (o *Orchestrator) StashPush(ctx context.Context, message string) error {
	return o.run(ctx, OpStashPush, func(ctx context.Context) error {
		return o.gw.StashPush(ctx, o.path, message)
	})
}

// StashPop applies and drops the stash at index.
func (o *Orchestrator) StashPop(ctx context.Context, index int) error {
	return o.run(ctx, OpStashPop, func(ctx context.Context) error {
		return o.gw.StashPop(ctx, o.path, index)
	})
}

// StashApply applies the stash at index, keeping it in the list.
func (o *Orchestrator) StashApply(ctx context.Context, index int) error {
	return o.run(ctx, OpStashApply, func(ctx context.Context) error {
		return o.gw.StashApply(ctx, o.path, index)
	})
}

// StashDrop deletes the stash at index.
func (o *Orchestrator) StashDrop(ctx context.Context, index int) error {
	return o.run(ctx, OpStashDrop, func(ctx context.Context) error {
		return o.gw.StashDrop(ctx, o.path, index)
	})
}

// ── Cherry-pick ──────────────────────────────────────────────────────

// CherryPick applies the given commit onto the current branch.
func (o *Orchestrator) CherryPick(ctx context.Context, hash string) error {
	if err := o.requireIdleProgress(OpCherryPick); err != nil {
		return err
	}
	return o.run(ctx, OpCherryPick, func(ctx context.Context) error {
		return o.gw.CherryPick(ctx, o.path, hash)
	})
}

// CherryPickAbort abandons an in-progress cherry-pick.
func (o *Orchestrator) CherryPickAbort(ctx context.Context) error {
	return o.run(ctx, OpCherryPickAbort, func(ctx context.Context) error {
		return o.gw.CherryPickAbort(ctx, o.path)
	})
}

// CherryPickContinue resumes a cherry-pick after conflict resolution.
func (o *Orchestrator) CherryPickContinue(ctx context.Context) error {
	return o.run(ctx, OpCherryPickContinue, func(ctx context.Context) error {
		return o.gw.CherryPickContinue(ctx, o.path)
	})
}

// ── Rebase ───────────────────────────────────────────────────────────

// Rebase rebases the current branch onto branch.
func (o *Orchestrator) Rebase(ctx context.Context, branch string) error {
	if err := o.requireIdleProgress(OpRebase); err != nil {
		return err
	}
	return o.run(ctx, OpRebase, func(ctx context.Context) error {
		return o.gw.Rebase(ctx, o.path, branch)
	})
}

// RebaseAbort abandons an in-progress rebase.
func (o *Orchestrator) RebaseAbort(ctx context.Context) error {
	return o.run(ctx, OpRebaseAbort, func(ctx context.Context) error {
		return o.gw.RebaseAbort(ctx, o.path)
	})
}

// RebaseContinue resumes a rebase after conflict resolution.
func (o *Orchestrator) RebaseContinue(ctx context.Context) error {
	return o.run(ctx, OpRebaseContinue, func(ctx context.Context) error {
		return o.gw.RebaseContinue(ctx, o.path)
	})
}

// RebaseSkip skips the current commit of an in-progress rebase.
func (o *Orchestrator) RebaseSkip(ctx context.Context) error {
	return o.run(ctx, OpRebaseSkip, func(ctx context.Context) error {
		return o.gw.RebaseSkip(ctx, o.path)
	})
}

// ── Tags ─────────────────────────────────────────────────────────────

// CreateTag creates a tag at opts.Commit (HEAD when empty).
func (o *Orchestrator) CreateTag(ctx context.Context, name string, opts TagOptions) error {
	return o.run(ctx, OpCreateTag, func(ctx context.Context) error {
		return o.gw.CreateTag(ctx, o.path, name, opts)
	})
}

// DeleteTag deletes a tag.
func (o *Orchestrator) DeleteTag(ctx context.Context, name string) error {
	return o.run(ctx, OpDeleteTag, func(ctx context.Context) error {
		return o.gw.DeleteTag(ctx, o.path, name)
	})
}

// ── Conflict resolution ──────────────────────────────────────────────

// ResolveOurs resolves a conflicted file with our side.
func (o *Orchestrator) ResolveOurs(ctx context.Context, file string) error {
	return o.run(ctx, OpResolveOurs, func(ctx context.Context) error {
		return o.gw.ResolveOurs(ctx, o.path, file)
	})
}

// ResolveTheirs resolves a conflicted file with their side.
func (o *Orchestrator) ResolveTheirs(ctx context.Context, file string) error {
	return o.run(ctx, OpResolveTheirs, func(ctx context.Context) error {
		return o.gw.ResolveTheirs(ctx, o.path, file)
	})
}

// ── Inspection queries ───────────────────────────────────────────────
//
// Read-only lookups the panel fetches on demand. They bypass the in-flight
// token: inspecting history never mutates the working copy.

// Diff returns raw diff text for the given selection.
func (o *Orchestrator) Diff(ctx context.Context, opts DiffOptions) (string, error) {
	return o.gw.DiffRaw(ctx, o.path, opts)
}

// ShowCommit returns the full `git show` text for one commit.
func (o *Orchestrator) ShowCommit(ctx context.Context, hash string) (string, error) {
	return o.gw.ShowCommit(ctx, o.path, hash)
}

// FileHistory returns the commits that touched one file, renames followed.
func (o *Orchestrator) FileHistory(ctx context.Context, file string, count int) ([]domain.CommitInfo, error) {
	return o.gw.FileHistory(ctx, o.path, file, count)
}

// Blame returns per-line authorship for one file.
func (o *Orchestrator) Blame(ctx context.Context, file string) (string, error) {
	return o.gw.Blame(ctx, o.path, file)
}

// Reflog returns the recent HEAD reflog entries.
func (o *Orchestrator) Reflog(ctx context.Context) ([]domain.ReflogEntry, error) {
	return o.gw.Reflog(ctx, o.path)
}

// ── History surgery and bootstrap ────────────────────────────────────

// ResetToReflog resets HEAD to the given reflog entry.
func (o *Orchestrator) ResetToReflog(ctx context.Context, index int, hard bool) error {
	return o.run(ctx, OpResetReflog, func(ctx context.Context) error {
		return o.gw.ResetToReflog(ctx, o.path, index, hard)
	})
}

// InitRepo initializes a repository at the working path.
func (o *Orchestrator) InitRepo(ctx context.Context) error {
	return o.run(ctx, OpInit, func(ctx context.Context) error {
		return o.gw.Init(ctx, o.path)
	})
}
