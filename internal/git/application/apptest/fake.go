// Package apptest provides test doubles for the git application layer.
package apptest

import (
	"context"
	"sync"
	"time"

	"github.com/zjrosen/gitpane/internal/git/application"
	"github.com/zjrosen/gitpane/internal/git/domain"
)

// FixedClock returns a constant time.
type FixedClock struct {
	T time.Time
}

// Now implements application.Clock.
func (c FixedClock) Now() time.Time { return c.T }

// FakeGateway is a scriptable in-memory Gateway. Query results come from the
// public fields; every mutation is recorded by name. Errors are injected per
// call name via QueryErr and MutateErr, and Block makes mutations wait until
// the channel is closed.
type FakeGateway struct {
	mu sync.Mutex

	IsRepo   bool
	Status   application.StatusPayload
	Branch   []domain.BranchInfo
	Commits  []domain.CommitInfo
	Remote   domain.RemoteState
	Stashes  []domain.StashEntry
	TagList  []domain.TagInfo
	Confl    []string
	Merging  bool
	Picking  bool
	Rebasing bool
	Prefixes []string

	// Inspection query results.
	DiffText   string
	ShowText   string
	BlameText  string
	History    []domain.CommitInfo
	ReflogList []domain.ReflogEntry

	QueryErr  map[string]error
	MutateErr map[string]error

	// Block, when non-nil, stalls every mutation until closed.
	Block chan struct{}

	// OnMutate, when set, runs after a successful mutation is recorded,
	// letting tests evolve the fake's state (e.g. unstage moving changes).
	OnMutate func(name string, args []string)

	fetches   int
	mutations []string

	// concurrent mutation tracking for mutual-exclusion assertions
	active    int
	maxActive int
}

// NewFakeGateway returns a fake for a repository on main with no changes.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		IsRepo:    true,
		Status:    application.StatusPayload{Branch: "main"},
		Branch:    []domain.BranchInfo{{Name: "main", IsCurrent: true}},
		QueryErr:  map[string]error{},
		MutateErr: map[string]error{},
	}
}

// Fetches returns how many full fetch cycles ran (IsRepository probes).
func (f *FakeGateway) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// Mutations returns the ordered names of recorded mutating calls.
func (f *FakeGateway) Mutations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.mutations))
	copy(out, f.mutations)
	return out
}

// MaxConcurrentMutations reports the peak number of mutations that were
// executing at the same time.
func (f *FakeGateway) MaxConcurrentMutations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxActive
}

func (f *FakeGateway) queryErr(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.QueryErr[name]
}

func (f *FakeGateway) mutate(name string, args ...string) error {
	f.mu.Lock()
	block := f.Block
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	f.active--
	err := f.MutateErr[name]
	if err == nil {
		f.mutations = append(f.mutations, name)
	}
	hook := f.OnMutate
	f.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(name, args)
	}
	return nil
}

// ── Queries ──────────────────────────────────────────────────────────

func (f *FakeGateway) IsRepository(context.Context, string) (bool, error) {
	f.mu.Lock()
	f.fetches++
	isRepo := f.IsRepo
	f.mu.Unlock()
	if err := f.queryErr("isRepository"); err != nil {
		return false, err
	}
	return isRepo, nil
}

func (f *FakeGateway) DetailedStatus(context.Context, string) (application.StatusPayload, error) {
	if err := f.queryErr("detailedStatus"); err != nil {
		return application.StatusPayload{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Status, nil
}

func (f *FakeGateway) Branches(context.Context, string) ([]domain.BranchInfo, error) {
	if err := f.queryErr("branches"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Branch, nil
}

func (f *FakeGateway) LogDetailed(context.Context, string, int) ([]domain.CommitInfo, error) {
	if err := f.queryErr("logDetailed"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Commits, nil
}

func (f *FakeGateway) AheadBehind(context.Context, string) (domain.RemoteState, error) {
	if err := f.queryErr("aheadBehind"); err != nil {
		return domain.RemoteState{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Remote, nil
}

func (f *FakeGateway) StashList(context.Context, string) ([]domain.StashEntry, error) {
	if err := f.queryErr("stashList"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Stashes, nil
}

func (f *FakeGateway) MergeInProgress(context.Context, string) (bool, error) {
	if err := f.queryErr("mergeInProgress"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Merging, nil
}

func (f *FakeGateway) CherryPickInProgress(context.Context, string) (bool, error) {
	if err := f.queryErr("cherryPickInProgress"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Picking, nil
}

func (f *FakeGateway) RebaseInProgress(context.Context, string) (bool, error) {
	if err := f.queryErr("rebaseInProgress"); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Rebasing, nil
}

func (f *FakeGateway) Tags(context.Context, string) ([]domain.TagInfo, error) {
	if err := f.queryErr("tags"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.TagList, nil
}

func (f *FakeGateway) ConflictFiles(context.Context, string) ([]string, error) {
	if err := f.queryErr("conflictFiles"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Confl, nil
}

func (f *FakeGateway) ConventionalPrefixes(context.Context, string) ([]string, error) {
	if err := f.queryErr("conventionalPrefixes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Prefixes, nil
}

// ── Mutations ────────────────────────────────────────────────────────

func (f *FakeGateway) Stage(_ context.Context, _ string, files []string) error {
	return f.mutate("stage", files...)
}

func (f *FakeGateway) Unstage(_ context.Context, _ string, files []string) error {
	return f.mutate("unstage", files...)
}

func (f *FakeGateway) DiscardChanges(_ context.Context, _ string, files []string) error {
	return f.mutate("discardChanges", files...)
}

func (f *FakeGateway) CleanUntracked(_ context.Context, _ string, file string) error {
	return f.mutate("cleanUntracked", file)
}

func (f *FakeGateway) Commit(_ context.Context, _ string, message string) error {
	return f.mutate("commit", message)
}

func (f *FakeGateway) CommitAmend(_ context.Context, _ string, message string, noEdit bool) error {
	if noEdit {
		return f.mutate("commitAmend", "--no-edit")
	}
	return f.mutate("commitAmend", message)
}

func (f *FakeGateway) Push(context.Context, string) error  { return f.mutate("push") }
func (f *FakeGateway) Pull(context.Context, string) error  { return f.mutate("pull") }
func (f *FakeGateway) Fetch(context.Context, string) error { return f.mutate("fetch") }

func (f *FakeGateway) Checkout(_ context.Context, _ string, branch string) error {
	return f.mutate("checkout", branch)
}

func (f *FakeGateway) CreateBranch(_ context.Context, _ string, name string, _ bool) error {
	return f.mutate("createBranch", name)
}

func (f *FakeGateway) DeleteBranch(_ context.Context, _ string, name string, _ bool) error {
	return f.mutate("deleteBranch", name)
}

func (f *FakeGateway) Merge(_ context.Context, _ string, branch string, _ application.MergeOptions) error {
	return f.mutate("merge", branch)
}

func (f *FakeGateway) MergeContinue(context.Context, string) error {
	return f.mutate("mergeContinue")
}

func (f *FakeGateway) MergeAbort(context.Context, string) error { return f.mutate("mergeAbort") }

func (f *FakeGateway) StashPush(_ context.Context, _ string, message string) error {
	return f.mutate("stashPush", message)
}

func (f *FakeGateway) StashPop(context.Context, string, int) error   { return f.mutate("stashPop") }
func (f *FakeGateway) StashApply(context.Context, string, int) error { return f.mutate("stashApply") }
func (f *FakeGateway) StashDrop(context.Context, string, int) error  { return f.mutate("stashDrop") }

func (f *FakeGateway) CherryPick(_ context.Context, _ string, hash string) error {
	return f.mutate("cherryPick", hash)
}

func (f *FakeGateway) CherryPickAbort(context.Context, string) error {
	return f.mutate("cherryPickAbort")
}

func (f *FakeGateway) CherryPickContinue(context.Context, string) error {
	return f.mutate("cherryPickContinue")
}

func (f *FakeGateway) Rebase(_ context.Context, _ string, branch string) error {
	return f.mutate("rebase", branch)
}

func (f *FakeGateway) RebaseAbort(context.Context, string) error    { return f.mutate("rebaseAbort") }
func (f *FakeGateway) RebaseContinue(context.Context, string) error { return f.mutate("rebaseContinue") }
func (f *FakeGateway) RebaseSkip(context.Context, string) error     { return f.mutate("rebaseSkip") }

func (f *FakeGateway) CreateTag(_ context.Context, _ string, name string, _ application.TagOptions) error {
	return f.mutate("createTag", name)
}

func (f *FakeGateway) DeleteTag(_ context.Context, _ string, name string) error {
	return f.mutate("deleteTag", name)
}

func (f *FakeGateway) ResolveOurs(_ context.Context, _ string, file string) error {
	return f.mutate("resolveOurs", file)
}

func (f *FakeGateway) ResolveTheirs(_ context.Context, _ string, file string) error {
	return f.mutate("resolveTheirs", file)
}

// ── Inspection ───────────────────────────────────────────────────────

func (f *FakeGateway) FileHistory(context.Context, string, string, int) ([]domain.CommitInfo, error) {
	if err := f.queryErr("fileHistory"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.History, nil
}

func (f *FakeGateway) Blame(context.Context, string, string) (string, error) {
	if err := f.queryErr("blame"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.BlameText, nil
}

func (f *FakeGateway) Reflog(context.Context, string) ([]domain.ReflogEntry, error) {
	if err := f.queryErr("reflog"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ReflogList, nil
}

func (f *FakeGateway) ShowCommit(context.Context, string, string) (string, error) {
	if err := f.queryErr("showCommit"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ShowText, nil
}

func (f *FakeGateway) DiffRaw(context.Context, string, application.DiffOptions) (string, error) {
	if err := f.queryErr("diffRaw"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.DiffText, nil
}

// ── History surgery and bootstrap ────────────────────────────────────

func (f *FakeGateway) ResetToReflog(_ context.Context, _ string, _ int, _ bool) error {
	return f.mutate("resetToReflog")
}

func (f *FakeGateway) Init(context.Context, string) error { return f.mutate("init") }

// Ensure the fake satisfies the port at compile time.
var _ application.Gateway = (*FakeGateway)(nil)
