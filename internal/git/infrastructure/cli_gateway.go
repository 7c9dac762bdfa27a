package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/zjrosen/gitpane/internal/git/application"
	"github.com/zjrosen/gitpane/internal/git/domain"
)

// CLIGateway implements application.Gateway by shelling out to git.
type CLIGateway struct {
	runner Runner
}

// NewCLIGateway creates a gateway backed by the given runner.
func NewCLIGateway(runner Runner) *CLIGateway {
	return &CLIGateway{runner: runner}
}

// Ensure CLIGateway implements the port at compile time.
var _ application.Gateway = (*CLIGateway)(nil)

// git runs one git command and wraps failures in *domain.GitError so callers
// can inspect stderr.
func (g *CLIGateway) git(ctx context.Context, dir, op string, args ...string) (string, error) {
	stdout, stderr, err := g.runner.Run(ctx, dir, args...)
	if err != nil {
		return stdout, &domain.GitError{Op: op, Stderr: stderr, Err: err}
	}
	return stdout, nil
}

// exitedNonZero reports whether err is a normal non-zero git exit rather
// than a failure to run git at all.
func exitedNonZero(err error) bool {
	var gitErr *domain.GitError
	if errors.As(err, &gitErr) {
		err = gitErr.Err
	}
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr)
}

// ── Queries ──────────────────────────────────────────────────────────

// IsRepository probes whether path is inside a git work tree. A negative
// answer is a valid state, not an error.
func (g *CLIGateway) IsRepository(ctx context.Context, path string) (bool, error) {
	out, err := g.git(ctx, path, "rev-parse", "rev-parse", "--is-inside-work-tree")
	if err != nil {
		if exitedNonZero(err) {
			return false, nil
		}
		return false, err
	}
	return strings.TrimSpace(out) == "true", nil
}

func (g *CLIGateway) DetailedStatus(ctx context.Context, path string) (application.StatusPayload, error) {
	branch, err := g.currentBranch(ctx, path)
	if err != nil {
		return application.StatusPayload{}, err
	}
	out, err := g.git(ctx, path, "status", "status", "--porcelain", "-z")
	if err != nil {
		return application.StatusPayload{}, err
	}
	staged, unstaged, untracked := parsePorcelainStatus(out)
	return application.StatusPayload{
		Branch:    branch,
		Staged:    staged,
		Unstaged:  unstaged,
		Untracked: untracked,
	}, nil
}

func (g *CLIGateway) currentBranch(ctx context.Context, path string) (string, error) {
	out, err := g.git(ctx, path, "rev-parse", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		// Unborn HEAD in a fresh repository has no name yet.
		if exitedNonZero(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *CLIGateway) Branches(ctx context.Context, path string) ([]domain.BranchInfo, error) {
	out, err := g.git(ctx, path, "for-each-ref",
		"for-each-ref", "refs/heads", "--format=%(refname:short)%00%(HEAD)")
	if err != nil {
		return nil, err
	}
	return parseBranches(out), nil
}

func (g *CLIGateway) LogDetailed(ctx context.Context, path string, count int) ([]domain.CommitInfo, error) {
	out, err := g.git(ctx, path, "log",
		"log", fmt.Sprintf("-%d", count), "--pretty=format:%H%x1f%h%x1f%an%x1f%aI%x1f%s%x1e")
	if err != nil {
		// An empty repository has no log; that is a valid empty result.
		if exitedNonZero(err) {
			return []domain.CommitInfo{}, nil
		}
		return nil, err
	}
	return parseLog(out), nil
}

func (g *CLIGateway) AheadBehind(ctx context.Context, path string) (domain.RemoteState, error) {
	var state domain.RemoteState

	remotes, err := g.git(ctx, path, "remote", "remote")
	if err != nil {
		return state, err
	}
	state.HasRemote = strings.TrimSpace(remotes) != ""
	if !state.HasRemote {
		return state, nil
	}

	if _, err := g.git(ctx, path, "rev-parse",
		"rev-parse", "--abbrev-ref", "--symbolic-full-name", "@{upstream}"); err != nil {
		if exitedNonZero(err) {
			return state, nil // no upstream configured
		}
		return state, err
	}
	state.HasUpstream = true

	out, err := g.git(ctx, path, "rev-list",
		"rev-list", "--left-right", "--count", "@{upstream}...HEAD")
	if err != nil {
		return state, err
	}
	behind, ahead, perr := parseAheadBehind(out)
	if perr != nil {
		return state, perr
	}
	state.Behind = behind
	state.Ahead = ahead
	return state, nil
}

func (g *CLIGateway) StashList(ctx context.Context, path string) ([]domain.StashEntry, error) {
	out, err := g.git(ctx, path, "stash", "stash", "list", "--format=%gd%x1f%gs")
	if err != nil {
		return nil, err
	}
	return parseStashList(out), nil
}

func (g *CLIGateway) MergeInProgress(ctx context.Context, path string) (bool, error) {
	return g.refExists(ctx, path, "MERGE_HEAD")
}

func (g *CLIGateway) CherryPickInProgress(ctx context.Context, path string) (bool, error) {
	return g.refExists(ctx, path, "CHERRY_PICK_HEAD")
}

func (g *CLIGateway) refExists(ctx context.Context, path, ref string) (bool, error) {
	_, err := g.git(ctx, path, "rev-parse", "rev-parse", "--verify", "--quiet", ref)
	if err != nil {
		if exitedNonZero(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// RebaseInProgress checks git's on-disk rebase directories; unlike merge and
// cherry-pick there is no ref to verify.
func (g *CLIGateway) RebaseInProgress(ctx context.Context, path string) (bool, error) {
	for _, marker := range []string{"rebase-merge", "rebase-apply"} {
		out, err := g.git(ctx, path, "rev-parse", "rev-parse", "--git-path", marker)
		if err != nil {
			return false, err
		}
		dir := strings.TrimSpace(out)
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(path, dir)
		}
		if _, err := os.Stat(dir); err == nil {
			return true, nil
		}
	}
	return false, nil
}

func (g *CLIGateway) Tags(ctx context.Context, path string) ([]domain.TagInfo, error) {
	out, err := g.git(ctx, path, "for-each-ref",
		"for-each-ref", "refs/tags", "--format=%(refname:short)%00%(objectname)%00%(contents:subject)")
	if err != nil {
		return nil, err
	}
	return parseTags(out), nil
}

func (g *CLIGateway) ConflictFiles(ctx context.Context, path string) ([]string, error) {
	out, err := g.git(ctx, path, "diff", "diff", "--name-only", "--diff-filter=U", "-z")
	if err != nil {
		return nil, err
	}
	var files []string
	for _, f := range strings.Split(out, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// ConventionalPrefixes discovers the project's commit-type vocabulary by
// scanning recent commit subjects. Returns an empty list when the history
// shows no conventional commits; the fetcher falls back to the defaults.
func (g *CLIGateway) ConventionalPrefixes(ctx context.Context, path string) ([]string, error) {
	out, err := g.git(ctx, path, "log", "log", "-100", "--pretty=%s")
	if err != nil {
		if exitedNonZero(err) {
			return nil, nil
		}
		return nil, err
	}
	return parseConventionalPrefixes(out), nil
}

// ── Mutations ────────────────────────────────────────────────────────

func (g *CLIGateway) Stage(ctx context.Context, path string, files []string) error {
	_, err := g.git(ctx, path, "add", append([]string{"add", "--"}, files...)...)
	return err
}

func (g *CLIGateway) Unstage(ctx context.Context, path string, files []string) error {
	_, err := g.git(ctx, path, "restore", append([]string{"restore", "--staged", "--"}, files...)...)
	return err
}

func (g *CLIGateway) DiscardChanges(ctx context.Context, path string, files []string) error {
	_, err := g.git(ctx, path, "restore", append([]string{"restore", "--"}, files...)...)
	return err
}

func (g *CLIGateway) CleanUntracked(ctx context.Context, path, file string) error {
	_, err := g.git(ctx, path, "clean", "clean", "-f", "--", file)
	return err
}

func (g *CLIGateway) Commit(ctx context.Context, path, message string) error {
	_, err := g.git(ctx, path, "commit", "commit", "-m", message)
	return err
}

func (g *CLIGateway) CommitAmend(ctx context.Context, path, message string, noEdit bool) error {
	args := []string{"commit", "--amend"}
	if noEdit {
		args = append(args, "--no-edit")
	} else {
		args = append(args, "-m", message)
	}
	_, err := g.git(ctx, path, "commit", args...)
	return err
}

func (g *CLIGateway) Push(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "push", "push")
	return err
}

func (g *CLIGateway) Pull(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "pull", "pull")
	return err
}

func (g *CLIGateway) Fetch(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "fetch", "fetch", "--prune")
	return err
}

func (g *CLIGateway) Checkout(ctx context.Context, path, branch string) error {
	_, err := g.git(ctx, path, "checkout", "checkout", branch)
	return err
}

func (g *CLIGateway) CreateBranch(ctx context.Context, path, name string, checkout bool) error {
	if checkout {
		_, err := g.git(ctx, path, "checkout", "checkout", "-b", name)
		return err
	}
	_, err := g.git(ctx, path, "branch", "branch", name)
	return err
}

func (g *CLIGateway) DeleteBranch(ctx context.Context, path, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	_, err := g.git(ctx, path, "branch", "branch", flag, name)
	return err
}

func (g *CLIGateway) Merge(ctx context.Context, path, branch string, opts application.MergeOptions) error {
	args := []string{"merge"}
	if opts.NoFF {
		args = append(args, "--no-ff")
	}
	if opts.Squash {
		args = append(args, "--squash")
	}
	args = append(args, branch)
	_, err := g.git(ctx, path, "merge", args...)
	return err
}

// MergeContinue commits the resolved merge. A bare `commit --no-edit` picks
// up the MERGE_MSG git prepared, without opening an editor.
func (g *CLIGateway) MergeContinue(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "commit", "commit", "--no-edit")
	return err
}

func (g *CLIGateway) MergeAbort(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "merge", "merge", "--abort")
	return err
}

func (g *CLIGateway) StashPush(ctx context.Context, path, message string) error {
	args := []string{"stash", "push"}
	if message != "" {
		args = append(args, "-m", message)
	}
	_, err := g.git(ctx, path, "stash", args...)
	return err
}

func (g *CLIGateway) StashPop(ctx context.Context, path string, index int) error {
	_, err := g.git(ctx, path, "stash", "stash", "pop", fmt.Sprintf("stash@{%d}", index))
	return err
}

func (g *CLIGateway) StashApply(ctx context.Context, path string, index int) error {
	_, err := g.git(ctx, path, "stash", "stash", "apply", fmt.Sprintf("stash@{%d}", index))
	return err
}

func (g *CLIGateway) StashDrop(ctx context.Context, path string, index int) error {
	_, err := g.git(ctx, path, "stash", "stash", "drop", fmt.Sprintf("stash@{%d}", index))
	return err
}

func (g *CLIGateway) CherryPick(ctx context.Context, path, hash string) error {
	_, err := g.git(ctx, path, "cherry-pick", "cherry-pick", hash)
	return err
}

func (g *CLIGateway) CherryPickAbort(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "cherry-pick", "cherry-pick", "--abort")
	return err
}

func (g *CLIGateway) CherryPickContinue(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "cherry-pick", "cherry-pick", "--continue")
	return err
}

func (g *CLIGateway) Rebase(ctx context.Context, path, branch string) error {
	_, err := g.git(ctx, path, "rebase", "rebase", branch)
	return err
}

func (g *CLIGateway) RebaseAbort(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "rebase", "rebase", "--abort")
	return err
}

func (g *CLIGateway) RebaseContinue(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "rebase", "rebase", "--continue")
	return err
}

func (g *CLIGateway) RebaseSkip(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "rebase", "rebase", "--skip")
	return err
}

func (g *CLIGateway) CreateTag(ctx context.Context, path, name string, opts application.TagOptions) error {
	var args []string
	if opts.Message != "" {
		args = []string{"tag", "-a", name, "-m", opts.Message}
	} else {
		args = []string{"tag", name}
	}
	if opts.Commit != "" {
		args = append(args, opts.Commit)
	}
	_, err := g.git(ctx, path, "tag", args...)
	return err
}

func (g *CLIGateway) DeleteTag(ctx context.Context, path, name string) error {
	_, err := g.git(ctx, path, "tag", "tag", "-d", name)
	return err
}

// ResolveOurs keeps our side of a conflicted file and stages it.
func (g *CLIGateway) ResolveOurs(ctx context.Context, path, file string) error {
	return g.resolve(ctx, path, file, "--ours")
}

// ResolveTheirs keeps their side of a conflicted file and stages it.
func (g *CLIGateway) ResolveTheirs(ctx context.Context, path, file string) error {
	return g.resolve(ctx, path, file, "--theirs")
}

func (g *CLIGateway) resolve(ctx context.Context, path, file, side string) error {
	if _, err := g.git(ctx, path, "checkout", "checkout", side, "--", file); err != nil {
		return err
	}
	_, err := g.git(ctx, path, "add", "add", "--", file)
	return err
}

// ── Inspection ───────────────────────────────────────────────────────

func (g *CLIGateway) FileHistory(ctx context.Context, path, file string, count int) ([]domain.CommitInfo, error) {
	out, err := g.git(ctx, path, "log",
		"log", fmt.Sprintf("-%d", count), "--follow",
		"--pretty=format:%H%x1f%h%x1f%an%x1f%aI%x1f%s%x1e", "--", file)
	if err != nil {
		return nil, err
	}
	return parseLog(out), nil
}

func (g *CLIGateway) Blame(ctx context.Context, path, file string) (string, error) {
	return g.git(ctx, path, "blame", "blame", "--date=short", "--", file)
}

func (g *CLIGateway) Reflog(ctx context.Context, path string) ([]domain.ReflogEntry, error) {
	out, err := g.git(ctx, path, "reflog", "reflog", "-50", "--format=%h%x1f%gs%x1f%s")
	if err != nil {
		if exitedNonZero(err) {
			return []domain.ReflogEntry{}, nil
		}
		return nil, err
	}
	return parseReflog(out), nil
}

func (g *CLIGateway) ShowCommit(ctx context.Context, path, hash string) (string, error) {
	return g.git(ctx, path, "show", "show", hash)
}

func (g *CLIGateway) DiffRaw(ctx context.Context, path string, opts application.DiffOptions) (string, error) {
	var args []string
	switch {
	case opts.Commit != "":
		args = []string{"show", opts.Commit}
	case opts.Staged:
		args = []string{"diff", "--cached"}
	default:
		args = []string{"diff"}
	}
	if opts.File != "" {
		args = append(args, "--", opts.File)
	}
	return g.git(ctx, path, args[0], args...)
}

// ── History surgery and bootstrap ────────────────────────────────────

func (g *CLIGateway) ResetToReflog(ctx context.Context, path string, index int, hard bool) error {
	mode := "--mixed"
	if hard {
		mode = "--hard"
	}
	_, err := g.git(ctx, path, "reset", "reset", mode, fmt.Sprintf("HEAD@{%d}", index))
	return err
}

func (g *CLIGateway) Init(ctx context.Context, path string) error {
	_, err := g.git(ctx, path, "init", "init")
	return err
}
