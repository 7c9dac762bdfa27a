package infrastructure

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gitpane/internal/git/application"
	"github.com/zjrosen/gitpane/internal/git/domain"
)

type runnerResponse struct {
	stdout string
	stderr string
	err    error
}

// fakeRunner maps a space-joined git argument list to a canned response.
// Unknown commands succeed with empty output.
type fakeRunner struct {
	responses map[string]runnerResponse
	calls     []string
}

func (r *fakeRunner) Run(_ context.Context, _ string, args ...string) (string, string, error) {
	key := strings.Join(args, " ")
	r.calls = append(r.calls, key)
	if resp, ok := r.responses[key]; ok {
		return resp.stdout, resp.stderr, resp.err
	}
	return "", "", nil
}

func newFakeGatewayRunner() (*CLIGateway, *fakeRunner) {
	r := &fakeRunner{responses: map[string]runnerResponse{}}
	return NewCLIGateway(r), r
}

func exitError() error { return &exec.ExitError{} }

func TestIsRepository(t *testing.T) {
	t.Run("inside work tree", func(t *testing.T) {
		gw, r := newFakeGatewayRunner()
		r.responses["rev-parse --is-inside-work-tree"] = runnerResponse{stdout: "true\n"}
		ok, err := gw.IsRepository(context.Background(), "/repo")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("non-zero exit means not a repository", func(t *testing.T) {
		gw, r := newFakeGatewayRunner()
		r.responses["rev-parse --is-inside-work-tree"] = runnerResponse{
			stderr: "fatal: not a git repository",
			err:    exitError(),
		}
		ok, err := gw.IsRepository(context.Background(), "/tmp")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("exec failure is an error", func(t *testing.T) {
		gw, r := newFakeGatewayRunner()
		r.responses["rev-parse --is-inside-work-tree"] = runnerResponse{
			err: errors.New("git: executable not found"),
		}
		_, err := gw.IsRepository(context.Background(), "/repo")
		require.Error(t, err)
	})
}

func TestDetailedStatus(t *testing.T) {
	gw, r := newFakeGatewayRunner()
	r.responses["rev-parse --abbrev-ref HEAD"] = runnerResponse{stdout: "feature/login\n"}
	r.responses["status --porcelain -z"] = runnerResponse{stdout: "M  a.go\x00 M b.go\x00?? c.txt\x00"}

	payload, err := gw.DetailedStatus(context.Background(), "/repo")
	require.NoError(t, err)
	require.Equal(t, "feature/login", payload.Branch)
	require.Len(t, payload.Staged, 1)
	require.Len(t, payload.Unstaged, 1)
	require.Len(t, payload.Untracked, 1)
}

func TestDetailedStatus_UnbornHeadHasNoBranchName(t *testing.T) {
	gw, r := newFakeGatewayRunner()
	r.responses["rev-parse --abbrev-ref HEAD"] = runnerResponse{
		stderr: "fatal: ambiguous argument 'HEAD'",
		err:    exitError(),
	}

	payload, err := gw.DetailedStatus(context.Background(), "/repo")
	require.NoError(t, err)
	require.Empty(t, payload.Branch)
}

func TestAheadBehind(t *testing.T) {
	t.Run("no remote", func(t *testing.T) {
		gw, r := newFakeGatewayRunner()
		r.responses["remote"] = runnerResponse{stdout: "\n"}
		state, err := gw.AheadBehind(context.Background(), "/repo")
		require.NoError(t, err)
		require.False(t, state.HasRemote)
		require.False(t, state.HasUpstream)
	})

	t.Run("remote without upstream", func(t *testing.T) {
		gw, r := newFakeGatewayRunner()
		r.responses["remote"] = runnerResponse{stdout: "origin\n"}
		r.responses["rev-parse --abbrev-ref --symbolic-full-name @{upstream}"] = runnerResponse{
			stderr: "fatal: no upstream configured",
			err:    exitError(),
		}
		state, err := gw.AheadBehind(context.Background(), "/repo")
		require.NoError(t, err)
		require.True(t, state.HasRemote)
		require.False(t, state.HasUpstream)
		require.Zero(t, state.Ahead)
	})

	t.Run("counts", func(t *testing.T) {
		gw, r := newFakeGatewayRunner()
		r.responses["remote"] = runnerResponse{stdout: "origin\n"}
		r.responses["rev-parse --abbrev-ref --symbolic-full-name @{upstream}"] = runnerResponse{stdout: "origin/main\n"}
		r.responses["rev-list --left-right --count @{upstream}...HEAD"] = runnerResponse{stdout: "2\t5\n"}
		state, err := gw.AheadBehind(context.Background(), "/repo")
		require.NoError(t, err)
		require.True(t, state.HasUpstream)
		require.Equal(t, 2, state.Behind)
		require.Equal(t, 5, state.Ahead)
	})
}

func TestLogDetailed_EmptyRepositoryIsEmptyResult(t *testing.T) {
	gw, r := newFakeGatewayRunner()
	r.responses["log -50 --pretty=format:%H%x1f%h%x1f%an%x1f%aI%x1f%s%x1e"] = runnerResponse{
		stderr: "fatal: your current branch 'main' does not have any commits yet",
		err:    exitError(),
	}
	commits, err := gw.LogDetailed(context.Background(), "/repo", 50)
	require.NoError(t, err)
	require.Empty(t, commits)
}

func TestMutationFailureCarriesStderr(t *testing.T) {
	gw, r := newFakeGatewayRunner()
	r.responses["commit -m feat: x"] = runnerResponse{
		stderr: "pre-commit hook failed",
		err:    exitError(),
	}

	err := gw.Commit(context.Background(), "/repo", "feat: x")
	var gitErr *domain.GitError
	require.ErrorAs(t, err, &gitErr)
	require.Equal(t, "commit", gitErr.Op)
	require.Contains(t, gitErr.Stderr, "pre-commit hook failed")
}

func TestResolveStagesAfterCheckout(t *testing.T) {
	gw, r := newFakeGatewayRunner()
	require.NoError(t, gw.ResolveTheirs(context.Background(), "/repo", "main.go"))
	require.Equal(t, []string{
		"checkout --theirs -- main.go",
		"add -- main.go",
	}, r.calls)
}

// Concluding a merge must not pass -m: an empty -m message makes git abort
// the commit, while --no-edit picks up the prepared MERGE_MSG.
func TestMergeContinueUsesPreparedMergeMessage(t *testing.T) {
	gw, r := newFakeGatewayRunner()
	require.NoError(t, gw.MergeContinue(context.Background(), "/repo"))
	require.Equal(t, []string{"commit --no-edit"}, r.calls)
}

func TestDiffRawArguments(t *testing.T) {
	tests := []struct {
		name string
		opts application.DiffOptions
		want string
	}{
		{name: "working tree", opts: application.DiffOptions{}, want: "diff"},
		{name: "staged", opts: application.DiffOptions{Staged: true}, want: "diff --cached"},
		{name: "one file", opts: application.DiffOptions{File: "a.go"}, want: "diff -- a.go"},
		{name: "commit overrides staged", opts: application.DiffOptions{Commit: "abc123", Staged: true}, want: "show abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, r := newFakeGatewayRunner()
			_, err := gw.DiffRaw(context.Background(), "/repo", tt.opts)
			require.NoError(t, err)
			require.Equal(t, []string{tt.want}, r.calls)
		})
	}
}

func TestResetToReflogArguments(t *testing.T) {
	gw, r := newFakeGatewayRunner()
	require.NoError(t, gw.ResetToReflog(context.Background(), "/repo", 2, false))
	require.NoError(t, gw.ResetToReflog(context.Background(), "/repo", 0, true))
	require.Equal(t, []string{
		"reset --mixed HEAD@{2}",
		"reset --hard HEAD@{0}",
	}, r.calls)
}

func TestCreateTagArguments(t *testing.T) {
	gw, r := newFakeGatewayRunner()
	require.NoError(t, gw.CreateTag(context.Background(), "/repo", "v1.0.0", application.TagOptions{}))
	require.NoError(t, gw.CreateTag(context.Background(), "/repo", "v1.1.0", application.TagOptions{
		Message: "release 1.1",
		Commit:  "abc123",
	}))
	require.Equal(t, []string{
		"tag v1.0.0",
		"tag -a v1.1.0 -m release 1.1 abc123",
	}, r.calls)
}

func TestDeleteBranchForceFlag(t *testing.T) {
	gw, r := newFakeGatewayRunner()
	require.NoError(t, gw.DeleteBranch(context.Background(), "/repo", "old", false))
	require.NoError(t, gw.DeleteBranch(context.Background(), "/repo", "old", true))
	require.Equal(t, []string{"branch -d old", "branch -D old"}, r.calls)
}
