package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gitpane/internal/git/application"
	"github.com/zjrosen/gitpane/internal/git/application/apptest"
	"github.com/zjrosen/gitpane/internal/git/domain"
)

func TestFetcher_NonRepositoryIsEmptySnapshotNotError(t *testing.T) {
	gw := apptest.NewFakeGateway()
	gw.IsRepo = false
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := application.NewFetcher(gw, 50).WithClock(apptest.FixedClock{T: now})

	snap, err := f.Fetch(context.Background(), "/not-a-repo")
	require.NoError(t, err)
	require.False(t, snap.IsRepository)
	require.Empty(t, snap.CurrentBranch)
	require.Empty(t, snap.Branches)
	require.Equal(t, now, snap.FetchedAt)
}

func TestFetcher_AssemblesFullSnapshot(t *testing.T) {
	gw := apptest.NewFakeGateway()
	gw.Status = application.StatusPayload{
		Branch:    "feature/login",
		Staged:    []domain.FileChange{{Path: "auth.go", Status: domain.StatusAdded, Staged: true}},
		Unstaged:  []domain.FileChange{{Path: "main.go", Status: domain.StatusModified}},
		Untracked: []domain.FileChange{{Path: "notes.txt", Status: domain.StatusUntracked}},
	}
	gw.Branch = []domain.BranchInfo{
		{Name: "feature/login", IsCurrent: true},
		{Name: "main"},
	}
	gw.Commits = []domain.CommitInfo{{Hash: "abc", Subject: "feat: login"}}
	gw.Remote = domain.RemoteState{Ahead: 2, Behind: 1, HasRemote: true, HasUpstream: true}
	gw.Stashes = []domain.StashEntry{{Index: 0, Message: "wip"}}
	gw.TagList = []domain.TagInfo{{Name: "v1.0.0"}}
	gw.Prefixes = []string{"feat", "fix"}

	f := application.NewFetcher(gw, 50)
	snap, err := f.Fetch(context.Background(), "/repo")
	require.NoError(t, err)

	require.True(t, snap.IsRepository)
	require.Equal(t, "feature/login", snap.CurrentBranch)
	require.Equal(t, 2, snap.Ahead)
	require.Equal(t, 1, snap.Behind)
	require.True(t, snap.HasRemote)
	require.Len(t, snap.Staged, 1)
	require.Len(t, snap.Unstaged, 1)
	require.Len(t, snap.Untracked, 1)
	require.Len(t, snap.Branches, 2)
	require.Len(t, snap.Commits, 1)
	require.Len(t, snap.Stashes, 1)
	require.Len(t, snap.Tags, 1)
	require.Equal(t, []string{"feat", "fix"}, snap.ConventionalPrefixes)
	require.True(t, snap.Dirty())
	require.False(t, snap.Conflicted())
}

func TestFetcher_AnyQueryFailureAbortsWholeFetch(t *testing.T) {
	queries := []string{
		"detailedStatus", "branches", "logDetailed", "aheadBehind",
		"stashList", "tags", "conflictFiles", "mergeInProgress",
		"cherryPickInProgress", "rebaseInProgress", "conventionalPrefixes",
	}
	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			gw := apptest.NewFakeGateway()
			gw.QueryErr[q] = errors.New("index.lock held")

			f := application.NewFetcher(gw, 50)
			snap, err := f.Fetch(context.Background(), "/repo")

			var fetchErr *domain.FetchError
			require.ErrorAs(t, err, &fetchErr)
			require.Contains(t, err.Error(), q)
			require.Equal(t, domain.Snapshot{}, snap, "partial snapshots must never escape")
		})
	}
}

func TestFetcher_RepeatedFetchOfUnchangedStateIsIdentical(t *testing.T) {
	gw := apptest.NewFakeGateway()
	gw.Status.Unstaged = []domain.FileChange{{Path: "a.go", Status: domain.StatusModified}}
	f := application.NewFetcher(gw, 50).WithClock(apptest.FixedClock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)})

	first, err := f.Fetch(context.Background(), "/repo")
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), "/repo")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFetcher_DefaultPrefixesWhenRepositoryHasNone(t *testing.T) {
	gw := apptest.NewFakeGateway()
	f := application.NewFetcher(gw, 50)

	snap, err := f.Fetch(context.Background(), "/repo")
	require.NoError(t, err)
	require.Equal(t, application.DefaultConventionalPrefixes(), snap.ConventionalPrefixes)
}
