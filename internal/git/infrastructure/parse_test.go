package infrastructure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gitpane/internal/git/domain"
)

func TestParsePorcelainStatus(t *testing.T) {
	tests := []struct {
		name          string
		out           string
		wantStaged    []domain.FileChange
		wantUnstaged  []domain.FileChange
		wantUntracked []domain.FileChange
	}{
		{
			name: "empty output",
			out:  "",
		},
		{
			name: "staged and unstaged mix",
			out:  "M  staged.go\x00 M unstaged.go\x00MM both.go\x00",
			wantStaged: []domain.FileChange{
				{Path: "staged.go", Status: domain.StatusModified, Staged: true},
				{Path: "both.go", Status: domain.StatusModified, Staged: true},
			},
			wantUnstaged: []domain.FileChange{
				{Path: "unstaged.go", Status: domain.StatusModified},
				{Path: "both.go", Status: domain.StatusModified},
			},
		},
		{
			name: "added deleted untracked",
			out:  "A  new.go\x00 D gone.go\x00?? scratch.txt\x00",
			wantStaged: []domain.FileChange{
				{Path: "new.go", Status: domain.StatusAdded, Staged: true},
			},
			wantUnstaged: []domain.FileChange{
				{Path: "gone.go", Status: domain.StatusDeleted},
			},
			wantUntracked: []domain.FileChange{
				{Path: "scratch.txt", Status: domain.StatusUntracked},
			},
		},
		{
			name: "rename carries original path in next field",
			out:  "R  new_name.go\x00old_name.go\x00",
			wantStaged: []domain.FileChange{
				{Path: "new_name.go", Status: domain.StatusRenamed, Staged: true, OriginalPath: "old_name.go"},
			},
		},
		{
			name: "worktree-side rename consumes original path",
			out:  " R new.go\x00old.go\x00 M other.go\x00",
			wantUnstaged: []domain.FileChange{
				{Path: "new.go", Status: domain.StatusRenamed, OriginalPath: "old.go"},
				{Path: "other.go", Status: domain.StatusModified},
			},
		},
		{
			name: "unmerged shows on both sides",
			out:  "UU conflicted.go\x00",
			wantStaged: []domain.FileChange{
				{Path: "conflicted.go", Status: domain.StatusModified, Staged: true},
			},
			wantUnstaged: []domain.FileChange{
				{Path: "conflicted.go", Status: domain.StatusModified},
			},
		},
		{
			name: "path with spaces",
			out:  "M  dir with space/file name.go\x00",
			wantStaged: []domain.FileChange{
				{Path: "dir with space/file name.go", Status: domain.StatusModified, Staged: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			staged, unstaged, untracked := parsePorcelainStatus(tt.out)
			require.Equal(t, tt.wantStaged, staged)
			require.Equal(t, tt.wantUnstaged, unstaged)
			require.Equal(t, tt.wantUntracked, untracked)
		})
	}
}

func TestParseBranches(t *testing.T) {
	out := "main\x00*\nfeature/login\x00\nrelease/1.0\x00\n"
	branches := parseBranches(out)
	require.Equal(t, []domain.BranchInfo{
		{Name: "main", IsCurrent: true},
		{Name: "feature/login"},
		{Name: "release/1.0"},
	}, branches)

	require.Empty(t, parseBranches(""))
}

func TestParseLog(t *testing.T) {
	out := "aaaa1111\x1faaa\x1fAlice\x1f2026-02-10T09:30:00Z\x1ffeat: add login\x1e" +
		"\nbbbb2222\x1fbbb\x1fBob\x1f2026-02-09T17:00:00+01:00\x1ffix: handle empty input"
	commits := parseLog(out)
	require.Len(t, commits, 2)

	require.Equal(t, "aaaa1111", commits[0].Hash)
	require.Equal(t, "aaa", commits[0].ShortHash)
	require.Equal(t, "Alice", commits[0].Author)
	require.Equal(t, "feat: add login", commits[0].Subject)
	require.Equal(t, time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC), commits[0].Date)

	require.Equal(t, "Bob", commits[1].Author)

	require.Empty(t, parseLog(""))
}

func TestParseAheadBehind(t *testing.T) {
	behind, ahead, err := parseAheadBehind("3\t5\n")
	require.NoError(t, err)
	require.Equal(t, 3, behind)
	require.Equal(t, 5, ahead)

	_, _, err = parseAheadBehind("")
	require.Error(t, err)

	_, _, err = parseAheadBehind("x\ty")
	require.Error(t, err)
}

func TestParseStashList(t *testing.T) {
	out := "stash@{0}\x1fWIP on main: abc1234 quick fix\n" +
		"stash@{1}\x1fOn feature/login: saved form work\n" +
		"stash@{2}\x1funtracked files on main\n"
	stashes := parseStashList(out)
	require.Equal(t, []domain.StashEntry{
		{Index: 0, Message: "abc1234 quick fix", Branch: "main"},
		{Index: 1, Message: "saved form work", Branch: "feature/login"},
		{Index: 2, Message: "untracked files on main"},
	}, stashes)
}

func TestParseTags(t *testing.T) {
	out := "v1.0.0\x00aaaa\x00Release 1.0\nv0.9.0\x00bbbb\x00\n"
	tags := parseTags(out)
	require.Equal(t, []domain.TagInfo{
		{Name: "v1.0.0", Hash: "aaaa", Annotation: "Release 1.0"},
		{Name: "v0.9.0", Hash: "bbbb"},
	}, tags)
}

func TestParseReflog(t *testing.T) {
	out := "aaa\x1fcommit: add login\x1ffeat: add login\n" +
		"bbb\x1fcheckout: moving from main to feature\x1fprevious subject\n"
	entries := parseReflog(out)
	require.Len(t, entries, 2)
	require.Equal(t, 0, entries[0].Index)
	require.Equal(t, "commit: add login", entries[0].Action)
	require.Equal(t, 1, entries[1].Index)
	require.Equal(t, "bbb", entries[1].Hash)
}

func TestParseConventionalPrefixes(t *testing.T) {
	out := "feat: add login\n" +
		"fix(parser): handle empty input\n" +
		"feat: another feature\n" +
		"Merge branch 'main'\n" +
		"refactor!: split module\n"
	require.Equal(t, []string{"feat", "fix", "refactor"}, parseConventionalPrefixes(out))

	require.Empty(t, parseConventionalPrefixes("plain subject\nanother one\n"))
}
