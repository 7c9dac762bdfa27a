// Package domain provides the repository-state types consumed by the panel.
package domain

import "time"

// FileStatus classifies a working-tree change.
type FileStatus string

// File change statuses as reported by git status.
const (
	StatusModified  FileStatus = "modified"
	StatusAdded     FileStatus = "added"
	StatusDeleted   FileStatus = "deleted"
	StatusRenamed   FileStatus = "renamed"
	StatusCopied    FileStatus = "copied"
	StatusUntracked FileStatus = "untracked"
	StatusIgnored   FileStatus = "ignored"
)

// FileChange describes one changed path. Recreated wholesale on every fetch,
// never mutated in place.
type FileChange struct {
	Path         string
	Status       FileStatus
	Staged       bool
	OriginalPath string // set for renames and copies
}

// BranchInfo holds information about a git branch.
type BranchInfo struct {
	Name         string
	IsCurrent    bool
	IsRemote     bool
	ParentBranch string // heuristic, display-only; empty when unknown
	CommitsAhead int    // commits ahead of ParentBranch; 0 when unknown
}

// CommitInfo holds information about a git commit.
type CommitInfo struct {
	Hash      string // full 40-char SHA
	ShortHash string // abbreviated hash
	Subject   string // first line of the commit message
	Author    string
	Date      time.Time
}

// StashEntry holds one entry from the stash list.
type StashEntry struct {
	Index   int
	Message string
	Branch  string // branch the stash was created on, if recorded
}

// TagInfo holds information about a tag.
type TagInfo struct {
	Name       string
	Hash       string
	Annotation string // empty for lightweight tags
}

// ReflogEntry holds one entry from the HEAD reflog.
type ReflogEntry struct {
	Index   int
	Hash    string
	Action  string // e.g. "commit", "checkout: moving from main to feature"
	Subject string
}

// RemoteState describes the relationship to the upstream branch.
type RemoteState struct {
	Ahead       int
	Behind      int
	HasRemote   bool
	HasUpstream bool
}

// Snapshot is an immutable point-in-time view of repository state produced by
// one fetch cycle. It is replaced wholesale, never patched field-by-field, so
// every consumer always sees fields from the same fetch.
type Snapshot struct {
	IsRepository bool

	CurrentBranch string
	Ahead         int
	Behind        int
	HasRemote     bool
	HasUpstream   bool

	Staged    []FileChange
	Unstaged  []FileChange
	Untracked []FileChange

	Branches []BranchInfo
	Commits  []CommitInfo // newest first
	Stashes  []StashEntry
	Tags     []TagInfo

	ConflictFiles []string

	MergeInProgress      bool
	CherryPickInProgress bool
	RebaseInProgress     bool

	// ConventionalPrefixes is the project's commit-type vocabulary
	// (feat, fix, ...). Advisory only.
	ConventionalPrefixes []string

	FetchedAt time.Time
}

// Dirty reports whether the working tree has staged or unstaged changes.
// Untracked files do not count: they survive a branch switch.
func (s Snapshot) Dirty() bool {
	return len(s.Staged) > 0 || len(s.Unstaged) > 0
}

// Conflicted reports whether any paths are unmerged.
func (s Snapshot) Conflicted() bool {
	return len(s.ConflictFiles) > 0
}
