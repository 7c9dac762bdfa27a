package infrastructure

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zjrosen/gitpane/internal/git/domain"
)

// parsePorcelainStatus splits `git status --porcelain -z` output into
// staged, unstaged and untracked change lists. Each NUL-separated entry is
// "XY path"; renames and copies carry the original path as the following
// NUL field.
func parsePorcelainStatus(out string) (staged, unstaged, untracked []domain.FileChange) {
	fields := strings.Split(out, "\x00")
	for i := 0; i < len(fields); i++ {
		entry := fields[i]
		if len(entry) < 4 {
			continue
		}
		x, y := entry[0], entry[1]
		path := entry[3:]

		if x == '?' && y == '?' {
			untracked = append(untracked, domain.FileChange{
				Path:   path,
				Status: domain.StatusUntracked,
			})
			continue
		}
		if x == '!' && y == '!' {
			continue // ignored entries only appear with --ignored
		}

		// A rename or copy on either side carries the original path as the
		// next NUL field; it must be consumed so it is never misread as a
		// status entry of its own.
		var original string
		if isRenameCode(x) || isRenameCode(y) {
			if i+1 < len(fields) {
				i++
				original = fields[i]
			}
		}

		if x != ' ' && x != '?' {
			change := domain.FileChange{
				Path:   path,
				Status: statusFromCode(x),
				Staged: true,
			}
			if isRenameCode(x) {
				change.OriginalPath = original
			}
			staged = append(staged, change)
		}
		if y != ' ' && y != '?' {
			change := domain.FileChange{
				Path:   path,
				Status: statusFromCode(y),
			}
			if isRenameCode(y) {
				change.OriginalPath = original
			}
			unstaged = append(unstaged, change)
		}
	}
	return staged, unstaged, untracked
}

func isRenameCode(code byte) bool {
	return code == 'R' || code == 'C'
}

func statusFromCode(code byte) domain.FileStatus {
	switch code {
	case 'M', 'U', 'T':
		return domain.StatusModified
	case 'A':
		return domain.StatusAdded
	case 'D':
		return domain.StatusDeleted
	case 'R':
		return domain.StatusRenamed
	case 'C':
		return domain.StatusCopied
	case '?':
		return domain.StatusUntracked
	case '!':
		return domain.StatusIgnored
	}
	return domain.StatusModified
}

// parseBranches reads `for-each-ref refs/heads` output where each line is
// "name\x00headmarker" and the marker is "*" for the current branch.
func parseBranches(out string) []domain.BranchInfo {
	var branches []domain.BranchInfo
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		name, marker, _ := strings.Cut(line, "\x00")
		branches = append(branches, domain.BranchInfo{
			Name:      name,
			IsCurrent: marker == "*",
		})
	}
	return branches
}

// parseLog reads log records separated by \x1e with \x1f-separated fields:
// hash, short hash, author, ISO date, subject.
func parseLog(out string) []domain.CommitInfo {
	var commits []domain.CommitInfo
	for _, record := range strings.Split(out, "\x1e") {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		parts := strings.SplitN(record, "\x1f", 5)
		if len(parts) != 5 {
			continue
		}
		date, _ := time.Parse(time.RFC3339, parts[3])
		commits = append(commits, domain.CommitInfo{
			Hash:      parts[0],
			ShortHash: parts[1],
			Author:    parts[2],
			Date:      date,
			Subject:   parts[4],
		})
	}
	return commits
}

// parseAheadBehind reads `rev-list --left-right --count @{upstream}...HEAD`
// output: "<behind>\t<ahead>".
func parseAheadBehind(out string) (behind, ahead int, err error) {
	parts := strings.Fields(strings.TrimSpace(out))
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list count output: %q", out)
	}
	behind, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("parsing behind count: %w", err)
	}
	ahead, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parsing ahead count: %w", err)
	}
	return behind, ahead, nil
}

var stashRefPattern = regexp.MustCompile(`^stash@\{(\d+)\}$`)

// parseStashList reads `stash list --format=%gd%x1f%gs` lines, e.g.
// "stash@{0}\x1fWIP on main: abc1234 subject".
func parseStashList(out string) []domain.StashEntry {
	var stashes []domain.StashEntry
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		ref, subject, ok := strings.Cut(line, "\x1f")
		if !ok {
			continue
		}
		m := stashRefPattern.FindStringSubmatch(ref)
		if m == nil {
			continue
		}
		index, _ := strconv.Atoi(m[1])
		stashes = append(stashes, domain.StashEntry{
			Index:   index,
			Message: stashMessage(subject),
			Branch:  stashBranch(subject),
		})
	}
	return stashes
}

// stashBranch extracts the branch name from a "WIP on main: ..." or
// "On main: ..." stash subject.
func stashBranch(subject string) string {
	rest, ok := strings.CutPrefix(subject, "WIP on ")
	if !ok {
		rest, ok = strings.CutPrefix(subject, "On ")
	}
	if !ok {
		return ""
	}
	branch, _, ok := strings.Cut(rest, ":")
	if !ok {
		return ""
	}
	return branch
}

// stashMessage strips the "WIP on branch: " / "On branch: " prefix, keeping
// the user's message (or the auto-generated hash+subject for plain WIPs).
func stashMessage(subject string) string {
	if _, rest, ok := strings.Cut(subject, ": "); ok {
		return rest
	}
	return subject
}

// parseTags reads `for-each-ref refs/tags` lines "name\x00hash\x00subject";
// the subject is empty for lightweight tags.
func parseTags(out string) []domain.TagInfo {
	var tags []domain.TagInfo
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\x00", 3)
		if len(parts) != 3 {
			continue
		}
		tags = append(tags, domain.TagInfo{
			Name:       parts[0],
			Hash:       parts[1],
			Annotation: parts[2],
		})
	}
	return tags
}

// parseReflog reads `reflog --format=%h%x1f%gs%x1f%s` lines; the entry index
// is its position, newest first.
func parseReflog(out string) []domain.ReflogEntry {
	var entries []domain.ReflogEntry
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\x1f", 3)
		if len(parts) != 3 {
			continue
		}
		entries = append(entries, domain.ReflogEntry{
			Index:   len(entries),
			Hash:    parts[0],
			Action:  parts[1],
			Subject: parts[2],
		})
	}
	return entries
}

var conventionalSubjectPattern = regexp.MustCompile(`^([a-z]+)(\([^)]*\))?!?:\s`)

// parseConventionalPrefixes collects the distinct conventional-commit types
// found in recent commit subjects, in first-seen order.
func parseConventionalPrefixes(out string) []string {
	var prefixes []string
	seen := map[string]bool{}
	for _, subject := range strings.Split(out, "\n") {
		m := conventionalSubjectPattern.FindStringSubmatch(subject)
		if m == nil {
			continue
		}
		if typ := m[1]; !seen[typ] {
			seen[typ] = true
			prefixes = append(prefixes, typ)
		}
	}
	return prefixes
}
