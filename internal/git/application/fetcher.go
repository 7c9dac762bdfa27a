package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/gitpane/internal/git/domain"
	"github.com/zjrosen/gitpane/internal/log"
)

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Fetcher assembles one consistent Snapshot from a batch of read-only
// gateway queries.
type Fetcher struct {
	gw       Gateway
	logLimit int
	clock    Clock
}

// NewFetcher creates a Fetcher reading at most logLimit commits per snapshot.
func NewFetcher(gw Gateway, logLimit int) *Fetcher {
	return &Fetcher{gw: gw, logLimit: logLimit, clock: realClock{}}
}

// WithClock overrides the time source (for testing).
func (f *Fetcher) WithClock(c Clock) *Fetcher {
	f.clock = c
	return f
}

// Fetch produces a snapshot of the repository at path.
//
// The repository probe runs first; a non-repository is a valid empty snapshot,
// not an error. The remaining queries are independent reads and run
// concurrently, then merge into one snapshot atomically. Any individual query
// failure aborts the whole fetch with a *domain.FetchError so callers keep
// their last known-good snapshot instead of seeing mixed-age fields.
func (f *Fetcher) Fetch(ctx context.Context, path string) (domain.Snapshot, error) {
	tracer := otel.Tracer("gitpane/git")
	ctx, span := tracer.Start(ctx, "snapshot.fetch")
	span.SetAttributes(attribute.String("repo.path", path))
	defer span.End()

	isRepo, err := f.gw.IsRepository(ctx, path)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return domain.Snapshot{}, &domain.FetchError{Query: "isRepository", Err: err}
	}
	if !isRepo {
		return domain.Snapshot{FetchedAt: f.clock.Now()}, nil
	}

	var (
		status   StatusPayload
		branches []domain.BranchInfo
		commits  []domain.CommitInfo
		remote   domain.RemoteState
		stashes  []domain.StashEntry
		tags     []domain.TagInfo
		confl    []string
		merging  bool
		picking  bool
		rebasing bool
		prefixes []string
	)

	p := pool.New().WithErrors().WithContext(ctx)
	queries := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{"detailedStatus", func(ctx context.Context) error {
			var err error
			status, err = f.gw.DetailedStatus(ctx, path)
			return err
		}},
		{"branches", func(ctx context.Context) error {
			var err error
			branches, err = f.gw.Branches(ctx, path)
			return err
		}},
		{"logDetailed", func(ctx context.Context) error {
			var err error
			commits, err = f.gw.LogDetailed(ctx, path, f.logLimit)
			return err
		}},
		{"aheadBehind", func(ctx context.Context) error {
			var err error
			remote, err = f.gw.AheadBehind(ctx, path)
			return err
		}},
		{"stashList", func(ctx context.Context) error {
			var err error
			stashes, err = f.gw.StashList(ctx, path)
			return err
		}},
		{"tags", func(ctx context.Context) error {
			var err error
			tags, err = f.gw.Tags(ctx, path)
			return err
		}},
		{"conflictFiles", func(ctx context.Context) error {
			var err error
			confl, err = f.gw.ConflictFiles(ctx, path)
			return err
		}},
		{"mergeInProgress", func(ctx context.Context) error {
			var err error
			merging, err = f.gw.MergeInProgress(ctx, path)
			return err
		}},
		{"cherryPickInProgress", func(ctx context.Context) error {
			var err error
			picking, err = f.gw.CherryPickInProgress(ctx, path)
			return err
		}},
		{"rebaseInProgress", func(ctx context.Context) error {
			var err error
			rebasing, err = f.gw.RebaseInProgress(ctx, path)
			return err
		}},
		{"conventionalPrefixes", func(ctx context.Context) error {
			var err error
			prefixes, err = f.gw.ConventionalPrefixes(ctx, path)
			return err
		}},
	}
	for _, q := range queries {
		name, run := q.name, q.run
		p.Go(func(ctx context.Context) error {
			if err := run(ctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		log.Warn(log.CatGit, "snapshot fetch aborted", "path", path, "error", err.Error())
		span.SetStatus(codes.Error, err.Error())
		return domain.Snapshot{}, &domain.FetchError{Query: "batch", Err: err}
	}

	if len(prefixes) == 0 {
		prefixes = DefaultConventionalPrefixes()
	}

	snap := domain.Snapshot{
		IsRepository:         true,
		CurrentBranch:        status.Branch,
		Ahead:                remote.Ahead,
		Behind:               remote.Behind,
		HasRemote:            remote.HasRemote,
		HasUpstream:          remote.HasUpstream,
		Staged:               status.Staged,
		Unstaged:             status.Unstaged,
		Untracked:            status.Untracked,
		Branches:             branches,
		Commits:              commits,
		Stashes:              stashes,
		Tags:                 tags,
		ConflictFiles:        confl,
		MergeInProgress:      merging,
		CherryPickInProgress: picking,
		RebaseInProgress:     rebasing,
		ConventionalPrefixes: prefixes,
		FetchedAt:            f.clock.Now(),
	}

	log.Debug(log.CatGit, "snapshot fetched",
		"branch", snap.CurrentBranch,
		"staged", len(snap.Staged),
		"unstaged", len(snap.Unstaged),
		"conflicts", len(snap.ConflictFiles))
	return snap, nil
}
