package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/zjrosen/gitpane/internal/git/application"
	"github.com/zjrosen/gitpane/internal/git/application/apptest"
	"github.com/zjrosen/gitpane/internal/git/domain"
)

// ============================================================================
// Property-Based Tests for Orchestration Invariants
// ============================================================================

// TestProperty_AtMostOneMutationInFlight verifies that no interleaving of
// concurrent dispatches ever executes two gateway mutations at once.
func TestProperty_AtMostOneMutationInFlight(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gw := apptest.NewFakeGateway()
		fetcher := application.NewFetcher(gw, 10)
		orch := application.NewOrchestrator(application.OrchestratorConfig{
			Gateway:  gw,
			Fetcher:  fetcher,
			Notifier: application.NewNotifier(time.Minute),
			Path:     "/repo",
		})
		defer orch.Close()

		ops := rapid.SliceOfN(rapid.IntRange(0, 3), 1, 12).Draw(t, "ops")

		var wg sync.WaitGroup
		for _, op := range ops {
			wg.Add(1)
			go func(op int) {
				defer wg.Done()
				var err error
				switch op {
				case 0:
					err = orch.Stage(context.Background(), "a.go")
				case 1:
					err = orch.Unstage(context.Background(), "a.go")
				case 2:
					err = orch.Commit(context.Background(), "feat: x")
				case 3:
					err = orch.StashPush(context.Background(), "wip")
				}
				if err != nil && !errors.Is(err, domain.ErrOperationInFlight) {
					t.Errorf("unexpected error: %v", err)
				}
			}(op)
		}
		wg.Wait()

		if max := gw.MaxConcurrentMutations(); max > 1 {
			t.Errorf("saw %d concurrent mutations, expected at most 1", max)
		}
		if got := orch.InFlight(); got != "" {
			t.Errorf("in-flight token %q left behind after all operations finished", got)
		}
	})
}

// TestProperty_ApplyConventionalPrefixIsIdempotent verifies that applying a
// commit type always yields a prefixed message and that re-applying the same
// type changes nothing.
func TestProperty_ApplyConventionalPrefixIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		message := rapid.StringMatching(`[ -~]{0,60}`).Draw(t, "message")
		typ := rapid.SampledFrom(application.DefaultConventionalPrefixes()).Draw(t, "type")

		once := application.ApplyConventionalPrefix(message, typ)
		if !application.HasConventionalPrefix(once) {
			t.Errorf("ApplyConventionalPrefix(%q, %q) = %q, not a conventional message", message, typ, once)
		}

		twice := application.ApplyConventionalPrefix(once, typ)
		if once != twice {
			t.Errorf("not idempotent: %q became %q", once, twice)
		}
	})
}
