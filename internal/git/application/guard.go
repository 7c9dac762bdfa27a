package application

import (
	"context"
	"sync"

	"github.com/zjrosen/gitpane/internal/git/domain"
	"github.com/zjrosen/gitpane/internal/log"
)

// GuardState is the checkout guard's confirmation state.
type GuardState string

// Guard states.
const (
	GuardIdle    GuardState = "idle"
	GuardPending GuardState = "pending-confirmation"
)

// CheckoutGuard intercepts branch-switch requests so the gateway's checkout
// is only ever reached with a clean tree or immediately after an explicit,
// confirmed discard, never with unexamined dirty state.
type CheckoutGuard struct {
	orch *Orchestrator

	mu      sync.Mutex
	state   GuardState
	pending string // target branch while awaiting confirmation
}

// NewCheckoutGuard creates a guard in front of the orchestrator's checkout.
func NewCheckoutGuard(orch *Orchestrator) *CheckoutGuard {
	return &CheckoutGuard{orch: orch, state: GuardIdle}
}

// State returns the current guard state and, when pending, the target branch.
func (g *CheckoutGuard) State() (GuardState, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.pending
}

// RequestCheckout switches to branch immediately when the tree is clean.
// With uncommitted staged or unstaged changes it enters the confirmation
// state instead and makes no gateway call.
func (g *CheckoutGuard) RequestCheckout(ctx context.Context, branch string) error {
	g.mu.Lock()
	if g.state == GuardPending {
		g.mu.Unlock()
		return domain.ErrCheckoutPending
	}
	snap := g.orch.Snapshot()
	if snap.Dirty() {
		g.state = GuardPending
		g.pending = branch
		g.mu.Unlock()
		log.Debug(log.CatGit, "checkout blocked by dirty tree, awaiting confirmation",
			"branch", branch, "staged", len(snap.Staged), "unstaged", len(snap.Unstaged))
		return nil
	}
	g.mu.Unlock()

	return g.orch.Checkout(ctx, branch)
}

// ConfirmDiscardAndCheckout discards the uncommitted changes and completes
// the pending switch: unstage everything staged, revert unstaged tracked
// modifications (untracked files are left alone), then check out the target.
// Any step failure aborts the sequence and returns the guard to idle; the
// orchestrator has already surfaced the error.
func (g *CheckoutGuard) ConfirmDiscardAndCheckout(ctx context.Context) error {
	g.mu.Lock()
	if g.state != GuardPending {
		g.mu.Unlock()
		return domain.ErrCheckoutNotPending
	}
	branch := g.pending
	g.state = GuardIdle
	g.pending = ""
	g.mu.Unlock()

	snap := g.orch.Snapshot()

	if paths := changePaths(snap.Staged); len(paths) > 0 {
		if err := g.orch.Unstage(ctx, paths...); err != nil {
			return err
		}
	}

	// Re-read: unstaging moves changes into the unstaged set.
	snap = g.orch.Snapshot()
	if paths := changePaths(snap.Unstaged); len(paths) > 0 {
		if err := g.orch.Discard(ctx, paths...); err != nil {
			return err
		}
	}

	return g.orch.Checkout(ctx, branch)
}

// CancelCheckout abandons the pending switch without any gateway call.
func (g *CheckoutGuard) CancelCheckout() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != GuardPending {
		return domain.ErrCheckoutNotPending
	}
	log.Debug(log.CatGit, "checkout cancelled", "branch", g.pending)
	g.state = GuardIdle
	g.pending = ""
	return nil
}

func changePaths(changes []domain.FileChange) []string {
	paths := make([]string, 0, len(changes))
	for _, c := range changes {
		paths = append(paths, c.Path)
	}
	return paths
}
