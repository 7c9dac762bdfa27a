package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/gitpane/internal/git/application"
	"github.com/zjrosen/gitpane/internal/git/application/apptest"
	"github.com/zjrosen/gitpane/internal/git/domain"
)

func dirtyGateway() *apptest.FakeGateway {
	gw := apptest.NewFakeGateway()
	gw.Status = application.StatusPayload{
		Branch:    "main",
		Staged:    []domain.FileChange{{Path: "staged.go", Status: domain.StatusModified, Staged: true}},
		Unstaged:  []domain.FileChange{{Path: "unstaged.go", Status: domain.StatusModified}},
		Untracked: []domain.FileChange{{Path: "scratch.txt", Status: domain.StatusUntracked}},
	}
	// Evolve the fake's status the way git would: unstaging moves the
	// staged change into the unstaged set, discarding clears it.
	gw.OnMutate = func(name string, _ []string) {
		switch name {
		case "unstage":
			gw.Status.Unstaged = append(gw.Status.Unstaged, domain.FileChange{Path: "staged.go", Status: domain.StatusModified})
			gw.Status.Staged = nil
		case "discardChanges":
			gw.Status.Unstaged = nil
		}
	}
	return gw
}

func TestGuard_CleanTreeSwitchesImmediately(t *testing.T) {
	gw := apptest.NewFakeGateway()
	orch := newTestOrchestrator(t, gw)
	_, err := orch.Refresh(context.Background())
	require.NoError(t, err)

	guard := application.NewCheckoutGuard(orch)
	require.NoError(t, guard.RequestCheckout(context.Background(), "feature/x"))

	require.Equal(t, []string{"checkout"}, gw.Mutations())
	state, _ := guard.State()
	require.Equal(t, application.GuardIdle, state)
}

func TestGuard_DirtyTreeParksWithoutGatewayCall(t *testing.T) {
	gw := dirtyGateway()
	orch := newTestOrchestrator(t, gw)
	_, err := orch.Refresh(context.Background())
	require.NoError(t, err)

	guard := application.NewCheckoutGuard(orch)
	require.NoError(t, guard.RequestCheckout(context.Background(), "feature/x"))

	require.Empty(t, gw.Mutations(), "dirty tree must never reach the gateway unconfirmed")
	state, branch := guard.State()
	require.Equal(t, application.GuardPending, state)
	require.Equal(t, "feature/x", branch)

	// A second request while one is pending is refused.
	err = guard.RequestCheckout(context.Background(), "other")
	require.ErrorIs(t, err, domain.ErrCheckoutPending)
}

func TestGuard_ConfirmDiscardsThenSwitches(t *testing.T) {
	gw := dirtyGateway()
	orch := newTestOrchestrator(t, gw)
	_, err := orch.Refresh(context.Background())
	require.NoError(t, err)

	guard := application.NewCheckoutGuard(orch)
	require.NoError(t, guard.RequestCheckout(context.Background(), "feature/x"))
	require.NoError(t, guard.ConfirmDiscardAndCheckout(context.Background()))

	require.Equal(t, []string{"unstage", "discardChanges", "checkout"}, gw.Mutations())
	require.NotContains(t, gw.Mutations(), "cleanUntracked", "untracked files survive the switch")

	state, _ := guard.State()
	require.Equal(t, application.GuardIdle, state)
}

func TestGuard_ConfirmAbortsWhenDiscardFails(t *testing.T) {
	gw := dirtyGateway()
	gw.MutateErr["discardChanges"] = errors.New("checkout failed for unstaged.go")
	orch := newTestOrchestrator(t, gw)
	_, err := orch.Refresh(context.Background())
	require.NoError(t, err)

	guard := application.NewCheckoutGuard(orch)
	require.NoError(t, guard.RequestCheckout(context.Background(), "feature/x"))

	err = guard.ConfirmDiscardAndCheckout(context.Background())
	require.Error(t, err)
	require.NotContains(t, gw.Mutations(), "checkout", "a failed discard must stop the sequence")
}

func TestGuard_CancelMakesNoGatewayCall(t *testing.T) {
	gw := dirtyGateway()
	orch := newTestOrchestrator(t, gw)
	_, err := orch.Refresh(context.Background())
	require.NoError(t, err)

	guard := application.NewCheckoutGuard(orch)
	require.NoError(t, guard.RequestCheckout(context.Background(), "feature/x"))
	require.NoError(t, guard.CancelCheckout())

	require.Empty(t, gw.Mutations())
	state, _ := guard.State()
	require.Equal(t, application.GuardIdle, state)

	// Confirm and cancel require a pending request.
	require.ErrorIs(t, guard.CancelCheckout(), domain.ErrCheckoutNotPending)
	require.ErrorIs(t, guard.ConfirmDiscardAndCheckout(context.Background()), domain.ErrCheckoutNotPending)
}
