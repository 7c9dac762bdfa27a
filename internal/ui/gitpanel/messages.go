// Package gitpanel provides the bubbletea surface over the git orchestration
// core: it translates key intents into orchestrator and guard calls and
// renders the latest snapshot. Anything beyond that minimal rendering is a
// styling concern that lives elsewhere.
package gitpanel

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/gitpane/internal/git/application"
	"github.com/zjrosen/gitpane/internal/git/domain"
	"github.com/zjrosen/gitpane/internal/pubsub"
)

// SnapshotMsg delivers a freshly fetched snapshot from the stream.
type SnapshotMsg struct {
	Snapshot domain.Snapshot
}

// SnapshotStreamClosedMsg signals the snapshot subscription ended.
type SnapshotStreamClosedMsg struct{}

// OperationDoneMsg reports the outcome of one dispatched mutation.
type OperationDoneMsg struct {
	Op  application.Operation
	Err error
}

// CheckoutRequestedMsg reports the guard's answer to a branch-switch intent:
// a nil error means it either completed or parked awaiting confirmation.
type CheckoutRequestedMsg struct {
	Err error
}

// RefreshDoneMsg reports the outcome of a manually requested refresh.
type RefreshDoneMsg struct {
	Err error
}

// DetailMsg delivers an on-demand inspection lookup (diff or commit detail).
type DetailMsg struct {
	Title string
	Text  string
	Err   error
}

// CopiedMsg reports a clipboard yank.
type CopiedMsg struct {
	Text string
	Err  error
}

// listenSnapshots waits for the next event on the snapshot stream.
func listenSnapshots(ch <-chan pubsub.Event[domain.Snapshot]) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return SnapshotStreamClosedMsg{}
		}
		return SnapshotMsg{Snapshot: ev.Payload}
	}
}
