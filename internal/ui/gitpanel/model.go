package gitpanel

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/gitpane/internal/git/application"
	"github.com/zjrosen/gitpane/internal/git/domain"
	"github.com/zjrosen/gitpane/internal/log"
	"github.com/zjrosen/gitpane/internal/pubsub"
	"github.com/zjrosen/gitpane/internal/ui/clipboard"
	"github.com/zjrosen/gitpane/internal/ui/styles"
)

// focus names which section key input is routed to.
type focus int

const (
	focusFiles focus = iota
	focusBranches
	focusCommits
	focusCommit
	focusStash
	focusConfirmCheckout
)

// Model is the panel's bubbletea model.
type Model struct {
	orch  *application.Orchestrator
	guard *application.CheckoutGuard
	sub   <-chan pubsub.Event[domain.Snapshot]
	clip  clipboard.Copier

	snapshot domain.Snapshot
	focus    focus

	fileCursor   int
	branchCursor int
	commitCursor int
	prefixCursor int

	detailTitle string
	detail      string

	amend       bool
	commitInput textinput.Model
	stashInput  textinput.Model
	spin        spinner.Model

	width  int
	height int
}

// New creates a panel bound to the orchestrator and guard. The subscription
// context controls the lifetime of the snapshot stream.
func New(ctx context.Context, orch *application.Orchestrator, guard *application.CheckoutGuard) Model {
	commit := textinput.New()
	commit.Placeholder = "commit message"
	commit.CharLimit = 200

	stash := textinput.New()
	stash.Placeholder = "stash message (optional)"
	stash.CharLimit = 120

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return Model{
		orch:        orch,
		guard:       guard,
		sub:         orch.Subscribe(ctx),
		clip:        clipboard.System{},
		snapshot:    orch.Snapshot(),
		commitInput: commit,
		stashInput:  stash,
		spin:        sp,
	}
}

// Init starts the snapshot listener and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(listenSnapshots(m.sub), m.spin.Tick)
}

// dispatch runs one orchestrator action off the update loop.
func dispatch(op application.Operation, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return OperationDoneMsg{Op: op, Err: fn(context.Background())}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SnapshotMsg:
		m.snapshot = msg.Snapshot
		m.clampCursors()
		return m, listenSnapshots(m.sub)

	case SnapshotStreamClosedMsg:
		return m, tea.Quit

	case OperationDoneMsg:
		return m.handleOperationDone(msg), nil

	case CheckoutRequestedMsg:
		if msg.Err != nil {
			log.Warn(log.CatUI, "checkout request refused", "error", msg.Err.Error())
			return m, nil
		}
		if state, _ := m.guard.State(); state == application.GuardPending {
			m.focus = focusConfirmCheckout
		}
		return m, nil

	case RefreshDoneMsg:
		return m, nil

	case DetailMsg:
		if msg.Err != nil {
			log.Warn(log.CatUI, "detail lookup failed", "error", msg.Err.Error())
			return m, nil
		}
		m.detailTitle = msg.Title
		m.detail = msg.Text
		return m, nil

	case CopiedMsg:
		if msg.Err != nil {
			log.Warn(log.CatUI, "clipboard copy failed", "error", msg.Err.Error())
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// handleOperationDone clears transient inputs only on success so a failed
// attempt preserves the user's text for correction.
func (m Model) handleOperationDone(msg OperationDoneMsg) Model {
	if msg.Err != nil {
		log.Debug(log.CatUI, "operation finished with error", "op", string(msg.Op), "error", msg.Err.Error())
		return m
	}
	switch msg.Op {
	case application.OpCommit, application.OpCommitAmend:
		m.commitInput.SetValue("")
		m.amend = false
	case application.OpStashPush:
		m.stashInput.SetValue("")
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detailTitle != "" {
		switch msg.String() {
		case "esc", "q", "d":
			m.detailTitle, m.detail = "", ""
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.focus {
	case focusCommit:
		return m.updateCommitInput(msg)
	case focusStash:
		return m.updateStashInput(msg)
	case focusConfirmCheckout:
		return m.updateConfirmCheckout(msg)
	}

	if !m.snapshot.IsRepository {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "i":
			return m, dispatch(application.OpInit, func(ctx context.Context) error {
				return m.orch.InitRepo(ctx)
			})
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "tab":
		switch m.focus {
		case focusFiles:
			m.focus = focusBranches
		case focusBranches:
			m.focus = focusCommits
		default:
			m.focus = focusFiles
		}
	case "r":
		orch := m.orch
		return m, func() tea.Msg {
			_, err := orch.Refresh(context.Background())
			return RefreshDoneMsg{Err: err}
		}
	case "s":
		if file, ok := m.selectedFile(); ok && !file.Staged {
			return m, dispatch(application.OpStage, func(ctx context.Context) error {
				return m.orch.Stage(ctx, file.Path)
			})
		}
	case "u":
		if file, ok := m.selectedFile(); ok && file.Staged {
			return m, dispatch(application.OpUnstage, func(ctx context.Context) error {
				return m.orch.Unstage(ctx, file.Path)
			})
		}
	case "x":
		if file, ok := m.selectedFile(); ok && !file.Staged {
			if file.Status == domain.StatusUntracked {
				return m, dispatch(application.OpCleanUntracked, func(ctx context.Context) error {
					return m.orch.CleanUntracked(ctx, file.Path)
				})
			}
			return m, dispatch(application.OpDiscard, func(ctx context.Context) error {
				return m.orch.Discard(ctx, file.Path)
			})
		}
	case "c":
		m.focus = focusCommit
		m.commitInput.Focus()
		return m, textinput.Blink
	case "a":
		m.amend = !m.amend
	case "z":
		m.focus = focusStash
		m.stashInput.Focus()
		return m, textinput.Blink
	case "P":
		return m, dispatch(application.OpPush, func(ctx context.Context) error {
			return m.orch.Push(ctx)
		})
	case "p":
		return m, dispatch(application.OpPull, func(ctx context.Context) error {
			return m.orch.Pull(ctx)
		})
	case "f":
		return m, dispatch(application.OpFetch, func(ctx context.Context) error {
			return m.orch.FetchRemote(ctx)
		})
	case "enter":
		switch m.focus {
		case focusBranches:
			if branch, ok := m.selectedBranch(); ok && !branch.IsCurrent {
				return m.requestCheckout(branch.Name)
			}
		case focusCommits:
			return m.loadDetail()
		}
	case "d":
		return m.loadDetail()
	case "o":
		if file, ok := m.selectedConflict(); ok {
			return m, dispatch(application.OpResolveOurs, func(ctx context.Context) error {
				return m.orch.ResolveOurs(ctx, file)
			})
		}
	case "t":
		if file, ok := m.selectedConflict(); ok {
			return m, dispatch(application.OpResolveTheirs, func(ctx context.Context) error {
				return m.orch.ResolveTheirs(ctx, file)
			})
		}
	case "A":
		return m.dispatchAbort()
	case "C":
		return m.dispatchContinue()
	case "y":
		return m.yankSelection()
	}
	return m, nil
}

func (m Model) updateCommitInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusFiles
		m.commitInput.Blur()
		return m, nil
	case "ctrl+t":
		// Cycle the project's conventional commit types through the message.
		prefixes := m.snapshot.ConventionalPrefixes
		if len(prefixes) > 0 {
			typ := prefixes[m.prefixCursor%len(prefixes)]
			m.prefixCursor++
			m.commitInput.SetValue(application.ApplyConventionalPrefix(m.commitInput.Value(), typ))
			m.commitInput.CursorEnd()
		}
		return m, nil
	case "enter":
		message := strings.TrimSpace(m.commitInput.Value())
		m.focus = focusFiles
		m.commitInput.Blur()
		if m.amend {
			// Empty message in amend mode keeps the existing one.
			return m, dispatch(application.OpCommitAmend, func(ctx context.Context) error {
				return m.orch.CommitAmend(ctx, message)
			})
		}
		if message == "" {
			return m, nil
		}
		return m, dispatch(application.OpCommit, func(ctx context.Context) error {
			return m.orch.Commit(ctx, message)
		})
	}
	var cmd tea.Cmd
	m.commitInput, cmd = m.commitInput.Update(msg)
	return m, cmd
}

func (m Model) updateStashInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusFiles
		m.stashInput.Blur()
		return m, nil
	case "enter":
		message := strings.TrimSpace(m.stashInput.Value())
		m.focus = focusFiles
		m.stashInput.Blur()
		return m, dispatch(application.OpStashPush, func(ctx context.Context) error {
			return m.orch.StashPush(ctx, message)
		})
	}
	var cmd tea.Cmd
	m.stashInput, cmd = m.stashInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmCheckout(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.focus = focusFiles
		guard := m.guard
		return m, dispatch(application.OpCheckout, func(ctx context.Context) error {
			return guard.ConfirmDiscardAndCheckout(ctx)
		})
	case "n", "esc":
		m.focus = focusFiles
		_ = m.guard.CancelCheckout()
		return m, nil
	}
	return m, nil
}

// requestCheckout routes the switch through the guard off the update loop;
// CheckoutRequestedMsg reports whether it parked awaiting confirmation.
func (m Model) requestCheckout(branch string) (tea.Model, tea.Cmd) {
	guard := m.guard
	return m, func() tea.Msg {
		return CheckoutRequestedMsg{Err: guard.RequestCheckout(context.Background(), branch)}
	}
}

// loadDetail fetches the diff for the selected file, or the full commit text
// when the commit list has focus, and opens the detail view with the result.
func (m Model) loadDetail() (tea.Model, tea.Cmd) {
	orch := m.orch
	if m.focus == focusCommits {
		commit, ok := m.selectedCommit()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			text, err := orch.ShowCommit(context.Background(), commit.Hash)
			return DetailMsg{Title: "commit " + commit.ShortHash, Text: text, Err: err}
		}
	}
	file, ok := m.selectedFile()
	if !ok {
		return m, nil
	}
	opts := application.DiffOptions{File: file.Path, Staged: file.Staged}
	return m, func() tea.Msg {
		text, err := orch.Diff(context.Background(), opts)
		return DetailMsg{Title: "diff " + file.Path, Text: text, Err: err}
	}
}

// yankSelection copies the selected branch name, commit hash or file path.
func (m Model) yankSelection() (tea.Model, tea.Cmd) {
	var text string
	switch m.focus {
	case focusBranches:
		branch, ok := m.selectedBranch()
		if !ok {
			return m, nil
		}
		text = branch.Name
	case focusCommits:
		commit, ok := m.selectedCommit()
		if !ok {
			return m, nil
		}
		text = commit.Hash
	default:
		file, ok := m.selectedFile()
		if !ok {
			return m, nil
		}
		text = file.Path
	}
	clip := m.clip
	return m, func() tea.Msg {
		return CopiedMsg{Text: text, Err: clip.Copy(text)}
	}
}

func (m Model) dispatchAbort() (tea.Model, tea.Cmd) {
	kinds := application.InProgress(m.snapshot)
	if len(kinds) == 0 {
		return m, nil
	}
	switch kinds[0] {
	case application.ProgressMerge:
		return m, dispatch(application.OpMergeAbort, func(ctx context.Context) error {
			return m.orch.MergeAbort(ctx)
		})
	case application.ProgressRebase:
		return m, dispatch(application.OpRebaseAbort, func(ctx context.Context) error {
			return m.orch.RebaseAbort(ctx)
		})
	case application.ProgressCherryPick:
		return m, dispatch(application.OpCherryPickAbort, func(ctx context.Context) error {
			return m.orch.CherryPickAbort(ctx)
		})
	}
	return m, nil
}

func (m Model) dispatchContinue() (tea.Model, tea.Cmd) {
	kinds := application.InProgress(m.snapshot)
	if len(kinds) == 0 {
		return m, nil
	}
	switch kinds[0] {
	case application.ProgressRebase:
		return m, dispatch(application.OpRebaseContinue, func(ctx context.Context) error {
			return m.orch.RebaseContinue(ctx)
		})
	case application.ProgressCherryPick:
		return m, dispatch(application.OpCherryPickContinue, func(ctx context.Context) error {
			return m.orch.CherryPickContinue(ctx)
		})
	case application.ProgressMerge:
		return m, dispatch(application.OpMergeContinue, func(ctx context.Context) error {
			return m.orch.MergeContinue(ctx)
		})
	}
	return m, nil
}

// ── Selection helpers ────────────────────────────────────────────────

// allFiles flattens staged, unstaged and untracked changes into the single
// list the file cursor walks.
func (m Model) allFiles() []domain.FileChange {
	files := make([]domain.FileChange, 0,
		len(m.snapshot.Staged)+len(m.snapshot.Unstaged)+len(m.snapshot.Untracked))
	files = append(files, m.snapshot.Staged...)
	files = append(files, m.snapshot.Unstaged...)
	files = append(files, m.snapshot.Untracked...)
	return files
}

func (m Model) selectedFile() (domain.FileChange, bool) {
	files := m.allFiles()
	if m.fileCursor < 0 || m.fileCursor >= len(files) {
		return domain.FileChange{}, false
	}
	return files[m.fileCursor], true
}

func (m Model) selectedBranch() (domain.BranchInfo, bool) {
	if m.branchCursor < 0 || m.branchCursor >= len(m.snapshot.Branches) {
		return domain.BranchInfo{}, false
	}
	return m.snapshot.Branches[m.branchCursor], true
}

func (m Model) selectedCommit() (domain.CommitInfo, bool) {
	if m.commitCursor < 0 || m.commitCursor >= len(m.snapshot.Commits) {
		return domain.CommitInfo{}, false
	}
	return m.snapshot.Commits[m.commitCursor], true
}

func (m Model) selectedConflict() (string, bool) {
	file, ok := m.selectedFile()
	if !ok {
		return "", false
	}
	for _, c := range m.snapshot.ConflictFiles {
		if c == file.Path {
			return c, true
		}
	}
	return "", false
}

func (m *Model) moveCursor(delta int) {
	switch m.focus {
	case focusBranches:
		m.branchCursor += delta
	case focusCommits:
		m.commitCursor += delta
	default:
		m.fileCursor += delta
	}
	m.clampCursors()
}

func (m *Model) clampCursors() {
	if n := len(m.allFiles()); m.fileCursor >= n {
		m.fileCursor = n - 1
	}
	if m.fileCursor < 0 {
		m.fileCursor = 0
	}
	if n := len(m.snapshot.Branches); m.branchCursor >= n {
		m.branchCursor = n - 1
	}
	if m.branchCursor < 0 {
		m.branchCursor = 0
	}
	if n := len(m.snapshot.Commits); m.commitCursor >= n {
		m.commitCursor = n - 1
	}
	if m.commitCursor < 0 {
		m.commitCursor = 0
	}
}

// ── View ─────────────────────────────────────────────────────────────

// View renders the panel. Deliberately plain: one header line, the change
// lists, branches, and any pending prompt or error.
func (m Model) View() string {
	var b strings.Builder

	if !m.snapshot.IsRepository {
		b.WriteString(styles.Dim.Render("not a git repository"))
		b.WriteString("\n")
		b.WriteString(styles.Dim.Render("press i to initialize one here"))
		b.WriteString("\n")
		return b.String()
	}

	if m.detailTitle != "" {
		b.WriteString(styles.Header.Render(m.detailTitle) + "\n\n")
		b.WriteString(m.detail)
		if !strings.HasSuffix(m.detail, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n" + styles.Dim.Render("esc to close") + "\n")
		return b.String()
	}

	b.WriteString(m.headerLine())
	b.WriteString("\n\n")

	if err := m.orch.FetchErr(); err != nil {
		b.WriteString(styles.Error.Render("refresh failed: "+err.Error()) + "\n")
		b.WriteString(styles.Dim.Render("showing last known state") + "\n\n")
	}

	m.renderFiles(&b)
	m.renderBranches(&b)
	m.renderCommits(&b)

	switch m.focus {
	case focusCommit:
		label := "commit: "
		if m.amend {
			label = "amend: "
		}
		b.WriteString("\n" + label + m.commitInput.View() + "\n")
	case focusStash:
		b.WriteString("\nstash: " + m.stashInput.View() + "\n")
	case focusConfirmCheckout:
		_, target := m.guard.State()
		b.WriteString("\n" + styles.Conflict.Render(
			fmt.Sprintf("discard local changes and switch to %s? (y/n)", target)) + "\n")
	}

	for _, te := range m.orch.Errors().Active() {
		style := styles.Error
		if te.Conflict {
			style = styles.Conflict
		}
		b.WriteString("\n" + style.Render(te.Message))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) headerLine() string {
	header := styles.Header.Render(m.snapshot.CurrentBranch)
	if m.snapshot.HasUpstream {
		header += styles.Dim.Render(fmt.Sprintf(" ↑%d ↓%d", m.snapshot.Ahead, m.snapshot.Behind))
	} else if !m.snapshot.HasRemote {
		header += styles.Dim.Render(" (no remote)")
	}
	if kinds := application.InProgress(m.snapshot); len(kinds) > 0 {
		names := make([]string, len(kinds))
		for i, k := range kinds {
			names[i] = string(k)
		}
		header += styles.Conflict.Render(" [" + strings.Join(names, "/") + " in progress]")
	}
	if op := m.orch.InFlight(); op != "" {
		header += " " + m.spin.View() + styles.Dim.Render(string(op))
	}
	return header
}

func (m Model) renderFiles(b *strings.Builder) {
	files := m.allFiles()
	if len(files) == 0 {
		b.WriteString(styles.Dim.Render("working tree clean") + "\n")
		return
	}
	conflicts := map[string]bool{}
	for _, c := range m.snapshot.ConflictFiles {
		conflicts[c] = true
	}
	for i, f := range files {
		marker := " "
		if f.Staged {
			marker = "+"
		}
		line := fmt.Sprintf("%s %-9s %s", marker, f.Status, f.Path)
		if conflicts[f.Path] {
			line = styles.Conflict.Render(line)
		}
		if i == m.fileCursor && m.focus == focusFiles {
			line = styles.Cursor.Render(line)
		}
		b.WriteString(line + "\n")
	}
}

func (m Model) renderBranches(b *strings.Builder) {
	if len(m.snapshot.Branches) == 0 {
		return
	}
	b.WriteString("\n")
	for i, br := range m.snapshot.Branches {
		marker := "  "
		if br.IsCurrent {
			marker = "* "
		}
		line := marker + br.Name
		if i == m.branchCursor && m.focus == focusBranches {
			line = styles.Cursor.Render(line)
		}
		b.WriteString(line + "\n")
	}
}

// renderCommits shows the head of the log; enter or d on an entry opens the
// full commit text.
func (m Model) renderCommits(b *strings.Builder) {
	commits := m.snapshot.Commits
	if len(commits) == 0 {
		return
	}
	if len(commits) > 5 {
		commits = commits[:5]
	}
	b.WriteString("\n")
	for i, c := range commits {
		line := styles.Dim.Render(c.ShortHash) + " " + c.Subject
		if i == m.commitCursor && m.focus == focusCommits {
			line = styles.Cursor.Render(c.ShortHash + " " + c.Subject)
		}
		b.WriteString(line + "\n")
	}
}
