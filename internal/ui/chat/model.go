// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lumenedu/tutorchat/internal/auth"
	"github.com/lumenedu/tutorchat/internal/config"
	"github.com/lumenedu/tutorchat/internal/pagectx"
	"github.com/lumenedu/tutorchat/internal/ratelimit"
	"github.com/lumenedu/tutorchat/internal/selection"
	"github.com/lumenedu/tutorchat/internal/telemetry"
	"github.com/lumenedu/tutorchat/internal/thread"
	"github.com/lumenedu/tutorchat/internal/tutor"
)

// tickInterval drives the quota-reset countdown refresh.
const tickInterval = time.Second * 10

// =============================================================================
// MODEL
// =============================================================================

// Deps are the wired services the chat view operates over.
type Deps struct {
	Config   *config.Config
	Client   *tutor.Client
	Store    *thread.Store
	Limits   *ratelimit.Tracker
	Gate     *ratelimit.RefreshGate
	Tokens   *auth.TokenProvider
	Material *pagectx.Material
	Journal  telemetry.Recorder
}

// Model is the Bubble Tea model for the tutoring chat view.
type Model struct {
	deps      Deps
	extractor *pagectx.Extractor
	styles    Styles

	// send is the program pump; session goroutines deliver notes through
	// it. Installed via SetPump once the program exists.
	send func(tea.Msg)

	// Current exchange. Nil between exchanges; every busy/disabled flag
	// derives from session.Phase(), never from a separate boolean.
	session *tutor.Session
	partial string

	// limited latches after a server-declared rate limit and clears only
	// when a fresh snapshot shows remaining sends again.
	limited    bool
	limitedMsg string

	lastErr   error
	signedIn  bool
	statusMsg string

	// loadedHistory marks threads whose history has been fetched.
	loadedHistory map[string]bool

	// Dimensions
	width  int
	height int
	ready  bool

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
}

// New creates the chat model over the given services.
func New(d Deps) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask your tutor..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &Model{
		deps:          d,
		extractor:     pagectx.NewExtractor(d.Material),
		styles:        DefaultStyles(),
		signedIn:      d.Tokens != nil && d.Tokens.GetToken(context.Background()) != "",
		loadedHistory: make(map[string]bool),
		viewport:      vp,
		input:         ti,
		spinner:       sp,
	}
}

// SetPump installs the program's message pump. Must be called before the
// program runs; session goroutines are spawned only afterward.
func (m *Model) SetPump(send func(tea.Msg)) {
	m.send = send
}

// busy reports whether an exchange is in flight.
func (m *Model) busy() bool {
	return m.session != nil && !m.session.Phase().Terminal()
}

// =============================================================================
// INIT / UPDATE
// =============================================================================

// Init starts the spinner and kicks off the initial loads.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadThreadsCmd(),
		m.refreshUsageCmd(),
		tickCmd(),
	)
}

// Update handles incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		m.maybeUnlatch()
		return m, tickCmd()

	case SessionNoteMsg:
		m.handleNote(msg.Note)
		if msg.Note.Phase == tutor.PhaseRateLimited {
			// Ask for a post-stop snapshot; it is the only thing that can
			// clear the latch.
			return m, m.refreshUsageCmd()
		}
		return m, nil

	case SendRefusedMsg:
		m.statusMsg = msg.Err.Error()
		m.session = nil
		return m, nil

	case ThreadsLoadedMsg:
		if msg.Err != nil {
			// Lenient read path: log and keep whatever list we had.
			log.Printf("chat: thread list load failed: %v", msg.Err)
			return m, nil
		}
		m.deps.Store.SetThreads(msg.Threads)
		return m, nil

	case ThreadHistoryMsg:
		if msg.Err != nil {
			log.Printf("chat: history load failed for %s: %v", msg.ThreadID, msg.Err)
			m.statusMsg = "could not load thread history"
			return m, nil
		}
		m.loadedHistory[msg.ThreadID] = true
		m.deps.Store.SetMessages(msg.ThreadID, msg.Messages)
		m.refreshViewport()
		return m, nil

	case UsageRefreshedMsg:
		m.maybeUnlatch()
		return m, nil

	case AuthStateMsg:
		m.signedIn = msg.State == auth.SignedIn
		if !m.signedIn {
			m.statusMsg = "signed out"
			return m, nil
		}
		m.statusMsg = ""
		// A fresh session means a fresh quota window may apply.
		return m, m.refreshUsageCmd()

	case ConfigReloadedMsg:
		m.deps.Config = msg.Config
		m.statusMsg = "configuration reloaded"
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		return m.submit()

	case "ctrl+n":
		if m.busy() {
			// Allowed mid-stream: the old exchange keeps writing into its
			// own thread, invisible from here on.
			m.detachSession()
		}
		m.deps.Store.StartNew()
		m.partial = ""
		m.lastErr = nil
		m.statusMsg = "new thread"
		m.refreshViewport()
		return m, nil

	case "ctrl+t":
		return m.cycleThread()

	case "ctrl+r":
		return m, m.refreshUsageCmd()

	case "ctrl+q":
		// Pull the document selection into the composer as a question.
		if sel := selection.FromSelection(m.extractor.Selection()); sel != "" {
			m.input.SetValue(sel)
			m.input.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// SEND FLOW
// =============================================================================

// submit starts a new exchange from the composer content.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	if m.busy() {
		return m, nil
	}
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}
	if m.limited || !m.deps.Limits.CanSend() {
		m.statusMsg = "quota exhausted - sending disabled"
		return m, nil
	}

	view := m.deps.Store.NewView()
	session := tutor.NewSession(m.deps.Client, view, m.deps.Limits).
		WithNotify(func(n tutor.Note) { m.send(SessionNoteMsg{Note: n}) }).
		WithJournal(m.deps.Journal).
		WithCleanup(m.deps.Material.ClearSelection)

	m.session = session
	m.partial = ""
	m.lastErr = nil
	m.statusMsg = ""
	m.input.Reset()

	pc := m.extractor.Snapshot()
	go func() {
		err := session.Run(context.Background(), content, pc)
		// Refused sends resolve without notes; everything else already
		// reached the UI through the notify path.
		if errors.Is(err, tutor.ErrEmptyMessage) ||
			errors.Is(err, tutor.ErrQuotaExhausted) ||
			errors.Is(err, tutor.ErrSessionSpent) {
			m.send(SendRefusedMsg{Err: err})
		}
	}()

	m.refreshViewport()
	return m, nil
}

// handleNote applies one session notification.
func (m *Model) handleNote(n tutor.Note) {
	// Notes from a superseded exchange still arrive; only its terminal
	// bookkeeping matters, its content stays off-screen.
	current := m.session != nil && n.ExchangeID == m.session.ID()

	switch n.Phase {
	case tutor.PhaseSending, tutor.PhaseSettling:
		// Spinner state derives from busy(); nothing to record.

	case tutor.PhaseStreaming:
		if current {
			m.partial = n.Partial
		}

	case tutor.PhaseSuccess:
		if current {
			m.partial = ""
			m.detachSession()
		}

	case tutor.PhaseRateLimited:
		if current {
			m.partial = ""
			m.detachSession()
		}
		m.limited = true
		m.limitedMsg = n.ServerMessage
		// A held count still showing sends available predates the stop
		// event; drop it so the latch waits for a post-stop snapshot.
		if snap, known := m.deps.Limits.Snapshot(); known && snap.Remaining > 0 {
			m.deps.Limits.MarkUnknown()
		}

	case tutor.PhaseError:
		if current {
			m.partial = ""
			if errors.Is(n.Err, tutor.ErrNoContent) {
				// The stream ended with nothing to show. Not the user's
				// fault and nothing to recover; a status note, not an error.
				m.statusMsg = "no answer arrived - try asking again"
			} else {
				m.lastErr = n.Err
			}
			m.detachSession()
		}
	}

	m.refreshViewport()
}

// detachSession drops the finished (or abandoned) exchange handle.
func (m *Model) detachSession() {
	m.session = nil
}

// maybeUnlatch clears the rate-limited latch once a fresh snapshot shows
// sends available again. The latch never clears on guesswork.
func (m *Model) maybeUnlatch() {
	if !m.limited {
		return
	}
	if snap, known := m.deps.Limits.Snapshot(); known && snap.Remaining > 0 {
		m.limited = false
		m.limitedMsg = ""
	}
}

// =============================================================================
// THREAD NAVIGATION
// =============================================================================

// cycleThread switches the active view to the next known thread.
func (m *Model) cycleThread() (tea.Model, tea.Cmd) {
	threads := m.deps.Store.Threads()
	if len(threads) == 0 {
		m.statusMsg = "no threads yet"
		return m, nil
	}

	next := threads[0].ID
	if active := m.deps.Store.ActiveID(); active != "" {
		for i := range threads {
			if threads[i].ID == active {
				next = threads[(i+1)%len(threads)].ID
				break
			}
		}
	}

	if m.busy() {
		m.detachSession()
	}
	m.partial = ""
	m.lastErr = nil
	m.deps.Store.SwitchTo(next)
	m.refreshViewport()

	if !m.loadedHistory[next] {
		return m, m.loadHistoryCmd(next)
	}
	return m, nil
}

// =============================================================================
// COMMANDS
// =============================================================================

// loadThreadsCmd fetches the thread list.
func (m *Model) loadThreadsCmd() tea.Cmd {
	limit := m.deps.Config.API.ThreadListLimit
	client := m.deps.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), tutor.DefaultTimeout)
		defer cancel()
		threads, err := client.ListThreads(ctx, limit)
		return ThreadsLoadedMsg{Threads: threads, Err: err}
	}
}

// loadHistoryCmd fetches one thread's message history.
func (m *Model) loadHistoryCmd(id string) tea.Cmd {
	client := m.deps.Client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), tutor.DefaultTimeout)
		defer cancel()
		msgs, err := client.GetThread(ctx, id)
		return ThreadHistoryMsg{ThreadID: id, Messages: msgs, Err: err}
	}
}

// refreshUsageCmd refreshes the quota snapshot through the gate.
func (m *Model) refreshUsageCmd() tea.Cmd {
	client := m.deps.Client
	limits := m.deps.Limits
	gate := m.deps.Gate
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), tutor.DefaultTimeout)
		defer cancel()
		client.RefreshUsage(ctx, limits, gate)
		return UsageRefreshedMsg{}
	}
}

// tickCmd schedules the next housekeeping tick.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if banner := m.renderBanner(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n")
	}
	if m.lastErr != nil {
		b.WriteString(m.styles.ErrorLine.Render("error: " + m.lastErr.Error()))
		b.WriteString("\n")
	}

	b.WriteString(m.renderInputLine())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

// renderHeader shows the study material and active thread.
func (m *Model) renderHeader() string {
	title := m.deps.Material.Title()
	if title == "" {
		title = "Tutor"
	}

	threadLabel := "new thread"
	if active := m.deps.Store.ActiveID(); active != "" {
		threadLabel = activeThreadTitle(m.deps.Store, active)
	}

	return m.styles.Header.Render(fmt.Sprintf("%s  ·  %s", title, threadLabel))
}

// activeThreadTitle resolves the display title for a thread id.
func activeThreadTitle(store *thread.Store, id string) string {
	for _, t := range store.Threads() {
		if t.ID == id {
			return t.TitleOrDefault()
		}
	}
	return id
}

// renderBanner shows the quota banner: hard stop when rate limited,
// advisory when low, a shrug when the quota is unknown.
func (m *Model) renderBanner() string {
	if m.limited {
		msg := m.limitedMsg
		if msg == "" {
			msg = "You have reached your tutoring limit."
		}
		return m.styles.BannerStop.Render(msg + " (sending disabled)")
	}

	snap, known := m.deps.Limits.Snapshot()
	if !known {
		return m.styles.BannerWarn.Render("quota status unknown")
	}
	if !m.deps.Limits.CanSend() {
		return m.styles.BannerStop.Render("No questions left in this window. (sending disabled)")
	}
	if m.deps.Limits.Low() {
		reset := ""
		if snap.ResetAt != nil {
			reset = fmt.Sprintf(", resets %s", snap.ResetAt.Local().Format("15:04"))
		}
		return m.styles.BannerWarn.Render(
			fmt.Sprintf("%d of %d questions left%s", snap.Remaining, snap.Limit, reset))
	}
	return ""
}

// renderInputLine shows the composer, or the in-flight indicator.
func (m *Model) renderInputLine() string {
	if m.busy() {
		label := "thinking"
		if m.session.Phase() == tutor.PhaseStreaming {
			label = "answering"
		}
		return fmt.Sprintf("%s %s...", m.spinner.View(), label)
	}
	if m.limited || !m.deps.Limits.CanSend() {
		return m.styles.StatusBar.Render("(sending disabled)")
	}
	return m.input.View()
}

// renderStatusBar shows key hints, selection state, and transient status.
func (m *Model) renderStatusBar() string {
	hints := []string{
		m.styles.StatusKey.Render("enter") + " send",
		m.styles.StatusKey.Render("ctrl+n") + " new",
		m.styles.StatusKey.Render("ctrl+t") + " threads",
		m.styles.StatusKey.Render("ctrl+q") + " ask selection",
		m.styles.StatusKey.Render("ctrl+c") + " quit",
	}
	line := strings.Join(hints, "  ")

	if sel := m.extractor.Selection(); sel != "" {
		line += "  " + m.styles.Selection.Render("[selection active]")
	}
	if !m.signedIn {
		line += "  " + m.styles.ErrorLine.Render("[signed out]")
	}
	if m.statusMsg != "" {
		line += "  " + m.statusMsg
	}

	return m.styles.StatusBar.Render(line)
}

// refreshViewport re-renders the conversation into the viewport.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation())
	m.viewport.GotoBottom()
}

// renderConversation renders the visible messages plus any live partial
// from the current exchange.
func (m *Model) renderConversation() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	body := m.styles.Body.Width(width)

	var b strings.Builder
	for _, msg := range m.deps.Store.Visible() {
		label := m.styles.TutorLabel.Render("Tutor")
		if msg.Role == thread.RoleUser {
			label = m.styles.UserLabel.Render("You")
		}
		b.WriteString(label)
		b.WriteString("\n")
		b.WriteString(body.Render(msg.Content))
		b.WriteString("\n\n")
	}

	// Live partial renders only while its exchange still owns the screen.
	if m.partial != "" && m.session != nil && m.session.View().Current() {
		b.WriteString(m.styles.TutorLabel.Render("Tutor"))
		b.WriteString("\n")
		b.WriteString(m.styles.Partial.Width(width).Render(m.partial))
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return m.styles.StatusBar.Render("Ask a question about the material to get started.")
	}
	return b.String()
}

// resize recomputes component dimensions.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	// header + banner/error slack + input + status
	chrome := 6
	vpHeight := height - chrome
	if vpHeight < 3 {
		vpHeight = 3
	}

	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - lipgloss.Width(m.input.Prompt) - 1

	m.ready = true
	m.refreshViewport()
}
