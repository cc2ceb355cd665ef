// Package console is a local terminal chat that feeds each message through
// the request pipeline, standing in for a real chat transport.
package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShayCichocki/matchday/pkg/models"
)

// Handler answers one request. *pipeline.Pipeline satisfies it.
type Handler interface {
	HandleRequest(ctx context.Context, text string, fields models.ContextFields) (models.FinalAnswer, error)
}

// AnswerMsg carries a finished request back into the update loop.
type AnswerMsg struct {
	Question string
	Answer   models.FinalAnswer
	Err      error
	Elapsed  time.Duration
}

// Identity is who the console speaks as. Admin switches the channel to
// privileged and grants team_admin.
type Identity struct {
	UserID      string
	TeamID      string
	DisplayName string
	Admin       bool
}

// Fields converts the identity into transport fields.
func (id Identity) Fields() models.ContextFields {
	f := models.ContextFields{
		UserID:      id.UserID,
		TeamID:      id.TeamID,
		ChannelID:   "console",
		ChannelKind: models.ChannelPublic,
		Username:    id.UserID,
		DisplayName: id.DisplayName,
		Permissions: []models.Permission{models.PermissionMember},
	}
	if id.Admin {
		f.ChannelID = "console-admin"
		f.ChannelKind = models.ChannelPrivileged
		f.Permissions = append(f.Permissions, models.PermissionTeamAdmin)
	}
	return f
}

// Option configures an App.
type Option func(*App)

// WithDiagnostics shows per-subtask routing and findings under each answer.
func WithDiagnostics(show bool) Option {
	return func(a *App) { a.diagnostics = show }
}

// WithContext sets the parent context for requests.
func WithContext(ctx context.Context) Option {
	return func(a *App) { a.ctx = ctx }
}

// App is the bubbletea model for the chat console.
type App struct {
	handler     Handler
	identity    Identity
	ctx         context.Context
	diagnostics bool

	input    *InputField
	viewport viewport.Model
	lines    []string
	pending  int
	width    int
	height   int
	quitting bool
}

// New creates the console model.
func New(h Handler, id Identity, opts ...Option) *App {
	a := &App{
		handler:  h,
		identity: id,
		ctx:      context.Background(),
		input:    NewInputField(),
		viewport: viewport.New(80, 20),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.appendLines(dimStyle.Render("Type /help for commands. ctrl+a toggles admin, ctrl+d toggles diagnostics, ctrl+c quits."))
	return a
}

// Run starts the console in the alternate screen and blocks until quit.
func Run(h Handler, id Identity, opts ...Option) error {
	_, err := tea.NewProgram(New(h, id, opts...), tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.input.Focus()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.quitting = true
			return a, tea.Quit
		case "ctrl+a":
			a.identity.Admin = !a.identity.Admin
			a.appendLines(dimStyle.Render("channel: " + string(a.identity.Fields().ChannelKind)))
			return a, nil
		case "ctrl+d":
			a.diagnostics = !a.diagnostics
			return a, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.updateSizes()
		return a, nil

	case SubmittedMsg:
		a.pending++
		a.appendLines(userStyle.Render("you") + " " + msg.Text)
		return a, a.ask(msg.Text)

	case AnswerMsg:
		a.pending--
		a.appendLines(a.renderAnswer(msg)...)
		return a, nil
	}
	return a, nil
}

// ask runs the request off the update loop.
func (a *App) ask(text string) tea.Cmd {
	ctx, fields, h := a.ctx, a.identity.Fields(), a.handler
	return func() tea.Msg {
		start := time.Now()
		answer, err := h.HandleRequest(ctx, text, fields)
		return AnswerMsg{Question: text, Answer: answer, Err: err, Elapsed: time.Since(start)}
	}
}

func (a *App) renderAnswer(msg AnswerMsg) []string {
	var out []string
	if msg.Err != nil {
		out = append(out, errorStyle.Render("error: "+msg.Err.Error()))
		if msg.Answer.Text == "" {
			return out
		}
	}
	out = append(out, botStyle.Render("bot")+" "+msg.Answer.Text)

	if !a.diagnostics {
		return out
	}
	ans := msg.Answer
	out = append(out, dimStyle.Render(fmt.Sprintf("  %s intent=%s complexity=%s took=%s",
		ans.RequestID, ans.Intent, ans.Complexity, msg.Elapsed.Round(time.Millisecond))))
	if ans.ClassificationDegraded {
		out = append(out, warnStyle.Render("  classification degraded"))
	}
	if ans.DecompositionFallback {
		out = append(out, warnStyle.Render("  decomposition fell back to a single subtask"))
	}
	for _, d := range ans.Diagnostics {
		out = append(out, dimStyle.Render("  "+DescribeDiagnostic(d)))
		for _, f := range d.Findings {
			style := dimStyle
			switch f.Severity {
			case models.SeverityBlocking:
				style = errorStyle
			case models.SeverityWarning:
				style = warnStyle
			}
			out = append(out, style.Render(fmt.Sprintf("    %s: %s", f.Severity, f.Message)))
		}
	}
	return out
}

// DescribeDiagnostic renders one subtask diagnostic on a single line.
func DescribeDiagnostic(d models.SubtaskDiagnostic) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]", d.SubtaskID, d.Status)
	if d.Routing != nil {
		fmt.Fprintf(&b, " -> %s (%.2f)", d.Routing.ChosenAgentID, d.Routing.Score)
		if d.Routing.HasRunnerUp() {
			fmt.Fprintf(&b, " over %s (%.2f)", d.Routing.RunnerUpAgentID, d.Routing.RunnerUpScore)
		}
	}
	if d.Attempts > 1 {
		fmt.Fprintf(&b, " attempts=%d", d.Attempts)
	}
	if d.Blocked {
		b.WriteString(" blocked")
	}
	if d.Error != "" {
		b.WriteString(": " + d.Error)
	}
	return b.String()
}

func (a *App) appendLines(lines ...string) {
	a.lines = append(a.lines, lines...)
	a.viewport.SetContent(strings.Join(a.lines, "\n"))
	a.viewport.GotoBottom()
}

func (a *App) updateSizes() {
	inputHeight := 3
	headerHeight := 1
	h := a.height - inputHeight - headerHeight
	if h < 1 {
		h = 1
	}
	a.viewport.Width = a.width
	a.viewport.Height = h
	a.input.SetWidth(a.width)
	a.viewport.GotoBottom()
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return ""
	}
	header := fmt.Sprintf("matchday  %s@%s  %s", a.identity.UserID, a.identity.TeamID, a.identity.Fields().ChannelKind)
	if a.pending > 0 {
		header += "  thinking..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(header),
		a.viewport.View(),
		a.input.View(),
	)
}
