package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mibitech/mibitech-site/internal/pages"
	"github.com/mibitech/mibitech-site/pkg/navigation"
)

type browserState int

const (
	browserStateView browserState = iota
	browserStatePrompt
)

type browserKeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Open    key.Binding
	Back    key.Binding
	Forward key.Binding
	Reload  key.Binding
	Goto    key.Binding
	Quit    key.Binding
}

func (k browserKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Open, k.Back, k.Forward, k.Goto, k.Quit}
}

func (k browserKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Open},
		{k.Back, k.Forward, k.Reload},
		{k.Goto, k.Quit},
	}
}

var browserKeys = browserKeyMap{
	Next: key.NewBinding(
		key.WithKeys("tab", "n"),
		key.WithHelp("tab", "next link"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "p"),
		key.WithHelp("shift+tab", "prev link"),
	),
	Open: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("b", "left"),
		key.WithHelp("b", "back"),
	),
	Forward: key.NewBinding(
		key.WithKeys("f", "right"),
		key.WithHelp("f", "forward"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Goto: key.NewBinding(
		key.WithKeys(":"),
		key.WithHelp(":", "go to path"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// buildFunc constructs the app; the first navigation runs inside it.
type buildFunc func() *pages.App

type browserModel struct {
	session *navigation.Session
	build   buildFunc
	app     *pages.App

	state  browserState
	vp     viewport.Model
	input  textinput.Model
	help   help.Model
	keys   browserKeyMap
	width  int
	height int

	view     pages.View
	links    []link
	selected int
	busy     bool
	status   string
	err      error
}

type appReadyMsg struct {
	app *pages.App
}

type navDoneMsg struct {
	view   pages.View
	status string
}

func newBrowserModel(session *navigation.Session, build buildFunc) browserModel {
	ti := textinput.New()
	ti.Prompt = ": "
	ti.Placeholder = "/contato.html"
	ti.CharLimit = 256

	h := help.New()
	h.ShowAll = false

	return browserModel{
		session: session,
		build:   build,
		vp:      viewport.New(0, 0),
		input:   ti,
		help:    h,
		keys:    browserKeys,
		busy:    true,
	}
}

func (m browserModel) Init() tea.Cmd {
	build := m.build
	return func() tea.Msg {
		return appReadyMsg{app: build()}
	}
}

// navCmd runs fn off the update loop and reports the view it produced.
func (m browserModel) navCmd(fn func() string) tea.Cmd {
	app := m.app
	return func() tea.Msg {
		status := fn()
		return navDoneMsg{view: app.Last(), status: status}
	}
}

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case appReadyMsg:
		m.app = msg.app
		m.busy = false
		m.setView(msg.app.Last())
		return m, nil

	case navDoneMsg:
		m.busy = false
		m.status = msg.status
		m.setView(msg.view)
		return m, nil

	case tea.KeyMsg:
		if m.state == browserStatePrompt {
			return m.updatePrompt(msg)
		}
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.busy || m.app == nil {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Next):
			m.moveSelection(1)
			return m, nil
		case key.Matches(msg, m.keys.Prev):
			m.moveSelection(-1)
			return m, nil
		case key.Matches(msg, m.keys.Open):
			if m.selected < 0 || m.selected >= len(m.links) {
				return m, nil
			}
			target := m.links[m.selected]
			m.busy = true
			sess := m.session
			return m, m.navCmd(func() string {
				before := len(sess.ExternalFollows())
				sess.Activate(target.Node)
				if ext := sess.ExternalFollows(); len(ext) > before {
					return "link externo: " + ext[len(ext)-1]
				}
				return ""
			})
		case key.Matches(msg, m.keys.Back):
			m.busy = true
			sess := m.session
			return m, m.navCmd(func() string {
				if !sess.Back() {
					return "início do histórico"
				}
				return ""
			})
		case key.Matches(msg, m.keys.Forward):
			m.busy = true
			sess := m.session
			return m, m.navCmd(func() string {
				if !sess.Forward() {
					return "fim do histórico"
				}
				return ""
			})
		case key.Matches(msg, m.keys.Reload):
			m.busy = true
			r := m.app.Router()
			return m, m.navCmd(func() string {
				r.Navigate(r.CurrentPath(), false)
				return ""
			})
		case key.Matches(msg, m.keys.Goto):
			m.state = browserStatePrompt
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m browserModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.state = browserStateView
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.state = browserStateView
		m.input.Blur()
		path := strings.TrimSpace(m.input.Value())
		if path == "" || m.app == nil {
			return m, nil
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		m.busy = true
		r := m.app.Router()
		return m, m.navCmd(func() string {
			r.Navigate(path, true)
			return ""
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *browserModel) setView(v pages.View) {
	m.view = v
	text, links, err := renderHTML(v.HTML)
	m.err = err
	m.links = links
	m.selected = 0
	if len(links) == 0 {
		m.selected = -1
	}
	if len(v.Blocks) > 0 {
		text += "\n\n" + strings.Join(v.Blocks, "\n")
	}
	if v.Err != "" {
		text = v.Err + "\n\n" + text
	}
	m.vp.SetContent(text)
	m.vp.GotoTop()
	m.resize()
}

func (m *browserModel) moveSelection(delta int) {
	if len(m.links) == 0 {
		return
	}
	m.selected = (m.selected + delta + len(m.links)) % len(m.links)
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle    = lipgloss.NewStyle().Faint(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

func (m browserModel) View() string {
	var b strings.Builder
	title := m.view.Title
	if title == "" {
		title = pages.BaseTitle
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	loc := m.session.Location()
	b.WriteString(faintStyle.Render(fmt.Sprintf("%s  historico=%d", loc.String(), m.session.HistoryLen())))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.vp.View())
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(faintStyle.Render("carregando..."))
	case m.selected >= 0 && m.selected < len(m.links):
		l := m.links[m.selected]
		b.WriteString(selectedStyle.Render(fmt.Sprintf("[%d] %s -> %s", m.selected+1, l.Text, l.Href)))
	default:
		b.WriteString(faintStyle.Render("sem links"))
	}
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(faintStyle.Render(m.status))
		b.WriteString("\n")
	}
	if m.state == browserStatePrompt {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *browserModel) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	// title + location + selection + help, plus optional status/prompt/error
	used := 4
	if m.status != "" {
		used++
	}
	if m.state == browserStatePrompt {
		used++
	}
	if m.err != nil {
		used++
	}
	avail := m.height - used
	if avail < 5 {
		avail = 5
	}
	m.vp.Width = m.width
	m.vp.Height = avail
}
