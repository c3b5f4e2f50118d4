// Package tui is an interactive list that renders container State and
// sends every user intent through the action handler.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todo/internal/service"
	"todo/internal/state"
)

// Store is the read side of the state container.
type Store interface {
	State() state.State
	Subscribe(fn func(state.State)) func()
}

// Actions is the write side; every call returns immediately.
type Actions interface {
	FetchTodos()
	ToggleTodo(id string)
	UpdateTodo(t service.Todo)
	DeleteTodo(id string)
	AddTodo()
	SetNewTaskTitle(title string)
	ReorderTodos()
	DismissError()
}

type stateMsg state.State

type inputMode int

const (
	modeBrowse inputMode = iota
	modeAdd
	modeEdit
)

type listItem struct{ todo service.Todo }

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Title }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)
	box, text := mutedStyle.Render(boxUnchecked), it.todo.Title
	if it.todo.Completed {
		box, text = successStyle.Render(boxChecked), doneStyle.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

// Model is the Bubble Tea model.
type Model struct {
	actions Actions
	updates <-chan state.State

	list  list.Model
	input textinput.Model
	mode  inputMode
	state state.State

	editing    service.Todo
	pendingAdd string
	width      int
	height     int
}

// New builds a model showing initial and fed by updates.
func New(actions Actions, initial state.State, updates <-chan state.State) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	bindings := []key.Binding{
		key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reverse")),
		key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload")),
		key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss error")),
	}
	l.AdditionalShortHelpKeys = func() []key.Binding { return bindings[:3] }
	l.AdditionalFullHelpKeys = func() []key.Binding { return bindings }

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{actions: actions, updates: updates, list: l, input: ti}
	return m.apply(initial)
}

// Init starts listening for State updates.
func (m Model) Init() tea.Cmd {
	return m.waitForState()
}

func (m Model) waitForState() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch := m.updates
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return stateMsg(s)
	}
}

// State is the last snapshot the model rendered.
func (m Model) State() state.State { return m.state }

func (m Model) apply(s state.State) Model {
	m.state = s
	items := make([]list.Item, 0, len(s.Todos))
	done := 0
	for _, t := range s.Todos {
		items = append(items, listItem{todo: t})
		if t.Completed {
			done++
		}
	}
	m.list.SetItems(items)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), len(s.Todos)-done,
		accentStyle.Render("Total"), len(s.Todos),
	)
	return m
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m = m.apply(state.State(msg))
		if m.pendingAdd != "" && m.state.NewTaskTitle == m.pendingAdd {
			m.pendingAdd = ""
			m.actions.AddTodo()
		}
		return m, m.waitForState()
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		if m.list.FilterState() != list.Filtering {
			if next, cmd, handled := m.updateBrowse(msg); handled {
				return next, cmd
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (Model, tea.Cmd, bool) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit, true
	case " ":
		if t, ok := m.selected(); ok {
			m.actions.ToggleTodo(t.ID)
		}
	case "d":
		if t, ok := m.selected(); ok {
			m.actions.DeleteTodo(t.ID)
		}
	case "a":
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Placeholder = "New todo title..."
		m.input.Focus()
		m.resize()
	case "e":
		t, ok := m.selected()
		if !ok {
			return m, nil, true
		}
		m.mode = modeEdit
		m.editing = t
		m.input.SetValue(t.Title)
		m.input.CursorEnd()
		m.input.Placeholder = "Edit todo title..."
		m.input.Focus()
		m.resize()
	case "r":
		m.actions.ReorderTodos()
	case "R":
		m.actions.FetchTodos()
	case "x":
		m.actions.DismissError()
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m = m.closeInput()
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.input.Value())
		if title == "" {
			return m, nil
		}
		if m.mode == modeEdit {
			m.actions.UpdateTodo(m.editing.WithTitle(title))
		} else {
			m.submitTitle(title)
		}
		m = m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeAdd && m.input.Value() != before {
		m.actions.SetNewTaskTitle(m.input.Value())
	}
	return m, cmd
}

// submitTitle adds title once the debounced buffer holds it.
func (m *Model) submitTitle(title string) {
	if m.state.NewTaskTitle == title {
		m.actions.AddTodo()
		return
	}
	m.pendingAdd = title
	m.actions.SetNewTaskTitle(title)
}

func (m Model) closeInput() Model {
	m.mode = modeBrowse
	m.editing = service.Todo{}
	m.input.SetValue("")
	m.input.Blur()
	m.resize()
	return m
}

func (m Model) selected() (service.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it.todo, ok
}

func (m *Model) resize() {
	if m.width == 0 {
		return
	}
	h := m.height - 4
	if m.mode != modeBrowse {
		h -= 3
	}
	if m.state.Err != nil {
		h -= 2
	}
	m.list.SetSize(m.width-4, max(h, 1))
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())

	if m.state.IsLoading {
		b.WriteString("\n" + mutedStyle.Render("loading..."))
	}
	if m.state.Err != nil {
		msg := strings.ReplaceAll(m.state.Err.Message(), "\n", " ")
		b.WriteString("\n" + errorStyle.Render("✖ "+msg) + helpStyle.Render("  (x to dismiss)"))
	}
	if m.mode != modeBrowse {
		title := "Add todo"
		if m.mode == modeEdit {
			title = "Edit todo"
		}
		b.WriteString("\n" + panelStyle.Render(title+"\n"+m.input.View()))
	}
	return panelStyle.Render(b.String())
}

// Run shows the list until the user quits or ctx is canceled.
func Run(ctx context.Context, store Store, actions Actions, opts ...tea.ProgramOption) error {
	updates := make(chan state.State, 1)
	unsubscribe := store.Subscribe(func(s state.State) { offer(updates, s) })
	defer unsubscribe()

	actions.FetchTodos()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(actions, store.State(), updates), opts...).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// offer replaces any undelivered snapshot with s. The container loop is the
// only sender, so it never blocks.
func offer(ch chan state.State, s state.State) {
	select {
	case ch <- s:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- s:
	default:
	}
}
