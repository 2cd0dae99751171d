// Package input provides the query input for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-desk/internal/adapters/driving/tui/styles"
)

const (
	charLimit    = 256
	historyLimit = 50
	minWidth     = 20

	// fieldPadding is the prompt plus the field border and padding.
	fieldPadding = 8
)

// SearchInput is a single-line query field that remembers submitted queries.
// Up and down recall older and newer entries while the field has focus.
type SearchInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	history []string
	// cursor indexes history while recalling; len(history) means the draft.
	cursor int
	draft  string
}

// NewSearchInput creates a focused query input.
func NewSearchInput(s *styles.Styles) *SearchInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Search your files..."
	ti.Prompt = "› "
	ti.CharLimit = charLimit
	ti.Width = 50 - fieldPadding
	ti.Focus()

	return &SearchInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init starts the cursor blink.
func (s *SearchInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && s.textinput.Focused() {
		switch key.Type { //nolint:exhaustive // only history keys are intercepted
		case tea.KeyUp:
			s.recall(-1)
			return s, nil
		case tea.KeyDown:
			s.recall(1)
			return s, nil
		}
	}

	var cmd tea.Cmd
	s.textinput, cmd = s.textinput.Update(msg)
	return s, cmd
}

// recall moves through history by step, keeping the unsent draft at the end.
func (s *SearchInput) recall(step int) {
	if len(s.history) == 0 {
		return
	}
	if s.cursor == len(s.history) {
		s.draft = s.textinput.Value()
	}
	next := min(max(s.cursor+step, 0), len(s.history))
	if next == s.cursor {
		return
	}
	s.cursor = next
	if s.cursor == len(s.history) {
		s.textinput.SetValue(s.draft)
	} else {
		s.textinput.SetValue(s.history[s.cursor])
	}
	s.textinput.CursorEnd()
}

// Remember records a submitted query. Repeating the latest query is a no-op.
func (s *SearchInput) Remember(query string) {
	if query != "" && (len(s.history) == 0 || s.history[len(s.history)-1] != query) {
		s.history = append(s.history, query)
		if len(s.history) > historyLimit {
			s.history = s.history[len(s.history)-historyLimit:]
		}
	}
	s.cursor = len(s.history)
	s.draft = ""
}

// History returns submitted queries, oldest first.
func (s *SearchInput) History() []string {
	return s.history
}

// View renders the input inside its field border. The border is
// highlighted while the field has focus.
func (s *SearchInput) View() string {
	field := s.styles.InputField
	if s.textinput.Focused() {
		field = s.styles.InputFocused
	}
	return field.Render(s.textinput.View())
}

// Value returns the current input value.
func (s *SearchInput) Value() string {
	return s.textinput.Value()
}

// SetValue sets the input value.
func (s *SearchInput) SetValue(value string) {
	s.textinput.SetValue(value)
}

// Focus gives the input keyboard focus.
func (s *SearchInput) Focus() tea.Cmd {
	return s.textinput.Focus()
}

// Blur removes focus from the input.
func (s *SearchInput) Blur() {
	s.textinput.Blur()
}

// Focused returns whether the input is focused.
func (s *SearchInput) Focused() bool {
	return s.textinput.Focused()
}

// SetWidth sets the width of the input. The text area leaves room for the
// prompt and the field border.
func (s *SearchInput) SetWidth(width int) {
	s.width = width
	s.textinput.Width = max(width-fieldPadding, minWidth)
}

// Width returns the current width.
func (s *SearchInput) Width() int {
	return s.width
}

// Reset clears the input and any in-progress history recall.
func (s *SearchInput) Reset() {
	s.textinput.Reset()
	s.cursor = len(s.history)
	s.draft = ""
}
