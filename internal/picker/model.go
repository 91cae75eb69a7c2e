package picker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/runger/vselect/internal/measure"
	"github.com/runger/vselect/internal/option"
	"github.com/runger/vselect/internal/vlist"
)

// debounceInterval is the delay after the last keystroke before triggering a fetch.
const debounceInterval = 100 * time.Millisecond

// wheelStep is how far one mouse wheel notch scrolls, in rows.
const wheelStep = 3

const (
	listTop = 1 // line of the first list row: the query line sits above it
	chrome  = 2 // query line + status line
)

// Defaults used before options or a WindowSizeMsg say otherwise.
const (
	DefaultMaxHeight = 10
	DefaultOverscan  = 10
)

// pickerState represents the current state of the picker's state machine.
type pickerState int

const (
	stateIdle      pickerState = iota // Initial state before first fetch
	stateLoading                      // Fetch in progress
	stateLoaded                       // Options loaded successfully (len > 0)
	stateEmpty                        // Fetch succeeded but returned 0 options
	stateError                        // Fetch failed
	stateCancelled                    // User cancelled (Esc / Ctrl+C)
)

// fetchDoneMsg is sent when an async Provider.Fetch completes.
type fetchDoneMsg struct {
	requestID uint64
	items     []option.Item
	err       error
}

// debounceMsg fires after the debounce timer expires.
type debounceMsg struct {
	id uint64 // Must match current debounceID to be accepted
}

// initMsg is sent by Init() to trigger the first fetch via Update(),
// ensuring state mutations are visible to the Bubble Tea runtime.
type initMsg struct{}

// Model is the Bubble Tea model of the searchable select. The option list is
// virtualized: only rows in the scroll window are rendered.
type Model struct {
	state pickerState
	list  *vlist.List
	input textinput.Model
	keys  keyMap

	// value is the chosen key; highlight is the keyboard focus. They differ
	// until the user chooses.
	value     string
	highlight int // Index into the current sequence; -1 when empty
	query     string
	err       error

	requestID uint64 // Monotonic counter for stale detection
	provider  Provider

	width  int // Terminal width
	height int // Terminal height

	maxHeight  int
	overscan   int
	labelLimit int
	disabled   bool

	result   option.Item
	chosen   bool
	onChange func(key string)

	// cancelFetch cancels the in-flight Provider.Fetch context.
	cancelFetch context.CancelFunc

	// debounceID tracks the latest debounce timer; only a matching
	// debounceMsg will trigger a fetch.
	debounceID uint64

	logger zerolog.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithValue sets the initially chosen key. The list opens scrolled to it.
func WithValue(key string) Option {
	return func(m *Model) { m.value = key }
}

// WithOnChange registers fn to be called with the key the user chooses.
func WithOnChange(fn func(key string)) Option {
	return func(m *Model) { m.onChange = fn }
}

// WithDisabled starts the picker disabled: it renders but ignores everything
// except cancel.
func WithDisabled(disabled bool) Option {
	return func(m *Model) { m.disabled = disabled }
}

// WithPlaceholder sets the query placeholder text.
func WithPlaceholder(s string) Option {
	return func(m *Model) { m.input.Placeholder = s }
}

// WithQuery pre-fills the query.
func WithQuery(q string) Option {
	return func(m *Model) {
		m.query = q
		m.input.SetValue(q)
	}
}

// WithMaxHeight caps the list panel height, in rows.
func WithMaxHeight(rows int) Option {
	return func(m *Model) { m.maxHeight = rows }
}

// WithOverscan sets how many rows are rendered beyond each viewport edge.
func WithOverscan(rows int) Option {
	return func(m *Model) { m.overscan = max(rows, 0) }
}

// WithLabelLimit clips labels to n display columns with "...". Zero disables
// clipping.
func WithLabelLimit(n int) Option {
	return func(m *Model) { m.labelLimit = max(n, 0) }
}

// WithLogger sets the picker logger; the list logs through it too.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// NewModel creates a new picker Model that lists options from provider and
// sizes rows with estimator.
func NewModel(provider Provider, estimator *measure.Estimator, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = queryStyle

	m := Model{
		state:     stateIdle,
		input:     ti,
		keys:      defaultKeyMap(),
		highlight: -1,
		provider:  provider,
		maxHeight: DefaultMaxHeight,
		overscan:  DefaultOverscan,
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(&m)
	}
	m.list = vlist.New(estimator, vlist.WithLogger(m.logger))
	if !m.disabled {
		m.input.Focus()
	}
	return m
}

// Result returns the chosen option and whether the user chose one.
func (m Model) Result() (option.Item, bool) {
	return m.result, m.chosen
}

// IsCancelled reports whether the user dismissed the picker.
func (m Model) IsCancelled() bool {
	return m.state == stateCancelled
}

// Value returns the chosen key, or the initial value until one is chosen.
func (m Model) Value() string { return m.value }

// Query returns the current query.
func (m Model) Query() string { return m.query }

// SetDisabled toggles the disabled flag. A disabled picker keeps rendering.
func (m *Model) SetDisabled(disabled bool) {
	m.disabled = disabled
	if disabled {
		m.input.Blur()
		return
	}
	m.input.Focus()
}

// Init implements tea.Model. It sends an initMsg so that the first fetch
// is triggered through Update, where state mutations are properly captured.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return initMsg{} })
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		widthChanged := msg.Width != m.width
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetWidth(msg.Width)
		m.input.Width = max(msg.Width-lipgloss.Width(m.input.Prompt)-1, 1)
		if widthChanged && m.list.IsOpen() {
			// Heights were re-estimated; keep the focused row on screen.
			m.list.ScrollIntoView(m.highlight, m.viewportHeight())
		}
		return m, nil

	case fetchDoneMsg:
		return m.handleFetchDone(msg)

	case debounceMsg:
		return m.handleDebounce(msg)

	case initMsg:
		return m, m.startFetch()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		m.state = stateCancelled
		m.list.Close()
		m.cancelInflight()
		return m, tea.Quit
	}
	if m.disabled {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Choose):
		if !m.interactive() {
			return m, nil
		}
		return m.choose(m.highlight)

	case key.Matches(msg, m.keys.Up):
		m.moveHighlight(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveHighlight(1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.moveHighlight(-m.pageRows())
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.moveHighlight(m.pageRows())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != m.query {
		m.query = v
		debounce := m.startDebounce()
		return m, tea.Batch(cmd, debounce)
	}
	return m, cmd
}

// handleMouse scrolls on the wheel and chooses on a left click.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.list.ScrollBy(-wheelStep)
		m.list.ClampScroll(m.viewportHeight())
		return m, nil

	case tea.MouseButtonWheelDown:
		m.list.ScrollBy(wheelStep)
		m.list.ClampScroll(m.viewportHeight())
		return m, nil

	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress || m.disabled || !m.interactive() {
			return m, nil
		}
		y := msg.Y - listTop
		if y < 0 || y >= m.viewportHeight() {
			return m, nil
		}
		if i := m.list.IndexAt(y); i >= 0 {
			return m.choose(i)
		}
	}
	return m, nil
}

// choose records the option at index as the value and quits.
func (m Model) choose(index int) (tea.Model, tea.Cmd) {
	items := m.list.Items()
	if index < 0 || index >= items.Len() {
		return m, nil
	}
	m.result = items.At(index)
	m.chosen = true
	m.value = m.result.Key
	m.highlight = index
	if m.onChange != nil {
		m.onChange(m.value)
	}
	m.logger.Debug().Str("key", m.value).Int("index", index).Msg("option chosen")
	m.list.Close()
	m.cancelInflight()
	return m, tea.Quit
}

// interactive reports whether navigation and choice are allowed: not while a
// fetch is in flight and only with options to act on.
func (m Model) interactive() bool {
	return m.state != stateLoading && m.list.Items().Len() > 0
}

// moveHighlight moves the keyboard focus by delta rows and keeps it in view.
func (m *Model) moveHighlight(delta int) {
	if !m.interactive() {
		return
	}
	n := m.list.Items().Len()
	m.highlight = min(max(m.highlight+delta, 0), n-1)
	m.list.ScrollIntoView(m.highlight, m.viewportHeight())
}

// pageRows returns how many rows a page key moves: the rows fully or partly
// in view, less one for context.
func (m Model) pageRows() int {
	return max(m.list.Window(m.viewportHeight(), 0).Range.Len()-1, 1)
}

// handleFetchDone processes the result of an async fetch.
func (m Model) handleFetchDone(msg fetchDoneMsg) (tea.Model, tea.Cmd) {
	// Discard stale responses.
	if msg.requestID != m.requestID {
		return m, nil
	}
	m.cancelInflight()

	if msg.err != nil {
		m.logger.Warn().Err(msg.err).Uint64("request_id", msg.requestID).Msg("fetch failed")
		m.state = stateError
		m.err = msg.err
		m.list.SetItems(option.NewSequence(nil))
		m.highlight = -1
		return m, nil
	}

	prev := m.highlightedKey()
	seq := option.NewSequence(msg.items)
	if m.labelLimit > 0 {
		seq = seq.TruncateLabels(m.labelLimit)
	}
	m.list.SetItems(seq)
	m.err = nil

	if seq.Len() == 0 {
		m.state = stateEmpty
		m.highlight = -1
		m.list.OnScroll(0)
		return m, nil
	}
	m.state = stateLoaded

	if !m.list.IsOpen() {
		// First load: focus and scroll to the value.
		selected := -1
		if m.value != "" {
			selected = seq.IndexOf(m.value)
		}
		m.highlight = max(selected, 0)
		m.list.Open(selected)
		return m, nil
	}

	m.highlight = 0
	if i := seq.IndexOf(prev); prev != "" && i >= 0 {
		m.highlight = i
	}
	m.list.OnScroll(0)
	m.list.ScrollIntoView(m.highlight, m.viewportHeight())
	return m, nil
}

// highlightedKey returns the key under the keyboard focus, or "".
func (m Model) highlightedKey() string {
	items := m.list.Items()
	if m.highlight < 0 || m.highlight >= items.Len() {
		return ""
	}
	return items.At(m.highlight).Key
}

// handleDebounce fires the fetch if the debounce timer is still current.
func (m Model) handleDebounce(msg debounceMsg) (tea.Model, tea.Cmd) {
	if msg.id != m.debounceID {
		return m, nil // Stale debounce timer; ignore.
	}
	return m, m.startFetch()
}

// startDebounce increments the debounce counter and returns a tea.Tick
// command that fires after debounceInterval.
func (m *Model) startDebounce() tea.Cmd {
	m.debounceID++
	id := m.debounceID
	return tea.Tick(debounceInterval, func(time.Time) tea.Msg {
		return debounceMsg{id: id}
	})
}

// startFetch cancels any in-flight fetch, increments requestID, and
// returns a tea.Cmd that calls the provider.
func (m *Model) startFetch() tea.Cmd {
	m.cancelInflight()
	m.requestID++
	m.state = stateLoading

	reqID := m.requestID
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelFetch = cancel

	req := Request{RequestID: reqID, Query: m.query}
	p := m.provider
	return func() tea.Msg {
		resp, err := p.Fetch(ctx, req)
		if err != nil {
			return fetchDoneMsg{requestID: reqID, err: err}
		}
		return fetchDoneMsg{requestID: reqID, items: resp.Items}
	}
}

// cancelInflight cancels any in-progress fetch context.
func (m *Model) cancelInflight() {
	if m.cancelFetch != nil {
		m.cancelFetch()
		m.cancelFetch = nil
	}
}

// listHeight returns the most rows the list panel may take.
func (m Model) listHeight() int {
	if m.height <= 0 {
		if m.maxHeight > 0 {
			return m.maxHeight
		}
		return DefaultMaxHeight
	}
	avail := max(m.height-chrome, 1)
	if m.maxHeight > 0 {
		return min(m.maxHeight, avail)
	}
	return avail
}

// viewportHeight returns the list panel height: the content height capped at
// listHeight.
func (m Model) viewportHeight() int {
	return m.list.PanelHeight(m.listHeight())
}

// --- View rendering ---

var (
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	valueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	normalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	queryStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	thumbStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	trackStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteRune('\n')

	if content := m.viewContent(); content != "" {
		b.WriteString(content)
		b.WriteRune('\n')
	}

	b.WriteString(m.viewStatus())
	return b.String()
}

// viewContent renders the option list or a status message.
func (m Model) viewContent() string {
	switch m.state {
	case stateIdle:
		return dimStyle.Render("Loading...")

	case stateLoading:
		if m.list.Items().Len() == 0 {
			return dimStyle.Render("Loading...")
		}
		return m.viewList()

	case stateEmpty:
		return dimStyle.Render("No matches")

	case stateError:
		msg := "Error"
		if m.err != nil {
			msg = fmt.Sprintf("Error: %s", m.err)
		}
		return errorStyle.Render(msg)

	case stateCancelled:
		return dimStyle.Render("Cancelled")

	case stateLoaded:
		return m.viewList()

	default:
		return ""
	}
}

// viewList renders the rows in the scroll window next to the scrollbar.
func (m Model) viewList() string {
	vh := m.viewportHeight()
	rows := m.list.View(vh, m.overscan, m.renderRow)
	bar := m.viewScrollbar(vh)
	if bar == "" {
		return rows
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rows, bar)
}

// renderRow renders one option into a border-box the width of the row, the
// same box the lipgloss layout measures.
func (m Model) renderRow(item option.Item, index, _, width int) string {
	s := m.list.Style()
	style := normalStyle
	switch {
	case m.disabled:
		style = dimStyle
	case index == m.highlight:
		style = highlightStyle
	case item.Key == m.value:
		style = valueStyle
	}
	return style.
		Width(width).
		Padding(s.PaddingVertical, s.PaddingHorizontal).
		MarginBottom(s.RowGap).
		Render(item.Label)
}

// viewScrollbar renders a track of vh cells with the thumb over the visible
// part. It is empty when the content fits.
func (m Model) viewScrollbar(vh int) string {
	if vh <= 0 || m.list.TotalContentHeight() <= vh {
		return ""
	}
	start, size := m.list.Thumb(vh)
	cells := make([]string, vh)
	for y := range cells {
		if y >= start && y < start+size {
			cells[y] = thumbStyle.Render("┃")
		} else {
			cells[y] = trackStyle.Render("│")
		}
	}
	return strings.Join(cells, "\n")
}

// viewStatus renders the position, loading and disabled indicators.
func (m Model) viewStatus() string {
	var parts []string
	if n := m.list.Items().Len(); n > 0 && m.highlight >= 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", m.highlight+1, n))
	}
	if m.state == stateLoading {
		parts = append(parts, "loading")
	}
	if m.disabled {
		parts = append(parts, "disabled")
	}
	return dimStyle.Render(strings.Join(parts, "  "))
}
