package picker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/vselect/internal/measure"
	"github.com/runger/vselect/internal/option"
)

// --- Mock provider ---

type mockProvider struct {
	items   []option.Item
	err     error
	delay   time.Duration // Optional delay to simulate slow fetch
	lastReq Request
}

func (p *mockProvider) Fetch(ctx context.Context, req Request) (Response, error) {
	p.lastReq = req
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
	if p.err != nil {
		return Response{}, p.err
	}
	return Response{RequestID: req.RequestID, Items: p.items}, nil
}

// cidItems returns n options keyed "1".."n" and labelled "CID 1".."CID n".
func cidItems(n int) []option.Item {
	items := make([]option.Item, n)
	for i := range items {
		items[i] = option.Item{Key: fmt.Sprint(i + 1), Label: fmt.Sprintf("CID %d", i+1)}
	}
	return items
}

func newTestModel(p Provider, opts ...Option) Model {
	m := NewModel(p, measure.NewEstimator(measure.NewWrapLayout()), opts...)
	result, _ := m.Update(tea.WindowSizeMsg{Width: 40, Height: 24})
	return result.(Model)
}

// runCmd executes a tea.Cmd synchronously and returns the resulting message.
func runCmd(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

// drainBatch runs a batch cmd and feeds all resulting messages into the model,
// returning the final model state and any remaining cmd from the last message.
func drainBatch(t *testing.T, m Model, batchCmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	msg := runCmd(batchCmd)
	if msg == nil {
		return m, nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var lastCmd tea.Cmd
		for _, cmd := range batch {
			sub := runCmd(cmd)
			if sub == nil {
				continue
			}
			var result tea.Model
			result, lastCmd = m.Update(sub)
			m = result.(Model)
		}
		return m, lastCmd
	}
	result, cmd := m.Update(msg)
	return result.(Model), cmd
}

// initToLoading runs just the Init -> initMsg cycle, leaving the model in
// stateLoading with an outstanding fetch command.
func initToLoading(t *testing.T, m Model) (Model, tea.Cmd) {
	t.Helper()
	m, fetchCmd := drainBatch(t, m, m.Init())
	require.Equal(t, stateLoading, m.state)
	return m, fetchCmd
}

// initAndLoad runs the full Init -> fetch cycle, returning the model in its
// post-fetch state (loaded, empty, or error).
func initAndLoad(t *testing.T, m Model) Model {
	t.Helper()
	m, fetchCmd := initToLoading(t, m)
	done := runCmd(fetchCmd)
	require.NotNil(t, done)
	result, _ := m.Update(done)
	return result.(Model)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	result, cmd := m.Update(msg)
	return result.(Model), cmd
}

func typeQuery(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

// refetch fires the current debounce timer and delivers the fetch result.
func refetch(t *testing.T, m Model) Model {
	t.Helper()
	result, cmd := m.Update(debounceMsg{id: m.debounceID})
	m = result.(Model)
	require.Equal(t, stateLoading, m.state)
	result, _ = m.Update(runCmd(cmd))
	return result.(Model)
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// --- State transition tests ---

func TestInitialState(t *testing.T) {
	m := newTestModel(&mockProvider{})
	assert.Equal(t, stateIdle, m.state)
	assert.Equal(t, -1, m.highlight)
	assert.Contains(t, m.View(), "Loading...")
}

func TestInit_TransitionsToLoaded(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(3)}))

	assert.Equal(t, stateLoaded, m.state)
	assert.Equal(t, 3, m.list.Items().Len())
	assert.Equal(t, 0, m.highlight)
}

func TestLoading_ToEmpty(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{}))

	assert.Equal(t, stateEmpty, m.state)
	assert.Equal(t, -1, m.highlight)
	assert.Contains(t, m.View(), "No matches")
}

func TestLoading_ToError(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{err: errors.New("boom")}))

	assert.Equal(t, stateError, m.state)
	assert.Zero(t, m.list.Items().Len())
	assert.Contains(t, m.View(), "Error: boom")
}

func TestStaleResponse_Discarded(t *testing.T) {
	m := newTestModel(&mockProvider{items: cidItems(1)})
	m, _ = initToLoading(t, m)

	result, _ := m.Update(fetchDoneMsg{
		requestID: m.requestID - 1,
		items:     []option.Item{{Key: "stale", Label: "stale"}},
	})
	m = result.(Model)

	assert.Equal(t, stateLoading, m.state)
	assert.Zero(t, m.list.Items().Len())
}

func TestCurrentResponse_Accepted(t *testing.T) {
	m := newTestModel(&mockProvider{items: []option.Item{{Key: "c", Label: "current"}}})
	m, fetchCmd := initToLoading(t, m)

	msg := runCmd(fetchCmd)
	assert.Equal(t, m.requestID, msg.(fetchDoneMsg).requestID)

	result, _ := m.Update(msg)
	m = result.(Model)
	assert.Equal(t, stateLoaded, m.state)
	assert.Equal(t, []option.Item{{Key: "c", Label: "current"}}, m.list.Items().Items())
}

// --- Initial scroll ---

func TestFirstLoad_OpensScrolledToValue(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(33)}, WithValue("21")))

	assert.Equal(t, 20, m.highlight)
	assert.Equal(t, 20, m.list.ScrollOffset())
	assert.True(t, m.list.IsOpen())

	view := m.View()
	assert.Contains(t, view, "CID 21")
	assert.NotContains(t, view, "CID 20 ")
	assert.Contains(t, view, "21/33")
}

func TestFirstLoad_MissingValueOpensAtTop(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(33)}, WithValue("nope")))

	assert.Equal(t, 0, m.highlight)
	assert.Zero(t, m.list.ScrollOffset())
}

func TestMouseWheel_ScrollIsNotOverridden(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(33)}, WithValue("21")))

	result, _ := m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	m = result.(Model)
	assert.Equal(t, 23, m.list.ScrollOffset(), "clamped to the last full viewport")

	result, _ = m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	m = result.(Model)
	result, _ = m.Update(tea.MouseMsg{Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	m = result.(Model)
	assert.Equal(t, 17, m.list.ScrollOffset())
	assert.Equal(t, 20, m.highlight, "wheel scrolling leaves the focus alone")

	// Same-width resize does not pull the list back.
	result, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 30})
	m = result.(Model)
	assert.Equal(t, 17, m.list.ScrollOffset())
}

// --- Key handling tests ---

func TestUpDown_Navigation(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(33)}))

	for range 12 {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, 12, m.highlight)
	assert.Equal(t, 3, m.list.ScrollOffset(), "focused row kept at the bottom edge")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 11, m.highlight)
	assert.Equal(t, 3, m.list.ScrollOffset())

	for range 20 {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	}
	assert.Equal(t, 0, m.highlight)
	assert.Zero(t, m.list.ScrollOffset())
}

func TestPageDown(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(33)}))

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 9, m.highlight)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 18, m.highlight)
	assert.Equal(t, 9, m.list.ScrollOffset())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 9, m.highlight)
}

func TestUpDown_NoOp_DuringLoading(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(5)}))
	m = typeQuery(t, m, "C")
	result, _ := m.Update(debounceMsg{id: m.debounceID})
	m = result.(Model)
	require.Equal(t, stateLoading, m.state)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.highlight)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	_, chosen := m.Result()
	assert.False(t, chosen)

	// Rendering continues while loading.
	view := m.View()
	assert.Contains(t, view, "CID 1")
	assert.Contains(t, view, "loading")
}

func TestEnter_ChoosesHighlighted(t *testing.T) {
	var changed []string
	m := newTestModel(&mockProvider{items: cidItems(5)},
		WithValue("2"),
		WithOnChange(func(key string) { changed = append(changed, key) }))
	m = initAndLoad(t, m)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, isQuit(cmd))
	item, chosen := m.Result()
	assert.True(t, chosen)
	assert.Equal(t, option.Item{Key: "3", Label: "CID 3"}, item)
	assert.Equal(t, "3", m.Value())
	assert.Equal(t, []string{"3"}, changed)
	assert.False(t, m.list.IsOpen())
}

func TestEnter_EmptyList_NoResult(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{}))

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	_, chosen := m.Result()
	assert.False(t, chosen)
}

func TestEsc_Cancels(t *testing.T) {
	var changed bool
	m := newTestModel(&mockProvider{items: cidItems(3)}, WithOnChange(func(string) { changed = true }))
	m = initAndLoad(t, m)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.True(t, isQuit(cmd))
	assert.True(t, m.IsCancelled())
	assert.False(t, changed)
	assert.Contains(t, m.View(), "Cancelled")
}

func TestCtrlC_CancelsWhileLoading(t *testing.T) {
	m, _ := initToLoading(t, newTestModel(&mockProvider{items: cidItems(3)}))

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	assert.True(t, isQuit(cmd))
	assert.True(t, m.IsCancelled())
	assert.Nil(t, m.cancelFetch)
}

func TestDisabled_IgnoresInputButRenders(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(5)}, WithDisabled(true)))

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.highlight)

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	m = typeQuery(t, m, "x")
	assert.Empty(t, m.Query())

	view := m.View()
	assert.Contains(t, view, "CID 5")
	assert.Contains(t, view, "disabled")

	m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, isQuit(cmd))
	assert.True(t, m.IsCancelled())
}

func TestSetDisabled_Toggles(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(5)}))

	m.SetDisabled(true)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.highlight)

	m.SetDisabled(false)
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.highlight)
}

// --- Query and debounce ---

func TestTyping_UpdatesQuery(t *testing.T) {
	m := newTestModel(&mockProvider{items: cidItems(1)})

	m = typeQuery(t, m, "ci")

	assert.Equal(t, "ci", m.Query())
	assert.Contains(t, m.View(), "ci")
}

func TestDebounce_NewKeystrokeCancelsPrevious(t *testing.T) {
	m := newTestModel(&mockProvider{items: cidItems(1)})

	m = typeQuery(t, m, "l")
	first := m.debounceID
	m = typeQuery(t, m, "s")
	assert.Greater(t, m.debounceID, first)

	_, cmd := m.Update(debounceMsg{id: first})
	assert.Nil(t, cmd)
}

func TestDebounce_CurrentTimerFetchesWithQuery(t *testing.T) {
	p := &mockProvider{items: cidItems(1)}
	m := newTestModel(p)
	m = typeQuery(t, m, "cid")

	result, cmd := m.Update(debounceMsg{id: m.debounceID})
	m = result.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, stateLoading, m.state)

	runCmd(cmd)
	assert.Equal(t, "cid", p.lastReq.Query)
	assert.Equal(t, m.requestID, p.lastReq.RequestID)
}

func TestWithQuery_FirstFetchFiltered(t *testing.T) {
	p := &mockProvider{items: cidItems(1)}
	m := newTestModel(p, WithQuery("cid 1"))

	initAndLoad(t, m)

	assert.Equal(t, "cid 1", p.lastReq.Query)
}

func TestFilter_KeepsFocusedOption(t *testing.T) {
	m := initAndLoad(t, newTestModel(NewStaticProvider(cidItems(33)), WithValue("30")))
	require.Equal(t, 29, m.highlight)

	m = typeQuery(t, m, "3")
	m = refetch(t, m)

	require.Equal(t, stateLoaded, m.state)
	// CID 3, 13, 23, 30, 31, 32, 33
	assert.Equal(t, 7, m.list.Items().Len())
	assert.Equal(t, 3, m.highlight)
	assert.Zero(t, m.list.ScrollOffset())
}

func TestFilter_FocusResetsWhenOptionFilteredOut(t *testing.T) {
	m := initAndLoad(t, newTestModel(NewStaticProvider(cidItems(33)), WithValue("30")))

	m = typeQuery(t, m, "cid 1")
	m = refetch(t, m)

	assert.Equal(t, 0, m.highlight)
	assert.Equal(t, "1", m.list.Items().At(0).Key)
}

func TestFilter_NoMatchesThenRecover(t *testing.T) {
	m := initAndLoad(t, newTestModel(NewStaticProvider(cidItems(5))))

	m = typeQuery(t, m, "zzz")
	m = refetch(t, m)
	assert.Equal(t, stateEmpty, m.state)

	for range 3 {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m = refetch(t, m)
	assert.Equal(t, stateLoaded, m.state)
	assert.Equal(t, 5, m.list.Items().Len())
}

// --- Mouse ---

func TestMouseClick_ChoosesRow(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(33)}))

	result, cmd := m.Update(tea.MouseMsg{X: 3, Y: listTop + 4, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m = result.(Model)

	assert.True(t, isQuit(cmd))
	item, chosen := m.Result()
	assert.True(t, chosen)
	assert.Equal(t, "5", item.Key)
}

func TestMouseClick_OutsideListIgnored(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(33)}))

	_, cmd := m.Update(tea.MouseMsg{Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	assert.Nil(t, cmd)

	_, cmd = m.Update(tea.MouseMsg{Y: listTop + 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	assert.Nil(t, cmd, "status line")
}

// --- View ---

func TestView_RendersOnlyTheWindow(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(33)}))

	view := m.View()
	lines := strings.Split(view, "\n")

	assert.Len(t, lines, 1+10+1)
	assert.Contains(t, view, "CID 10")
	assert.NotContains(t, view, "CID 11")
	assert.Contains(t, view, "1/33")
	assert.Equal(t, 3, strings.Count(view, "┃"), "thumb")
	assert.Equal(t, 7, strings.Count(view, "│"), "track")
}

func TestView_ShortListShrinksPanelAndHidesScrollbar(t *testing.T) {
	m := initAndLoad(t, newTestModel(&mockProvider{items: cidItems(3)}))

	view := m.View()

	assert.Len(t, strings.Split(view, "\n"), 1+3+1)
	assert.NotContains(t, view, "┃")
}

func TestView_WrappedRowsTakeTheirHeight(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("word ", 20))
	items := []option.Item{{Key: "a", Label: "short"}, {Key: "b", Label: long}}
	m := initAndLoad(t, newTestModel(&mockProvider{items: items}))

	// Row width 39, content 37: seven words per line, three lines.
	assert.Equal(t, 1+3, m.list.TotalContentHeight())
	assert.Len(t, strings.Split(m.View(), "\n"), 1+4+1)
}

func TestView_LabelLimit(t *testing.T) {
	items := []option.Item{{Key: "a", Label: "a very long label"}}
	m := initAndLoad(t, newTestModel(&mockProvider{items: items}, WithLabelLimit(8)))

	assert.Contains(t, m.View(), "a very l...")
}

func TestView_ShowsPlaceholder(t *testing.T) {
	m := newTestModel(&mockProvider{}, WithPlaceholder("Search CIDs"))
	assert.Contains(t, m.View(), "earch CIDs")
}

func TestWindowResize(t *testing.T) {
	m := newTestModel(&mockProvider{items: cidItems(1)})

	result, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = result.(Model)

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
	assert.Equal(t, 119, m.list.RowWidth())
}

func TestListHeight(t *testing.T) {
	tests := []struct {
		name      string
		maxHeight int
		height    int
		want      int
	}{
		{"max height wins", 10, 24, 10},
		{"terminal wins", 10, 6, 4},
		{"no cap", 0, 24, 22},
		{"before first size", 10, 0, 10},
		{"tiny terminal", 10, 2, 1},
		{"nothing known", 0, 0, DefaultMaxHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(&mockProvider{}, measure.NewEstimator(measure.NewWrapLayout()), WithMaxHeight(tt.maxHeight))
			m.height = tt.height
			assert.Equal(t, tt.want, m.listHeight())
		})
	}
}
