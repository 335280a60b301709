package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/coverkit/pkg/errors"
	"github.com/matzehuels/coverkit/pkg/pipeline"
)

func TestBatchModelCountsRows(t *testing.T) {
	var m tea.Model = NewBatchModel(4, nil)

	rows := []pipeline.RowResult{
		{Row: 1, Output: "a.png"},
		{Row: 2, Err: errors.New(errors.ErrCodeInvalidCSV, "row 2 has unsupported columns caption")},
		{Row: 3, Output: "c.png", Cached: true},
	}
	for _, r := range rows {
		m, _ = m.Update(rowMsg(r))
	}

	bm := m.(BatchModel)
	if bm.Done != 3 || bm.Failed != 1 {
		t.Errorf("done=%d failed=%d, want 3 and 1", bm.Done, bm.Failed)
	}
	if got := bm.Percent(); got != 0.75 {
		t.Errorf("Percent() = %v, want 0.75", got)
	}

	view := bm.View()
	for _, want := range []string{"a.png", "c.png", "unsupported columns caption", "1 failed"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBatchModelKeepsRecentRows(t *testing.T) {
	var m tea.Model = NewBatchModel(20, nil)
	for i := 1; i <= 12; i++ {
		m, _ = m.Update(rowMsg(pipeline.RowResult{Row: i}))
	}
	bm := m.(BatchModel)
	if len(bm.Recent) != recentRows {
		t.Fatalf("len(Recent) = %d, want %d", len(bm.Recent), recentRows)
	}
	if bm.Recent[0].Row != 8 {
		t.Errorf("oldest kept row = %d, want 8", bm.Recent[0].Row)
	}
}

func TestBatchModelQuitCancels(t *testing.T) {
	canceled := false
	var m tea.Model = NewBatchModel(1, func() { canceled = true })

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !canceled {
		t.Error("q did not cancel the batch")
	}
}

func TestBatchModelQuitsWhenDone(t *testing.T) {
	m := NewBatchModel(0, nil)
	if m.Percent() != 1 {
		t.Errorf("empty batch Percent() = %v", m.Percent())
	}
	_, cmd := m.Update(batchDoneMsg{})
	if cmd == nil {
		t.Fatal("done message returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done message did not quit")
	}
}
