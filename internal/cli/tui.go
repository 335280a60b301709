package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/coverkit/pkg/batch"
	"github.com/matzehuels/coverkit/pkg/pipeline"
)

// recentRows is how many finished rows the progress view lists.
const recentRows = 5

var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	quitKey      = key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "cancel"))
)

// rowMsg reports one finished row.
type rowMsg pipeline.RowResult

// batchDoneMsg ends the program.
type batchDoneMsg struct {
	result *pipeline.BatchResult
	err    error
}

// BatchModel is the bubbletea model showing batch progress.
type BatchModel struct {
	Total  int
	Done   int
	Failed int
	Recent []pipeline.RowResult

	bar    progress.Model
	cancel context.CancelFunc
}

// NewBatchModel creates a progress model for total rows. cancel is called
// when the user quits early.
func NewBatchModel(total int, cancel context.CancelFunc) BatchModel {
	return BatchModel{
		Total:  total,
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		cancel: cancel,
	}
}

func (m BatchModel) Init() tea.Cmd {
	return nil
}

func (m BatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, quitKey) && m.cancel != nil {
			m.cancel()
		}
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-20, 10), 60)
	case rowMsg:
		m.Done++
		if msg.Err != nil {
			m.Failed++
		}
		m.Recent = append(m.Recent, pipeline.RowResult(msg))
		if len(m.Recent) > recentRows {
			m.Recent = m.Recent[len(m.Recent)-recentRows:]
		}
	case batchDoneMsg:
		return m, tea.Quit
	}
	return m, nil
}

// Percent returns the finished fraction.
func (m BatchModel) Percent() float64 {
	if m.Total == 0 {
		return 1
	}
	return float64(m.Done) / float64(m.Total)
}

func (m BatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Rendering covers"))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(m.Percent()))
	b.WriteString(fmt.Sprintf("  %s/%d", StyleNumber.Render(fmt.Sprint(m.Done)), m.Total))
	if m.Failed > 0 {
		b.WriteString("  " + StyleWarning.Render(fmt.Sprintf("%d failed", m.Failed)))
	}
	b.WriteString("\n\n")

	for _, row := range m.Recent {
		b.WriteString(rowLine(row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(quitKey.Help().Key + " " + quitKey.Help().Desc))
	b.WriteString("\n")
	return b.String()
}

// runBatchTUI runs the batch behind a live progress view. Row logging is
// suppressed while the view owns the terminal.
func runBatchTUI(ctx context.Context, runner *pipeline.Runner, table *batch.Table, opts pipeline.BatchOptions) (*pipeline.BatchResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewBatchModel(len(table.Rows), cancel), tea.WithContext(ctx))

	opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	opts.OnRow = func(r pipeline.RowResult) { p.Send(rowMsg(r)) }

	done := make(chan batchDoneMsg, 1)
	go func() {
		res, err := runner.Batch(ctx, table, opts)
		msg := batchDoneMsg{result: res, err: err}
		done <- msg
		p.Send(msg)
	}()

	_, runErr := p.Run()
	// The batch stops on its own once ctx is canceled.
	msg := <-done
	if msg.err == nil && runErr != nil && !stderrors.Is(runErr, tea.ErrProgramKilled) {
		msg.err = runErr
	}
	return msg.result, msg.err
}
