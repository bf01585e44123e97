// Package tui provides a terminal monitor for a running minicc session.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/TokenRollAI/minicc/internal/history"
	"github.com/TokenRollAI/minicc/internal/task"
	"github.com/TokenRollAI/minicc/pkg/client"
)

// historyPageSize bounds how many records the history view requests per
// refresh.
const historyPageSize = 200

// App is the session monitor. It polls the status API of a running
// minicc session and displays sub-agent tasks and the tool execution
// history in a navigable table view.
type App struct {
	app        *tview.Application
	pages      *tview.Pages
	header     *tview.TextView
	footer     *tview.TextView
	table      *tview.Table
	detailView *tview.TextView
	mainFlex   *tview.Flex

	client      *client.Client
	serverAddr  string
	currentView string // "tasks" or "history"

	// Cached data from the last successful refresh.
	tasks   []*task.AgentTask
	records []*history.Record
	lastErr error

	mu sync.Mutex

	// detailOpen tracks whether the task detail panel is visible.
	detailOpen bool
}

// NewApp creates a monitor connected to the given status API address.
func NewApp(serverAddr string) *App {
	a := &App{
		app:         tview.NewApplication(),
		client:      client.New(serverAddr),
		serverAddr:  serverAddr,
		currentView: "tasks",
	}

	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.header.SetBackgroundColor(tcell.ColorDarkBlue)

	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	a.table = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0). // header row stays fixed
		SetSeparator(tview.Borders.Vertical)
	a.table.SetBorder(false)
	a.table.SetBorderPadding(0, 0, 1, 1)

	a.detailView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	a.detailView.SetBorder(true).
		SetTitle(" Task ").
		SetBorderColor(tcell.ColorDodgerBlue)

	a.mainFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.table, 0, 1, true).
		AddItem(a.footer, 1, 0, false)

	a.pages = tview.NewPages().
		AddPage("main", a.mainFlex, true, true)

	a.updateHeader()
	a.updateFooter()
	a.setupKeyBindings()

	a.app.SetRoot(a.pages, true).SetFocus(a.table)

	return a
}

// Run starts the background refresh goroutine and runs the TUI event loop.
func (a *App) Run() error {
	// Initial synchronous refresh so the table is populated before the
	// first render.
	a.refresh()

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			a.refresh()
			a.app.QueueUpdateDraw(func() {
				a.updateTable()
			})
		}
	}()

	return a.app.Run()
}

// ---------------------------------------------------------------------------
// Key bindings
// ---------------------------------------------------------------------------

func (a *App) setupKeyBindings() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.detailOpen && event.Key() == tcell.KeyEscape {
			a.hideDetail()
			return nil
		}

		switch event.Key() {
		case tcell.KeyRune:
			switch event.Rune() {
			case '1':
				a.switchView("tasks")
				return nil
			case '2':
				a.switchView("history")
				return nil
			case 'q':
				a.app.Stop()
				return nil
			case 'r':
				go func() {
					a.refresh()
					a.app.QueueUpdateDraw(func() {
						a.updateTable()
					})
				}()
				return nil
			case 'j':
				row, _ := a.table.GetSelection()
				if row < a.table.GetRowCount()-1 {
					a.table.Select(row+1, 0)
				}
				return nil
			case 'k':
				row, _ := a.table.GetSelection()
				if row > 1 { // row 0 is the header
					a.table.Select(row-1, 0)
				}
				return nil
			}
		case tcell.KeyEnter:
			a.showDetail()
			return nil
		}

		return event
	})
}

func (a *App) switchView(view string) {
	a.mu.Lock()
	a.currentView = view
	a.mu.Unlock()

	a.updateHeader()

	go func() {
		a.refresh()
		a.app.QueueUpdateDraw(func() {
			a.updateTable()
		})
	}()
}

// ---------------------------------------------------------------------------
// Data refresh
// ---------------------------------------------------------------------------

func (a *App) refresh() {
	a.mu.Lock()
	view := a.currentView
	a.mu.Unlock()

	switch view {
	case "tasks":
		tasks, err := a.client.ListTasks()
		a.mu.Lock()
		a.tasks = tasks
		a.lastErr = err
		a.mu.Unlock()
	case "history":
		records, err := a.client.History(historyPageSize)
		a.mu.Lock()
		a.records = records
		a.lastErr = err
		a.mu.Unlock()
	}
}

// ---------------------------------------------------------------------------
// Table rendering
// ---------------------------------------------------------------------------

func (a *App) updateTable() {
	a.table.Clear()

	a.mu.Lock()
	view := a.currentView
	err := a.lastErr
	a.mu.Unlock()

	if err != nil {
		a.setTableHeaders([]string{"ERROR"})
		a.table.SetCell(1, 0,
			tview.NewTableCell(fmt.Sprintf("Error: %v", err)).
				SetTextColor(tcell.ColorRed))
		return
	}

	switch view {
	case "tasks":
		a.renderTasks()
	case "history":
		a.renderHistory()
	}

	if a.table.GetRowCount() > 1 {
		a.table.Select(1, 0)
	}
}

func (a *App) setTableHeaders(headers []string) {
	for col, h := range headers {
		cell := tview.NewTableCell(h).
			SetTextColor(tcell.ColorWhite).
			SetBackgroundColor(tcell.ColorDarkCyan).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false).
			SetExpansion(1)
		a.table.SetCell(0, col, cell)
	}
}

func (a *App) renderTasks() {
	a.setTableHeaders([]string{"ID", "PHASE", "DESCRIPTION", "AGE"})

	a.mu.Lock()
	tasks := a.tasks
	a.mu.Unlock()

	for i, t := range tasks {
		row := i + 1
		desc := t.Description
		if len(desc) > 70 {
			desc = desc[:67] + "..."
		}

		a.table.SetCell(row, 0, tview.NewTableCell(t.ID))
		a.table.SetCell(row, 1, tview.NewTableCell(string(t.Phase)).
			SetTextColor(phaseColor(t.Phase)))
		a.table.SetCell(row, 2, tview.NewTableCell(desc))
		a.table.SetCell(row, 3, tview.NewTableCell(formatAge(t.CreatedAt)))
	}
}

func (a *App) renderHistory() {
	a.setTableHeaders([]string{"SEQ", "TIME", "TASK", "TOOL", "STATUS", "DURATION"})

	a.mu.Lock()
	records := a.records
	a.mu.Unlock()

	for i, rec := range records {
		row := i + 1
		taskID := rec.TaskID
		if taskID == "" {
			taskID = "<parent>"
		}

		status := "ok"
		statusColor := tcell.ColorGreen
		if !rec.OK {
			status = rec.ErrorKind
			statusColor = tcell.ColorRed
		}

		a.table.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%d", rec.Seq)))
		a.table.SetCell(row, 1, tview.NewTableCell(rec.Time.Format("15:04:05")))
		a.table.SetCell(row, 2, tview.NewTableCell(taskID))
		a.table.SetCell(row, 3, tview.NewTableCell(rec.Tool))
		a.table.SetCell(row, 4, tview.NewTableCell(status).SetTextColor(statusColor))
		a.table.SetCell(row, 5, tview.NewTableCell(rec.Duration.Round(time.Millisecond).String()))
	}
}

// ---------------------------------------------------------------------------
// Task detail panel
// ---------------------------------------------------------------------------

func (a *App) showDetail() {
	a.mu.Lock()
	view := a.currentView
	tasks := a.tasks
	a.mu.Unlock()

	if view != "tasks" {
		return
	}

	row, _ := a.table.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(tasks) {
		return
	}

	// Fetch the full task so the result body is current.
	t, err := a.client.GetTask(tasks[idx].ID)
	if err != nil {
		t = tasks[idx]
	}

	a.detailView.SetText(formatTaskDetail(t))
	a.detailView.ScrollToBeginning()

	a.pages.AddPage("detail", modal(a.detailView, 100, 30), true, true)
	a.detailOpen = true
	a.app.SetFocus(a.detailView)
}

func (a *App) hideDetail() {
	a.pages.RemovePage("detail")
	a.detailOpen = false
	a.app.SetFocus(a.table)
}

func formatTaskDetail(t *task.AgentTask) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[::b]ID:[::-]          %s\n", t.ID)
	fmt.Fprintf(&b, "[::b]Phase:[::-]       [%s]%s[-]\n", phaseColorName(t.Phase), t.Phase)
	fmt.Fprintf(&b, "[::b]Description:[::-] %s\n", t.Description)
	if t.Context != "" {
		fmt.Fprintf(&b, "[::b]Context:[::-]     %s\n", t.Context)
	}
	fmt.Fprintf(&b, "[::b]Created:[::-]     %s\n", t.CreatedAt.Format(time.RFC3339))
	if !t.StartedAt.IsZero() {
		fmt.Fprintf(&b, "[::b]Started:[::-]     %s\n", t.StartedAt.Format(time.RFC3339))
	}
	if !t.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "[::b]Finished:[::-]    %s\n", t.FinishedAt.Format(time.RFC3339))
	}

	switch t.Phase {
	case task.Completed:
		fmt.Fprintf(&b, "\n[::b]Result:[::-]\n%s\n", tview.Escape(t.Result))
	case task.Failed:
		fmt.Fprintf(&b, "\n[::b]Error:[::-]\n[red]%s[-]\n", tview.Escape(t.Error))
	}

	return b.String()
}

// modal centers a primitive at a fixed size over the current page.
func modal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

// ---------------------------------------------------------------------------
// Header, footer, helpers
// ---------------------------------------------------------------------------

func (a *App) updateHeader() {
	a.mu.Lock()
	view := a.currentView
	a.mu.Unlock()

	tasksTab := "<1>Tasks"
	historyTab := "<2>History"
	if view == "tasks" {
		tasksTab = "[::b]<1>[Tasks][::-]"
	} else {
		historyTab = "[::b]<2>[History][::-]"
	}

	a.header.SetText(fmt.Sprintf(" [::b]minicc[::-] | %s | %s  %s",
		a.serverAddr, tasksTab, historyTab))
}

func (a *App) updateFooter() {
	a.footer.SetText(" [yellow]<enter>[white]Detail  [yellow]<q>[white]Quit  [yellow]<r>[white]Refresh  [yellow]<esc>[white]Back")
}

// formatAge returns a human-readable duration string since the given time.
func formatAge(t time.Time) string {
	if t.IsZero() {
		return "-"
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// phaseColor returns the tcell color appropriate for a task phase.
func phaseColor(phase task.Phase) tcell.Color {
	switch phase {
	case task.Completed:
		return tcell.ColorGreen
	case task.Running:
		return tcell.ColorYellow
	case task.Failed:
		return tcell.ColorRed
	default:
		return tcell.ColorWhite
	}
}

// phaseColorName returns the tview color tag name for a task phase.
func phaseColorName(phase task.Phase) string {
	switch phase {
	case task.Completed:
		return "green"
	case task.Running:
		return "yellow"
	case task.Failed:
		return "red"
	default:
		return "white"
	}
}
