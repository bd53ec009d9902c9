package tui

import (
	"context"
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hovden/spanlane/internal/app"
	"github.com/hovden/spanlane/internal/domain"
	"github.com/hovden/spanlane/internal/timeline"
)

// Service represents service data used by this package.
type Service interface {
	ListActivities(context.Context, bool) ([]domain.Activity, error)
	CreateActivity(context.Context, app.CreateActivityInput) (domain.Activity, error)
	UpdateActivity(context.Context, app.UpdateActivityInput) (domain.Activity, error)
	RescheduleActivity(context.Context, string, time.Time, time.Time) (domain.Activity, error)
	SetDependencies(context.Context, string, []string) (domain.Activity, error)
	DeleteActivity(context.Context, string, app.DeleteMode) error
	RestoreActivity(context.Context, string) (domain.Activity, error)
	ComputeLayout(context.Context, timeline.RowMetrics) (timeline.Layout, error)
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeAddActivity
	modeEditActivity
	modeActivityInfo
	modeDependencies
	modeConfirmAction
)

// activity-form field indexes used throughout keyboard/update logic.
const (
	formFieldName = iota
	formFieldKind
	formFieldStatus
	formFieldStart
	formFieldEnd
	formFieldAssignees
	formFieldTags
	formFieldProgress
	formFieldNotes
	formFieldCount
)

// spanDateLayout is the date format accepted by the start/end form fields.
const spanDateLayout = "2006-01-02"

// chartLabelWidth is the fixed width of the activity name column left of the chart.
const chartLabelWidth = 26

// confirmAction describes a pending confirmation action.
type confirmAction struct {
	Activity domain.Activity
	Mode     app.DeleteMode
	Label    string
}

// Model represents model data used by this package.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	activityFields    ActivityFieldConfig
	defaultDeleteMode app.DeleteMode
	metrics           timeline.RowMetrics

	activities   []domain.Activity
	layout       timeline.Layout
	selected     int
	showArchived bool

	mode              inputMode
	formInputs        []textinput.Model
	formFocus         int
	editingActivityID string
	infoActivityID    string
	depsInput         textinput.Model
	depsActivityID    string

	pendingConfirm confirmAction

	markdown markdownRenderer
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	activities []domain.Activity
	layout     timeline.Layout
	err        error
}

// actionMsg carries message data through update handling.
type actionMsg struct {
	err    error
	status string
	reload bool
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	depsInput := textinput.New()
	depsInput.Prompt = "depends on: "
	depsInput.Placeholder = "comma-separated activity ids"
	depsInput.CharLimit = 512
	m := Model{
		svc:               svc,
		status:            "loading...",
		help:              h,
		keys:              newKeyMap(),
		activityFields:    DefaultActivityFieldConfig(),
		defaultDeleteMode: app.DeleteModeArchive,
		metrics:           timeline.RowMetrics{RowHeight: 40, TopOffset: 60},
		depsInput:         depsInput,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.activities = msg.activities
		m.layout = msg.layout
		m.selected = clamp(m.selected, 0, len(m.activities)-1)
		if m.infoActivityID != "" {
			if _, ok := m.activityByID(m.infoActivityID); !ok {
				m.infoActivityID = ""
				if m.mode == modeActivityInfo {
					m.mode = modeNone
				}
			}
		}
		if m.status == "" || m.status == "loading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	default:
		return m, nil
	}
}

// loadData loads the active plan and one full layout pass.
func (m Model) loadData() tea.Msg {
	activities, err := m.svc.ListActivities(context.Background(), m.showArchived)
	if err != nil {
		return loadedMsg{err: err}
	}
	layout, err := m.svc.ComputeLayout(context.Background(), m.metrics)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{activities: activities, layout: layout}
}

// handleNormalModeKey dispatches chart-level key presses.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveDown):
		if len(m.activities) > 0 && m.selected < len(m.activities)-1 {
			m.selected++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case key.Matches(msg, m.keys.addActivity):
		return m, m.startActivityForm(nil)
	case key.Matches(msg, m.keys.editActivity):
		activity, ok := m.selectedActivity()
		if !ok {
			m.status = "no activity selected"
			return m, nil
		}
		return m, m.startActivityForm(&activity)
	case key.Matches(msg, m.keys.activityInfo):
		activity, ok := m.selectedActivity()
		if !ok {
			m.status = "no activity selected"
			return m, nil
		}
		m.mode = modeActivityInfo
		m.infoActivityID = activity.ID
		m.status = "activity info"
		return m, nil
	case key.Matches(msg, m.keys.editDeps):
		activity, ok := m.selectedActivity()
		if !ok {
			m.status = "no activity selected"
			return m, nil
		}
		m.mode = modeDependencies
		m.depsActivityID = activity.ID
		m.depsInput.SetValue(strings.Join(activity.Dependencies, ", "))
		m.depsInput.Focus()
		m.status = "edit dependencies"
		return m, nil
	case key.Matches(msg, m.keys.deleteActivity):
		activity, ok := m.selectedActivity()
		if !ok {
			m.status = "no activity selected"
			return m, nil
		}
		m.mode = modeConfirmAction
		m.pendingConfirm = confirmAction{
			Activity: activity,
			Mode:     m.defaultDeleteMode,
			Label:    string(m.defaultDeleteMode) + " delete",
		}
		return m, nil
	case key.Matches(msg, m.keys.hardDelete):
		activity, ok := m.selectedActivity()
		if !ok {
			m.status = "no activity selected"
			return m, nil
		}
		m.mode = modeConfirmAction
		m.pendingConfirm = confirmAction{
			Activity: activity,
			Mode:     app.DeleteModeHard,
			Label:    "hard delete",
		}
		return m, nil
	case key.Matches(msg, m.keys.restore):
		activity, ok := m.selectedActivity()
		if !ok || activity.ArchivedAt == nil {
			m.status = "nothing to restore"
			return m, nil
		}
		return m, m.restoreActivityCmd(activity.ID)
	case key.Matches(msg, m.keys.toggleArchived):
		m.showArchived = !m.showArchived
		if m.showArchived {
			m.status = "showing archived"
		} else {
			m.status = "hiding archived"
		}
		return m, m.loadData
	case key.Matches(msg, m.keys.shiftEarlier):
		return m.rescheduleSelected(-24*time.Hour, -24*time.Hour)
	case key.Matches(msg, m.keys.shiftLater):
		return m.rescheduleSelected(24*time.Hour, 24*time.Hour)
	case key.Matches(msg, m.keys.growSpan):
		return m.rescheduleSelected(0, 24*time.Hour)
	case key.Matches(msg, m.keys.shrinkSpan):
		return m.rescheduleSelected(0, -24*time.Hour)
	default:
		return m, nil
	}
}

// rescheduleSelected moves the selected span by the given deltas. The service
// rejects moves that would invert the span; the error lands in the status bar.
func (m Model) rescheduleSelected(startDelta, endDelta time.Duration) (tea.Model, tea.Cmd) {
	activity, ok := m.selectedActivity()
	if !ok {
		m.status = "no activity selected"
		return m, nil
	}
	start := activity.Start.Add(startDelta)
	end := activity.End.Add(endDelta)
	return m, func() tea.Msg {
		if _, err := m.svc.RescheduleActivity(context.Background(), activity.ID, start, end); err != nil {
			return actionMsg{status: "reschedule failed: " + err.Error()}
		}
		return actionMsg{status: "rescheduled " + truncate(activity.Name, 28), reload: true}
	}
}

func (m Model) restoreActivityCmd(id string) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.svc.RestoreActivity(context.Background(), id); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "activity restored", reload: true}
	}
}

// handleInputModeKey routes key presses while a modal is open.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeAddActivity, modeEditActivity:
		return m.handleFormKey(msg)
	case modeActivityInfo:
		switch msg.String() {
		case "esc", "q", "i", "enter":
			m.mode = modeNone
			m.infoActivityID = ""
			m.status = "ready"
		}
		return m, nil
	case modeDependencies:
		switch msg.String() {
		case "esc":
			m.mode = modeNone
			m.depsInput.Blur()
			m.status = "ready"
			return m, nil
		case "enter":
			return m.submitDependencies()
		}
		var cmd tea.Cmd
		m.depsInput, cmd = m.depsInput.Update(msg)
		return m, cmd
	case modeConfirmAction:
		switch msg.String() {
		case "y", "enter":
			pending := m.pendingConfirm
			m.mode = modeNone
			m.pendingConfirm = confirmAction{}
			return m, func() tea.Msg {
				if err := m.svc.DeleteActivity(context.Background(), pending.Activity.ID, pending.Mode); err != nil {
					return actionMsg{err: err}
				}
				return actionMsg{status: pending.Label + "d " + truncate(pending.Activity.Name, 28), reload: true}
			}
		case "n", "esc":
			m.mode = modeNone
			m.pendingConfirm = confirmAction{}
			m.status = "cancelled"
		}
		return m, nil
	default:
		m.mode = modeNone
		return m, nil
	}
}

// startActivityForm opens the add or edit form, prefilled when editing.
func (m *Model) startActivityForm(activity *domain.Activity) tea.Cmd {
	inputs := make([]textinput.Model, formFieldCount)
	placeholders := []string{
		"activity name",
		"migration | lifecycle | decommission | hardware_customization | commissioning | custom",
		"pending | in_progress | completed | blocked",
		spanDateLayout,
		spanDateLayout,
		"comma-separated assignees",
		"comma-separated tags",
		"0-100",
		"markdown notes",
	}
	for idx := range inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[idx]
		in.CharLimit = 512
		inputs[idx] = in
	}
	if activity != nil {
		inputs[formFieldName].SetValue(activity.Name)
		inputs[formFieldKind].SetValue(string(activity.Kind))
		inputs[formFieldStatus].SetValue(string(activity.Status))
		inputs[formFieldStart].SetValue(activity.Start.Format(spanDateLayout))
		inputs[formFieldEnd].SetValue(activity.End.Format(spanDateLayout))
		inputs[formFieldAssignees].SetValue(strings.Join(activity.Assignees, ", "))
		inputs[formFieldTags].SetValue(strings.Join(activity.Tags, ", "))
		inputs[formFieldProgress].SetValue(strconv.Itoa(activity.Progress))
		inputs[formFieldNotes].SetValue(activity.Notes)
		m.mode = modeEditActivity
		m.editingActivityID = activity.ID
		m.status = "edit activity"
	} else {
		m.mode = modeAddActivity
		m.editingActivityID = ""
		m.status = "new activity"
	}
	m.formInputs = inputs
	m.formFocus = formFieldName
	return m.focusFormField(formFieldName)
}

func (m *Model) focusFormField(idx int) tea.Cmd {
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == idx {
			cmd = m.formInputs[i].Focus()
			continue
		}
		m.formInputs[i].Blur()
	}
	m.formFocus = idx
	return cmd
}

// handleFormKey routes key presses inside the add/edit form.
func (m Model) handleFormKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeNone
		m.formInputs = nil
		m.status = "cancelled"
		return m, nil
	case "tab", "down":
		return m, m.focusFormField((m.formFocus + 1) % formFieldCount)
	case "shift+tab", "up":
		return m, m.focusFormField((m.formFocus + formFieldCount - 1) % formFieldCount)
	case "enter":
		return m.submitActivityForm()
	}
	var cmd tea.Cmd
	m.formInputs[m.formFocus], cmd = m.formInputs[m.formFocus].Update(msg)
	return m, cmd
}

// submitActivityForm parses the form and issues the create or update call.
// Parse failures keep the form open with the problem in the status bar.
func (m Model) submitActivityForm() (tea.Model, tea.Cmd) {
	name := strings.TrimSpace(m.formInputs[formFieldName].Value())
	if name == "" {
		m.status = "name required"
		return m, nil
	}
	kind, err := domain.ParseKind(m.formInputs[formFieldKind].Value())
	if err != nil {
		m.status = "invalid kind"
		return m, nil
	}
	status, err := domain.ParseStatus(m.formInputs[formFieldStatus].Value())
	if err != nil {
		m.status = "invalid status"
		return m, nil
	}
	start, err := time.Parse(spanDateLayout, strings.TrimSpace(m.formInputs[formFieldStart].Value()))
	if err != nil {
		m.status = "start must be " + spanDateLayout
		return m, nil
	}
	end, err := time.Parse(spanDateLayout, strings.TrimSpace(m.formInputs[formFieldEnd].Value()))
	if err != nil {
		m.status = "end must be " + spanDateLayout
		return m, nil
	}
	progress := 0
	if raw := strings.TrimSpace(m.formInputs[formFieldProgress].Value()); raw != "" {
		progress, err = strconv.Atoi(raw)
		if err != nil {
			m.status = "progress must be a number"
			return m, nil
		}
	}
	assignees := splitCSV(m.formInputs[formFieldAssignees].Value())
	tags := splitCSV(m.formInputs[formFieldTags].Value())
	notes := strings.TrimSpace(m.formInputs[formFieldNotes].Value())

	editingID := m.editingActivityID
	m.mode = modeNone
	m.formInputs = nil
	m.editingActivityID = ""

	if editingID != "" {
		return m, func() tea.Msg {
			_, err := m.svc.UpdateActivity(context.Background(), app.UpdateActivityInput{
				ID:        editingID,
				Name:      name,
				Kind:      kind,
				Status:    status,
				Start:     start,
				End:       end,
				Assignees: assignees,
				Tags:      tags,
				Notes:     notes,
				Progress:  progress,
			})
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{status: "updated " + truncate(name, 28), reload: true}
		}
	}
	return m, func() tea.Msg {
		_, err := m.svc.CreateActivity(context.Background(), app.CreateActivityInput{
			Name:      name,
			Kind:      kind,
			Status:    status,
			Start:     start,
			End:       end,
			Assignees: assignees,
			Tags:      tags,
			Notes:     notes,
			Progress:  progress,
		})
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "created " + truncate(name, 28), reload: true}
	}
}

func (m Model) submitDependencies() (tea.Model, tea.Cmd) {
	id := m.depsActivityID
	deps := splitCSV(m.depsInput.Value())
	m.mode = modeNone
	m.depsActivityID = ""
	m.depsInput.Blur()
	return m, func() tea.Msg {
		if _, err := m.svc.SetDependencies(context.Background(), id, deps); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: "dependencies updated", reload: true}
	}
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	sections := []string{m.renderHeader(accent, muted)}
	if len(m.activities) == 0 {
		sections = append(sections,
			"",
			"No activities yet.",
			"Press n to create your first activity.",
		)
	} else {
		sections = append(sections, m.renderChart(accent, muted, dim)...)
	}
	if modal := m.renderModal(accent, muted); modal != "" {
		sections = append(sections, "", modal)
	}
	sections = append(sections, "", m.renderStatusBar(muted, dim))
	v := tea.NewView(strings.Join(sections, "\n"))
	v.AltScreen = true
	return v
}

func (m Model) renderHeader(accent, muted color.Color) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("spanlane")
	bounds := m.layout.Bounds
	span := ""
	if !bounds.Degenerate() {
		span = fmt.Sprintf("%s → %s",
			bounds.EarliestStart.Format(spanDateLayout),
			bounds.LatestEnd.Format(spanDateLayout))
	}
	meta := fmt.Sprintf("%d activities • %d rows", len(m.activities), m.layout.Rows)
	if span != "" {
		meta = span + " • " + meta
	}
	return title + "  " + lipgloss.NewStyle().Foreground(muted).Render(meta)
}

// renderChart renders the axis header and one bar line per activity.
func (m Model) renderChart(accent, muted, dim color.Color) []string {
	chartWidth := m.chartWidth()
	lines := make([]string, 0, len(m.activities)+2)
	lines = append(lines, strings.Repeat(" ", chartLabelWidth)+m.renderAxisLabels(chartWidth, muted))
	lines = append(lines, strings.Repeat(" ", chartLabelWidth)+m.renderAxisRule(chartWidth, dim))

	placedByID := make(map[string]timeline.PlacedActivity, len(m.layout.Placed))
	for _, p := range m.layout.Placed {
		placedByID[p.ID] = p
	}

	selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	archivedStyle := lipgloss.NewStyle().Foreground(dim)

	for idx, activity := range m.activities {
		label := activity.Kind.Glyph() + " " + activity.Status.Glyph() + " " + truncate(activity.Name, chartLabelWidth-6)
		style := labelStyle
		if activity.ArchivedAt != nil {
			style = archivedStyle
			label += " (archived)"
		}
		if idx == m.selected {
			style = selectedStyle
			label = "▸ " + label
		} else {
			label = "  " + label
		}
		label = padRight(label, chartLabelWidth)

		bar := ""
		if placed, ok := placedByID[activity.ID]; ok {
			bar = m.renderBar(placed, chartWidth, idx == m.selected)
		}
		lines = append(lines, style.Render(label)+bar)
	}
	return lines
}

// renderAxisLabels writes each month label at its clamped chart position.
func (m Model) renderAxisLabels(chartWidth int, muted color.Color) string {
	cells := blankCells(chartWidth)
	for _, marker := range m.layout.Markers {
		col := percentToCell(marker.PositionPercent, chartWidth)
		for i, r := range marker.Label {
			pos := col + i
			if pos >= chartWidth {
				break
			}
			cells[pos] = r
		}
	}
	return lipgloss.NewStyle().Foreground(muted).Render(string(cells))
}

// renderAxisRule draws the horizontal rule with a tick per month boundary.
func (m Model) renderAxisRule(chartWidth int, dim color.Color) string {
	cells := make([]rune, chartWidth)
	for i := range cells {
		cells[i] = '┄'
	}
	for _, marker := range m.layout.Markers {
		col := percentToCell(marker.PositionPercent, chartWidth)
		if col < chartWidth {
			cells[col] = '┼'
		}
	}
	return lipgloss.NewStyle().Foreground(dim).Render(string(cells))
}

// renderBar draws one activity bar scaled from layout percentages to chart
// cells. The completed fraction uses the solid block, the remainder the light
// shade, and conflicted bars render in the warning color.
func (m Model) renderBar(placed timeline.PlacedActivity, chartWidth int, selected bool) string {
	cells := blankCells(chartWidth)
	start := percentToCell(placed.XPercent, chartWidth)
	span := percentToCell(placed.WidthPercent, chartWidth)
	if span < 1 {
		span = 1
	}
	if start+span > chartWidth {
		span = chartWidth - start
	}
	doneCells := 0
	if m.activityFields.ShowProgress {
		doneCells = span * placed.ProgressPercent / 100
	}
	for i := 0; i < span; i++ {
		glyph := '░'
		if i < doneCells {
			glyph = '█'
		}
		cells[start+i] = glyph
	}

	barColor := lipgloss.Color("36")
	if len(placed.ConflictIDs) > 0 {
		barColor = lipgloss.Color("203")
	}
	style := lipgloss.NewStyle().Foreground(barColor)
	if selected {
		style = style.Bold(true)
	}
	return style.Render(string(cells))
}

// renderModal renders the active modal panel, or "" in normal mode.
func (m Model) renderModal(accent, muted color.Color) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)

	switch m.mode {
	case modeAddActivity, modeEditActivity:
		title := "New Activity"
		if m.mode == modeEditActivity {
			title = "Edit Activity"
		}
		labels := []string{"name", "kind", "status", "start", "end", "assignees", "tags", "progress", "notes"}
		rows := make([]string, 0, formFieldCount+2)
		rows = append(rows, titleStyle.Render(title))
		for idx, input := range m.formInputs {
			marker := "  "
			if idx == m.formFocus {
				marker = "› "
			}
			rows = append(rows, marker+padRight(labels[idx]+":", 11)+input.View())
		}
		rows = append(rows, hintStyle.Render("tab next • enter save • esc cancel"))
		return boxStyle.Render(strings.Join(rows, "\n"))

	case modeDependencies:
		activity, _ := m.activityByID(m.depsActivityID)
		rows := []string{
			titleStyle.Render("Dependencies — " + truncate(activity.Name, 40)),
			m.depsInput.View(),
			hintStyle.Render("enter save • esc cancel"),
		}
		return boxStyle.Render(strings.Join(rows, "\n"))

	case modeConfirmAction:
		rows := []string{
			titleStyle.Render("Confirm " + m.pendingConfirm.Label),
			truncate(m.pendingConfirm.Activity.Name, 48),
			hintStyle.Render("y confirm • n cancel"),
		}
		return boxStyle.Render(strings.Join(rows, "\n"))

	case modeActivityInfo:
		activity, ok := m.activityByID(m.infoActivityID)
		if !ok {
			return ""
		}
		return boxStyle.Render(m.renderActivityInfo(activity, titleStyle, hintStyle))

	default:
		return ""
	}
}

// renderActivityInfo renders the inspect pane: span, placement, dependency
// routing, conflicts, and notes.
func (m Model) renderActivityInfo(activity domain.Activity, titleStyle, hintStyle lipgloss.Style) string {
	rows := []string{
		titleStyle.Render(activity.Kind.Glyph() + " " + activity.Name),
		fmt.Sprintf("kind: %s • status: %s", activity.Kind.Label(), activity.Status.Label()),
		fmt.Sprintf("span: %s → %s (%s)",
			activity.Start.Format(spanDateLayout),
			activity.End.Format(spanDateLayout),
			formatDuration(activity.Duration())),
	}
	if m.activityFields.ShowProgress {
		rows = append(rows, fmt.Sprintf("progress: %d%%", activity.Progress))
	}
	if m.activityFields.ShowAssignees && len(activity.Assignees) > 0 {
		rows = append(rows, "assignees: "+strings.Join(activity.Assignees, ", "))
	}
	if m.activityFields.ShowTags && len(activity.Tags) > 0 {
		rows = append(rows, "tags: "+strings.Join(activity.Tags, ", "))
	}

	if placed, ok := m.placedByID(activity.ID); ok {
		rows = append(rows, fmt.Sprintf("row %d • x %.1f%% • width %.1f%%", placed.Row, placed.XPercent, placed.WidthPercent))
		if len(placed.ConflictIDs) > 0 {
			names := make([]string, 0, len(placed.ConflictIDs))
			for _, id := range placed.ConflictIDs {
				if other, ok := m.activityByID(id); ok {
					names = append(names, other.Name)
				} else {
					names = append(names, id)
				}
			}
			rows = append(rows, "conflicts: "+strings.Join(names, ", "))
		}
	}

	for _, conn := range m.layout.Connectors {
		if conn.ToID != activity.ID {
			continue
		}
		fromName := conn.FromID
		if from, ok := m.activityByID(conn.FromID); ok {
			fromName = from.Name
		}
		rows = append(rows, fmt.Sprintf("after: %s (%.0f,%.0f → %.0f,%.0f)",
			truncate(fromName, 32), conn.FromX, conn.FromY, conn.ToX, conn.ToY))
	}
	for _, id := range activity.Dependencies {
		if _, ok := m.activityByID(id); !ok {
			rows = append(rows, hintStyle.Render("missing dependency: "+id))
		}
	}

	if m.activityFields.ShowNotes && activity.Notes != "" {
		if notes := m.markdown.render(activity.Notes, m.width-12); notes != "" {
			rows = append(rows, "", notes)
		}
	}
	rows = append(rows, hintStyle.Render("esc close"))
	return strings.Join(rows, "\n")
}

func (m Model) renderStatusBar(muted, dim color.Color) string {
	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := helpBubble.View(m.keys)
	status := lipgloss.NewStyle().Foreground(dim).Render(m.status)
	return status + "\n" + lipgloss.NewStyle().Foreground(muted).Render(helpLine)
}

func (m Model) selectedActivity() (domain.Activity, bool) {
	if m.selected < 0 || m.selected >= len(m.activities) {
		return domain.Activity{}, false
	}
	return m.activities[m.selected], true
}

func (m Model) activityByID(id string) (domain.Activity, bool) {
	for _, activity := range m.activities {
		if activity.ID == id {
			return activity, true
		}
	}
	return domain.Activity{}, false
}

func (m Model) placedByID(id string) (timeline.PlacedActivity, bool) {
	for _, placed := range m.layout.Placed {
		if placed.ID == id {
			return placed, true
		}
	}
	return timeline.PlacedActivity{}, false
}

// chartWidth is the cell width available for bars right of the label column.
func (m Model) chartWidth() int {
	w := m.width - chartLabelWidth - 2
	if w < 20 {
		w = 20
	}
	return w
}

func percentToCell(percent float64, chartWidth int) int {
	cell := int(percent * float64(chartWidth) / 100)
	return clamp(cell, 0, chartWidth-1)
}

func blankCells(width int) []rune {
	cells := make([]rune, width)
	for i := range cells {
		cells[i] = ' '
	}
	return cells
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days <= 0 {
		return "same day"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func padRight(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}
	return s + strings.Repeat(" ", width-len(runes))
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return string(runes[:1])
	}
	return string(runes[:maxLen-1]) + "…"
}

func clamp(v, lo, hi int) int {
	if lo > hi {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
