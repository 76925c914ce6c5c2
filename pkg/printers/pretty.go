package printers

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/mattn/go-isatty"

	"tableflip.dev/taskmate/pkg/schedule"
	"tableflip.dev/taskmate/pkg/task"
)

// PrettyPrint renders tasks for humans.
type PrettyPrint struct {
	ShowID bool
	Today  task.Date
	Out    io.Writer
}

var (
	spacing = strings.Repeat(" ", len("3f2a9c1e-0b7d-4c55-9e61-5b0e6c2d7a10  "))
)

// ConfigureColor disables color when f is not a terminal.
func ConfigureColor(f *os.File) {
	if f == nil {
		return
	}
	fd := f.Fd()
	color.NoColor = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out != nil {
		return pp.Out
	}
	return color.Output
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " task")
	default:
		_, _ = c.Fprintln(pp.out(), " tasks")
	}
}

var statusGlyphs = map[task.Status]struct {
	symbol string
	attrs  []color.Attribute
}{
	task.Todo:       {"•", []color.Attribute{color.FgWhite}},
	task.InProgress: {"◐", []color.Attribute{color.FgHiCyan}},
	task.Done:       {"✓", []color.Attribute{color.FgGreen, color.Faint}},
	task.Blocked:    {"!", []color.Attribute{color.FgRed, color.Bold}},
	task.Cancelled:  {"✗", []color.Attribute{color.Faint}},
}

// StatusSymbol is the colored glyph for s.
func StatusSymbol(s task.Status) string {
	g, ok := statusGlyphs[s]
	if !ok {
		return "?"
	}
	return color.New(g.attrs...).Sprint(g.symbol)
}

// Tasks prints one row per task.
func (pp *PrettyPrint) Tasks(tasks ...task.Task) {
	if len(tasks) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " none\n\n")
		return
	}

	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	tbl := uitable.New()
	tbl.Separator = " "
	tbl.MaxColWidth = 60
	for _, t := range tasks {
		row := []interface{}{}
		if pp.ShowID {
			row = append(row, y.Sprint(t.ID))
		}
		row = append(row, StatusSymbol(t.Status), pp.titleOf(t), pp.dueOf(t), details(t))
		tbl.AddRow(row...)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

func (pp *PrettyPrint) titleOf(t task.Task) string {
	if t.Status == task.Done || t.Status == task.Cancelled {
		return color.New(color.Faint, color.CrossedOut).Sprint(t.Title)
	}
	return t.Title
}

func (pp *PrettyPrint) dueOf(t task.Task) string {
	if t.DueDate == nil {
		return ""
	}
	label := t.DueDate.String()
	if pp.Today.IsZero() {
		return label
	}
	switch days := pp.Today.DaysUntil(*t.DueDate); {
	case days == 0:
		return color.New(color.FgHiYellow).Sprint("today")
	case days == 1:
		return "tomorrow"
	case days < 0 && t.IsActive():
		return color.New(color.FgRed).Sprintf("%s (%dd late)", label, -days)
	}
	return label
}

func details(t task.Task) string {
	var parts []string
	if t.Progress != nil {
		parts = append(parts, fmt.Sprintf("%d%%", *t.Progress))
	}
	if t.Rating != nil {
		parts = append(parts, strings.Repeat("★", *t.Rating))
	}
	if t.Project != "" {
		parts = append(parts, "#"+t.Project)
	}
	if t.Assignee != "" {
		parts = append(parts, "@"+t.Assignee)
	}
	return color.New(color.Faint).Sprint(strings.Join(parts, " "))
}

// Sections prints the schedule view. Empty sections are skipped unless
// every section is empty.
func (pp *PrettyPrint) Sections(sections []schedule.Section) {
	printed := false
	for _, sec := range sections {
		if len(sec.Tasks) == 0 {
			continue
		}
		printed = true
		pp.TitleWithCount(sec.Title, len(sec.Tasks))
		pp.Tasks(sec.Tasks...)
	}
	if !printed {
		pp.Title("Schedule")
		pp.Tasks()
	}
}

// Task prints a detail view of one task.
func (pp *PrettyPrint) Task(t task.Task) {
	pp.Title(t.Title)
	bold := color.New(color.Bold)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.Wrap = true
	tbl.MaxColWidth = 72
	add := func(k string, v interface{}) {
		tbl.AddRow(bold.Sprint(k), v)
	}
	add("ID", t.ID)
	add("Status", StatusSymbol(t.Status)+" "+t.Status.String())
	if t.DueDate != nil {
		add("Due", pp.dueOf(t))
	}
	if t.Progress != nil {
		add("Progress", fmt.Sprintf("%d%%", *t.Progress))
	}
	if t.Rating != nil {
		add("Rating", strings.Repeat("★", *t.Rating)+strings.Repeat("☆", 5-*t.Rating))
	}
	if t.Selection != nil {
		add("Selected", *t.Selection)
	}
	if t.Checked != nil {
		add("Checked", *t.Checked)
	}
	if t.Weather != nil {
		add("Weather", string(*t.Weather))
	}
	if t.Project != "" {
		add("Project", t.Project)
	}
	if t.Assignee != "" {
		add("Assignee", t.Assignee)
	}
	if len(t.Tags) > 0 {
		add("Tags", strings.Join(t.Tags, ", "))
	}
	for k, v := range t.CustomFields {
		add(k, v)
	}
	if t.Description != "" {
		add("Description", t.Description)
	}
	add("Created", t.CreatedAt.String())
	add("Updated", t.UpdatedAt.String())
	tbl.RightAlign(0)
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// Activities prints an activity feed.
func (pp *PrettyPrint) Activities(acts ...task.Activity) {
	if len(acts) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(pp.out(), " no activity\n\n")
		return
	}
	faint := color.New(color.Faint)
	tbl := uitable.New()
	tbl.Separator = "  "
	for _, a := range acts {
		who := a.Author
		if who == "" {
			who = "-"
		}
		tbl.AddRow(faint.Sprint(a.CreatedAt.Local().Format("Jan 2 15:04")), a.Type, who, a.Message)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

// PageFooter prints "page x of y".
func (pp *PrettyPrint) PageFooter(page, lastPage, total int) {
	f := color.New(color.Faint)
	_, _ = f.Fprintf(pp.out(), "page %d of %d (%d tasks)\n", page, lastPage, total)
}
