package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/taskmate/pkg/task"
)

const width = len("11 12 13 14 15 16 17") // an example week

// Month prints a calendar of then's month with days that have tasks due in
// bold. Today is underlined.
func (pp *PrettyPrint) Month(then time.Time, tasks ...task.Task) {
	count := make([]int, DaysIn(then))
	for _, t := range tasks {
		if t.DueDate == nil || t.DueDate.Year != then.Year() || t.DueDate.Month != then.Month() {
			continue
		}
		count[t.DueDate.Day-1]++
	}
	pp.MonthCount(then, count)
}

// MonthCount prints a month grid, emphasising days with a non-zero count.
func (pp *PrettyPrint) MonthCount(then time.Time, count []int) {
	w := pp.out()
	d := StartDay(then)

	tf := color.New(color.FgWhite, color.Italic)
	m := then.Month().String()
	mid := (width - len(m)) / 2
	_, _ = tf.Fprintf(w, "%s%s%s\n", strings.Repeat(" ", mid), m, strings.Repeat(" ", width-mid-len(m)))

	// Pad out the start of the month.
	for i := time.Sunday; i < d; i++ {
		_, _ = fmt.Fprint(w, "   ")
	}

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)
	for i := 0; i < DaysIn(then); i++ {
		day := task.NewDate(then.Year(), then.Month(), i+1)
		printer := l1
		if i < len(count) && count[i] > 0 {
			printer = l2
		}
		if day.Equal(pp.Today) {
			printer = color.New(color.Bold, color.Underline)
		}
		_, _ = printer.Fprintf(w, "%2d ", i+1)

		d++
		if d > time.Saturday {
			d = time.Sunday
			_, _ = fmt.Fprint(w, "\n")
		}
	}
	_, _ = fmt.Fprint(w, "\n\n")
}

func NextMonth(then time.Time) time.Time {
	return time.Date(then.Year(), then.Month()+1, 1, 1, 0, 0, 0, then.Location())
}

func DaysIn(then time.Time) int {
	return time.Date(then.Year(), then.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func StartDay(then time.Time) time.Weekday {
	return time.Date(then.Year(), then.Month(), 1, 1, 0, 0, 0, time.UTC).Weekday()
}
