package options

import (
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/taskmate/pkg/query"
	"tableflip.dev/taskmate/pkg/timeutil"
)

// FilterOptions captures the task selection flags shared by list-style
// commands.
type FilterOptions struct {
	Status   string
	Search   string
	Project  string
	Assignee string
	Tag      string
	Within   string
}

// AddFilterArgs wires filter flags on the provided command.
func AddFilterArgs(cmd *cobra.Command, o *FilterOptions, defaultStatus string) {
	cmd.Flags().StringVarP(&o.Status, "status", "s", defaultStatus,
		"Status filter: all, active, completed or a status such as todo, in_progress, blocked.")
	cmd.Flags().StringVarP(&o.Search, "search", "q", "",
		"Only tasks whose title or description contains this text.")
	cmd.Flags().StringVarP(&o.Project, "project", "p", "",
		"Only tasks in this project.")
	cmd.Flags().StringVar(&o.Assignee, "assignee", "",
		"Only tasks assigned to this person.")
	cmd.Flags().StringVarP(&o.Tag, "tag", "t", "",
		"Only tasks carrying this tag.")
	cmd.Flags().StringVar(&o.Within, "within", "",
		"Only tasks due within this window from today, e.g. 3d or 2w.")
}

// Filter converts the flags into a query filter.
func (o *FilterOptions) Filter() (query.Filter, error) {
	status, err := query.ParseStatusFilter(o.Status)
	if err != nil {
		return query.Filter{}, err
	}
	f := query.Filter{
		Status:   status,
		Search:   o.Search,
		Project:  o.Project,
		Assignee: o.Assignee,
		Tag:      o.Tag,
	}
	if strings.TrimSpace(o.Within) != "" {
		w, err := timeutil.ParseWindow(o.Within)
		if err != nil {
			return query.Filter{}, err
		}
		f.DueWithin = &w
	}
	return f, nil
}

// PageOptions selects a page of results. Page 0 disables paging.
type PageOptions struct {
	Page     int
	PageSize int
}

func AddPageArgs(cmd *cobra.Command, o *PageOptions) {
	cmd.Flags().IntVar(&o.Page, "page", 0,
		"Show only this 1-based page of results.")
	cmd.Flags().IntVar(&o.PageSize, "page-size", 20,
		"Tasks per page when --page is set.")
}
