package api

import "tableflip.dev/taskmate/pkg/task"

// DefaultPageSize applies when a caller asks for a non-positive page size.
const DefaultPageSize = 20

// Page is one slice of an ordered task list.
type Page struct {
	Items    []task.Task `json:"items"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
	Total    int         `json:"total"`
}

// HasNext reports whether a caller should request page+1.
func (p Page) HasNext() bool {
	return p.Page*p.PageSize < p.Total
}

// LastPage is ceil(total/pageSize), and at least 1.
func (p Page) LastPage() int {
	if p.Total == 0 || p.PageSize <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// Paginate cuts page out of items. page < 1 is treated as 1 and a
// non-positive size as DefaultPageSize. Asking past the end yields no items
// and reports the last page, so the page number never exceeds
// ceil(total/pageSize).
func Paginate(items []task.Task, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	p := Page{Items: []task.Task{}, Page: page, PageSize: pageSize, Total: len(items)}
	if last := p.LastPage(); page > last {
		p.Page = last
		return p
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	p.Items = append(p.Items, items[start:end]...)
	return p
}
