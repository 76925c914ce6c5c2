package app

import (
	"context"
	"sort"
	"time"

	"tableflip.dev/taskmate/pkg/query"
	"tableflip.dev/taskmate/pkg/task"
)

// ReviewCandidate is an open task nobody has touched for a while.
type ReviewCandidate struct {
	Task        task.Task `json:"task"`
	LastTouched time.Time `json:"lastTouched"`
}

// ReviewCandidates returns active tasks whose last touch (updatedAt or the
// newest activity) is before cutoff, oldest first. A zero cutoff returns
// every active task.
func (s *Service) ReviewCandidates(ctx context.Context, cutoff time.Time) ([]ReviewCandidate, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	active, err := s.List(ctx, query.Filter{Status: query.StatusActive})
	if err != nil {
		return nil, err
	}

	out := make([]ReviewCandidate, 0, len(active))
	for _, t := range active {
		last := lastTouched(t)
		if !cutoff.IsZero() && !last.Before(cutoff) {
			continue
		}
		out = append(out, ReviewCandidate{Task: t, LastTouched: last})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastTouched.Before(out[j].LastTouched)
	})
	return out, nil
}

func lastTouched(t task.Task) time.Time {
	last := t.UpdatedAt.Time
	for _, a := range t.Activities {
		if a.CreatedAt.After(last) {
			last = a.CreatedAt.Time
		}
	}
	return last
}
