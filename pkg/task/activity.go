package task

// Activity is one entry in a task's history feed.
type Activity struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message,omitempty"`
	Author    string    `json:"author,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
}

const (
	ActivityComment      = "comment"
	ActivityStatusChange = "status_change"
	ActivityCreated      = "created"
)

// LatestActivity returns the newest entry of the feed. Entries with the
// same timestamp resolve to the one appended last.
func (t Task) LatestActivity() (Activity, bool) {
	if len(t.Activities) == 0 {
		return Activity{}, false
	}
	latest := t.Activities[0]
	for _, a := range t.Activities[1:] {
		if !a.CreatedAt.Before(latest.CreatedAt.Time) {
			latest = a
		}
	}
	return latest, true
}
