// Package reconcile implements the optimistic-update protocol shared by every
// interactive task control. A Controller holds the value to display for one
// field, shows local edits immediately, and ignores server confirmations that
// would flash a stale value while an edit is in flight.
package reconcile

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the externally visible phase of a controller.
type State int

const (
	// Idle: the display equals the last confirmed value.
	Idle State = iota
	// Pending: a submitted value awaits confirmation; the guard is raised.
	Pending
	// Dragging: a continuous gesture is in progress; nothing is submitted.
	Dragging
	// Settling: a gesture just ended and its submission is about to go out.
	Settling
	// Failed: the last submission failed or timed out.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Dragging:
		return "dragging"
	case Settling:
		return "settling"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Ticket identifies one submission. Failures for an older ticket are stale.
type Ticket uint64

// ErrTimeout fails a submission that was never confirmed in time.
var ErrTimeout = errors.New("reconcile: confirmation timed out")

// DefaultSettle is the window after a drag ends during which confirmations
// do not touch the display.
const DefaultSettle = 250 * time.Millisecond

type settings struct {
	timeout  time.Duration
	settle   time.Duration
	rollback bool
}

// Option configures a Controller.
type Option func(*settings)

// WithTimeout fails a pending submission with ErrTimeout after d. Zero
// disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.timeout = d
	}
}

// WithRollback chooses whether a failure restores the last confirmed value.
// Enabled by default.
func WithRollback(enabled bool) Option {
	return func(s *settings) {
		s.rollback = enabled
	}
}

// WithSettle sets the post-drag window.
func WithSettle(d time.Duration) Option {
	return func(s *settings) {
		s.settle = d
	}
}

// Controller reconciles one field of one task.
type Controller[V any] struct {
	mu    sync.Mutex
	equal func(a, b V) bool
	opts  settings

	display   V
	confirmed V
	pending   V

	phase    State // Idle, Pending or Failed
	dragging bool
	settling bool
	ticket   Ticket
	err      error
	closed   bool

	onChange    func(V)
	after       func(d time.Duration, f func()) (stop func() bool)
	stopTimeout func() bool
	stopSettle  func() bool
}

// New returns an idle controller showing initial.
func New[V any](initial V, equal func(a, b V) bool, opts ...Option) *Controller[V] {
	s := settings{settle: DefaultSettle, rollback: true}
	for _, opt := range opts {
		opt(&s)
	}
	return &Controller[V]{
		equal:     equal,
		opts:      s,
		display:   initial,
		confirmed: initial,
		after:     afterFunc,
	}
}

// NewComparable is New with == as the equality.
func NewComparable[V comparable](initial V, opts ...Option) *Controller[V] {
	return New(initial, func(a, b V) bool { return a == b }, opts...)
}

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// OnChange registers fn to run whenever the displayed value changes. fn is
// called without the controller lock held.
func (c *Controller[V]) OnChange(fn func(V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// Value is what the control should render.
func (c *Controller[V]) Value() V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

// Confirmed is the last value seen from the store.
func (c *Controller[V]) Confirmed() V {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed
}

// State reports the current phase. A gesture takes precedence.
func (c *Controller[V]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.dragging:
		return Dragging
	case c.settling:
		return Settling
	}
	return c.phase
}

// Pending returns the in-flight value, if any.
func (c *Controller[V]) Pending() (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != Pending {
		var zero V
		return zero, false
	}
	return c.pending, true
}

// Err is the failure of the last submission, cleared by the next Submit.
func (c *Controller[V]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Submit shows v immediately and raises the guard. A submission while
// another is pending replaces it; the last one submitted wins.
func (c *Controller[V]) Submit(v V) Ticket {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}
	c.ticket++
	t := c.ticket
	c.pending = v
	c.phase = Pending
	c.err = nil
	c.dragging = false
	c.endSettleLocked()
	c.stopTimeoutLocked()
	if c.opts.timeout > 0 {
		c.stopTimeout = c.after(c.opts.timeout, func() { c.Fail(t, ErrTimeout) })
	}
	notify := c.setDisplayLocked(v)
	c.mu.Unlock()
	notify()
	return t
}

// Confirm feeds a value confirmed by the store. While the guard is raised
// only a value equal to the pending one is accepted, and it releases the
// guard. During a gesture the value is recorded but not shown.
func (c *Controller[V]) Confirm(v V) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.confirmed = v
	gesture := c.dragging || c.settling
	switch c.phase {
	case Pending:
		if !c.equal(v, c.pending) {
			c.mu.Unlock()
			return
		}
		c.phase = Idle
		c.stopTimeoutLocked()
	case Failed:
		c.phase = Idle
	}
	notify := func() {}
	if !gesture {
		notify = c.setDisplayLocked(v)
	}
	c.mu.Unlock()
	notify()
}

// Fail reports that the submission identified by t did not succeed. Stale
// tickets and controllers that are not pending ignore it. It reports whether
// the failure was applied.
func (c *Controller[V]) Fail(t Ticket, err error) bool {
	c.mu.Lock()
	if c.closed || t != c.ticket || c.phase != Pending {
		c.mu.Unlock()
		return false
	}
	if err == nil {
		err = errors.New("reconcile: submission failed")
	}
	c.phase = Failed
	c.err = err
	c.stopTimeoutLocked()
	notify := func() {}
	if c.opts.rollback && !c.dragging && !c.settling {
		notify = c.setDisplayLocked(c.confirmed)
	}
	c.mu.Unlock()
	notify()
	return true
}

// BeginDrag starts a continuous gesture.
func (c *Controller[V]) BeginDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.endSettleLocked()
	c.dragging = true
}

// Drag shows an intermediate gesture value. It never submits.
func (c *Controller[V]) Drag(v V) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.endSettleLocked()
	c.dragging = true
	notify := c.setDisplayLocked(v)
	c.mu.Unlock()
	notify()
}

// EndDrag finishes the gesture on v and opens the settle window. The host
// is expected to Submit(v) next; until it does, or the window elapses,
// confirmations cannot overwrite v.
func (c *Controller[V]) EndDrag(v V) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.dragging = false
	notify := c.setDisplayLocked(v)
	if c.opts.settle > 0 {
		c.settling = true
		t := c.ticket
		c.stopSettle = c.after(c.opts.settle, func() { c.settleElapsed(t) })
	}
	c.mu.Unlock()
	notify()
}

// CancelDrag abandons the gesture and restores what was shown before it.
func (c *Controller[V]) CancelDrag() {
	c.mu.Lock()
	if c.closed || !c.dragging {
		c.mu.Unlock()
		return
	}
	c.dragging = false
	notify := c.setDisplayLocked(c.restingLocked())
	c.mu.Unlock()
	notify()
}

// Close stops timers. Later confirmations, failures and timeouts are
// ignored.
func (c *Controller[V]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimeoutLocked()
	c.endSettleLocked()
}

// settleElapsed closes a settle window that no submission followed.
func (c *Controller[V]) settleElapsed(t Ticket) {
	c.mu.Lock()
	if c.closed || !c.settling || t != c.ticket {
		c.mu.Unlock()
		return
	}
	c.settling = false
	c.stopSettle = nil
	notify := c.setDisplayLocked(c.restingLocked())
	c.mu.Unlock()
	notify()
}

// restingLocked is the value to show when no gesture is active.
func (c *Controller[V]) restingLocked() V {
	if c.phase == Pending {
		return c.pending
	}
	if c.phase == Failed && !c.opts.rollback {
		return c.pending
	}
	return c.confirmed
}

func (c *Controller[V]) endSettleLocked() {
	c.settling = false
	if c.stopSettle != nil {
		c.stopSettle()
		c.stopSettle = nil
	}
}

func (c *Controller[V]) stopTimeoutLocked() {
	if c.stopTimeout != nil {
		c.stopTimeout()
		c.stopTimeout = nil
	}
}

func (c *Controller[V]) setDisplayLocked(v V) func() {
	if c.equal(c.display, v) {
		c.display = v
		return func() {}
	}
	c.display = v
	fn := c.onChange
	if fn == nil {
		return func() {}
	}
	return func() { fn(v) }
}
