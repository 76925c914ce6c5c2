package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tableflip.dev/taskmate/pkg/events"
)

const watchBuffer = 64

// Watch streams change messages until ctx is cancelled. Callers should drain
// the returned channel; a subscriber that falls behind misses messages rather
// than blocking writers. The channel is closed once ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan events.TaskChangeMsg, error) {
	if ctx == nil {
		return nil, errors.New("store: watch requires a context")
	}
	ch := make(chan events.TaskChangeMsg, watchBuffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch, nil
}

func (s *Store) emitLocked(msg events.TaskChangeMsg) {
	for id, ch := range s.subs {
		select {
		case ch <- msg:
		default:
			s.logger.Warn("dropped change notification", "subscriber", id, "task", msg.Task.ID, "action", msg.Action)
		}
	}
}

// WatchFixtures signals on the returned channel whenever files in dir change.
// Bursts of writes are coalesced into one signal. The channel is closed once
// ctx is done or the watcher fails.
func WatchFixtures(ctx context.Context, dir string) (<-chan struct{}, error) {
	if dir == "" {
		return nil, errors.New("store: fixture directory unknown")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure fixture directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Clean(dir)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("store: watch %s: %w", dir, err)
	}

	signals := make(chan struct{}, 1)
	fire := make(chan struct{}, 1)

	go func() {
		defer close(signals)
		defer watcher.Close()

		// The throttle timer only ever touches fire, which is never closed;
		// signals is written from this goroutine alone.
		queue := func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		}

		throttle := newEventThrottle(100 * time.Millisecond)
		defer throttle.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-fire:
				select {
				case signals <- struct{}{}:
				default:
					// A reload is already queued; it will pick up this change too.
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Reload anyway so readers converge even if we lost an event.
				throttle.Enqueue(queue)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if isFixtureFile(evt.Name) {
					throttle.Enqueue(queue)
				}
			}
		}
	}()

	return signals, nil
}

// eventThrottle coalesces rapid change notifications so readers reload once
// per burst of filesystem activity instead of on every single write.
type eventThrottle struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{delay: delay}
}

func (t *eventThrottle) Enqueue(send func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.mu.Lock()
			t.timer = nil
			t.mu.Unlock()
			send()
		})
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
