package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rshade/piante/internal/engine"
)

// StateMsg carries a store snapshot into the Bubble Tea loop.
type StateMsg struct {
	State engine.State
}

// stateFeed forwards store notifications to the program without ever
// blocking the store. Snapshots are complete, so only the latest one
// pending is kept.
type stateFeed struct {
	mu          sync.Mutex
	latest      engine.State
	ready       chan struct{}
	done        chan struct{}
	once        sync.Once
	unsubscribe func()
}

func newStateFeed(subscribe func(engine.Listener) func()) *stateFeed {
	f := &stateFeed{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	f.unsubscribe = subscribe(f.push)
	return f
}

func (f *stateFeed) push(s engine.State) {
	f.mu.Lock()
	f.latest = s
	f.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
	}
}

// wait returns a command that resolves to the next StateMsg, or to nil once
// the feed is closed.
func (f *stateFeed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-f.ready:
			f.mu.Lock()
			s := f.latest
			f.mu.Unlock()
			return StateMsg{State: s}
		case <-f.done:
			return nil
		}
	}
}

// Close unsubscribes from the store and releases any pending wait.
func (f *stateFeed) Close() {
	f.once.Do(func() {
		f.unsubscribe()
		close(f.done)
	})
}
