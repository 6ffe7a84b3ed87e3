package session

import "sync"

// Navigator receives the store's navigation signals.
type Navigator interface {
	Navigate(path string)
}

// NopNavigator ignores navigation.
type NopNavigator struct{}

func (NopNavigator) Navigate(string) {}

// RecordingNavigator remembers every navigation; web handlers redirect to the last one.
type RecordingNavigator struct {
	mu    sync.Mutex
	paths []string
}

func (n *RecordingNavigator) Navigate(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
}

// Last returns the most recent destination, empty when none.
func (n *RecordingNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

func (n *RecordingNavigator) History() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.paths...)
}
