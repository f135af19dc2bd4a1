package pipeline

import "sync"

// RunUpdate is a state or stage transition pushed to run watchers.
type RunUpdate struct {
	RunID    string   `json:"run_id"`
	ModuleID string   `json:"module_id"`
	State    RunState `json:"state"`
	Stage    string   `json:"stage"`
	Reason   string   `json:"reason,omitempty"`
}

// Notifier fans run transitions out to subscribers watching a module. Slow
// subscribers lose updates rather than blocking the run: the channel is
// buffered and sends that would block are dropped.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[chan RunUpdate]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: map[string]map[chan RunUpdate]struct{}{}}
}

// Subscribe registers a watcher for a module's run transitions. The returned
// cancel func must be called to release the subscription; after cancel the
// channel is closed.
func (n *Notifier) Subscribe(moduleID string) (<-chan RunUpdate, func()) {
	ch := make(chan RunUpdate, 8)

	n.mu.Lock()
	if n.subs[moduleID] == nil {
		n.subs[moduleID] = map[chan RunUpdate]struct{}{}
	}
	n.subs[moduleID][ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if set, ok := n.subs[moduleID]; ok {
			if _, live := set[ch]; live {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(n.subs, moduleID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers an update to every watcher of the module.
func (n *Notifier) Publish(u RunUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs[u.ModuleID] {
		select {
		case ch <- u:
		default:
		}
	}
}
