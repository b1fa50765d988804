package events

// Event is an interface to allow any kind of message to be produced to
// Watchers.
type Event interface{}

// Watcher receives emitted Events on Ch. Ch holds a single Event: a watcher
// that falls behind only ever sees the latest one.
type Watcher struct {
	Ch chan Event

	stop func(*Watcher)
}

// Stop will unregister a Watcher and close its Ch channel.
func (w *Watcher) Stop() {
	w.stop(w)
}
