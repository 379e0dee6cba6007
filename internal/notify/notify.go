// Package notify carries user-facing notifications from operations to the
// page that renders them.
package notify

import "sync"

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

type Notification struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Variant     Variant `json:"variant"`
}

// Notifier receives notifications.
type Notifier interface {
	Notify(n Notification)
}

// Info is a non-destructive notification.
func Info(title string) Notification {
	return Notification{Title: title, Variant: VariantDefault}
}

// Destructive is an error-styled notification.
func Destructive(title string) Notification {
	return Notification{Title: title, Variant: VariantDestructive}
}

// Recorder collects notifications until they are drained.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// Drain returns and forgets the collected notifications.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := r.items
	r.items = nil
	return items
}
