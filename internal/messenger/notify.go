package messenger

import (
	"sync"

	"github.com/tOgg1/wirewave/internal/api"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient message for the user.
type Notification struct {
	Level Level
	Text  string
}

// NotificationSink receives user-facing outcomes of actions.
type NotificationSink interface {
	Notify(n Notification)
}

// NotifyFunc adapts a function to NotificationSink.
type NotifyFunc func(Notification)

func (f NotifyFunc) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard NotificationSink = NotifyFunc(func(Notification) {})

// Recorder keeps notifications in memory.
type Recorder struct {
	mu  sync.Mutex
	all []Notification
}

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
}

// All returns the notifications received so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.all...)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return Notification{}, false
	}
	return r.all[len(r.all)-1], true
}

func notifySuccess(sink NotificationSink, text string) {
	sink.Notify(Notification{Level: LevelSuccess, Text: text})
}

// notifyError reports err with the server's text when it has one.
func notifyError(sink NotificationSink, err error, fallback string) {
	sink.Notify(Notification{Level: LevelError, Text: api.UserMessage(err, fallback)})
}

func sinkOrDiscard(sink NotificationSink) NotificationSink {
	if sink == nil {
		return Discard
	}
	return sink
}
