package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/sadopc/dailystretch/internal/logging"
	"github.com/sadopc/dailystretch/internal/model"
)

// Permission mirrors the states of a desktop notification permission.
type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// Notification tags. A repeated tag replaces the previous notification.
const (
	TagSession  = "ds-session"
	TagReminder = "ds-reminder"
)

const (
	finishToast   = 1800 * time.Millisecond
	reminderToast = 1500 * time.Millisecond
)

// PermissionSource reports and requests the system notification permission.
type PermissionSource interface {
	Permission() Permission
	RequestPermission() (Permission, error)
}

// SystemNotifier shows a desktop notification.
type SystemNotifier interface {
	Show(title, body, tag string) error
}

// Toaster shows a transient in-app message.
type Toaster interface {
	Toast(text string, d time.Duration)
}

// ToasterFunc adapts a function to Toaster.
type ToasterFunc func(text string, d time.Duration)

func (f ToasterFunc) Toast(text string, d time.Duration) { f(text, d) }

// Chime plays the audio cue once the user has interacted.
type Chime interface {
	Unlocked() bool
	Play() error
}

// Message is one notification across every channel.
type Message struct {
	Kind     model.Kind
	Mode     model.Mode
	Title    string
	Body     string
	Tag      string
	ToastFor time.Duration
}

// FinishMessage describes the end of a countdown in completed mode.
func FinishMessage(completed model.Mode) Message {
	msg := Message{
		Kind:     model.KindFinish,
		Mode:     completed,
		Tag:      TagSession,
		ToastFor: finishToast,
	}
	if completed == model.ModeStudy {
		msg.Title = "Time for Break!"
		msg.Body = "Take a short break."
	} else {
		msg.Title = "Break finished"
		msg.Body = "Back to work!"
	}
	return msg
}

// ReminderMessage describes a periodic nudge.
func ReminderMessage(title, body string) Message {
	return Message{
		Kind:     model.KindReminder,
		Title:    title,
		Body:     body,
		Tag:      TagReminder,
		ToastFor: reminderToast,
	}
}

// Options wires a Dispatcher. Every field may be nil.
type Options struct {
	Permission PermissionSource
	System     SystemNotifier
	Toaster    Toaster
	Chime      Chime
	Logger     *logging.Logger
}

// Dispatcher fans a notification out to the system, the toast area and the
// audio cue. Each side effect is attempted independently.
type Dispatcher struct {
	mu         sync.Mutex
	permission PermissionSource
	system     SystemNotifier
	toaster    Toaster
	chime      Chime
	logger     *logging.Logger
	requested  bool
}

func NewDispatcher(opts Options) *Dispatcher {
	return &Dispatcher{
		permission: opts.Permission,
		system:     opts.System,
		toaster:    opts.Toaster,
		chime:      opts.Chime,
		logger:     opts.Logger,
	}
}

// RequestPermission asks for notification permission at most once per
// process, and only while the permission is still undecided.
func (d *Dispatcher) RequestPermission() Permission {
	if d.permission == nil {
		return PermissionUnsupported
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.permission.Permission()
	if state != PermissionDefault || d.requested {
		return state
	}
	d.requested = true

	granted, err := d.permission.RequestPermission()
	if err != nil {
		d.logger.Warn("notification permission request failed", logging.F("err", err))
	}
	return granted
}

// Notify reports a finished countdown in mode. Reminders carry their own
// channel texts and go through Dispatch, so other kinds are ignored here.
func (d *Dispatcher) Notify(kind model.Kind, mode model.Mode) {
	if kind != model.KindFinish {
		return
	}
	d.Dispatch(FinishMessage(mode))
}

// Dispatch delivers msg to every available channel.
func (d *Dispatcher) Dispatch(msg Message) {
	d.guard("system notification", func() error { return d.showSystem(msg) })
	d.guard("toast", func() error {
		if d.toaster != nil {
			d.toaster.Toast(msg.Body, msg.ToastFor)
		}
		return nil
	})
	d.guard("audio cue", func() error {
		if d.chime == nil || !d.chime.Unlocked() {
			return nil
		}
		return d.chime.Play()
	})
}

func (d *Dispatcher) showSystem(msg Message) error {
	if d.system == nil {
		return nil
	}
	if d.RequestPermission() != PermissionGranted {
		return nil
	}
	return d.system.Show(msg.Title, msg.Body, msg.Tag)
}

func (d *Dispatcher) guard(channel string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification channel panicked", logging.F("channel", channel), logging.F("panic", r))
		}
	}()
	if err := fn(); err != nil {
		d.logger.Warn(fmt.Sprintf("%s failed", channel), logging.F("err", err))
	}
}

// StaticPermission is a PermissionSource with a fixed answer, used when
// notifications are switched off in config.
type StaticPermission Permission

func (p StaticPermission) Permission() Permission { return Permission(p) }

func (p StaticPermission) RequestPermission() (Permission, error) { return Permission(p), nil }
