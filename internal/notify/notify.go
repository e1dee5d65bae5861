// Package notify delivers short, non-blocking user notifications about the
// outcome of board actions.
package notify

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Level is the severity of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notification is a single toast-style message.
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// String renders the notification as one line.
func (n Notification) String() string {
	if n.Message == "" {
		return n.Title
	}
	return n.Title + ": " + n.Message
}

// Notifier delivers notifications. Implementations must not block the caller.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(Notification)

// Notify implements Notifier.
func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

// Info builds an info notification.
func Info(title, message string) Notification {
	return Notification{Level: LevelInfo, Title: title, Message: message}
}

// Errorf builds an error notification with a formatted message.
func Errorf(title, format string, args ...interface{}) Notification {
	return Notification{Level: LevelError, Title: title, Message: fmt.Sprintf(format, args...)}
}

// Multi fans a notification out to several notifiers.
func Multi(ns ...Notifier) Notifier {
	return Func(func(n Notification) {
		for _, target := range ns {
			if target != nil {
				target.Notify(n)
			}
		}
	})
}

// Recorder keeps every notification in memory. It is safe for concurrent use.
type Recorder struct {
	mu   sync.Mutex
	seen []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, n)
}

// All returns a copy of the recorded notifications.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.seen))
	copy(out, r.seen)
	return out
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return Notification{}, false
	}
	return r.seen[len(r.seen)-1], true
}

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// WriterNotifier prints styled notifications, one per line.
type WriterNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterNotifier creates a notifier writing to w (typically os.Stderr).
func NewWriterNotifier(w io.Writer) *WriterNotifier {
	return &WriterNotifier{w: w}
}

// Notify implements Notifier.
func (wn *WriterNotifier) Notify(n Notification) {
	style := infoStyle
	prefix := "✓"
	if n.Level == LevelError {
		style = errorStyle
		prefix = "✗"
	}
	wn.mu.Lock()
	defer wn.mu.Unlock()
	fmt.Fprintln(wn.w, style.Render(prefix+" "+n.String()))
}

// OSNotifier forwards notifications to the desktop notification daemon.
type OSNotifier struct{}

// Notify implements Notifier.
func (OSNotifier) Notify(n Notification) {
	title := n.Title
	if n.Level == LevelError {
		title = "⚠ " + title
	}
	Send(title, n.Message)
}

// Send sends an OS-native notification with the given title and message.
// It detects the platform and uses the appropriate notification command:
// - macOS: osascript (native AppleScript)
// - Linux: notify-send (libnotify)
//
// This function is non-blocking and fails silently if the notification
// command is not available on the system.
func Send(title, message string) {
	go func() {
		var cmd *exec.Cmd

		switch runtime.GOOS {
		case "darwin":
			script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(message), escapeAppleScript(title))
			cmd = exec.Command("osascript", "-e", script)

		case "linux":
			cmd = exec.Command("notify-send", title, message)

		default:
			return
		}

		_ = cmd.Run()
	}()
}

// escapeAppleScript escapes special characters for AppleScript strings.
func escapeAppleScript(s string) string {
	var b strings.Builder
	for _, ch := range s {
		switch ch {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}
