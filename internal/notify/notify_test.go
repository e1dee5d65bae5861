package notify

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestEscapeAppleScript(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			input:    `Hello World`,
			expected: `Hello World`,
		},
		{
			input:    `Hello "World"`,
			expected: `Hello \"World\"`,
		},
		{
			input:    `Hello\nWorld`,
			expected: `Hello\\nWorld`,
		},
		{
			input:    `C:\Users\test`,
			expected: `C:\\Users\\test`,
		},
		{
			input:    "Line1\nLine2\tTabbed",
			expected: `Line1\nLine2\tTabbed`,
		},
		{
			input:    `Quote: " Backslash: \`,
			expected: `Quote: \" Backslash: \\`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeAppleScript(tt.input)
			if result != tt.expected {
				t.Errorf("escapeAppleScript(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestSendIsNonBlocking(t *testing.T) {
	start := time.Now()
	Send("Test Title", "Test Message")
	if elapsed := time.Since(start); elapsed > 10*time.Millisecond {
		t.Errorf("Send() took %v, expected < 10ms (non-blocking)", elapsed)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder

	if _, ok := r.Last(); ok {
		t.Error("Last() on empty recorder should report false")
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Notify(Info("Moved", "task moved"))
		}()
	}
	wg.Wait()

	if got := len(r.All()); got != 10 {
		t.Errorf("len(All()) = %d, want 10", got)
	}

	r.Notify(Errorf("Error", "could not move %s", "task-1"))
	last, ok := r.Last()
	if !ok || last.Level != LevelError || last.Message != "could not move task-1" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestMultiAndFunc(t *testing.T) {
	var a, b Recorder
	var called int
	n := Multi(&a, nil, &b, Func(func(Notification) { called++ }))

	n.Notify(Info("Saved", ""))

	if len(a.All()) != 1 || len(b.All()) != 1 || called != 1 {
		t.Errorf("Multi did not reach every notifier: a=%d b=%d func=%d", len(a.All()), len(b.All()), called)
	}

	Discard.Notify(Info("ignored", ""))
}

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriterNotifier(&buf)

	w.Notify(Info("Status updated", "Call the lab is now done"))
	w.Notify(Errorf("Error", "task could not be moved"))

	out := buf.String()
	if !strings.Contains(out, "Status updated: Call the lab is now done") {
		t.Errorf("missing info line in %q", out)
	}
	if !strings.Contains(out, "✗ Error: task could not be moved") {
		t.Errorf("missing error line in %q", out)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("expected 2 lines, got %d", got)
	}
}

func TestNotificationString(t *testing.T) {
	if got := Info("Moved", "").String(); got != "Moved" {
		t.Errorf("String() = %q, want %q", got, "Moved")
	}
	if got := Info("Moved", "to high").String(); got != "Moved: to high" {
		t.Errorf("String() = %q", got)
	}
}

// BenchmarkEscapeAppleScript measures the performance of string escaping
func BenchmarkEscapeAppleScript(b *testing.B) {
	testStrings := []string{
		"Simple message",
		`Message with "quotes"`,
		"Message\nwith\nnewlines\tand\ttabs",
	}

	for _, s := range testStrings {
		b.Run(s, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				escapeAppleScript(s)
			}
		})
	}
}
