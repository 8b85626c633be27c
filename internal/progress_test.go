package internal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProgress_Run(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		message  string
		fn       func() error
		wantErr  bool
		wantLine string
	}{
		{
			name:     "successful function",
			message:  "Testing",
			fn:       func() error { return nil },
			wantLine: "OK Testing",
		},
		{
			name:     "function with error",
			message:  "Testing error",
			fn:       func() error { return errors.New("test error") },
			wantErr:  true,
			wantLine: "FAILED Testing error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := NewProgress(&buf).Run(ctx, tt.message, tt.fn)
			if (err != nil) != tt.wantErr {
				t.Errorf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(buf.String(), tt.wantLine) {
				t.Errorf("output = %q, want %q", buf.String(), tt.wantLine)
			}
		})
	}
}

func TestProgress_RunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	var buf bytes.Buffer
	err := NewProgress(&buf).Run(ctx, "Waiting", func() error {
		<-release
		return nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
}

func TestProgress_RunSteps(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		steps   []ProgressStep
		wantErr bool
		ran     int
	}{
		{
			name: "successful steps",
			steps: []ProgressStep{
				{Message: "Step 1", Fn: func() error { return nil }},
				{Message: "Step 2", Fn: func() error { return nil }},
			},
			ran: 2,
		},
		{
			name: "step with error stops the run",
			steps: []ProgressStep{
				{Message: "Step 1", Fn: func() error { return errors.New("step error") }},
				{Message: "Step 2", Fn: func() error { return nil }},
			},
			wantErr: true,
			ran:     1,
		},
		{
			name:  "empty steps",
			steps: []ProgressStep{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := NewProgress(&buf).RunSteps(ctx, tt.steps)
			if (err != nil) != tt.wantErr {
				t.Errorf("RunSteps() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := strings.Count(buf.String(), "\n"); got != tt.ran {
				t.Errorf("RunSteps() reported %d step(s), want %d", got, tt.ran)
			}
			if tt.ran > 0 && !strings.Contains(buf.String(), "[1/") {
				t.Errorf("output missing step counter: %q", buf.String())
			}
		})
	}
}

func TestProgress_Messages(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf)
	p.Success("saved")
	p.Error("broken")
	p.Info("note")
	p.Warning("careful")

	out := buf.String()
	for _, want := range []string{"OK saved", "ERROR: broken", "note", "WARNING: careful"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if isTerminal(&bytes.Buffer{}) {
		t.Error("isTerminal() = true for a buffer")
	}
}
