package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ProgressStep represents a single step in a multi-step process
type ProgressStep struct {
	Message string
	Fn      func() error
}

// Progress reports long-running work on w. A spinner is drawn only when w
// is a terminal; otherwise each step prints a single result line.
type Progress struct {
	w   io.Writer
	tty bool
}

// NewProgress creates a reporter writing to w
func NewProgress(w io.Writer) *Progress {
	return &Progress{w: w, tty: isTerminal(w)}
}

// ShowProgress runs fn with a spinner on stderr
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	return NewProgress(os.Stderr).Run(ctx, message, fn)
}

// Run runs fn while reporting message. Cancelling ctx stops waiting but
// does not stop fn.
func (p *Progress) Run(ctx context.Context, message string, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	if !p.tty {
		select {
		case err := <-done:
			p.result(message, err)
			return err
		case <-ctx.Done():
			p.result(message, ctx.Err())
			return ctx.Err()
		}
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for i := 0; ; i++ {
		select {
		case err := <-done:
			p.result(message, err)
			return err
		case <-ctx.Done():
			p.result(message, ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			_, _ = fmt.Fprintf(p.w, "\r%s %s", progressStyle.Render(spinnerChars[i%len(spinnerChars)]), message)
		}
	}
}

// RunSteps runs steps in order, stopping at the first failure
func (p *Progress) RunSteps(ctx context.Context, steps []ProgressStep) error {
	for i, step := range steps {
		msg := fmt.Sprintf("[%d/%d] %s", i+1, len(steps), step.Message)
		if err := p.Run(ctx, msg, step.Fn); err != nil {
			return fmt.Errorf("%s: %w", step.Message, err)
		}
	}
	return nil
}

func (p *Progress) result(message string, err error) {
	prefix := ""
	if p.tty {
		prefix = "\r"
	}
	if err != nil {
		_, _ = fmt.Fprintf(p.w, "%s%s %s\n", prefix, p.mark(errorStyle, "✗", "FAILED"), message)
		return
	}
	_, _ = fmt.Fprintf(p.w, "%s%s %s\n", prefix, p.mark(successStyle, "✓", "OK"), message)
}

func (p *Progress) mark(style lipgloss.Style, symbol, plain string) string {
	if p.tty {
		return style.Render(symbol)
	}
	return plain
}

// Success prints a success message
func (p *Progress) Success(message string) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", p.mark(successStyle, "✓", "OK"), message)
}

// Error prints an error message
func (p *Progress) Error(message string) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", p.mark(errorStyle, "✗", "ERROR:"), message)
}

// Info prints an info message
func (p *Progress) Info(message string) {
	if p.tty {
		_, _ = fmt.Fprintf(p.w, "%s %s\n", progressStyle.Render("ℹ"), message)
		return
	}
	_, _ = fmt.Fprintln(p.w, message)
}

// Warning prints a warning message
func (p *Progress) Warning(message string) {
	_, _ = fmt.Fprintf(p.w, "%s %s\n", p.mark(warningStyle, "⚠", "WARNING:"), message)
}

// isTerminal checks if the writer is a terminal
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}
