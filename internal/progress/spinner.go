// Package progress shows a spinner on the terminal while the CLI waits for
// the router.
package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

const spinnerInterval = 100 * time.Millisecond

// Spinner indicates that an operation is in progress.
type Spinner interface {
	Start(description string)
	Stop()
}

// NewSpinner returns a terminal spinner writing to w, or a no-op spinner
// when w is not a terminal (pipes, redirects, CI logs).
func NewSpinner(w io.Writer) Spinner {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return NoOpSpinner{}
	}
	enableANSI(f)
	return NewCLISpinner(f)
}

// CLISpinner implements Spinner with an indeterminate progress bar.
type CLISpinner struct {
	w io.Writer

	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	stop chan struct{}
	done chan struct{}
}

// NewCLISpinner creates a spinner writing to w.
func NewCLISpinner(w io.Writer) *CLISpinner {
	return &CLISpinner{w: w}
}

// Start shows the spinner with a description. Calling Start while running
// only changes the description.
func (s *CLISpinner) Start(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar != nil {
		s.bar.Describe(description)
		return
	}

	s.bar = progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	go s.spin(s.bar, s.stop, s.done)
}

func (s *CLISpinner) spin(bar *progressbar.ProgressBar, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = bar.Add(1)
		case <-stop:
			return
		}
	}
}

// Stop removes the spinner. It is safe to call more than once.
func (s *CLISpinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bar == nil {
		return
	}
	close(s.stop)
	<-s.done
	_ = s.bar.Finish()
	s.bar = nil
}

// NoOpSpinner does nothing (for non-interactive output).
type NoOpSpinner struct{}

// Start does nothing.
func (NoOpSpinner) Start(string) {}

// Stop does nothing.
func (NoOpSpinner) Stop() {}
