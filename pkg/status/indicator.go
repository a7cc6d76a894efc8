// Package status draws the "thinking" indicator shown while a provider is
// being contacted.
package status

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// DefaultLabel is printed in front of the spinner frame.
const DefaultLabel = "正在思考"

// joinTimeout bounds how long Stop waits for the drawing goroutine.
const joinTimeout = time.Second

// Indicator animates a single line until stopped. Each provider attempt
// owns one Indicator; it is not restartable.
type Indicator struct {
	out     io.Writer
	label   string
	spinner spinner.Spinner

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Start launches the drawing goroutine. A nil writer yields an inert
// indicator whose Stop returns immediately.
func Start(out io.Writer, label string) *Indicator {
	return start(out, label, spinner.MiniDot)
}

func start(out io.Writer, label string, sp spinner.Spinner) *Indicator {
	ind := &Indicator{
		out:     out,
		label:   label,
		spinner: sp,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	if out == nil || len(sp.Frames) == 0 {
		close(ind.done)
		return ind
	}
	go ind.run()
	return ind
}

func (i *Indicator) run() {
	defer close(i.done)

	interval := i.spinner.FPS
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	width := 0
	for frame := 0; ; frame = (frame + 1) % len(i.spinner.Frames) {
		line := i.label + " " + i.spinner.Frames[frame]
		_, _ = fmt.Fprint(i.out, "\r"+line)
		if w := runewidth.StringWidth(ansi.Strip(line)); w > width {
			width = w
		}

		select {
		case <-i.stop:
			_, _ = fmt.Fprint(i.out, "\r"+strings.Repeat(" ", width)+"\r")
			return
		case <-ticker.C:
		}
	}
}

// Stop signals the goroutine and waits up to one second for it to clear
// the line. It reports whether the goroutine exited in time. Repeated
// calls are safe.
func (i *Indicator) Stop() bool {
	i.stopOnce.Do(func() { close(i.stop) })
	select {
	case <-i.done:
		return true
	case <-time.After(joinTimeout):
		return false
	}
}
