package observability

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	colorReset    = "\033[0m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
	colorPurple   = "\033[35m"
)

// termMu serialises log output with banner and status writes.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}

// IsInteractive reports whether stdin is a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

type termWriter struct{ out io.Writer }

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return tw.out.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput().
func NewTermWriter() io.Writer {
	return termWriter{out: os.Stderr}
}

const banner = `
    ___                    __  __              __    __
   /   | ____ ____  ____  / /_/ /   ____ _____/ /___/ /__  _____
  / /| |/ __ '/ _ \/ __ \/ __/ /   / __ '/ __  / __  / _ \/ ___/
 / ___ / /_/ /  __/ / / / /_/ /___/ /_/ / /_/ / /_/ /  __/ /
/_/  |_\__, /\___/_/ /_/\__/_____/\__,_/\__,_/\__,_/\___/_/
      /____/
`

// PrintBanner writes the centred banner and a tagline to w.
func PrintBanner(w io.Writer, tagline string) {
	termMu.Lock()
	defer termMu.Unlock()

	width := termWidth()
	lines := strings.Split(banner, "\n")
	if tagline != "" {
		lines = append(lines, "", ">> "+tagline+" <<", "")
	}
	for _, l := range lines {
		padding := (width - len([]rune(l))) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Fprintf(w, "%s%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan, l, colorReset)
	}
}

// StatusLine renders the current role, task, pulse and uptime.
func StatusLine() string {
	st := Current()
	role, task, lastHB := st.Role, st.Task, st.Heartbeat

	pulse, pulseColor := "OFFLINE", colorNeonMag
	switch delta := time.Since(lastHB); {
	case delta < 40*time.Second:
		pulse, pulseColor = "HEALTHY", colorNeonCyan
	case delta < 90*time.Second:
		pulse, pulseColor = "LAGGING", colorPurple
	}

	if task == "" {
		task = "Waiting..."
	}
	if len(task) > 40 {
		task = task[:37] + "..."
	}

	return fmt.Sprintf("[%s] %s%-7s%s | %-9s | %s | up %v",
		lastHB.Format("15:04:05"),
		pulseColor, pulse, colorReset,
		role, task,
		time.Since(startTime).Round(time.Second),
	)
}
