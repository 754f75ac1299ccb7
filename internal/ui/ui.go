// Package ui renders breath-test progress as full-screen terminal frames.
// When stdout is not a terminal it degrades to plain status lines so the
// output stays usable in pipes and hook logs.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/srg/bacstop/protocol"
)

// LegalLimitPercent is the BAC threshold used only for result coloring
const LegalLimitPercent = 0.08

const boxWidth = 34

// TerminalUI renders breath-test screens with a color scheme
type TerminalUI struct {
	colors *ColorScheme
	out    io.Writer
	isTTY  bool
}

// New creates a terminal UI with the named theme writing to stdout
func New(theme string) *TerminalUI {
	return &TerminalUI{
		colors: SchemeByName(theme),
		out:    os.Stdout,
		isTTY:  term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// NewWithWriter creates a UI for a specific writer; used by tests
func NewWithWriter(theme string, out io.Writer, isTTY bool) *TerminalUI {
	return &TerminalUI{
		colors: SchemeByName(theme),
		out:    out,
		isTTY:  isTTY,
	}
}

func (u *TerminalUI) clear() {
	if u.isTTY {
		fmt.Fprint(u.out, "\033[2J\033[H")
	}
}

func (u *TerminalUI) header() {
	line := strings.Repeat("=", 60)
	u.colors.Header.Fprintln(u.out, line)
	u.colors.Header.Fprintln(u.out, "                    BACtrack Breath Test")
	u.colors.Header.Fprintln(u.out, line)
	fmt.Fprintln(u.out)
}

// box prints a single centered line framed in a box
func (u *TerminalUI) box(c colorPrinter, text string) {
	pad := boxWidth - 2 - len([]rune(text))
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	right := pad - left

	c.Fprintln(u.out, "        ╔"+strings.Repeat("═", boxWidth-2)+"╗")
	c.Fprintln(u.out, "        ║"+strings.Repeat(" ", left)+text+strings.Repeat(" ", right)+"║")
	c.Fprintln(u.out, "        ╚"+strings.Repeat("═", boxWidth-2)+"╝")
	fmt.Fprintln(u.out)
}

// colorPrinter is the subset of color.Color the renderer needs
type colorPrinter interface {
	Fprintln(w io.Writer, a ...interface{}) (int, error)
}

// screen clears and redraws the header before the given body
func (u *TerminalUI) screen(body func()) {
	if !u.isTTY {
		return
	}
	u.clear()
	u.header()
	body()
}

// ShowConnecting renders the device discovery screen
func (u *TerminalUI) ShowConnecting() {
	if !u.isTTY {
		fmt.Fprintln(u.out, "Scanning for BACtrack device...")
		return
	}
	u.screen(func() {
		u.colors.Countdown.Fprintln(u.out, "Scanning for BACtrack device...")
		fmt.Fprintln(u.out)
	})
}

// ShowConnected renders the connection confirmation screen
func (u *TerminalUI) ShowConnected(address string) {
	if !u.isTTY {
		fmt.Fprintf(u.out, "Connected to %s\n", address)
		return
	}
	u.screen(func() {
		u.colors.Blow.Fprintf(u.out, "Connected to %s\n\n", address)
	})
}

// ShowGetReady renders the pre-test screen
func (u *TerminalUI) ShowGetReady() {
	u.plainOr("Get ready...", func() {
		u.box(u.colors.Countdown, "GET READY...")
	})
}

func (u *TerminalUI) showCountdown(seconds uint8) {
	u.plainOr(fmt.Sprintf("Warming up... %ds", seconds), func() {
		u.box(u.colors.Countdown, fmt.Sprintf("Warming Up: %2d", seconds))
	})
}

func (u *TerminalUI) showBlowNow() {
	u.plainOr("BEGIN BLOWING NOW!", func() {
		u.box(u.colors.Blow, "BLOW NOW!")
	})
}

func (u *TerminalUI) showKeepBlowing(seconds uint8) {
	if !u.isTTY {
		fmt.Fprintf(u.out, "Keep blowing... %ds\n", seconds)
		return
	}
	u.screen(func() {
		u.box(u.colors.Blow, "Keep Blowing...")

		// Blow phase runs five seconds; fill the bar as it drains
		filled := 5 - int(seconds)
		if filled < 0 {
			filled = 0
		}
		if filled > 5 {
			filled = 5
		}
		bar := strings.Repeat("█", 6*filled) + strings.Repeat("░", 30-6*filled)
		u.colors.Blow.Fprintf(u.out, "        [%s]\n", bar)
		u.colors.Countdown.Fprintf(u.out, "        %d seconds remaining\n\n", seconds)
	})
}

func (u *TerminalUI) showAnalyzing() {
	u.plainOr("Analyzing sample...", func() {
		u.box(u.colors.Analyzing, "Analyzing...")
	})
}

// ShowResult renders the final BAC reading with legal-limit coloring
func (u *TerminalUI) ShowResult(bac float64) {
	c := u.colors.ResultOver
	status := "Over Legal Limit"
	switch {
	case bac == 0.0:
		c = u.colors.ResultSober
		status = "Sober"
	case bac < LegalLimitPercent:
		c = u.colors.ResultUnder
		status = "Under Legal Limit"
	}

	if !u.isTTY {
		fmt.Fprintf(u.out, "BAC: %.4f%% (%s)\n", bac, status)
		return
	}
	u.screen(func() {
		c.Fprintln(u.out, "        ╔"+strings.Repeat("═", boxWidth-2)+"╗")
		c.Fprintf(u.out, "        ║%s║\n", center(fmt.Sprintf("BAC: %.4f%%", bac), boxWidth-2))
		c.Fprintf(u.out, "        ║%s║\n", center(status, boxWidth-2))
		c.Fprintln(u.out, "        ╚"+strings.Repeat("═", boxWidth-2)+"╝")
		fmt.Fprintln(u.out)
	})
}

// ShowError renders a failure screen
func (u *TerminalUI) ShowError(message string) {
	if !u.isTTY {
		fmt.Fprintf(u.out, "ERROR: %s\n", message)
		return
	}
	u.screen(func() {
		u.colors.ResultOver.Fprintf(u.out, "%s\n\n", message)
	})
}

// Update renders the screen matching a decoded notification. It is the
// breath-test callback: informational kinds redraw, terminal errors show
// the failure screen, results are rendered by the caller via ShowResult.
func (u *TerminalUI) Update(n protocol.Notification) {
	switch n.Kind {
	case protocol.KindCountdown:
		u.showCountdown(n.Seconds)
	case protocol.KindStartBlow:
		u.showBlowNow()
	case protocol.KindKeepBlowing:
		u.showKeepBlowing(n.Seconds)
	case protocol.KindAnalyzing, protocol.KindFinalizing, protocol.KindWrappingUp:
		u.showAnalyzing()
	case protocol.KindCancelled, protocol.KindBlowError, protocol.KindTimeout:
		u.ShowError(n.Message())
	}
}

// plainOr prints msg on non-terminals, otherwise redraws the boxed screen
func (u *TerminalUI) plainOr(msg string, body func()) {
	if !u.isTTY {
		fmt.Fprintln(u.out, msg)
		return
	}
	u.screen(body)
}

func center(text string, width int) string {
	pad := width - len([]rune(text))
	if pad < 0 {
		return text
	}
	left := pad / 2
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", pad-left)
}
