// Package ui is the terminal front end: a command line under a themed output pane.
package ui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"crypto_tracker/internal/theme"
)

// Handler runs one command and returns its reply.
type Handler func(ctx context.Context, cmd string) string

// App is the TUI application.
type App struct {
	app     *tview.Application
	output  *tview.TextView
	input   *tview.InputField
	status  *tview.TextView
	layout  *tview.Flex
	handler Handler
	palette func() theme.Palette

	mu      sync.Mutex
	lastCmd string
	ctx     context.Context
}

// NewApp builds the layout. palette is read on every redraw so theme toggles apply immediately.
func NewApp(handler Handler, palette func() theme.Palette) *App {
	a := &App{
		app:     tview.NewApplication(),
		handler: handler,
		palette: palette,
		lastCmd: "/coins",
		ctx:     context.Background(),
	}

	a.output = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	a.output.SetBorder(true).SetTitle(" Crypto Tracker ")

	a.status = tview.NewTextView().SetDynamicColors(true)
	a.status.SetText(" Enter a command (/help). Esc clears, F5 refreshes, Ctrl-C quits.")

	a.input = tview.NewInputField().SetLabel("> ")
	a.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			if key == tcell.KeyEscape {
				a.input.SetText("")
			}
			return
		}
		cmd := strings.TrimSpace(a.input.GetText())
		a.input.SetText("")
		if cmd == "" {
			return
		}
		if !strings.HasPrefix(cmd, "/") {
			cmd = "/" + cmd
		}
		a.run(cmd)
	})

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.output, 0, 1, false).
		AddItem(a.status, 1, 0, false).
		AddItem(a.input, 1, 0, true)

	a.app.SetRoot(a.layout, true).SetFocus(a.input)
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			a.app.Stop()
			return nil
		case tcell.KeyF5:
			a.Refresh()
			return nil
		}
		return event
	})
	a.applyPalette()
	return a
}

// Run blocks until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()

	a.run(a.lastCommand())
	if err := a.app.Run(); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}
	return nil
}

// Refresh re-runs the last non-mutating command, e.g. after a poll.
func (a *App) Refresh() {
	a.run(a.lastCommand())
}

func (a *App) lastCommand() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastCmd
}

// run executes cmd off the UI goroutine and draws the reply when it returns.
func (a *App) run(cmd string) {
	a.mu.Lock()
	ctx := a.ctx
	if !mutating(cmd) {
		a.lastCmd = cmd
	}
	a.mu.Unlock()

	go func() {
		a.app.QueueUpdateDraw(func() {
			a.status.SetText(" ⏳ " + tview.Escape(cmd))
		})
		reply := a.handler(ctx, cmd)
		zap.L().Debug("TUI command", zap.String("cmd", cmd))
		a.app.QueueUpdateDraw(func() {
			a.applyPalette()
			a.output.SetText(Render(reply, a.palette()))
			a.output.ScrollToBeginning()
			a.status.SetText(" " + tview.Escape(cmd))
		})
	}()
}

func (a *App) applyPalette() {
	p := a.palette()
	bg := tcell.GetColor(p.Background)
	fg := tcell.GetColor(p.Foreground)
	muted := tcell.GetColor(p.Muted)

	a.output.SetBackgroundColor(bg)
	a.output.SetTextColor(fg)
	a.output.SetBorderColor(muted)
	a.status.SetBackgroundColor(bg)
	a.status.SetTextColor(muted)
	a.input.SetBackgroundColor(bg)
	a.input.SetFieldBackgroundColor(bg)
	a.input.SetFieldTextColor(fg)
	a.input.SetLabelColor(muted)
}

// Commands that change state are not repeated by Refresh.
func mutating(cmd string) bool {
	switch strings.ToLower(strings.Fields(cmd)[0]) {
	case "/buy", "/sell", "/watch", "/alert", "/unalert", "/cleartriggered", "/theme":
		return true
	}
	return false
}

var signedPct = regexp.MustCompile(`[+-]\d[\d,]*\.\d+%`)

// Render turns a chat-formatted reply into tview markup: Markdown markers are
// dropped and gains/losses are coloured with the palette.
func Render(text string, p theme.Palette) string {
	text = strings.NewReplacer("```", "", "*", "", "`", "").Replace(text)
	text = tview.Escape(text)

	gain := "[" + p.Gain + "]"
	loss := "[" + p.Loss + "]"
	text = signedPct.ReplaceAllStringFunc(text, func(s string) string {
		if strings.HasPrefix(s, "-") {
			return loss + s + "[-]"
		}
		return gain + s + "[-]"
	})
	text = strings.ReplaceAll(text, p.Up, gain+p.Up+"[-]")
	text = strings.ReplaceAll(text, p.Down, loss+p.Down+"[-]")
	return text
}
